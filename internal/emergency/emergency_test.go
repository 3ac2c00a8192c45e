package emergency

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/location"
	"github.com/radheshpai87/aurahealth-core/internal/model"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		level    model.RiskLevel
		symptoms []string
		tier     Tier
		hotline  string
		none     bool
	}{
		{
			name:    "high level is critical",
			level:   model.RiskHigh,
			tier:    TierCritical,
			hotline: HotlineAmbulance,
		},
		{
			name:     "critical symptom escalates a low level",
			level:    model.RiskLow,
			symptoms: []string{"headache", "heavy_bleeding"},
			tier:     TierCritical,
			hotline:  HotlineAmbulance,
		},
		{
			name:     "critical symptom is matched case-insensitively",
			level:    model.RiskLow,
			symptoms: []string{" FEVER "},
			tier:     TierCritical,
			hotline:  HotlineAmbulance,
		},
		{
			name:    "moderate level is a warning",
			level:   model.RiskModerate,
			tier:    TierWarning,
			hotline: HotlineHealth,
		},
		{
			name:     "low level with mild symptoms raises nothing",
			level:    model.RiskLow,
			symptoms: []string{"bloating", "mood_swings"},
			none:     true,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := Classify(tc.level, tc.symptoms)
			if tc.none {
				if a != nil {
					t.Fatalf("want no alert, got %+v", a)
				}
				return
			}
			if a == nil {
				t.Fatal("want an alert, got nil")
			}
			if a.Tier != tc.tier || a.Hotline != tc.hotline {
				t.Fatalf("want %s/%s, got %s/%s", tc.tier, tc.hotline, a.Tier, a.Hotline)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	alert := Alert{
		Tier:     TierCritical,
		Hotline:  HotlineAmbulance,
		Symptoms: []string{"heavy_bleeding", "fever"},
	}
	coords := &location.Coordinates{Latitude: 26.8467, Longitude: 80.9462}

	msg := BuildMessage(alert, "Asha", "en", coords)
	for _, part := range []string{"Asha", "heavy_bleeding, fever", "26.8467, 80.9462", "108"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message missing %q: %s", part, msg)
		}
	}

	msg = BuildMessage(alert, "", "en", nil)
	if !strings.Contains(msg, "User") {
		t.Errorf("blank name should fall back to User: %s", msg)
	}
	if !strings.Contains(msg, "Unknown") {
		t.Errorf("missing fix should render Unknown: %s", msg)
	}

	msg = BuildMessage(alert, "Asha", "hi", coords)
	if !strings.Contains(msg, "आपातकाल") || !strings.Contains(msg, "108") {
		t.Errorf("hindi message malformed: %s", msg)
	}
}

func TestSimulatedDispatch(t *testing.T) {
	t.Parallel()

	d := NewSimulatedDispatcher(zap.NewNop())
	results := Broadcast(context.Background(), d, []string{"ASHA_WORKER", "+915550100"}, "test alert")

	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	for i, res := range results {
		if !res.Sent || !res.Simulated {
			t.Fatalf("result %d: want sent+simulated, got %+v", i, res)
		}
	}
	if results[0].Recipient != "ASHA_WORKER" {
		t.Fatalf("recipient order not preserved: %+v", results)
	}
}
