package wire

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

func validRecord() Record {
	return Record{
		ID:          "r-1",
		VillageCode: "RAMPUR",
		Timestamp:   time.Now().UTC(),
		Score:       12,
		Level:       "MODERATE",
		Symptoms:    model.SymptomFlags{Fatigue: true},
	}
}

func TestFromWireRecordValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Record){
		"missing id":      func(r *Record) { r.ID = "" },
		"missing village": func(r *Record) { r.VillageCode = "" },
		"long village":    func(r *Record) { r.VillageCode = strings.Repeat("A", 21) },
		"unknown level":   func(r *Record) { r.Level = "CRITICAL" },
		"score too high":  func(r *Record) { r.Score = 51 },
		"negative score":  func(r *Record) { r.Score = -1 },
	}
	for name, mutate := range cases {
		r := validRecord()
		mutate(&r)
		if _, err := FromWireRecord(r); err == nil {
			t.Errorf("%s: want validation error", name)
		}
	}

	m, err := FromWireRecord(validRecord())
	if err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	if m.Level != model.RiskModerate {
		t.Fatalf("want moderate level, got %q", m.Level)
	}
	if m.Retries != 0 || m.Synced {
		t.Fatal("bookkeeping fields must start zeroed")
	}
}

func TestFromWireRecordsNamesIndex(t *testing.T) {
	t.Parallel()

	bad := validRecord()
	bad.Level = "nope"
	_, err := FromWireRecords([]Record{validRecord(), bad})
	if err == nil || !strings.Contains(err.Error(), "record[1]") {
		t.Fatalf("want error naming record[1], got %v", err)
	}
}

func TestSyncRequestBatchBounds(t *testing.T) {
	t.Parallel()

	if err := (SyncRequest{}).Validate(); err == nil {
		t.Error("empty batch should be rejected")
	}

	over := make([]Record, MaxBatchSize+1)
	for i := range over {
		over[i] = validRecord()
	}
	if err := (SyncRequest{Records: over}).Validate(); err == nil {
		t.Error("oversized batch should be rejected")
	}
	if err := (SyncRequest{Records: over[:MaxBatchSize]}).Validate(); err != nil {
		t.Errorf("full batch should pass: %v", err)
	}
}

func TestPredictRequestFieldNames(t *testing.T) {
	t.Parallel()

	req := ToPredictRequest(model.FeatureSnapshot{
		Age: 25, BMI: 21, Stress: 1, Sleep: 8, Exercise: 5, CycleAvg: 28, CycleVar: 2,
	})
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{
		`"age"`, `"bmi"`, `"stress_level"`, `"sleep_hours"`,
		`"exercise_freq"`, `"cycle_length_avg"`, `"cycle_variance"`,
	} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("payload missing %s: %s", key, raw)
		}
	}
	if strings.Contains(string(raw), "estimated") {
		t.Fatalf("estimation flag is local-only: %s", raw)
	}
}
