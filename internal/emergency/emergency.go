// Package emergency maps assessment outcomes to alert tiers, builds the
// bilingual alert messages and hands them to an SMS dispatcher. Actual
// delivery is a device concern; the bundled dispatcher only simulates it.
package emergency

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/location"
	"github.com/radheshpai87/aurahealth-core/internal/model"
)

// Tier is the alert severity.
type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierWarning  Tier = "WARNING"
)

// Indian public health hotlines.
const (
	HotlineAmbulance = "108" // national ambulance service
	HotlineHealth    = "104" // state health helpline / ASHA escalation
)

// criticalSymptoms escalate to CRITICAL regardless of the scored level.
var criticalSymptoms = map[string]bool{
	"heavy_bleeding": true,
	"severe_cramps":  true,
	"fever":          true,
}

// Alert is a classified emergency with its dial target.
type Alert struct {
	Tier     Tier
	Hotline  string
	Advice   string
	Symptoms []string
}

// Classify decides whether the assessment warrants an alert. A HIGH level
// or any critical symptom is CRITICAL; MODERATE is a WARNING; anything
// else returns nil.
func Classify(level model.RiskLevel, symptoms []string) *Alert {
	hasCritical := false
	for _, s := range symptoms {
		if criticalSymptoms[strings.ToLower(strings.TrimSpace(s))] {
			hasCritical = true
			break
		}
	}

	switch {
	case level == model.RiskHigh || hasCritical:
		return &Alert{
			Tier:     TierCritical,
			Hotline:  HotlineAmbulance,
			Advice:   "Seek medical help immediately.",
			Symptoms: symptoms,
		}
	case level == model.RiskModerate:
		return &Alert{
			Tier:     TierWarning,
			Hotline:  HotlineHealth,
			Advice:   "Contact your ASHA worker or local clinic.",
			Symptoms: symptoms,
		}
	default:
		return nil
	}
}

// BuildMessage renders the SMS body for an alert. The coordinate line
// falls back to "Unknown" without a fix.
func BuildMessage(a Alert, name, lang string, coords *location.Coordinates) string {
	if strings.TrimSpace(name) == "" {
		name = "User"
	}
	loc := location.FormatCoords(coords)
	symptoms := "none reported"
	if len(a.Symptoms) > 0 {
		symptoms = strings.Join(a.Symptoms, ", ")
	}

	if lang == "hi" {
		if len(a.Symptoms) == 0 {
			symptoms = "कोई लक्षण दर्ज नहीं"
		}
		return fmt.Sprintf("आपातकाल: %s को तुरंत मदद चाहिए। लक्षण: %s। स्थान: %s। कॉल करें %s।",
			name, symptoms, loc, a.Hotline)
	}
	return fmt.Sprintf("EMERGENCY: %s needs help. Symptoms: %s. Location: %s. Call %s.",
		name, symptoms, loc, a.Hotline)
}

// SendResult reports one delivery attempt.
type SendResult struct {
	Sent      bool   `json:"sent"`
	Simulated bool   `json:"simulated"`
	Recipient string `json:"recipient"`
}

// Sender delivers an alert message to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient, body string) SendResult
}

// SimulatedDispatcher stands in for an SMS gateway: it logs the message
// and reports success.
type SimulatedDispatcher struct {
	log *zap.Logger
}

var _ Sender = (*SimulatedDispatcher)(nil)

func NewSimulatedDispatcher(log *zap.Logger) *SimulatedDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &SimulatedDispatcher{log: log}
}

func (d *SimulatedDispatcher) Send(_ context.Context, recipient, body string) SendResult {
	d.log.Info("simulated sms",
		zap.String("recipient", recipient),
		zap.String("body", body))
	return SendResult{Sent: true, Simulated: true, Recipient: recipient}
}

// Broadcast sends the alert body to every recipient in order.
func Broadcast(ctx context.Context, s Sender, recipients []string, body string) []SendResult {
	out := make([]SendResult, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, s.Send(ctx, r, body))
	}
	return out
}
