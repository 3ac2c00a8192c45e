package symptom

import "github.com/radheshpai87/aurahealth-core/internal/model"

// checklistWeights scores the string-keyed checklist. Unknown entries score
// zero so a newer client tagging extra symptoms degrades gracefully.
var checklistWeights = map[string]int{
	"heavy_bleeding":  20,
	"severe_cramps":   15,
	"fever":           15,
	"irregular_cycle": 20,
	"discharge":       15,
	"fatigue":         10,
	"nausea":          10,
	"headache":        10,
	"bloating":        5,
	"mood_swings":     5,
}

// checklistOrder fixes the rendering order for the selection UI.
var checklistOrder = []string{
	"heavy_bleeding", "severe_cramps", "fever", "irregular_cycle",
	"discharge", "fatigue", "nausea", "headache", "bloating", "mood_swings",
}

// Checklist level thresholds.
const (
	checklistHighMin     = 50
	checklistModerateMin = 25
)

// Checklist message keys.
const (
	ChecklistKeyConsultNow   = "CONSULT_DOCTOR_NOW"
	ChecklistKeyMonitor      = "MONITOR_SYMPTOMS"
	ChecklistKeyKeepTracking = "KEEP_TRACKING"
)

// ChecklistResult is one checklist evaluation.
type ChecklistResult struct {
	Score      int
	Level      model.RiskLevel
	MessageKey string
	Symptoms   []string // the known symptoms that contributed, in catalogue order
}

// ScoreChecklist evaluates a selected symptom set.
func ScoreChecklist(selected []string) ChecklistResult {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}

	score := 0
	var contributed []string
	for _, s := range checklistOrder {
		if chosen[s] {
			score += checklistWeights[s]
			contributed = append(contributed, s)
		}
	}

	res := ChecklistResult{Score: score, Symptoms: contributed}
	switch {
	case score >= checklistHighMin:
		res.Level = model.RiskHigh
		res.MessageKey = ChecklistKeyConsultNow
	case score >= checklistModerateMin:
		res.Level = model.RiskModerate
		res.MessageKey = ChecklistKeyMonitor
	default:
		res.Level = model.RiskLow
		res.MessageKey = ChecklistKeyKeepTracking
	}
	return res
}

// KnownSymptoms returns the checklist catalogue in rendering order.
func KnownSymptoms() []string {
	out := make([]string, len(checklistOrder))
	copy(out, checklistOrder)
	return out
}
