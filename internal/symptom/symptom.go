// Package symptom holds the rule-based scorers: a flat additive model over
// boolean symptom flags, and the coarser string-keyed checklist used by the
// field triage flow. Both are pure and deterministic.
package symptom

import "github.com/radheshpai87/aurahealth-core/internal/model"

// Authored weights for the flag scorer.
const (
	weightHeavyBleeding   = 4
	weightFatigue         = 2
	weightDizziness       = 3
	weightLowHb           = 4
	weightIrregularCycles = 2
	weightPain            = 2
	weightPregnancyIssue  = 5

	weightFainted    = 2
	weightSeverePain = 2
	weightVomiting   = 2
)

// Level thresholds: score <= lowMax is LOW, <= moderateMax MODERATE,
// above that HIGH.
const (
	lowMax      = 3
	moderateMax = 6
)

// Result is one flag-scorer run.
type Result struct {
	Score             int
	Level             model.RiskLevel
	RequiresEmergency bool
}

// Score sums the authored weights over the set flags. Any emergency flag
// forces RequiresEmergency, as does a HIGH level on its own.
func Score(flags model.SymptomFlags, em model.EmergencyFlags) Result {
	score := 0
	add := func(set bool, w int) {
		if set {
			score += w
		}
	}
	add(flags.HeavyBleeding, weightHeavyBleeding)
	add(flags.Fatigue, weightFatigue)
	add(flags.Dizziness, weightDizziness)
	add(flags.LowHb, weightLowHb)
	add(flags.IrregularCycles, weightIrregularCycles)
	add(flags.Pain, weightPain)
	add(flags.PregnancyIssue, weightPregnancyIssue)

	add(em.Fainted, weightFainted)
	add(em.SeverePain, weightSeverePain)
	add(em.Vomiting, weightVomiting)

	level := model.RiskLow
	switch {
	case score > moderateMax:
		level = model.RiskHigh
	case score > lowMax:
		level = model.RiskModerate
	}

	return Result{
		Score:             score,
		Level:             level,
		RequiresEmergency: em.Any() || level == model.RiskHigh,
	}
}
