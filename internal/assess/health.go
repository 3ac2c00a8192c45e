package assess

import (
	"math"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

// Health-score rubric: additive bands over the normalized feature vector,
// independent of the risk classification. Intended for longitudinal
// display, not triage.
const (
	healthBaseline = 50
	healthMax      = 100

	bmiNormalPts      = 25
	bmiOverweightPts  = 12
	bmiUnderweightPts = 10

	sleepIdealPts = 15
	sleepOkPts    = 10
	sleepShortPts = 5

	stressMaxPts = 15

	exerciseActivePts   = 10
	exerciseModeratePts = 7
	exerciseLightPts    = 4

	cycleRegularStablePts = 10
	cycleRegularPts       = 7
)

var gradeBands = []struct {
	min   int
	grade string
}{
	{85, "A"},
	{70, "B"},
	{55, "C"},
	{40, "D"},
	{0, "F"},
}

// healthScore maps a normalized feature vector to a 0-100 score and a
// letter grade.
func healthScore(f model.FeatureSnapshot) (int, string) {
	pts := float64(healthBaseline)

	switch {
	case f.BMI >= 18.5 && f.BMI < 25:
		pts += bmiNormalPts
	case f.BMI >= 25 && f.BMI < 30:
		pts += bmiOverweightPts
	case f.BMI < 18.5:
		pts += bmiUnderweightPts
	}

	switch {
	case f.Sleep >= 7 && f.Sleep <= 9:
		pts += sleepIdealPts
	case f.Sleep >= 6 && f.Sleep < 7:
		pts += sleepOkPts
	case f.Sleep >= 5 && f.Sleep < 6:
		pts += sleepShortPts
	}

	// Stress 1 earns the full band, stress 5 earns nothing.
	pts += (5 - f.Stress) / 4 * stressMaxPts

	switch {
	case f.Exercise >= 5:
		pts += exerciseActivePts
	case f.Exercise >= 3:
		pts += exerciseModeratePts
	case f.Exercise >= 1:
		pts += exerciseLightPts
	}

	regular := f.CycleAvg >= 21 && f.CycleAvg <= 35
	switch {
	case regular && f.CycleVar < 5:
		pts += cycleRegularStablePts
	case regular:
		pts += cycleRegularPts
	}

	score := int(math.Round(pts))
	if score > healthMax {
		score = healthMax
	}
	if score < 0 {
		score = 0
	}
	return score, gradeFor(score)
}

func gradeFor(score int) string {
	for _, b := range gradeBands {
		if score >= b.min {
			return b.grade
		}
	}
	return "F"
}
