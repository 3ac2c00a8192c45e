package risk

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/model"
)

// Feature names used by the tree definitions.
const (
	featAge      = "age"
	featBMI      = "bmi"
	featStress   = "stress"
	featSleep    = "sleep"
	featExercise = "exercise"
	featCycleAvg = "cycle_avg"
	featCycleVar = "cycle_var"
)

var featureIndex = map[string]int{
	featAge:      0,
	featBMI:      1,
	featStress:   2,
	featSleep:    3,
	featExercise: 4,
	featCycleAvg: 5,
	featCycleVar: 6,
}

const featureCount = 7

// Inputs is the raw, possibly incomplete feature set. Nil means absent;
// every field except CycleVar is required.
type Inputs struct {
	Age      *float64
	BMI      *float64
	Stress   *float64
	Sleep    *float64
	Exercise *float64
	CycleAvg *float64
	CycleVar *float64
}

type bound struct{ lo, hi float64 }

var featureBounds = map[string]bound{
	featAge:      {12, 60},
	featBMI:      {15, 45},
	featStress:   {1, 5},
	featSleep:    {0, 12},
	featExercise: {0, 7},
	featCycleAvg: {14, 90},
}

// cycleVarPerStress estimates cycle variance for users who never recorded
// enough history: higher stress correlates with more erratic cycles.
const cycleVarPerStress = 2.0

// Normalize checks required fields, clamps every value into its authored
// range, and estimates cycle variance from stress when it was not supplied.
// Clamping is silent toward the caller; each clamp is logged.
func Normalize(in Inputs, log *zap.Logger) (model.FeatureSnapshot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	required := []struct {
		name string
		v    *float64
	}{
		{featAge, in.Age},
		{featBMI, in.BMI},
		{featStress, in.Stress},
		{featSleep, in.Sleep},
		{featExercise, in.Exercise},
		{featCycleAvg, in.CycleAvg},
	}
	for _, r := range required {
		if r.v == nil {
			return model.FeatureSnapshot{}, fmt.Errorf("%w: %s", errs.ErrFeatureMissing, r.name)
		}
	}

	clamp := func(name string, v float64) float64 {
		b := featureBounds[name]
		switch {
		case v < b.lo:
			log.Warn("feature clamped", zap.String("feature", name),
				zap.Float64("value", v), zap.Float64("bound", b.lo))
			return b.lo
		case v > b.hi:
			log.Warn("feature clamped", zap.String("feature", name),
				zap.Float64("value", v), zap.Float64("bound", b.hi))
			return b.hi
		default:
			return v
		}
	}

	f := model.FeatureSnapshot{
		Age:      clamp(featAge, *in.Age),
		BMI:      clamp(featBMI, *in.BMI),
		Stress:   clamp(featStress, *in.Stress),
		Sleep:    clamp(featSleep, *in.Sleep),
		Exercise: clamp(featExercise, *in.Exercise),
		CycleAvg: clamp(featCycleAvg, *in.CycleAvg),
	}
	if in.CycleVar != nil {
		f.CycleVar = *in.CycleVar
		if f.CycleVar < 0 {
			f.CycleVar = 0
		}
	} else {
		f.CycleVar = f.Stress * cycleVarPerStress
		f.CycleVarEst = true
	}
	return f, nil
}

func vector(f model.FeatureSnapshot) [featureCount]float64 {
	return [featureCount]float64{
		f.Age, f.BMI, f.Stress, f.Sleep, f.Exercise, f.CycleAvg, f.CycleVar,
	}
}
