package risk

import (
	"errors"
	"strings"
	"testing"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
)

func TestNormalizeMissingFeatureNamesField(t *testing.T) {
	t.Parallel()

	full := func() Inputs {
		return Inputs{
			Age: fp(25), BMI: fp(22), Stress: fp(2), Sleep: fp(7),
			Exercise: fp(3), CycleAvg: fp(28),
		}
	}

	drops := []struct {
		field string
		mut   func(*Inputs)
	}{
		{"age", func(i *Inputs) { i.Age = nil }},
		{"bmi", func(i *Inputs) { i.BMI = nil }},
		{"stress", func(i *Inputs) { i.Stress = nil }},
		{"sleep", func(i *Inputs) { i.Sleep = nil }},
		{"exercise", func(i *Inputs) { i.Exercise = nil }},
		{"cycle_avg", func(i *Inputs) { i.CycleAvg = nil }},
	}
	for _, d := range drops {
		in := full()
		d.mut(&in)
		_, err := Normalize(in, nil)
		if !errors.Is(err, errs.ErrFeatureMissing) {
			t.Fatalf("dropping %s: want feature-missing, got %v", d.field, err)
		}
		if !strings.Contains(err.Error(), d.field) {
			t.Fatalf("error %q does not name the field %s", err, d.field)
		}
	}
}

func TestNormalizeCycleVarOptional(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Age: fp(25), BMI: fp(22), Stress: fp(3), Sleep: fp(7),
		Exercise: fp(3), CycleAvg: fp(28),
	}
	f, err := Normalize(in, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !f.CycleVarEst {
		t.Fatalf("estimate flag not set")
	}
	if f.CycleVar != 6 {
		t.Fatalf("estimated variance: want 6 (stress 3), got %v", f.CycleVar)
	}

	in.CycleVar = fp(4)
	f, err = Normalize(in, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if f.CycleVarEst || f.CycleVar != 4 {
		t.Fatalf("supplied variance mangled: %+v", f)
	}

	in.CycleVar = fp(-2)
	f, _ = Normalize(in, nil)
	if f.CycleVar != 0 {
		t.Fatalf("negative variance: want 0, got %v", f.CycleVar)
	}
}

func TestNormalizeClampsSilently(t *testing.T) {
	t.Parallel()

	f, err := Normalize(Inputs{
		Age: fp(8), BMI: fp(80), Stress: fp(9), Sleep: fp(-2),
		Exercise: fp(10), CycleAvg: fp(200),
	}, nil)
	if err != nil {
		t.Fatalf("out-of-range input must clamp, not fail: %v", err)
	}
	if f.Age != 12 || f.BMI != 45 || f.Stress != 5 || f.Sleep != 0 ||
		f.Exercise != 7 || f.CycleAvg != 90 {
		t.Fatalf("clamped vector wrong: %+v", f)
	}
}
