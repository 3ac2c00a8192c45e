// Package cycle derives period starts, cycle length and projections from
// raw logged period dates. All functions are pure; callers supply "today".
package cycle

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

const (
	// DefaultCycleLength is used when fewer than two period starts exist
	// and the profile records no average.
	DefaultCycleLength = 28
	// DefaultPeriodLength is used when bleeding-day runs cannot be grouped.
	DefaultPeriodLength = 5

	lutealDays      = 14 // ovulation precedes the next period by this much
	startSplitDays  = 7  // gap above this starts a new period
	clusterGapDays  = 2  // gap at most this extends a bleeding run
	minCycleGapDays = 21
	maxCycleGapDays = 45
)

// Window is an inclusive date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Summary is the derived cycle state for one user.
type Summary struct {
	PeriodStarts  []time.Time
	CycleLength   int
	PeriodLength  int
	NextPeriod    time.Time
	DaysUntilNext int
	Ovulation     time.Time
	FertileWindow Window
	// InFertileWindow reports whether today falls inside the current
	// cycle's fertile window; the Phase stays one of the four phases.
	InFertileWindow bool
	Phase           model.CyclePhase
	DayOfCycle      int
}

// Analyze derives the full cycle summary. Dates are model.DateLayout strings
// in any order, possibly with duplicates. recordedAvg, when set, replaces the
// 28-day default for users whose history yields no usable gaps. A nil summary
// with a nil error means there is no data to project from.
func Analyze(dates []string, today time.Time, recordedAvg *int) (*Summary, error) {
	parsed, err := parseDates(dates)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, nil
	}
	today = midnight(today)

	starts := detectStarts(parsed)
	cycleLen := cycleLength(starts, recordedAvg)
	periodLen := periodLength(parsed)
	if len(parsed) == 1 {
		periodLen = DefaultPeriodLength
	}

	last := starts[len(starts)-1]
	next := last.AddDate(0, 0, cycleLen)
	for !next.After(today) {
		next = next.AddDate(0, 0, cycleLen)
	}

	d := daysBetween(last, today)
	ovulationOffset := cycleLen - lutealDays

	anchor := last
	win := fertileWindow(anchor, ovulationOffset)
	if win.End.Before(today) {
		anchor = next
		win = fertileWindow(anchor, ovulationOffset)
	}

	return &Summary{
		PeriodStarts:    starts,
		CycleLength:     cycleLen,
		PeriodLength:    periodLen,
		NextPeriod:      next,
		DaysUntilNext:   daysBetween(today, next),
		Ovulation:       anchor.AddDate(0, 0, ovulationOffset),
		FertileWindow:   win,
		InFertileWindow: d >= ovulationOffset-5 && d <= ovulationOffset+1,
		Phase:           phase(d, periodLen, ovulationOffset),
		DayOfCycle:      d,
	}, nil
}

func fertileWindow(anchor time.Time, ovulationOffset int) Window {
	return Window{
		Start: anchor.AddDate(0, 0, ovulationOffset-5),
		End:   anchor.AddDate(0, 0, ovulationOffset+1),
	}
}

func phase(d, periodLen, ovulationOffset int) model.CyclePhase {
	switch {
	case d < periodLen:
		return model.PhaseMenstrual
	case d == ovulationOffset:
		return model.PhaseOvulation
	case d < ovulationOffset:
		return model.PhaseFollicular
	default:
		return model.PhaseLuteal
	}
}

// detectStarts splits sorted dates into period starts: the first date always
// starts a period, and any gap above startSplitDays starts the next one.
func detectStarts(dates []time.Time) []time.Time {
	starts := []time.Time{dates[0]}
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) > startSplitDays {
			starts = append(starts, dates[i])
		}
	}
	return starts
}

// periodLength clusters dates into bleeding runs (gap <= clusterGapDays) and
// returns the rounded mean run size.
func periodLength(dates []time.Time) int {
	if len(dates) == 0 {
		return DefaultPeriodLength
	}
	runs := []int{1}
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) <= clusterGapDays {
			runs[len(runs)-1]++
		} else {
			runs = append(runs, 1)
		}
	}
	sum := 0
	for _, r := range runs {
		sum += r
	}
	n := int(math.Round(float64(sum) / float64(len(runs))))
	if n < 1 {
		n = 1
	}
	return n
}

// cycleLength averages start-to-start gaps within [21, 45] days; out-of-range
// gaps are treated as data noise and skipped.
func cycleLength(starts []time.Time, recordedAvg *int) int {
	var sum, n int
	for i := 1; i < len(starts); i++ {
		g := daysBetween(starts[i-1], starts[i])
		if g >= minCycleGapDays && g <= maxCycleGapDays {
			sum += g
			n++
		}
	}
	if n == 0 {
		if recordedAvg != nil && *recordedAvg > 0 {
			return *recordedAvg
		}
		return DefaultCycleLength
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func parseDates(dates []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, s := range dates {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		t, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("parse period date %q: %w", s, err)
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
