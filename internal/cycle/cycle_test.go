package cycle

import (
	"testing"
	"time"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestAnalyzeFullHistory(t *testing.T) {
	t.Parallel()

	dates := []string{"2024-01-03", "2024-01-04", "2024-01-05", "2024-01-31", "2024-02-01", "2024-02-28"}
	today := day(t, "2024-03-10")

	s, err := Analyze(dates, today, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s == nil {
		t.Fatalf("nil summary for full history")
	}

	wantStarts := []string{"2024-01-03", "2024-01-31", "2024-02-28"}
	if len(s.PeriodStarts) != len(wantStarts) {
		t.Fatalf("starts: want %d, got %d (%v)", len(wantStarts), len(s.PeriodStarts), s.PeriodStarts)
	}
	for i, w := range wantStarts {
		if got := s.PeriodStarts[i].Format(model.DateLayout); got != w {
			t.Fatalf("start[%d]: want %s, got %s", i, w, got)
		}
	}
	if s.CycleLength != 28 {
		t.Fatalf("cycle length: want 28, got %d", s.CycleLength)
	}
	if s.PeriodLength != 2 {
		t.Fatalf("period length: want 2, got %d", s.PeriodLength)
	}
	if got := s.NextPeriod.Format(model.DateLayout); got != "2024-03-27" {
		t.Fatalf("next period: want 2024-03-27, got %s", got)
	}
	if s.DaysUntilNext != 17 {
		t.Fatalf("days until next: want 17, got %d", s.DaysUntilNext)
	}
	if s.DayOfCycle != 11 {
		t.Fatalf("day of cycle: want 11, got %d", s.DayOfCycle)
	}
	if s.Phase != model.PhaseFollicular {
		t.Fatalf("phase: want follicular, got %s", s.Phase)
	}
	if !s.InFertileWindow {
		t.Fatalf("day 11 of a 28-day cycle must be inside the fertile window")
	}
	if got := s.Ovulation.Format(model.DateLayout); got != "2024-03-13" {
		t.Fatalf("ovulation: want 2024-03-13, got %s", got)
	}
	if got := s.FertileWindow.Start.Format(model.DateLayout); got != "2024-03-08" {
		t.Fatalf("window start: want 2024-03-08, got %s", got)
	}
	if got := s.FertileWindow.End.Format(model.DateLayout); got != "2024-03-14" {
		t.Fatalf("window end: want 2024-03-14, got %s", got)
	}
}

func TestAnalyzeOrderAndDuplicatesIrrelevant(t *testing.T) {
	t.Parallel()

	shuffled := []string{"2024-02-28", "2024-01-04", "2024-01-31", "2024-01-03", "2024-01-05", "2024-02-01", "2024-01-04"}
	today := day(t, "2024-03-10")

	s, err := Analyze(shuffled, today, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s.CycleLength != 28 || s.PeriodLength != 2 {
		t.Fatalf("got cycle=%d period=%d after shuffle", s.CycleLength, s.PeriodLength)
	}
	if got := s.NextPeriod.Format(model.DateLayout); got != "2024-03-27" {
		t.Fatalf("next period after shuffle: %s", got)
	}
}

func TestAnalyzeNoData(t *testing.T) {
	t.Parallel()

	s, err := Analyze(nil, time.Now(), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s != nil {
		t.Fatalf("want nil summary with no data, got %+v", s)
	}
}

func TestAnalyzeSingleDateDefaults(t *testing.T) {
	t.Parallel()

	today := day(t, "2024-04-10")
	s, err := Analyze([]string{"2024-04-01"}, today, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s.CycleLength != DefaultCycleLength {
		t.Fatalf("cycle length: want default %d, got %d", DefaultCycleLength, s.CycleLength)
	}
	if s.PeriodLength != DefaultPeriodLength {
		t.Fatalf("period length: want default %d, got %d", DefaultPeriodLength, s.PeriodLength)
	}
	if got := s.NextPeriod.Format(model.DateLayout); got != "2024-04-29" {
		t.Fatalf("next period: want 2024-04-29, got %s", got)
	}
}

func TestAnalyzeRecordedAverage(t *testing.T) {
	t.Parallel()

	avg := 35
	today := day(t, "2024-04-10")
	s, err := Analyze([]string{"2024-04-01"}, today, &avg)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s.CycleLength != 35 {
		t.Fatalf("cycle length: want recorded 35, got %d", s.CycleLength)
	}
}

func TestAnalyzeSkipsImplausibleGaps(t *testing.T) {
	t.Parallel()

	// 60-day gap is outside [21,45] and must not drag the average.
	dates := []string{"2024-01-01", "2024-03-01", "2024-03-29"}
	today := day(t, "2024-04-01")

	s, err := Analyze(dates, today, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s.CycleLength != 28 {
		t.Fatalf("cycle length: want 28 from the single valid gap, got %d", s.CycleLength)
	}

	// All gaps implausible: fall back to the default.
	s, err = Analyze([]string{"2024-01-01", "2024-04-01"}, today, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s.CycleLength != DefaultCycleLength {
		t.Fatalf("cycle length: want default, got %d", s.CycleLength)
	}
}

func TestNextPeriodStrictlyFuture(t *testing.T) {
	t.Parallel()

	dates := []string{"2024-01-03", "2024-01-31", "2024-02-28"}
	// Sweep "today" across several cycles, including projection dates
	// themselves: the projection must always land strictly after today.
	for off := 0; off < 120; off += 7 {
		today := day(t, "2024-02-28").AddDate(0, 0, off)
		s, err := Analyze(dates, today, nil)
		if err != nil {
			t.Fatalf("analyze at +%dd: %v", off, err)
		}
		if !s.NextPeriod.After(today) {
			t.Fatalf("next period %s not after today %s",
				s.NextPeriod.Format(model.DateLayout), today.Format(model.DateLayout))
		}
	}
}

func TestPhaseLadder(t *testing.T) {
	t.Parallel()

	const periodLen, offset = 5, 14
	cases := []struct {
		d    int
		want model.CyclePhase
	}{
		{0, model.PhaseMenstrual},
		{4, model.PhaseMenstrual},
		{5, model.PhaseFollicular},
		{13, model.PhaseFollicular},
		{14, model.PhaseOvulation},
		{15, model.PhaseLuteal},
		{27, model.PhaseLuteal},
	}
	for _, c := range cases {
		if got := phase(c.d, periodLen, offset); got != c.want {
			t.Fatalf("phase(d=%d): want %s, got %s", c.d, c.want, got)
		}
	}
}

func TestFertileWindowReanchorsWhenPast(t *testing.T) {
	t.Parallel()

	// Day 20 of a 28-day cycle: the current window ended on day 15, so the
	// reported window belongs to the next cycle.
	dates := []string{"2024-01-03", "2024-01-31"}
	today := day(t, "2024-02-20") // 20 days after 01-31

	s, err := Analyze(dates, today, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if s.InFertileWindow {
		t.Fatalf("day 20 must be outside the fertile window")
	}
	if got := s.NextPeriod.Format(model.DateLayout); got != "2024-02-28" {
		t.Fatalf("next period: want 2024-02-28, got %s", got)
	}
	if got := s.FertileWindow.Start.Format(model.DateLayout); got != "2024-03-08" {
		t.Fatalf("window start: want re-anchored 2024-03-08, got %s", got)
	}
	if s.Phase != model.PhaseLuteal {
		t.Fatalf("phase on day 20: want luteal, got %s", s.Phase)
	}
}

func TestAnalyzeRejectsMalformedDate(t *testing.T) {
	t.Parallel()

	if _, err := Analyze([]string{"2024-13-99"}, time.Now(), nil); err == nil {
		t.Fatalf("want error for malformed date")
	}
}
