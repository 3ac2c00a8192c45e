package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/storage"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return errs.ErrNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *memStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func newTestService(t *testing.T) *ServiceImpl {
	t.Helper()
	session := storage.NewSessionHandle()
	session.Install("u-1")
	scoped := storage.NewScoped(newMemStore(), newMemStore(), session, zap.NewNop())
	return NewService(scoped, zap.NewNop())
}

func isoDaysAgo(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format(model.DateLayout)
}

func TestTogglePeriodDate(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	d1 := isoDaysAgo(10)
	d2 := isoDaysAgo(5)

	for _, d := range []string{d2, d1} {
		marked, err := svc.TogglePeriodDate(ctx, d)
		if err != nil {
			t.Fatalf("toggle %s: %v", d, err)
		}
		if !marked {
			t.Fatalf("first toggle of %s should mark it", d)
		}
	}

	dates, err := svc.PeriodDates(ctx)
	if err != nil {
		t.Fatalf("period dates: %v", err)
	}
	if len(dates) != 2 || dates[0] != d1 || dates[1] != d2 {
		t.Fatalf("want sorted [%s %s], got %v", d1, d2, dates)
	}

	marked, err := svc.TogglePeriodDate(ctx, d1)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if marked {
		t.Fatal("second toggle should unmark the date")
	}
	dates, err = svc.PeriodDates(ctx)
	if err != nil {
		t.Fatalf("period dates after unmark: %v", err)
	}
	if len(dates) != 1 || dates[0] != d2 {
		t.Fatalf("want [%s], got %v", d2, dates)
	}
}

func TestTogglePeriodDateRejectsFuture(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	future := time.Now().UTC().AddDate(0, 0, 2).Format(model.DateLayout)
	_, err := svc.TogglePeriodDate(context.Background(), future)
	if !errors.Is(err, errs.ErrFutureDate) {
		t.Fatalf("want ErrFutureDate, got %v", err)
	}
}

func TestTogglePeriodDateRejectsMalformed(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, bad := range []string{"03/01/2024", "2024-13-01", "yesterday", ""} {
		_, err := svc.TogglePeriodDate(context.Background(), bad)
		if !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("date %q: want ErrValidation, got %v", bad, err)
		}
	}
}

func TestSetMoodAndFlow(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	day := isoDaysAgo(1)

	if err := svc.SetMood(ctx, day, model.MoodNegative); err != nil {
		t.Fatalf("set mood: %v", err)
	}
	if err := svc.SetFlow(ctx, day, model.FlowHeavy); err != nil {
		t.Fatalf("set flow: %v", err)
	}

	moods, err := svc.Moods(ctx)
	if err != nil {
		t.Fatalf("moods: %v", err)
	}
	if moods[day] != model.MoodNegative {
		t.Fatalf("want negative mood, got %q", moods[day])
	}

	flows, err := svc.Flows(ctx)
	if err != nil {
		t.Fatalf("flows: %v", err)
	}
	if flows[day] != model.FlowHeavy {
		t.Fatalf("want heavy flow, got %q", flows[day])
	}

	if err := svc.SetMood(ctx, day, model.Mood("ecstatic")); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown mood: want ErrValidation, got %v", err)
	}
	if err := svc.SetFlow(ctx, day, model.Flow("torrential")); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown flow: want ErrValidation, got %v", err)
	}
}

func TestLogSymptomsReplaceAndClear(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	day := isoDaysAgo(2)

	if err := svc.LogSymptoms(ctx, day, []string{"heavy_bleeding", "fatigue"}); err != nil {
		t.Fatalf("log symptoms: %v", err)
	}
	if err := svc.LogSymptoms(ctx, day, []string{"headache"}); err != nil {
		t.Fatalf("replace symptoms: %v", err)
	}

	all, err := svc.Symptoms(ctx)
	if err != nil {
		t.Fatalf("symptoms: %v", err)
	}
	if got := all[day]; len(got) != 1 || got[0] != "headache" {
		t.Fatalf("want replaced selection, got %v", got)
	}

	if err := svc.LogSymptoms(ctx, day, nil); err != nil {
		t.Fatalf("clear symptoms: %v", err)
	}
	all, err = svc.Symptoms(ctx)
	if err != nil {
		t.Fatalf("symptoms after clear: %v", err)
	}
	if _, ok := all[day]; ok {
		t.Fatal("empty selection should remove the date entry")
	}
}

func TestUpsertDailyLogDerivesFrequency(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.UpsertDailyLog(ctx, model.DailyLog{
		Date:            isoDaysAgo(0),
		Stress:          2,
		SleepHours:      7.5,
		ExerciseMinutes: 90,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got.ExerciseFreq != 3 {
		t.Fatalf("90 minutes: want freq 3, got %v", got.ExerciseFreq)
	}

	got, err = svc.UpsertDailyLog(ctx, model.DailyLog{
		Date:            isoDaysAgo(1),
		Stress:          2,
		SleepHours:      7,
		ExerciseMinutes: 240,
	})
	if err != nil {
		t.Fatalf("upsert capped: %v", err)
	}
	if got.ExerciseFreq != 7 {
		t.Fatalf("240 minutes: want capped freq 7, got %v", got.ExerciseFreq)
	}
}

func TestUpsertDailyLogReplacesSameDate(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()
	day := isoDaysAgo(3)

	for _, stress := range []int{4, 2} {
		if _, err := svc.UpsertDailyLog(ctx, model.DailyLog{
			Date:       day,
			Stress:     stress,
			SleepHours: 6,
		}); err != nil {
			t.Fatalf("upsert stress=%d: %v", stress, err)
		}
	}

	logs, err := svc.DailyLogs(ctx)
	if err != nil {
		t.Fatalf("daily logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("want one entry for the date, got %d", len(logs))
	}
	if logs[0].Stress != 2 {
		t.Fatalf("want latest write to win, got stress %d", logs[0].Stress)
	}
}

func TestUpsertDailyLogTrimsOldEntries(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	seed := []model.DailyLog{
		{Date: isoDaysAgo(100), Stress: 3, SleepHours: 7},
		{Date: isoDaysAgo(95), Stress: 3, SleepHours: 7},
	}
	if err := svc.store.PutJSON(ctx, storage.KeyDailyLogs, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.UpsertDailyLog(ctx, model.DailyLog{
		Date: isoDaysAgo(10), Stress: 3, SleepHours: 7,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	logs, err := svc.DailyLogs(ctx)
	if err != nil {
		t.Fatalf("daily logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("entries beyond %d days should be trimmed, got %d entries", LogRetentionDays, len(logs))
	}
	if logs[0].Date != isoDaysAgo(10) {
		t.Fatalf("want only the recent entry, got %s", logs[0].Date)
	}
}

func TestUpsertDailyLogValidation(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	cases := []model.DailyLog{
		{Date: isoDaysAgo(1), Stress: 9, SleepHours: 7},
		{Date: isoDaysAgo(1), Stress: 0, SleepHours: 7},
		{Date: isoDaysAgo(1), Stress: 3, SleepHours: 30},
		{Date: isoDaysAgo(1), Stress: 3, SleepHours: 7, ExerciseMinutes: 600},
		{Date: isoDaysAgo(1), Stress: 3, SleepHours: 7, Mood: "thrilled"},
	}
	for _, c := range cases {
		if _, err := svc.UpsertDailyLog(ctx, c); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("log %+v: want ErrValidation, got %v", c, err)
		}
	}
}

func TestAppendAssessmentCapsHistory(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < HistoryCap+5; i++ {
		err := svc.AppendAssessment(ctx, model.RiskAssessment{
			Timestamp: time.Unix(int64(i), 0).UTC(),
			Level:     model.RiskLow,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	hist, err := svc.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != HistoryCap {
		t.Fatalf("want %d retained, got %d", HistoryCap, len(hist))
	}
	if got := hist[0].Timestamp.Unix(); got != 5 {
		t.Fatalf("oldest entries should be dropped, first retained is %d", got)
	}
	if got := hist[len(hist)-1].Timestamp.Unix(); got != int64(HistoryCap+4) {
		t.Fatalf("newest entry missing, last retained is %d", got)
	}
}

func TestLifestyleAveragesDefaultsWhenEmpty(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	avg, err := svc.LifestyleAverages(context.Background(), 7, DefaultAverages)
	if err != nil {
		t.Fatalf("averages: %v", err)
	}
	if avg != DefaultAverages {
		t.Fatalf("want defaults %+v, got %+v", DefaultAverages, avg)
	}
}

func TestLifestyleAveragesWindow(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	ctx := context.Background()

	entries := []model.DailyLog{
		{Date: isoDaysAgo(1), Stress: 2, SleepHours: 8, ExerciseMinutes: 60},
		{Date: isoDaysAgo(3), Stress: 4, SleepHours: 6, ExerciseMinutes: 0},
		// Outside the 7-day window; must not contribute.
		{Date: isoDaysAgo(20), Stress: 5, SleepHours: 4, ExerciseMinutes: 0},
	}
	for _, e := range entries {
		if _, err := svc.UpsertDailyLog(ctx, e); err != nil {
			t.Fatalf("upsert %s: %v", e.Date, err)
		}
	}

	avg, err := svc.LifestyleAverages(ctx, 7, DefaultAverages)
	if err != nil {
		t.Fatalf("averages: %v", err)
	}
	if avg.Stress != 3 {
		t.Fatalf("want mean stress 3, got %v", avg.Stress)
	}
	if avg.Sleep != 7 {
		t.Fatalf("want mean sleep 7, got %v", avg.Sleep)
	}
	if avg.Exercise != 1 {
		t.Fatalf("want mean exercise 1, got %v", avg.Exercise)
	}
}
