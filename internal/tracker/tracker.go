// Package tracker persists the per-user observation streams: period dates,
// moods, flow intensity, symptom checklists, daily lifestyle logs and the
// risk-assessment history. Retention caps are enforced on every write.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/storage"
)

const (
	// LogRetentionDays is the daily-log rolling window.
	LogRetentionDays = 90
	// HistoryCap bounds the retained risk assessments.
	HistoryCap = 100

	exerciseMinutesPerFreq = 30
	maxExerciseFreq        = 7
)

var validate = validator.New()

// Service is the observation store for the active user.
type Service interface {
	// TogglePeriodDate adds the date to the period set, or removes it when
	// already present. Returns whether the date is now marked.
	TogglePeriodDate(ctx context.Context, date string) (bool, error)
	PeriodDates(ctx context.Context) ([]string, error)

	SetMood(ctx context.Context, date string, mood model.Mood) error
	Moods(ctx context.Context) (map[string]model.Mood, error)

	SetFlow(ctx context.Context, date string, flow model.Flow) error
	Flows(ctx context.Context) (map[string]model.Flow, error)

	// LogSymptoms replaces the checklist selection recorded for a date.
	LogSymptoms(ctx context.Context, date string, symptoms []string) error
	Symptoms(ctx context.Context) (map[string][]string, error)

	// UpsertDailyLog writes one day's log, deriving exercise frequency and
	// discarding entries older than the retention window.
	UpsertDailyLog(ctx context.Context, entry model.DailyLog) (model.DailyLog, error)
	DailyLogs(ctx context.Context) ([]model.DailyLog, error)

	// AppendAssessment appends to the risk history, keeping the newest
	// HistoryCap entries.
	AppendAssessment(ctx context.Context, a model.RiskAssessment) error
	History(ctx context.Context) ([]model.RiskAssessment, error)

	// LifestyleAverages means stress/sleep/exercise over the trailing
	// window, or the supplied defaults when no logs fall inside it.
	LifestyleAverages(ctx context.Context, days int, defaults Averages) (Averages, error)
}

// Averages is the aggregated lifestyle triple fed to the classifier.
type Averages struct {
	Stress   float64
	Sleep    float64
	Exercise float64
}

// DefaultAverages are the classifier fallbacks for users with no logs.
var DefaultAverages = Averages{Stress: 3, Sleep: 7, Exercise: 3}

type ServiceImpl struct {
	store *storage.Scoped
	log   *zap.Logger
	now   func() time.Time
}

var _ Service = (*ServiceImpl)(nil)

// NewService constructs the tracker over the session-scoped store.
func NewService(store *storage.Scoped, log *zap.Logger) *ServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ServiceImpl{store: store, log: log, now: time.Now}
}

// checkDate validates the format and rejects dates after today.
func (s *ServiceImpl) checkDate(date string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", errs.ErrValidation, date)
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if t.After(today) {
		return time.Time{}, fmt.Errorf("%w: %s", errs.ErrFutureDate, date)
	}
	return t, nil
}

func (s *ServiceImpl) TogglePeriodDate(ctx context.Context, date string) (bool, error) {
	if _, err := s.checkDate(date); err != nil {
		return false, err
	}
	var dates []string
	if _, err := s.store.GetJSON(ctx, storage.KeyPeriodData, &dates); err != nil {
		return false, err
	}

	marked := true
	kept := dates[:0]
	for _, d := range dates {
		if d == date {
			marked = false
			continue
		}
		kept = append(kept, d)
	}
	if marked {
		kept = append(kept, date)
		sort.Strings(kept)
	}
	if err := s.store.PutJSON(ctx, storage.KeyPeriodData, kept); err != nil {
		return false, err
	}
	return marked, nil
}

func (s *ServiceImpl) PeriodDates(ctx context.Context) ([]string, error) {
	var dates []string
	if _, err := s.store.GetJSON(ctx, storage.KeyPeriodData, &dates); err != nil {
		return nil, err
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *ServiceImpl) SetMood(ctx context.Context, date string, mood model.Mood) error {
	if _, err := s.checkDate(date); err != nil {
		return err
	}
	switch mood {
	case model.MoodPositive, model.MoodNeutral, model.MoodNegative:
	default:
		return fmt.Errorf("%w: mood %q", errs.ErrValidation, mood)
	}
	moods := map[string]model.Mood{}
	if _, err := s.store.GetJSON(ctx, storage.KeyMoodData, &moods); err != nil {
		return err
	}
	moods[date] = mood
	return s.store.PutJSON(ctx, storage.KeyMoodData, moods)
}

func (s *ServiceImpl) Moods(ctx context.Context) (map[string]model.Mood, error) {
	moods := map[string]model.Mood{}
	if _, err := s.store.GetJSON(ctx, storage.KeyMoodData, &moods); err != nil {
		return nil, err
	}
	return moods, nil
}

func (s *ServiceImpl) SetFlow(ctx context.Context, date string, flow model.Flow) error {
	if _, err := s.checkDate(date); err != nil {
		return err
	}
	switch flow {
	case model.FlowNone, model.FlowLight, model.FlowMedium, model.FlowHeavy:
	default:
		return fmt.Errorf("%w: flow %q", errs.ErrValidation, flow)
	}
	flows := map[string]model.Flow{}
	if _, err := s.store.GetJSON(ctx, storage.KeyFlowData, &flows); err != nil {
		return err
	}
	flows[date] = flow
	return s.store.PutJSON(ctx, storage.KeyFlowData, flows)
}

func (s *ServiceImpl) Flows(ctx context.Context) (map[string]model.Flow, error) {
	flows := map[string]model.Flow{}
	if _, err := s.store.GetJSON(ctx, storage.KeyFlowData, &flows); err != nil {
		return nil, err
	}
	return flows, nil
}

func (s *ServiceImpl) LogSymptoms(ctx context.Context, date string, symptoms []string) error {
	if _, err := s.checkDate(date); err != nil {
		return err
	}
	all := map[string][]string{}
	if _, err := s.store.GetJSON(ctx, storage.KeySymptoms, &all); err != nil {
		return err
	}
	if len(symptoms) == 0 {
		delete(all, date)
	} else {
		all[date] = symptoms
	}
	return s.store.PutJSON(ctx, storage.KeySymptoms, all)
}

func (s *ServiceImpl) Symptoms(ctx context.Context) (map[string][]string, error) {
	all := map[string][]string{}
	if _, err := s.store.GetJSON(ctx, storage.KeySymptoms, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *ServiceImpl) UpsertDailyLog(ctx context.Context, entry model.DailyLog) (model.DailyLog, error) {
	if _, err := s.checkDate(entry.Date); err != nil {
		return model.DailyLog{}, err
	}
	if err := validate.Struct(entry); err != nil {
		return model.DailyLog{}, fmt.Errorf("daily log: %w: %v", errs.ErrValidation, err)
	}
	entry.ExerciseFreq = float64(entry.ExerciseMinutes) / exerciseMinutesPerFreq
	if entry.ExerciseFreq > maxExerciseFreq {
		entry.ExerciseFreq = maxExerciseFreq
	}

	var logs []model.DailyLog
	if _, err := s.store.GetJSON(ctx, storage.KeyDailyLogs, &logs); err != nil {
		return model.DailyLog{}, err
	}

	cutoff := midnight(s.now()).AddDate(0, 0, -LogRetentionDays)
	kept := logs[:0]
	for _, l := range logs {
		if l.Date == entry.Date {
			continue
		}
		d, err := time.Parse(model.DateLayout, l.Date)
		if err != nil || d.Before(cutoff) {
			continue
		}
		kept = append(kept, l)
	}
	kept = append(kept, entry)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Date < kept[j].Date })

	if err := s.store.PutJSON(ctx, storage.KeyDailyLogs, kept); err != nil {
		return model.DailyLog{}, err
	}
	return entry, nil
}

func (s *ServiceImpl) DailyLogs(ctx context.Context) ([]model.DailyLog, error) {
	var logs []model.DailyLog
	if _, err := s.store.GetJSON(ctx, storage.KeyDailyLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *ServiceImpl) AppendAssessment(ctx context.Context, a model.RiskAssessment) error {
	var hist []model.RiskAssessment
	if _, err := s.store.GetJSON(ctx, storage.KeyRiskHistory, &hist); err != nil {
		return err
	}
	hist = append(hist, a)
	if len(hist) > HistoryCap {
		hist = hist[len(hist)-HistoryCap:]
	}
	return s.store.PutJSON(ctx, storage.KeyRiskHistory, hist)
}

func (s *ServiceImpl) History(ctx context.Context) ([]model.RiskAssessment, error) {
	var hist []model.RiskAssessment
	if _, err := s.store.GetJSON(ctx, storage.KeyRiskHistory, &hist); err != nil {
		return nil, err
	}
	return hist, nil
}

func (s *ServiceImpl) LifestyleAverages(ctx context.Context, days int, defaults Averages) (Averages, error) {
	if days <= 0 {
		days = 7
	}
	logs, err := s.DailyLogs(ctx)
	if err != nil {
		return Averages{}, err
	}

	cutoff := midnight(s.now()).AddDate(0, 0, -(days - 1))
	var sum Averages
	n := 0
	for _, l := range logs {
		d, err := time.Parse(model.DateLayout, l.Date)
		if err != nil || d.Before(cutoff) {
			continue
		}
		sum.Stress += float64(l.Stress)
		sum.Sleep += l.SleepHours
		sum.Exercise += l.ExerciseFreq
		n++
	}
	if n == 0 {
		return defaults, nil
	}
	return Averages{
		Stress:   sum.Stress / float64(n),
		Sleep:    sum.Sleep / float64(n),
		Exercise: sum.Exercise / float64(n),
	}, nil
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
