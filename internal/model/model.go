// Package model defines domain entities shared by the core services.
package model

import "time"

// DateLayout is the day format used for every persisted date.
const DateLayout = "2006-01-02"

// Role tags a registered user.
type Role string

const (
	RoleSubject     Role = "subject"      // the person whose cycle is tracked
	RoleFieldWorker Role = "field_worker" // community health worker (ASHA)
)

// Mood is a coarse daily mood tag.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

// Flow is a bleeding intensity tag for a logged day.
type Flow string

const (
	FlowNone   Flow = "none"
	FlowLight  Flow = "light"
	FlowMedium Flow = "medium"
	FlowHeavy  Flow = "heavy"
)

// RiskLevel is the classifier verdict.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// Rank orders levels for merge comparisons; unknown levels rank lowest.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskHigh:
		return 2
	case RiskModerate:
		return 1
	default:
		return 0
	}
}

// Valid reports whether l is one of the three wire levels.
func (l RiskLevel) Valid() bool {
	return l == RiskLow || l == RiskModerate || l == RiskHigh
}

// RiskSource records which resolution path produced a result.
type RiskSource string

const (
	SourceMLAPI         RiskSource = "ml_api"
	SourceLocalFallback RiskSource = "local_fallback"
	SourceRuleBased     RiskSource = "rule_based"
)

// CyclePhase is the day-offset phase of the menstrual cycle. The fertile
// window is not a phase; it is reported separately by the cycle model.
type CyclePhase string

const (
	PhaseMenstrual  CyclePhase = "menstrual"
	PhaseFollicular CyclePhase = "follicular"
	PhaseOvulation  CyclePhase = "ovulation"
	PhaseLuteal     CyclePhase = "luteal"
)

// User is a registry entry. The PIN is never part of the serialized registry;
// it lives under its own key in the secret tier.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	PIN         string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	AvatarIndex int       `json:"avatar_index"`
}

// Session is the active-session record. At most one exists at a time; its
// UserID determines the key prefix used by every scoped component.
type Session struct {
	UserID     string    `json:"user_id"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// UserProfile holds anthropometrics and baselines, one per user.
// Optional fields are pointers; ranges are enforced on save.
type UserProfile struct {
	Age          int      `json:"age" validate:"required,gte=10,lte=60"`
	HeightCM     *float64 `json:"height_cm,omitempty" validate:"omitempty,gte=100,lte=220"`
	WeightKG     *float64 `json:"weight_kg,omitempty" validate:"omitempty,gte=20,lte=200"`
	BMI          *float64 `json:"bmi,omitempty"`
	AvgCycleLen  *int     `json:"avg_cycle_len,omitempty" validate:"omitempty,gte=14,lte=90"`
	BaseStress   *float64 `json:"base_stress,omitempty" validate:"omitempty,gte=1,lte=5"`
	BaseSleep    *float64 `json:"base_sleep,omitempty" validate:"omitempty,gte=0,lte=12"`
	BaseExercise *float64 `json:"base_exercise,omitempty" validate:"omitempty,gte=0,lte=7"`
}

// DailyLog is one day's lifestyle observation. ExerciseFreq is derived
// (minutes/30, capped at 7) and stored for the aggregator.
type DailyLog struct {
	Date            string        `json:"date" validate:"required"` // ISO date, no time
	Stress          int           `json:"stress" validate:"gte=1,lte=5"`
	SleepHours      float64       `json:"sleep_hours" validate:"gte=0,lte=12"`
	ExerciseMinutes int           `json:"exercise_minutes" validate:"gte=0,lte=240"`
	ExerciseFreq    float64       `json:"exercise_freq"`
	Mood            Mood          `json:"mood,omitempty" validate:"omitempty,oneof=positive neutral negative"`
	Note            string        `json:"note,omitempty"`
	Symptoms        *SymptomFlags `json:"symptoms,omitempty"`
}

// SymptomFlags is the fixed assessment symptom schema. The JSON keys are the
// wire contract for anonymized records and must not change.
type SymptomFlags struct {
	HeavyBleeding   bool `json:"heavyBleeding"`
	Fatigue         bool `json:"fatigue"`
	Dizziness       bool `json:"dizziness"`
	LowHb           bool `json:"lowHb"`
	IrregularCycles bool `json:"irregularCycles"`
	Pain            bool `json:"pain"`
	PregnancyIssue  bool `json:"pregnancyIssue"`
}

// Any reports whether at least one flag is set.
func (s SymptomFlags) Any() bool {
	return s.HeavyBleeding || s.Fatigue || s.Dizziness || s.LowHb ||
		s.IrregularCycles || s.Pain || s.PregnancyIssue
}

// EmergencyFlags are acute symptoms that force an emergency response.
type EmergencyFlags struct {
	Fainted    bool `json:"fainted"`
	SeverePain bool `json:"severePain"`
	Vomiting   bool `json:"vomiting"`
}

// Any reports whether at least one emergency flag is set.
func (e EmergencyFlags) Any() bool {
	return e.Fainted || e.SeverePain || e.Vomiting
}

// FeatureSnapshot is a fully normalized feature vector. Field names follow
// the remote prediction API so a snapshot doubles as its request body.
type FeatureSnapshot struct {
	Age          float64 `json:"age"`
	BMI          float64 `json:"bmi"`
	Stress       float64 `json:"stress_level"`
	Sleep        float64 `json:"sleep_hours"`
	Exercise     float64 `json:"exercise_freq"`
	CycleAvg     float64 `json:"cycle_length_avg"`
	CycleVar     float64 `json:"cycle_variance"`
	CycleVarEst  bool    `json:"cycle_variance_estimated,omitempty"`
}

// RiskAssessment is one classifier run, retained per user (cap 100).
type RiskAssessment struct {
	Timestamp         time.Time       `json:"timestamp"`
	Level             RiskLevel       `json:"risk_level"`
	Confidence        float64         `json:"confidence"`
	RecommendationKey string          `json:"recommendation_key"`
	RawScore          float64         `json:"raw_score"`
	TreeScores        [5]float64      `json:"per_tree_scores"`
	InputSnapshot     FeatureSnapshot `json:"input_snapshot"`
}

// HealthRecord is the anonymized, syncable unit. It carries its own retry
// counter while queued and its synced flag in the retained records list.
type HealthRecord struct {
	ID          string       `json:"id"`
	VillageCode string       `json:"village_code"`
	Timestamp   time.Time    `json:"timestamp"`
	Score       float64      `json:"score"`
	Level       RiskLevel    `json:"risk_level"`
	Symptoms    SymptomFlags `json:"symptoms"`
	AgeGroup    *int         `json:"age_group,omitempty"`
	Retries     int          `json:"retries"`
	Synced      bool         `json:"synced"`
}

// VillageStats is the dashboard summary for one village. LastReport is nil
// when the village has no records yet.
type VillageStats struct {
	VillageCode   string           `json:"village_code"`
	Total         int64            `json:"total"`
	AvgScore      float64          `json:"avg_score"`
	HighCount     int64            `json:"high_count"`
	ModerateCount int64            `json:"moderate_count"`
	LowCount      int64            `json:"low_count"`
	Symptoms      map[string]int64 `json:"symptom_totals"`
	LastReport    *time.Time       `json:"last_report,omitempty"`
}

// TrendPoint is one day of reports for a village.
type TrendPoint struct {
	Day      time.Time `json:"day"`
	Count    int64     `json:"count"`
	AvgScore float64   `json:"avg_score"`
}
