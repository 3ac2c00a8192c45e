// Package assess orchestrates a risk assessment across the remote risk
// service, the local tree ensemble and the rule-based symptom scorer, and
// merges their verdicts into one result. It is the top of the error
// stack: callers always receive a usable RiskResult, never an error.
package assess

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/anonymize"
	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/risk"
	"github.com/radheshpai87/aurahealth-core/internal/symptom"
	"github.com/radheshpai87/aurahealth-core/internal/tracker"
	"github.com/radheshpai87/aurahealth-core/internal/wire"
)

// Source identifies which path produced the verdict.
type Source = model.RiskSource

const (
	SourceMLAPI         = model.SourceMLAPI
	SourceLocalFallback = model.SourceLocalFallback
	SourceRuleBased     = model.SourceRuleBased
	// SourceNone marks a synthetic result; no resolution path could run.
	SourceNone Source = "none"
)

// LevelError marks a synthetic result produced when no assessment path
// succeeded. It is never persisted or uploaded.
const LevelError = model.RiskLevel("ERROR")

// Recommendation keys owned by the orchestrator itself. The engine's
// catalogue lives in the risk package.
const (
	KeyTryAgain        = "TRY_AGAIN"
	KeyCompleteProfile = "COMPLETE_PROFILE"
)

// Input carries everything an assessment may draw on. Optional parts are
// nil; the orchestrator picks the best path the inputs allow.
type Input struct {
	Symptoms  *model.SymptomFlags
	Emergency *model.EmergencyFlags
	Profile   *model.UserProfile

	// Lifestyle holds the trailing daily-log averages. The zero value
	// means the caller had no logs; the aggregator defaults apply.
	Lifestyle tracker.Averages

	// CycleLength is the measured average from the cycle model. When nil
	// the profile's recorded average is used instead.
	CycleLength *int
	CycleVar    *float64

	VillageCode string
	Language    string
}

// RiskResult is the unified verdict.
type RiskResult struct {
	Level      model.RiskLevel
	Score      float64 // weighted ensemble score in [0,1]; zero for remote and rule-based verdicts
	Confidence float64
	TreeScores [5]float64

	// SymptomScore is the raw additive score when the symptom scorer ran.
	SymptomScore *int

	HealthScore *int
	HealthGrade string

	RecommendationKeys []string
	Source             Source
	RequiresEmergency  bool
	AssessedAt         time.Time

	// Message is set only on synthetic failure results, localized to the
	// input language.
	Message string
}

// Recorder persists completed assessments into the user's history.
type Recorder interface {
	AppendAssessment(ctx context.Context, a model.RiskAssessment) error
}

// Enqueuer accepts anonymized records for background sync.
type Enqueuer interface {
	Enqueue(ctx context.Context, rec model.HealthRecord) error
}

// Orchestrator resolves assessments. Remote, history and queue may each
// be nil, which disables that concern.
type Orchestrator struct {
	engine  *risk.Engine
	remote  *RemoteClient
	history Recorder
	queue   Enqueuer
	log     *zap.Logger
	now     func() time.Time
}

func NewOrchestrator(engine *risk.Engine, remote *RemoteClient, history Recorder, queue Enqueuer, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		engine:  engine,
		remote:  remote,
		history: history,
		queue:   queue,
		log:     log,
		now:     time.Now,
	}
}

// Assess runs the resolution ladder: remote service, local ensemble,
// rule-based scorer. Emergency flags short-circuit the merged level to
// HIGH. Lower-level failures surface as a synthetic result, never as an
// error.
func (o *Orchestrator) Assess(ctx context.Context, in Input) RiskResult {
	now := o.now().UTC()

	emergency := in.Emergency != nil && in.Emergency.Any()

	var sym *symptom.Result
	if (in.Symptoms != nil && in.Symptoms.Any()) || emergency {
		var flags model.SymptomFlags
		if in.Symptoms != nil {
			flags = *in.Symptoms
		}
		var em model.EmergencyFlags
		if in.Emergency != nil {
			em = *in.Emergency
		}
		r := symptom.Score(flags, em)
		sym = &r
	}

	snap, ferr := risk.Normalize(in.features(), o.log)
	var verdict *pathResult
	source := SourceNone
	if ferr == nil {
		verdict, source = o.classify(ctx, snap)
	}

	res := o.merge(in, snap, ferr, verdict, source, sym, now)
	if emergency {
		res.Level = model.RiskHigh
		res.RequiresEmergency = true
	}

	o.persist(ctx, in, res, sym, snap, now)
	return res
}

// features assembles the classifier inputs from the profile, the cycle
// model and the lifestyle averages.
func (in Input) features() risk.Inputs {
	var f risk.Inputs
	if p := in.Profile; p != nil {
		if p.Age > 0 {
			age := float64(p.Age)
			f.Age = &age
		}
		f.BMI = p.BMI
		if in.CycleLength == nil && p.AvgCycleLen != nil {
			avg := float64(*p.AvgCycleLen)
			f.CycleAvg = &avg
		}
	}
	if in.CycleLength != nil {
		avg := float64(*in.CycleLength)
		f.CycleAvg = &avg
	}

	lf := in.Lifestyle
	if lf == (tracker.Averages{}) {
		lf = tracker.DefaultAverages
	}
	f.Stress = &lf.Stress
	f.Sleep = &lf.Sleep
	f.Exercise = &lf.Exercise
	f.CycleVar = in.CycleVar
	return f
}

type pathResult struct {
	level       model.RiskLevel
	score       float64
	confidence  float64
	treeScores  [5]float64
	key         string
	healthScore *int
	grade       string
}

func (o *Orchestrator) classify(ctx context.Context, f model.FeatureSnapshot) (*pathResult, Source) {
	if o.remote != nil && o.remote.Available(ctx) {
		resp, err := o.remote.Predict(ctx, f)
		switch {
		case err != nil:
			o.log.Warn("remote predict failed, falling back to local ensemble", zap.Error(err))
		default:
			if pr := fromRemote(resp); pr != nil {
				return pr, SourceMLAPI
			}
			o.log.Warn("remote predict response malformed, falling back to local ensemble")
		}
	}
	if o.engine == nil {
		return nil, SourceNone
	}
	r := o.engine.ClassifySnapshot(f)
	return &pathResult{
		level:      r.Level,
		score:      r.Score,
		confidence: r.Confidence,
		treeScores: r.TreeScores,
		key:        r.RecommendationKey,
	}, SourceLocalFallback
}

// fromRemote adopts a remote verdict only when it is well-formed; anything
// else falls back to the local ensemble.
func fromRemote(resp *wire.PredictResponse) *pathResult {
	level := model.RiskLevel(strings.ToUpper(strings.TrimSpace(resp.RiskLevel)))
	if !level.Valid() || resp.RecommendationKey == "" {
		return nil
	}
	conf := resp.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return &pathResult{
		level:       level,
		confidence:  conf,
		key:         resp.RecommendationKey,
		healthScore: resp.HealthScore,
		grade:       resp.Grade,
	}
}

func (o *Orchestrator) merge(in Input, snap model.FeatureSnapshot, ferr error, verdict *pathResult, source Source, sym *symptom.Result, now time.Time) RiskResult {
	res := RiskResult{Source: source, AssessedAt: now}
	if sym != nil {
		score := sym.Score
		res.SymptomScore = &score
		res.RequiresEmergency = sym.RequiresEmergency
	}

	switch {
	case verdict != nil:
		res.Level = verdict.level
		res.Score = verdict.score
		res.Confidence = verdict.confidence
		res.TreeScores = verdict.treeScores
		res.RecommendationKeys = []string{verdict.key}
		// Two verdicts merge to the higher level.
		if sym != nil && sym.Level.Rank() > res.Level.Rank() {
			res.Level = sym.Level
		}
		if verdict.healthScore != nil {
			res.HealthScore = verdict.healthScore
			res.HealthGrade = verdict.grade
			if res.HealthGrade == "" {
				res.HealthGrade = gradeFor(*verdict.healthScore)
			}
		} else {
			hs, grade := healthScore(snap)
			res.HealthScore = &hs
			res.HealthGrade = grade
		}

	case sym != nil:
		// The ensemble could not run; the scorer alone carries the verdict.
		res.Source = SourceRuleBased
		res.Level = sym.Level
		res.Confidence = 0.5
		if errors.Is(ferr, errs.ErrFeatureMissing) {
			res.RecommendationKeys = []string{KeyCompleteProfile}
		} else {
			res.RecommendationKeys = []string{KeyTryAgain}
		}

	default:
		res.Source = SourceNone
		res.Level = LevelError
		profileMissing := errors.Is(ferr, errs.ErrFeatureMissing)
		if profileMissing {
			res.RecommendationKeys = []string{KeyCompleteProfile}
		} else {
			res.RecommendationKeys = []string{KeyTryAgain}
		}
		res.Message = syntheticMessage(in.Language, profileMissing)
	}
	return res
}

// persist records the assessment and enqueues an anonymized copy for
// aggregation. Both are best-effort; failures are logged and absorbed.
func (o *Orchestrator) persist(ctx context.Context, in Input, res RiskResult, sym *symptom.Result, snap model.FeatureSnapshot, now time.Time) {
	if !res.Level.Valid() {
		return
	}

	key := ""
	if len(res.RecommendationKeys) > 0 {
		key = res.RecommendationKeys[0]
	}

	if o.history != nil {
		a := model.RiskAssessment{
			Timestamp:         now,
			Level:             res.Level,
			Confidence:        res.Confidence,
			RecommendationKey: key,
			RawScore:          res.Score,
			TreeScores:        res.TreeScores,
			InputSnapshot:     snap,
		}
		if err := o.history.AppendAssessment(ctx, a); err != nil {
			o.log.Error("persist assessment", zap.Error(err))
		}
	}

	if o.queue != nil {
		village := strings.TrimSpace(in.VillageCode)
		if village == "" {
			village = "UNKNOWN"
		}
		src := anonymize.Source{
			VillageCode: village,
			Timestamp:   now,
			Score:       wireScore(res, sym),
			Level:       string(res.Level),
		}
		if in.Profile != nil && in.Profile.Age > 0 {
			age := in.Profile.Age
			src.Age = &age
		}
		if in.Symptoms != nil {
			src.Symptoms = anonymize.FlagsToMap(*in.Symptoms)
		}
		if err := o.queue.Enqueue(ctx, anonymize.Record(src)); err != nil {
			o.log.Error("enqueue health record", zap.Error(err))
		}
	}
}

// wireScore scales the verdict onto the aggregation service's 0-50 axis:
// the raw additive symptom score when the scorer ran, otherwise the
// ensemble score stretched from [0,1].
func wireScore(res RiskResult, sym *symptom.Result) float64 {
	if sym != nil {
		return float64(sym.Score)
	}
	return res.Score * 50
}

func syntheticMessage(lang string, profileMissing bool) string {
	switch {
	case profileMissing && lang == "hi":
		return "कृपया अपनी प्रोफ़ाइल पूरी करें"
	case profileMissing:
		return "please complete your profile"
	case lang == "hi":
		return "आकलन विफल रहा, कृपया पुनः प्रयास करें"
	default:
		return "assessment failed, please try again"
	}
}
