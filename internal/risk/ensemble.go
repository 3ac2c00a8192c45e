// Package risk classifies a normalized feature vector with a five-tree
// decision ensemble. The trees are authored data, not learned weights: the
// YAML definitions are baked into the binary and validated at startup.
package risk

import (
	"math"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

const ensembleSize = 5

const (
	highCutoff     = 0.65
	moderateCutoff = 0.35
	minConfidence  = 0.50
	maxConfidence  = 0.98
)

// Engine evaluates the embedded ensemble. Safe for concurrent use.
type Engine struct {
	trees []tree
	log   *zap.Logger
}

// NewEngine compiles the embedded tree definitions.
func NewEngine(log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	trees, err := loadTrees(treesYAML)
	if err != nil {
		return nil, err
	}
	return &Engine{trees: trees, log: log}, nil
}

// Result is one local classification.
type Result struct {
	Level             model.RiskLevel
	Score             float64
	Confidence        float64
	TreeScores        [ensembleSize]float64
	RecommendationKey string
	Snapshot          model.FeatureSnapshot
}

// Classify normalizes the inputs and evaluates the ensemble.
func (e *Engine) Classify(in Inputs) (Result, error) {
	f, err := Normalize(in, e.log)
	if err != nil {
		return Result{}, err
	}
	return e.ClassifySnapshot(f), nil
}

// ClassifySnapshot evaluates an already-normalized vector.
func (e *Engine) ClassifySnapshot(f model.FeatureSnapshot) Result {
	v := vector(f)

	var scores [ensembleSize]float64
	var weighted float64
	for i, t := range e.trees {
		scores[i] = t.eval(v)
		weighted += scores[i] * t.weight
	}

	level := bucket(weighted)
	return Result{
		Level:             level,
		Score:             weighted,
		Confidence:        confidence(scores),
		TreeScores:        scores,
		RecommendationKey: recommendationKey(level, f, weighted),
		Snapshot:          f,
	}
}

func bucket(score float64) model.RiskLevel {
	switch {
	case score >= highCutoff:
		return model.RiskHigh
	case score >= moderateCutoff:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}

// confidence maps tree agreement to [minConfidence, maxConfidence]: the
// population standard deviation of the five scores, inverted.
func confidence(scores [ensembleSize]float64) float64 {
	var mean float64
	for _, s := range scores {
		mean += s
	}
	mean /= ensembleSize

	var variance float64
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	variance /= ensembleSize

	c := 1 - math.Sqrt(variance)
	if c < minConfidence {
		return minConfidence
	}
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}
