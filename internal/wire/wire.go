// Package wire defines the JSON payloads exchanged with the aggregation
// service and the remote risk service, plus converters to and from the
// domain model. These shapes are the external contract; renaming a field
// here breaks deployed clients.
package wire

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

// MaxBatchSize is the largest record batch the aggregation service accepts.
const MaxBatchSize = 100

var validate = validator.New()

// PingResponse is the connectivity probe reply.
type PingResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is an anonymized health record on the wire. It carries no
// identifying fields; see the anonymizer for the projection rules. The
// symptoms object is the fixed seven-flag schema.
type Record struct {
	ID          string             `json:"id" validate:"required"`
	VillageCode string             `json:"village_code" validate:"required,max=20"`
	Timestamp   time.Time          `json:"timestamp" validate:"required"`
	Score       float64            `json:"score" validate:"gte=0,lte=50"`
	Level       string             `json:"level" validate:"oneof=LOW MODERATE HIGH"`
	Symptoms    model.SymptomFlags `json:"symptoms"`
	AgeGroup    *int               `json:"age_group,omitempty" validate:"omitempty,gte=0"`
}

// SyncRequest is the batched upload body for POST /sync.
type SyncRequest struct {
	Records []Record `json:"records" validate:"required,min=1,max=100,dive"`
}

// SyncResponse reports how many records the aggregation service stored.
type SyncResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	Failed  int    `json:"failed,omitempty"`
}

// PredictRequest is the feature vector sent to the remote risk service.
type PredictRequest struct {
	Age            float64  `json:"age"`
	BMI            float64  `json:"bmi"`
	StressLevel    float64  `json:"stress_level"`
	SleepHours     float64  `json:"sleep_hours"`
	ExerciseFreq   float64  `json:"exercise_freq"`
	CycleLengthAvg float64  `json:"cycle_length_avg"`
	CycleVariance  *float64 `json:"cycle_variance,omitempty"`
}

// PredictResponse is the remote risk verdict.
type PredictResponse struct {
	RiskLevel         string             `json:"risk_level"`
	Confidence        float64            `json:"confidence"`
	Probabilities     map[string]float64 `json:"probabilities,omitempty"`
	RecommendationKey string             `json:"recommendation_key"`
	HealthScore       *int               `json:"health_score,omitempty"`
	Grade             string             `json:"grade,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
}

// ToWireRecord converts a stored record for upload. Local bookkeeping
// fields (retries, synced) never leave the device.
func ToWireRecord(r model.HealthRecord) Record {
	return Record{
		ID:          r.ID,
		VillageCode: r.VillageCode,
		Timestamp:   r.Timestamp,
		Score:       r.Score,
		Level:       string(r.Level),
		Symptoms:    r.Symptoms,
		AgeGroup:    r.AgeGroup,
	}
}

// ToWireRecords converts a batch, preserving order.
func ToWireRecords(rs []model.HealthRecord) []Record {
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToWireRecord(r))
	}
	return out
}

// FromWireRecord converts an uploaded record into the domain model.
func FromWireRecord(r Record) (model.HealthRecord, error) {
	if err := validate.Struct(r); err != nil {
		return model.HealthRecord{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return model.HealthRecord{
		ID:          r.ID,
		VillageCode: r.VillageCode,
		Timestamp:   r.Timestamp,
		Score:       r.Score,
		Level:       model.RiskLevel(r.Level),
		Symptoms:    r.Symptoms,
		AgeGroup:    r.AgeGroup,
	}, nil
}

// FromWireRecords converts a batch, naming the offending index on failure.
func FromWireRecords(rs []Record) ([]model.HealthRecord, error) {
	out := make([]model.HealthRecord, 0, len(rs))
	for i, r := range rs {
		m, err := FromWireRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ToPredictRequest maps a normalized feature snapshot onto the remote
// service's request shape. An estimated cycle variance is still sent; the
// estimation flag is local-only.
func ToPredictRequest(f model.FeatureSnapshot) PredictRequest {
	v := f.CycleVar
	return PredictRequest{
		Age:            f.Age,
		BMI:            f.BMI,
		StressLevel:    f.Stress,
		SleepHours:     f.Sleep,
		ExerciseFreq:   f.Exercise,
		CycleLengthAvg: f.CycleAvg,
		CycleVariance:  &v,
	}
}

// Validate checks a sync request against the batch contract.
func (r SyncRequest) Validate() error {
	return validate.Struct(r)
}
