package repository

import (
	"context"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

// DefaultTrendDays is the trends window used when the caller does not pick one.
const DefaultTrendDays = 30

// InsertReport summarizes a batch insert. Duplicates are records already
// stored from an earlier upload attempt; they are not failures.
type InsertReport struct {
	Inserted   int
	Duplicates int
	Failed     int
}

// HealthRecordRepository stores anonymized records uploaded by devices and
// serves the dashboard aggregates.
type HealthRecordRepository interface {
	// InsertBatch stores records one by one so that a bad record does not
	// sink the rest of the batch. Re-uploaded IDs count as duplicates.
	InsertBatch(ctx context.Context, records []model.HealthRecord) (InsertReport, error)

	// VillageStats aggregates all records for a village code.
	VillageStats(ctx context.Context, villageCode string) (model.VillageStats, error)

	// Trends returns per-day counts and mean scores for the trailing
	// window, oldest day first.
	Trends(ctx context.Context, villageCode string, days int) ([]model.TrendPoint, error)
}
