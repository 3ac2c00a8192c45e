package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/repository"
)

// symptomKeys are the jsonb flag names aggregated per village, in the same
// order as the filter columns of the stats query.
var symptomKeys = [...]string{
	"heavyBleeding", "fatigue", "dizziness", "lowHb",
	"irregularCycles", "pain", "pregnancyIssue",
}

// HealthRecordRepo implements HealthRecordRepository using PostgreSQL.
type HealthRecordRepo struct{ db *DB }

// NewHealthRecordRepo constructs a health-record repository.
func NewHealthRecordRepo(db *DB) *HealthRecordRepo { return &HealthRecordRepo{db: db} }

// InsertBatch stores records row by row so one rejected record cannot sink
// the rest of an upload. Re-sent IDs hit the conflict clause and count as
// duplicates. An error is returned only when nothing in the batch could be
// stored.
func (r *HealthRecordRepo) InsertBatch(
	ctx context.Context, records []model.HealthRecord,
) (repository.InsertReport, error) {
	const ins = `
INSERT INTO health_records (id, village_code, recorded_at, score, level, age_group, symptoms)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

	var report repository.InsertReport
	var lastErr error
	for _, rec := range records {
		symptoms, err := json.Marshal(rec.Symptoms)
		if err != nil {
			report.Failed++
			lastErr = err
			continue
		}
		tag, err := r.db.Pool.Exec(ctx, ins,
			rec.ID, rec.VillageCode, rec.Timestamp.UTC(), rec.Score,
			string(rec.Level), rec.AgeGroup, symptoms)
		if err != nil {
			report.Failed++
			lastErr = err
			continue
		}
		if tag.RowsAffected() == 0 {
			report.Duplicates++
			continue
		}
		report.Inserted++
	}
	if len(records) > 0 && report.Failed == len(records) {
		return report, fmt.Errorf("insert batch: %w", lastErr)
	}
	return report, nil
}

// VillageStats aggregates every record for one village, including per-symptom
// totals for the dashboard.
func (r *HealthRecordRepo) VillageStats(
	ctx context.Context, villageCode string,
) (model.VillageStats, error) {
	const q = `
SELECT COUNT(*),
       COALESCE(AVG(score), 0),
       COUNT(*) FILTER (WHERE level = 'HIGH'),
       COUNT(*) FILTER (WHERE level = 'MODERATE'),
       COUNT(*) FILTER (WHERE level = 'LOW'),
       COUNT(*) FILTER (WHERE (symptoms->>'heavyBleeding')::boolean),
       COUNT(*) FILTER (WHERE (symptoms->>'fatigue')::boolean),
       COUNT(*) FILTER (WHERE (symptoms->>'dizziness')::boolean),
       COUNT(*) FILTER (WHERE (symptoms->>'lowHb')::boolean),
       COUNT(*) FILTER (WHERE (symptoms->>'irregularCycles')::boolean),
       COUNT(*) FILTER (WHERE (symptoms->>'pain')::boolean),
       COUNT(*) FILTER (WHERE (symptoms->>'pregnancyIssue')::boolean),
       MAX(recorded_at)
FROM health_records
WHERE village_code = $1`

	stats := model.VillageStats{VillageCode: villageCode}
	var (
		sym  [len(symptomKeys)]int64
		last *time.Time
	)
	dest := []any{&stats.Total, &stats.AvgScore, &stats.HighCount, &stats.ModerateCount, &stats.LowCount}
	for i := range sym {
		dest = append(dest, &sym[i])
	}
	dest = append(dest, &last)

	if err := r.db.Pool.QueryRow(ctx, q, villageCode).Scan(dest...); err != nil {
		return model.VillageStats{}, err
	}
	stats.LastReport = last
	stats.Symptoms = make(map[string]int64, len(symptomKeys))
	for i, k := range symptomKeys {
		stats.Symptoms[k] = sym[i]
	}
	return stats, nil
}

// Trends returns one point per day that had reports within the trailing
// window, oldest first. days falls back to DefaultTrendDays when not positive.
func (r *HealthRecordRepo) Trends(
	ctx context.Context, villageCode string, days int,
) ([]model.TrendPoint, error) {
	if days <= 0 {
		days = repository.DefaultTrendDays
	}
	const q = `
SELECT date_trunc('day', recorded_at) AS day,
       COUNT(*),
       AVG(score)
FROM health_records
WHERE village_code = $1
  AND recorded_at >= now() - make_interval(days => $2)
GROUP BY day
ORDER BY day`
	rows, err := r.db.Pool.Query(ctx, q, villageCode, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrendPoint
	for rows.Next() {
		var p model.TrendPoint
		if err = rows.Scan(&p.Day, &p.Count, &p.AvgScore); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
