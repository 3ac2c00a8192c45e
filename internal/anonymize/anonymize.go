// Package anonymize turns internal records into the only shape that may
// leave the device. The rules here are the wire contract: identifying fields
// are dropped, age is coarsened to a 5-year bucket, and symptoms are
// re-projected onto a fixed boolean schema.
package anonymize

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/radheshpai87/aurahealth-core/internal/model"
)

const (
	maxVillageCodeLen = 20
	maxScore          = 50
	ageBucket         = 5
)

// Source is an internal record before scrubbing. Identifying fields are
// listed explicitly so a reviewer can see what never crosses into the
// output; they are read by nothing.
type Source struct {
	UserID      string
	Name        string
	Email       string
	Phone       string
	Address     string
	Age         *int
	VillageCode string
	Timestamp   time.Time
	Score       float64
	Level       string
	Symptoms    map[string]bool
}

// symptomAliases maps legacy checklist names onto the wire schema. Entries
// with no clinical counterpart in the schema are dropped.
var symptomAliases = map[string]string{
	"heavy_bleeding":  "heavyBleeding",
	"fatigue":         "fatigue",
	"irregular_cycle": "irregularCycles",
	"severe_cramps":   "pain",
}

// Record scrubs a source into a syncable HealthRecord with a fresh ID.
func Record(src Source) model.HealthRecord {
	rec := model.HealthRecord{
		ID:          uuid.Must(uuid.NewV4()).String(),
		VillageCode: normalizeVillageCode(src.VillageCode),
		Timestamp:   src.Timestamp,
		Score:       clampScore(src.Score),
		Level:       coerceLevel(src.Level),
		Symptoms:    projectSymptoms(src.Symptoms),
	}
	if src.Age != nil && *src.Age >= 0 {
		g := (*src.Age / ageBucket) * ageBucket
		rec.AgeGroup = &g
	}
	return rec
}

func normalizeVillageCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if r := []rune(code); len(r) > maxVillageCodeLen {
		return string(r[:maxVillageCodeLen])
	}
	return code
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > maxScore {
		return maxScore
	}
	return s
}

func coerceLevel(level string) model.RiskLevel {
	if l := model.RiskLevel(strings.ToUpper(strings.TrimSpace(level))); l.Valid() {
		return l
	}
	return model.RiskLow
}

func projectSymptoms(in map[string]bool) model.SymptomFlags {
	var out model.SymptomFlags
	for name, set := range in {
		if !set {
			continue
		}
		if alias, ok := symptomAliases[name]; ok {
			name = alias
		}
		switch name {
		case "heavyBleeding":
			out.HeavyBleeding = true
		case "fatigue":
			out.Fatigue = true
		case "dizziness":
			out.Dizziness = true
		case "lowHb":
			out.LowHb = true
		case "irregularCycles":
			out.IrregularCycles = true
		case "pain":
			out.Pain = true
		case "pregnancyIssue":
			out.PregnancyIssue = true
		}
	}
	return out
}

// FlagsToMap converts typed flags into the map form Source carries, for
// callers that already hold a SymptomFlags.
func FlagsToMap(f model.SymptomFlags) map[string]bool {
	return map[string]bool{
		"heavyBleeding":   f.HeavyBleeding,
		"fatigue":         f.Fatigue,
		"dizziness":       f.Dizziness,
		"lowHb":           f.LowHb,
		"irregularCycles": f.IrregularCycles,
		"pain":            f.Pain,
		"pregnancyIssue":  f.PregnancyIssue,
	}
}
