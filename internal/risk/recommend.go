package risk

import "github.com/radheshpai87/aurahealth-core/internal/model"

// Recommendation keys. Opaque to the core; the presentation layer owns the
// translation tables.
const (
	KeyConsultDoctorCycle = "CONSULT_DOCTOR_CYCLE"
	KeyStressSleepUrgent  = "STRESS_SLEEP_URGENT"
	KeyConsultDoctorBMI   = "CONSULT_DOCTOR_BMI"
	KeyManageStress       = "MANAGE_STRESS"
	KeyImproveSleep       = "IMPROVE_SLEEP"
	KeyIncreaseExercise   = "INCREASE_EXERCISE"
	KeyMonitorCycle       = "MONITOR_CYCLE"
	KeyMaintainLifestyle  = "MAINTAIN_LIFESTYLE"
	KeyExcellentHealth    = "EXCELLENT_HEALTH"
	KeyContinueHealthy    = "CONTINUE_HEALTHY"
)

// recommendationKey picks one catalogue key from the level and the dominant
// feature signal. First match wins.
func recommendationKey(level model.RiskLevel, f model.FeatureSnapshot, score float64) string {
	switch level {
	case model.RiskHigh:
		switch {
		case f.Stress >= 4 && f.Sleep < 6:
			return KeyStressSleepUrgent
		case f.BMI >= 30 || f.BMI < 18.5:
			return KeyConsultDoctorBMI
		default:
			return KeyConsultDoctorCycle
		}
	case model.RiskModerate:
		switch {
		case f.Stress >= 4:
			return KeyManageStress
		case f.Sleep < 6:
			return KeyImproveSleep
		case f.Exercise < 2:
			return KeyIncreaseExercise
		default:
			return KeyMonitorCycle
		}
	default:
		switch {
		case score < 0.15 && f.Stress <= 2 && f.Sleep >= 7:
			return KeyExcellentHealth
		case f.Exercise >= 3:
			return KeyContinueHealthy
		default:
			return KeyMaintainLifestyle
		}
	}
}
