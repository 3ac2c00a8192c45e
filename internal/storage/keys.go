package storage

import "strings"

// Logical keys for persisted state. User-scoped keys are prefixed with
// "u_<userId>_" at resolution time; global keys are stored as-is.
const (
	KeyUserProfile   = "aurahealth_user_profile"
	KeyPIN           = "aurahealth_pin"
	KeyPeriodData    = "aurahealth_period_data"
	KeyMoodData      = "aurahealth_mood_data"
	KeySymptoms      = "aurahealth_symptoms"
	KeyFlowData      = "aurahealth_flow_data"
	KeyDailyLogs     = "aurahealth_daily_logs"
	KeyRiskHistory   = "aurahealth_risk_history"
	KeySyncQueue     = "aurahealth_sync_queue"
	KeyHealthRecords = "aurahealth_health_records"
	KeyLastSync      = "aurahealth_last_sync"
	KeyDeadLetter    = "aurahealth_dead_letter"

	KeyUsersRegistry = "aurahealth_users_registry"
	KeyActiveSession = "aurahealth_active_session"
)

// IsGlobal reports whether a logical key bypasses user scoping. Only the
// registry and the active-session record are global.
func IsGlobal(logical string) bool {
	return logical == KeyUsersRegistry || logical == KeyActiveSession
}

// InSecretTier reports whether a logical key belongs to the encrypted tier.
// The split is a size tradeoff, not a security boundary: identity material
// goes to the secret tier, bulk observation data to the plain tier.
func InSecretTier(logical string) bool {
	switch logical {
	case KeyUserProfile, KeyPIN, KeyUsersRegistry, KeyActiveSession:
		return true
	}
	return false
}

// UserKey builds the physical key for a user-scoped logical key.
func UserKey(userID, logical string) string {
	return "u_" + userID + "_" + logical
}

// UserPrefix is the physical-key prefix owned by one user.
func UserPrefix(userID string) string {
	return "u_" + userID + "_"
}

// LogicalFrom strips the user prefix from a physical key; ok is false when
// the key is not scoped to the given user.
func LogicalFrom(userID, physical string) (string, bool) {
	return strings.CutPrefix(physical, UserPrefix(userID))
}
