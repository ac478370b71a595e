package models

// SessionState names the lifecycle stage of a token fingerprint.
type SessionState string

const (
	SessionNonexistent SessionState = "NONEXISTENT"
	SessionActive      SessionState = "ACTIVE"
	SessionRefreshed   SessionState = "REFRESHED"
	SessionRevoked     SessionState = "REVOKED"
)

// StoreStatus reports revocation store liveness for readiness probes.
type StoreStatus struct {
	Healthy     bool  `json:"healthy"`
	Connections int64 `json:"connections"`
}
