package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Actions recorded by this service.
const (
	ActionGSTINVerified           = "gstin_verified"
	ActionGSTINVerificationFailed = "gstin_verification_failed"
	ActionClientVerified          = "client_verified"
)

// Event is emitted from domain logic to capture verification outcomes. It
// never carries the raw identifier; GSTINHash is the hex SHA-256 of it.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	GSTINHash string    `json:"gstin_hash"`
	StateCode string    `json:"state_code,omitempty"`
	Outcome   string    `json:"outcome"`
	Source    string    `json:"source,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
}

// HashGSTIN returns the hex SHA-256 digest used in place of the identifier.
func HashGSTIN(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
