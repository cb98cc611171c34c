package client

import "fmt"

// ErrCode is a typed error code enum identifying API failure classes the
// session core reacts to.
type ErrCode string

const (
	// ─── Load ──────────────────────────────────────────────────────────
	ErrTestNotFound     ErrCode = "TEST_NOT_FOUND"
	ErrTestNotAvailable ErrCode = "TEST_NOT_AVAILABLE"
	ErrInvalidTestCode  ErrCode = "INVALID_TEST_CODE"
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"

	// ─── Transport ─────────────────────────────────────────────────────
	ErrOffline ErrCode = "OFFLINE"
	ErrTimeout ErrCode = "TIMEOUT"

	// ─── Server ────────────────────────────────────────────────────────
	ErrRejected ErrCode = "REQUEST_REJECTED"
	ErrServer   ErrCode = "SERVER_ERROR"
)

// APIError is a classified backend failure. Retryable failures may be
// resubmitted without data loss; Offline additionally signals that the
// device has no connectivity and a retry should wait for reconnection.
type APIError struct {
	Code      ErrCode
	Message   string
	Status    int
	Retryable bool
	Offline   bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s", e.Code)
	}
	return fmt.Sprintf("api: %s: %s", e.Code, e.Message)
}
