package models

import "fmt"

// Error codes for terminal escalation failures. Callers (API, MCP, CLI)
// branch on these codes and show SuggestedAction to the end user.
const (
	ErrCodeTierNotAvailable  = "TIER_NOT_AVAILABLE"
	ErrCodeTierLimitExceeded = "TIER_LIMIT_EXCEEDED"
	ErrCodeAllTiersExhausted = "ALL_TIERS_EXHAUSTED"
	ErrCodeLoginRequired     = "LOGIN_REQUIRED"

	// API-layer error codes.
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// AttemptRecord is one entry of the tier attempt history, kept for
// diagnostics and attached to terminal errors as evidence.
type AttemptRecord struct {
	Tier     int    `json:"tier"`
	TierName string `json:"tier_name"`
	Signal   string `json:"signal,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EscalationError is the structured terminal error of the escalation engine.
// It is constructed once, with the environment profile in hand, and never
// mutated afterwards; callers propagate the value as-is.
type EscalationError struct {
	Code    string
	Message string

	// Tier is the tier the failure occurred at (or the tier that was
	// requested, for TIER_NOT_AVAILABLE).
	Tier int

	// MaxTier is the highest tier the environment permits.
	MaxTier int

	// RequiresLocalEnvironment is true iff the environment profile reported
	// a serverless context when the error was constructed.
	RequiresLocalEnvironment bool

	// SuggestedAction is a human-actionable remediation hint.
	SuggestedAction string

	// Attempts is the tier attempt history leading up to this error.
	Attempts []AttemptRecord

	// Err is the last underlying failure, if any.
	Err error
}

func (e *EscalationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EscalationError) Unwrap() error {
	return e.Err
}

// ToDetail converts the error to its API-facing representation.
func (e *EscalationError) ToDetail() *ErrorDetail {
	return &ErrorDetail{
		Code:                     e.Code,
		Message:                  e.Message,
		Tier:                     e.Tier,
		MaxTier:                  e.MaxTier,
		RequiresLocalEnvironment: e.RequiresLocalEnvironment,
		SuggestedAction:          e.SuggestedAction,
		Attempts:                 e.Attempts,
	}
}

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code                     string          `json:"code"`
	Message                  string          `json:"message"`
	Tier                     int             `json:"tier,omitempty"`
	MaxTier                  int             `json:"max_tier,omitempty"`
	RequiresLocalEnvironment bool            `json:"requires_local_environment,omitempty"`
	SuggestedAction          string          `json:"suggested_action,omitempty"`
	Attempts                 []AttemptRecord `json:"attempts,omitempty"`
}

// FetchError is the typed failure a tier executor returns when a fetch
// attempt fails for a recognizable cause. Executors should fill StatusCode
// whenever an HTTP status was observed, so the block-signal detector does
// not have to fall back to message heuristics.
type FetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed with HTTP %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("fetch failed: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
