package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeOracleTimeout      = "ORACLE_TIMEOUT"
	ErrCodeOracleBusy         = "ORACLE_BUSY"
	ErrCodeOracleAuth         = "ORACLE_AUTH_EXPIRED"
	ErrCodeOracleFailure      = "ORACLE_FAILURE"
	ErrCodeOffline            = "OFFLINE"
)

// Validation errors
var (
	ErrInvalidFeedbackType  = NewDomainError(ErrCodeValidation, "invalid feedback type")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query text is required")
)

// Not found errors
var (
	ErrInteractionNotFound = NewDomainError(ErrCodeNotFound, "interaction not found")
)

// Catalog errors
var (
	// ErrCatalogUnavailable means the upstream provider is down and no prior
	// snapshot exists. Distinct from an empty match list.
	ErrCatalogUnavailable = NewDomainError(ErrCodeServiceUnavailable, "product catalog temporarily unavailable")
)

// Oracle errors, distinguished so the caller can show an actionable message.
var (
	ErrOracleTimeout = NewDomainError(ErrCodeOracleTimeout, "product matching timed out, try again")
	ErrOracleBusy    = NewDomainError(ErrCodeOracleBusy, "product matching service is busy")
	ErrOracleAuth    = NewDomainError(ErrCodeOracleAuth, "product matching session expired")
	ErrOracleFailure = NewDomainError(ErrCodeOracleFailure, "product matching failed")
)

// Connectivity errors
var (
	ErrOffline = NewDomainError(ErrCodeOffline, "no network connection")
)
