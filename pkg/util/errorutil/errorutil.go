package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports malformed input, detected before any
// transaction begins.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewBusinessRuleError reports a rule rejection detected inside a
// transaction. Callers roll back explicitly and return this; it is
// recoverable and carries a human-readable reason.
func NewBusinessRuleError(code, message string, details map[string]any) error {
	return NewDomainError(code, message, http.StatusConflict, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewInternalError wraps a system failure. The cause stays attached for
// logging but the message surfaced to callers is always generic.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Business-rule codes used by the lifecycle services.
const (
	CodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	CodeAlreadyEmployed   = "ALREADY_EMPLOYED"
	CodeUsernameTaken     = "USERNAME_TAKEN"
	CodeSelfPromotion     = "SELF_PROMOTION"
	CodeNotAPromotion     = "NOT_A_PROMOTION"
	CodeNotADemotion      = "NOT_A_DEMOTION"
	CodeHierarchy         = "HIERARCHY_VIOLATION"
	CodeCaseAlreadyClosed = "CASE_ALREADY_CLOSED"
	CodeCaseNotPending    = "CASE_NOT_PENDING"
	CodeCaseNotOpen       = "CASE_NOT_OPEN"
	CodeAlreadyAssigned   = "ALREADY_ASSIGNED"
	CodeNotAssigned       = "NOT_ASSIGNED"
	CodeNotALawyer        = "NOT_A_LAWYER"
)

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}
