package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
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

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusUnprocessableEntity, details)
}

func NewBadRequest(message string) error {
	return NewDomainError("BAD_REQUEST", message, http.StatusBadRequest, nil)
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

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

type sentinelMapping struct {
	err    error
	code   string
	status int
}

// sentinels maps domain errors to API codes, checked in order.
var sentinels = []sentinelMapping{
	{domain.ErrTicketNotFound, "TICKET_NOT_FOUND", http.StatusNotFound},
	{domain.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
	{domain.ErrNoPendingProposal, "NO_PENDING_PROPOSAL", http.StatusConflict},
	{domain.ErrVersionConflict, "VERSION_CONFLICT", http.StatusConflict},
	{domain.ErrMissingEvidence, "MISSING_EVIDENCE", http.StatusUnprocessableEntity},
	{domain.ErrMissingReason, "MISSING_REASON", http.StatusUnprocessableEntity},
	{domain.ErrInvalidJustificationRequest, "INVALID_JUSTIFICATION_REQUEST", http.StatusUnprocessableEntity},
	{domain.ErrInvalidInput, "INVALID_INPUT", http.StatusUnprocessableEntity},
	{domain.ErrInvalidPriority, "INVALID_PRIORITY", http.StatusBadRequest},
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
	for _, m := range sentinels {
		if errors.Is(err, m.err) {
			return &DomainError{Code: m.code, Message: err.Error(), HTTPStatus: m.status, Err: err}
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
