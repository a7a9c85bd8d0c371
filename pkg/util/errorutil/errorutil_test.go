package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

func TestToDomainErrorMapsSentinels(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
		{domain.ErrNoPendingProposal, "NO_PENDING_PROPOSAL", http.StatusConflict},
		{domain.ErrMissingEvidence, "MISSING_EVIDENCE", http.StatusUnprocessableEntity},
		{domain.ErrMissingReason, "MISSING_REASON", http.StatusUnprocessableEntity},
		{domain.ErrInvalidJustificationRequest, "INVALID_JUSTIFICATION_REQUEST", http.StatusUnprocessableEntity},
		{domain.ErrInvalidInput, "INVALID_INPUT", http.StatusUnprocessableEntity},
		{domain.ErrInvalidPriority, "INVALID_PRIORITY", http.StatusBadRequest},
		{domain.ErrTicketNotFound, "TICKET_NOT_FOUND", http.StatusNotFound},
		{domain.ErrVersionConflict, "VERSION_CONFLICT", http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			wrapped := fmt.Errorf("%w: extra context", tc.err)
			got := ToDomainError(wrapped)
			if got.Code != tc.code || got.HTTPStatus != tc.status {
				t.Errorf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tc.code, tc.status)
			}
			if !errors.Is(got, tc.err) {
				t.Error("mapped error no longer matches its sentinel")
			}
		})
	}
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewConflict("duplicate request", map[string]any{"key": "abc"})
	if got := ToDomainError(original); got != original {
		t.Errorf("DomainError was rewrapped: %+v", got)
	}
}

func TestToDomainErrorUnknownIsInternal(t *testing.T) {
	got := ToDomainError(errors.New("disk on fire"))
	if got.HTTPStatus != http.StatusInternalServerError || got.Code != "INTERNAL_ERROR" {
		t.Errorf("got %+v", got)
	}
	if got.Message != "internal server error" {
		t.Errorf("internal message leaked: %q", got.Message)
	}
	if ToDomainError(nil) != nil {
		t.Error("nil error mapped to non-nil")
	}
}
