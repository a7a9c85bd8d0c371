package domain

import "errors"

// Failure kinds returned by ticket operations. Callers match them with
// errors.Is; operations wrap them with context.
var (
	ErrInvalidTransition           = errors.New("invalid transition")
	ErrMissingEvidence             = errors.New("missing evidence photo")
	ErrMissingReason               = errors.New("missing reason")
	ErrInvalidJustificationRequest = errors.New("invalid justification request")
	ErrNoPendingProposal           = errors.New("no pending proposal")
	ErrInvalidPriority             = errors.New("invalid priority")
	ErrInvalidInput                = errors.New("invalid input")
	ErrTicketNotFound              = errors.New("ticket not found")
	ErrVersionConflict             = errors.New("ticket version conflict")
)
