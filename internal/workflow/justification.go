package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// SubmitJustification files a delay explanation and a proposed deadline
// for an overdue ticket. The deadline itself moves only on approval.
//
// The ticket must be strictly past its deadline. A resubmission after
// rejection clears the previous rejection reason and replaces the proposal.
func SubmitJustification(t *domain.Ticket, reason string, proposed time.Time, actor string, now time.Time) error {
	if err := ensureOpenForChanges(t, "justify"); err != nil {
		return err
	}
	if !now.After(t.SLALimit) {
		return fmt.Errorf("%w: ticket is not overdue", domain.ErrInvalidJustificationRequest)
	}
	switch t.JustificationStatus {
	case domain.JustificationNone, domain.JustificationRejected, "":
	default:
		return fmt.Errorf("%w: justification is %s", domain.ErrInvalidJustificationRequest, t.JustificationStatus)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: reason is required", domain.ErrInvalidJustificationRequest)
	}
	if !proposed.After(t.SLALimit) {
		return fmt.Errorf("%w: proposed limit must be after the current limit", domain.ErrInvalidJustificationRequest)
	}

	p := proposed
	t.DelayJustification = reason
	t.ProposedNewLimit = &p
	t.JustificationStatus = domain.JustificationPending
	t.RejectionReason = ""
	t.Append(domain.NewHistoryEntry(now, actor, reason, domain.JustificationSubmittedDetails{
		ProposedNewLimit: proposed,
	}))
	return nil
}

// ApproveJustification moves the deadline to the pending proposal.
func ApproveJustification(t *domain.Ticket, actor string, now time.Time) error {
	if err := ensureOpenForChanges(t, "approve a justification on"); err != nil {
		return err
	}
	if t.JustificationStatus != domain.JustificationPending || t.ProposedNewLimit == nil {
		return fmt.Errorf("%w: justification is %s", domain.ErrNoPendingProposal, t.JustificationStatus)
	}

	oldLimit := t.SLALimit
	newLimit := *t.ProposedNewLimit
	markOriginalLimit(t)
	t.SLALimit = newLimit
	t.IsExtended = true
	t.JustificationStatus = domain.JustificationApproved
	t.Append(domain.NewHistoryEntry(now, actor, "", domain.JustificationApprovedDetails{
		OldLimit: oldLimit,
		NewLimit: newLimit,
	}))
	return nil
}

// RejectJustification turns the proposal down. The deadline and the
// proposal are left as they were.
func RejectJustification(t *domain.Ticket, reason, actor string, now time.Time) error {
	if err := ensureOpenForChanges(t, "reject a justification on"); err != nil {
		return err
	}
	if t.JustificationStatus != domain.JustificationPending {
		return fmt.Errorf("%w: justification is %s", domain.ErrNoPendingProposal, t.JustificationStatus)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: rejection needs a reason", domain.ErrMissingReason)
	}

	var proposed *time.Time
	if t.ProposedNewLimit != nil {
		p := *t.ProposedNewLimit
		proposed = &p
	}
	t.JustificationStatus = domain.JustificationRejected
	t.RejectionReason = reason
	t.Append(domain.NewHistoryEntry(now, actor, reason, domain.JustificationRejectedDetails{
		ProposedNewLimit: proposed,
	}))
	return nil
}
