package workflow

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// overdue returns an in-progress ticket and an instant past its deadline.
func overdue(t *testing.T) (*domain.Ticket, time.Time) {
	t.Helper()
	ticket := inProgress(t)
	return ticket, ticket.SLALimit.Add(2 * time.Hour)
}

func TestSubmitAndApproveJustification(t *testing.T) {
	ticket, now := overdue(t)
	oldLimit := ticket.SLALimit
	proposed := oldLimit.Add(48 * time.Hour)

	if err := SubmitJustification(ticket, "broken part", proposed, "joao", now); err != nil {
		t.Fatalf("SubmitJustification: %v", err)
	}
	if ticket.JustificationStatus != domain.JustificationPending {
		t.Errorf("status = %s, want PENDING", ticket.JustificationStatus)
	}
	if !ticket.SLALimit.Equal(oldLimit) {
		t.Errorf("SLALimit moved on submit: %v", ticket.SLALimit)
	}

	if err := ApproveJustification(ticket, "maria", now.Add(time.Hour)); err != nil {
		t.Fatalf("ApproveJustification: %v", err)
	}
	if !ticket.SLALimit.Equal(proposed) {
		t.Errorf("SLALimit = %v, want %v", ticket.SLALimit, proposed)
	}
	if !ticket.IsExtended {
		t.Error("IsExtended = false after approval")
	}
	if ticket.OriginalSLALimit == nil || !ticket.OriginalSLALimit.Equal(oldLimit) {
		t.Errorf("OriginalSLALimit = %v, want %v", ticket.OriginalSLALimit, oldLimit)
	}
	if ticket.JustificationStatus != domain.JustificationApproved {
		t.Errorf("status = %s, want APPROVED", ticket.JustificationStatus)
	}
}

func TestSubmitJustificationAtDeadlineIsRejected(t *testing.T) {
	ticket := inProgress(t)
	err := SubmitJustification(ticket, "late", ticket.SLALimit.Add(time.Hour), "joao", ticket.SLALimit)
	if !errors.Is(err, domain.ErrInvalidJustificationRequest) {
		t.Errorf("err = %v, want ErrInvalidJustificationRequest", err)
	}
}

func TestSubmitJustificationValidation(t *testing.T) {
	tests := []struct {
		name     string
		reason   string
		proposed func(limit time.Time) time.Time
	}{
		{name: "blank reason", reason: "  ", proposed: func(l time.Time) time.Time { return l.Add(time.Hour) }},
		{name: "proposal equals limit", reason: "late", proposed: func(l time.Time) time.Time { return l }},
		{name: "proposal before limit", reason: "late", proposed: func(l time.Time) time.Time { return l.Add(-time.Hour) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ticket, now := overdue(t)
			before := ticket.Clone()
			err := SubmitJustification(ticket, tc.reason, tc.proposed(ticket.SLALimit), "joao", now)
			if !errors.Is(err, domain.ErrInvalidJustificationRequest) {
				t.Fatalf("err = %v, want ErrInvalidJustificationRequest", err)
			}
			if !reflect.DeepEqual(ticket, before) {
				t.Error("ticket changed after rejected submission")
			}
		})
	}
}

func TestSubmitWhilePendingIsRejected(t *testing.T) {
	ticket, now := overdue(t)
	if err := SubmitJustification(ticket, "first", ticket.SLALimit.Add(time.Hour), "joao", now); err != nil {
		t.Fatalf("SubmitJustification: %v", err)
	}
	err := SubmitJustification(ticket, "second", ticket.SLALimit.Add(2*time.Hour), "joao", now)
	if !errors.Is(err, domain.ErrInvalidJustificationRequest) {
		t.Errorf("err = %v, want ErrInvalidJustificationRequest", err)
	}
}

func TestRejectThenResubmit(t *testing.T) {
	ticket, now := overdue(t)
	limit := ticket.SLALimit
	first := limit.Add(24 * time.Hour)
	if err := SubmitJustification(ticket, "rain", first, "joao", now); err != nil {
		t.Fatalf("SubmitJustification: %v", err)
	}

	if err := RejectJustification(ticket, "", "maria", now); !errors.Is(err, domain.ErrMissingReason) {
		t.Fatalf("reject without reason err = %v, want ErrMissingReason", err)
	}
	if ticket.JustificationStatus != domain.JustificationPending {
		t.Fatalf("status = %s after failed reject, want PENDING", ticket.JustificationStatus)
	}

	if err := RejectJustification(ticket, "no evidence", "maria", now); err != nil {
		t.Fatalf("RejectJustification: %v", err)
	}
	if ticket.JustificationStatus != domain.JustificationRejected || ticket.RejectionReason != "no evidence" {
		t.Errorf("after reject: %s, %q", ticket.JustificationStatus, ticket.RejectionReason)
	}
	if !ticket.SLALimit.Equal(limit) || ticket.ProposedNewLimit == nil || !ticket.ProposedNewLimit.Equal(first) {
		t.Errorf("reject touched limit or proposal: %v, %v", ticket.SLALimit, ticket.ProposedNewLimit)
	}

	second := limit.Add(72 * time.Hour)
	if err := SubmitJustification(ticket, "supplier strike", second, "joao", now.Add(time.Hour)); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if ticket.JustificationStatus != domain.JustificationPending {
		t.Errorf("status = %s, want PENDING", ticket.JustificationStatus)
	}
	if ticket.RejectionReason != "" {
		t.Errorf("RejectionReason = %q after resubmit, want empty", ticket.RejectionReason)
	}
	if !ticket.ProposedNewLimit.Equal(second) {
		t.Errorf("ProposedNewLimit = %v, want %v", ticket.ProposedNewLimit, second)
	}
}

func TestApproveWithoutPendingProposal(t *testing.T) {
	ticket, now := overdue(t)
	if err := ApproveJustification(ticket, "maria", now); !errors.Is(err, domain.ErrNoPendingProposal) {
		t.Errorf("err = %v, want ErrNoPendingProposal", err)
	}
	if err := RejectJustification(ticket, "why", "maria", now); !errors.Is(err, domain.ErrNoPendingProposal) {
		t.Errorf("reject err = %v, want ErrNoPendingProposal", err)
	}
}

func TestApprovedIsTerminalForWorkflow(t *testing.T) {
	ticket, now := overdue(t)
	if err := SubmitJustification(ticket, "rain", ticket.SLALimit.Add(time.Hour), "joao", now); err != nil {
		t.Fatalf("SubmitJustification: %v", err)
	}
	if err := ApproveJustification(ticket, "maria", now); err != nil {
		t.Fatalf("ApproveJustification: %v", err)
	}
	later := ticket.SLALimit.Add(time.Hour)
	err := SubmitJustification(ticket, "again", ticket.SLALimit.Add(2*time.Hour), "joao", later)
	if !errors.Is(err, domain.ErrInvalidJustificationRequest) {
		t.Errorf("err = %v, want ErrInvalidJustificationRequest", err)
	}
}

func TestOriginalLimitFirstWriteWins(t *testing.T) {
	ticket, now := overdue(t)
	initial := ticket.SLALimit

	if err := Extend(ticket, 1, "rain", "admin", now); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	late := ticket.SLALimit.Add(time.Hour)
	if err := SubmitJustification(ticket, "more rain", ticket.SLALimit.Add(24*time.Hour), "joao", late); err != nil {
		t.Fatalf("SubmitJustification: %v", err)
	}
	if err := ApproveJustification(ticket, "maria", late); err != nil {
		t.Fatalf("ApproveJustification: %v", err)
	}
	if !ticket.OriginalSLALimit.Equal(initial) {
		t.Errorf("OriginalSLALimit = %v, want %v", *ticket.OriginalSLALimit, initial)
	}
}

func TestJustificationOnFinalizedTicket(t *testing.T) {
	ticket := inProgress(t)
	mustApply(t, ticket, Transition{Event: EventFinalize, Photo: "p"}, t0.Add(2*time.Hour))
	err := SubmitJustification(ticket, "late", ticket.SLALimit.Add(time.Hour), "joao", ticket.SLALimit.Add(time.Hour))
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}
