package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

// Reprioritize changes the priority before work starts. The deadline is
// recomputed from the creation instant, so it may move earlier.
func Reprioritize(t *domain.Ticket, priority domain.TicketPriority, actor string, now time.Time, policy sla.Policy) error {
	if t.Status != domain.TicketStatusOpen && t.Status != domain.TicketStatusQueued {
		return fmt.Errorf("%w: priority is fixed once work starts (status %s)", domain.ErrInvalidTransition, t.Status)
	}
	limit, err := sla.ComputeDeadline(priority, t.CreatedAt, policy)
	if err != nil {
		return err
	}
	details := domain.ReprioritizedDetails{
		OldPriority: t.Priority,
		NewPriority: priority,
		OldLimit:    t.SLALimit,
		NewLimit:    limit,
	}
	t.Priority = priority
	t.SLALimit = limit
	t.Append(domain.NewHistoryEntry(now, actor, "", details))
	return nil
}

// Extend pushes the deadline by whole calendar days on top of the current
// limit. Repeated calls stack.
func Extend(t *domain.Ticket, days int, reason, actor string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: an extension needs a reason", domain.ErrMissingReason)
	}
	if days <= 0 {
		return fmt.Errorf("%w: extension days must be positive, got %d", domain.ErrInvalidInput, days)
	}
	if err := ensureOpenForChanges(t, "extend"); err != nil {
		return err
	}

	oldLimit := t.SLALimit
	newLimit := oldLimit.AddDate(0, 0, days)
	if !newLimit.After(oldLimit) || newLimit.After(domain.LatestDeadline) {
		return fmt.Errorf("%w: extending by %d days passes %s", domain.ErrInvalidInput, days, domain.LatestDeadline.Format(time.DateOnly))
	}
	markOriginalLimit(t)
	t.SLALimit = newLimit
	t.IsExtended = true
	t.Append(domain.NewHistoryEntry(now, actor, reason, domain.ExtendedDetails{
		Days:     days,
		OldLimit: oldLimit,
		NewLimit: newLimit,
	}))
	return nil
}

// markOriginalLimit records the pre-change deadline the first time only.
func markOriginalLimit(t *domain.Ticket) {
	if t.OriginalSLALimit != nil {
		return
	}
	original := t.SLALimit
	t.OriginalSLALimit = &original
}
