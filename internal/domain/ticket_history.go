package domain

import (
	"fmt"
	"strings"
	"time"
)

// HistoryKind tags what operation produced a history entry.
type HistoryKind string

const (
	HistoryOpened                 HistoryKind = "OPENED"
	HistoryTriaged                HistoryKind = "TRIAGED"
	HistoryTriageRejected         HistoryKind = "TRIAGE_REJECTED"
	HistoryStarted                HistoryKind = "STARTED"
	HistoryAwaitingMaterial       HistoryKind = "AWAITING_MATERIAL"
	HistoryBlocked                HistoryKind = "BLOCKED"
	HistoryResumed                HistoryKind = "RESUMED"
	HistoryFinalized              HistoryKind = "FINALIZED"
	HistoryReprioritized          HistoryKind = "REPRIORITIZED"
	HistorySLAExtended            HistoryKind = "SLA_EXTENDED"
	HistoryJustificationSubmitted HistoryKind = "JUSTIFICATION_SUBMITTED"
	HistoryJustificationApproved  HistoryKind = "JUSTIFICATION_APPROVED"
	HistoryJustificationRejected  HistoryKind = "JUSTIFICATION_REJECTED"
)

// HistoryDetails is the typed payload of a history entry. Each
// implementation belongs to exactly one HistoryKind.
type HistoryDetails interface {
	Kind() HistoryKind
}

// HistoryEntry is an immutable audit trail record.
type HistoryEntry struct {
	Timestamp time.Time
	Kind      HistoryKind
	Actor     string
	Comment   string
	Details   HistoryDetails
}

// NewHistoryEntry builds an entry whose kind follows from details.
func NewHistoryEntry(at time.Time, actor, comment string, details HistoryDetails) HistoryEntry {
	return HistoryEntry{
		Timestamp: at,
		Kind:      details.Kind(),
		Actor:     actor,
		Comment:   comment,
		Details:   details,
	}
}

// OpenedDetails records the initial deadline.
type OpenedDetails struct {
	Priority TicketPriority `json:"priority"`
	SLALimit time.Time      `json:"sla_limit"`
}

func (OpenedDetails) Kind() HistoryKind { return HistoryOpened }

// TriagedDetails records assignment and an optional priority change.
type TriagedDetails struct {
	Assignee    string         `json:"assignee"`
	OldPriority TicketPriority `json:"old_priority"`
	NewPriority TicketPriority `json:"new_priority"`
	SLALimit    time.Time      `json:"sla_limit"`
}

func (TriagedDetails) Kind() HistoryKind { return HistoryTriaged }

// PriorityChanged reports whether triage moved the priority.
func (d TriagedDetails) PriorityChanged() bool {
	return d.OldPriority != d.NewPriority
}

// StatusChangeDetails covers transitions whose only effect is the status.
type StatusChangeDetails struct {
	From TicketStatus `json:"from"`
	To   TicketStatus `json:"to"`
}

func (d StatusChangeDetails) Kind() HistoryKind {
	switch d.To {
	case TicketStatusInProgress:
		if d.From == TicketStatusQueued {
			return HistoryStarted
		}
		return HistoryResumed
	case TicketStatusAwaitingMaterial:
		return HistoryAwaitingMaterial
	case TicketStatusBlocked:
		if d.From == TicketStatusOpen {
			return HistoryTriageRejected
		}
		return HistoryBlocked
	}
	return HistoryKind("STATUS_" + string(d.To))
}

// FinalizedDetails records completion evidence.
type FinalizedDetails struct {
	PhotoClose string   `json:"photo_close"`
	Materials  []string `json:"materials,omitempty"`
}

func (FinalizedDetails) Kind() HistoryKind { return HistoryFinalized }

// ReprioritizedDetails records a priority change and its deadline effect.
type ReprioritizedDetails struct {
	OldPriority TicketPriority `json:"old_priority"`
	NewPriority TicketPriority `json:"new_priority"`
	OldLimit    time.Time      `json:"old_limit"`
	NewLimit    time.Time      `json:"new_limit"`
}

func (ReprioritizedDetails) Kind() HistoryKind { return HistoryReprioritized }

// ExtendedDetails records a direct administrative extension.
type ExtendedDetails struct {
	Days     int       `json:"days"`
	OldLimit time.Time `json:"old_limit"`
	NewLimit time.Time `json:"new_limit"`
}

func (ExtendedDetails) Kind() HistoryKind { return HistorySLAExtended }

// JustificationSubmittedDetails records the proposed deadline.
type JustificationSubmittedDetails struct {
	ProposedNewLimit time.Time `json:"proposed_new_limit"`
}

func (JustificationSubmittedDetails) Kind() HistoryKind { return HistoryJustificationSubmitted }

// JustificationApprovedDetails records the accepted deadline move.
type JustificationApprovedDetails struct {
	OldLimit time.Time `json:"old_limit"`
	NewLimit time.Time `json:"new_limit"`
}

func (JustificationApprovedDetails) Kind() HistoryKind { return HistoryJustificationApproved }

// JustificationRejectedDetails records the proposal that was turned down.
type JustificationRejectedDetails struct {
	ProposedNewLimit *time.Time `json:"proposed_new_limit,omitempty"`
}

func (JustificationRejectedDetails) Kind() HistoryKind { return HistoryJustificationRejected }

const labelTimeLayout = "2006-01-02 15:04"

// Label renders the entry for display.
func (e HistoryEntry) Label() string {
	switch d := e.Details.(type) {
	case OpenedDetails:
		return fmt.Sprintf("Ticket opened (%s, due %s)", d.Priority, d.SLALimit.Format(labelTimeLayout))
	case TriagedDetails:
		if d.PriorityChanged() {
			return fmt.Sprintf("Assigned to %s, priority %s -> %s", d.Assignee, d.OldPriority, d.NewPriority)
		}
		return fmt.Sprintf("Assigned to %s", d.Assignee)
	case StatusChangeDetails:
		return withComment(statusLabel(d), e.Comment)
	case FinalizedDetails:
		return "Service finalized"
	case ReprioritizedDetails:
		return fmt.Sprintf("Priority changed to %s", d.NewPriority)
	case ExtendedDetails:
		return withComment(fmt.Sprintf("Deadline extended (+%d days)", d.Days), e.Comment)
	case JustificationSubmittedDetails:
		return fmt.Sprintf("Delay justification submitted (proposed %s)", d.ProposedNewLimit.Format(labelTimeLayout))
	case JustificationApprovedDetails:
		return fmt.Sprintf("Delay justification approved (new deadline %s)", d.NewLimit.Format(labelTimeLayout))
	case JustificationRejectedDetails:
		return withComment("Delay justification rejected", e.Comment)
	}
	return string(e.Kind)
}

func statusLabel(d StatusChangeDetails) string {
	switch d.Kind() {
	case HistoryStarted:
		return "Work started"
	case HistoryResumed:
		return "Work resumed"
	case HistoryAwaitingMaterial:
		return "Awaiting material"
	case HistoryBlocked:
		return "Work blocked"
	case HistoryTriageRejected:
		return "Rejected at triage"
	}
	return fmt.Sprintf("Status %s -> %s", d.From, d.To)
}

func withComment(label, comment string) string {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return label
	}
	return label + ": " + comment
}
