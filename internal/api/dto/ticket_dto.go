package dto

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// CreateTicketRequest payload. Missing photo and title are reported by
// the workflow, not by tag validation.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"max=200"`
	Category    string `json:"category" validate:"max=100"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"max=4000"`
	Priority    string `json:"priority"`
	Photo       string `json:"photo" validate:"max=2048"`
	Requester   string `json:"requester" validate:"max=120"`
}

// TransitionRequest payload for POST /tickets/:id/transitions.
type TransitionRequest struct {
	Event      string   `json:"event" validate:"required"`
	Assignee   string   `json:"assignee" validate:"max=120"`
	Supervisor string   `json:"supervisor" validate:"max=120"`
	Priority   string   `json:"priority"`
	Reason     string   `json:"reason" validate:"max=2000"`
	Photo      string   `json:"photo" validate:"max=2048"`
	Note       string   `json:"note" validate:"max=4000"`
	Materials  []string `json:"materials" validate:"max=100,dive,max=200"`
}

// ReprioritizeRequest payload.
type ReprioritizeRequest struct {
	Priority string `json:"priority"`
}

// ExtendRequest payload.
type ExtendRequest struct {
	Days   int    `json:"days"`
	Reason string `json:"reason" validate:"max=2000"`
}

// SubmitJustificationRequest payload.
type SubmitJustificationRequest struct {
	Reason           string     `json:"reason" validate:"max=2000"`
	ProposedNewLimit *time.Time `json:"proposed_new_limit" validate:"required"`
}

// RejectJustificationRequest payload.
type RejectJustificationRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                  string                     `json:"id"`
	Code                string                     `json:"code"`
	Title               string                     `json:"title"`
	Location            string                     `json:"location,omitempty"`
	Requester           string                     `json:"requester"`
	AssignedTo          *string                    `json:"assigned_to"`
	Status              domain.TicketStatus        `json:"status"`
	Priority            domain.TicketPriority      `json:"priority"`
	SLALimit            time.Time                  `json:"sla_limit"`
	IsExtended          bool                       `json:"is_extended"`
	JustificationStatus domain.JustificationStatus `json:"justification_status"`
	IsOverdue           bool                       `json:"is_overdue"`
	IsCritical          bool                       `json:"is_critical"`
	CreatedAt           time.Time                  `json:"created_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Category           string                 `json:"category,omitempty"`
	Description        string                 `json:"description,omitempty"`
	PhotoOpen          string                 `json:"photo_open"`
	PhotoClose         string                 `json:"photo_close,omitempty"`
	Supervisor         *string                `json:"supervisor"`
	StartedAt          *time.Time             `json:"started_at"`
	FinishedAt         *time.Time             `json:"finished_at"`
	OriginalSLALimit   *time.Time             `json:"original_sla_limit"`
	ProposedNewLimit   *time.Time             `json:"proposed_new_limit"`
	DelayJustification string                 `json:"delay_justification,omitempty"`
	RejectionReason    string                 `json:"rejection_reason,omitempty"`
	TechnicalNote      string                 `json:"technical_note,omitempty"`
	Materials          []string               `json:"materials"`
	Version            int64                  `json:"version"`
	History            []HistoryEntryResponse `json:"history"`
}

// HistoryEntryResponse carries the structured record and its rendering.
type HistoryEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Kind      domain.HistoryKind    `json:"kind"`
	Actor     string                `json:"actor"`
	Comment   string                `json:"comment,omitempty"`
	Label     string                `json:"label"`
	Details   domain.HistoryDetails `json:"details,omitempty"`
}

// NewTicketSummary maps a ticket, deriving the overdue flags at now.
func NewTicketSummary(t *domain.Ticket, now time.Time) TicketSummary {
	return TicketSummary{
		ID:                  t.ID,
		Code:                t.Code,
		Title:               t.Title,
		Location:            t.Location,
		Requester:           t.Requester,
		AssignedTo:          t.AssignedTo,
		Status:              t.Status,
		Priority:            t.Priority,
		SLALimit:            t.SLALimit,
		IsExtended:          t.IsExtended,
		JustificationStatus: t.JustificationStatus,
		IsOverdue:           t.IsOverdue(now),
		IsCritical:          t.IsCritical(now),
		CreatedAt:           t.CreatedAt,
	}
}

// NewTicketDetail maps a ticket with its full history.
func NewTicketDetail(t *domain.Ticket, now time.Time) TicketDetailResponse {
	history := make([]HistoryEntryResponse, 0, len(t.History))
	for _, entry := range t.History {
		history = append(history, HistoryEntryResponse{
			Timestamp: entry.Timestamp,
			Kind:      entry.Kind,
			Actor:     entry.Actor,
			Comment:   entry.Comment,
			Label:     entry.Label(),
			Details:   entry.Details,
		})
	}
	materials := t.Materials
	if materials == nil {
		materials = []string{}
	}
	return TicketDetailResponse{
		TicketSummary:      NewTicketSummary(t, now),
		Category:           t.Category,
		Description:        t.Description,
		PhotoOpen:          t.PhotoOpen,
		PhotoClose:         t.PhotoClose,
		Supervisor:         t.Supervisor,
		StartedAt:          t.StartedAt,
		FinishedAt:         t.FinishedAt,
		OriginalSLALimit:   t.OriginalSLALimit,
		ProposedNewLimit:   t.ProposedNewLimit,
		DelayJustification: t.DelayJustification,
		RejectionReason:    t.RejectionReason,
		TechnicalNote:      t.TechnicalNote,
		Materials:          materials,
		Version:            t.Version,
		History:            history,
	}
}
