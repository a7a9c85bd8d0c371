package repository

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// ticketRecord is the JSONB snapshot persisted for a ticket. History is
// stored row by row in ticket_history and is not part of the snapshot.
type ticketRecord struct {
	ID                  string                     `json:"id"`
	Code                string                     `json:"code"`
	Title               string                     `json:"title"`
	Category            string                     `json:"category,omitempty"`
	Location            string                     `json:"location,omitempty"`
	Description         string                     `json:"description,omitempty"`
	PhotoOpen           string                     `json:"photoOpen"`
	PhotoClose          string                     `json:"photoClose,omitempty"`
	Requester           string                     `json:"requester"`
	AssignedTo          *string                    `json:"assignedTo,omitempty"`
	Supervisor          *string                    `json:"supervisor,omitempty"`
	CreatedAt           time.Time                  `json:"createdAt"`
	StartedAt           *time.Time                 `json:"startedAt,omitempty"`
	FinishedAt          *time.Time                 `json:"finishedAt,omitempty"`
	Priority            domain.TicketPriority      `json:"priority"`
	SLALimit            time.Time                  `json:"slaLimit"`
	OriginalSLALimit    *time.Time                 `json:"originalSlaLimit,omitempty"`
	IsExtended          bool                       `json:"isExtended"`
	ProposedNewLimit    *time.Time                 `json:"proposedNewLimit,omitempty"`
	DelayJustification  string                     `json:"delayJustification,omitempty"`
	JustificationStatus domain.JustificationStatus `json:"justificationStatus"`
	RejectionReason     string                     `json:"rejectionReason,omitempty"`
	Status              domain.TicketStatus        `json:"status"`
	TechnicalNote       string                     `json:"technicalNote,omitempty"`
	Materials           []string                   `json:"materials"`
}

func toRecord(t *domain.Ticket) ticketRecord {
	return ticketRecord{
		ID:                  t.ID,
		Code:                t.Code,
		Title:               t.Title,
		Category:            t.Category,
		Location:            t.Location,
		Description:         t.Description,
		PhotoOpen:           t.PhotoOpen,
		PhotoClose:          t.PhotoClose,
		Requester:           t.Requester,
		AssignedTo:          t.AssignedTo,
		Supervisor:          t.Supervisor,
		CreatedAt:           t.CreatedAt,
		StartedAt:           t.StartedAt,
		FinishedAt:          t.FinishedAt,
		Priority:            t.Priority,
		SLALimit:            t.SLALimit,
		OriginalSLALimit:    t.OriginalSLALimit,
		IsExtended:          t.IsExtended,
		ProposedNewLimit:    t.ProposedNewLimit,
		DelayJustification:  t.DelayJustification,
		JustificationStatus: t.JustificationStatus,
		RejectionReason:     t.RejectionReason,
		Status:              t.Status,
		TechnicalNote:       t.TechnicalNote,
		Materials:           t.Materials,
	}
}

func (r ticketRecord) toTicket(version int64, history []domain.HistoryEntry) *domain.Ticket {
	materials := r.Materials
	if materials == nil {
		materials = []string{}
	}
	return &domain.Ticket{
		ID:                  r.ID,
		Code:                r.Code,
		Title:               r.Title,
		Category:            r.Category,
		Location:            r.Location,
		Description:         r.Description,
		PhotoOpen:           r.PhotoOpen,
		PhotoClose:          r.PhotoClose,
		Requester:           r.Requester,
		AssignedTo:          r.AssignedTo,
		Supervisor:          r.Supervisor,
		CreatedAt:           r.CreatedAt,
		StartedAt:           r.StartedAt,
		FinishedAt:          r.FinishedAt,
		Priority:            r.Priority,
		SLALimit:            r.SLALimit,
		OriginalSLALimit:    r.OriginalSLALimit,
		IsExtended:          r.IsExtended,
		ProposedNewLimit:    r.ProposedNewLimit,
		DelayJustification:  r.DelayJustification,
		JustificationStatus: r.JustificationStatus,
		RejectionReason:     r.RejectionReason,
		Status:              r.Status,
		TechnicalNote:       r.TechnicalNote,
		Materials:           materials,
		History:             history,
		Version:             version,
	}
}
