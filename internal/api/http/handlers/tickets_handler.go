package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/auth"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	"github.com/spec-kit/sla-ticket-service/internal/workflow"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	priority, err := optionalPriority(req.Priority)
	if err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), auth.ActorFromContext(c), workflow.CreateInput{
		Title:       req.Title,
		Category:    req.Category,
		Location:    req.Location,
		Description: req.Description,
		Priority:    priority,
		Photo:       req.Photo,
		Requester:   req.Requester,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, h.service.Now())})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), auth.ActorFromContext(c), filter)
	if err != nil {
		return err
	}
	now := h.service.Now()
	items := make([]dto.TicketSummary, 0, len(tickets))
	for _, ticket := range tickets {
		items = append(items, dto.NewTicketSummary(ticket, now))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{"limit": filter.Limit, "offset": filter.Offset, "count": len(items)},
	})
}

// GetTicket GET /tickets/:id. The id may be the UUID or the CH- code.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return h.detail(c, ticket)
}

// ApplyTransition POST /tickets/:id/transitions.
func (h *TicketsHandler) ApplyTransition(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	event, err := workflow.ParseEvent(req.Event)
	if err != nil {
		return err
	}
	priority, err := optionalPriority(req.Priority)
	if err != nil {
		return err
	}
	ticket, err := h.service.ApplyTransition(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), workflow.Transition{
		Event:      event,
		Assignee:   req.Assignee,
		Supervisor: req.Supervisor,
		Priority:   priority,
		Reason:     req.Reason,
		Photo:      req.Photo,
		Note:       req.Note,
		Materials:  req.Materials,
	})
	if err != nil {
		return err
	}
	return h.detail(c, ticket)
}

// Reprioritize POST /tickets/:id/priority.
func (h *TicketsHandler) Reprioritize(c *fiber.Ctx) error {
	var req dto.ReprioritizeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return err
	}
	ticket, err := h.service.Reprioritize(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), priority)
	if err != nil {
		return err
	}
	return h.detail(c, ticket)
}

// Extend POST /tickets/:id/extensions.
func (h *TicketsHandler) Extend(c *fiber.Ctx) error {
	var req dto.ExtendRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Extend(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Days, req.Reason)
	if err != nil {
		return err
	}
	return h.detail(c, ticket)
}

// SubmitJustification POST /tickets/:id/justification.
func (h *TicketsHandler) SubmitJustification(c *fiber.Ctx) error {
	var req dto.SubmitJustificationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.SubmitJustification(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Reason, *req.ProposedNewLimit)
	if err != nil {
		return err
	}
	return h.detail(c, ticket)
}

// ApproveJustification POST /tickets/:id/justification/approve.
func (h *TicketsHandler) ApproveJustification(c *fiber.Ctx) error {
	ticket, err := h.service.ApproveJustification(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return h.detail(c, ticket)
}

// RejectJustification POST /tickets/:id/justification/reject.
func (h *TicketsHandler) RejectJustification(c *fiber.Ctx) error {
	var req dto.RejectJustificationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.RejectJustification(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return h.detail(c, ticket)
}

func (h *TicketsHandler) detail(c *fiber.Ctx, ticket *domain.Ticket) error {
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, h.service.Now())})
}

// parseBody decodes a JSON body and runs tag validation. An empty body
// decodes as the zero request.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return apperrors.NewBadRequest("invalid JSON payload")
		}
	}
	return dto.Validate(out)
}

func optionalPriority(raw string) (domain.TicketPriority, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return domain.ParsePriority(raw)
}

var knownStatuses = map[domain.TicketStatus]bool{
	domain.TicketStatusOpen:             true,
	domain.TicketStatusQueued:           true,
	domain.TicketStatusInProgress:       true,
	domain.TicketStatusAwaitingMaterial: true,
	domain.TicketStatusBlocked:          true,
	domain.TicketStatusFinalized:        true,
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	for _, part := range splitList(c.Query("status")) {
		status := domain.TicketStatus(strings.ToUpper(part))
		if !knownStatuses[status] {
			return filter, apperrors.NewBadRequest("unknown status " + strconv.Quote(part))
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, part := range splitList(c.Query("priority")) {
		priority, err := domain.ParsePriority(part)
		if err != nil {
			return filter, err
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	if assignee := strings.TrimSpace(c.Query("assigned_to")); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if raw := c.Query("overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperrors.NewBadRequest("overdue must be a boolean")
		}
		filter.Overdue = &overdue
	}

	var err error
	if filter.CreatedFrom, err = parseTime("created_from", c.Query("created_from")); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = parseTime("created_to", c.Query("created_to")); err != nil {
		return filter, err
	}

	filter.Limit = parseInt(c.Query("limit"), defaultPageSize)
	switch {
	case filter.Limit == 0:
		filter.Limit = defaultPageSize
	case filter.Limit > maxPageSize:
		filter.Limit = maxPageSize
	}
	filter.Offset = parseInt(c.Query("offset"), 0)
	return filter, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func parseTime(name, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewBadRequest(name + " must be an RFC3339 timestamp")
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
