package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/auth"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

// SLAHandler reads and replaces the SLA policy table.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// GetPolicy GET /sla/policy.
func (h *SLAHandler) GetPolicy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewSLAPolicyResponse(h.service.Policy())})
}

// UpdatePolicy PUT /sla/policy. Priorities left out fall back to 24 hours.
func (h *SLAHandler) UpdatePolicy(c *fiber.Ctx) error {
	var req dto.UpdateSLAPolicyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	policy, err := sla.ParsePolicy(req.Hours)
	if err != nil {
		return err
	}
	snap, err := h.service.UpdatePolicy(c.UserContext(), auth.ActorFromContext(c), policy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLAPolicyResponse(snap)})
}
