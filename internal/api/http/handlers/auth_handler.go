package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/auth"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// AuthHandler issues actor tokens. Identity is self-declared; the token
// only saves clients from repeating the X-Actor headers.
type AuthHandler struct {
	tokens *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// IssueToken POST /auth/token.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.IssueTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return err
	}
	token, expiresAt, err := h.tokens.GenerateToken(domain.Actor{Name: req.Name, Role: role})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TokenResponse{Token: token, ExpiresAt: expiresAt}})
}
