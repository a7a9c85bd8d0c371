package dto

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

// UpdateSLAPolicyRequest replaces the whole table.
type UpdateSLAPolicyRequest struct {
	Hours map[string]int `json:"hours" validate:"required,min=1"`
}

// SLAPolicyResponse describes the active table.
type SLAPolicyResponse struct {
	Version   int64          `json:"version"`
	Hours     map[string]int `json:"hours"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSLAPolicyResponse maps a snapshot.
func NewSLAPolicyResponse(snap sla.Snapshot) SLAPolicyResponse {
	hours := make(map[string]int, len(snap.Policy))
	for priority, h := range snap.Policy {
		hours[string(priority)] = h
	}
	return SLAPolicyResponse{Version: snap.Version, Hours: hours, UpdatedAt: snap.UpdatedAt}
}

// IssueTokenRequest asks for a signed actor token.
type IssueTokenRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Role string `json:"role"`
}

// TokenResponse carries a signed actor token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
