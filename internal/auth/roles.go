package auth

import (
	"fmt"
	"strings"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// AnonymousActor labels requests that carry no identity.
var AnonymousActor = domain.Actor{Name: "anonymous"}

// ParseRole normalizes a role name. An empty value yields an empty role.
func ParseRole(raw string) (domain.Role, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	role := domain.Role(strings.ToUpper(trimmed))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, raw)
	}
	return role, nil
}
