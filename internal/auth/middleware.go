package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

const (
	actorKey     = "auth_actor"
	actorNameKey = "actor_name"

	HeaderActor     = "X-Actor"
	HeaderActorRole = "X-Actor-Role"
)

// ActorMiddleware resolves who is calling. A bearer token wins over the
// X-Actor headers; requests with neither run as AnonymousActor. The
// identity labels history and drives list visibility only.
type ActorMiddleware struct {
	tokens *TokenManager
}

// NewActorMiddleware constructs middleware.
func NewActorMiddleware(tokens *TokenManager) *ActorMiddleware {
	return &ActorMiddleware{tokens: tokens}
}

// Handle stores the resolved actor in the request locals.
func (m *ActorMiddleware) Handle(c *fiber.Ctx) error {
	actor, err := m.resolve(c)
	if err != nil {
		return err
	}
	c.Locals(actorKey, actor)
	c.Locals(actorNameKey, actor.Name)
	return c.Next()
}

func (m *ActorMiddleware) resolve(c *fiber.Ctx) (domain.Actor, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return domain.Actor{}, apperrors.NewUnauthorized("invalid authorization header")
		}
		if m.tokens == nil {
			return domain.Actor{}, apperrors.NewUnauthorized("bearer tokens are not accepted")
		}
		actor, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return domain.Actor{}, apperrors.NewUnauthorized("invalid token")
		}
		return actor, nil
	}

	name := strings.TrimSpace(c.Get(HeaderActor))
	if name == "" {
		return AnonymousActor, nil
	}
	role, err := ParseRole(c.Get(HeaderActorRole))
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{Name: name, Role: role}, nil
}

// ActorFromContext returns the caller resolved by ActorMiddleware, or
// AnonymousActor when the middleware did not run.
func ActorFromContext(c *fiber.Ctx) domain.Actor {
	if actor, ok := c.Locals(actorKey).(domain.Actor); ok {
		return actor
	}
	return AnonymousActor
}
