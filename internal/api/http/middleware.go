package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// HeaderIdempotencyKey names the client-chosen key for safe retries.
const HeaderIdempotencyKey = "Idempotency-Key"

// RegisterMiddlewares attaches global middlewares. The request logger sits
// outermost so it sees the status written by the error middleware.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				writeError(c, domainErr)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also covers errors raised by fiber itself, such as
// unmatched routes and oversized bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fiberErr.Code), " ", "_"))
		if code == "" {
			code = "HTTP_ERROR"
		}
		return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError) {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	_ = c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

// IdempotencyMiddleware claims the Idempotency-Key of a mutating request
// before the handler runs. A repeated key fails with 409; a request that
// fails releases its key so the client may retry. Guard outages are
// logged and the request proceeds unguarded.
func IdempotencyMiddleware(guard repository.IdempotencyRepository, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if key == "" || guard == nil || (c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut) {
			return c.Next()
		}
		if len(key) > 200 {
			return apperrors.NewBadRequest("Idempotency-Key must be at most 200 characters")
		}

		ctx := c.UserContext()
		scope := c.Method() + " " + c.Path()
		claimed, err := guard.Claim(ctx, scope, key)
		if err != nil {
			logger.Warn("idempotency guard unavailable", zap.String("scope", scope), zap.Error(err))
			return c.Next()
		}
		if !claimed {
			return apperrors.NewConflict("request with this Idempotency-Key was already processed", map[string]any{
				"idempotency_key": key,
			})
		}

		err = c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			if releaseErr := guard.Release(context.WithoutCancel(ctx), scope, key); releaseErr != nil {
				logger.Warn("idempotency key release failed", zap.String("scope", scope), zap.Error(releaseErr))
			}
		}
		return err
	}
}
