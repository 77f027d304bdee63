package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/auth"
	"github.com/portyard/port-ticket-service/internal/observability"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches the request id, timeout, error rendering and
// access log middlewares, in that order.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app.Use(requestid.New())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders every error as {"error":{code,message,details}}.
// Panics become INTERNAL_ERROR. Failures at 500 and above are logged with the
// request id and the caller so a client report can be traced to one line.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("handler panicked", append(failureFields(c, "INTERNAL_ERROR"),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)...)
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= fiber.StatusInternalServerError && domainErr.Err != nil {
				logger.Error("request failed", append(failureFields(c, domainErr.Code), zap.Error(domainErr.Err))...)
			}

			body := fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}
			if len(domainErr.Details) > 0 {
				body["details"] = domainErr.Details
			}
			c.Status(domainErr.HTTPStatus)
			_ = c.JSON(fiber.Map{"error": body})
			err = nil
		}()
		return c.Next()
	}
}

func failureFields(c *fiber.Ctx, code string) []zap.Field {
	fields := []zap.Field{
		zap.String("code", code),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}
	if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if session, ok := auth.SessionFromContext(c); ok {
		fields = append(fields,
			zap.String("user_id", session.UserID),
			zap.String("role", string(session.Role)),
		)
	}
	return fields
}
