package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/portyard/port-ticket-service/internal/domain"
	apperrors "github.com/portyard/port-ticket-service/pkg/util/errorutil"
)

func newLoggedApp(t *testing.T) (*fiber.App, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.ErrorLevel)
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), nil, 0)
	return app, logs
}

func TestErrorMiddleware_PanicLogsRequestContext(t *testing.T) {
	app, logs := newLoggedApp(t)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("slot table corrupted")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)

	rid := resp.Header.Get(fiber.HeaderXRequestID)
	require.NotEmpty(t, rid)
	entries := logs.FilterMessage("handler panicked").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, rid, fields["request_id"])
	assert.Equal(t, "INTERNAL_ERROR", fields["code"])
	assert.Equal(t, "/boom", fields["path"])
	assert.Equal(t, "slot table corrupted", fields["panic"])
}

func TestErrorMiddleware_ServerFailureLogsRequestID(t *testing.T) {
	app, logs := newLoggedApp(t)
	app.Get("/tickets", func(c *fiber.Ctx) error {
		return apperrors.NewInternalError(errors.New("connection reset"))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return domain.ErrRecordNotFound
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/tickets", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), fields["request_id"])
	assert.Equal(t, "INTERNAL_ERROR", fields["code"])
	assert.Equal(t, "connection reset", fields["error"])

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len(), "client errors are not logged as failures")
}
