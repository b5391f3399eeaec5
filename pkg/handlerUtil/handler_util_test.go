package handlerUtil

import (
	"errors"
	"fmt"
	"heimdall/pkg/response"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

func serve(t *testing.T, handle func(*ErrorHandler, *fiber.Ctx) error) (int, ErrorResponse) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := New(logger)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return handle(h, c) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body ErrorResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, jsoniter.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body
}

func TestHandleCodedError(t *testing.T) {
	notFound := response.NewError(http.StatusNotFound, "zone status not found")

	status, body := serve(t, func(h *ErrorHandler, c *fiber.Ctx) error {
		return h.Handle(c, "req-1", notFound, "/", "test")
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "zone status not found", body.Error)
}

func TestHandleWrappedCodedErrorHidesCause(t *testing.T) {
	invalid := response.NewError(http.StatusBadGateway, "invalid detection result")
	wrapped := fmt.Errorf("%w: Persons[0].BodyParts missing", invalid)

	status, body := serve(t, func(h *ErrorHandler, c *fiber.Ctx) error {
		return h.Handle(c, "req-1", wrapped, "/", "test")
	})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "invalid detection result", body.Error)
}

func TestHandleTimeout(t *testing.T) {
	status, _ := serve(t, func(h *ErrorHandler, c *fiber.Ctx) error {
		return h.Handle(c, "req-1", fmt.Errorf("vision: %w", context.DeadlineExceeded), "/", "test")
	})
	assert.Equal(t, http.StatusRequestTimeout, status)
}

func TestHandleFiberError(t *testing.T) {
	status, body := serve(t, func(h *ErrorHandler, c *fiber.Ctx) error {
		return h.Handle(c, "req-1", fiber.ErrUnprocessableEntity, "/", "test")
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Unprocessable Entity", body.Error)
}

func TestHandleUnexpectedError(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	status, body := serve(t, func(h *ErrorHandler, c *fiber.Ctx) error {
		return h.Handle(c, "req-1", errors.New("boom"), "/", "test")
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Equal(t, "trace_id: req-1", body.Details)
}

func TestHandleValidationAndUnauthorized(t *testing.T) {
	status, body := serve(t, func(h *ErrorHandler, c *fiber.Ctx) error {
		return h.HandleValidationError(c, "req-1", errors.New("limit too large"), "/")
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)

	status, body = serve(t, func(h *ErrorHandler, c *fiber.Ctx) error {
		return h.HandleUnauthorized(c, "req-1", "Unauthorized")
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body.Code)
}
