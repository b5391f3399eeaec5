package config

import (
	"bytes"
	"encoding/base64"
	"heimdall/internal/api/scan"
	scanService "heimdall/internal/api/scan/service"
	"heimdall/pkg/vision"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, roll float64) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	visionClient, err := vision.NewWithProvider(vision.NewMockProvider(0, func() float64 { return roll }), logger)
	require.NoError(t, err)

	srv, err := NewServer(
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithValidator(NewValidator()),
		WithVisionClient(visionClient),
		WithMiddleware(),
		WithUtils(),
		WithNotifiers(nil),
		WithScanOptions(scanService.Options{DefaultZoneID: "yard"}),
	)
	require.NoError(t, err)

	srv.RegisterHandler()
	srv.Mount()
	return srv
}

func jpegDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil))
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNewServerRequiresCoreOptions(t *testing.T) {
	_, err := NewServer()
	assert.Error(t, err)

	logger := logrus.New()
	_, err = NewServer(WithFiber(fiber.New()), WithLogger(logger))
	assert.ErrorContains(t, err, "vision client is required")
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, 0.1)

	resp, err := srv.engine.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Heimdall API Gateway is Online", body["message"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestScanEndToEndWithMockVision(t *testing.T) {
	tests := []struct {
		name      string
		roll      float64
		violation bool
		message   string
		details   []interface{}
	}{
		{name: "helmet", roll: 0.1, violation: false, message: scan.MessageCompliant, details: []interface{}{}},
		{name: "no helmet", roll: 0.9, violation: true, message: scan.MessageViolation, details: []interface{}{"Person ID 1: No Helmet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.roll)

			payload := `{"image":"` + jpegDataURI(t) + `"}`
			req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(payload))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := srv.engine.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.violation, body["violation"])
			assert.Equal(t, true, body["personFound"])
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, tt.details, body["details"])
			assert.Equal(t, "yard", body["zoneId"])
			assert.NotNil(t, body["rekognition_raw"])
		})
	}
}

func TestLogsNotMountedWithoutDatabase(t *testing.T) {
	srv := newTestServer(t, 0.1)

	resp, err := srv.engine.Test(httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
