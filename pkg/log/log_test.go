package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Setenv("APP_ENV", "test")
	l := NewLogger()
	buf := &bytes.Buffer{}
	prev := l.Out
	l.SetOutput(buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	t.Cleanup(func() { l.SetOutput(prev) })
	return buf
}

func TestErrorWithTraceIDReusesRequestID(t *testing.T) {
	buf := captureOutput(t)

	traceID := ErrorWithTraceID(Fields{RequestIDKey: "01HZX"}, "scan failed")

	assert.Equal(t, "01HZX", traceID)
	assert.Contains(t, buf.String(), `"trace_id":"01HZX"`)
}

func TestErrorWithTraceIDGeneratesID(t *testing.T) {
	captureOutput(t)

	traceID := ErrorWithTraceID(nil, "scan failed")

	require.NotEmpty(t, traceID)
	assert.NotEqual(t, "unknown", traceID)
}

func TestWithRequestID(t *testing.T) {
	captureOutput(t)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	assert.Equal(t, "req-1", WithRequestID(ctx).Data[RequestIDKey])
	assert.Equal(t, "unknown", WithRequestID(context.Background()).Data[RequestIDKey])
}
