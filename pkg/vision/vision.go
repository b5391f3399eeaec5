package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"heimdall/internal/entity"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ProviderRekognition = "rekognition"
	ProviderGemini      = "gemini"
	ProviderMock        = "mock"

	DefaultMinConfidence = 50.0
)

var (
	ErrInvalidPayload   = errors.New("vision payload does not match the PPE schema")
	ErrUnknownProvider  = errors.New("unknown vision provider")
	ErrProviderResponse = errors.New("vision provider call failed")
)

// Provider talks to one vision backend and returns its PPE answer as JSON in the
// Rekognition DetectProtectiveEquipment response shape.
type Provider interface {
	Name() string
	Detect(ctx context.Context, image []byte, mimeType string) ([]byte, error)
}

type Detection struct {
	Provider string
	Result   entity.DetectionResult
	Raw      json.RawMessage
}

type IVision interface {
	DetectProtectiveEquipment(ctx context.Context, image []byte, mimeType string) (*Detection, error)
	Provider() string
	Close() error
}

type visionClient struct {
	provider Provider
	guard    *PayloadGuard
	log      *logrus.Logger
}

// New picks the provider from VISION_PROVIDER (rekognition when unset).
func New(log *logrus.Logger) (IVision, error) {
	var (
		provider Provider
		err      error
	)

	switch name := strings.ToLower(os.Getenv("VISION_PROVIDER")); name {
	case "", ProviderRekognition:
		provider, err = NewRekognitionProviderFromEnv()
	case ProviderGemini:
		provider, err = NewGeminiProviderFromEnv()
	case ProviderMock:
		provider = NewMockProvider(mockLatencyFromEnv(), nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if err != nil {
		return nil, err
	}

	return NewWithProvider(provider, log)
}

func NewWithProvider(provider Provider, log *logrus.Logger) (IVision, error) {
	guard, err := NewPayloadGuard()
	if err != nil {
		return nil, err
	}

	return &visionClient{
		provider: provider,
		guard:    guard,
		log:      log,
	}, nil
}

func (c *visionClient) Provider() string {
	return c.provider.Name()
}

func (c *visionClient) DetectProtectiveEquipment(ctx context.Context, image []byte, mimeType string) (*Detection, error) {
	start := time.Now()

	raw, err := c.provider.Detect(ctx, image, mimeType)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"provider": c.provider.Name(),
			"error":    err.Error(),
		}).Error("Vision provider call failed")
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderResponse, c.provider.Name(), err)
	}

	result, err := c.guard.Decode(raw)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"provider": c.provider.Name(),
			"error":    err.Error(),
		}).Warn("Vision payload rejected by schema")
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"provider":   c.provider.Name(),
		"persons":    len(result.Persons),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("Vision detection completed")

	return &Detection{
		Provider: c.provider.Name(),
		Result:   *result,
		Raw:      raw,
	}, nil
}

func (c *visionClient) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func minConfidenceFromEnv() float64 {
	v, err := strconv.ParseFloat(os.Getenv("VISION_MIN_CONFIDENCE"), 64)
	if err != nil || v < 0 || v > 100 {
		return DefaultMinConfidence
	}
	return v
}

func mockLatencyFromEnv() time.Duration {
	ms, err := strconv.Atoi(os.Getenv("MOCK_LATENCY_MS"))
	if err != nil || ms < 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}
