package vision

import (
	"context"
	"math/rand"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// mockHelmetRate is the share of frames in which the simulated worker wears a helmet.
const mockHelmetRate = 0.7

type mockEquipment struct {
	Type       string
	Confidence float64
}

type mockBodyPart struct {
	Name                string
	Confidence          float64
	EquipmentDetections []mockEquipment
}

type mockPerson struct {
	ID        int `json:"Id"`
	BodyParts []mockBodyPart
}

type mockResponse struct {
	ProtectiveEquipmentModelVersion string
	Persons                         []mockPerson
}

// mockProvider fakes a single-worker Rekognition answer for offline development.
type mockProvider struct {
	latency time.Duration
	roll    func() float64
}

// NewMockProvider returns a provider that answers after latency. roll defaults to a uniform
// random source; a value below 0.7 means the worker wears a helmet.
func NewMockProvider(latency time.Duration, roll func() float64) Provider {
	if roll == nil {
		roll = rand.Float64
	}
	return &mockProvider{latency: latency, roll: roll}
}

func (p *mockProvider) Name() string {
	return ProviderMock
}

func (p *mockProvider) Detect(ctx context.Context, _ []byte, _ string) ([]byte, error) {
	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	equipment := []mockEquipment{}
	if p.roll() < mockHelmetRate {
		equipment = append(equipment, mockEquipment{Type: "HEAD_COVER", Confidence: 98.5})
	}

	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(mockResponse{
		ProtectiveEquipmentModelVersion: "1.0",
		Persons: []mockPerson{
			{
				ID: 1,
				BodyParts: []mockBodyPart{
					{Name: "HEAD", Confidence: 99.9, EquipmentDetections: equipment},
				},
			},
		},
	})
}
