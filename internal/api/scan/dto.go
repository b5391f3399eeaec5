package scan

import (
	"encoding/json"
)

type ScanRequest struct {
	Image  string `json:"image" form:"image"`
	ZoneID string `json:"zoneId" form:"zoneId" validate:"omitempty,max=64,zone_id"`
}

type ScanResponse struct {
	ScanID         string          `json:"scanId"`
	ZoneID         string          `json:"zoneId"`
	Timestamp      string          `json:"timestamp"`
	Violation      bool            `json:"violation"`
	PersonFound    bool            `json:"personFound"`
	PersonCount    int             `json:"personCount"`
	Message        string          `json:"message"`
	Details        []string        `json:"details"`
	SnapshotURL    string          `json:"snapshotUrl,omitempty"`
	RekognitionRaw json.RawMessage `json:"rekognition_raw,omitempty"`
}

type ZoneStatusResponse struct {
	ZoneID    string   `json:"zoneId"`
	Status    string   `json:"status"`
	ScanID    string   `json:"scanId"`
	Details   []string `json:"details"`
	UpdatedAt string   `json:"updatedAt"`
}

const (
	MessageViolation = "Safety Violation Detected"
	MessageCompliant = "Site Compliant"
)

// ScanInput carries one frame, either still base64 encoded (JSON body) or raw (upload).
type ScanInput struct {
	ImageBase64 string
	ImageBytes  []byte
	ZoneID      string
}
