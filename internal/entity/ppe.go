package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

const (
	BodyPartHead        = "HEAD"
	EquipmentHeadCover  = "HEAD_COVER"
	NoWorkerDetectedMsg = "No Worker Detected"
)

// PersonID is the vision service's per-image person identifier. Rekognition sends an
// integer, other providers may send a string, so both decode into the same value.
type PersonID string

func (id *PersonID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PersonID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = PersonID(n.String())
	return nil
}

func (id PersonID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type EquipmentDetection struct {
	Type       string  `json:"Type"`
	Confidence float64 `json:"Confidence"`
}

type BodyPart struct {
	Name                string               `json:"Name"`
	Confidence          float64              `json:"Confidence"`
	EquipmentDetections []EquipmentDetection `json:"EquipmentDetections"`
}

type Person struct {
	ID        PersonID   `json:"Id"`
	BodyParts []BodyPart `json:"BodyParts"`
}

// DetectionResult is the vision service answer mapped onto an explicit schema. Field names
// follow the Rekognition wire format so provider payloads decode without a translation step.
type DetectionResult struct {
	ModelVersion string   `json:"ProtectiveEquipmentModelVersion,omitempty"`
	Persons      []Person `json:"Persons"`
}

type EvaluationOutcome struct {
	ViolationDetected bool     `json:"violation"`
	PersonFound       bool     `json:"personFound"`
	Details           []string `json:"details"`
}

type ScanResult struct {
	ScanID      string
	ZoneID      string
	Timestamp   time.Time
	Outcome     EvaluationOutcome
	PersonCount int
	Message     string
	SnapshotURL string
	Raw         json.RawMessage
}
