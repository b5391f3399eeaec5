package entity

import "time"

type AuditLog struct {
	ID          string    `json:"id"`
	ZoneID      string    `json:"zoneId"`
	Timestamp   time.Time `json:"timestamp"`
	Violation   bool      `json:"violation"`
	Message     string    `json:"message"`
	PersonCount int       `json:"personCount"`
	Details     []string  `json:"details"`
	SnapshotURL string    `json:"snapshotUrl,omitempty"`
}

type ZoneStatusValue string

const (
	ZoneStatusViolation ZoneStatusValue = "VIOLATION"
	ZoneStatusCompliant ZoneStatusValue = "COMPLIANT"
	ZoneStatusNoWorker  ZoneStatusValue = "NO_WORKER"
)

type ZoneStatus struct {
	ZoneID    string          `json:"zoneId"`
	Status    ZoneStatusValue `json:"status"`
	ScanID    string          `json:"scanId"`
	Details   []string        `json:"details"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func StatusFromOutcome(outcome EvaluationOutcome) ZoneStatusValue {
	switch {
	case outcome.ViolationDetected:
		return ZoneStatusViolation
	case !outcome.PersonFound:
		return ZoneStatusNoWorker
	default:
		return ZoneStatusCompliant
	}
}
