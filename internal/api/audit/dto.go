package audit

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

type ListLogsRequest struct {
	Search string `query:"search" validate:"max=128"`
	Limit  int    `query:"limit" validate:"gte=0,lte=500"`
}

type AuditLogResponse struct {
	ID          string   `json:"id"`
	ZoneID      string   `json:"zoneId"`
	Timestamp   string   `json:"timestamp"`
	Violation   bool     `json:"violation"`
	Message     string   `json:"message"`
	PersonCount int      `json:"personCount"`
	Details     []string `json:"details"`
	SnapshotURL string   `json:"snapshotUrl,omitempty"`
}
