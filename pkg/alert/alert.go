package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Violation is the payload every notifier renders.
type Violation struct {
	ScanID      string    `json:"scanId"`
	ZoneID      string    `json:"zoneId"`
	Timestamp   time.Time `json:"timestamp"`
	Details     []string  `json:"details"`
	SnapshotURL string    `json:"snapshotUrl,omitempty"`
}

func (v Violation) Subject() string {
	return fmt.Sprintf("Heimdall: safety violation in %s", v.ZoneID)
}

func (v Violation) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Safety violation detected in zone %s at %s.\n", v.ZoneID, v.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Scan: %s\n", v.ScanID)
	for _, d := range v.Details {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	if v.SnapshotURL != "" {
		fmt.Fprintf(&b, "Snapshot: %s\n", v.SnapshotURL)
	}
	return b.String()
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, v Violation) error
}

type fanout struct {
	notifiers []Notifier
	log       *logrus.Logger
}

// NewFanout sends to every notifier. With none configured the alert is only logged.
func NewFanout(log *logrus.Logger, notifiers ...Notifier) Notifier {
	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &fanout{notifiers: active, log: log}
}

func (f *fanout) Name() string {
	return "fanout"
}

func (f *fanout) Notify(ctx context.Context, v Violation) error {
	if len(f.notifiers) == 0 {
		f.log.WithFields(logrus.Fields{
			"scan_id": v.ScanID,
			"zone_id": v.ZoneID,
			"details": v.Details,
		}).Warn("Violation alert simulated, no notifier configured")
		return nil
	}

	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, v); err != nil {
			f.log.WithFields(logrus.Fields{
				"notifier": n.Name(),
				"scan_id":  v.ScanID,
				"error":    err.Error(),
			}).Error("Violation alert failed")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		f.log.WithFields(logrus.Fields{
			"notifier": n.Name(),
			"scan_id":  v.ScanID,
			"zone_id":  v.ZoneID,
		}).Info("Violation alert sent")
	}

	return errors.Join(errs...)
}
