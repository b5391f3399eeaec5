package scanService

import (
	"heimdall/internal/api/scan"
	"heimdall/internal/entity"
	"heimdall/pkg/alert"
	"heimdall/pkg/redis"
	"heimdall/pkg/s3"
	"heimdall/pkg/utils"
	"heimdall/pkg/vision"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IScanService interface {
	Scan(ctx context.Context, input scan.ScanInput) (*entity.ScanResult, error)
	GetZoneStatus(ctx context.Context, zoneID string) (entity.ZoneStatus, error)
}

// AuditRecorder persists one row per completed scan.
type AuditRecorder interface {
	RecordScan(ctx context.Context, result entity.ScanResult) error
}

// Options tunes the scan pipeline. SideEffectTimeout bounds the snapshot upload, alert, status
// and audit writes of one scan together.
type Options struct {
	DefaultZoneID     string
	SnapshotEnabled   bool
	StatusTTL         time.Duration
	SideEffectTimeout time.Duration
}

type scanService struct {
	log         *logrus.Logger
	vision      vision.IVision
	evaluator   scan.ViolationEvaluator
	statusCache redis.IRedis
	notifier    alert.Notifier
	snapshots   s3.ItfS3
	audit       AuditRecorder
	utils       utils.IUtils
	opts        Options
	now         func() time.Time
}

// NewScanService wires the scan pipeline. statusCache, snapshots and audit may be nil; the
// matching side effect is then skipped.
func NewScanService(
	log *logrus.Logger,
	visionClient vision.IVision,
	statusCache redis.IRedis,
	notifier alert.Notifier,
	snapshots s3.ItfS3,
	audit AuditRecorder,
	utils utils.IUtils,
	opts Options,
) IScanService {
	if opts.DefaultZoneID == "" {
		opts.DefaultZoneID = "zone-a"
	}
	if opts.StatusTTL == 0 {
		opts.StatusTTL = 24 * time.Hour
	}
	if opts.SideEffectTimeout == 0 {
		opts.SideEffectTimeout = 5 * time.Second
	}
	if notifier == nil {
		notifier = alert.NewFanout(log)
	}

	return &scanService{
		log:         log,
		vision:      visionClient,
		evaluator:   scan.NewViolationEvaluator(),
		statusCache: statusCache,
		notifier:    notifier,
		snapshots:   snapshots,
		audit:       audit,
		utils:       utils,
		opts:        opts,
		now:         time.Now,
	}
}
