package auditService

import (
	"errors"
	"heimdall/internal/api/audit"
	"heimdall/internal/entity"
	contextPkg "heimdall/pkg/context"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *auditService) RecordScan(ctx context.Context, result entity.ScanResult) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.auditRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return err
	}

	return repo.Audit.CreateLog(ctx, entity.AuditLog{
		ID:          result.ScanID,
		ZoneID:      result.ZoneID,
		Timestamp:   result.Timestamp,
		Violation:   result.Outcome.ViolationDetected,
		Message:     result.Message,
		PersonCount: result.PersonCount,
		Details:     result.Outcome.Details,
		SnapshotURL: result.SnapshotURL,
	})
}

func (s *auditService) ListLogs(ctx context.Context, search string, limit int) ([]entity.AuditLog, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if limit == 0 {
		limit = audit.DefaultListLimit
	}
	if limit < 1 || limit > audit.MaxListLimit {
		return nil, audit.ErrInvalidLimit
	}

	repo, err := s.auditRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return nil, err
	}

	logs, err := repo.Audit.ListLogs(ctx, search, limit)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list audit logs")
		return nil, audit.ErrInternalServerError
	}

	for i := range logs {
		logs[i].SnapshotURL = s.presign(ctx, logs[i].SnapshotURL)
	}

	return logs, nil
}

func (s *auditService) GetLog(ctx context.Context, id string) (entity.AuditLog, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.auditRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.AuditLog{}, err
	}

	log, err := repo.Audit.GetLogByID(ctx, id)
	if errors.Is(err, audit.ErrLogNotFound) {
		return entity.AuditLog{}, err
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"log_id":     id,
			"error":      err.Error(),
		}).Error("Failed to get audit log")
		return entity.AuditLog{}, audit.ErrInternalServerError
	}

	log.SnapshotURL = s.presign(ctx, log.SnapshotURL)
	return log, nil
}

// presign swaps the stored object location for a short lived link. The stored location
// is kept when signing fails so the row is still listed.
func (s *auditService) presign(ctx context.Context, location string) string {
	if location == "" || s.s3 == nil {
		return location
	}

	signed, err := s.s3.PresignUrl(ctx, location)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"location":   location,
			"error":      err.Error(),
		}).Warn("Failed to presign snapshot url")
		return location
	}
	return signed
}
