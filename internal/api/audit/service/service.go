package auditService

import (
	auditRepository "heimdall/internal/api/audit/repository"
	"heimdall/internal/entity"
	"heimdall/pkg/s3"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IAuditService interface {
	RecordScan(ctx context.Context, result entity.ScanResult) error
	ListLogs(ctx context.Context, search string, limit int) ([]entity.AuditLog, error)
	GetLog(ctx context.Context, id string) (entity.AuditLog, error)
}

type auditService struct {
	log             *logrus.Logger
	auditRepository auditRepository.Repository
	s3              s3.ItfS3
}

// NewAuditService builds the audit log service. s3 may be nil, snapshot links are then
// returned as stored.
func NewAuditService(log *logrus.Logger, ar auditRepository.Repository, s3 s3.ItfS3) IAuditService {
	return &auditService{
		log:             log,
		auditRepository: ar,
		s3:              s3,
	}
}
