package scanService

import (
	"context"
	"errors"
	"fmt"
	"heimdall/internal/api/scan"
	"heimdall/internal/entity"
	"heimdall/pkg/alert"
	contextPkg "heimdall/pkg/context"
	"heimdall/pkg/redis"
	"heimdall/pkg/s3"
	"heimdall/pkg/utils"
	"heimdall/pkg/vision"

	"github.com/sirupsen/logrus"
)

func (s *scanService) Scan(ctx context.Context, input scan.ScanInput) (*entity.ScanResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	image, err := s.decodeImage(input)
	if err != nil {
		return nil, err
	}

	mimeType, extension, err := s.utils.DetectImageType(image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"mime_type":  mimeType,
		}).Warn("Rejected frame with unsupported image type")
		return nil, scan.ErrUnsupportedImage
	}

	detection, err := s.vision.DetectProtectiveEquipment(ctx, image, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, vision.ErrInvalidPayload):
			return nil, fmt.Errorf("%w: %v", scan.ErrInvalidInput, err)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, err
		default:
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"provider":   s.vision.Provider(),
				"error":      err.Error(),
			}).Error("Vision service call failed")
			return nil, scan.ErrVisionUnavailable
		}
	}

	outcome, err := s.evaluator.Evaluate(detection.Result)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Detection result rejected by evaluator")
		return nil, err
	}

	now := s.now().UTC()
	scanID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate scan id")
		return nil, scan.ErrInternalServerError
	}

	result := &entity.ScanResult{
		ScanID:      scanID,
		ZoneID:      s.zoneOrDefault(input.ZoneID),
		Timestamp:   now,
		Outcome:     outcome,
		PersonCount: len(detection.Result.Persons),
		Message:     messageFor(outcome),
		Raw:         detection.Raw,
	}

	s.log.WithFields(logrus.Fields{
		"request_id":   requestID,
		"scan_id":      result.ScanID,
		"zone_id":      result.ZoneID,
		"provider":     detection.Provider,
		"violation":    outcome.ViolationDetected,
		"person_count": result.PersonCount,
	}).Info("Frame evaluated")

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SideEffectTimeout)
	defer cancel()
	s.recordSideEffects(sideCtx, result, image, mimeType, extension)

	return result, nil
}

func (s *scanService) GetZoneStatus(ctx context.Context, zoneID string) (entity.ZoneStatus, error) {
	if s.statusCache == nil {
		return entity.ZoneStatus{}, scan.ErrZoneStatusNotFound
	}

	status, err := s.statusCache.GetZoneStatus(ctx, zoneID)
	if errors.Is(err, redis.ErrStatusNotFound) {
		return entity.ZoneStatus{}, scan.ErrZoneStatusNotFound
	}
	if err != nil {
		return entity.ZoneStatus{}, err
	}
	return status, nil
}

func (s *scanService) decodeImage(input scan.ScanInput) ([]byte, error) {
	if len(input.ImageBytes) > 0 {
		if int64(len(input.ImageBytes)) > s.utils.MaxImageSize() {
			return nil, scan.ErrImageTooLarge
		}
		return input.ImageBytes, nil
	}

	if input.ImageBase64 == "" {
		return nil, scan.ErrMissingImage
	}

	image, err := s.utils.DecodeImagePayload(input.ImageBase64)
	switch {
	case err == nil:
		return image, nil
	case errors.Is(err, utils.ErrEmptyImage):
		return nil, scan.ErrMissingImage
	case errors.Is(err, utils.ErrFileTooLarge):
		return nil, scan.ErrImageTooLarge
	default:
		return nil, scan.ErrInvalidImage
	}
}

// recordSideEffects never fails the scan and runs on a context detached from the request, so a
// vision call that used up the request deadline still gets its status, alert and audit row.
// The alert only fires when the zone moves into violation.
func (s *scanService) recordSideEffects(ctx context.Context, result *entity.ScanResult, image []byte, mimeType, extension string) {
	requestID := contextPkg.GetRequestID(ctx)
	fields := logrus.Fields{
		"request_id": requestID,
		"scan_id":    result.ScanID,
		"zone_id":    result.ZoneID,
	}

	previous := entity.ZoneStatusValue("")
	if s.statusCache != nil {
		status, err := s.statusCache.GetZoneStatus(ctx, result.ZoneID)
		if err == nil {
			previous = status.Status
		} else if !errors.Is(err, redis.ErrStatusNotFound) {
			s.log.WithFields(fields).WithError(err).Warn("Failed to read previous zone status")
		}
	}

	if result.Outcome.ViolationDetected && s.opts.SnapshotEnabled && s.snapshots != nil {
		location, err := s.snapshots.UploadSnapshot(ctx, s3.SnapshotKey(result.ZoneID, result.ScanID, extension), image, mimeType)
		if err != nil {
			s.log.WithFields(fields).WithError(err).Error("Failed to store violation snapshot")
		} else {
			result.SnapshotURL = location
		}
	}

	current := entity.StatusFromOutcome(result.Outcome)
	if current == entity.ZoneStatusViolation && previous != entity.ZoneStatusViolation {
		err := s.notifier.Notify(ctx, alert.Violation{
			ScanID:      result.ScanID,
			ZoneID:      result.ZoneID,
			Timestamp:   result.Timestamp,
			Details:     result.Outcome.Details,
			SnapshotURL: result.SnapshotURL,
		})
		if err != nil {
			s.log.WithFields(fields).WithError(err).Error("Violation alert delivery incomplete")
		}
	}

	if s.statusCache != nil {
		err := s.statusCache.SetZoneStatus(ctx, entity.ZoneStatus{
			ZoneID:    result.ZoneID,
			Status:    current,
			ScanID:    result.ScanID,
			Details:   result.Outcome.Details,
			UpdatedAt: result.Timestamp,
		}, s.opts.StatusTTL)
		if err != nil {
			s.log.WithFields(fields).WithError(err).Warn("Failed to cache zone status")
		}
	}

	if s.audit != nil {
		if err := s.audit.RecordScan(ctx, *result); err != nil {
			s.log.WithFields(fields).WithError(err).Error("Failed to write audit log")
		}
	}
}

func (s *scanService) zoneOrDefault(zoneID string) string {
	if zoneID == "" {
		return s.opts.DefaultZoneID
	}
	return zoneID
}

func messageFor(outcome entity.EvaluationOutcome) string {
	switch {
	case outcome.ViolationDetected:
		return scan.MessageViolation
	case !outcome.PersonFound:
		return entity.NoWorkerDetectedMsg
	default:
		return scan.MessageCompliant
	}
}
