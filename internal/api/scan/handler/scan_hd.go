package scanHandler

import (
	"errors"
	"heimdall/internal/api/scan"
	"heimdall/internal/entity"
	contextPkg "heimdall/pkg/context"
	"heimdall/pkg/handlerUtil"
	"heimdall/pkg/log"
	"heimdall/pkg/utils"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *ScanHandler) Scan(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing scan request")

	req, input, err := h.parseScanRequest(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result, err := h.scanService.Scan(c, input)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "scan")
	}

	// A finished scan is answered even when the deadline passed while its side effects ran.
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, toScanResponse(result))
}

func (h *ScanHandler) GetZoneStatus(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	req := scan.ScanRequest{ZoneID: ctx.Params("zoneId")}
	if req.ZoneID == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("zone id is required"), ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	status, err := h.scanService.GetZoneStatus(c, req.ZoneID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_zone_status")
	}

	response := scan.ZoneStatusResponse{
		ZoneID:    status.ZoneID,
		Status:    string(status.Status),
		ScanID:    status.ScanID,
		Details:   status.Details,
		UpdatedAt: status.UpdatedAt.UTC().Format(time.RFC3339),
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

// parseScanRequest accepts a JSON body with a base64 image or a multipart upload whose
// "image" field is either a file or a base64 string.
func (h *ScanHandler) parseScanRequest(ctx *fiber.Ctx) (scan.ScanRequest, scan.ScanInput, error) {
	var req scan.ScanRequest

	if strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		req.ZoneID = ctx.FormValue("zoneId")
		input := scan.ScanInput{ZoneID: req.ZoneID}

		file, err := ctx.FormFile("image")
		if err != nil {
			req.Image = ctx.FormValue("image")
			input.ImageBase64 = req.Image
			return req, input, nil
		}

		image, err := h.utils.ReadImageFile(file)
		switch {
		case errors.Is(err, utils.ErrFileTooLarge):
			return req, input, scan.ErrImageTooLarge
		case errors.Is(err, utils.ErrNotAnImage):
			return req, input, scan.ErrUnsupportedImage
		case err != nil:
			return req, input, err
		}
		input.ImageBytes = image
		return req, input, nil
	}

	if len(ctx.Body()) == 0 {
		return req, scan.ScanInput{}, scan.ErrMissingImage
	}

	if err := ctx.BodyParser(&req); err != nil {
		return req, scan.ScanInput{}, fiber.NewError(fiber.StatusBadRequest, "request body must be JSON")
	}

	return req, scan.ScanInput{ImageBase64: req.Image, ZoneID: req.ZoneID}, nil
}

func toScanResponse(result *entity.ScanResult) scan.ScanResponse {
	return scan.ScanResponse{
		ScanID:         result.ScanID,
		ZoneID:         result.ZoneID,
		Timestamp:      result.Timestamp.UTC().Format(time.RFC3339Nano),
		Violation:      result.Outcome.ViolationDetected,
		PersonFound:    result.Outcome.PersonFound,
		PersonCount:    result.PersonCount,
		Message:        result.Message,
		Details:        result.Outcome.Details,
		SnapshotURL:    result.SnapshotURL,
		RekognitionRaw: result.Raw,
	}
}
