package auditHandler

import (
	"errors"
	"heimdall/internal/api/audit"
	"heimdall/internal/entity"
	contextPkg "heimdall/pkg/context"
	"heimdall/pkg/handlerUtil"
	jwtPkg "heimdall/pkg/jwt"
	"heimdall/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *AuditHandler) ListLogs(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"user_id":    user.ID,
	}).Debug("Processing list audit logs request")

	var req audit.ListLogsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	logs, err := h.auditService.ListLogs(c, req.Search, req.Limit)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_audit_logs")
	}

	response := make([]audit.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		response = append(response, toAuditLogResponse(l))
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, response)
	}
}

func (h *AuditHandler) GetLog(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id := ctx.Params("id")
	if id == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("log ID is required"), ctx.Path())
	}

	entry, err := h.auditService.GetLog(c, id)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_audit_log")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, toAuditLogResponse(entry))
	}
}

func toAuditLogResponse(l entity.AuditLog) audit.AuditLogResponse {
	return audit.AuditLogResponse{
		ID:          l.ID,
		ZoneID:      l.ZoneID,
		Timestamp:   l.Timestamp.UTC().Format(time.RFC3339),
		Violation:   l.Violation,
		Message:     l.Message,
		PersonCount: l.PersonCount,
		Details:     l.Details,
		SnapshotURL: l.SnapshotURL,
	}
}
