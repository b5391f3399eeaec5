package auditHandler

import (
	auditService "heimdall/internal/api/audit/service"
	"heimdall/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuditHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	auditService auditService.IAuditService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	auditService auditService.IAuditService,
) *AuditHandler {
	return &AuditHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		auditService: auditService,
	}
}

func (h *AuditHandler) Start(srv fiber.Router) {
	srv.Get("/logs", h.middleware.NewTokenMiddleware, h.ListLogs)
	srv.Get("/logs/:id", h.middleware.NewTokenMiddleware, h.GetLog)
}
