package scanHandler

import (
	scanService "heimdall/internal/api/scan/service"
	"heimdall/internal/middleware"
	"heimdall/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const scanTimeout = 10 * time.Second

type ScanHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	scanService scanService.IScanService
	utils       utils.IUtils
	timeout     time.Duration
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	scanService scanService.IScanService,
	utils utils.IUtils,
) *ScanHandler {
	return &ScanHandler{
		log:         log,
		validator:   validate,
		middleware:  middleware,
		scanService: scanService,
		utils:       utils,
		timeout:     scanTimeout,
	}
}

func (h *ScanHandler) Start(srv fiber.Router) {
	srv.Post("/scan", h.middleware.NewRateLimiter, h.Scan)
	srv.Use("/scan/ws", h.upgradeWebSocket)
	srv.Get("/scan/ws", websocket.New(h.handleScanWebSocket))

	srv.Get("/status/:zoneId", h.GetZoneStatus)
}

func (h *ScanHandler) upgradeWebSocket(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		ctx.Locals("allowed", true)
		ctx.Locals(wsZoneLocalsKey, ctx.Query("zoneId"))
		ctx.Locals(wsClientIPLocalsKey, ctx.IP())
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}
