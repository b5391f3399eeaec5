package config

import (
	"fmt"
	"heimdall/database/postgres"
	auditHandler "heimdall/internal/api/audit/handler"
	auditRepository "heimdall/internal/api/audit/repository"
	auditService "heimdall/internal/api/audit/service"
	scanHandler "heimdall/internal/api/scan/handler"
	scanService "heimdall/internal/api/scan/service"
	"heimdall/internal/middleware"
	"heimdall/pkg/alert"
	jwtPkg "heimdall/pkg/jwt"
	"heimdall/pkg/redis"
	"heimdall/pkg/s3"
	"heimdall/pkg/utils"
	"heimdall/pkg/vision"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ServerOption func(*Server) error

type Server struct {
	engine        *fiber.App
	db            *sqlx.DB
	log           *logrus.Logger
	middleware    middleware.Middleware
	validator     *validator.Validate
	utils         utils.IUtils
	handlers      []handler
	visionClient  vision.IVision
	redisServer   redis.IRedis
	s3Client      s3.ItfS3
	notifiers     []alert.Notifier
	scanOptions   scanService.Options
	auditStore    auditService.IAuditService
	tokenVerifier *jwtPkg.Verifier
	healthMessage string
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		healthMessage: "Heimdall API Gateway is Online",
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.visionClient == nil {
		return nil, fmt.Errorf("vision client is required")
	}
	if server.middleware == nil {
		server.middleware = middleware.NewWithVerifier(server.log, server.tokenVerifier)
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects the audit store. Without DATABASE_URL or DB_HOST the server runs
// without an audit log and the log routes are not mounted.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		if os.Getenv("DATABASE_URL") == "" && os.Getenv("DB_HOST") == "" {
			if s.log != nil {
				s.log.Warn("No database configured, audit log disabled")
			}
			return nil
		}

		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		if os.Getenv("DB_MIGRATE") != "false" {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
		}

		s.db = db
		return nil
	}
}

// WithDB injects an already opened database.
func WithDB(db *sqlx.DB) ServerOption {
	return func(s *Server) error {
		s.db = db
		return nil
	}
}

func WithVisionClient(client vision.IVision) ServerOption {
	return func(s *Server) error {
		s.visionClient = client
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithS3Client(client s3.ItfS3) ServerOption {
	return func(s *Server) error {
		s.s3Client = client
		return nil
	}
}

// WithNotifiers registers alert channels. nil entries are dropped.
func WithNotifiers(notifiers ...alert.Notifier) ServerOption {
	return func(s *Server) error {
		for _, n := range notifiers {
			if n != nil {
				s.notifiers = append(s.notifiers, n)
			}
		}
		return nil
	}
}

func WithScanOptions(opts scanService.Options) ServerOption {
	return func(s *Server) error {
		s.scanOptions = opts
		return nil
	}
}

// WithTokenVerifier sets how admin tokens are checked. It must come before WithMiddleware.
func WithTokenVerifier(verifier *jwtPkg.Verifier) ServerOption {
	return func(s *Server) error {
		s.tokenVerifier = verifier
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.NewWithVerifier(s.log, s.tokenVerifier)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Audit Domain
	var recorder scanService.AuditRecorder
	if s.db != nil {
		auditRepo := auditRepository.New(s.db, s.log)
		s.auditStore = auditService.NewAuditService(s.log, auditRepo, s.s3Client)
		recorder = s.auditStore
		s.handlers = append(s.handlers, auditHandler.New(s.log, s.validator, s.middleware, s.auditStore))
	}

	// Scan Domain
	notifier := alert.NewFanout(s.log, s.notifiers...)
	scanServices := scanService.NewScanService(s.log, s.visionClient, s.redisServer, notifier, s.s3Client, recorder, s.utils, s.scanOptions)
	scanHandlers := scanHandler.New(s.log, s.validator, s.middleware, scanServices, s.utils)

	s.handlers = append(s.handlers, scanHandlers)
}

// Mount installs middleware, the health route and every domain router. Run calls it; tests
// use it to exercise the assembled app without listening.
func (s *Server) Mount() {
	s.engine.Use(s.middleware.NewCORSMiddleware())
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	s.setupHealthCheck()

	router := s.engine.Group("/api")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Run() error {
	s.Mount()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, waits for in-flight scans and then releases clients.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if s.visionClient != nil {
		if cerr := s.visionClient.Close(); cerr != nil {
			s.log.Errorf("Failed to close vision client: %v", cerr)
		}
	}
	if s.redisServer != nil {
		if cerr := s.redisServer.Close(); cerr != nil {
			s.log.Errorf("Failed to close redis client: %v", cerr)
		}
	}
	s.tokenVerifier.Close()
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.log.Errorf("Failed to close database: %v", cerr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": s.healthMessage,
		})
	})
}
