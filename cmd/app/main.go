package main

import (
	"context"
	scanService "heimdall/internal/api/scan/service"
	"heimdall/internal/config"
	"heimdall/internal/middleware"
	jwtPkg "heimdall/pkg/jwt"
	"heimdall/pkg/log"
	"heimdall/pkg/redis"
	"heimdall/pkg/s3"
	"heimdall/pkg/sns"
	"heimdall/pkg/smtp"
	"heimdall/pkg/vision"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", err)
	}

	visionClient, err := vision.New(logger)
	if err != nil {
		logger.Fatalf("Failed to create vision client: %v", err)
	}
	logger.Infof("Vision provider: %s", visionClient.Provider())

	awsSession, err := vision.NewAWSSession()
	if err != nil {
		logger.Fatalf("Failed to create AWS session: %v", err)
	}

	tokenVerifier, err := jwtPkg.NewVerifierFromEnv(context.Background(), middleware.AccessTokenSecret)
	if err != nil {
		logger.Fatalf("Failed to create token verifier: %v", err)
	}
	logger.Infof("Admin token verification: %s", tokenVerifier.Mode())

	snapshotEnabled, _ := strconv.ParseBool(os.Getenv("SNAPSHOT_ENABLED"))
	var snapshots s3.ItfS3
	if snapshotEnabled || os.Getenv("AWS_BUCKET_NAME") != "" {
		snapshots, err = s3.New(awsSession)
		if err != nil {
			logger.Fatalf("Failed to create S3 client: %v", err)
		}
	}

	options := []config.ServerOption{
		config.WithFiber(config.NewFiber(logger)),
		config.WithLogger(logger),
		config.WithValidator(config.NewValidator()),
		config.WithDatabase(),
		config.WithVisionClient(visionClient),
		config.WithS3Client(snapshots),
		config.WithNotifiers(sns.New(awsSession), smtp.New()),
		config.WithScanOptions(scanService.Options{
			DefaultZoneID:   os.Getenv("DEFAULT_ZONE_ID"),
			SnapshotEnabled: snapshotEnabled,
		}),
		config.WithTokenVerifier(tokenVerifier),
		config.WithMiddleware(),
		config.WithUtils(),
	}
	if os.Getenv("REDIS_ADDRESS") != "" {
		options = append(options, config.WithRedisServer(redis.New(logger)))
	} else {
		logger.Warn("REDIS_ADDRESS not set, zone status cache disabled")
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(15 * time.Second); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
