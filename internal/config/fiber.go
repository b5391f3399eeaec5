package config

import (
	"heimdall/internal/api/scan"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// NewFiber leaves headroom over the 5 MiB image limit for base64 and JSON overhead.
func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:           "Heimdall API Gateway",
			BodyLimit:         10 * 1024 * 1024,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: logger.IsLevelEnabled(logrus.DebugLevel),
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
		})

	return app
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	if err := scan.RegisterValidations(validate); err != nil {
		panic(err)
	}
	return validate
}
