package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewCORSMiddleware opens the API to the dashboard. CORS_ALLOW_ORIGINS narrows the
// default wildcard.
func (m *middleware) NewCORSMiddleware() fiber.Handler {
	origins := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS"))
	if origins == "" {
		origins = "*"
	}

	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}, ","),
		AllowHeaders:  strings.Join([]string{fiber.HeaderContentType, fiber.HeaderAuthorization, RequestIDKey}, ","),
		ExposeHeaders: RequestIDKey,
	})
}
