package middleware

import (
	jwtPkg "heimdall/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"

	unauthorizedMessage = "Unauthorized, access token invalid or expired"
)

type tokenMiddleware struct {
	verifier *jwtPkg.Verifier
}

func newTokenMiddleware(verifier *jwtPkg.Verifier) *tokenMiddleware {
	if verifier == nil {
		verifier = jwtPkg.NewHMACVerifier(AccessTokenSecret)
	}
	return &tokenMiddleware{verifier: verifier}
}

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	fields := logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"path":       ctx.Path(),
		"method":     ctx.Method(),
		"client_ip":  ctx.IP(),
	}

	userToken, err := jwtPkg.VerifyTokenHeader(ctx, m.token.verifier)
	if err != nil {
		m.log.WithFields(fields).WithError(err).Warn("Token verification failed")
		return unauthorized(ctx)
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		m.log.WithFields(fields).Warn("Invalid token claims")
		return unauthorized(ctx)
	}

	user, err := jwtPkg.UserFromClaims(claims)
	if err != nil {
		m.log.WithFields(fields).WithError(err).Warn("Token claims check")
		return unauthorized(ctx)
	}
	jwtPkg.SetUserLoginData(ctx, user)

	fields["user_id"] = user.ID
	m.log.WithFields(fields).Debug("Authentication successful")
	return ctx.Next()
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": unauthorizedMessage,
	})
}
