package jwtPkg

import (
	"errors"
	"heimdall/internal/entity"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyAuthorization = errors.New("empty Authorization header")
	ErrEmptyToken         = errors.New("empty token")
	ErrSecretNotSet       = errors.New("JWT secret not configured")
	ErrMissingClaims      = errors.New("token claims are missing required fields")
)

const userLocalsKey = "user"

// Sign issues an HS256 token. The identity provider issues tokens in production; this is
// used by tests and local tooling that need a token the middleware accepts.
func Sign(data map[string]interface{}, expiresIn time.Duration, secretEnvKey string) (string, int64, error) {
	expiredAt := time.Now().Add(expiresIn).Unix()

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		return "", 0, ErrSecretNotSet
	}

	claims := jwt.MapClaims{}
	for k, v := range data {
		claims[k] = v
	}
	claims["exp"] = expiredAt

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", 0, err
	}

	return token, expiredAt, nil
}

// ExtractToken accepts "Bearer <token>" as well as a bare token, which is what the admin
// dashboard sends.
func ExtractToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrEmptyAuthorization
	}
	if strings.EqualFold(header, "Bearer") {
		return "", ErrEmptyToken
	}

	token := header
	if len(header) >= 7 && strings.EqualFold(header[:7], "Bearer ") {
		token = strings.TrimSpace(header[7:])
	}

	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// VerifyTokenHeader reads the Authorization header and checks the token with verifier.
func VerifyTokenHeader(c *fiber.Ctx, verifier *Verifier) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyTokenHeader")

	accessToken, err := ExtractToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		log.WithError(err).Debug("Authorization header rejected")
		return nil, err
	}

	token, err := verifier.Verify(accessToken)
	if err != nil {
		log.WithError(err).Warn("Failed to parse JWT token")
		return nil, err
	}

	return token, nil
}

// UserFromClaims maps identity provider claims onto the login data. sub and email are
// required; the username falls back through cognito:username to the email local part.
func UserFromClaims(claims jwt.MapClaims) (entity.UserLoginData, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	username, _ := claims["username"].(string)
	if username == "" {
		username, _ = claims["cognito:username"].(string)
	}
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	return entity.UserLoginData{
		ID:       sub,
		Email:    email,
		Username: username,
	}, nil
}

func SetUserLoginData(c *fiber.Ctx, user entity.UserLoginData) {
	c.Locals(userLocalsKey, user)
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	user, ok := c.Locals(userLocalsKey).(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
