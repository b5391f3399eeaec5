package jwtPkg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrVerifierNotConfigured = errors.New("token verifier not configured")
	ErrWrongTokenUse         = errors.New("token is not an id token")
)

// Verifier checks admin bearer tokens. With a JWKS it accepts RS256 id tokens from the
// identity provider only; without one it falls back to HS256 with a shared secret read from
// the environment, for local runs and tests.
type Verifier struct {
	jwks         keyfunc.Keyfunc
	issuer       string
	audience     string
	secretEnvKey string
	cancel       context.CancelFunc
}

// NewJWKSVerifier verifies RS256 tokens against jwks. issuer and audience are checked when
// not empty.
func NewJWKSVerifier(jwks keyfunc.Keyfunc, issuer, audience string) *Verifier {
	return &Verifier{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
	}
}

// NewHMACVerifier verifies HS256 tokens signed with the secret in secretEnvKey.
func NewHMACVerifier(secretEnvKey string) *Verifier {
	return &Verifier{secretEnvKey: secretEnvKey}
}

// NewVerifierFromEnv uses JWT_JWKS_URL, or the Cognito pool from COGNITO_REGION and
// COGNITO_USER_POOL_ID, and falls back to HS256 with secretEnvKey when neither is set.
// COGNITO_CLIENT_ID, when set, is required as the token audience.
func NewVerifierFromEnv(ctx context.Context, secretEnvKey string) (*Verifier, error) {
	issuer := os.Getenv("JWT_ISSUER")
	jwksURL := os.Getenv("JWT_JWKS_URL")

	region := os.Getenv("COGNITO_REGION")
	poolID := os.Getenv("COGNITO_USER_POOL_ID")
	if poolID != "" {
		if region == "" {
			region = strings.SplitN(poolID, "_", 2)[0]
		}
		if issuer == "" {
			issuer = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, poolID)
		}
		if jwksURL == "" {
			jwksURL = issuer + "/.well-known/jwks.json"
		}
	}

	if jwksURL == "" {
		return NewHMACVerifier(secretEnvKey), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}

	v := NewJWKSVerifier(jwks, issuer, os.Getenv("COGNITO_CLIENT_ID"))
	v.cancel = cancel
	return v, nil
}

func (v *Verifier) Mode() string {
	if v.jwks != nil {
		return "jwks"
	}
	return "hmac"
}

func (v *Verifier) Verify(accessToken string) (*jwt.Token, error) {
	if v == nil {
		return nil, ErrVerifierNotConfigured
	}
	if v.jwks != nil {
		return v.verifyJWKS(accessToken)
	}
	return v.verifyHMAC(accessToken)
}

func (v *Verifier) verifyJWKS(accessToken string) (*jwt.Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(accessToken, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, err
	}

	// Cognito access tokens carry no email; only id tokens identify the officer.
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if use, ok := claims["token_use"].(string); ok && use != "id" {
			return nil, ErrWrongTokenUse
		}
	}
	return token, nil
}

func (v *Verifier) verifyHMAC(accessToken string) (*jwt.Token, error) {
	secret := os.Getenv(v.secretEnvKey)
	if secret == "" {
		return nil, ErrSecretNotSet
	}

	return jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
}

// Close stops the background JWKS refresh.
func (v *Verifier) Close() {
	if v != nil && v.cancel != nil {
		v.cancel()
	}
}
