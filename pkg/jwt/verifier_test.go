package jwtPkg

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_Heimdall"
	testClientID = "admin-panel"
	testKID      = "pool-key-1"
)

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func jwksFor(t *testing.T, kid string, key *rsa.PublicKey) keyfunc.Keyfunc {
	t.Helper()
	set := map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)

	k, err := keyfunc.NewJWKSetJSON(raw)
	require.NoError(t, err)
	return k
}

func idTokenClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":              "5f1c-officer",
		"email":            "safety.officer@site.io",
		"cognito:username": "officer.k",
		"token_use":        "id",
		"iss":              testIssuer,
		"aud":              testClientID,
		"exp":              time.Now().Add(time.Hour).Unix(),
	}
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWKSVerifierAcceptsIdToken(t *testing.T) {
	key := newRSAKey(t)
	verifier := NewJWKSVerifier(jwksFor(t, testKID, &key.PublicKey), testIssuer, testClientID)

	token, err := verifier.Verify(signRS256(t, key, testKID, idTokenClaims()))
	require.NoError(t, err)

	user, err := UserFromClaims(token.Claims.(jwt.MapClaims))
	require.NoError(t, err)
	assert.Equal(t, "5f1c-officer", user.ID)
	assert.Equal(t, "officer.k", user.Username)
	assert.Equal(t, "jwks", verifier.Mode())
}

func TestJWKSVerifierRejects(t *testing.T) {
	key := newRSAKey(t)
	other := newRSAKey(t)
	verifier := NewJWKSVerifier(jwksFor(t, testKID, &key.PublicKey), testIssuer, testClientID)

	with := func(k string, v interface{}) jwt.MapClaims {
		c := idTokenClaims()
		c[k] = v
		return c
	}

	t.Setenv(testSecretKey, "shared")
	hmacToken, _, err := Sign(idTokenClaims(), time.Hour, testSecretKey)
	require.NoError(t, err)

	tests := map[string]string{
		"wrong issuer":     signRS256(t, key, testKID, with("iss", "https://evil.example.com")),
		"wrong audience":   signRS256(t, key, testKID, with("aud", "other-client")),
		"access token":     signRS256(t, key, testKID, with("token_use", "access")),
		"expired":          signRS256(t, key, testKID, with("exp", time.Now().Add(-time.Minute).Unix())),
		"unknown key":      signRS256(t, other, "pool-key-2", idTokenClaims()),
		"forged signature": signRS256(t, other, testKID, idTokenClaims()),
		"hmac token":       hmacToken,
	}

	for name, token := range tests {
		_, err := verifier.Verify(token)
		assert.Error(t, err, name)
	}
}

func TestHMACVerifierRejectsRS256(t *testing.T) {
	t.Setenv(testSecretKey, "shared")
	verifier := NewHMACVerifier(testSecretKey)
	assert.Equal(t, "hmac", verifier.Mode())

	_, err := verifier.Verify(signRS256(t, newRSAKey(t), testKID, idTokenClaims()))
	assert.ErrorContains(t, err, "unexpected signing method")

	token, _, err := Sign(map[string]interface{}{"sub": "u1", "email": "ops@site.io"}, time.Minute, testSecretKey)
	require.NoError(t, err)
	_, err = verifier.Verify(token)
	assert.NoError(t, err)
}

func TestHMACVerifierRequiresSecret(t *testing.T) {
	t.Setenv(testSecretKey, "")
	_, err := NewHMACVerifier(testSecretKey).Verify("a.b.c")
	assert.ErrorIs(t, err, ErrSecretNotSet)
}

func TestNilVerifier(t *testing.T) {
	var verifier *Verifier
	_, err := verifier.Verify("a.b.c")
	assert.ErrorIs(t, err, ErrVerifierNotConfigured)
	verifier.Close()
}

func TestNewVerifierFromEnvFallsBackToHMAC(t *testing.T) {
	t.Setenv("JWT_JWKS_URL", "")
	t.Setenv("COGNITO_USER_POOL_ID", "")

	verifier, err := NewVerifierFromEnv(context.Background(), testSecretKey)
	require.NoError(t, err)
	assert.Equal(t, "hmac", verifier.Mode())
	verifier.Close()
}
