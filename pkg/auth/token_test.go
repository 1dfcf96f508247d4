package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/supplierhq/suppliers-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "supplierhq"}
}

func mintToken(t *testing.T, secret, issuer, role string, method jwt.SigningMethod) string {
	t.Helper()
	claims := Claims{
		Subject: "admin-1",
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestParseAndValidateAcceptsGoodToken(t *testing.T) {
	cfg := testJWTConfig()
	raw := mintToken(t, cfg.Secret, cfg.Issuer, "admin", jwt.SigningMethodHS256)

	claims, err := ParseAndValidate(cfg, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "admin-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Role != "admin" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
}

func TestParseAndValidateRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	raw := mintToken(t, cfg.Secret, "someone-else", "admin", jwt.SigningMethodHS256)

	if _, err := ParseAndValidate(cfg, raw); err == nil {
		t.Fatal("expected issuer mismatch to be rejected")
	}
}

func TestParseAndValidateRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	raw := mintToken(t, "other-secret", cfg.Issuer, "admin", jwt.SigningMethodHS256)

	if _, err := ParseAndValidate(cfg, raw); err == nil {
		t.Fatal("expected bad signature to be rejected")
	}
}

func TestParseAndValidateRejectsWrongAlgorithm(t *testing.T) {
	cfg := testJWTConfig()
	raw := mintToken(t, cfg.Secret, cfg.Issuer, "admin", jwt.SigningMethodHS512)

	if _, err := ParseAndValidate(cfg, raw); err == nil {
		t.Fatal("expected unexpected signing method to be rejected")
	}
}

func TestParseAndValidateRejectsBlankToken(t *testing.T) {
	if _, err := ParseAndValidate(testJWTConfig(), "   "); err == nil {
		t.Fatal("expected blank token to be rejected")
	}
}

func TestParseAndValidateRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	claims := Claims{
		Subject: "admin-1",
		Role:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	if _, err := ParseAndValidate(cfg, raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
