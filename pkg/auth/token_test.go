package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bugabuga/commerce-backend/pkg/config"
	"github.com/bugabuga/commerce-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "commerce-backend",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	payload := AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "jane@example.com",
		Role:   enums.RoleCustomer,
	}

	signed, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if strings.Count(signed, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", signed)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != payload.UserID {
		t.Fatalf("expected user id %s, got %s", payload.UserID, claims.UserID)
	}
	if claims.Email != payload.Email {
		t.Fatalf("expected email %s, got %s", payload.Email, claims.Email)
	}
	if claims.Role != enums.RoleCustomer {
		t.Fatalf("expected role customer, got %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
}

func TestMintAccessTokenValidatesInputs(t *testing.T) {
	now := time.Now()
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer}

	cfg := testJWTConfig()
	cfg.Secret = ""
	if _, err := MintAccessToken(cfg, now, payload); err == nil {
		t.Fatalf("expected error for missing secret")
	}

	cfg = testJWTConfig()
	cfg.ExpirationMinutes = 0
	if _, err := MintAccessToken(cfg, now, payload); err == nil {
		t.Fatalf("expected error for zero expiration")
	}

	cfg = testJWTConfig()
	payload.Role = enums.Role("superuser")
	if _, err := MintAccessToken(cfg, now, payload); err == nil {
		t.Fatalf("expected error for invalid role")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().Add(-2 * time.Hour)
	signed, err := MintAccessToken(cfg, past, AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleAdmin})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	cfg.Issuer = "someone-else"
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatalf("expected issuer mismatch to fail validation")
	}
}
