// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vedprakash-m/vcarpool-dr/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(&config.AuthConfig{
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return manager
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	_, err := NewJWTManager(&config.AuthConfig{JWTSecret: ""})
	if err == nil {
		t.Fatal("Expected error for empty secret")
	}
}

func TestNewJWTManager_DefaultTTL(t *testing.T) {
	manager, err := NewJWTManager(&config.AuthConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	if manager.tokenTTL != 24*time.Hour {
		t.Errorf("Expected default TTL 24h, got %v", manager.tokenTTL)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := newTestManager(t)

	token, err := manager.GenerateToken("asha", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	if claims.Username != "asha" {
		t.Errorf("Username = %q, want asha", claims.Username)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("Expected ExpiresAt claim")
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 59*time.Minute || remaining > time.Hour {
		t.Errorf("Expected expiry about an hour out, got %v", remaining)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager := newTestManager(t)

	other, err := NewJWTManager(&config.AuthConfig{
		JWTSecret: strings.Repeat("x", 32),
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := other.GenerateToken("asha", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Fatal("Expected validation to fail for token signed with another secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	expired := &JWTManager{secret: []byte(testSecret), tokenTTL: -time.Hour}

	token, err := expired.GenerateToken("asha", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	manager := newTestManager(t)
	_, err = manager.ValidateToken(token)
	if err == nil {
		t.Fatal("Expected validation to fail for expired token")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("Expected expiry error, got %v", err)
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	manager := newTestManager(t)

	for _, token := range []string{"", "not-a-token", "a.b.c", "eyJhbGciOiJIUzI1NiJ9"} {
		if _, err := manager.ValidateToken(token); err == nil {
			t.Errorf("Expected validation to fail for %q", token)
		}
	}
}

func TestValidateToken_RejectsUnsignedToken(t *testing.T) {
	manager := newTestManager(t)

	claims := &Claims{
		Username: "asha",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	// alg=none must never validate, whatever the header claims.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Fatal("Expected validation to reject alg=none token")
	}
}
