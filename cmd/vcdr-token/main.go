// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

// Package main implements vcdr-token, the helper that mints ops API
// tokens for the backup service.
//
// The service has no login flow. Operators mint HS256 tokens out of
// band with this tool and pass them as bearer tokens:
//
//	export VCDR_JWT_SECRET=$(openssl rand -base64 32)
//	vcdr-token -username asha -role operator
//	curl -H "Authorization: Bearer $TOKEN" http://localhost:8443/api/v1/backups
//
// The signing secret comes from -secret or VCDR_JWT_SECRET and must
// match the one the server runs with. Token lifetime comes from -ttl,
// VCDR_AUTH_TOKEN_TTL, or defaults to 24h.
//
// Existing tokens can be inspected with -decode:
//
//	vcdr-token -decode "$TOKEN"
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vedprakash-m/vcarpool-dr/internal/auth"
	"github.com/vedprakash-m/vcarpool-dr/internal/config"
)

// minSecretLen mirrors the server-side config validation.
const minSecretLen = 32

func main() {
	var (
		username = flag.String("username", "", "username claim for the token (required unless -decode)")
		role     = flag.String("role", "viewer", "role claim: admin, operator, or viewer")
		ttl      = flag.Duration("ttl", 0, "token lifetime (default VCDR_AUTH_TOKEN_TTL or 24h)")
		secret   = flag.String("secret", "", "signing secret (default VCDR_JWT_SECRET)")
		decode   = flag.String("decode", "", "validate and print the claims of an existing token")
	)
	flag.Parse()

	manager, err := newManager(*secret, *ttl)
	if err != nil {
		fatal(err.Error())
	}

	if *decode != "" {
		printClaims(manager, *decode)
		return
	}

	if *username == "" {
		fatal("-username is required")
	}
	switch *role {
	case "admin", "operator", "viewer":
	default:
		fatal(fmt.Sprintf("unknown role %q: want admin, operator, or viewer", *role))
	}

	token, err := manager.GenerateToken(*username, *role)
	if err != nil {
		fatal("failed to generate token: " + err.Error())
	}

	fmt.Println(token)
}

// newManager resolves the secret and TTL from flags and environment and
// builds the same JWT manager the server uses.
func newManager(secret string, ttl time.Duration) (*auth.JWTManager, error) {
	if secret == "" {
		secret = os.Getenv("VCDR_JWT_SECRET")
	}
	if secret == "" {
		return nil, fmt.Errorf("no signing secret: pass -secret or set VCDR_JWT_SECRET")
	}
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("signing secret must be at least %d characters", minSecretLen)
	}

	if ttl == 0 {
		if env := os.Getenv("VCDR_AUTH_TOKEN_TTL"); env != "" {
			parsed, err := time.ParseDuration(env)
			if err != nil {
				return nil, fmt.Errorf("invalid VCDR_AUTH_TOKEN_TTL %q: %w", env, err)
			}
			ttl = parsed
		}
	}

	return auth.NewJWTManager(&config.AuthConfig{
		JWTSecret: secret,
		TokenTTL:  ttl,
	})
}

// printClaims validates a token and reports its claims on stdout.
func printClaims(manager *auth.JWTManager, token string) {
	claims, err := manager.ValidateToken(token)
	if err != nil {
		fatal("token invalid: " + err.Error())
	}

	fmt.Printf("username: %s\n", claims.Username)
	fmt.Printf("role:     %s\n", claims.Role)
	if claims.IssuedAt != nil {
		fmt.Printf("issued:   %s\n", claims.IssuedAt.Format(time.RFC3339))
	}
	if claims.ExpiresAt != nil {
		fmt.Printf("expires:  %s (in %s)\n",
			claims.ExpiresAt.Format(time.RFC3339),
			time.Until(claims.ExpiresAt.Time).Round(time.Second))
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "vcdr-token: "+msg)
	os.Exit(1)
}
