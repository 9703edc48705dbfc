// Cartographus Ingest - Local-Intelligence Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus-ingest

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/cartographus-ingest/internal/config"
)

// Claims identifies the operator acting on POST /review-queue.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates operator tokens, scoped to this
// project's single authenticated action, grounded on the teacher's
// internal/auth.JWTManager (HS256, same validation steps).
type JWTManager struct {
	secret []byte
}

// NewJWTManager constructs a JWTManager from the configured secret.
func NewJWTManager(cfg config.SecurityConfig) (*JWTManager, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("security.jwt_secret must be at least 32 characters")
	}
	return &JWTManager{secret: []byte(cfg.JWTSecret)}, nil
}

// GenerateToken issues a 24h operator token.
func (m *JWTManager) GenerateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, rejecting anything
// not signed with HMAC to block algorithm-confusion attacks.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

type contextKey string

const operatorContextKey contextKey = "api-operator"

// RequireOperator is chi middleware that validates the Authorization
// header's bearer token and stores the resulting Claims in the request
// context for handlers that need the acting operator's identity.
func (m *JWTManager) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w, r)
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			rw.Unauthorized("missing bearer token")
			return
		}
		claims, err := m.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			rw.Unauthorized("invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), operatorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorFromContext returns the acting operator's claims, if any.
func OperatorFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(operatorContextKey).(*Claims)
	return claims, ok
}
