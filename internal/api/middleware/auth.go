package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"credit-engine/internal/config"
	"credit-engine/internal/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const usernameKey contextKey = "username"

// ErrorResponder writes err to the client; rejected requests carry apperrors.ErrUnauthorized.
type ErrorResponder func(w http.ResponseWriter, err error)

func AuthMiddleware(cfg config.AuthConfig, reject ErrorResponder, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := validateJWT(r, cfg.JWTSecret, logger)
			if err != nil {
				reject(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, username)))
		})
	}
}

// UsernameFromContext returns the authenticated caller, or "" when auth is disabled.
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

func validateJWT(r *http.Request, secret string, logger *slog.Logger) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Warn("AuthMiddleware: Missing Authorization header")
		return "", fmt.Errorf("%w: missing authorization header", apperrors.ErrUnauthorized)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		logger.Warn("AuthMiddleware: Invalid Authorization header format")
		return "", fmt.Errorf("%w: malformed authorization header", apperrors.ErrUnauthorized)
	}
	tokenString := parts[1]

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Warn("AuthMiddleware: Unexpected signing method", "alg", token.Header["alg"])
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		logger.Warn("AuthMiddleware: Invalid token", "error", err)
		return "", fmt.Errorf("%w: invalid token: %v", apperrors.ErrUnauthorized, err)
	}

	username, _ := claims["username"].(string)
	logger.Debug("AuthMiddleware: Authenticated request", "username", username)
	return username, nil
}
