package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/config"
	"credit-engine/internal/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	cfg    config.AuthConfig
	logger *slog.Logger
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		logger: l.With("component", "AuthHandler"),
	}
}

// GenerateBearerToken issues a signed JWT for the given username.
//
// @Summary Generate a JWT bearer token
// @Description Issues an HS256 bearer token valid for 24 hours.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "username"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode token request body", "error", err)
		RespondError(w, invalidBody(err))
		return
	}

	if strings.TrimSpace(req.Username) == "" {
		h.logger.WarnContext(r.Context(), "Token requested without username")
		RespondError(w, apperrors.NewValidationError("username", "is required"))
		return
	}

	claims := jwt.MapClaims{
		"username": req.Username,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", "error", err)
		RespondError(w, fmt.Errorf("%w: could not sign token", apperrors.ErrInternalServer))
		return
	}

	h.logger.InfoContext(r.Context(), "Bearer token issued", "username", req.Username)
	respondJSON(w, http.StatusOK, dto.TokenResponse{Token: fmt.Sprintf("Bearer %s", tokenString)})
}
