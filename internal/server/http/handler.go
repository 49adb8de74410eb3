// Package http exposes the auth core's operations over HTTP, translating
// domain errors to wire-level status codes.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avdeyev/tokensmith/internal/common"
	"github.com/avdeyev/tokensmith/internal/logging"
	"github.com/avdeyev/tokensmith/internal/server/models"
	"github.com/avdeyev/tokensmith/internal/server/services"
)

// AuthCore is the slice of the service layer the transport depends on.
type AuthCore interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ValidateToken(ctx context.Context, token string) services.ValidationResult
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	core   AuthCore
	logger logging.Logger
}

func NewAuthHandler(core AuthCore, l logging.Logger) *AuthHandler {
	return &AuthHandler{core: core, logger: l.With("module", "http_handler")}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type validateReq struct {
	Token string `json:"token"`
}

type resetRequestReq struct {
	Email string `json:"email"`
}

type resetCompleteReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type userResp struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenPairResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type validateResp struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Register creates a user. The user still logs in separately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	u, err := h.core.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.translate(c, err)
	}

	return c.JSON(http.StatusCreated, userResp{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt})
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	pair, err := h.core.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.translate(c, err)
	}

	return c.JSON(http.StatusOK, tokenPairResp{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Refresh exchanges a live refresh token for a new pair, invalidating the old
// one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	pair, err := h.core.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return h.translate(c, err)
	}

	return c.JSON(http.StatusOK, tokenPairResp{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Validate reports whether a token is currently good. Always 200; invalidity
// is a result, not an error.
func (h *AuthHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res := h.core.ValidateToken(c.Request().Context(), req.Token)
	return c.JSON(http.StatusOK, validateResp{Valid: res.Valid, UserID: res.UserID, Email: res.Email})
}

// RequestPasswordReset issues a reset token for out-of-band delivery.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	token, err := h.core.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return h.translate(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"reset_token": token})
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetCompleteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/new_password required"})
	}

	if err := h.core.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return h.translate(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me is a small protected endpoint exercising the verified-claims path.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get(ctxUserID),
		"email":   c.Get(ctxEmail),
	})
}

// Health can be probed by load balancers.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// translate maps domain errors to wire-level codes. Anything unclassified is
// reported as a generic internal error without leaking internals.
func (h *AuthHandler) translate(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, common.ErrMissingToken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	case errors.Is(err, common.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	case errors.Is(err, common.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, common.ErrResetTokenExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "reset token expired"})
	case errors.Is(err, common.ErrResetTokenInvalid):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "reset token invalid"})
	case errors.Is(err, common.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	default:
		h.logger.Error(c.Request().Context(), "unclassified error", "err", err.Error())
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
