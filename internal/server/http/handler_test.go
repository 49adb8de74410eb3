package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeyev/tokensmith/internal/common"
	"github.com/avdeyev/tokensmith/internal/logging"
	"github.com/avdeyev/tokensmith/internal/server/models"
	"github.com/avdeyev/tokensmith/internal/server/services"
)

// ---- test logger ----

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeCore struct {
	regResp *models.User
	regErr  error

	loginResp *services.TokenPair
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	validateResp services.ValidationResult

	resetToken    string
	resetReqErr   error
	resetComplete error
}

func (f *fakeCore) Register(ctx context.Context, email, password string) (*models.User, error) {
	return f.regResp, f.regErr
}
func (f *fakeCore) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeCore) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, common.ErrMissingToken
	}
	return f.refreshResp, f.refreshErr
}
func (f *fakeCore) ValidateToken(ctx context.Context, token string) services.ValidationResult {
	return f.validateResp
}
func (f *fakeCore) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return f.resetToken, f.resetReqErr
}
func (f *fakeCore) ResetPassword(ctx context.Context, token, newPassword string) error {
	return f.resetComplete
}

// ---- helpers ----

func doRequest(t *testing.T, core AuthCore, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	s := NewServer(":0", nopLogger{}, core)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// ---- tests ----

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		core       *fakeCore
		body       string
		wantStatus int
	}{
		{
			name:       "created",
			core:       &fakeCore{regResp: &models.User{ID: "u1", Email: "a@b.com", CreatedAt: time.Now()}},
			body:       `{"email":"a@b.com","password":"pw1"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate email",
			core:       &fakeCore{regErr: common.ErrEmailExists},
			body:       `{"email":"a@b.com","password":"pw1"}`,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "missing fields",
			core:       &fakeCore{},
			body:       `{"email":"a@b.com"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.core, http.MethodPost, "/v1/auth/register", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	core := &fakeCore{loginResp: &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"}}

	rec := doRequest(t, core, http.MethodPost, "/v1/auth/login", `{"email":"a@b.com","password":"pw1"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "acc", body["access_token"])
	assert.Equal(t, "ref", body["refresh_token"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	core := &fakeCore{loginErr: common.ErrInvalidCredentials}

	rec := doRequest(t, core, http.MethodPost, "/v1/auth/login", `{"email":"a@b.com","password":"bad"}`, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["error"])
}

func TestLogin_InternalErrorDoesNotLeak(t *testing.T) {
	core := &fakeCore{loginErr: errors.New("pq: connection refused to 10.1.2.3")}

	rec := doRequest(t, core, http.MethodPost, "/v1/auth/login", `{"email":"a@b.com","password":"pw1"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "10.1.2.3")
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name       string
		core       *fakeCore
		body       string
		wantStatus int
	}{
		{
			name:       "rotated",
			core:       &fakeCore{refreshResp: &services.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}},
			body:       `{"refresh_token":"ref1"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			core:       &fakeCore{},
			body:       `{"refresh_token":""}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "stale token",
			core:       &fakeCore{refreshErr: common.ErrInvalidToken},
			body:       `{"refresh_token":"stale"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.core, http.MethodPost, "/v1/auth/refresh", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestValidate_AlwaysOK(t *testing.T) {
	valid := &fakeCore{validateResp: services.ValidationResult{Valid: true, UserID: "u1", Email: "a@b.com"}}
	rec := doRequest(t, valid, http.MethodPost, "/v1/auth/validate", `{"token":"tok"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "u1", body["user_id"])

	invalid := &fakeCore{validateResp: services.ValidationResult{Valid: false}}
	rec = doRequest(t, invalid, http.MethodPost, "/v1/auth/validate", `{"token":"expired-or-garbage"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, "invalidity is a result, not an error")
	body = decode(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.NotContains(t, body, "user_id")
}

func TestRequestPasswordReset(t *testing.T) {
	core := &fakeCore{resetToken: "plaintext-reset-token"}
	rec := doRequest(t, core, http.MethodPost, "/v1/auth/password-reset/request", `{"email":"a@b.com"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plaintext-reset-token", decode(t, rec)["reset_token"])

	missing := &fakeCore{resetReqErr: common.ErrUserNotFound}
	rec = doRequest(t, missing, http.MethodPost, "/v1/auth/password-reset/request", `{"email":"x@b.com"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetPassword(t *testing.T) {
	tests := []struct {
		name       string
		core       *fakeCore
		body       string
		wantStatus int
	}{
		{
			name:       "ok",
			core:       &fakeCore{},
			body:       `{"token":"tok","new_password":"pw2"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "expired",
			core:       &fakeCore{resetComplete: common.ErrResetTokenExpired},
			body:       `{"token":"tok","new_password":"pw2"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid",
			core:       &fakeCore{resetComplete: common.ErrResetTokenInvalid},
			body:       `{"token":"bad","new_password":"pw2"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing fields",
			core:       &fakeCore{},
			body:       `{"token":"tok"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.core, http.MethodPost, "/v1/auth/password-reset/complete", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, decode(t, rec)["ok"])
			}
		})
	}
}

func TestBearerAuth(t *testing.T) {
	core := &fakeCore{validateResp: services.ValidationResult{Valid: true, UserID: "u1", Email: "a@b.com"}}

	rec := doRequest(t, core, http.MethodGet, "/v1/me", "", map[string]string{
		"Authorization": "Bearer some-valid-token",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "a@b.com", body["email"])
}

func TestBearerAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		core   *fakeCore
		header map[string]string
	}{
		{name: "no header", core: &fakeCore{}},
		{name: "not bearer", core: &fakeCore{}, header: map[string]string{"Authorization": "Basic abc"}},
		{
			name:   "invalid token",
			core:   &fakeCore{validateResp: services.ValidationResult{Valid: false}},
			header: map[string]string{"Authorization": "Bearer nope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.core, http.MethodGet, "/v1/me", "", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, &fakeCore{}, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
