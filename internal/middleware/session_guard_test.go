package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhirsi/HawalaSend-backend/internal/auth"
	apperrors "github.com/Abhirsi/HawalaSend-backend/internal/errors"
	"github.com/Abhirsi/HawalaSend-backend/internal/model"
)

// stubAuthService returns a fixed user resolution result.
type stubAuthService struct {
	user *model.User
	err  error
}

func (s *stubAuthService) Register(context.Context, string, string, string) (*model.User, string, error) {
	panic("not used")
}

func (s *stubAuthService) Login(context.Context, string, string, string) (*model.User, string, error) {
	panic("not used")
}

func (s *stubAuthService) ResolveActiveUser(context.Context, uint) (*model.User, error) {
	return s.user, s.err
}

func activeAlice() *model.User {
	return &model.User{
		ID:       7,
		Email:    "a@x.com",
		Username: "alice",
		Role:     model.RoleUser,
		Status:   model.StatusActive,
	}
}

func newGuardedServer(t *testing.T, tokens *auth.JWTService, svc *stubAuthService, refreshWindow time.Duration) *echo.Echo {
	t.Helper()
	e := echo.New()
	guard := NewSessionGuard(tokens, svc, time.Hour, refreshWindow, 100, 100)
	secured := e.Group("", guard.Authenticate(), guard.ResolveUser())
	secured.GET("/me", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, map[string]uint{"id": user.ID})
	})
	return e
}

func doGet(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Code
}

func TestSessionGuard_MissingToken(t *testing.T) {
	tokens := auth.NewJWTService("test-secret")
	e := newGuardedServer(t, tokens, &stubAuthService{user: activeAlice()}, 10*time.Minute)

	tests := []struct {
		name          string
		authorization string
	}{
		{name: "no header", authorization: ""},
		{name: "wrong scheme", authorization: "Basic dXNlcjpwYXNz"},
		{name: "bearer with no token", authorization: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(e, tt.authorization)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "MISSING_TOKEN", errorCode(t, rec))
		})
	}
}

func TestSessionGuard_MalformedToken(t *testing.T) {
	tokens := auth.NewJWTService("test-secret")
	e := newGuardedServer(t, tokens, &stubAuthService{user: activeAlice()}, 10*time.Minute)

	valid, err := tokens.Issue(7, model.RoleUser, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.jwt"},
		{name: "truncated", token: valid[:len(valid)-1]},
		{name: "wrong secret", token: mustIssue(t, auth.NewJWTService("other-secret"), 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(e, "Bearer "+tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "MALFORMED_TOKEN", errorCode(t, rec))
		})
	}
}

func mustIssue(t *testing.T, tokens *auth.JWTService, id uint) string {
	t.Helper()
	token, err := tokens.Issue(id, model.RoleUser, time.Hour)
	require.NoError(t, err)
	return token
}

func TestSessionGuard_ExpiredToken(t *testing.T) {
	tokens := auth.NewJWTService("test-secret")
	e := newGuardedServer(t, tokens, &stubAuthService{user: activeAlice()}, 10*time.Minute)

	expired, err := tokens.Issue(7, model.RoleUser, -time.Minute)
	require.NoError(t, err)

	rec := doGet(e, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
}

func TestSessionGuard_ResolvesIdentity(t *testing.T) {
	tokens := auth.NewJWTService("test-secret")
	e := newGuardedServer(t, tokens, &stubAuthService{user: activeAlice()}, 10*time.Minute)

	rec := doGet(e, "Bearer "+mustIssue(t, tokens, 7))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
	// Fresh token: no replacement emitted.
	assert.Empty(t, rec.Header().Get(RefreshTokenHeader))
}

func TestSessionGuard_InactiveUser(t *testing.T) {
	tokens := auth.NewJWTService("test-secret")
	e := newGuardedServer(t, tokens, &stubAuthService{err: apperrors.ErrUserInactive}, 10*time.Minute)

	rec := doGet(e, "Bearer "+mustIssue(t, tokens, 7))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "USER_INACTIVE", errorCode(t, rec))
}

func TestSessionGuard_NearExpiryRefresh(t *testing.T) {
	tokens := auth.NewJWTService("test-secret")
	// Refresh window larger than the token ttl used below, so the token is
	// inside the window immediately.
	e := newGuardedServer(t, tokens, &stubAuthService{user: activeAlice()}, 10*time.Minute)

	nearExpiry, err := tokens.Issue(7, model.RoleUser, 5*time.Minute)
	require.NoError(t, err)

	rec := doGet(e, "Bearer "+nearExpiry)
	assert.Equal(t, http.StatusOK, rec.Code)

	refreshed := rec.Header().Get(RefreshTokenHeader)
	require.NotEmpty(t, refreshed)
	assert.NotEqual(t, nearExpiry, refreshed)

	claims, err := tokens.Verify(refreshed)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.False(t, claims.NeedsRefresh(10*time.Minute-time.Minute))
}

func TestSessionGuard_RateLimit(t *testing.T) {
	tokens := auth.NewJWTService("test-secret")
	e := echo.New()
	guard := NewSessionGuard(tokens, &stubAuthService{user: activeAlice()}, time.Hour, 10*time.Minute, 1, 1)
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	}, guard.RateLimit())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Real-Ip", "203.0.113.7")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)
}
