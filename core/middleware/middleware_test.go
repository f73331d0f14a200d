package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthContext(t *testing.T, authorization string) echo.Context {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func authHandler(cfg *config.Config) echo.HandlerFunc {
	mw := NewMiddleware(cfg)
	return mw.AuthMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

func TestAuthMiddlewareAcceptsSignedToken(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	userID := uuid.New()

	token, err := utils.GenerateToken(userID, "rider", testSecret, time.Hour)
	require.NoError(t, err)

	c := newAuthContext(t, "Bearer "+token)
	require.NoError(t, authHandler(cfg)(c))

	gotID, appErr := controller.UserIDFromContext(c)
	require.Nil(t, appErr)
	assert.Equal(t, userID, gotID)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}

	token, err := utils.GenerateToken(uuid.New(), "rider", "other-secret", time.Hour)
	require.NoError(t, err)

	c := newAuthContext(t, "Bearer "+token)
	httpErr, ok := authHandler(cfg)(c).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}

	token, err := utils.GenerateToken(uuid.New(), "rider", testSecret, -time.Minute)
	require.NoError(t, err)

	c := newAuthContext(t, "Bearer "+token)
	httpErr, ok := authHandler(cfg)(c).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}

	for _, header := range []string{"", "Token abc", "Bearer"} {
		c := newAuthContext(t, header)
		httpErr, ok := authHandler(cfg)(c).(*echo.HTTPError)
		require.True(t, ok, "header %q must be rejected", header)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	}
}
