package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/nvalerio/accountd/internal/auth"
	"github.com/nvalerio/accountd/internal/cache"
	"github.com/nvalerio/accountd/internal/database/testutil"
)

func newSessionRouter(t *testing.T) (*gin.Engine, *iauth.SessionManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := cache.NewDatabaseStore(testutil.MustOpenTestDB(t))
	sessions, err := iauth.NewSessionManager(store, iauth.SessionConfig{})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", SessionAuth(sessions), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxAccountIDKey))
	})
	return r, sessions
}

func TestSessionAuthRejectsMissingCookie(t *testing.T) {
	r, _ := newSessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthRejectsUnknownSession(t *testing.T) {
	r, _ := newSessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-session"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthPropagatesAccountID(t *testing.T) {
	r, sessions := newSessionRouter(t)

	sessionID, err := sessions.Create(context.Background(), "account-42")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "account-42", w.Body.String())
}

func TestSessionAuthRejectsDestroyedSession(t *testing.T) {
	r, sessions := newSessionRouter(t)

	sessionID, err := sessions.Create(context.Background(), "account-42")
	require.NoError(t, err)
	require.NoError(t, sessions.Destroy(context.Background(), sessionID))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
