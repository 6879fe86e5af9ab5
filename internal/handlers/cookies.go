package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nvalerio/accountd/internal/middleware"
)

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	Domain string
	Secure bool
}

func setSessionCookie(c *gin.Context, cfg CookieSettings, sessionID string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, sessionID, maxAge, "/", cfg.Domain, cfg.Secure, true)
}

func clearSessionCookie(c *gin.Context, cfg CookieSettings) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", cfg.Domain, cfg.Secure, true)
}
