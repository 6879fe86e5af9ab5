package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nvalerio/accountd/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentAccountID reads the authenticated account id placed by the session middleware.
func currentAccountID(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.CtxAccountIDKey)
	if !ok {
		return "", false
	}
	id, _ := v.(string)
	return id, id != ""
}

// currentSessionID reads the session id placed by the session middleware.
func currentSessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.CtxSessionIDKey)
	if !ok {
		return "", false
	}
	id, _ := v.(string)
	return id, id != ""
}
