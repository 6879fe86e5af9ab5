package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	iauth "github.com/nvalerio/accountd/internal/auth"
	apperrors "github.com/nvalerio/accountd/pkg/errors"
	"github.com/nvalerio/accountd/pkg/response"
)

const (
	// SessionCookieName is the cookie carrying the opaque session id.
	SessionCookieName = "accountd_session"

	CtxAccountIDKey = "accountID"
	CtxSessionIDKey = "sessionID"
)

// SessionAuth enforces cookie-based session authentication. A missing,
// expired, or unknown session aborts the request with 401. Store failures
// surface as 500 rather than being mistaken for a logged-out client.
func SessionAuth(sessions *iauth.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		accountID, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, iauth.ErrSessionNotFound) || errors.Is(err, iauth.ErrSessionInvalidID) {
				response.Error(c, apperrors.ErrUnauthorized)
			} else {
				response.Error(c, apperrors.ErrInternalServer)
			}
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxAccountIDKey, accountID)
		c.Set(CtxSessionIDKey, sessionID)

		c.Next()
	}
}
