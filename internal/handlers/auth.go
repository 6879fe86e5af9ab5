package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/nvalerio/accountd/internal/auth"
	"github.com/nvalerio/accountd/internal/services"
	"github.com/nvalerio/accountd/pkg/errors"
	"github.com/nvalerio/accountd/pkg/metrics"
	"github.com/nvalerio/accountd/pkg/response"
)

// AuthHandler manages authentication flows (login/logout/me).
type AuthHandler struct {
	accounts *services.AccountService
	sessions *iauth.SessionManager
	audit    *services.AuditService
	cookies  CookieSettings
}

func NewAuthHandler(accounts *services.AccountService, sessions *iauth.SessionManager, audit *services.AuditService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, audit: audit, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, err := h.accounts.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	sessionID, err := h.sessions.Create(requestContext(c), account.ID)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	setSessionCookie(c, h.cookies, sessionID, int(h.sessions.TTL().Seconds()))
	response.Success(c, http.StatusOK, accountPayload(account))
}

// POST /api/auth/logout
//
// The server-side session is destroyed first; the cookie is cleared only on
// success so a store failure never leaves a live session behind a cleared
// cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, ok := currentSessionID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.sessions.Destroy(requestContext(c), sessionID); err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	if h.audit != nil {
		if accountID, ok := currentAccountID(c); ok {
			_ = h.audit.Log(requestContext(c), services.AuditEntry{
				AccountID: &accountID,
				Action:    "auth.logout",
				Resource:  accountID,
				Result:    "success",
				IPAddress: c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
			})
		}
	}

	clearSessionCookie(c, h.cookies)
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	account, err := h.accounts.GetByID(requestContext(c), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, accountPayload(account))
}
