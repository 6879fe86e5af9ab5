package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/nvalerio/accountd/internal/auth"
	"github.com/nvalerio/accountd/internal/models"
	"github.com/nvalerio/accountd/internal/services"
	"github.com/nvalerio/accountd/pkg/errors"
	"github.com/nvalerio/accountd/pkg/metrics"
	"github.com/nvalerio/accountd/pkg/response"
)

// AccountHandler exposes account lifecycle endpoints (register/confirm/delete).
type AccountHandler struct {
	accounts *services.AccountService
	sessions *iauth.SessionManager
	cookies  CookieSettings
}

func NewAccountHandler(accounts *services.AccountService, sessions *iauth.SessionManager, cookies CookieSettings) *AccountHandler {
	return &AccountHandler{accounts: accounts, sessions: sessions, cookies: cookies}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmRequest struct {
	Token string `json:"token" validate:"required"`
}

func accountPayload(account *models.Account) gin.H {
	return gin.H{
		"id":         account.ID,
		"email":      account.Email,
		"confirmed":  account.Confirmed,
		"created_at": account.CreatedAt,
	}
}

// POST /api/accounts
//
// Validation runs inside the service so the duplicate-email check keeps its
// position ahead of the password policy check.
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accounts.Register(requestContext(c), services.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.Registrations.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.Registrations.WithLabelValues("success").Inc()
	response.Success(c, http.StatusCreated, accountPayload(account))
}

// POST /api/accounts/confirm
func (h *AccountHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if !bindAndValidate(c, &req) {
		return
	}

	confirmed, err := h.accounts.Confirm(requestContext(c), strings.TrimSpace(req.Token))
	if err != nil {
		metrics.Confirmations.WithLabelValues("error").Inc()
		response.Error(c, err)
		return
	}

	if confirmed {
		metrics.Confirmations.WithLabelValues("success").Inc()
	} else {
		metrics.Confirmations.WithLabelValues("failure").Inc()
	}

	// An unknown or spent token is a negative result, not an error.
	response.Success(c, http.StatusOK, gin.H{"confirmed": confirmed})
}

// DELETE /api/accounts/me
//
// Removes the account, then tears down the session. The cookie is cleared
// only once the server-side session record is gone.
func (h *AccountHandler) DeleteMe(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.accounts.Delete(requestContext(c), accountID); err != nil {
		response.Error(c, err)
		return
	}

	if sessionID, ok := currentSessionID(c); ok {
		if err := h.sessions.Destroy(requestContext(c), sessionID); err != nil {
			response.Error(c, errors.ErrInternalServer)
			return
		}
	}

	clearSessionCookie(c, h.cookies)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
