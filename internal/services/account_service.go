package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nvalerio/accountd/internal/models"
	"github.com/nvalerio/accountd/pkg/crypto"
	apperrors "github.com/nvalerio/accountd/pkg/errors"
	appvalidator "github.com/nvalerio/accountd/pkg/validator"
)

// Credentials describes the fields accepted when registering an account.
// The password policy is alphanumeric, 6 to 30 characters.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,alphanum,min=6,max=30"`
}

// AccountService orchestrates the account lifecycle: register, confirm,
// login, delete. It owns no data; accounts live in the database, tokens and
// sessions in the key-value store. All dependencies are injected.
type AccountService struct {
	db     *gorm.DB
	tokens *TokenService
	audit  *AuditService
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(db *gorm.DB, tokens *TokenService, audit *AuditService) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token service is required")
	}
	return &AccountService{
		db:     db,
		tokens: tokens,
		audit:  audit,
	}, nil
}

// Register provisions a new unconfirmed account and mints its confirmation
// token. The duplicate-email check runs before input validation and before
// any hash work; that ordering decides which error a client observes first
// and must stay stable.
func (s *AccountService) Register(ctx context.Context, input Credentials) (*models.Account, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	input.Email = email

	var existing models.Account
	err := s.db.WithContext(ctx).Take(&existing, "email = ?", email).Error
	switch {
	case err == nil:
		return nil, apperrors.ErrDuplicateAccount
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("account service: duplicate check: %w", err)
	}

	if err := appvalidator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	account := &models.Account{
		Email:     email,
		Password:  hashed,
		Confirmed: false,
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		// The unique index is the authority under concurrent registration.
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("account service: create account: %w", err)
	}

	if _, _, err := s.tokens.Issue(ctx, account.ID, account.Email); err != nil {
		// The account row is already committed; an unconfirmed account with
		// no live token is harmless and the token can be re-issued.
		return nil, fmt.Errorf("account service: issue confirmation token: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.create",
		Resource:  account.ID,
		Result:    "success",
		Metadata:  map[string]any{"email": account.Email},
	})

	return account, nil
}

// Confirm redeems a confirmation token and marks the referenced account as
// confirmed. An unknown or expired token returns false without touching any
// account; a second call with the same token also returns false.
func (s *AccountService) Confirm(ctx context.Context, token string) (bool, error) {
	ctx = ensureContext(ctx)

	accountID, ok, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("confirmed", true).Error; err != nil {
		return false, fmt.Errorf("account service: mark confirmed: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &accountID,
		Action:    "account.confirm",
		Resource:  accountID,
		Result:    "success",
	})

	return true, nil
}

// Login verifies credentials. An unknown email and a wrong password produce
// the same error so callers cannot enumerate accounts. Correct credentials
// on an unconfirmed account are rejected separately.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("account service: find account: %w", err)
	}

	if !crypto.VerifyPassword(account.Password, password) {
		recordAudit(s.audit, ctx, AuditEntry{
			AccountID: &account.ID,
			Action:    "auth.login",
			Resource:  account.ID,
			Result:    "failure",
		})
		return nil, apperrors.ErrInvalidCredentials
	}

	if !account.Confirmed {
		return nil, apperrors.ErrEmailNotConfirmed
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "auth.login",
		Resource:  account.ID,
		Result:    "success",
	})

	return &account, nil
}

// GetByID loads an account by identifier.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	ctx = ensureContext(ctx)

	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: get account: %w", err)
	}
	return &account, nil
}

// Delete removes an account permanently. Deletion is terminal: subsequent
// lookups by the identifier fail with NotFound.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Account{})
	if result.Error != nil {
		return fmt.Errorf("account service: delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &id,
		Action:    "account.delete",
		Resource:  id,
		Result:    "success",
	})

	return nil
}
