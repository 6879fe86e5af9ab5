package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nvalerio/accountd/internal/cache"
	"github.com/nvalerio/accountd/internal/database/testutil"
	"github.com/nvalerio/accountd/internal/models"
	apperrors "github.com/nvalerio/accountd/pkg/errors"
)

type accountFixture struct {
	db       *gorm.DB
	store    cache.Store
	tokens   *TokenService
	accounts *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	store := cache.NewDatabaseStore(db)

	tokens, err := NewTokenService(store, nil)
	require.NoError(t, err)

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	accounts, err := NewAccountService(db, tokens, audit)
	require.NoError(t, err)

	return &accountFixture{db: db, store: store, tokens: tokens, accounts: accounts}
}

// registerWithToken registers an account and returns the confirmation token
// minted for it by scanning the token namespace.
func registerWithToken(t *testing.T, f *accountFixture, email, password string) (*models.Account, string) {
	t.Helper()
	ctx := context.Background()

	account, err := f.accounts.Register(ctx, Credentials{Email: email, Password: password})
	require.NoError(t, err)

	var entries []models.CacheEntry
	require.NoError(t, f.db.Where("key LIKE ?", confirmationKeyPrefix+"%").Find(&entries).Error)

	for _, entry := range entries {
		if string(entry.Value) == account.ID {
			token := entry.Key[len(confirmationKeyPrefix):]
			return account, token
		}
	}

	t.Fatalf("no confirmation token stored for %s", email)
	return nil, ""
}

func TestRegisterCreatesUnconfirmedAccountWithToken(t *testing.T) {
	f := newAccountFixture(t)

	account, token := registerWithToken(t, f, "a@b.com", "secret1")
	require.NotEmpty(t, account.ID)
	require.Equal(t, "a@b.com", account.Email)
	require.False(t, account.Confirmed)
	require.NotEqual(t, "secret1", account.Password, "stored password must be hashed")
	require.NotEmpty(t, token)
}

func TestRegisterNormalisesEmail(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.accounts.Register(context.Background(), Credentials{
		Email:    "  Mixed@Example.COM ",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.Equal(t, "mixed@example.com", account.Email)
}

func TestRegisterDuplicateFailsEvenWhenUnconfirmed(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, Credentials{Email: "dup@b.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.accounts.Register(ctx, Credentials{Email: "dup@b.com", Password: "secret1"})
	require.ErrorIs(t, err, apperrors.ErrDuplicateAccount)
}

func TestRegisterDuplicateCheckPrecedesValidation(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, Credentials{Email: "first@b.com", Password: "secret1"})
	require.NoError(t, err)

	// Invalid password, but the duplicate is reported first.
	_, err = f.accounts.Register(ctx, Credentials{Email: "first@b.com", Password: "!"})
	require.ErrorIs(t, err, apperrors.ErrDuplicateAccount)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	cases := []Credentials{
		{Email: "not-an-email", Password: "secret1"},
		{Email: "a@b.com", Password: "short"},
		{Email: "a@b.com", Password: "way too long and full of spaces!!"},
		{Email: "a@b.com", Password: "p@ss-word"},
	}

	for _, input := range cases {
		_, err := f.accounts.Register(ctx, input)
		require.Error(t, err)

		appErr := apperrors.FromError(err)
		require.Equalf(t, apperrors.ErrBadRequest.Code, appErr.Code, "input %+v", input)
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Account{}).Count(&count).Error)
	require.Zero(t, count, "rejected input must not persist anything")
}

func TestConfirmIsAtMostOnce(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	account, token := registerWithToken(t, f, "confirm@b.com", "secret1")

	ok, err := f.accounts.Confirm(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	reloaded, err := f.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, reloaded.Confirmed)

	// Second redemption of the same token is a negative result.
	ok, err = f.accounts.Confirm(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConfirmUnknownTokenAltersNothing(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	account, _ := registerWithToken(t, f, "still@b.com", "secret1")

	ok, err := f.accounts.Confirm(ctx, "bogus-token")
	require.NoError(t, err)
	require.False(t, ok)

	reloaded, err := f.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.False(t, reloaded.Confirmed)
}

func TestLoginDoesNotDistinguishUnknownEmailFromWrongPassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, token := registerWithToken(t, f, "known@b.com", "secret1")
	ok, err := f.accounts.Confirm(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	_, errUnknown := f.accounts.Login(ctx, "unknown@b.com", "secret1")
	_, errWrongPw := f.accounts.Login(ctx, "known@b.com", "wrongpw1")

	require.ErrorIs(t, errUnknown, apperrors.ErrInvalidCredentials)
	require.ErrorIs(t, errWrongPw, apperrors.ErrInvalidCredentials)
}

func TestLoginRequiresConfirmedEmail(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	registerWithToken(t, f, "pending@b.com", "secret1")

	_, err := f.accounts.Login(ctx, "pending@b.com", "secret1")
	require.ErrorIs(t, err, apperrors.ErrEmailNotConfirmed)
}

func TestLoginSucceedsAfterConfirmation(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, token := registerWithToken(t, f, "ready@b.com", "secret1")
	ok, err := f.accounts.Confirm(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	account, err := f.accounts.Login(ctx, "ready@b.com", "secret1")
	require.NoError(t, err)
	require.True(t, account.Confirmed)
	require.Equal(t, "ready@b.com", account.Email)
}

func TestDeleteIsTerminal(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	account, token := registerWithToken(t, f, "gone@b.com", "secret1")
	ok, err := f.accounts.Confirm(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.accounts.Delete(ctx, account.ID))

	_, err = f.accounts.GetByID(ctx, account.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	// Login behaves as if the account never existed.
	_, err = f.accounts.Login(ctx, "gone@b.com", "secret1")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.ErrorIs(t, f.accounts.Delete(ctx, account.ID), apperrors.ErrNotFound)
}

func TestLifecycleEventsAreAudited(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, token := registerWithToken(t, f, "audited@b.com", "secret1")
	ok, err := f.accounts.Confirm(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.accounts.Login(ctx, "audited@b.com", "secret1")
	require.NoError(t, err)

	var actions []string
	require.NoError(t, f.db.Model(&models.AuditLog{}).Order("created_at").Pluck("action", &actions).Error)
	require.Contains(t, actions, "account.create")
	require.Contains(t, actions, "account.confirm")
	require.Contains(t, actions, "auth.login")
}
