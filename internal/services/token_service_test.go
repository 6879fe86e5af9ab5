package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nvalerio/accountd/internal/cache"
	"github.com/nvalerio/accountd/internal/database/testutil"
	"github.com/nvalerio/accountd/pkg/mail"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func newTokenFixture(t *testing.T, mailer mail.Mailer, opts ...TokenOption) *TokenService {
	t.Helper()

	store := cache.NewDatabaseStore(testutil.MustOpenTestDB(t))
	service, err := NewTokenService(store, mailer, opts...)
	require.NoError(t, err)
	return service
}

func TestTokenServiceRequiresStore(t *testing.T) {
	_, err := NewTokenService(nil, nil)
	require.Error(t, err)
}

func TestIssueAndConsumeRoundTrip(t *testing.T) {
	service := newTokenFixture(t, nil)
	ctx := context.Background()

	token, link, err := service.Issue(ctx, "account-1", "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, token, link, "without a base URL the link is the bare token")

	accountID, ok, err := service.Consume(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "account-1", accountID)
}

func TestConsumeIsSingleUse(t *testing.T) {
	service := newTokenFixture(t, nil)
	ctx := context.Background()

	token, _, err := service.Issue(ctx, "account-1", "a@b.com")
	require.NoError(t, err)

	_, ok, err := service.Consume(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = service.Consume(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConsumeUnknownOrEmptyToken(t *testing.T) {
	service := newTokenFixture(t, nil)
	ctx := context.Background()

	_, ok, err := service.Consume(ctx, "never-issued")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = service.Consume(ctx, "  ")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConsumeExpiredToken(t *testing.T) {
	service := newTokenFixture(t, nil, WithConfirmationExpiry(10*time.Millisecond))
	ctx := context.Background()

	token, _, err := service.Issue(ctx, "account-1", "a@b.com")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, ok, err := service.Consume(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIssueDispatchesConfirmationMail(t *testing.T) {
	mailer := &recordingMailer{}
	service := newTokenFixture(t, mailer, WithConfirmationBaseURL("https://app.example.com/confirm/"))
	ctx := context.Background()

	token, link, err := service.Issue(ctx, "account-1", "User@B.com")
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/confirm?token="+token, link)

	require.Len(t, mailer.messages, 1)
	msg := mailer.messages[0]
	require.Equal(t, []string{"user@b.com"}, msg.To)
	require.Contains(t, msg.Body, link)
}

func TestIssueToleratesDisabledSMTP(t *testing.T) {
	mailer := &recordingMailer{err: mail.ErrSMTPDisabled}
	service := newTokenFixture(t, mailer)

	token, _, err := service.Issue(context.Background(), "account-1", "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The token stays redeemable even though no mail went out.
	accountID, ok, err := service.Consume(context.Background(), token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "account-1", accountID)
}

func TestIssueRejectsMissingFields(t *testing.T) {
	service := newTokenFixture(t, nil)
	ctx := context.Background()

	_, _, err := service.Issue(ctx, "", "a@b.com")
	require.Error(t, err)

	_, _, err = service.Issue(ctx, "account-1", " ")
	require.Error(t, err)
}
