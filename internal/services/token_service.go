package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nvalerio/accountd/internal/cache"
	"github.com/nvalerio/accountd/pkg/crypto"
	"github.com/nvalerio/accountd/pkg/mail"
)

const (
	defaultConfirmationExpiry     = 24 * time.Hour
	defaultConfirmationTokenBytes = 32

	confirmationKeyPrefix = "confirm:"
)

// TokenOption customises the TokenService.
type TokenOption func(*TokenService)

// WithConfirmationBaseURL sets the base URL used in confirmation links.
func WithConfirmationBaseURL(url string) TokenOption {
	return func(s *TokenService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithConfirmationExpiry overrides the token lifetime.
func WithConfirmationExpiry(d time.Duration) TokenOption {
	return func(s *TokenService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithConfirmationTokenSize adjusts the number of random bytes in generated tokens.
func WithConfirmationTokenSize(size int) TokenOption {
	return func(s *TokenService) {
		if size > 0 {
			s.tokenLength = size
		}
	}
}

// TokenService issues and consumes email confirmation tokens. Tokens live in
// the key-value store under a TTL; the store's atomic get-and-delete gives
// each token at-most-once semantics.
type TokenService struct {
	store       cache.Store
	mailer      mail.Mailer
	baseURL     string
	expiry      time.Duration
	tokenLength int
}

// NewTokenService constructs a confirmation token service with the provided dependencies.
func NewTokenService(store cache.Store, mailer mail.Mailer, opts ...TokenOption) (*TokenService, error) {
	if store == nil {
		return nil, errors.New("token service: store is required")
	}

	service := &TokenService{
		store:       store,
		mailer:      mailer,
		expiry:      defaultConfirmationExpiry,
		tokenLength: defaultConfirmationTokenBytes,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue mints a confirmation token for the given account and dispatches an
// email when a mailer is configured. The token maps to exactly one account
// until consumed or expired. Re-issuing replaces nothing: an older token for
// the same account stays valid until its own expiry, matching the store's
// ownership of the token namespace.
func (s *TokenService) Issue(ctx context.Context, accountID, email string) (string, string, error) {
	accountID = strings.TrimSpace(accountID)
	email = strings.TrimSpace(strings.ToLower(email))
	if accountID == "" {
		return "", "", errors.New("token service: account id is required")
	}
	if email == "" {
		return "", "", errors.New("token service: email is required")
	}

	token, err := crypto.GenerateToken(s.tokenLength)
	if err != nil {
		return "", "", fmt.Errorf("token service: generate token: %w", err)
	}

	if err := s.store.Set(ctx, confirmationKeyPrefix+token, []byte(accountID), s.expiry); err != nil {
		return "", "", fmt.Errorf("token service: store token: %w", err)
	}

	link := s.confirmationLink(token)

	if s.mailer != nil {
		message := mail.Message{
			To:      []string{email},
			Subject: "Confirm your account",
			Body:    s.confirmationBody(link),
		}
		if mailErr := s.mailer.Send(ctx, message); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			return "", "", fmt.Errorf("token service: send email: %w", mailErr)
		}
	}

	return token, link, nil
}

// Consume atomically redeems a token, returning the bound account id. An
// absent or expired token yields ok=false; it is a negative result, not an
// error. A token can be consumed at most once.
func (s *TokenService) Consume(ctx context.Context, token string) (string, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false, nil
	}

	value, found, err := s.store.GetDelete(ctx, confirmationKeyPrefix+token)
	if err != nil {
		return "", false, fmt.Errorf("token service: consume token: %w", err)
	}
	if !found {
		return "", false, nil
	}

	return string(value), true, nil
}

func (s *TokenService) confirmationLink(token string) string {
	if s.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s?token=%s", s.baseURL, token)
}

func (s *TokenService) confirmationBody(link string) string {
	return fmt.Sprintf("Welcome!\n\nPlease confirm your email address by visiting the link below:\n%s\n\nIf you did not create an account, you can ignore this message.\n", link)
}
