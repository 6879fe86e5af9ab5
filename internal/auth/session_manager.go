package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nvalerio/accountd/internal/cache"
	"github.com/nvalerio/accountd/pkg/crypto"
	"github.com/nvalerio/accountd/pkg/metrics"
)

// DefaultSessionTTL is the fallback server-side session lifetime.
const DefaultSessionTTL = 7 * 24 * time.Hour

const sessionKeyPrefix = "session:"

var (
	// ErrSessionNotFound indicates that no session matches the provided identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionInvalidID is returned when the supplied session id is malformed.
	ErrSessionInvalidID = errors.New("session: invalid id")
)

// SessionConfig describes tunable behaviour for the SessionManager.
type SessionConfig struct {
	TTL         time.Duration
	TokenLength int
}

// SessionManager maps opaque session identifiers to account identifiers in a
// key-value store. The store owns expiry: a session past its TTL is
// indistinguishable from one that never existed. The manager is injected
// wherever sessions are needed; nothing reaches for ambient state.
type SessionManager struct {
	store    cache.Store
	ttl      time.Duration
	tokenLen int
}

// NewSessionManager constructs a session manager backed by the provided store.
func NewSessionManager(store cache.Store, cfg SessionConfig) (*SessionManager, error) {
	if store == nil {
		return nil, errors.New("session manager: store is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	length := cfg.TokenLength
	if length <= 0 {
		length = 32
	}

	return &SessionManager{
		store:    store,
		ttl:      ttl,
		tokenLen: length,
	}, nil
}

// TTL reports the configured session lifetime, used to bound the cookie max-age.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create establishes a new session bound to the account identifier and
// returns the opaque session id.
func (m *SessionManager) Create(ctx context.Context, accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", errors.New("session manager: account id is required")
	}

	sessionID, err := crypto.GenerateToken(m.tokenLen)
	if err != nil {
		return "", fmt.Errorf("session manager: generate session id: %w", err)
	}

	if err := m.store.Set(ctx, sessionKeyPrefix+sessionID, []byte(accountID), m.ttl); err != nil {
		return "", fmt.Errorf("session manager: store session: %w", err)
	}

	metrics.ActiveSessions.Inc()

	return sessionID, nil
}

// Get resolves a session id to the bound account identifier.
func (m *SessionManager) Get(ctx context.Context, sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrSessionInvalidID
	}

	value, found, err := m.store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return "", fmt.Errorf("session manager: lookup session: %w", err)
	}
	if !found {
		return "", ErrSessionNotFound
	}

	return string(value), nil
}

// Destroy removes the server-side session record. Destroying a session that
// no longer exists is benign; store failures propagate so callers never
// treat a half-torn-down session as gone.
func (m *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionInvalidID
	}

	_, found, err := m.store.GetDelete(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return fmt.Errorf("session manager: destroy session: %w", err)
	}

	if found {
		metrics.ActiveSessions.Dec()
	}

	return nil
}
