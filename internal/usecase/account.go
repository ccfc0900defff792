package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

// AccountContext owns the authenticated session of one account.
// Uploads hold a read lock for their whole duration; revocation and
// re-authentication take the write lock and so wait for in-flight uploads.
type AccountContext struct {
	auth adapter.Authenticator
	log  *zerolog.Logger

	mu sync.RWMutex
}

func NewAccountContext(auth adapter.Authenticator, logger *zerolog.Logger) *AccountContext {
	l := logger.With().Str("component", "account").Logger()
	return &AccountContext{auth: auth, log: &l}
}

// IsAuthenticated does not block on in-flight uploads.
func (a *AccountContext) IsAuthenticated() bool {
	return a.auth.IsAuthenticated()
}

// Acquire returns a session and a release func. The caller must call release exactly once.
func (a *AccountContext) Acquire(ctx context.Context) (*adapter.Session, func(), error) {
	a.mu.RLock()
	if !a.auth.IsAuthenticated() {
		a.mu.RUnlock()
		return nil, nil, fmt.Errorf("%w: no authenticated session", domain.ErrNotAuthenticated)
	}
	s, err := a.auth.Authenticate(ctx, false)
	if err != nil {
		a.mu.RUnlock()
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	var once sync.Once
	return s, func() { once.Do(a.mu.RUnlock) }, nil
}

// Reauthenticate forces a fresh session once in-flight uploads have finished.
func (a *AccountContext) Reauthenticate(ctx context.Context) (*adapter.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.auth.Authenticate(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	a.log.Info().Str("account", s.Account).Msg("session re-authenticated")
	return s, nil
}

// Revoke drops the session once in-flight uploads have finished.
func (a *AccountContext) Revoke(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.auth.Revoke(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("session revoked")
	return nil
}
