package auth

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Authenticator = (*StaticAuthenticator)(nil)

// StaticAuthenticator serves hosts whose credentials live outside the session
// (S3 default chain, noop). Revoke flips it to unauthenticated until the next
// forced re-authentication.
type StaticAuthenticator struct {
	account string
	client  *http.Client
	revoked atomic.Bool
}

func NewStaticAuthenticator(account string) *StaticAuthenticator {
	return &StaticAuthenticator{account: account, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (s *StaticAuthenticator) Authenticate(ctx context.Context, forceReauth bool) (*adapter.Session, error) {
	if forceReauth {
		s.revoked.Store(false)
	}
	if s.revoked.Load() {
		return nil, domain.ErrNotAuthenticated
	}
	return &adapter.Session{Account: s.account, Client: s.client}, nil
}

func (s *StaticAuthenticator) Revoke(ctx context.Context) error {
	s.revoked.Store(true)
	return nil
}

func (s *StaticAuthenticator) IsAuthenticated() bool { return !s.revoked.Load() }
