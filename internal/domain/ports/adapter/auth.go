package adapter

import (
	"context"
	"net/http"
	"time"
)

// Session is an authenticated handle. Client carries the credentials on every request.
type Session struct {
	Account   string
	Client    *http.Client
	ExpiresAt time.Time
}

// Authenticator is the port for consent/credential flows.
type Authenticator interface {
	// Authenticate returns a usable session; forceReauth discards any cached credential first.
	Authenticate(ctx context.Context, forceReauth bool) (*Session, error)
	Revoke(ctx context.Context) error
	IsAuthenticated() bool
}
