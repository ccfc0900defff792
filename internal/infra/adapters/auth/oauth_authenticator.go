package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"ai-video-orchestrator/internal/config"
	"ai-video-orchestrator/internal/domain"
	"ai-video-orchestrator/internal/domain/ports/adapter"
	"ai-video-orchestrator/internal/infra/security"
)

var _ adapter.Authenticator = (*OAuthAuthenticator)(nil)

const (
	youtubeUploadScope   = "https://www.googleapis.com/auth/youtube.upload"
	youtubeReadonlyScope = "https://www.googleapis.com/auth/youtube.readonly"
	googleRevokeURL      = "https://oauth2.googleapis.com/revoke"
)

// OAuthAuthenticator keeps one OAuth token in a JSON file. The consent step itself
// happens outside (AuthCodeURL + Exchange); Authenticate only loads and refreshes.
type OAuthAuthenticator struct {
	conf      *oauth2.Config
	tokenFile string
	sealer    *security.EncryptionService // nil stores the token in plain JSON
	revokeURL string
	http      *http.Client
	logger    zerolog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

func NewOAuthAuthenticator(cfg config.YouTubeConfig, creds adapter.CredentialProvider, logger *zerolog.Logger) (*OAuthAuthenticator, error) {
	id, err := creds.Credential("youtube_client_id")
	if err != nil {
		return nil, err
	}
	secret, err := creds.Credential("youtube_client_secret")
	if err != nil {
		return nil, err
	}
	var sealer *security.EncryptionService
	if key, err := creds.Credential("youtube_token_key"); err == nil {
		if sealer, err = security.NewEncryptionService(key); err != nil {
			return nil, fmt.Errorf("%w: youtube.token_key: %v", domain.ErrValidation, err)
		}
	}
	return &OAuthAuthenticator{
		conf: &oauth2.Config{
			ClientID:     id,
			ClientSecret: secret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{youtubeUploadScope, youtubeReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		tokenFile: cfg.TokenFile,
		sealer:    sealer,
		revokeURL: googleRevokeURL,
		http:      http.DefaultClient,
		logger:    logger.With().Str("component", "OAuthAuthenticator").Logger(),
	}, nil
}

// AuthCodeURL is the consent page the operator opens once.
func (a *OAuthAuthenticator) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades a consent code for a token and persists it.
func (a *OAuthAuthenticator) Exchange(ctx context.Context, code string) error {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: exchange: %v", domain.ErrNotAuthenticated, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = tok
	return a.saveLocked(tok)
}

// Authenticate loads the stored token and refreshes it when needed. forceReauth drops
// the cached access token so a new one is minted from the refresh token.
func (a *OAuthAuthenticator) Authenticate(ctx context.Context, forceReauth bool) (*adapter.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil || forceReauth {
		tok, err := a.loadLocked()
		if err != nil {
			return nil, err
		}
		a.token = tok
	}
	if forceReauth {
		if a.token.RefreshToken == "" {
			a.token = nil
			return nil, fmt.Errorf("%w: consent required", domain.ErrNotAuthenticated)
		}
		a.token.AccessToken = ""
	}

	tok, err := a.conf.TokenSource(ctx, a.token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %v", domain.ErrNotAuthenticated, err)
	}
	if tok.AccessToken != a.token.AccessToken {
		if err := a.saveLocked(tok); err != nil {
			a.logger.Warn().Err(err).Msg("persist refreshed token")
		}
	}
	a.token = tok

	src := &persistingSource{inner: a.conf.TokenSource(ctx, tok), owner: a, last: tok.AccessToken}
	return &adapter.Session{
		Account:   "youtube",
		Client:    oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)),
		ExpiresAt: tok.Expiry,
	}, nil
}

func (a *OAuthAuthenticator) Revoke(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tok := a.token
	if tok == nil {
		tok, _ = a.loadLocked()
	}
	a.token = nil
	if err := os.Remove(a.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if tok == nil {
		return nil
	}

	value := tok.RefreshToken
	if value == "" {
		value = tok.AccessToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL, strings.NewReader(url.Values{"token": {value}}.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.http.Do(req)
	if err != nil {
		a.logger.Warn().Err(err).Msg("token revoke request failed; local token removed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		a.logger.Warn().Int("status", resp.StatusCode).Msg("token revoke rejected; local token removed")
	}
	return nil
}

func (a *OAuthAuthenticator) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	tok := a.token
	if tok == nil {
		tok, _ = a.loadLocked()
	}
	return tok != nil && (tok.Valid() || tok.RefreshToken != "")
}

func (a *OAuthAuthenticator) loadLocked() (*oauth2.Token, error) {
	b, err := os.ReadFile(a.tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no stored token", domain.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, err
	}
	if a.sealer != nil {
		if b, err = a.sealer.Open(b); err != nil {
			return nil, fmt.Errorf("%w: unreadable token file: %v", domain.ErrNotAuthenticated, err)
		}
	} else if security.IsSealed(b) {
		return nil, fmt.Errorf("%w: token file is encrypted but youtube.token_key is not set", domain.ErrNotAuthenticated)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("%w: corrupt token file: %v", domain.ErrNotAuthenticated, err)
	}
	return &tok, nil
}

func (a *OAuthAuthenticator) saveLocked(tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if a.sealer != nil {
		if b, err = a.sealer.Seal(b); err != nil {
			return err
		}
	}
	if dir := filepath.Dir(a.tokenFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(a.tokenFile, b, 0o600)
}

// persistingSource writes refreshed tokens back to the token file.
type persistingSource struct {
	inner oauth2.TokenSource
	owner *OAuthAuthenticator
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.inner.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		p.owner.mu.Lock()
		p.owner.token = tok
		if err := p.owner.saveLocked(tok); err != nil {
			p.owner.logger.Warn().Err(err).Msg("persist refreshed token")
		}
		p.owner.mu.Unlock()
	}
	return tok, nil
}
