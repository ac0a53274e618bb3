package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// tokenRefreshWindow is how close to expiry a cached token is replaced.
	tokenRefreshWindow = 60 * time.Second

	defaultGraphScope    = "https://graph.microsoft.com/.default"
	defaultAuthorityHost = "https://login.microsoftonline.com"
)

// TokenFetcher performs one client-credentials exchange.
type TokenFetcher func(ctx context.Context) (*oauth2.Token, error)

// TokenCache holds a single bearer token for the process and refreshes it
// when it is missing or inside the refresh window. Concurrent refreshes are
// serialized; the latest successful fetch wins.
type TokenCache struct {
	mu     sync.Mutex
	fetch  TokenFetcher
	now    func() time.Time
	window time.Duration
	token  *oauth2.Token
}

// TokenCacheOption configures a TokenCache.
type TokenCacheOption func(*TokenCache)

// WithTokenClock overrides the time source used for expiry checks.
func WithTokenClock(now func() time.Time) TokenCacheOption {
	return func(c *TokenCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCache wraps fetch with caching.
func NewTokenCache(fetch TokenFetcher, opts ...TokenCacheOption) *TokenCache {
	if fetch == nil {
		panic("notify: token fetcher required")
	}
	c := &TokenCache{
		fetch:  fetch,
		now:    time.Now,
		window: tokenRefreshWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessToken returns a cached token while more than the refresh window of
// validity remains, otherwise it fetches a new one.
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.token.Expiry.After(c.now().Add(c.window)) {
		return c.token.AccessToken, nil
	}

	tok, err := c.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("notify: fetch access token: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", errors.New("notify: token endpoint returned an empty access token")
	}
	c.token = tok
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next call refetches.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

// CredentialsConfig describes a client-credentials grant.
type CredentialsConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// TokenURL overrides the tenant token endpoint. Tests point it at an
	// httptest server.
	TokenURL string
	Scopes   []string
}

func (c CredentialsConfig) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", defaultAuthorityHost, strings.TrimSpace(c.TenantID))
}

// ClientCredentialsFetcher exchanges the client id and secret for a token
// with a form-encoded POST.
func ClientCredentialsFetcher(cfg CredentialsConfig, httpClient *http.Client) TokenFetcher {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{defaultGraphScope}
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.tokenURL(),
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return func(ctx context.Context) (*oauth2.Token, error) {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		return cc.Token(ctx)
	}
}
