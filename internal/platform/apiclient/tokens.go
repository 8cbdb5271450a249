package apiclient

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the bearer token pair issued by the upstream auth service.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// TokenSource is the process-wide credential store. Reads and writes are
// serialized; the refresh operation itself is single-flighted by Client.
type TokenSource struct {
	mu     sync.Mutex
	creds  Credentials
	leeway time.Duration
}

// NewTokenSource seeds the store. Leeway is how long before the access
// token's exp claim a proactive refresh kicks in; zero disables proactive
// refresh.
func NewTokenSource(creds Credentials, leeway time.Duration) *TokenSource {
	return &TokenSource{creds: creds, leeway: leeway}
}

func (t *TokenSource) Get() Credentials {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.creds
}

func (t *TokenSource) Set(creds Credentials) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.creds = creds
}

// Clear drops both credentials. Called when a refresh fails; the caller is
// then signaled to restart authentication.
func (t *TokenSource) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.creds = Credentials{}
}

// ShouldRefresh reports whether the access token expires within the leeway
// window. The exp claim is read without signature verification; validating
// the signature is the server's job, the client only schedules refreshes.
// Tokens without a parseable claim degrade to reactive refresh only.
func (t *TokenSource) ShouldRefresh(now time.Time) bool {
	t.mu.Lock()
	access := t.creds.AccessToken
	refresh := t.creds.RefreshToken
	leeway := t.leeway
	t.mu.Unlock()

	if leeway <= 0 || access == "" || refresh == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return false
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}
	return now.Add(leeway).After(expiry.Time)
}
