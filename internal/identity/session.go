package identity

import (
	"context"
	"time"
)

// User is the identity provider's record of an account. The application
// reads it from the session and never mutates it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is the credential bundle returned by the identity provider.
// ExpiresAt is in epoch seconds.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// Event names a session transition.
type Event int

const (
	InitialSession Event = iota
	SignedIn
	SignedOut
	TokenRefreshed
)

func (e Event) String() string {
	switch e {
	case InitialSession:
		return "INITIAL_SESSION"
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	case TokenRefreshed:
		return "TOKEN_REFRESHED"
	default:
		return "UNKNOWN"
	}
}

// Provider is the external identity provider.
type Provider interface {
	// SendMagicLink emails a one-time sign-in link. codeChallenge is the
	// PKCE S256 challenge the link's auth code is bound to.
	SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error
	// ExchangeCode trades the auth code from a clicked link for a session.
	ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// State is what a Persister keeps between process runs.
type State struct {
	Session      *Session `json:"session,omitempty"`
	CodeVerifier string   `json:"code_verifier,omitempty"`
}

// Persister restores and saves the store's state. Load returns a nil State
// when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, st *State) error
}

// ProviderError carries the identity provider's user-facing message.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string { return e.Message }
