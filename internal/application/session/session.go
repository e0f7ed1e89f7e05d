package session

import (
	"time"

	"adapta/internal/domain/identity"
)

// Status is the authentication state of the session.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

// Session wraps the current identity with lifecycle metadata. The error
// field holds the last operational failure and is cleared on the next
// successful transition.
type Session struct {
	Status       Status
	Identity     *identity.Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Error        string
}

func (s *Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// envelope is the persisted shape of an authenticated session inside the
// secure store. Tokens never leave the envelope unencrypted.
type envelope struct {
	IdentityID   string    `json:"identity_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Envelopes are stored per identity: the record key is the identity id, so
// two users' sessions can never observe or overwrite each other.
const sessionNamespace = "session"
