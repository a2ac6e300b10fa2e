package session

import (
	"context"
	"errors"
)

// ErrNoSession indicates no token pair is stored for this terminal.
var ErrNoSession = errors.New("no session")

// TokenPair holds the opaque bearer tokens issued by the backend. The terminal
// never inspects them; it only attaches and refreshes them.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Store persists the terminal's token pair between flows.
type Store interface {
	Get(ctx context.Context) (TokenPair, error)
	Set(ctx context.Context, pair TokenPair) error
	Clear(ctx context.Context) error
}
