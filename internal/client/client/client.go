package client

import (
	"context"

	"github.com/dmitrijs2005/veyra/internal/client/models"
)

// Client is the transport contract the resource services are written
// against. HTTPClient is the production implementation.
type Client interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
	Do(ctx context.Context, method, path string, body, out any) error
}

// Credentials are kept for the life of the session and only used to log in
// again when the token goes stale.
type Credentials struct {
	Username string
	Password string
}

// TokenStore persists the current bearer token outside the process.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
}
