// Package metadata is the CLI's local SQLite store: a small key/value table
// for console settings and the sessions table that keeps a bearer token per
// service URL between runs.
package metadata

import (
	"context"
	"time"
)

// Keys used in the key/value table.
const (
	KeyLastUsername = "last_username"
	KeyLastBaseURL  = "last_base_url"
)

type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}

// Session is a stored login for one service URL.
type Session struct {
	BaseURL   string
	Username  string
	Token     string
	ExpiresAt *time.Time
	SavedAt   time.Time
}

type SessionRepository interface {
	Load(ctx context.Context, baseURL string) (*Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, baseURL string) error
}
