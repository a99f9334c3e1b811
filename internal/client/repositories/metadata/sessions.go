package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/veyra/internal/dbx"
	"github.com/dmitrijs2005/veyra/internal/token"
)

type SQLiteSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db, now: time.Now}
}

// Load returns nil when no session is stored for baseURL.
func (r *SQLiteSessionRepository) Load(ctx context.Context, baseURL string) (*Session, error) {
	var (
		s         = Session{BaseURL: baseURL}
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT username, token, expires_at, saved_at FROM sessions WHERE base_url = ?`, baseURL,
	).Scan(&s.Username, &s.Token, &expiresAt, &s.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", baseURL, err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		s.ExpiresAt = &t
	}
	return &s, nil
}

// Save upserts the session and records it as the most recent one.
func (r *SQLiteSessionRepository) Save(ctx context.Context, s Session) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = r.now().UTC()
	}
	var expiresAt any
	if s.ExpiresAt != nil {
		expiresAt = s.ExpiresAt.UTC()
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (base_url, username, token, expires_at, saved_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(base_url) DO UPDATE SET
				username = excluded.username,
				token = excluded.token,
				expires_at = excluded.expires_at,
				saved_at = excluded.saved_at
		`, s.BaseURL, s.Username, s.Token, expiresAt, s.SavedAt)
		if err != nil {
			return fmt.Errorf("failed to save session for %s: %w", s.BaseURL, err)
		}

		kv := NewSQLiteRepository(tx)
		if err := kv.Set(ctx, KeyLastBaseURL, s.BaseURL); err != nil {
			return err
		}
		if s.Username != "" {
			return kv.Set(ctx, KeyLastUsername, s.Username)
		}
		return nil
	})
}

func (r *SQLiteSessionRepository) Delete(ctx context.Context, baseURL string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE base_url = ?`, baseURL); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", baseURL, err)
	}
	return nil
}

// TokenStore keeps the bearer token of one service URL in a SessionRepository.
type TokenStore struct {
	repo    SessionRepository
	baseURL string
}

func NewTokenStore(repo SessionRepository, baseURL string) *TokenStore {
	return &TokenStore{repo: repo, baseURL: baseURL}
}

func (s *TokenStore) LoadToken(ctx context.Context) (string, error) {
	sess, err := s.repo.Load(ctx, s.baseURL)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.Token, nil
}

// SaveToken stores tok together with the username and expiry read from its
// claims. An empty token clears the session.
func (s *TokenStore) SaveToken(ctx context.Context, tok string) error {
	if tok == "" {
		return s.repo.Delete(ctx, s.baseURL)
	}

	sess := Session{BaseURL: s.baseURL, Token: tok}
	if claims, err := token.Parse(tok); err == nil {
		sess.Username = claims.Username
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time
			sess.ExpiresAt = &exp
		}
	}
	return s.repo.Save(ctx, sess)
}
