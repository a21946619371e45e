package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"StockDash/internal/model"
	"StockDash/internal/store"
)

// UserStore implements store.UserStore and store.TokenStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Compile-time interface checks.
var (
	_ store.UserStore  = (*UserStore)(nil)
	_ store.TokenStore = (*UserStore)(nil)
)

func key(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// CreateUser adds a user. Returns ErrDuplicateKey if the email exists.
func (s *UserStore) CreateUser(ctx context.Context, u *model.User) error {
	k := key(u.Email)
	if k == "" {
		return store.ErrInvalidInput
	}
	query := `
		INSERT INTO users (email, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, k, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns the user for email. Returns ErrNotFound if not exists.
func (s *UserStore) GetUser(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT email, username, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u model.User
	err := s.pool.QueryRow(ctx, query, key(email)).Scan(&u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdatePassword replaces the password hash. Returns ErrNotFound if not exists.
func (s *UserStore) UpdatePassword(ctx context.Context, email, hash string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE email = $1`, key(email), hash, at)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// PutToken adds a token. Returns ErrDuplicateKey if the token exists and
// ErrNotFound if the email has no account.
func (s *UserStore) PutToken(ctx context.Context, t *model.ResetToken) error {
	if t.Token == "" {
		return store.ErrInvalidInput
	}
	var expires *time.Time
	if !t.ExpiresAt.IsZero() {
		expires = &t.ExpiresAt
	}
	query := `
		INSERT INTO reset_tokens (token, email, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.pool.Exec(ctx, query, t.Token, key(t.Email), t.CreatedAt, expires)
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return store.ErrDuplicateKey
		case isForeignKeyError(err):
			return store.ErrNotFound
		}
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// GetToken returns a token without consuming it.
func (s *UserStore) GetToken(ctx context.Context, token string) (*model.ResetToken, error) {
	row := s.pool.QueryRow(ctx, `SELECT token, email, created_at, expires_at FROM reset_tokens WHERE token = $1`, token)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	return t, nil
}

// ConsumeToken deletes the token and returns it. DELETE ... RETURNING makes
// concurrent consumers race on the row lock; the loser sees no rows.
func (s *UserStore) ConsumeToken(ctx context.Context, token string) (*model.ResetToken, error) {
	row := s.pool.QueryRow(ctx, `DELETE FROM reset_tokens WHERE token = $1 RETURNING token, email, created_at, expires_at`, token)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return t, nil
}

// DeleteExpiredTokens removes tokens expired at now.
func (s *UserStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row pgx.Row) (*model.ResetToken, error) {
	var t model.ResetToken
	var expires *time.Time
	if err := row.Scan(&t.Token, &t.Email, &t.CreatedAt, &expires); err != nil {
		return nil, err
	}
	if expires != nil {
		t.ExpiresAt = *expires
	}
	return &t, nil
}
