// Package jsonfile stores accounts and submissions in flat JSON files:
// users.json, reset_tokens.json, user_data.json, problem_reports.json,
// support_requests.json and an attachments/ directory.
package jsonfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockDash/internal/model"
	"StockDash/internal/store"
)

const (
	usersFile    = "users.json"
	tokensFile   = "reset_tokens.json"
	profilesFile = "user_data.json"
	reportsFile  = "problem_reports.json"
	supportFile  = "support_requests.json"
	attachDir    = "attachments"
)

// Store implements every store interface on top of a data directory.
type Store struct {
	dir      string
	users    *document[map[string]model.User]
	tokens   *document[map[string]model.ResetToken]
	profiles *document[[]model.Profile]
	reports  *document[[]model.ProblemReport]
	support  *document[[]model.SupportRequest]
}

// Compile-time interface checks.
var (
	_ store.UserStore       = (*Store)(nil)
	_ store.TokenStore      = (*Store)(nil)
	_ store.RecordStore     = (*Store)(nil)
	_ store.AttachmentStore = (*Store)(nil)
)

// New opens (creating if needed) a store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, attachDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir:      dir,
		users:    newDocument(filepath.Join(dir, usersFile), func() map[string]model.User { return map[string]model.User{} }),
		tokens:   newDocument(filepath.Join(dir, tokensFile), func() map[string]model.ResetToken { return map[string]model.ResetToken{} }),
		profiles: newDocument(filepath.Join(dir, profilesFile), func() []model.Profile { return []model.Profile{} }),
		reports:  newDocument(filepath.Join(dir, reportsFile), func() []model.ProblemReport { return []model.ProblemReport{} }),
		support:  newDocument(filepath.Join(dir, supportFile), func() []model.SupportRequest { return []model.SupportRequest{} }),
	}, nil
}

func key(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// CreateUser adds a user. Returns ErrDuplicateKey if the email exists.
func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	k := key(u.Email)
	if k == "" {
		return store.ErrInvalidInput
	}
	return s.users.update(func(m *map[string]model.User) error {
		if _, ok := (*m)[k]; ok {
			return store.ErrDuplicateKey
		}
		rec := *u
		rec.Email = k
		(*m)[k] = rec
		return nil
	})
}

// GetUser returns the user for email. Returns ErrNotFound if not exists.
func (s *Store) GetUser(_ context.Context, email string) (*model.User, error) {
	var out *model.User
	err := s.users.view(func(m map[string]model.User) error {
		u, ok := m[key(email)]
		if !ok {
			return store.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

// UpdatePassword replaces the password hash. Returns ErrNotFound if not exists.
func (s *Store) UpdatePassword(_ context.Context, email, hash string, at time.Time) error {
	k := key(email)
	return s.users.update(func(m *map[string]model.User) error {
		u, ok := (*m)[k]
		if !ok {
			return store.ErrNotFound
		}
		u.PasswordHash = hash
		u.UpdatedAt = at
		(*m)[k] = u
		return nil
	})
}

// PutToken adds a token. Returns ErrDuplicateKey if the token exists.
func (s *Store) PutToken(_ context.Context, t *model.ResetToken) error {
	if t.Token == "" {
		return store.ErrInvalidInput
	}
	return s.tokens.update(func(m *map[string]model.ResetToken) error {
		if _, ok := (*m)[t.Token]; ok {
			return store.ErrDuplicateKey
		}
		(*m)[t.Token] = *t
		return nil
	})
}

// GetToken returns a token without consuming it.
func (s *Store) GetToken(_ context.Context, token string) (*model.ResetToken, error) {
	var out *model.ResetToken
	err := s.tokens.view(func(m map[string]model.ResetToken) error {
		t, ok := m[token]
		if !ok {
			return store.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

// ConsumeToken deletes the token and returns it.
func (s *Store) ConsumeToken(_ context.Context, token string) (*model.ResetToken, error) {
	var out *model.ResetToken
	err := s.tokens.update(func(m *map[string]model.ResetToken) error {
		t, ok := (*m)[token]
		if !ok {
			return store.ErrNotFound
		}
		delete(*m, token)
		out = &t
		return nil
	})
	return out, err
}

// DeleteExpiredTokens removes tokens expired at now.
func (s *Store) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	n := 0
	err := s.tokens.update(func(m *map[string]model.ResetToken) error {
		for k, t := range *m {
			if t.Expired(now) {
				delete(*m, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *Store) AppendProfile(_ context.Context, p *model.Profile) error {
	return s.profiles.update(func(list *[]model.Profile) error {
		*list = append(*list, *p)
		return nil
	})
}

func (s *Store) AppendReport(_ context.Context, r *model.ProblemReport) error {
	return s.reports.update(func(list *[]model.ProblemReport) error {
		*list = append(*list, *r)
		return nil
	})
}

func (s *Store) AppendSupport(_ context.Context, r *model.SupportRequest) error {
	return s.support.update(func(list *[]model.SupportRequest) error {
		*list = append(*list, *r)
		return nil
	})
}

// ListReports returns the newest reports first.
func (s *Store) ListReports(_ context.Context, limit int) ([]model.ProblemReport, error) {
	var out []model.ProblemReport
	err := s.reports.view(func(list []model.ProblemReport) error {
		out = newestFirst(list, limit)
		return nil
	})
	return out, err
}

// ListSupport returns the newest support requests first.
func (s *Store) ListSupport(_ context.Context, limit int) ([]model.SupportRequest, error) {
	var out []model.SupportRequest
	err := s.support.view(func(list []model.SupportRequest) error {
		out = newestFirst(list, limit)
		return nil
	})
	return out, err
}

func newestFirst[T any](list []T, limit int) []T {
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]T, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}

// SaveAttachment writes r to attachments/<uuid>-<basename>.
func (s *Store) SaveAttachment(_ context.Context, filename string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "", store.ErrInvalidInput
	}
	name := uuid.NewString() + "-" + base
	path := filepath.Join(s.dir, attachDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return name, nil
}
