// Package store defines the persistence contracts for accounts and form
// submissions. Backends live in the jsonfile and postgres subpackages.
package store

import (
	"context"
	"io"
	"time"

	"StockDash/internal/model"
)

// UserStore holds credential records keyed by lower-cased email.
type UserStore interface {
	// CreateUser adds a user. Returns ErrDuplicateKey if the email exists.
	CreateUser(ctx context.Context, u *model.User) error

	// GetUser returns the user for email. Returns ErrNotFound if not exists.
	GetUser(ctx context.Context, email string) (*model.User, error)

	// UpdatePassword replaces the password hash. Returns ErrNotFound if not exists.
	UpdatePassword(ctx context.Context, email, hash string, at time.Time) error
}

// TokenStore holds single-use reset tokens.
type TokenStore interface {
	// PutToken adds a token. Returns ErrDuplicateKey if the token exists.
	PutToken(ctx context.Context, t *model.ResetToken) error

	// GetToken returns a token without consuming it. Returns ErrNotFound if not exists.
	GetToken(ctx context.Context, token string) (*model.ResetToken, error)

	// ConsumeToken deletes the token and returns it. Of two concurrent calls only
	// one succeeds; the other gets ErrNotFound.
	ConsumeToken(ctx context.Context, token string) (*model.ResetToken, error)

	// DeleteExpiredTokens removes tokens expired at now and reports how many.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// RecordStore holds the append-only settings submissions.
type RecordStore interface {
	AppendProfile(ctx context.Context, p *model.Profile) error
	AppendReport(ctx context.Context, r *model.ProblemReport) error
	AppendSupport(ctx context.Context, s *model.SupportRequest) error

	// ListReports returns the newest limit reports, newest first. limit <= 0 means all.
	ListReports(ctx context.Context, limit int) ([]model.ProblemReport, error)

	// ListSupport returns the newest limit support requests, newest first.
	ListSupport(ctx context.Context, limit int) ([]model.SupportRequest, error)
}

// AttachmentStore keeps files uploaded with problem reports.
type AttachmentStore interface {
	// SaveAttachment stores r under a collision-free name derived from
	// filename and returns the stored name.
	SaveAttachment(ctx context.Context, filename string, r io.Reader) (string, error)
}
