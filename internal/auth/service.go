// Package auth implements sign-up, sign-in and password reset over the
// account stores.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"StockDash/internal/model"
	"StockDash/internal/observability"
	"StockDash/internal/store"
)

const DefaultTokenTTL = 24 * time.Hour

// Mailer delivers password reset links.
type Mailer interface {
	SendReset(ctx context.Context, to, link string) error
}

// Config controls hashing and reset tokens.
type Config struct {
	// TokenTTL bounds reset token lifetime; zero means tokens never expire.
	TokenTTL   time.Duration
	BcryptCost int
	// BaseURL is the externally visible address of the reset page.
	BaseURL string
}

// Service is the credential store.
type Service struct {
	users   store.UserStore
	tokens  store.TokenStore
	mailer  Mailer
	cfg     Config
	metrics *observability.Metrics
	now     func() time.Time

	dummyHash []byte
}

// NewService creates a Service. mailer may be nil, in which case reset links
// are only logged.
func NewService(users store.UserStore, tokens store.TokenStore, mailer Mailer, cfg Config, m *observability.Metrics) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	s := &Service{users: users, tokens: tokens, mailer: mailer, cfg: cfg, metrics: m, now: time.Now}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), cfg.BcryptCost)
	return s
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Confirm  string
}

// Register validates the form and creates the account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (u *model.User, err error) {
	defer func() { s.metrics.RecordAuth("signup", err) }()

	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	switch {
	case email == "":
		return nil, invalid("email", ErrRequired)
	case username == "":
		return nil, invalid("username", ErrRequired)
	case in.Password == "":
		return nil, invalid("password", ErrRequired)
	case !ValidEmail(email):
		return nil, invalid("email", ErrInvalidEmail)
	case PasswordStrength(in.Password) != Strong:
		return nil, invalid("password", ErrWeakPassword)
	case in.Password != in.Confirm:
		return nil, invalid("confirm", ErrMismatch)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u = &model.User{Email: email, Username: username, PasswordHash: string(hash), CreatedAt: now, UpdatedAt: now}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, invalid("email", ErrEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Printf("[INFO] Registered user %s", email)
	return u, nil
}

// Authenticate checks credentials and returns the username.
func (s *Service) Authenticate(ctx context.Context, email, password string) (username string, err error) {
	defer func() { s.metrics.RecordAuth("signin", err) }()

	u, err := s.users.GetUser(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// keep timing close to the known-user path
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return u.Username, nil
}

// RequestReset issues a single-use token for email and mails the link.
func (s *Service) RequestReset(ctx context.Context, email string) (token string, err error) {
	defer func() { s.metrics.RecordAuth("reset_request", err) }()

	email = normalizeEmail(email)
	if !ValidEmail(email) {
		return "", invalid("email", ErrInvalidEmail)
	}
	if _, err := s.users.GetUser(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", invalid("email", ErrUnknownEmail)
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	now := s.now().UTC()
	t := &model.ResetToken{Token: uuid.NewString(), Email: email, CreatedAt: now}
	if s.cfg.TokenTTL > 0 {
		t.ExpiresAt = now.Add(s.cfg.TokenTTL)
	}
	if err := s.tokens.PutToken(ctx, t); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	link := s.ResetLink(t.Token, email)
	if s.mailer == nil {
		log.Printf("[WARN] No mailer configured, reset link for %s: %s", email, link)
		return t.Token, nil
	}
	if err := s.mailer.SendReset(ctx, email, link); err != nil {
		return "", fmt.Errorf("send reset email: %w", err)
	}
	log.Printf("[INFO] Reset link sent to %s", email)
	return t.Token, nil
}

// ResetLink builds the URL mailed to the user.
func (s *Service) ResetLink(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/reset?" + q.Encode()
}

// CompleteReset sets a new password using a reset token. The token is
// consumed on success and cannot be used again.
func (s *Service) CompleteReset(ctx context.Context, token, email, newPassword, confirm string) (err error) {
	defer func() { s.metrics.RecordAuth("reset_complete", err) }()

	email = normalizeEmail(email)
	t, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("load reset token: %w", err)
	}
	if t.Email != email || t.Expired(s.now()) {
		return ErrInvalidToken
	}
	if newPassword != confirm {
		return invalid("confirm", ErrMismatch)
	}
	if PasswordStrength(newPassword) != Strong {
		return invalid("password", ErrWeakPassword)
	}

	// Only the caller that deletes the token may proceed.
	if _, err := s.tokens.ConsumeToken(ctx, token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	if err := s.setPassword(ctx, email, newPassword); err != nil {
		return err
	}
	log.Printf("[INFO] Password reset for %s", email)
	return nil
}

// ChangePassword updates the password of a signed-in user.
func (s *Service) ChangePassword(ctx context.Context, email, current, newPassword, confirm string) (err error) {
	defer func() { s.metrics.RecordAuth("change_password", err) }()

	if current == "" {
		return invalid("current", ErrRequired)
	}
	if _, err := s.Authenticate(ctx, email, current); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return invalid("current", ErrInvalidCredentials)
		}
		return err
	}
	if newPassword != confirm {
		return invalid("confirm", ErrMismatch)
	}
	if PasswordStrength(newPassword) != Strong {
		return invalid("password", ErrWeakPassword)
	}
	return s.setPassword(ctx, normalizeEmail(email), newPassword)
}

func (s *Service) setPassword(ctx context.Context, email, pw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, email, string(hash), s.now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// PurgeExpiredTokens deletes reset tokens past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int, error) {
	return s.tokens.DeleteExpiredTokens(ctx, s.now())
}
