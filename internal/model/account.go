package model

import "time"

// User is a credential record keyed by lower-cased email.
type User struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResetToken is a single-use password reset grant.
type ResetToken struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token is past its expiry. A zero ExpiresAt never expires.
func (t ResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Profile is a saved "user details" form.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DateOfBirth   string    `json:"date_of_birth"`
	Gender        string    `json:"gender"`
	Mobile        string    `json:"mobile"`
	MaritalStatus string    `json:"marital_status"`
	Email         string    `json:"email"`
	SubmittedBy   string    `json:"submitted_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProblemReport is a "report a problem" submission.
type ProblemReport struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Attachment  *string   `json:"attachment"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupportRequest is a help-and-support form submission.
type SupportRequest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
