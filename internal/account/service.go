// Package account handles the settings page forms: user details, problem
// reports and help requests.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"StockDash/internal/model"
	"StockDash/internal/observability"
	"StockDash/internal/store"
)

const (
	MaxNameLen = 50
	dateLayout = "2006-01-02"
)

var (
	Genders          = []string{"Male", "Female", "Other"}
	MaritalStatuses  = []string{"Single", "Married", "Divorced", "Widowed"}
	ReportCategories = []string{"Technical Issue", "Account Issue", "Billing Issue", "Feature Request", "Other"}
	AttachmentTypes  = []string{".png", ".jpg", ".jpeg", ".pdf"}
)

var (
	ErrRequired       = errors.New("this field is required")
	ErrTooLong        = fmt.Errorf("must be at most %d characters", MaxNameLen)
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrInvalidMobile  = errors.New("mobile number must be exactly 10 digits")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidChoice  = errors.New("not one of the allowed options")
	ErrAttachmentType = errors.New("attachment must be a png, jpg, jpeg or pdf file")
)

// ValidationError ties a validation failure to the form field that caused it.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	mobileRe = regexp.MustCompile(`^\d{10}$`)
)

// Notifier tells operators about new submissions.
type Notifier interface {
	NotifyReport(ctx context.Context, r *model.ProblemReport) error
	NotifySupport(ctx context.Context, r *model.SupportRequest) error
}

// Service validates and stores settings submissions.
type Service struct {
	records     store.RecordStore
	attachments store.AttachmentStore
	notifier    Notifier
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewService creates a Service. notifier may be nil.
func NewService(records store.RecordStore, attachments store.AttachmentStore, n Notifier, m *observability.Metrics) *Service {
	return &Service{records: records, attachments: attachments, notifier: n, metrics: m, now: time.Now}
}

// ProfileInput is the user details form.
type ProfileInput struct {
	Name          string
	DateOfBirth   string
	Gender        string
	Mobile        string
	MaritalStatus string
	Email         string
}

// SaveProfile validates the user details form and appends it to the store.
func (s *Service) SaveProfile(ctx context.Context, in ProfileInput, submittedBy string) (*model.Profile, error) {
	name := strings.TrimSpace(in.Name)
	mobile := strings.TrimSpace(in.Mobile)
	email := strings.TrimSpace(in.Email)

	switch {
	case name == "":
		return nil, &ValidationError{"name", ErrRequired}
	case utf8.RuneCountInString(name) > MaxNameLen:
		return nil, &ValidationError{"name", ErrTooLong}
	case !emailRe.MatchString(email):
		return nil, &ValidationError{"email", ErrInvalidEmail}
	case !mobileRe.MatchString(mobile):
		return nil, &ValidationError{"mobile", ErrInvalidMobile}
	case !slices.Contains(Genders, in.Gender):
		return nil, &ValidationError{"gender", ErrInvalidChoice}
	case !slices.Contains(MaritalStatuses, in.MaritalStatus):
		return nil, &ValidationError{"marital_status", ErrInvalidChoice}
	}
	dob, err := time.Parse(dateLayout, strings.TrimSpace(in.DateOfBirth))
	if err != nil || dob.After(s.now()) {
		return nil, &ValidationError{"date_of_birth", ErrInvalidDate}
	}

	p := &model.Profile{
		ID:            uuid.NewString(),
		Name:          name,
		DateOfBirth:   dob.Format(dateLayout),
		Gender:        in.Gender,
		Mobile:        mobile,
		MaritalStatus: in.MaritalStatus,
		Email:         email,
		SubmittedBy:   submittedBy,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.records.AppendProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.metrics.RecordSubmission("profile")
	return p, nil
}

// ReportInput is the report a problem form. Attachment is optional.
type ReportInput struct {
	Category       string
	Description    string
	AttachmentName string
	Attachment     io.Reader
}

// SubmitReport validates and stores a problem report, saving its attachment
// under a unique name, and notifies operators.
func (s *Service) SubmitReport(ctx context.Context, in ReportInput, submittedBy string) (*model.ProblemReport, error) {
	desc := strings.TrimSpace(in.Description)
	if !slices.Contains(ReportCategories, in.Category) {
		return nil, &ValidationError{"category", ErrInvalidChoice}
	}
	if desc == "" {
		return nil, &ValidationError{"description", ErrRequired}
	}

	r := &model.ProblemReport{
		ID:          uuid.NewString(),
		Category:    in.Category,
		Description: desc,
		SubmittedBy: submittedBy,
		CreatedAt:   s.now().UTC(),
	}
	if in.Attachment != nil && in.AttachmentName != "" {
		ext := strings.ToLower(filepath.Ext(in.AttachmentName))
		if !slices.Contains(AttachmentTypes, ext) {
			return nil, &ValidationError{"attachment", ErrAttachmentType}
		}
		name, err := s.attachments.SaveAttachment(ctx, in.AttachmentName, in.Attachment)
		if err != nil {
			return nil, fmt.Errorf("save attachment: %w", err)
		}
		r.Attachment = &name
	}

	if err := s.records.AppendReport(ctx, r); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	s.metrics.RecordSubmission("report")
	if s.notifier != nil {
		if err := s.notifier.NotifyReport(ctx, r); err != nil {
			log.Printf("[WARN] Report %s saved but operators not notified: %v", r.ID, err)
		}
	}
	return r, nil
}

// SupportInput is the help and support form. Every field is required.
type SupportInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// SubmitSupport validates and stores a support request and notifies operators.
func (s *Service) SubmitSupport(ctx context.Context, in SupportInput) (*model.SupportRequest, error) {
	fields := []struct{ name, value string }{
		{"name", in.Name}, {"email", in.Email}, {"subject", in.Subject}, {"message", in.Message},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, &ValidationError{f.name, ErrRequired}
		}
	}
	email := strings.TrimSpace(in.Email)
	if !emailRe.MatchString(email) {
		return nil, &ValidationError{"email", ErrInvalidEmail}
	}

	r := &model.SupportRequest{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		CreatedAt: s.now().UTC(),
	}
	if err := s.records.AppendSupport(ctx, r); err != nil {
		return nil, fmt.Errorf("save support request: %w", err)
	}
	s.metrics.RecordSubmission("support")
	if s.notifier != nil {
		if err := s.notifier.NotifySupport(ctx, r); err != nil {
			log.Printf("[WARN] Support request %s saved but operators not notified: %v", r.ID, err)
		}
	}
	return r, nil
}
