package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// ErrDataUnavailable marks a fetch that failed after all retries.
var ErrDataUnavailable = errors.New("data unavailable")

// StatusError is a non-200 provider response.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Provider, e.Code, e.Body)
}

// Retryable reports whether err is worth another attempt.
// Client errors other than 429 are permanent, as is a missing result.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoData) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// RetryPolicy controls Retry.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Retry runs fn with exponential backoff (BaseDelay << attempt) until it
// succeeds, returns a permanent error, or the retries are exhausted.
func Retry(ctx context.Context, p RetryPolicy, label string, fn func(ctx context.Context) error) error {
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	var lastErr error
	for i := 0; i <= p.MaxRetries; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !Retryable(err) || i == p.MaxRetries {
			break
		}
		backoff := p.BaseDelay << uint(i)
		log.Printf("[WARN] %s failed (attempt %d/%d): %v, retrying in %v", label, i+1, p.MaxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%s: %w", label, lastErr)
}
