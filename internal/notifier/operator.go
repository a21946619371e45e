package notifier

import (
	"context"
	"errors"
	"log"

	"StockDash/internal/model"
)

// ErrQueueFull is returned when alerts arrive faster than Telegram accepts them.
var ErrQueueFull = errors.New("notification queue full")

// Sender is the delivery side of an Operator.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Operator forwards new settings submissions to the operator chat. Messages
// are queued so form submissions never wait on Telegram.
type Operator struct {
	sender  Sender
	retries int
	queue   chan string
}

// NewOperator creates an Operator with a queue of the given size.
func NewOperator(s Sender, buffer, retries int) *Operator {
	if buffer <= 0 {
		buffer = 64
	}
	return &Operator{sender: s, retries: retries, queue: make(chan string, buffer)}
}

// NotifyReport queues a problem report alert.
func (o *Operator) NotifyReport(_ context.Context, r *model.ProblemReport) error {
	return o.enqueue(FormatReport(r))
}

// NotifySupport queues a support request alert.
func (o *Operator) NotifySupport(_ context.Context, r *model.SupportRequest) error {
	return o.enqueue(FormatSupport(r))
}

func (o *Operator) enqueue(text string) error {
	select {
	case o.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued messages until ctx is cancelled.
func (o *Operator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(o.queue); n > 0 {
				log.Printf("[WARN] %d operator notifications dropped on shutdown", n)
			}
			return
		case text := <-o.queue:
			if err := o.sender.SendWithRetry(ctx, text, o.retries); err != nil {
				log.Printf("[ERROR] send operator notification: %v", err)
			}
		}
	}
}
