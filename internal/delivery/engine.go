// Package delivery sends composed messages over SMTP and applies the
// retry policy that distinguishes transient relay trouble from failures
// that will never succeed.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/mailmerge/internal/message"
)

// DryRunDetail is the outcome detail used when nothing was transmitted.
const DryRunDetail = "DRY RUN - Email not sent"

const sentDetail = "Email sent successfully"

// Outcome is the result of a delivery attempt (or a full retry sequence).
type Outcome struct {
	Success bool
	Detail  string
}

// Sender transmits one composed message. Implementations should return
// errors classified via Classify (or pre-tagged with Wrap).
type Sender interface {
	Send(ctx context.Context, msg *message.Message) error
}

// Engine wraps a Sender with dry-run short-circuiting and the
// retry/backoff policy.
type Engine struct {
	sender      Sender
	logger      zerolog.Logger
	maxAttempts int
	baseBackoff time.Duration
	wait        func(ctx context.Context, d time.Duration) bool
}

// EngineOption customises engine behaviour.
type EngineOption func(*Engine)

// WithMaxAttempts overrides the attempt budget (default 3).
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithBaseBackoff overrides the first retry delay (default 5s). Attempt n
// waits base * 2^n.
func WithBaseBackoff(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d >= 0 {
			e.baseBackoff = d
		}
	}
}

// WithWaiter swaps the backoff sleep, mainly for tests.
func WithWaiter(wait func(ctx context.Context, d time.Duration) bool) EngineOption {
	return func(e *Engine) {
		if wait != nil {
			e.wait = wait
		}
	}
}

// NewEngine constructs a delivery engine around the supplied sender.
func NewEngine(sender Sender, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if sender == nil {
		return nil, errors.New("delivery: sender dependency is required")
	}

	e := &Engine{
		sender:      sender,
		logger:      logger,
		maxAttempts: 3,
		baseBackoff: 5 * time.Second,
	}
	e.wait = e.sleep

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e, nil
}

// Send performs a single delivery attempt. In dry-run mode it succeeds
// immediately without touching the transport.
func (e *Engine) Send(ctx context.Context, msg *message.Message, dryRun bool) Outcome {
	out, _ := e.attempt(ctx, msg, dryRun)
	return out
}

// SendWithRetry drives the attempt loop: permanent failures return
// immediately, transient ones back off (5s, 10s, 20s by default) until the
// attempt budget is spent.
func (e *Engine) SendWithRetry(ctx context.Context, msg *message.Message, dryRun bool) Outcome {
	for attempt := 0; ; attempt++ {
		out, derr := e.attempt(ctx, msg, dryRun)
		if out.Success {
			return out
		}

		logEvent := e.logger.Warn().
			Str("message_id", msg.MessageID).
			Str("to", msg.ToEmail).
			Int("attempt", attempt+1).
			Str("kind", derr.Kind.String())

		if derr.Kind.Permanent() {
			logEvent.Msg("delivery: permanent failure, not retrying")
			return out
		}

		if attempt >= e.maxAttempts-1 {
			logEvent.Msg("delivery: attempt budget exhausted")
			return Outcome{Success: false, Detail: fmt.Sprintf("Failed after %d attempts: %s", e.maxAttempts, out.Detail)}
		}

		backoff := e.baseBackoff * (1 << attempt)
		logEvent.Dur("backoff", backoff).Msg("delivery: transient failure, scheduling retry")

		if !e.wait(ctx, backoff) {
			return out
		}
	}
}

func (e *Engine) attempt(ctx context.Context, msg *message.Message, dryRun bool) (Outcome, *Error) {
	if dryRun {
		e.logger.Debug().
			Str("message_id", msg.MessageID).
			Str("to", msg.ToEmail).
			Msg("delivery: dry run, skipping transport")
		return Outcome{Success: true, Detail: DryRunDetail}, nil
	}

	if err := e.sender.Send(ctx, msg); err != nil {
		derr := Classify(err)
		return Outcome{Success: false, Detail: derr.Error()}, derr
	}

	return Outcome{Success: true, Detail: sentDetail}, nil
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
