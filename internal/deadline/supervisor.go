package deadline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"scrawl/internal/logging"
	"scrawl/internal/services"
)

const (
	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 5 * time.Second
)

// Policy describes retry and timeout behavior for one class of external call.
type Policy struct {
	// PerAttempt bounds a single invocation of the operation.
	PerAttempt time.Duration
	// MaxAttempts bounds total invocations, first attempt included.
	MaxAttempts int
	// BaseDelay and MaxDelay shape the exponential backoff between attempts.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Supervisor runs operations under a Policy. It guarantees a return within
// PerAttempt x MaxAttempts plus accumulated backoff, classifies the terminal
// failure as timeout or external-service error, and never retries across a
// cancelled parent context.
type Supervisor struct {
	policy  Policy
	sleeper func(time.Duration)
	logger  *slog.Logger
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(s *Supervisor) {
		s.sleeper = sleeper
	}
}

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSupervisor constructs a Supervisor from the supplied policy.
func NewSupervisor(policy Policy, opts ...Option) *Supervisor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = defaultBaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = defaultMaxDelay
	}
	s := &Supervisor{policy: policy, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs op under the supervisor's policy. The callback receives a
// context carrying the per-attempt deadline and must honor cancellation.
func (s *Supervisor) Execute(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := Run(ctx, s, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Run is the generic form of Execute for operations that produce a value.
func Run[T any](ctx context.Context, s *Supervisor, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, services.Wrap(services.ErrTimeout, "deadline", op, "budget exhausted", err)
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if s.policy.PerAttempt > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, s.policy.PerAttempt)
		}
		result, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		lastErr = err

		timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout)
		if ctx.Err() != nil {
			// Parent budget gone; the attempt error is just a symptom.
			return zero, services.Wrap(services.ErrTimeout, "deadline", op, "budget exhausted", lastErr)
		}
		if !timedOut && !services.Retryable(err) {
			return zero, err
		}

		s.logger.Debug("attempt failed",
			logging.String(logging.FieldEventType, "attempt_failed"),
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Bool("timed_out", timedOut),
			logging.Error(err),
		)

		if attempt == s.policy.MaxAttempts {
			break
		}
		if err := s.sleep(ctx, s.backoffDelay(attempt)); err != nil {
			return zero, services.Wrap(services.ErrTimeout, "deadline", op, "budget exhausted", err)
		}
	}

	marker := services.ErrExternalTool
	if errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, services.ErrTimeout) {
		marker = services.ErrTimeout
	}
	return zero, services.Wrap(marker, "deadline", op, "all attempts failed", lastErr)
}

func (s *Supervisor) backoffDelay(attempt int) time.Duration {
	delay := s.policy.BaseDelay
	for i := 1; i < attempt; i++ {
		if delay > s.policy.MaxDelay/2 {
			return s.policy.MaxDelay
		}
		delay *= 2
	}
	if delay > s.policy.MaxDelay {
		return s.policy.MaxDelay
	}
	return delay
}

func (s *Supervisor) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if s.sleeper != nil {
		s.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SubBudget derives a child context whose deadline is a fraction of the
// parent's remaining budget, so no single stage can consume the whole run.
// When the parent carries no deadline the ceiling applies directly.
func SubBudget(parent context.Context, fraction float64, ceiling time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if fraction <= 0 || fraction > 1 {
		fraction = 1
	}
	if deadline, ok := parent.Deadline(); ok {
		remaining := time.Until(deadline)
		budget := time.Duration(float64(remaining) * fraction)
		if ceiling > 0 && budget > ceiling {
			budget = ceiling
		}
		return context.WithTimeout(parent, budget)
	}
	if ceiling > 0 {
		return context.WithTimeout(parent, ceiling)
	}
	return context.WithCancel(parent)
}
