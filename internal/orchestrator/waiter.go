package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/clock"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/executor"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrNotReady is returned when a resource did not become ready within the poll budget.
var ErrNotReady = errors.New("resource not ready")

// readinessCheck reports whether the resource is ready. Returning false with
// a nil error asks for another poll; any error aborts the wait.
type readinessCheck func(ctx context.Context) (bool, error)

// waiter polls GitHub until a freshly created resource is visible. It
// replaces fixed sleeps after creation with a bounded number of checks
// spaced by a fixed interval on the injected clock.
type waiter struct {
	clock    clock.Clock
	attempts int
	interval time.Duration
	logger   *zap.Logger
}

func newWaiter(clk clock.Clock, attempts int, interval time.Duration, logger *zap.Logger) *waiter {
	if attempts < 1 {
		attempts = 1
	}
	return &waiter{clock: clk, attempts: attempts, interval: interval, logger: logger}
}

// until runs check until it reports ready. The first check happens
// immediately.
func (w *waiter) until(ctx context.Context, what string, check readinessCheck) error {
	polls := 0
	backoff := retry.WithMaxRetries(
		uint64(w.attempts-1),
		executor.ClockBackoff(ctx, w.clock, func() time.Duration { return w.interval }),
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		polls++
		ready, err := check(ctx)
		if err != nil {
			return err
		}
		if !ready {
			w.logger.Debug("waiting for resource",
				zap.String("resource", what),
				zap.Int("poll", polls),
				zap.Int("max_polls", w.attempts))
			return retry.RetryableError(ErrNotReady)
		}
		return nil
	})
	if errors.Is(err, ErrNotReady) {
		return fmt.Errorf("%s: %w after %d poll(s)", what, ErrNotReady, polls)
	}
	return err
}
