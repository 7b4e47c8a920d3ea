package bridge

import (
	"context"
	"fmt"

	"github.com/ashvale/vesync-bridge/internal/vesync"
)

// Logger is the minimal logging interface the bridge needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// defaultMaxAttempts is the per-call retry budget.
const defaultMaxAttempts = 3

// RetryPolicy retries a single vendor call a fixed number of times
// with no delay between attempts. Delay is a session concern, not a
// per-call one: repeated failures grow the session backoff instead.
type RetryPolicy struct {
	maxAttempts int
	logger      Logger
}

// NewRetryPolicy creates a policy with the given attempt budget.
// maxAttempts < 1 uses the default of 3.
func NewRetryPolicy(maxAttempts int, logger Logger) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return RetryPolicy{maxAttempts: maxAttempts, logger: logger}
}

// Execute runs op, retrying on failure up to the attempt budget.
//
// Two classes stop the retry loop early: device-unavailable errors
// (the device will not come back within this pass) and context
// cancellation. On exhaustion the final error is wrapped with the
// device and operation names.
//
// Parameters:
//   - ctx: Context checked between attempts
//   - device: Device name for log and error context
//   - operation: Operation name for log and error context
//   - op: The vendor call
//
// Returns:
//   - error: nil on success, the classified final error otherwise
func (p RetryPolicy) Execute(ctx context.Context, device, operation string, op func(ctx context.Context) error) error {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempts = attempt
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		p.logger.Debug("device operation failed",
			"device", device,
			"operation", operation,
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
			"error", lastErr,
		)

		// Further attempts cannot succeed within this pass.
		if c := vesync.Classify(lastErr); c == vesync.ClassDeviceUnavailable || c == vesync.ClassPermanent {
			break
		}
	}

	return fmt.Errorf("%s failed for device %s after %d attempts: %w",
		operation, device, attempts, lastErr)
}
