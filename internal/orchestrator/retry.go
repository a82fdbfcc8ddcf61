package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gator-life/gator/internal/profile"
	"github.com/gator-life/gator/internal/storage"
)

// withRetry runs fn with bounded attempts and exponential backoff. Not-found
// and model-mismatch errors are permanent and returned immediately; everything
// else is treated as transient I/O.
func (o *Orchestrator) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := o.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := o.cfg.RetryBackoff
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, profile.ErrModelMismatch) {
			return err
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", op, attempts, err)
}
