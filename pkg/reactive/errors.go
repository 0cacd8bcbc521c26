package reactive

import (
	"errors"
	"fmt"
)

// ErrScheduler is the sentinel a host can match with errors.Is against the
// error Runtime's default OnSchedulerError routes to Logger.
var ErrScheduler = errors.New("scheduler: job failed")

// wrapSchedulerError wraps a job's returned error so errors.Is(err,
// ErrScheduler) holds, without discarding the job's own error chain.
func wrapSchedulerError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrScheduler, err)
}
