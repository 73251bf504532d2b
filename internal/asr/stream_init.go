package asr

import (
	"context"
	"fmt"
	"time"
)

// errInitTimeout marks a stalled stream open or initial send.
type errInitTimeout struct{ after time.Duration }

func (e errInitTimeout) Error() string { return fmt.Sprintf("timed out after %s", e.after) }

// runWithTimeout bounds one blocking stream-setup call. The call keeps
// running in the background if the bound expires; callers close the
// connection to release it.
func runWithTimeout(ctx context.Context, timeout time.Duration, call func() error) error {
	if timeout <= 0 {
		return call()
	}

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- call()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errInitTimeout{after: timeout}
	case err := <-resultCh:
		return err
	}
}
