package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/lodestone-dev/lodestone/pkg/observability"
)

// SafeGo runs fn in a goroutine with panic recovery and a timeout. The task
// is detached from the caller's context: cache refreshes triggered by a
// request must outlive that request. Errors and panics are logged, never
// returned; callers that need the result should not use SafeGo.
func SafeGo(logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.
					WithField("task", taskName).
					WithError(fmt.Errorf("panic: %v", r)).
					WithField("stack", string(debug.Stack())).
					Error("background task panicked")
			}
		}()

		if err := fn(ctx); err != nil {
			logger.WithField("task", taskName).WithError(err).Warn("background task failed")
		}
	}()
}
