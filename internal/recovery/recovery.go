// Package recovery turns goroutine panics into logged errors.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/postalsys/udpfaf/internal/logging"
)

// ErrPanic is wrapped by errors returned for a recovered panic.
var ErrPanic = errors.New("panic recovered")

// Run calls fn and returns its error. A panic inside fn is logged with its
// stack and returned as an error wrapping ErrPanic.
//
// Example:
//
//	go func() {
//	    errCh <- recovery.Run(logger, "probe-listener", func() error {
//	        return l.Serve(ctx, events)
//	    })
//	}()
func Run(logger *slog.Logger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if logger == nil {
				logger = logging.NopLogger()
			}
			logger.Error("panic recovered",
				logging.KeyComponent, name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()))
			err = fmt.Errorf("%w in %s: %v", ErrPanic, name, r)
		}
	}()

	return fn()
}
