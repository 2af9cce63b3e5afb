package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/stacktrace"
)

// callHandlerWithRecover turns a handler panic into an error so the delivery
// is nacked instead of killing the consumer loop.
func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		slog.ErrorContext(ctx, "message handler panicked",
			"driver", kind,
			"panic", rvr,
			"stack", stacktrace.InternalPaths(debug.Stack()),
		)
		err = fmt.Errorf("messaging: %s handler panic: %v", kind, rvr)
	}()

	return fn()
}
