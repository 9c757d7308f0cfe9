package filesystem

import "sync/atomic"

// Observer records filesystem operation metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for an operation:
	// "stat", "open".
	ObserveOperation(operation string, durationSeconds float64, err error)

	// ObserveRead records bytes streamed from a file and how long it took.
	ObserveRead(bytes int64, durationSeconds float64)

	ObserveRetryAttempt(operation string)
	ObserveRetrySuccess(operation string)
	ObserveRetryFailure(operation string)
	ObserveStaleError(operation string)
}

type observerHolder struct {
	o Observer
}

// defaultObserver is the package-level observer set at startup.
// If unset, metric recording is silently skipped (safe for tests).
var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

// observe is a nil-safe helper for the package-level observer.
func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.o
	}
	return nil
}

// Observe returns the observer configured for this RetryConfig.
func (c RetryConfig) Observe() Observer {
	return c.observer()
}
