package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tqwhite/unity-data-generator-sub000/internal/logging"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger configures the application logger. Logs always go to stderr so stdout
// stays clean for reports.
func CreateLogger(level string, jsonLogs bool) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(os.Stderr, lvl, jsonLogs), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnThinkerStart: func(ctx context.Context, e *domain.ThinkerEvent) {
			logger.Debug("Enter Thinker", "run_id", e.RunID, "conversation", e.Conversation, "thinker", e.Thinker)
		},
		OnThinkerFinish: func(ctx context.Context, e *domain.ThinkerEvent) {
			if e.Err != nil {
				logger.Debug("Leave Thinker (Error)", "run_id", e.RunID, "thinker", e.Thinker, "err", e.Err)
				return
			}
			logger.Debug("Leave Thinker", "run_id", e.RunID, "thinker", e.Thinker, "duration", e.Duration)
		},
		OnAttempt: func(ctx context.Context, e *domain.AttemptEvent) {
			logger.Debug("Attempt", "run_id", e.RunID, "attempt", e.Attempt, "max", e.MaxIterations)
		},
		OnValidation: func(ctx context.Context, e *domain.ValidationEvent) {
			logger.Debug("Validation", "run_id", e.RunID, "attempt", e.Attempt, "passed", e.Outcome.Passed, "benign", e.Benign)
		},
	}
}

// IsInterrupted reports whether err stems from a cancelled context.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// HandleExecutionError turns interruptions into a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || IsInterrupted(err) {
		return nil
	}
	return err
}
