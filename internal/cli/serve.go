package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/http"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/validation"
)

// ServeOptions holds the inputs of `datagen serve`.
type ServeOptions struct {
	Addr string
	// ValidatorOnly serves just the configured validator at /, for use as another
	// instance's HTTP validator.
	ValidatorOnly bool
}

// Handler builds the HTTP handler for rt.
func Handler(rt *Runtime, opts ServeOptions) http.Handler {
	if opts.ValidatorOnly {
		return validation.Handler(rt.Engine, rt.Logger)
	}
	return httpAdapter.NewHandler(rt.Engine,
		httpAdapter.WithStreams(rt.Streams),
		httpAdapter.WithMetrics(rt.Metrics.Handler()),
		httpAdapter.WithLogger(rt.Logger),
	)
}

// Serve listens on opts.Addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, rt *Runtime, opts ServeOptions) error {
	addr := opts.Addr
	if addr == "" {
		addr = rt.Config.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(rt, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		rt.Logger.Info("Server listening", "address", addr, "validator_only", opts.ValidatorOnly)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		rt.Logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}
