package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/textremind/internal/config"
	"golang.org/x/sync/errgroup"
)

// Serve runs the HTTP API and, when enabled, the message dispatcher until ctx
// is done. Shutdown waits for in-flight requests up to the configured timeout.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	b, err := NewBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("closing backend", "error", err)
		}
	}()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
	}
	return serve(ctx, ln, b, cfg, logger)
}

func serve(ctx context.Context, ln net.Listener, b *Backend, cfg *config.Config, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	})

	if cfg.Dispatch.Enabled {
		d := b.Dispatcher()
		g.Go(func() error {
			logger.Info("dispatcher started")
			return d.Run(gctx)
		})
	}

	return g.Wait()
}
