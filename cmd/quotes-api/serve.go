package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpapi "github.com/tbourn/go-quotes-api/internal/http"
	"github.com/tbourn/go-quotes-api/internal/observability"
	"github.com/tbourn/go-quotes-api/internal/repo"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	gin.SetMode(cfg.GinMode)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, a.version)
	if err != nil {
		return err
	}
	defer func() {
		otelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(otelCtx); err != nil {
			a.log.Error().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer a.closeStore(db)

	if err := repo.RegisterPoolMetrics(db, prometheus.DefaultRegisterer, cfg.DB.Driver); err != nil {
		a.log.Warn().Err(err).Msg("pool metrics not registered")
	}

	if cfg.DB.SeedOnStart {
		seeded, err := repo.SeedIfEmpty(ctx, db)
		if err != nil {
			return err
		}
		if seeded {
			a.log.Info().Msg("empty quotes table seeded")
		}
	}

	if every := cfg.IdempotencySweepInterval; every > 0 {
		sweepCtx, stopSweep := context.WithCancel(ctx)
		swept := make(chan struct{})
		go func() {
			defer close(swept)
			a.sweepIdempotency(sweepCtx, db, every)
		}()
		defer func() {
			stopSweep()
			<-swept
		}()
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return a.log.WithContext(context.Background()) },
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Env).
			Str("version", a.version).
			Str("commit", Commit).
			Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	return waitForShutdown(ctx, a, srv, serverErr)
}

// waitForShutdown blocks until ctx is cancelled by a signal or the server
// fails, then drains in-flight requests within SHUTDOWN_TIMEOUT.
func waitForShutdown(ctx context.Context, a *app, srv *http.Server, serverErr <-chan error) error {
	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.log.Info().Dur("timeout", a.cfg.ShutdownTimeout).Msg("draining http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info().Msg("shutdown complete")
	return nil
}
