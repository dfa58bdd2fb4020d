package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vetclinic/internal/adapters/examinations"
	"vetclinic/internal/archive"
	"vetclinic/internal/blob"
	"vetclinic/internal/config"
	"vetclinic/internal/core"
	"vetclinic/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the examinations HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, a.logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	srv, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildServer wires storage, archive, metrics and the HTTP handler from cfg.
// cleanup releases the store.
func buildServer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*http.Server, func(), error) {
	engine := core.NewDefaultRulesEngine(cfg.Validation.RuleOptions())
	store, err := core.OpenPersistentStore(ctx, cfg.Storage.Core(), engine)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	cleanup := func() {
		if closer, ok := store.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("close storage", zap.Error(err))
			}
		}
	}

	opts := []core.Option{core.WithLogger(logger)}
	if cfg.Archive.Enabled() {
		objects, err := blob.Open(ctx, cfg.Archive.Blob())
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}
		opts = append(opts, core.WithArchive(archive.New(objects, logger)))
		logger.Info("archive enabled", zap.String("driver", string(objects.Driver())))
	}

	mux := http.NewServeMux()
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		opts = append(opts, core.WithMetrics(collector))
		mux.Handle(cfg.Metrics.Path, collector.Handler())
	}

	svc := core.NewService(store, opts...)
	var api http.Handler = examinations.NewHandler(svc, logger)
	if collector != nil {
		api = collector.Middleware(api)
	}
	mux.Handle("/api/v1/examinations", api)
	mux.Handle("/api/v1/examinations/", api)
	mux.Handle("/api/v1/openapi.yaml", examinations.NewOpenAPIHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	logger.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Strings("rules", engine.Rules()),
	)
	return &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, cleanup, nil
}
