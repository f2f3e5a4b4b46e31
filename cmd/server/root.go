package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/shelfwise/internal/app"
	"github.com/cesargomez89/shelfwise/internal/config"
	httpapp "github.com/cesargomez89/shelfwise/internal/http"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/store"
)

const shutdownTimeout = 5 * time.Second

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shelfwise",
		Short:         "Library enrichment server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSweepCommand())
	rootCmd.AddCommand(newRefreshCommand())
	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with the background workers and cache sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Warm the image cache once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			env, err := setup()
			if err != nil {
				return err
			}
			defer env.close()

			res, err := env.services.Sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Candidates: %d\nCached:     %d\nFetched:    %d\nFailed:     %d\n",
				res.Candidates, res.Cached, res.Fetched, res.Failed)
			return nil
		},
	}
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh every recommendation synchronously and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			env, err := setup()
			if err != nil {
				return err
			}
			defer env.close()

			start := time.Now()
			if err := env.services.RefreshRecommendationsNow(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recommendations refreshed in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

type environment struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *store.DB
	services *app.Services
}

func setup() (*environment, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}

	services, err := app.NewServices(cfg, db, appLogger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	appLogger.Info("Configuration loaded",
		"db", cfg.DBPath,
		"cache_dir", cfg.CacheDir,
		"cache_max", humanize.IBytes(uint64(cfg.CacheMaxBytes)),
		"recommendations", cfg.LLMEnabled(),
	)
	return &environment{cfg: cfg, logger: appLogger, db: db, services: services}, nil
}

func (e *environment) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Warn("Failed to close DB", "error", err)
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signalContext(parent)
	defer stop()

	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	env.services.Start(ctx, true)
	defer env.services.Stop()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := httpapp.NewHandler(env.services.Scheduler, env.services.Cache, env.services.Sweeper, env.logger)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + env.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	env.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	env.logger.Info("Server exiting")
	return nil
}
