package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"fabrica-hq/vulcan/pkg/archive"
	"fabrica-hq/vulcan/pkg/archive/retention"
	"fabrica-hq/vulcan/pkg/bundle/git"
	"fabrica-hq/vulcan/pkg/bundle/manager"
	"fabrica-hq/vulcan/pkg/cli"
	"fabrica-hq/vulcan/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review service",
	Long: `Run the vulcan operational daemon.

The daemon keeps the configured rule bundle fresh (git sync and
hot-reload on file changes), prunes the review archive on its retention
schedule, and exposes a liveness probe:

  GET /healthz        liveness probe

Prometheus metrics are served on the configured metrics address. Reviews
themselves run through an external caller or the review subcommand.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.listenAddress, "listen", ":8080", "service listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := initializeConfig(); err != nil {
		return err
	}
	cfg := loadedConfig()
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	reviewMetrics := metrics.NewReviewMetrics(registry)

	// Git-hosted bundles sync into the bundle directory before loading.
	bundleDir := cfg.Bundle.Dir
	var (
		source *git.Source
		err    error
	)
	if cfg.Bundle.Git.Repo != "" {
		source, err = git.NewSource(cfg.Bundle.Git, cfg.Bundle.Dir, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		if err := source.Clone(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		bundleDir = source.BundleDir()
	}

	mgr, err := manager.New(bundleDir, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	mgr.OnReload(reviewMetrics.RecordBundleReload)

	if cfg.Bundle.Watch {
		watchCfg := manager.DefaultFileWatcherConfig()
		watchCfg.DebounceInterval = cfg.Bundle.WatchDebounce
		go func() {
			if err := mgr.Watch(ctx, watchCfg); err != nil {
				logger.Error("bundle watcher exited", "error", err)
			}
		}()
	}
	if source != nil {
		go func() {
			if err := source.Poll(ctx, mgr.Reload); err != nil {
				logger.Error("bundle git poller exited", "error", err)
			}
		}()
	}

	store, err := openServeArchive(cfg.Archive.Enabled)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	if store != nil {
		defer store.Close()

		pruner := retention.NewPruner(store, retention.Config{
			RetentionDays: cfg.Archive.Retention.Days,
			PruneSchedule: cfg.Archive.Retention.Schedule,
		})
		scheduler := retention.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer scheduler.Stop()
	}

	if cfg.Telemetry.Metrics.Enabled {
		go serveMetrics(cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path, registry, logger)
	}

	srv := &http.Server{
		Addr:         serveFlags.listenAddress,
		Handler:      newHealthHandler(mgr),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("daemon listening", "address", serveFlags.listenAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		logger.Info("daemon stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return cli.NewCommandError("serve", err)
	}
}

func openServeArchive(enabled bool) (archive.Store, error) {
	if !enabled {
		return nil, nil
	}
	cfg := loadedConfig()
	switch cfg.Archive.Backend {
	case "sqlite":
		return archive.NewSQLiteStore(&archive.SQLiteConfig{Path: cfg.Archive.SQLite.Path})
	case "memory":
		return archive.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

func serveMetrics(address, path string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logger.Info("metrics endpoint listening", "address", address, "path", path)
	if err := http.ListenAndServe(address, mux); err != nil {
		logger.Error("metrics endpoint failed", "error", err)
	}
}

// newHealthHandler serves the liveness probe. Healthy means a valid bundle
// is loaded.
func newHealthHandler(mgr *manager.Manager) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		b := mgr.Current()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok bundle=%s\n", b.Manifest.BundleVersion)
	})
	return mux
}
