package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/observability"
	"github.com/testforge/shopsuite/internal/runner"
	"github.com/testforge/shopsuite/internal/scenarios"
	"github.com/testforge/shopsuite/internal/storage"
)

type runFlags struct {
	suites  []string
	ids     []string
	workers int
	retries int
	headed  bool
	baseURL string
	verbose bool
}

// errRunFailed makes the process exit non-zero after the summary was printed
var errRunFailed = errors.New("run failed")

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scenarios from the catalog",
		Example: `  shopsuite run
  shopsuite run --suite cart,checkout --workers 2
  shopsuite run --ids TC1,TC14 --headed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			return runSuite(cmd.Context(), cfg, f)
		},
	}

	cmd.Flags().StringSliceVarP(&f.suites, "suite", "s", nil, "suites to run (auth, products, cart, checkout, misc, e2e)")
	cmd.Flags().StringSliceVar(&f.ids, "ids", nil, "scenario IDs to run, e.g. TC1,TC14")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "parallel browser contexts (overrides RUNNER_WORKERS)")
	cmd.Flags().IntVar(&f.retries, "retries", -1, "retries per scenario (overrides RUNNER_RETRIES)")
	cmd.Flags().BoolVar(&f.headed, "headed", false, "show the browser window")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "site under test (overrides BASE_URL)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log to stderr instead of the artifacts log file")
	return cmd
}

// apply copies explicitly set flags over the environment configuration
func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Runner.Workers = f.workers
	}
	if flags.Changed("retries") {
		cfg.Runner.Retries = f.retries
	}
	if flags.Changed("headed") {
		cfg.Browser.Headless = !f.headed
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	return cfg.Validate()
}

func runSuite(ctx context.Context, cfg *config.Config, f runFlags) error {
	list, err := scenarios.Select(scenarios.Catalog(), f.suites, f.ids)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		yellow.Println("No scenarios selected")
		return nil
	}

	if err := os.MkdirAll(cfg.Artifacts.Dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts dir: %w", err)
	}
	var logger *zap.Logger
	if f.verbose {
		logger = initLogger(cfg.IsCI(), cfg.GetLogLevel())
	} else {
		logger = initLogger(cfg.IsCI(), cfg.GetLogLevel(), filepath.Join(cfg.Artifacts.Dir, "shopsuite.log"))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	if cfg.Metrics.ListenAddr != "" {
		srv := serveMetrics(cfg.Metrics.ListenAddr, metrics, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	b, err := browser.Launch(browser.LaunchOptions{
		Engine:   cfg.Browser.Engine,
		Headless: cfg.Browser.Headless,
		SlowMo:   cfg.Browser.SlowMo,
		Install:  cfg.Browser.Install,
	}, logger)
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	defer b.Close()

	bar := newProgressBar(len(list))
	r := runner.New(b, cfg, logger,
		runner.WithMetrics(metrics),
		runner.WithStore(store),
		runner.OnResult(func(res runner.Result) {
			bar.Describe(fmt.Sprintf("   %-6s %s", res.ID, res.Status))
			_ = bar.Add(1)
		}),
	)

	printHeader(cfg, r.RunID(), len(list))
	summary, runErr := r.Run(ctx, list)
	_ = bar.Finish()

	printResults(summary)
	printSummary(summary)
	exportMetrics(cfg, metrics, summary.RunID, logger)

	if runErr != nil {
		return runErr
	}
	if summary.Failed() {
		return errRunFailed
	}
	return nil
}

// openStore returns the local artifacts store, teed to MinIO when uploads are enabled
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	local := storage.NewLocalStore(cfg.Artifacts.Dir)
	if !cfg.Artifacts.Upload {
		return local, nil
	}

	remote, err := storage.NewMinIOStore(storage.MinIOConfigFrom(cfg.Artifacts))
	if err != nil {
		return nil, fmt.Errorf("connecting to artifact storage: %w", err)
	}
	if err := remote.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("preparing bucket %s: %w", remote.Bucket(), err)
	}
	logger.Info("Uploading failure artifacts",
		zap.String("endpoint", cfg.Artifacts.S3Endpoint),
		zap.String("bucket", remote.Bucket()),
	)
	return storage.Tee{local, remote}, nil
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func exportMetrics(cfg *config.Config, metrics *observability.Metrics, runID string, logger *zap.Logger) {
	if path := cfg.Metrics.TextfilePath; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(ctx, url, cfg.Metrics.PushJob, map[string]string{"run_id": runID}); err != nil {
			logger.Warn("Failed to push metrics", zap.String("url", url), zap.Error(err))
		}
	}
}
