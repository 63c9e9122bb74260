// Package runner schedules catalog scenarios over isolated browser contexts.
// Each attempt gets a fresh context, page and action stack; scenarios run in
// parallel up to the configured worker count while the journeys themselves
// stay strictly sequential.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/domain"
	"github.com/testforge/shopsuite/internal/fixtures"
	"github.com/testforge/shopsuite/internal/observability"
	"github.com/testforge/shopsuite/internal/pages"
	"github.com/testforge/shopsuite/internal/scenarios"
	"github.com/testforge/shopsuite/internal/storage"
)

// Status is the final outcome of a scenario
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFlaky   Status = "flaky"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one scenario across all its attempts
type Result struct {
	ID        string
	Name      string
	Suite     scenarios.Suite
	Status    Status
	Attempts  int
	Duration  time.Duration
	Err       error
	Artifacts []string
}

// Summary is the outcome of a run
type Summary struct {
	RunID    string
	Results  []Result
	Duration time.Duration
}

// Count returns how many results have status s
func (s Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any scenario failed or was skipped
func (s Summary) Failed() bool {
	return s.Count(StatusFailed) > 0 || s.Count(StatusSkipped) > 0
}

// Option configures a Runner
type Option func(*Runner)

// WithMetrics records scenario, action and wait metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithStore saves failure screenshots to s
func WithStore(s storage.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithRunID overrides the generated run ID
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// OnStart is called when a scenario's first attempt begins
func OnStart(fn func(sc scenarios.Scenario)) Option {
	return func(r *Runner) { r.onStart = fn }
}

// OnResult is called once per scenario when it finishes. Calls may come from
// several goroutines.
func OnResult(fn func(Result)) Option {
	return func(r *Runner) { r.onResult = fn }
}

// Runner executes scenarios against a browser
type Runner struct {
	browser  browser.Browser
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *observability.Metrics
	store    storage.Store
	breaker  *Breaker
	limiter  *rate.Limiter
	runID    string
	retries  int
	onStart  func(scenarios.Scenario)
	onResult func(Result)
}

// New creates a runner. The browser is owned by the caller.
func New(b browser.Browser, cfg *config.Config, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		browser: b,
		cfg:     cfg,
		logger:  logger,
		runID:   fixtures.NewRunID(),
		retries: cfg.Runner.EffectiveRetries(cfg.IsCI()),
	}
	for _, opt := range opts {
		opt(r)
	}

	limit := rate.Inf
	if cfg.Runner.StartsPerSecond > 0 {
		limit = rate.Limit(cfg.Runner.StartsPerSecond)
	}
	r.limiter = rate.NewLimiter(limit, max(1, cfg.Runner.Workers))

	r.breaker = NewBreaker(BreakerConfig{
		Threshold: cfg.Runner.BreakerThreshold,
		Cooldown:  cfg.Runner.BreakerCooldown,
		OnStateChange: func(from, to BreakerState) {
			r.logger.Warn("Site breaker state changed",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			r.metrics.SetBreakerOpen(to == BreakerOpen)
		},
	})

	r.logger = r.logger.With(zap.String("run_id", r.runID))
	return r
}

// RunID identifies this run in logs, metrics and artifact keys
func (r *Runner) RunID() string { return r.runID }

// Breaker returns the site breaker shared by all scenarios of the run
func (r *Runner) Breaker() *Breaker { return r.breaker }

// Run executes list and returns one result per scenario in list order.
// Scenario failures are reported in the summary, not as an error; the error
// is non-nil only when ctx ended before every scenario was scheduled.
func (r *Runner) Run(ctx context.Context, list []scenarios.Scenario) (Summary, error) {
	start := time.Now()
	results := make([]Result, len(list))
	scheduled := make([]bool, len(list))

	workers := max(1, r.cfg.Runner.Workers)
	r.logger.Info("Starting run",
		zap.Int("scenarios", len(list)),
		zap.Int("workers", workers),
		zap.Int("retries", r.retries),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var schedErr error
	for i, sc := range list {
		if err := r.limiter.Wait(gctx); err != nil {
			schedErr = fmt.Errorf("scheduling %s: %w", sc.ID, err)
			break
		}
		scheduled[i] = true
		g.Go(func() error {
			results[i] = r.runScenario(gctx, sc)
			if r.onResult != nil {
				r.onResult(results[i])
			}
			return nil // failures are results, not group errors
		})
	}

	_ = g.Wait()

	for i, sc := range list {
		if !scheduled[i] {
			results[i] = r.skipped(sc, schedErr)
			if r.onResult != nil {
				r.onResult(results[i])
			}
		}
	}

	summary := Summary{RunID: r.runID, Results: results, Duration: time.Since(start)}
	r.logger.Info("Run finished",
		zap.Int("passed", summary.Count(StatusPassed)),
		zap.Int("flaky", summary.Count(StatusFlaky)),
		zap.Int("failed", summary.Count(StatusFailed)),
		zap.Int("skipped", summary.Count(StatusSkipped)),
		zap.Duration("duration", summary.Duration),
	)
	return summary, schedErr
}

func (r *Runner) skipped(sc scenarios.Scenario, err error) Result {
	if err == nil {
		err = context.Canceled
	}
	res := Result{ID: sc.ID, Name: sc.Name, Suite: sc.Suite, Status: StatusSkipped, Err: err}
	r.metrics.RecordScenario(string(sc.Suite), string(StatusSkipped), 0)
	return res
}

func (r *Runner) runScenario(ctx context.Context, sc scenarios.Scenario) Result {
	logger := r.logger.With(zap.String("scenario", sc.ID))

	if err := ctx.Err(); err != nil {
		return r.skipped(sc, err)
	}
	if err := r.breaker.Allow(); err != nil {
		logger.Warn("Scenario skipped", zap.Error(err))
		return r.skipped(sc, err)
	}

	if r.onStart != nil {
		r.onStart(sc)
	}
	done := r.metrics.ScenarioStarted()
	defer done()

	res := Result{ID: sc.ID, Name: sc.Name, Suite: sc.Suite}
	start := time.Now()

	var err error
	for attempt := 1; attempt <= r.retries+1; attempt++ {
		if attempt > 1 {
			r.metrics.RecordRetry(sc.ID)
			logger.Info("Retrying scenario", zap.Int("attempt", attempt), zap.Error(err))
		}
		res.Attempts = attempt

		var artifacts []string
		artifacts, err = r.attempt(ctx, sc, attempt, logger.With(zap.Int("attempt", attempt)))
		res.Artifacts = append(res.Artifacts, artifacts...)
		if err == nil || ctx.Err() != nil {
			break
		}
	}

	r.breaker.Record(err)
	res.Duration = time.Since(start)

	switch {
	case err == nil && res.Attempts > 1:
		res.Status = StatusFlaky
	case err == nil:
		res.Status = StatusPassed
	default:
		res.Status = StatusFailed
		res.Err = domain.ErrScenarioFailed(sc.ID, res.Attempts, err)
	}

	r.metrics.RecordScenario(string(sc.Suite), string(res.Status), res.Duration)
	if res.Err != nil {
		logger.Error("Scenario failed",
			zap.Int("attempts", res.Attempts),
			zap.Duration("duration", res.Duration),
			zap.String("code", domain.GetErrorCode(err)),
			zap.Error(err),
		)
	} else {
		logger.Info("Scenario passed",
			zap.Int("attempts", res.Attempts),
			zap.Duration("duration", res.Duration),
		)
	}
	return res
}

// attempt runs sc once in a fresh browser context. It returns the locations
// of any failure artifacts.
func (r *Runner) attempt(ctx context.Context, sc scenarios.Scenario, attempt int, logger *zap.Logger) ([]string, error) {
	timeout := r.cfg.Runner.ScenarioTimeout
	var (
		actx   context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		actx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		actx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	bctx, err := r.browser.NewContext(browser.ContextOptions{
		BaseURL:           r.cfg.BaseURL,
		ActionTimeout:     r.cfg.Timeouts.Action,
		NavigationTimeout: r.cfg.Timeouts.Navigation,
		BlockPatterns:     r.cfg.Browser.BlockPatterns,
		AcceptDialogs:     r.cfg.Browser.AcceptDialogs,
	})
	if err != nil {
		return nil, fmt.Errorf("opening browser context: %w", err)
	}
	closed := false
	closeContext := func() {
		if closed {
			return
		}
		closed = true
		if err := bctx.Close(); err != nil {
			logger.Warn("Failed to close browser context", zap.Error(err))
		}
	}
	defer closeContext()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}

	session, err := pages.NewSession(page, r.cfg, logger, r.metrics)
	if err != nil {
		return nil, fmt.Errorf("building session: %w", err)
	}
	env := scenarios.NewEnv(session, r.cfg)

	start := time.Now()
	result := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				result <- domain.NewError(domain.ErrCodeInternal, fmt.Sprintf("scenario panicked: %v", rec))
			}
		}()
		result <- sc.Run(actx, env)
	}()

	select {
	case err = <-result:
	case <-actx.Done():
		// closing the context fails whatever browser call is in flight
		closeContext()
		err = <-result
	}

	switch {
	case err == nil:
		return nil, nil
	case ctx.Err() != nil:
		return nil, err
	case errors.Is(actx.Err(), context.DeadlineExceeded):
		return nil, domain.ErrTimeout("finished", sc.ID, timeout, time.Since(start), err)
	}
	return r.captureFailure(ctx, sc, attempt, page, logger), err
}

func (r *Runner) captureFailure(ctx context.Context, sc scenarios.Scenario, attempt int, page browser.Page, logger *zap.Logger) []string {
	if r.store == nil || !r.cfg.Artifacts.Screenshots {
		return nil
	}

	data, err := page.Screenshot(true)
	if err != nil {
		logger.Warn("Failed to take failure screenshot", zap.Error(err))
		return nil
	}

	key := storage.ScreenshotKey(r.cfg.Artifacts.ScreenshotPath, r.runID, sc.ID, attempt, time.Now().UTC())
	loc, err := r.store.Save(ctx, key, data)
	if err != nil {
		logger.Warn("Failed to store failure screenshot", zap.String("key", key), zap.Error(err))
		return nil
	}
	logger.Info("Failure screenshot saved", zap.String("location", loc))
	artifacts := []string{loc}

	linker, ok := r.store.(storage.Linker)
	if !ok || r.cfg.Artifacts.LinkExpiry <= 0 {
		return artifacts
	}
	link, err := linker.PresignedURL(ctx, key, r.cfg.Artifacts.LinkExpiry)
	switch {
	case errors.Is(err, storage.ErrNoLinker):
	case err != nil:
		logger.Warn("Failed to sign screenshot link", zap.String("key", key), zap.Error(err))
	default:
		logger.Info("Failure screenshot link", zap.String("url", link), zap.Duration("expiry", r.cfg.Artifacts.LinkExpiry))
		artifacts = append(artifacts, link)
	}
	return artifacts
}
