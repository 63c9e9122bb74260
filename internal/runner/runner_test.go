package runner

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testforge/shopsuite/internal/browser/browsertest"
	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/domain"
	"github.com/testforge/shopsuite/internal/observability"
	"github.com/testforge/shopsuite/internal/scenarios"
	"github.com/testforge/shopsuite/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		BaseURL: "https://shop.test",
		Timeouts: config.Timeouts{
			Global:     time.Second,
			Action:     50 * time.Millisecond,
			Navigation: 50 * time.Millisecond,
			Element:    50 * time.Millisecond,
			Assertion:  50 * time.Millisecond,
		},
		Browser: config.BrowserConfig{
			BlockPatterns: []string{"**/*doubleclick.net/**"},
			AcceptDialogs: true,
		},
		Policies: config.PolicyConfig{Fill: "swallow", Check: "swallow", Overlay: "swallow"},
		Runner: config.RunnerConfig{
			Workers:         2,
			Retries:         0,
			ScenarioTimeout: 5 * time.Second,
		},
		Artifacts: config.ArtifactsConfig{Screenshots: true, ScreenshotPath: "screenshots"},
	}
}

func scenario(id string, run scenarios.Func) scenarios.Scenario {
	return scenarios.Scenario{ID: id, Name: "scenario " + id, Suite: scenarios.SuiteMisc, Run: run}
}

func openHome(_ context.Context, env *scenarios.Env) error {
	return env.Site.Home.Open()
}

func TestRunner_RunsEveryScenarioInFreshContext(t *testing.T) {
	b := browsertest.NewBrowser(nil)
	r := New(b, testConfig(), nil)

	summary, err := r.Run(context.Background(), []scenarios.Scenario{
		scenario("TC1", openHome),
		scenario("TC2", openHome),
		scenario("TC3", openHome),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count(StatusPassed))
	assert.False(t, summary.Failed())
	assert.Equal(t, r.RunID(), summary.RunID)

	contexts := b.Contexts()
	require.Len(t, contexts, 3)
	for _, c := range contexts {
		assert.True(t, c.Closed())
		assert.Equal(t, "https://shop.test", c.Options.BaseURL)
		assert.Equal(t, []string{"**/*doubleclick.net/**"}, c.Options.BlockPatterns)
		assert.True(t, c.Options.AcceptDialogs)
		require.Len(t, c.Pages(), 1)
		assert.Equal(t, "https://shop.test/", c.Pages()[0].URL())
	}
}

func TestRunner_ResultsKeepListOrder(t *testing.T) {
	r := New(browsertest.NewBrowser(nil), testConfig(), nil)
	slow := func(context.Context, *scenarios.Env) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}

	summary, err := r.Run(context.Background(), []scenarios.Scenario{
		scenario("TC1", slow),
		scenario("TC2", openHome),
	})

	require.NoError(t, err)
	assert.Equal(t, "TC1", summary.Results[0].ID)
	assert.Equal(t, "TC2", summary.Results[1].ID)
}

func TestRunner_FailureIsWrappedAndScreenshotted(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	r := New(browsertest.NewBrowser(nil), cfg, nil, WithStore(storage.NewLocalStore(dir)), WithRunID("run-1"))
	missing := func(_ context.Context, env *scenarios.Env) error {
		return env.Site.Home.VerifyLoaded()
	}

	summary, err := r.Run(context.Background(), []scenarios.Scenario{scenario("TC7", missing)})

	require.NoError(t, err)
	res := summary.Results[0]
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, domain.ErrCodeScenarioFailed, domain.GetErrorCode(res.Err))
	assert.True(t, errors.Is(res.Err, domain.ErrAssertionSentinel))

	require.Len(t, res.Artifacts, 1)
	assert.Contains(t, res.Artifacts[0], "run-1")
	_, statErr := os.Stat(res.Artifacts[0])
	assert.NoError(t, statErr)
}

type linkStore struct {
	storage.Store
	err error
}

func (l linkStore) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	return "https://artifacts.test/" + key + "?ttl=" + expiry.String(), nil
}

func TestRunner_FailureScreenshotLinks(t *testing.T) {
	failing := func(context.Context, *scenarios.Env) error { return errors.New("boom") }

	tests := []struct {
		name      string
		store     func(dir string) storage.Store
		expiry    time.Duration
		artifacts int
		link      bool
	}{
		{"linking store", func(dir string) storage.Store { return linkStore{Store: storage.NewLocalStore(dir)} }, time.Hour, 2, true},
		{"links disabled", func(dir string) storage.Store { return linkStore{Store: storage.NewLocalStore(dir)} }, 0, 1, false},
		{"signing fails", func(dir string) storage.Store {
			return linkStore{Store: storage.NewLocalStore(dir), err: errors.New("no credentials")}
		}, time.Hour, 1, false},
		{"tee without linker", func(dir string) storage.Store { return storage.Tee{storage.NewLocalStore(dir)} }, time.Hour, 1, false},
		{"local store", func(dir string) storage.Store { return storage.NewLocalStore(dir) }, time.Hour, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Artifacts.LinkExpiry = tt.expiry
			r := New(browsertest.NewBrowser(nil), cfg, nil, WithStore(tt.store(t.TempDir())), WithRunID("run-7"))

			summary, err := r.Run(context.Background(), []scenarios.Scenario{scenario("TC3", failing)})

			require.NoError(t, err)
			artifacts := summary.Results[0].Artifacts
			require.Len(t, artifacts, tt.artifacts)
			if tt.link {
				assert.True(t, strings.HasPrefix(artifacts[1], "https://artifacts.test/screenshots/run-7/TC3-attempt1-"))
				assert.True(t, strings.HasSuffix(artifacts[1], ".png?ttl=1h0m0s"))
			}
		})
	}
}

func TestRunner_NoScreenshotsWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Artifacts.Screenshots = false
	r := New(browsertest.NewBrowser(nil), cfg, nil, WithStore(storage.NewLocalStore(t.TempDir())))

	summary, _ := r.Run(context.Background(), []scenarios.Scenario{
		scenario("TC1", func(context.Context, *scenarios.Env) error { return errors.New("boom") }),
	})

	assert.Empty(t, summary.Results[0].Artifacts)
}

func TestRunner_Retries(t *testing.T) {
	tests := []struct {
		name     string
		retries  int
		failures int32
		status   Status
		attempts int
	}{
		{"passes first time", 2, 0, StatusPassed, 1},
		{"flaky", 2, 1, StatusFlaky, 2},
		{"exhausts retries", 1, 5, StatusFailed, 2},
		{"no retries", 0, 1, StatusFailed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Runner.Retries = tt.retries
			metrics := observability.NewMetrics("test")
			r := New(browsertest.NewBrowser(nil), cfg, nil, WithMetrics(metrics))

			var calls atomic.Int32
			run := func(context.Context, *scenarios.Env) error {
				if calls.Add(1) <= tt.failures {
					return errors.New("transient")
				}
				return nil
			}

			summary, err := r.Run(context.Background(), []scenarios.Scenario{scenario("TC9", run)})

			require.NoError(t, err)
			assert.Equal(t, tt.status, summary.Results[0].Status)
			assert.Equal(t, tt.attempts, summary.Results[0].Attempts)
			assert.Equal(t, float64(tt.attempts-1), testutil.ToFloat64(metrics.ScenarioRetries.WithLabelValues("TC9")))
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ScenariosTotal.WithLabelValues("misc", string(tt.status))))
		})
	}
}

func TestRunner_CIDefaultsToTwoRetries(t *testing.T) {
	cfg := testConfig()
	cfg.CI = true
	cfg.Runner.Retries = -1
	r := New(browsertest.NewBrowser(nil), cfg, nil)

	summary, _ := r.Run(context.Background(), []scenarios.Scenario{
		scenario("TC1", func(context.Context, *scenarios.Env) error { return errors.New("boom") }),
	})

	assert.Equal(t, 3, summary.Results[0].Attempts)
}

func TestRunner_BreakerSkipsAfterSiteFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Runner.Workers = 1
	cfg.Runner.BreakerThreshold = 1
	cfg.Runner.BreakerCooldown = time.Hour
	metrics := observability.NewMetrics("test")
	b := browsertest.NewBrowser(func(p *browsertest.Page) {
		p.GotoErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	})
	r := New(b, cfg, nil, WithMetrics(metrics))

	summary, err := r.Run(context.Background(), []scenarios.Scenario{
		scenario("TC1", openHome),
		scenario("TC2", openHome),
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Results[0].Status)
	assert.Equal(t, StatusSkipped, summary.Results[1].Status)
	assert.Equal(t, domain.ErrCodeCircuitOpen, domain.GetErrorCode(summary.Results[1].Err))
	assert.Equal(t, BreakerOpen, r.Breaker().State())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BreakerOpen))
	assert.Len(t, b.Contexts(), 1)
}

func TestRunner_ScenarioTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Runner.ScenarioTimeout = 30 * time.Millisecond
	r := New(browsertest.NewBrowser(nil), cfg, nil)
	hang := func(ctx context.Context, _ *scenarios.Env) error {
		<-ctx.Done()
		return ctx.Err()
	}

	summary, err := r.Run(context.Background(), []scenarios.Scenario{scenario("TC1", hang)})

	require.NoError(t, err)
	res := summary.Results[0]
	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, errors.Is(res.Err, domain.ErrTimeoutSentinel))
}

func TestRunner_PanicBecomesFailure(t *testing.T) {
	r := New(browsertest.NewBrowser(nil), testConfig(), nil)

	summary, err := r.Run(context.Background(), []scenarios.Scenario{
		scenario("TC1", func(context.Context, *scenarios.Env) error { panic("nil page object") }),
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Results[0].Status)
	assert.Contains(t, summary.Results[0].Err.Error(), "nil page object")
}

func TestRunner_CancelledContextSkipsEverything(t *testing.T) {
	b := browsertest.NewBrowser(nil)
	r := New(b, testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, []scenarios.Scenario{scenario("TC1", openHome), scenario("TC2", openHome)})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, summary.Count(StatusSkipped))
	assert.True(t, summary.Failed())
	assert.Empty(t, b.Contexts())
}

func TestRunner_NewContextFailure(t *testing.T) {
	b := browsertest.NewBrowser(nil)
	b.NewContextErr = errors.New("browser has been closed")
	r := New(b, testConfig(), nil)

	summary, err := r.Run(context.Background(), []scenarios.Scenario{scenario("TC1", openHome)})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Results[0].Status)
	assert.Contains(t, summary.Results[0].Err.Error(), "browser has been closed")
}

func TestRunner_Callbacks(t *testing.T) {
	var mu sync.Mutex
	var started, finished []string
	r := New(browsertest.NewBrowser(nil), testConfig(), nil,
		OnStart(func(sc scenarios.Scenario) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, sc.ID)
		}),
		OnResult(func(res Result) {
			mu.Lock()
			defer mu.Unlock()
			finished = append(finished, res.ID)
		}),
	)

	_, err := r.Run(context.Background(), []scenarios.Scenario{scenario("TC1", openHome), scenario("TC2", openHome)})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"TC1", "TC2"}, started)
	assert.ElementsMatch(t, []string{"TC1", "TC2"}, finished)
}

func TestRunner_WorkersBoundConcurrency(t *testing.T) {
	cfg := testConfig()
	cfg.Runner.Workers = 2
	r := New(browsertest.NewBrowser(nil), cfg, nil)

	var active, peak atomic.Int32
	run := func(context.Context, *scenarios.Env) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return nil
	}

	list := make([]scenarios.Scenario, 6)
	for i := range list {
		list[i] = scenario(string(rune('A'+i)), run)
	}
	summary, err := r.Run(context.Background(), list)

	require.NoError(t, err)
	assert.Equal(t, 6, summary.Count(StatusPassed))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
