// Package overlay detects and closes third-party ad overlays that block the
// page under test. Dismissal is best effort: by default every failure is
// logged and reported as Absent.
package overlay

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/action"
	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/observability"
)

// State is a step of a dismissal attempt
type State int

const (
	Idle State = iota
	Probing
	Detected
	Closed
	Absent
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Probing:
		return "probing"
	case Detected:
		return "detected"
	case Closed:
		return "closed"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// Config bounds the heuristic and lists the structural patterns it matches
type Config struct {
	// Timeout is split evenly between indicator probing and the close
	// control search
	Timeout        time.Duration
	Grace          time.Duration
	ConfirmTimeout time.Duration
	PollInterval   time.Duration

	ContainerSelectors  []string
	IndicatorPattern    *regexp.Regexp
	IndicatorSelectors  []string
	CloseFrameSelectors []string
	CloseSelectors      []string

	Policy action.ErrorPolicy
}

// DefaultConfig returns the patterns of the ad provider served by the site
func DefaultConfig() Config {
	return Config{
		Timeout:        6 * time.Second,
		Grace:          800 * time.Millisecond,
		ConfirmTimeout: 2 * time.Second,
		PollInterval:   200 * time.Millisecond,
		ContainerSelectors: []string{
			`iframe[id^="aswift_"]`,
			`iframe[id^="google_ads_iframe"]`,
		},
		IndicatorPattern: regexp.MustCompile(`(?i)^\s*(ad|advertisement|sponsored|close ad)\s*$`),
		IndicatorSelectors: []string{
			`[aria-label="Close ad"]`,
			`#dismiss-button`,
			`div[id*="ad_position_box"]`,
		},
		CloseFrameSelectors: []string{
			`iframe[name="ad_iframe"]`,
			`iframe[id="ad_iframe"]`,
		},
		CloseSelectors: []string{
			`#dismiss-button`,
			`[aria-label="Close ad"]`,
			`div[role="button"][aria-label*="Close"]`,
		},
		Policy: action.SwallowAndLog,
	}
}

// ConfigFrom applies the suite settings on top of DefaultConfig
func ConfigFrom(cfg config.OverlayConfig, policy string) (Config, error) {
	c := DefaultConfig()
	if cfg.Timeout > 0 {
		c.Timeout = cfg.Timeout
	}
	if cfg.Grace >= 0 {
		c.Grace = cfg.Grace
	}
	if cfg.ConfirmTimeout > 0 {
		c.ConfirmTimeout = cfg.ConfirmTimeout
	}
	p, err := action.ParsePolicy(policy)
	if err != nil {
		return Config{}, fmt.Errorf("overlay policy: %w", err)
	}
	c.Policy = p
	return c, nil
}

// Result is the outcome of one dismissal attempt
type Result struct {
	State     State
	Container string
	Reason    string
}

// Closed reports whether an overlay was found and its close control clicked
func (r Result) Closed() bool {
	return r.State == Closed
}

// Option configures a Dismisser
type Option func(*Dismisser)

// WithMetrics counts terminal states in m
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dismisser) { d.metrics = m }
}

// Dismisser runs the overlay heuristic against one page
type Dismisser struct {
	page    browser.Page
	actions *action.Actions
	cfg     Config
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New creates a Dismisser. The close control is clicked through actions.
func New(page browser.Page, actions *action.Actions, cfg Config, logger *zap.Logger, opts ...Option) *Dismisser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if actions == nil {
		actions = action.New(page, nil, action.DefaultConfig(), logger)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	d := &Dismisser{
		page:    page,
		actions: actions,
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "overlay")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type candidate struct {
	name      string
	frame     browser.FrameLocator
	container browser.Locator
}

// Dismiss attempts to detect and close an ad overlay. It never blocks longer
// than Grace + Timeout + ConfirmTimeout plus polling overhead. Under the
// SwallowAndLog policy the error is always nil.
func (d *Dismisser) Dismiss(ctx context.Context) (Result, error) {
	res, err := d.dismiss(ctx)
	if err != nil {
		d.logger.Warn("overlay dismissal failed",
			zap.String("container", res.Container),
			zap.Stringer("policy", d.cfg.Policy),
			zap.Error(err),
		)
		res.State = Absent
		res.Reason = err.Error()
		if d.cfg.Policy == action.SwallowAndLog {
			err = nil
		}
	}
	d.logger.Debug("overlay dismissal finished",
		zap.Stringer("state", res.State),
		zap.String("container", res.Container),
		zap.String("reason", res.Reason),
	)
	d.metrics.RecordOverlay(res.State.String())
	return res, err
}

func (d *Dismisser) dismiss(ctx context.Context) (Result, error) {
	d.enter(Probing)
	if err := sleep(ctx, d.cfg.Grace); err != nil {
		return Result{State: Absent}, err
	}

	candidates, err := d.candidates()
	if err != nil {
		return Result{State: Absent}, err
	}
	if len(candidates) == 0 {
		return Result{State: Absent, Reason: "no candidate containers"}, nil
	}

	half := d.cfg.Timeout / 2
	var found *candidate
	ok, err := d.poll(ctx, half, func() (bool, error) {
		for i := range candidates {
			hit, err := d.hasIndicator(candidates[i].frame)
			if err != nil {
				return false, err
			}
			if hit {
				found = &candidates[i]
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return Result{State: Absent}, err
	}
	if !ok {
		return Result{State: Absent, Reason: "no ad indicator in candidate containers"}, nil
	}

	d.enter(Detected, zap.String("container", found.name))
	controls := d.closeControls(found.frame)
	var control browser.Locator
	ok, err = d.poll(ctx, half, func() (bool, error) {
		for _, l := range controls {
			visible, err := l.IsVisible()
			if err != nil {
				return false, err
			}
			if visible {
				control = l
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return Result{State: Absent, Container: found.name}, err
	}
	if !ok {
		return Result{State: Absent, Container: found.name, Reason: "no visible close control"}, nil
	}

	err = d.actions.Click(browser.ByHandle(control), action.Force(), action.Timeout(d.cfg.ConfirmTimeout))
	if err != nil {
		return Result{State: Absent, Container: found.name}, fmt.Errorf("clicking close control %s: %w", control, err)
	}

	if err := found.container.WaitFor(browser.StateHidden, d.cfg.ConfirmTimeout); err != nil {
		d.logger.Warn("overlay still visible after close", zap.String("container", found.name), zap.Error(err))
	}
	return Result{State: Closed, Container: found.name}, nil
}

func (d *Dismisser) enter(s State, fields ...zap.Field) {
	d.logger.Debug("overlay state", append([]zap.Field{zap.Stringer("state", s)}, fields...)...)
}

func (d *Dismisser) candidates() ([]candidate, error) {
	var out []candidate
	for _, sel := range d.cfg.ContainerSelectors {
		n, err := d.page.Locator(sel).Count()
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", sel, err)
		}
		for i := 0; i < n; i++ {
			frame := d.page.FrameLocator(sel).Nth(i)
			out = append(out, candidate{
				name:      frame.String(),
				frame:     frame,
				container: d.page.Locator(sel).Nth(i),
			})
		}
	}
	return out, nil
}

func (d *Dismisser) hasIndicator(f browser.FrameLocator) (bool, error) {
	if d.cfg.IndicatorPattern != nil {
		n, err := f.GetByText(browser.Pattern(d.cfg.IndicatorPattern)).Count()
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	for _, sel := range d.cfg.IndicatorSelectors {
		n, err := f.Locator(sel).Count()
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// closeControls lists close controls of nested frames first, then of the
// container frame itself
func (d *Dismisser) closeControls(f browser.FrameLocator) []browser.Locator {
	var out []browser.Locator
	for _, fs := range d.cfg.CloseFrameSelectors {
		nested := f.FrameLocator(fs)
		for _, cs := range d.cfg.CloseSelectors {
			out = append(out, nested.Locator(cs).First())
		}
	}
	for _, cs := range d.cfg.CloseSelectors {
		out = append(out, f.Locator(cs).First())
	}
	return out
}

func (d *Dismisser) poll(ctx context.Context, timeout time.Duration, fn func() (bool, error)) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := fn()
		if err != nil || ok {
			return ok, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		if err := sleep(ctx, min(d.cfg.PollInterval, remaining)); err != nil {
			return false, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
