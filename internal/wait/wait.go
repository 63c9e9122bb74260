// Package wait turns named conditions into bounded, blocking waits against a
// browser page. Waits never retry: a condition that is not met in time fails
// with a TIMEOUT domain error carrying the condition, target and elapsed time.
package wait

import (
	"time"

	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/domain"
	"github.com/testforge/shopsuite/internal/observability"
)

// Condition is a target state a wait blocks on
type Condition int

const (
	Visible Condition = iota
	Attached
	Enabled
	ContentLoaded
	NetworkIdle
	FullyLoaded
)

// String returns the string representation of the condition
func (c Condition) String() string {
	switch c {
	case Visible:
		return "visible"
	case Attached:
		return "attached"
	case Enabled:
		return "enabled"
	case ContentLoaded:
		return "content-loaded"
	case NetworkIdle:
		return "network-idle"
	case FullyLoaded:
		return "fully-loaded"
	default:
		return "unknown"
	}
}

// Lifecycle reports whether the condition is a page-level milestone rather
// than an element state
func (c Condition) Lifecycle() bool {
	return c == ContentLoaded || c == NetworkIdle || c == FullyLoaded
}

// LoadState maps a lifecycle condition to the runtime load state.
// Element conditions map to DOMContentLoaded.
func (c Condition) LoadState() browser.LoadState {
	switch c {
	case NetworkIdle:
		return browser.LoadStateNetworkIdle
	case FullyLoaded:
		return browser.LoadStateLoad
	default:
		return browser.LoadStateDOMContentLoaded
	}
}

// Waiter blocks on conditions of a single page
type Waiter struct {
	page     browser.Page
	timeouts config.Timeouts
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New creates a Waiter for page. Zero timeouts fall back to the defaults.
func New(page browser.Page, timeouts config.Timeouts, logger *zap.Logger) *Waiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := config.DefaultTimeouts()
	if timeouts.Element <= 0 {
		timeouts.Element = def.Element
	}
	if timeouts.Navigation <= 0 {
		timeouts.Navigation = def.Navigation
	}
	if timeouts.Action <= 0 {
		timeouts.Action = def.Action
	}
	if timeouts.Assertion <= 0 {
		timeouts.Assertion = def.Assertion
	}
	if timeouts.Global <= 0 {
		timeouts.Global = def.Global
	}
	return &Waiter{page: page, timeouts: timeouts, logger: logger}
}

// WithMetrics makes the waiter count timeouts in m
func (w *Waiter) WithMetrics(m *observability.Metrics) *Waiter {
	w.metrics = m
	return w
}

// Page returns the page the waiter is bound to
func (w *Waiter) Page() browser.Page { return w.page }

// Timeouts returns the effective timeouts
func (w *Waiter) Timeouts() config.Timeouts { return w.timeouts }

// Visible waits until target is present and visible
func (w *Waiter) Visible(t browser.Target) error {
	return w.VisibleWithin(t, w.timeouts.Element)
}

// VisibleWithin is Visible with an explicit timeout
func (w *Waiter) VisibleWithin(t browser.Target, timeout time.Duration) error {
	return w.element(Visible, t, timeout, func(l browser.Locator) error {
		return l.WaitFor(browser.StateVisible, timeout)
	})
}

// Attached waits until target exists in the document, visible or not
func (w *Waiter) Attached(t browser.Target) error {
	return w.AttachedWithin(t, w.timeouts.Element)
}

// AttachedWithin is Attached with an explicit timeout
func (w *Waiter) AttachedWithin(t browser.Target, timeout time.Duration) error {
	return w.element(Attached, t, timeout, func(l browser.Locator) error {
		return l.WaitFor(browser.StateAttached, timeout)
	})
}

// Enabled waits until target accepts input
func (w *Waiter) Enabled(t browser.Target) error {
	return w.EnabledWithin(t, w.timeouts.Element)
}

// EnabledWithin is Enabled with an explicit timeout
func (w *Waiter) EnabledWithin(t browser.Target, timeout time.Duration) error {
	return w.element(Enabled, t, timeout, func(l browser.Locator) error {
		return l.ExpectEnabled(timeout)
	})
}

// DocumentLoaded waits for the DOMContentLoaded milestone
func (w *Waiter) DocumentLoaded() error { return w.Lifecycle(ContentLoaded) }

// NetworkIdle waits until the page has had no network traffic for a while
func (w *Waiter) NetworkIdle() error { return w.Lifecycle(NetworkIdle) }

// FullyLoaded waits for the load event
func (w *Waiter) FullyLoaded() error { return w.Lifecycle(FullyLoaded) }

// Lifecycle waits for a page-level milestone using the navigation timeout
func (w *Waiter) Lifecycle(c Condition) error {
	if !c.Lifecycle() {
		return domain.ErrValidation("not a lifecycle condition: " + c.String())
	}
	timeout := w.timeouts.Navigation
	start := time.Now()
	if err := w.page.WaitForLoadState(c.LoadState(), timeout); err != nil {
		return w.fail(c, "page", timeout, time.Since(start), err)
	}
	return nil
}

// For dispatches to the wait matching c. Lifecycle conditions ignore t.
func (w *Waiter) For(c Condition, t browser.Target) error {
	switch c {
	case Visible:
		return w.Visible(t)
	case Attached:
		return w.Attached(t)
	case Enabled:
		return w.Enabled(t)
	default:
		return w.Lifecycle(c)
	}
}

// Sleep blocks unconditionally for d. Reserved for known-flaky stabilization
// points; prefer a condition.
func (w *Waiter) Sleep(d time.Duration) {
	w.logger.Debug("sleeping", zap.Duration("duration", d))
	w.page.WaitForTimeout(d)
}

func (w *Waiter) element(c Condition, t browser.Target, timeout time.Duration, fn func(browser.Locator) error) error {
	if t.IsZero() {
		return domain.ErrValidation("wait on empty target")
	}
	start := time.Now()
	if err := fn(t.Resolve(w.page)); err != nil {
		return w.fail(c, t.String(), timeout, time.Since(start), err)
	}
	return nil
}

func (w *Waiter) fail(c Condition, target string, timeout, elapsed time.Duration, cause error) error {
	w.logger.Debug("wait failed",
		zap.Stringer("condition", c),
		zap.String("target", target),
		zap.Duration("timeout", timeout),
		zap.Duration("elapsed", elapsed),
		zap.Error(cause),
	)
	w.metrics.RecordWaitTimeout(c.String())
	return domain.ErrTimeout(c.String(), target, timeout, elapsed, cause)
}
