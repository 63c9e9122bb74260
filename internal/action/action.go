// Package action wraps primitive browser operations so that every mutating
// interaction first waits, through the wait package, for its target to be
// visible. Fill and check follow a configurable ErrorPolicy; all other
// operations propagate their errors.
package action

import (
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/domain"
	"github.com/testforge/shopsuite/internal/observability"
	"github.com/testforge/shopsuite/internal/wait"
)

// Actions is the action layer bound to a single page
type Actions struct {
	page    browser.Page
	waiter  *wait.Waiter
	cfg     Config
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New creates the action layer for page. A nil waiter is built from
// cfg.Timeouts.
func New(page browser.Page, waiter *wait.Waiter, cfg Config, logger *zap.Logger, opts ...Option) *Actions {
	if logger == nil {
		logger = zap.NewNop()
	}
	ownWaiter := waiter == nil
	if ownWaiter {
		waiter = wait.New(page, cfg.Timeouts, logger)
	}
	cfg.Timeouts = waiter.Timeouts()

	a := &Actions{
		page:   page,
		waiter: waiter,
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if ownWaiter {
		waiter.WithMetrics(a.metrics)
	}
	return a
}

// Page returns the page the actions operate on
func (a *Actions) Page() browser.Page { return a.page }

// Waiter returns the underlying wait layer
func (a *Actions) Waiter() *wait.Waiter { return a.waiter }

// Config returns the effective configuration
func (a *Actions) Config() Config { return a.cfg }

// Navigate loads url and waits for DOMContentLoaded
func (a *Actions) Navigate(url string) error {
	return a.NavigateUntil(url, wait.ContentLoaded)
}

// NavigateUntil loads url and waits for the given lifecycle condition
func (a *Actions) NavigateUntil(url string, until wait.Condition) error {
	if !until.Lifecycle() {
		return domain.ErrValidation("navigate needs a lifecycle condition, got " + until.String())
	}
	start := time.Now()
	err := a.page.Goto(url, until.LoadState(), a.cfg.Timeouts.Navigation)
	if err != nil {
		err = domain.ErrNavigation(url, err)
	}
	a.logger.Debug("navigate", zap.String("url", url), zap.Stringer("until", until), zap.Error(err))
	return a.observe("navigate", start, err)
}

// Click waits for t to be visible, clicks it and, when ThenWaitFor is given,
// waits for that page lifecycle condition.
func (a *Actions) Click(t browser.Target, opts ...ClickOption) error {
	var o clickOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	err := a.visibleThen("click", t, func(l browser.Locator) error {
		return l.Click(browser.ClickOptions{Force: o.force, Timeout: o.timeout})
	})
	if err == nil && o.postWait != nil {
		err = a.waiter.Lifecycle(*o.postWait)
	}
	return a.observe("click", start, err)
}

// Fill waits for t to be visible and replaces its value. Failures follow the
// fill policy.
func (a *Actions) Fill(t browser.Target, value string) error {
	start := time.Now()
	err := a.visibleThen("fill", t, func(l browser.Locator) error {
		return l.Fill(value)
	})
	a.observe("fill", start, err)
	return a.apply(a.cfg.Policies.Fill, "fill", t, err)
}

// Check waits for t to be visible and checks it. Failures follow the check
// policy.
func (a *Actions) Check(t browser.Target) error {
	start := time.Now()
	err := a.visibleThen("check", t, func(l browser.Locator) error {
		return l.Check()
	})
	a.observe("check", start, err)
	return a.apply(a.cfg.Policies.Check, "check", t, err)
}

// SelectOption waits for t to be visible and enabled, then selects the
// option described by c. It returns the values of the selected options.
func (a *Actions) SelectOption(t browser.Target, c Choice) ([]string, error) {
	start := time.Now()
	selected, err := a.selectOption(t, c)
	a.observe("select", start, err)
	return selected, err
}

func (a *Actions) selectOption(t browser.Target, c Choice) ([]string, error) {
	if err := a.waiter.Visible(t); err != nil {
		return nil, err
	}
	if err := a.waiter.Enabled(t); err != nil {
		return nil, err
	}

	l := t.Resolve(a.page)
	var values browser.SelectValues
	switch c.kind {
	case byValue:
		values.Values = []string{c.text}
	case byLabel:
		values.Labels = []string{c.text}
	case byIndex:
		values.Indexes = []int{c.index}
	default:
		selected, err := l.SelectOption(browser.SelectValues{Values: []string{c.text}})
		if err == nil && len(selected) > 0 {
			return selected, nil
		}
		a.logger.Debug("no option with value, trying label",
			zap.String("target", t.String()),
			zap.String("choice", c.text),
			zap.Error(err),
		)
		values.Labels = []string{c.text}
	}

	selected, err := l.SelectOption(values)
	if err != nil || len(selected) == 0 {
		return nil, domain.ErrNoSuchOption(t.String(), c.String(), err)
	}
	return selected, nil
}

// SetInputFiles waits for t to be visible and attaches files to it
func (a *Actions) SetInputFiles(t browser.Target, files ...browser.File) error {
	if len(files) == 0 {
		return domain.ErrValidation("set input files: no files given")
	}
	start := time.Now()
	err := a.visibleThen("upload", t, func(l browser.Locator) error {
		return l.SetInputFiles(files)
	})
	return a.observe("upload", start, err)
}

// GetText waits for t to be visible and returns its text content. The
// boolean is false when the element has no content.
func (a *Actions) GetText(t browser.Target) (string, bool, error) {
	var text string
	start := time.Now()
	err := a.visibleThen("get-text", t, func(l browser.Locator) error {
		var err error
		text, err = l.TextContent()
		return err
	})
	a.observe("get-text", start, err)
	if err != nil {
		return "", false, err
	}
	return text, text != "", nil
}

// ExpectVisible asserts that t becomes visible within the assertion timeout
func (a *Actions) ExpectVisible(t browser.Target) error {
	return a.ExpectVisibleWithin(t, a.cfg.Timeouts.Assertion)
}

// ExpectVisibleWithin waits for DOMContentLoaded, network idle and the load
// event in that order, then asserts that t is visible within timeout.
func (a *Actions) ExpectVisibleWithin(t browser.Target, timeout time.Duration) error {
	start := time.Now()
	err := a.expectVisible(t, timeout)
	return a.observe("expect-visible", start, err)
}

func (a *Actions) expectVisible(t browser.Target, timeout time.Duration) error {
	if err := a.waiter.DocumentLoaded(); err != nil {
		return err
	}
	if err := a.waiter.NetworkIdle(); err != nil {
		return err
	}
	if err := a.waiter.FullyLoaded(); err != nil {
		return err
	}
	return a.assert("visible", t, timeout, func(l browser.Locator) error {
		return l.ExpectVisible(timeout)
	})
}

// AssertVisible asserts that t becomes visible within the assertion timeout
// without waiting for page lifecycle milestones first
func (a *Actions) AssertVisible(t browser.Target) error {
	timeout := a.cfg.Timeouts.Assertion
	return a.assert("visible", t, timeout, func(l browser.Locator) error {
		return l.ExpectVisible(timeout)
	})
}

// Hover moves the pointer over t. There is no pre-wait; callers establish
// visibility first.
func (a *Actions) Hover(t browser.Target) error {
	if t.IsZero() {
		return domain.ErrValidation("hover on empty target")
	}
	start := time.Now()
	err := t.Resolve(a.page).Hover()
	if err != nil {
		err = a.interactionErr("hover", t, start, err)
	}
	return a.observe("hover", start, err)
}

// ScrollIntoView scrolls t into the viewport if it is not already there
func (a *Actions) ScrollIntoView(t browser.Target) error {
	if t.IsZero() {
		return domain.ErrValidation("scroll on empty target")
	}
	start := time.Now()
	if err := t.Resolve(a.page).ScrollIntoViewIfNeeded(); err != nil {
		return a.interactionErr("scroll", t, start, err)
	}
	return nil
}

// ExpectText asserts the trimmed text of t equals text
func (a *Actions) ExpectText(t browser.Target, text string) error {
	timeout := a.cfg.Timeouts.Assertion
	return a.assert(fmt.Sprintf("text %q", text), t, timeout, func(l browser.Locator) error {
		return l.ExpectText(text, timeout)
	})
}

// ExpectContainsText asserts the text of t contains text
func (a *Actions) ExpectContainsText(t browser.Target, text string) error {
	timeout := a.cfg.Timeouts.Assertion
	return a.assert(fmt.Sprintf("containing %q", text), t, timeout, func(l browser.Locator) error {
		return l.ExpectContainsText(text, timeout)
	})
}

// ExpectNotContainsText asserts the text of t does not contain text
func (a *Actions) ExpectNotContainsText(t browser.Target, text string) error {
	timeout := a.cfg.Timeouts.Assertion
	return a.assert(fmt.Sprintf("not containing %q", text), t, timeout, func(l browser.Locator) error {
		return l.ExpectNotContainsText(text, timeout)
	})
}

// ExpectValue asserts the input value of t
func (a *Actions) ExpectValue(t browser.Target, value string) error {
	timeout := a.cfg.Timeouts.Assertion
	return a.assert(fmt.Sprintf("value %q", value), t, timeout, func(l browser.Locator) error {
		return l.ExpectValue(value, timeout)
	})
}

// ExpectCount asserts t matches exactly n elements
func (a *Actions) ExpectCount(t browser.Target, n int) error {
	timeout := a.cfg.Timeouts.Assertion
	return a.assert(fmt.Sprintf("count %d", n), t, timeout, func(l browser.Locator) error {
		return l.ExpectCount(n, timeout)
	})
}

// ExpectTitle asserts the page title matches pattern
func (a *Actions) ExpectTitle(pattern *regexp.Regexp) error {
	timeout := a.cfg.Timeouts.Assertion
	if err := a.page.ExpectTitle(pattern, timeout); err != nil {
		return domain.ErrAssertionFailed("matching "+pattern.String(), "page title", timeout, err)
	}
	return nil
}

// ExpectURL asserts the page URL matches pattern
func (a *Actions) ExpectURL(pattern *regexp.Regexp) error {
	timeout := a.cfg.Timeouts.Assertion
	if err := a.page.ExpectURL(pattern, timeout); err != nil {
		return domain.ErrAssertionFailed("matching "+pattern.String(), "page url", timeout, err)
	}
	return nil
}

// IsVisible reports whether t is visible right now, without waiting
func (a *Actions) IsVisible(t browser.Target) bool {
	if t.IsZero() {
		return false
	}
	visible, err := t.Resolve(a.page).IsVisible()
	return err == nil && visible
}

// Count returns the number of elements t currently matches
func (a *Actions) Count(t browser.Target) (int, error) {
	if t.IsZero() {
		return 0, domain.ErrValidation("count on empty target")
	}
	n, err := t.Resolve(a.page).Count()
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", t, err)
	}
	return n, nil
}

// Evaluate runs a JavaScript expression in the page
func (a *Actions) Evaluate(expression string) (any, error) {
	result, err := a.page.Evaluate(expression)
	if err != nil {
		return nil, domain.ErrAction("evaluate", expression, err)
	}
	return result, nil
}

// Sleep is an unconditional delay; see wait.Waiter.Sleep
func (a *Actions) Sleep(d time.Duration) {
	a.waiter.Sleep(d)
}

func (a *Actions) visibleThen(op string, t browser.Target, fn func(browser.Locator) error) error {
	if err := a.waiter.Visible(t); err != nil {
		return err
	}
	start := time.Now()
	if err := fn(t.Resolve(a.page)); err != nil {
		return a.interactionErr(op, t, start, err)
	}
	return nil
}

func (a *Actions) assert(expectation string, t browser.Target, timeout time.Duration, fn func(browser.Locator) error) error {
	if t.IsZero() {
		return domain.ErrValidation("assertion on empty target")
	}
	if err := fn(t.Resolve(a.page)); err != nil {
		return domain.ErrAssertionFailed(expectation, t.String(), timeout, err)
	}
	return nil
}

func (a *Actions) interactionErr(op string, t browser.Target, start time.Time, err error) error {
	if browser.TimeoutError(err) {
		return domain.ErrTimeout("actionable", t.String(), a.cfg.Timeouts.Action, time.Since(start), err).
			WithMetadata(domain.MetaOperation, op)
	}
	return domain.ErrAction(op, t.String(), err)
}

func (a *Actions) apply(p ErrorPolicy, op string, t browser.Target, err error) error {
	if err == nil || p == Propagate {
		return err
	}
	a.logger.Warn(op+" failed, continuing",
		zap.String("target", t.String()),
		zap.Stringer("policy", p),
		zap.Error(err),
	)
	a.metrics.RecordSwallowed(op)
	return nil
}

func (a *Actions) observe(op string, start time.Time, err error) error {
	a.metrics.RecordAction(op, time.Since(start), err)
	return err
}
