package browser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// LaunchOptions configures the playwright-backed browser
type LaunchOptions struct {
	// Engine is one of chromium, firefox, webkit
	Engine   string
	Headless bool
	SlowMo   time.Duration
	// Install downloads the driver and browser binaries before starting
	Install bool
}

type pwBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *zap.Logger
}

// Launch starts the playwright driver and a browser instance
func Launch(opts LaunchOptions, logger *zap.Logger) (Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := opts.Engine
	if engine == "" {
		engine = "chromium"
	}

	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{engine}}); err != nil {
			return nil, fmt.Errorf("installing playwright %s: %w", engine, err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch engine {
	case "chromium":
		browserType = pw.Chromium
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	default:
		pw.Stop()
		return nil, fmt.Errorf("unsupported browser engine: %s", engine)
	}

	b, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(millis(opts.SlowMo)),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	logger.Info("Browser launched",
		zap.String("engine", engine),
		zap.Bool("headless", opts.Headless),
		zap.Duration("slow_mo", opts.SlowMo),
	)

	return &pwBrowser{pw: pw, browser: b, logger: logger}, nil
}

func (b *pwBrowser) NewContext(opts ContextOptions) (Context, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
	}
	if opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(opts.BaseURL)
	}

	bc, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	if opts.ActionTimeout > 0 {
		bc.SetDefaultTimeout(millis(opts.ActionTimeout))
	}
	if opts.NavigationTimeout > 0 {
		bc.SetDefaultNavigationTimeout(millis(opts.NavigationTimeout))
	}

	// Routes must be installed before the first navigation.
	for _, pattern := range opts.BlockPatterns {
		if err := bc.Route(pattern, func(route playwright.Route) {
			_ = route.Abort()
		}); err != nil {
			bc.Close()
			return nil, fmt.Errorf("blocking %s: %w", pattern, err)
		}
	}

	return &pwContext{ctx: bc, acceptDialogs: opts.AcceptDialogs, logger: b.logger}, nil
}

func (b *pwBrowser) Close() error {
	if b.browser != nil {
		b.browser.Close()
	}
	if b.pw != nil {
		return b.pw.Stop()
	}
	return nil
}

type pwContext struct {
	ctx           playwright.BrowserContext
	acceptDialogs bool
	logger        *zap.Logger
}

func (c *pwContext) NewPage() (Page, error) {
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	if c.acceptDialogs {
		page.OnDialog(func(d playwright.Dialog) {
			if err := d.Accept(); err != nil {
				c.logger.Warn("Failed to accept dialog", zap.String("message", d.Message()), zap.Error(err))
			}
		})
	}
	return &pwPage{page: page, assert: playwright.NewPlaywrightAssertions()}, nil
}

func (c *pwContext) Close() error {
	return c.ctx.Close()
}

type pwPage struct {
	page   playwright.Page
	assert playwright.PlaywrightAssertions
}

func (p *pwPage) Goto(url string, until LoadState, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntilState(until),
		Timeout:   timeoutOpt(timeout),
	})
	return mapErr(err)
}

func (p *pwPage) WaitForLoadState(state LoadState, timeout time.Duration) error {
	return mapErr(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: timeoutOpt(timeout),
	}))
}

func (p *pwPage) WaitForURL(pattern string, timeout time.Duration) error {
	return mapErr(p.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{
		Timeout: timeoutOpt(timeout),
	}))
}

func (p *pwPage) WaitForTimeout(d time.Duration) {
	p.page.WaitForTimeout(millis(d))
}

func (p *pwPage) Locator(selector string) Locator {
	return &pwLocator{l: p.page.Locator(selector), desc: selector, assert: p.assert}
}

func (p *pwPage) GetByText(m TextMatch) Locator {
	return &pwLocator{
		l:      p.page.GetByText(textArg(m), playwright.PageGetByTextOptions{Exact: playwright.Bool(m.Exact)}),
		desc:   "text=" + m.String(),
		assert: p.assert,
	}
}

func (p *pwPage) GetByRole(role, name string) Locator {
	return &pwLocator{
		l:      p.page.GetByRole(playwright.AriaRole(role), playwright.PageGetByRoleOptions{Name: name}),
		desc:   roleDesc(role, name),
		assert: p.assert,
	}
}

func (p *pwPage) GetByLabel(label string) Locator {
	return &pwLocator{l: p.page.GetByLabel(label), desc: "label=" + label, assert: p.assert}
}

func (p *pwPage) FrameLocator(selector string) FrameLocator {
	return &pwFrame{f: p.page.FrameLocator(selector), desc: selector, assert: p.assert}
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Evaluate(expression string) (any, error) {
	return p.page.Evaluate(expression)
}

func (p *pwPage) Screenshot(fullPage bool) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
	})
}

func (p *pwPage) ExpectDownload(trigger func() error) (Download, error) {
	d, err := p.page.ExpectDownload(trigger)
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

func (p *pwPage) ExpectTitle(pattern *regexp.Regexp, timeout time.Duration) error {
	return p.assert.Page(p.page).ToHaveTitle(pattern, playwright.PageAssertionsToHaveTitleOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (p *pwPage) ExpectURL(pattern *regexp.Regexp, timeout time.Duration) error {
	return p.assert.Page(p.page).ToHaveURL(pattern, playwright.PageAssertionsToHaveURLOptions{
		Timeout: timeoutOpt(timeout),
	})
}

type pwLocator struct {
	l      playwright.Locator
	desc   string
	assert playwright.PlaywrightAssertions
}

func (l *pwLocator) child(next playwright.Locator, desc string) Locator {
	return &pwLocator{l: next, desc: l.desc + " >> " + desc, assert: l.assert}
}

func (l *pwLocator) Locator(selector string) Locator {
	return l.child(l.l.Locator(selector), selector)
}

func (l *pwLocator) GetByText(m TextMatch) Locator {
	return l.child(l.l.GetByText(textArg(m), playwright.LocatorGetByTextOptions{Exact: playwright.Bool(m.Exact)}), "text="+m.String())
}

func (l *pwLocator) GetByRole(role, name string) Locator {
	return l.child(l.l.GetByRole(playwright.AriaRole(role), playwright.LocatorGetByRoleOptions{Name: name}), roleDesc(role, name))
}

func (l *pwLocator) Filter(hasText string) Locator {
	return l.child(l.l.Filter(playwright.LocatorFilterOptions{HasText: hasText}), "has-text="+hasText)
}

func (l *pwLocator) First() Locator {
	return l.child(l.l.First(), "nth=0")
}

func (l *pwLocator) Nth(index int) Locator {
	return l.child(l.l.Nth(index), "nth="+strconv.Itoa(index))
}

func (l *pwLocator) Click(opts ClickOptions) error {
	return mapErr(l.l.Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(opts.Force),
		Timeout: timeoutOpt(opts.Timeout),
	}))
}

func (l *pwLocator) Fill(value string) error {
	return mapErr(l.l.Fill(value))
}

func (l *pwLocator) Check() error {
	return mapErr(l.l.Check())
}

func (l *pwLocator) Hover() error {
	return mapErr(l.l.Hover())
}

func (l *pwLocator) SelectOption(values SelectValues) ([]string, error) {
	var opts playwright.SelectOptionValues
	switch {
	case len(values.Values) > 0:
		opts.Values = &values.Values
	case len(values.Labels) > 0:
		opts.Labels = &values.Labels
	case len(values.Indexes) > 0:
		opts.Indexes = &values.Indexes
	default:
		return nil, errors.New("select option: no values given")
	}
	selected, err := l.l.SelectOption(opts)
	return selected, mapErr(err)
}

func (l *pwLocator) SetInputFiles(files []File) error {
	if len(files) == 0 {
		return mapErr(l.l.SetInputFiles([]string{}))
	}
	if files[0].InMemory() {
		payloads := make([]playwright.InputFile, 0, len(files))
		for _, f := range files {
			if !f.InMemory() {
				return errors.New("set input files: cannot mix paths and in-memory files")
			}
			payloads = append(payloads, playwright.InputFile{Name: f.Name, MimeType: f.MimeType, Buffer: f.Buffer})
		}
		return mapErr(l.l.SetInputFiles(payloads))
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.InMemory() {
			return errors.New("set input files: cannot mix paths and in-memory files")
		}
		paths = append(paths, f.Path)
	}
	return mapErr(l.l.SetInputFiles(paths))
}

func (l *pwLocator) ScrollIntoViewIfNeeded() error {
	return mapErr(l.l.ScrollIntoViewIfNeeded())
}

func (l *pwLocator) TextContent() (string, error) {
	text, err := l.l.TextContent()
	return text, mapErr(err)
}

func (l *pwLocator) InputValue() (string, error) {
	value, err := l.l.InputValue()
	return value, mapErr(err)
}

func (l *pwLocator) Count() (int, error) {
	return l.l.Count()
}

func (l *pwLocator) IsVisible() (bool, error) {
	return l.l.IsVisible()
}

func (l *pwLocator) IsEnabled() (bool, error) {
	enabled, err := l.l.IsEnabled()
	return enabled, mapErr(err)
}

func (l *pwLocator) WaitFor(state ElementState, timeout time.Duration) error {
	return mapErr(l.l.WaitFor(playwright.LocatorWaitForOptions{
		State:   selectorState(state),
		Timeout: timeoutOpt(timeout),
	}))
}

func (l *pwLocator) ExpectVisible(timeout time.Duration) error {
	return l.assert.Locator(l.l).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (l *pwLocator) ExpectEnabled(timeout time.Duration) error {
	return l.assert.Locator(l.l).ToBeEnabled(playwright.LocatorAssertionsToBeEnabledOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (l *pwLocator) ExpectText(text string, timeout time.Duration) error {
	return l.assert.Locator(l.l).ToHaveText(text, playwright.LocatorAssertionsToHaveTextOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (l *pwLocator) ExpectContainsText(text string, timeout time.Duration) error {
	return l.assert.Locator(l.l).ToContainText(text, playwright.LocatorAssertionsToContainTextOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (l *pwLocator) ExpectNotContainsText(text string, timeout time.Duration) error {
	return l.assert.Locator(l.l).Not().ToContainText(text, playwright.LocatorAssertionsToContainTextOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (l *pwLocator) ExpectValue(value string, timeout time.Duration) error {
	return l.assert.Locator(l.l).ToHaveValue(value, playwright.LocatorAssertionsToHaveValueOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (l *pwLocator) ExpectCount(n int, timeout time.Duration) error {
	return l.assert.Locator(l.l).ToHaveCount(n, playwright.LocatorAssertionsToHaveCountOptions{
		Timeout: timeoutOpt(timeout),
	})
}

func (l *pwLocator) String() string {
	return l.desc
}

type pwFrame struct {
	f      playwright.FrameLocator
	desc   string
	assert playwright.PlaywrightAssertions
}

func (f *pwFrame) Locator(selector string) Locator {
	return &pwLocator{l: f.f.Locator(selector), desc: f.desc + " >> " + selector, assert: f.assert}
}

func (f *pwFrame) GetByText(m TextMatch) Locator {
	return &pwLocator{
		l:      f.f.GetByText(textArg(m), playwright.FrameLocatorGetByTextOptions{Exact: playwright.Bool(m.Exact)}),
		desc:   f.desc + " >> text=" + m.String(),
		assert: f.assert,
	}
}

func (f *pwFrame) FrameLocator(selector string) FrameLocator {
	return &pwFrame{f: f.f.FrameLocator(selector), desc: f.desc + " >> " + selector, assert: f.assert}
}

func (f *pwFrame) Nth(index int) FrameLocator {
	return &pwFrame{f: f.f.Nth(index), desc: f.desc + " >> nth=" + strconv.Itoa(index), assert: f.assert}
}

func (f *pwFrame) First() FrameLocator {
	return &pwFrame{f: f.f.First(), desc: f.desc + " >> nth=0", assert: f.assert}
}

func (f *pwFrame) String() string {
	return f.desc
}

func mapErr(err error) error {
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return wrapTimeout(err)
	}
	return err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func timeoutOpt(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(millis(d))
}

func textArg(m TextMatch) interface{} {
	if m.Pattern != nil {
		return m.Pattern
	}
	return m.Text
}

func roleDesc(role, name string) string {
	return fmt.Sprintf("role=%s[name=%q]", role, name)
}

func waitUntilState(s LoadState) *playwright.WaitUntilState {
	switch s {
	case LoadStateLoad:
		return playwright.WaitUntilStateLoad
	case LoadStateNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

func loadState(s LoadState) *playwright.LoadState {
	switch s {
	case LoadStateLoad:
		return playwright.LoadStateLoad
	case LoadStateNetworkIdle:
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateDomcontentloaded
	}
}

func selectorState(s ElementState) *playwright.WaitForSelectorState {
	switch s {
	case StateAttached:
		return playwright.WaitForSelectorStateAttached
	case StateHidden:
		return playwright.WaitForSelectorStateHidden
	case StateDetached:
		return playwright.WaitForSelectorStateDetached
	default:
		return playwright.WaitForSelectorStateVisible
	}
}
