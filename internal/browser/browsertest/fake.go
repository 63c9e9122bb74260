// Package browsertest provides scripted in-memory implementations of the
// browser interfaces. Elements are registered under lookup keys built the same
// way the fakes build them from locator chains: segments joined with " >> ",
// e.g. Join("#cart", "text=Blue Top"). A trailing or inner "nth=0" segment is
// ignored so First() resolves to the registered element.
package browsertest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/testforge/shopsuite/internal/browser"
)

const pollInterval = 5 * time.Millisecond

// Option is an <option> of a select element
type Option struct {
	Value string
	Label string
}

// Element is a scripted DOM element. Zero value is attached, hidden and enabled.
type Element struct {
	Visible  bool
	Detached bool
	Disabled bool
	Text     string
	Value    string
	Options  []Option
	Checked  bool

	// AppearAfter delays the element reaching its scripted state
	AppearAfter time.Duration

	ClickErr  error
	FillErr   error
	CheckErr  error
	HoverErr  error
	SelectErr error
	UploadErr error

	// OnClick runs after a successful click
	OnClick func()

	Clicks    int
	LastClick browser.ClickOptions
	Hovers    int
	Files     []browser.File
	Selected  []string

	added time.Time
}

// Visible returns a visible element with the given text
func Visible(text string) *Element {
	return &Element{Visible: true, Text: text}
}

// Join builds a lookup key from locator segments
func Join(parts ...string) string {
	return normalize(strings.Join(parts, " >> "))
}

// TextKey is the key segment produced by GetByText(m)
func TextKey(m browser.TextMatch) string {
	return "text=" + m.String()
}

// RoleKey is the key segment produced by GetByRole(role, name)
func RoleKey(role, name string) string {
	return fmt.Sprintf("role=%s[name=%q]", role, name)
}

// LabelKey is the key segment produced by GetByLabel(label)
func LabelKey(label string) string {
	return "label=" + label
}

// HasTextKey is the key segment produced by Filter(hasText)
func HasTextKey(text string) string {
	return "has-text=" + text
}

// NthKey is the key segment produced by Nth(i)
func NthKey(i int) string {
	return "nth=" + strconv.Itoa(i)
}

func normalize(key string) string {
	parts := strings.Split(key, " >> ")
	out := parts[:0]
	for _, p := range parts {
		if p == "nth=0" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, " >> ")
}

func join(parent, seg string) string {
	if parent == "" {
		return seg
	}
	return parent + " >> " + seg
}

// Page is an instrumented fake browser.Page. It records every wait and
// interaction in call order.
type Page struct {
	mu       sync.Mutex
	elements map[string]*Element
	calls    []string

	URLValue   string
	TitleValue string

	GotoErr        error
	LoadErr        map[browser.LoadState]error
	EvaluateResult any
	EvaluateErr    error
	ScreenshotData []byte
	ScreenshotErr  error
	DownloadName   string

	// RealSleep makes WaitForTimeout block for the requested duration
	RealSleep bool
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty page whose WaitForTimeout really sleeps
func NewPage() *Page {
	return &Page{
		elements:  make(map[string]*Element),
		LoadErr:   make(map[browser.LoadState]error),
		RealSleep: true,
	}
}

// Add registers el under key and returns it
func (p *Page) Add(key string, el *Element) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	el.added = time.Now()
	p.elements[normalize(key)] = el
	return el
}

// Remove detaches the element registered under key
func (p *Page) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, normalize(key))
}

// SetVisible toggles visibility of a registered element
func (p *Page) SetVisible(key string, visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.elements[normalize(key)]; ok {
		el.Visible = visible
	}
}

// Element returns the element registered under key
func (p *Page) Element(key string) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[normalize(key)]
}

// Calls returns a copy of the recorded calls
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// CallsWithPrefix returns the recorded calls starting with prefix
func (p *Page) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range p.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Index returns the position of the first call equal to call, or -1
func (p *Page) Index(call string) int {
	for i, c := range p.Calls() {
		if c == call {
			return i
		}
	}
	return -1
}

// ResetCalls clears the call log
func (p *Page) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

func (p *Page) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *Page) lookup(key string) (*Element, bool) {
	el, ok := p.elements[normalize(key)]
	if !ok || time.Since(el.added) < el.AppearAfter {
		return nil, false
	}
	return el, true
}

func (p *Page) satisfied(key string, state browser.ElementState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.lookup(key)
	switch state {
	case browser.StateVisible:
		return ok && !el.Detached && el.Visible
	case browser.StateAttached:
		return ok && !el.Detached
	case browser.StateHidden:
		return !ok || el.Detached || !el.Visible
	case browser.StateDetached:
		return !ok || el.Detached
	}
	return false
}

func (p *Page) poll(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// with runs fn on the element under key, or fails like the runtime would
func (p *Page) with(key string, fn func(el *Element) error) error {
	p.mu.Lock()
	el, ok := p.lookup(key)
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: no element matches %q", browser.ErrTimeout, key)
	}
	err := fn(el)
	p.mu.Unlock()
	return err
}

func (p *Page) Goto(url string, until browser.LoadState, timeout time.Duration) error {
	p.record("goto %s %s", url, until)
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.mu.Lock()
	p.URLValue = url
	p.mu.Unlock()
	return nil
}

func (p *Page) WaitForLoadState(state browser.LoadState, timeout time.Duration) error {
	p.record("load %s", state)
	p.mu.Lock()
	err := p.LoadErr[state]
	p.mu.Unlock()
	return err
}

func (p *Page) WaitForURL(pattern string, timeout time.Duration) error {
	p.record("waiturl %s", pattern)
	ok := p.poll(timeout, func() bool {
		return urlMatches(pattern, p.URL())
	})
	if !ok {
		return fmt.Errorf("%w: url %q does not match %q", browser.ErrTimeout, p.URL(), pattern)
	}
	return nil
}

func urlMatches(pattern, url string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == url
	}
	for _, part := range strings.Split(pattern, "*") {
		if part != "" && !strings.Contains(url, part) {
			return false
		}
	}
	return true
}

func (p *Page) WaitForTimeout(d time.Duration) {
	p.record("sleep %s", d)
	if p.RealSleep {
		time.Sleep(d)
	}
}

func (p *Page) Locator(selector string) browser.Locator {
	return &Locator{page: p, key: selector}
}

func (p *Page) GetByText(m browser.TextMatch) browser.Locator {
	return &Locator{page: p, key: TextKey(m)}
}

func (p *Page) GetByRole(role, name string) browser.Locator {
	return &Locator{page: p, key: RoleKey(role, name)}
}

func (p *Page) GetByLabel(label string) browser.Locator {
	return &Locator{page: p, key: LabelKey(label)}
}

func (p *Page) FrameLocator(selector string) browser.FrameLocator {
	return &FrameLocator{page: p, key: selector}
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.TitleValue, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.URLValue
}

func (p *Page) Evaluate(expression string) (any, error) {
	p.record("evaluate %s", expression)
	return p.EvaluateResult, p.EvaluateErr
}

func (p *Page) Screenshot(fullPage bool) ([]byte, error) {
	p.record("screenshot")
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	if p.ScreenshotData == nil {
		return []byte("\x89PNG\r\n\x1a\n"), nil
	}
	return p.ScreenshotData, nil
}

func (p *Page) ExpectDownload(trigger func() error) (browser.Download, error) {
	p.record("expect-download")
	if err := trigger(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.DownloadName == "" {
		return nil, fmt.Errorf("%w: no download started", browser.ErrTimeout)
	}
	return download(p.DownloadName), nil
}

func (p *Page) ExpectTitle(pattern *regexp.Regexp, timeout time.Duration) error {
	p.record("expect-title %s", pattern)
	if !p.poll(timeout, func() bool {
		title, _ := p.Title()
		return pattern.MatchString(title)
	}) {
		title, _ := p.Title()
		return fmt.Errorf("expected title to match %s, got %q", pattern, title)
	}
	return nil
}

func (p *Page) ExpectURL(pattern *regexp.Regexp, timeout time.Duration) error {
	p.record("expect-url %s", pattern)
	if !p.poll(timeout, func() bool { return pattern.MatchString(p.URL()) }) {
		return fmt.Errorf("expected url to match %s, got %q", pattern, p.URL())
	}
	return nil
}

type download string

func (d download) SuggestedFilename() string { return string(d) }

// Locator is a fake browser.Locator bound to a lookup key
type Locator struct {
	page *Page
	key  string
}

var _ browser.Locator = (*Locator)(nil)

// Key returns the normalized lookup key of the locator
func (l *Locator) Key() string { return normalize(l.key) }

func (l *Locator) child(seg string) browser.Locator {
	return &Locator{page: l.page, key: join(l.key, seg)}
}

func (l *Locator) Locator(selector string) browser.Locator   { return l.child(selector) }
func (l *Locator) GetByText(m browser.TextMatch) browser.Locator { return l.child(TextKey(m)) }
func (l *Locator) GetByRole(role, name string) browser.Locator {
	return l.child(RoleKey(role, name))
}
func (l *Locator) Filter(hasText string) browser.Locator { return l.child(HasTextKey(hasText)) }
func (l *Locator) First() browser.Locator                { return l.child(NthKey(0)) }
func (l *Locator) Nth(index int) browser.Locator         { return l.child(NthKey(index)) }

func (l *Locator) Click(opts browser.ClickOptions) error {
	l.page.record("click %s", l.Key())
	var onClick func()
	err := l.page.with(l.key, func(el *Element) error {
		if el.ClickErr != nil {
			return el.ClickErr
		}
		el.Clicks++
		el.LastClick = opts
		onClick = el.OnClick
		return nil
	})
	if err == nil && onClick != nil {
		onClick()
	}
	return err
}

func (l *Locator) Fill(value string) error {
	l.page.record("fill %s %s", l.Key(), value)
	return l.page.with(l.key, func(el *Element) error {
		if el.FillErr != nil {
			return el.FillErr
		}
		el.Value = value
		return nil
	})
}

func (l *Locator) Check() error {
	l.page.record("check %s", l.Key())
	return l.page.with(l.key, func(el *Element) error {
		if el.CheckErr != nil {
			return el.CheckErr
		}
		el.Checked = true
		return nil
	})
}

func (l *Locator) Hover() error {
	l.page.record("hover %s", l.Key())
	return l.page.with(l.key, func(el *Element) error {
		if el.HoverErr != nil {
			return el.HoverErr
		}
		el.Hovers++
		return nil
	})
}

func (l *Locator) SelectOption(values browser.SelectValues) ([]string, error) {
	var selected []string
	switch {
	case len(values.Values) > 0:
		l.page.record("select %s value=%s", l.Key(), strings.Join(values.Values, ","))
	case len(values.Labels) > 0:
		l.page.record("select %s label=%s", l.Key(), strings.Join(values.Labels, ","))
	default:
		l.page.record("select %s index=%v", l.Key(), values.Indexes)
	}
	err := l.page.with(l.key, func(el *Element) error {
		if el.SelectErr != nil {
			return el.SelectErr
		}
		for i, opt := range el.Options {
			if contains(values.Values, opt.Value) || contains(values.Labels, opt.Label) || containsInt(values.Indexes, i) {
				selected = append(selected, opt.Value)
			}
		}
		if len(selected) == 0 {
			return errors.New("did not find some options")
		}
		el.Selected = selected
		el.Value = selected[0]
		return nil
	})
	return selected, err
}

func (l *Locator) SetInputFiles(files []browser.File) error {
	l.page.record("upload %s %d", l.Key(), len(files))
	return l.page.with(l.key, func(el *Element) error {
		if el.UploadErr != nil {
			return el.UploadErr
		}
		el.Files = append([]browser.File(nil), files...)
		return nil
	})
}

func (l *Locator) ScrollIntoViewIfNeeded() error {
	l.page.record("scroll %s", l.Key())
	return l.page.with(l.key, func(*Element) error { return nil })
}

func (l *Locator) TextContent() (string, error) {
	var text string
	err := l.page.with(l.key, func(el *Element) error {
		text = el.Text
		return nil
	})
	return text, err
}

func (l *Locator) InputValue() (string, error) {
	var value string
	err := l.page.with(l.key, func(el *Element) error {
		value = el.Value
		return nil
	})
	return value, err
}

func (l *Locator) Count() (int, error) {
	n := 0
	if l.page.satisfied(l.key, browser.StateAttached) {
		n++
	}
	for i := 1; l.page.satisfied(join(l.key, NthKey(i)), browser.StateAttached); i++ {
		n++
	}
	return n, nil
}

func (l *Locator) IsVisible() (bool, error) {
	return l.page.satisfied(l.key, browser.StateVisible), nil
}

func (l *Locator) IsEnabled() (bool, error) {
	var enabled bool
	err := l.page.with(l.key, func(el *Element) error {
		enabled = !el.Disabled
		return nil
	})
	return enabled, err
}

func (l *Locator) WaitFor(state browser.ElementState, timeout time.Duration) error {
	l.page.record("waitfor %s %s", l.Key(), state)
	if !l.page.poll(timeout, func() bool { return l.page.satisfied(l.key, state) }) {
		return fmt.Errorf("%w: waiting for %q to be %s", browser.ErrTimeout, l.Key(), state)
	}
	return nil
}

func (l *Locator) expect(name string, timeout time.Duration, cond func(el *Element) bool) error {
	l.page.record("expect-%s %s", name, l.Key())
	ok := l.page.poll(timeout, func() bool {
		l.page.mu.Lock()
		defer l.page.mu.Unlock()
		el, _ := l.page.lookup(l.key)
		return cond(el)
	})
	if !ok {
		return fmt.Errorf("expected %q to be %s", l.Key(), name)
	}
	return nil
}

func (l *Locator) ExpectVisible(timeout time.Duration) error {
	return l.expect("visible", timeout, func(el *Element) bool {
		return el != nil && !el.Detached && el.Visible
	})
}

func (l *Locator) ExpectEnabled(timeout time.Duration) error {
	return l.expect("enabled", timeout, func(el *Element) bool {
		return el != nil && !el.Disabled
	})
}

func (l *Locator) ExpectText(text string, timeout time.Duration) error {
	return l.expect("text", timeout, func(el *Element) bool {
		return el != nil && strings.TrimSpace(el.Text) == text
	})
}

func (l *Locator) ExpectContainsText(text string, timeout time.Duration) error {
	return l.expect("contains-text", timeout, func(el *Element) bool {
		return el != nil && strings.Contains(el.Text, text)
	})
}

func (l *Locator) ExpectNotContainsText(text string, timeout time.Duration) error {
	return l.expect("not-contains-text", timeout, func(el *Element) bool {
		return el == nil || !strings.Contains(el.Text, text)
	})
}

func (l *Locator) ExpectValue(value string, timeout time.Duration) error {
	return l.expect("value", timeout, func(el *Element) bool {
		return el != nil && el.Value == value
	})
}

func (l *Locator) ExpectCount(n int, timeout time.Duration) error {
	l.page.record("expect-count %s %d", l.Key(), n)
	if !l.page.poll(timeout, func() bool {
		got, _ := l.Count()
		return got == n
	}) {
		got, _ := l.Count()
		return fmt.Errorf("expected %q to have count %d, got %d", l.Key(), n, got)
	}
	return nil
}

func (l *Locator) String() string { return l.Key() }

// FrameLocator is a fake browser.FrameLocator; frame content lives in the
// same key space as the page, prefixed by the frame's key.
type FrameLocator struct {
	page *Page
	key  string
}

var _ browser.FrameLocator = (*FrameLocator)(nil)

func (f *FrameLocator) Locator(selector string) browser.Locator {
	return &Locator{page: f.page, key: join(f.key, selector)}
}

func (f *FrameLocator) GetByText(m browser.TextMatch) browser.Locator {
	return &Locator{page: f.page, key: join(f.key, TextKey(m))}
}

func (f *FrameLocator) FrameLocator(selector string) browser.FrameLocator {
	return &FrameLocator{page: f.page, key: join(f.key, selector)}
}

func (f *FrameLocator) Nth(index int) browser.FrameLocator {
	return &FrameLocator{page: f.page, key: join(f.key, NthKey(index))}
}

func (f *FrameLocator) First() browser.FrameLocator {
	return f.Nth(0)
}

func (f *FrameLocator) String() string { return normalize(f.key) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}

// Browser is a fake browser.Browser. Every context hands out fresh pages
// prepared by Setup.
type Browser struct {
	mu       sync.Mutex
	contexts []*Context
	closed   bool

	// Setup scripts each new page before it is returned
	Setup         func(p *Page)
	NewContextErr error
}

var _ browser.Browser = (*Browser)(nil)

// NewBrowser returns a fake browser whose pages are prepared by setup
func NewBrowser(setup func(p *Page)) *Browser {
	return &Browser{Setup: setup}
}

func (b *Browser) NewContext(opts browser.ContextOptions) (browser.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.NewContextErr != nil {
		return nil, b.NewContextErr
	}
	c := &Context{Options: opts, setup: b.Setup}
	b.contexts = append(b.contexts, c)
	return c, nil
}

// Contexts returns every context created so far
func (b *Browser) Contexts() []*Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Context(nil), b.contexts...)
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Context is a fake browser.Context
type Context struct {
	mu     sync.Mutex
	pages  []*Page
	closed bool
	setup  func(p *Page)

	Options browser.ContextOptions
}

var _ browser.Context = (*Context)(nil)

func (c *Context) NewPage() (browser.Page, error) {
	p := NewPage()
	p.RealSleep = false
	if c.setup != nil {
		c.setup(p)
	}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p, nil
}

// Pages returns the pages opened in the context
func (c *Context) Pages() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
