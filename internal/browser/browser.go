// Package browser defines the narrow browser-automation surface consumed by the
// wait, action and overlay layers and by the page objects. The production
// implementation is backed by playwright-go (see Launch); tests use the
// in-memory fakes from the browsertest package.
package browser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrTimeout is wrapped by every adapter error caused by a runtime timeout.
var ErrTimeout = errors.New("browser: timeout")

// LoadState is a page lifecycle milestone
type LoadState string

const (
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateLoad             LoadState = "load"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// ElementState is a target state for Locator.WaitFor
type ElementState string

const (
	StateVisible  ElementState = "visible"
	StateAttached ElementState = "attached"
	StateHidden   ElementState = "hidden"
	StateDetached ElementState = "detached"
)

// TextMatch describes how GetByText matches element text.
// Pattern takes precedence over Text when set.
type TextMatch struct {
	Text    string
	Exact   bool
	Pattern *regexp.Regexp
}

// Text matches elements containing s
func Text(s string) TextMatch { return TextMatch{Text: s} }

// ExactText matches elements whose full text equals s
func ExactText(s string) TextMatch { return TextMatch{Text: s, Exact: true} }

// Pattern matches elements whose text matches re
func Pattern(re *regexp.Regexp) TextMatch { return TextMatch{Pattern: re} }

func (m TextMatch) String() string {
	switch {
	case m.Pattern != nil:
		return "/" + m.Pattern.String() + "/"
	case m.Exact:
		return strconv.Quote(m.Text)
	default:
		return m.Text
	}
}

// ClickOptions mirrors the subset of runtime click options the suite uses.
// Zero Timeout means the runtime default.
type ClickOptions struct {
	Force   bool
	Timeout time.Duration
}

// SelectValues selects options of a <select> control. Exactly one field is
// expected to be set.
type SelectValues struct {
	Values  []string
	Labels  []string
	Indexes []int
}

// File is either a path on disk or an in-memory payload for a file input
type File struct {
	Path     string
	Name     string
	MimeType string
	Buffer   []byte
}

// FromPath builds a File referring to a path on disk
func FromPath(path string) File { return File{Path: path} }

// FromBytes builds an in-memory File
func FromBytes(name, mimeType string, data []byte) File {
	return File{Name: name, MimeType: mimeType, Buffer: data}
}

// InMemory reports whether the file carries its own content
func (f File) InMemory() bool { return f.Path == "" }

// Locator is a lazily resolved reference to zero or more elements. Every call
// resolves against the live document.
type Locator interface {
	Locator(selector string) Locator
	GetByText(m TextMatch) Locator
	GetByRole(role, name string) Locator
	Filter(hasText string) Locator
	First() Locator
	Nth(index int) Locator

	Click(opts ClickOptions) error
	Fill(value string) error
	Check() error
	Hover() error
	SelectOption(values SelectValues) ([]string, error)
	SetInputFiles(files []File) error
	ScrollIntoViewIfNeeded() error

	TextContent() (string, error)
	InputValue() (string, error)
	Count() (int, error)
	IsVisible() (bool, error)
	IsEnabled() (bool, error)
	WaitFor(state ElementState, timeout time.Duration) error

	ExpectVisible(timeout time.Duration) error
	ExpectEnabled(timeout time.Duration) error
	ExpectText(text string, timeout time.Duration) error
	ExpectContainsText(text string, timeout time.Duration) error
	ExpectNotContainsText(text string, timeout time.Duration) error
	ExpectValue(value string, timeout time.Duration) error
	ExpectCount(n int, timeout time.Duration) error

	String() string
}

// FrameLocator scopes lookups to the document of a (possibly nested) frame
type FrameLocator interface {
	Locator(selector string) Locator
	GetByText(m TextMatch) Locator
	FrameLocator(selector string) FrameLocator
	Nth(index int) FrameLocator
	First() FrameLocator
	String() string
}

// Download is a file download triggered by the page
type Download interface {
	SuggestedFilename() string
}

// Page is a single tab of an isolated browser context
type Page interface {
	Goto(url string, until LoadState, timeout time.Duration) error
	WaitForLoadState(state LoadState, timeout time.Duration) error
	WaitForURL(pattern string, timeout time.Duration) error
	WaitForTimeout(d time.Duration)

	Locator(selector string) Locator
	GetByText(m TextMatch) Locator
	GetByRole(role, name string) Locator
	GetByLabel(label string) Locator
	FrameLocator(selector string) FrameLocator

	Title() (string, error)
	URL() string
	Evaluate(expression string) (any, error)
	Screenshot(fullPage bool) ([]byte, error)
	ExpectDownload(trigger func() error) (Download, error)

	ExpectTitle(pattern *regexp.Regexp, timeout time.Duration) error
	ExpectURL(pattern *regexp.Regexp, timeout time.Duration) error
}

// ContextOptions configures an isolated browser context
type ContextOptions struct {
	BaseURL           string
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	BlockPatterns     []string
	AcceptDialogs     bool
}

// Context is an isolated browser session (cookies, storage, routes)
type Context interface {
	NewPage() (Page, error)
	Close() error
}

// Browser launches isolated contexts
type Browser interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
}

// TimeoutError reports whether err was caused by a runtime timeout
func TimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// wrapTimeout annotates a runtime timeout so callers can match ErrTimeout
func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTimeout, err)
}
