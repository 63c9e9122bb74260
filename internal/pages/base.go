// Package pages holds one page object per storefront page. Page objects only
// describe where things are and which steps make up a user action; all waiting
// and error handling is delegated to the action layer.
package pages

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/action"
	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/overlay"
)

// Base is embedded by every page object
type Base struct {
	s    *Session
	path string
}

func newBase(s *Session, path string) Base {
	return Base{s: s, path: path}
}

func (b Base) act() *action.Actions { return b.s.Actions }

func (b Base) page() browser.Page { return b.s.Page }

// Path is the page's path relative to the base URL
func (b Base) Path() string { return b.path }

// Open navigates to the page's own path
func (b Base) Open() error {
	return b.NavigateTo(b.path)
}

// NavigateTo loads path relative to the base URL
func (b Base) NavigateTo(path string) error {
	return b.act().Navigate(b.resolve(path))
}

func (b Base) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimRight(b.s.BaseURL, "/")
	if base == "" {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Title returns the document title
func (b Base) Title() (string, error) {
	return b.page().Title()
}

// URL returns the current page URL
func (b Base) URL() string {
	return b.page().URL()
}

// WaitForURL waits until the page URL matches a glob pattern
func (b Base) WaitForURL(pattern string) error {
	return b.page().WaitForURL(pattern, b.act().Config().Timeouts.Navigation)
}

// ExpectURL asserts that the page URL matches pattern
func (b Base) ExpectURL(pattern *regexp.Regexp) error {
	return b.act().ExpectURL(pattern)
}

// ExpectTitle asserts that the document title matches pattern
func (b Base) ExpectTitle(pattern *regexp.Regexp) error {
	return b.act().ExpectTitle(pattern)
}

// ExpectText asserts that an element containing text is visible
func (b Base) ExpectText(text string) error {
	return b.act().AssertVisible(b.text(text))
}

// CloseAdIfPresent runs the overlay dismissal heuristic. It is a no-op when
// ad dismissal is disabled.
func (b Base) CloseAdIfPresent(ctx context.Context) (overlay.Result, error) {
	if b.s.Overlay == nil {
		return overlay.Result{State: overlay.Idle}, nil
	}
	res, err := b.s.Overlay.Dismiss(ctx)
	if err == nil && res.Closed() {
		b.s.Logger.Debug("ad overlay closed", zap.String("page", b.path))
	}
	return res, err
}

func (b Base) css(selector string) browser.Target {
	return browser.ByName(selector)
}

func (b Base) text(text string) browser.Target {
	return browser.ByHandle(b.page().GetByText(browser.Text(text)).First())
}

func (b Base) role(role, name string) browser.Target {
	return browser.ByHandle(b.page().GetByRole(role, name))
}

func (b Base) dataQA(name string) browser.Target {
	return browser.ByName(`[data-qa="` + name + `"]`)
}
