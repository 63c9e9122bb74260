package wait

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/browser/browsertest"
	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/domain"
)

const schedulingSlack = 250 * time.Millisecond

func newWaiter(page *browsertest.Page) *Waiter {
	return New(page, config.DefaultTimeouts(), zap.NewNop())
}

func TestCondition_String(t *testing.T) {
	tests := []struct {
		cond      Condition
		expected  string
		lifecycle bool
	}{
		{Visible, "visible", false},
		{Attached, "attached", false},
		{Enabled, "enabled", false},
		{ContentLoaded, "content-loaded", true},
		{NetworkIdle, "network-idle", true},
		{FullyLoaded, "fully-loaded", true},
		{Condition(99), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cond.String())
			assert.Equal(t, tt.lifecycle, tt.cond.Lifecycle())
		})
	}
}

func TestNew_FillsZeroTimeouts(t *testing.T) {
	w := New(browsertest.NewPage(), config.Timeouts{Element: time.Second}, nil)

	require.NotNil(t, w.logger)
	assert.Equal(t, time.Second, w.Timeouts().Element)
	assert.Equal(t, config.DefaultTimeouts().Navigation, w.Timeouts().Navigation)
}

func TestWaiter_VisibleSucceeds(t *testing.T) {
	tests := []struct {
		name   string
		target func(p *browsertest.Page) browser.Target
	}{
		{
			name:   "by selector",
			target: func(*browsertest.Page) browser.Target { return browser.ByName("#subscribe") },
		},
		{
			name:   "by handle",
			target: func(p *browsertest.Page) browser.Target { return browser.ByHandle(p.Locator("#subscribe")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.NewPage()
			page.Add("#subscribe", browsertest.Visible("Subscribe"))

			err := newWaiter(page).Visible(tt.target(page))

			require.NoError(t, err)
			assert.Equal(t, []string{"waitfor #subscribe visible"}, page.Calls())
		})
	}
}

func TestWaiter_VisibleAfterDelay(t *testing.T) {
	page := browsertest.NewPage()
	page.Add("#late", &browsertest.Element{Visible: true, AppearAfter: 50 * time.Millisecond})

	err := newWaiter(page).VisibleWithin(browser.ByName("#late"), time.Second)

	require.NoError(t, err)
}

func TestWaiter_TimeoutIsBounded(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		add  *browsertest.Element
	}{
		{name: "visible on missing element", cond: Visible},
		{name: "visible on hidden element", cond: Visible, add: &browsertest.Element{}},
		{name: "attached on missing element", cond: Attached},
		{name: "enabled on disabled element", cond: Enabled, add: &browsertest.Element{Visible: true, Disabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.NewPage()
			if tt.add != nil {
				page.Add("#target", tt.add)
			}
			timeout := 60 * time.Millisecond
			w := New(page, config.Timeouts{Element: timeout}, zap.NewNop())

			start := time.Now()
			err := w.For(tt.cond, browser.ByName("#target"))
			elapsed := time.Since(start)

			require.Error(t, err)
			assert.Less(t, elapsed, timeout+schedulingSlack)
			assert.True(t, errors.Is(err, domain.ErrTimeoutSentinel))

			appErr, ok := domain.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.cond.String(), appErr.Condition())
			assert.Equal(t, "selector(#target)", appErr.Metadata[domain.MetaTarget])
			assert.Equal(t, timeout, appErr.Metadata[domain.MetaTimeout])
			assert.GreaterOrEqual(t, appErr.Elapsed(), time.Duration(0))
		})
	}
}

func TestWaiter_AttachedAcceptsHiddenElement(t *testing.T) {
	page := browsertest.NewPage()
	page.Add("#hidden", &browsertest.Element{})

	err := newWaiter(page).Attached(browser.ByName("#hidden"))

	require.NoError(t, err)
}

func TestWaiter_EmptyTarget(t *testing.T) {
	err := newWaiter(browsertest.NewPage()).Visible(browser.Target{})

	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeValidation, domain.GetErrorCode(err))
}

func TestWaiter_Lifecycle(t *testing.T) {
	page := browsertest.NewPage()
	w := newWaiter(page)

	require.NoError(t, w.DocumentLoaded())
	require.NoError(t, w.NetworkIdle())
	require.NoError(t, w.FullyLoaded())

	assert.Equal(t, []string{
		"load domcontentloaded",
		"load networkidle",
		"load load",
	}, page.Calls())
}

func TestWaiter_LifecycleFailure(t *testing.T) {
	page := browsertest.NewPage()
	page.LoadErr[browser.LoadStateNetworkIdle] = browser.ErrTimeout

	err := newWaiter(page).NetworkIdle()

	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeTimeout, appErr.Code)
	assert.Equal(t, "network-idle", appErr.Condition())
	assert.ErrorIs(t, err, browser.ErrTimeout)
}

func TestWaiter_LifecycleRejectsElementCondition(t *testing.T) {
	err := newWaiter(browsertest.NewPage()).Lifecycle(Visible)

	assert.Equal(t, domain.ErrCodeValidation, domain.GetErrorCode(err))
}

func TestWaiter_Sleep(t *testing.T) {
	page := browsertest.NewPage()
	page.RealSleep = false

	newWaiter(page).Sleep(150 * time.Millisecond)

	assert.Equal(t, []string{"sleep 150ms"}, page.Calls())
}
