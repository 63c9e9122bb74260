package pages

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/action"
	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/observability"
	"github.com/testforge/shopsuite/internal/overlay"
	"github.com/testforge/shopsuite/internal/wait"
)

// Session is the per-scenario bundle every page object works through. It is
// never shared between scenarios.
type Session struct {
	Page    browser.Page
	Actions *action.Actions
	// Overlay is nil when ad dismissal is disabled
	Overlay *overlay.Dismisser
	BaseURL string
	Logger  *zap.Logger
}

// NewSession wires the wait, action and overlay layers for page
func NewSession(page browser.Page, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	actionCfg, err := action.ConfigFrom(cfg)
	if err != nil {
		return nil, fmt.Errorf("building action config: %w", err)
	}
	waiter := wait.New(page, cfg.Timeouts, logger).WithMetrics(metrics)
	actions := action.New(page, waiter, actionCfg, logger, action.WithMetrics(metrics))

	s := &Session{
		Page:    page,
		Actions: actions,
		BaseURL: cfg.BaseURL,
		Logger:  logger,
	}

	if cfg.Overlay.Enabled {
		overlayCfg, err := overlay.ConfigFrom(cfg.Overlay, cfg.Policies.Overlay)
		if err != nil {
			return nil, fmt.Errorf("building overlay config: %w", err)
		}
		s.Overlay = overlay.New(page, actions, overlayCfg, logger, overlay.WithMetrics(metrics))
	}

	return s, nil
}

// Site holds one instance of every page object of the store
type Site struct {
	Home            *HomePage
	Login           *LoginPage
	AccountCreation *AccountCreationPage
	Products        *ProductsPage
	Cart            *CartPage
	Checkout        *CheckoutPage
	Payment         *PaymentPage
	ContactUs       *ContactUsPage
	TestCases       *TestCasesPage
}

// NewSite builds all page objects over s
func NewSite(s *Session) *Site {
	return &Site{
		Home:            NewHomePage(s),
		Login:           NewLoginPage(s),
		AccountCreation: NewAccountCreationPage(s),
		Products:        NewProductsPage(s),
		Cart:            NewCartPage(s),
		Checkout:        NewCheckoutPage(s),
		Payment:         NewPaymentPage(s),
		ContactUs:       NewContactUsPage(s),
		TestCases:       NewTestCasesPage(s),
	}
}
