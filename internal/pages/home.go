package pages

import (
	"github.com/testforge/shopsuite/internal/browser"
)

const (
	carouselText           = "Full-Fledged practice website for Automation Engineers"
	scrollToBottomScript   = "window.scrollTo(0, document.body.scrollHeight)"
	accountDeletedHeadline = "Account Deleted!"
)

// HomePage is the storefront landing page and its top navigation
type HomePage struct {
	Base
	Footer

	SignupLoginLink   browser.Target
	ProductsLink      browser.Target
	CartLink          browser.Target
	LogoutLink        browser.Target
	DeleteAccountLink browser.Target
	ContactUsLink     browser.Target
	TestCasesLink     browser.Target

	ScrollUpArrow browser.Target
	Carousel      browser.Target
}

// NewHomePage builds the home page object
func NewHomePage(s *Session) *HomePage {
	b := newBase(s, "/")
	return &HomePage{
		Base:              b,
		Footer:            newFooter(s),
		SignupLoginLink:   b.role("link", "Signup / Login"),
		ProductsLink:      b.role("link", "Products"),
		CartLink:          b.role("link", "Cart"),
		LogoutLink:        b.role("link", "Logout"),
		DeleteAccountLink: b.role("link", "Delete Account"),
		ContactUsLink:     b.role("link", "Contact us"),
		TestCasesLink:     browser.ByHandle(s.Page.Locator(".shop-menu").GetByRole("link", "Test Cases")),
		ScrollUpArrow:     b.css("#scrollUp"),
		Carousel:          b.css("#slider-carousel"),
	}
}

// VerifyLoaded asserts the landing page is shown
func (p *HomePage) VerifyLoaded() error {
	return p.act().ExpectVisible(p.Carousel)
}

func (p *HomePage) ClickSignupLogin() error   { return p.act().Click(p.SignupLoginLink) }
func (p *HomePage) ClickProducts() error      { return p.act().Click(p.ProductsLink) }
func (p *HomePage) ClickCart() error          { return p.act().Click(p.CartLink) }
func (p *HomePage) ClickLogout() error        { return p.act().Click(p.LogoutLink) }
func (p *HomePage) ClickDeleteAccount() error { return p.act().Click(p.DeleteAccountLink) }
func (p *HomePage) ClickContactUs() error     { return p.act().Click(p.ContactUsLink) }
func (p *HomePage) ClickTestCases() error     { return p.act().Click(p.TestCasesLink) }

// VerifyLoggedInAs asserts the header greets name
func (p *HomePage) VerifyLoggedInAs(name string) error {
	return p.ExpectText("Logged in as " + name)
}

// VerifyAccountDeleted asserts the deletion confirmation and continues back
// to the storefront
func (p *HomePage) VerifyAccountDeleted() error {
	if err := p.ExpectText(accountDeletedHeadline); err != nil {
		return err
	}
	return p.act().Click(p.dataQA("continue-button"))
}

// ScrollToBottom scrolls the window to the footer
func (p *HomePage) ScrollToBottom() error {
	_, err := p.act().Evaluate(scrollToBottomScript)
	return err
}

// ClickScrollUpArrow uses the floating arrow to return to the top
func (p *HomePage) ClickScrollUpArrow() error {
	return p.act().Click(p.ScrollUpArrow)
}

// VerifyCarouselHeadline asserts the hero text at the top of the page
func (p *HomePage) VerifyCarouselHeadline() error {
	return p.act().AssertVisible(browser.ByHandle(p.page().Locator("#slider-carousel").GetByText(browser.Text(carouselText)).First()))
}

// VerifyRecommendedItems asserts the recommended carousel is shown
func (p *HomePage) VerifyRecommendedItems() error {
	return p.ExpectText("recommended items")
}

// AddRecommendedToCart adds name from the recommended carousel and opens the
// cart from the confirmation modal
func (p *HomePage) AddRecommendedToCart(name string) error {
	card := p.page().Locator(".recommended_items .product-image-wrapper").Filter(name).First()
	if err := p.act().Click(browser.ByHandle(card.Locator(".add-to-cart").First())); err != nil {
		return err
	}
	return p.act().Click(p.role("link", "View Cart"))
}
