package pages

import (
	"strconv"
	"time"

	"github.com/testforge/shopsuite/internal/action"
	"github.com/testforge/shopsuite/internal/browser"
)

// the checkout button sits below a long table and reacts slowly
const proceedToCheckoutTimeout = 20 * time.Second

// CartPage is the shopping cart table
type CartPage struct {
	Base
	Footer

	Table             browser.Target
	ProceedToCheckout browser.Target
	RegisterLogin     browser.Target
}

// NewCartPage builds the cart page object
func NewCartPage(s *Session) *CartPage {
	b := newBase(s, "/view_cart")
	return &CartPage{
		Base:              b,
		Footer:            newFooter(s),
		Table:             b.css("#cart_info_table"),
		ProceedToCheckout: b.text("Proceed To Checkout"),
		RegisterLogin:     browser.ByHandle(s.Page.Locator(".modal-content").GetByRole("link", "Register / Login")),
	}
}

func (p *CartPage) rows(name string) browser.Locator {
	return p.page().Locator("#cart_info_table tbody tr").Filter(name)
}

// VerifyLoaded asserts the cart table is shown
func (p *CartPage) VerifyLoaded() error {
	return p.act().ExpectVisible(p.Table)
}

// VerifyProductInCart asserts a row for name exists
func (p *CartPage) VerifyProductInCart(name string) error {
	return p.act().AssertVisible(browser.ByHandle(p.rows(name).First()))
}

// VerifyProductQuantity asserts the quantity shown in name's row
func (p *CartPage) VerifyProductQuantity(name string, quantity int) error {
	qty := browser.ByHandle(p.rows(name).First().Locator(".cart_quantity button"))
	return p.act().ExpectText(qty, strconv.Itoa(quantity))
}

// VerifyItemCount asserts the number of rows in the cart
func (p *CartPage) VerifyItemCount(n int) error {
	return p.act().ExpectCount(p.css("#cart_info_table tbody tr"), n)
}

// RemoveProduct deletes name's row
func (p *CartPage) RemoveProduct(name string) error {
	return p.act().Click(browser.ByHandle(p.rows(name).First().Locator(".cart_delete a")))
}

// VerifyProductRemoved asserts no row for name is left
func (p *CartPage) VerifyProductRemoved(name string) error {
	return p.act().ExpectCount(browser.ByHandle(p.rows(name)), 0)
}

// VerifyEmpty asserts the empty-cart message
func (p *CartPage) VerifyEmpty() error {
	return p.ExpectText("Cart is empty!")
}

// ClickProceedToCheckout scrolls to and clicks the checkout button
func (p *CartPage) ClickProceedToCheckout() error {
	if err := p.act().ScrollIntoView(p.ProceedToCheckout); err != nil {
		return err
	}
	return p.act().Click(p.ProceedToCheckout, action.Timeout(proceedToCheckoutTimeout))
}

// ClickRegisterLogin follows the login prompt shown to anonymous users at
// checkout
func (p *CartPage) ClickRegisterLogin() error {
	return p.act().Click(p.RegisterLogin)
}
