package pages

import (
	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/domain"
)

// CheckoutPage is the order review step
type CheckoutPage struct {
	Base

	DeliveryAddress browser.Target
	BillingAddress  browser.Target
	OrderTable      browser.Target
	Comment         browser.Target
	PlaceOrder      browser.Target
}

// NewCheckoutPage builds the checkout page object
func NewCheckoutPage(s *Session) *CheckoutPage {
	b := newBase(s, "/checkout")
	return &CheckoutPage{
		Base:            b,
		DeliveryAddress: b.css("#address_delivery"),
		BillingAddress:  b.css("#address_invoice"),
		OrderTable:      b.css("#cart_info"),
		Comment:         b.css(`textarea[name="message"]`),
		PlaceOrder:      b.role("link", "Place Order"),
	}
}

// VerifyLoaded asserts the review heading is shown
func (p *CheckoutPage) VerifyLoaded() error {
	if err := p.ExpectText("Address Details"); err != nil {
		return err
	}
	return p.ExpectText("Review Your Order")
}

// VerifyAddressDetails asserts that both addresses show the user's name and
// first address line
func (p *CheckoutPage) VerifyAddressDetails(u domain.UserInfo) error {
	for _, address := range []browser.Target{p.DeliveryAddress, p.BillingAddress} {
		if err := p.act().ExpectContainsText(address, u.FirstName+" "+u.LastName); err != nil {
			return err
		}
		if err := p.act().ExpectContainsText(address, u.Address1); err != nil {
			return err
		}
	}
	return nil
}

// VerifyProductInOrder asserts name is part of the order
func (p *CheckoutPage) VerifyProductInOrder(name string) error {
	return p.act().ExpectContainsText(p.OrderTable, name)
}

// PlaceOrderWithComment fills the order comment and proceeds to payment
func (p *CheckoutPage) PlaceOrderWithComment(comment string) error {
	if err := p.act().Fill(p.Comment, comment); err != nil {
		return err
	}
	return p.act().Click(p.PlaceOrder)
}
