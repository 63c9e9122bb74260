package pages

import (
	"strconv"
	"strings"

	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/domain"
)

const orderPlacedHeadline = "Order Placed!"

// PaymentPage is the card form and the order confirmation that follows it
type PaymentPage struct {
	Base

	NameOnCard      browser.Target
	CardNumber      browser.Target
	CVC             browser.Target
	ExpiryMonth     browser.Target
	ExpiryYear      browser.Target
	PayButton       browser.Target
	DownloadInvoice browser.Target
	ContinueButton  browser.Target
}

// NewPaymentPage builds the payment page object
func NewPaymentPage(s *Session) *PaymentPage {
	b := newBase(s, "/payment")
	return &PaymentPage{
		Base:            b,
		NameOnCard:      b.dataQA("name-on-card"),
		CardNumber:      b.dataQA("card-number"),
		CVC:             b.dataQA("cvc"),
		ExpiryMonth:     b.dataQA("expiry-month"),
		ExpiryYear:      b.dataQA("expiry-year"),
		PayButton:       b.dataQA("pay-button"),
		DownloadInvoice: b.role("link", "Download Invoice"),
		ContinueButton:  b.dataQA("continue-button"),
	}
}

// FillPaymentDetails fills the card form
func (p *PaymentPage) FillPaymentDetails(c domain.Card) error {
	for _, f := range []struct {
		target browser.Target
		value  string
	}{
		{p.NameOnCard, c.NameOnCard},
		{p.CardNumber, c.Number},
		{p.CVC, c.CVC},
		{p.ExpiryMonth, c.ExpMonth},
		{p.ExpiryYear, c.ExpYear},
	} {
		if err := p.act().Fill(f.target, f.value); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmPayment submits the card form
func (p *PaymentPage) ConfirmPayment() error {
	return p.act().Click(p.PayButton)
}

// VerifyOrderPlaced asserts the order confirmation headline
func (p *PaymentPage) VerifyOrderPlaced() error {
	return p.act().ExpectVisible(p.text(orderPlacedHeadline))
}

// DownloadInvoiceFile clicks the invoice link and returns the suggested
// filename of the resulting download
func (p *PaymentPage) DownloadInvoiceFile() (string, error) {
	if err := p.act().Waiter().Visible(p.DownloadInvoice); err != nil {
		return "", err
	}
	dl, err := p.page().ExpectDownload(func() error {
		return p.act().Click(p.DownloadInvoice)
	})
	if err != nil {
		return "", domain.ErrAction("download", p.DownloadInvoice.String(), err)
	}
	name := dl.SuggestedFilename()
	if !strings.Contains(strings.ToLower(name), "invoice") {
		return name, domain.ErrAssertionFailed(`named like an invoice`, "download "+strconv.Quote(name), 0, nil)
	}
	return name, nil
}

// ClickContinue leaves the confirmation page
func (p *PaymentPage) ClickContinue() error {
	return p.act().Click(p.ContinueButton)
}
