package pages

import (
	"github.com/testforge/shopsuite/internal/browser"
)

const contactSuccess = "Success! Your details have been submitted successfully."

// ContactForm is the input of the contact us form. File is optional.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
	File    *browser.File
}

// ContactUsPage is the contact form
type ContactUsPage struct {
	Base

	Name       browser.Target
	Email      browser.Target
	Subject    browser.Target
	Message    browser.Target
	Upload     browser.Target
	Submit     browser.Target
	Success    browser.Target
	HomeButton browser.Target
}

// NewContactUsPage builds the contact page object
func NewContactUsPage(s *Session) *ContactUsPage {
	b := newBase(s, "/contact_us")
	return &ContactUsPage{
		Base:       b,
		Name:       b.dataQA("name"),
		Email:      b.dataQA("email"),
		Subject:    b.dataQA("subject"),
		Message:    b.dataQA("message"),
		Upload:     b.css(`input[name="upload_file"]`),
		Submit:     b.dataQA("submit-button"),
		Success:    browser.ByHandle(s.Page.Locator(".status.alert.alert-success").First()),
		HomeButton: b.css(".btn.btn-success"),
	}
}

// VerifyLoaded asserts the form heading is shown
func (p *ContactUsPage) VerifyLoaded() error {
	return p.ExpectText("Get In Touch")
}

// fillChecked focuses the field, fills it and asserts the value stuck; the
// form drops keystrokes typed before its scripts attach
func (p *ContactUsPage) fillChecked(t browser.Target, value string) error {
	if err := p.act().Click(t); err != nil {
		return err
	}
	if err := p.act().Fill(t, value); err != nil {
		return err
	}
	return p.act().ExpectValue(t, value)
}

// SubmitContactForm fills and submits the form. The confirmation dialog is
// accepted by the browser context.
func (p *ContactUsPage) SubmitContactForm(f ContactForm) error {
	for _, field := range []struct {
		target browser.Target
		value  string
	}{
		{p.Name, f.Name},
		{p.Email, f.Email},
		{p.Subject, f.Subject},
		{p.Message, f.Message},
	} {
		if err := p.fillChecked(field.target, field.value); err != nil {
			return err
		}
	}
	if f.File != nil {
		if err := p.act().SetInputFiles(p.Upload, *f.File); err != nil {
			return err
		}
	}
	return p.act().Click(p.Submit)
}

// VerifySuccessMessage asserts the submission confirmation
func (p *ContactUsPage) VerifySuccessMessage() error {
	return p.act().ExpectContainsText(p.Success, contactSuccess)
}

// GoHome returns to the landing page from the confirmation
func (p *ContactUsPage) GoHome() error {
	return p.act().Click(p.HomeButton)
}
