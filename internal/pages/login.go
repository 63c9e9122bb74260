package pages

import (
	"github.com/testforge/shopsuite/internal/browser"
)

// LoginPage holds the side by side login and signup forms
type LoginPage struct {
	Base

	LoginEmail    browser.Target
	LoginPassword browser.Target
	LoginButton   browser.Target
	SignupName    browser.Target
	SignupEmail   browser.Target
	SignupButton  browser.Target
}

// NewLoginPage builds the login page object
func NewLoginPage(s *Session) *LoginPage {
	b := newBase(s, "/login")
	return &LoginPage{
		Base:          b,
		LoginEmail:    b.dataQA("login-email"),
		LoginPassword: b.dataQA("login-password"),
		LoginButton:   b.dataQA("login-button"),
		SignupName:    b.dataQA("signup-name"),
		SignupEmail:   b.dataQA("signup-email"),
		SignupButton:  b.dataQA("signup-button"),
	}
}

// VerifyLoaded asserts both forms are shown
func (p *LoginPage) VerifyLoaded() error {
	if err := p.ExpectText("Login to your account"); err != nil {
		return err
	}
	return p.ExpectText("New User Signup!")
}

// Login submits the login form
func (p *LoginPage) Login(email, password string) error {
	if err := p.act().Fill(p.LoginEmail, email); err != nil {
		return err
	}
	if err := p.act().Fill(p.LoginPassword, password); err != nil {
		return err
	}
	return p.act().Click(p.LoginButton)
}

// Signup submits the signup form, which leads to account creation
func (p *LoginPage) Signup(name, email string) error {
	if err := p.act().Fill(p.SignupName, name); err != nil {
		return err
	}
	if err := p.act().Fill(p.SignupEmail, email); err != nil {
		return err
	}
	return p.act().Click(p.SignupButton)
}

// VerifyLoginError asserts the bad credentials message
func (p *LoginPage) VerifyLoginError() error {
	return p.ExpectText("Your email or password is incorrect!")
}

// VerifySignupError asserts the duplicate email message
func (p *LoginPage) VerifySignupError() error {
	return p.ExpectText("Email Address already exist!")
}
