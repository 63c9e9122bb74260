package pages

import (
	"context"
	"time"

	"github.com/testforge/shopsuite/internal/action"
	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/domain"
	"github.com/testforge/shopsuite/internal/wait"
)

const (
	accountCreatedHeadline = "Account Created!"
	accountCreatedTimeout  = 60 * time.Second
	// the month options are populated after the day select settles
	monthSelectDelay = 150 * time.Millisecond
)

// AccountCreationPage is the signup details form
type AccountCreationPage struct {
	Base

	TitleMr        browser.Target
	TitleMrs       browser.Target
	Password       browser.Target
	Days           browser.Target
	Months         browser.Target
	Years          browser.Target
	Newsletter     browser.Target
	SpecialOffers  browser.Target
	FirstName      browser.Target
	LastName       browser.Target
	Company        browser.Target
	Address1       browser.Target
	Address2       browser.Target
	Country        browser.Target
	State          browser.Target
	City           browser.Target
	Zipcode        browser.Target
	Mobile         browser.Target
	CreateButton   browser.Target
	ContinueButton browser.Target
	Created        browser.Target
}

// NewAccountCreationPage builds the account details page object
func NewAccountCreationPage(s *Session) *AccountCreationPage {
	b := newBase(s, "/signup")
	return &AccountCreationPage{
		Base:           b,
		TitleMr:        browser.ByHandle(s.Page.GetByLabel("Mr.")),
		TitleMrs:       browser.ByHandle(s.Page.GetByLabel("Mrs.")),
		Password:       b.css(`[id="password"]`),
		Days:           b.dataQA("days"),
		Months:         b.dataQA("months"),
		Years:          b.dataQA("years"),
		Newsletter:     b.css("#newsletter"),
		SpecialOffers:  b.css("#optin"),
		FirstName:      b.dataQA("first_name"),
		LastName:       b.dataQA("last_name"),
		Company:        b.dataQA("company"),
		Address1:       b.dataQA("address"),
		Address2:       b.dataQA("address2"),
		Country:        b.dataQA("country"),
		State:          b.dataQA("state"),
		City:           b.dataQA("city"),
		Zipcode:        b.dataQA("zipcode"),
		Mobile:         b.dataQA("mobile_number"),
		CreateButton:   b.dataQA("create-account"),
		ContinueButton: b.dataQA("continue-button"),
		Created:        b.text(accountCreatedHeadline),
	}
}

// VerifyLoaded asserts the account details heading
func (p *AccountCreationPage) VerifyLoaded() error {
	return p.ExpectText("Enter Account Information")
}

// FillAccountDetails fills every field of the form from u
func (p *AccountCreationPage) FillAccountDetails(u domain.UserInfo) error {
	a := p.act()

	title := p.TitleMr
	if u.Title == domain.TitleMrs {
		title = p.TitleMrs
	}
	if err := a.Check(title); err != nil {
		return err
	}
	if err := a.Fill(p.Password, u.Password); err != nil {
		return err
	}
	if _, err := a.SelectOption(p.Days, action.ByValue(u.BirthDay)); err != nil {
		return err
	}
	a.Sleep(monthSelectDelay)
	if _, err := a.SelectOption(p.Months, action.ByLabel(u.BirthMonth)); err != nil {
		return err
	}
	if _, err := a.SelectOption(p.Years, action.ByValue(u.BirthYear)); err != nil {
		return err
	}
	if err := a.Check(p.Newsletter); err != nil {
		return err
	}
	if err := a.Check(p.SpecialOffers); err != nil {
		return err
	}

	fields := []struct {
		target browser.Target
		value  string
	}{
		{p.FirstName, u.FirstName},
		{p.LastName, u.LastName},
		{p.Company, u.Company},
		{p.Address1, u.Address1},
		{p.Address2, u.Address2},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := a.Fill(f.target, f.value); err != nil {
			return err
		}
	}

	if _, err := a.SelectOption(p.Country, action.ValueOrLabel(u.Country)); err != nil {
		return err
	}

	for _, f := range []struct {
		target browser.Target
		value  string
	}{
		{p.State, u.State},
		{p.City, u.City},
		{p.Zipcode, u.Zipcode},
		{p.Mobile, u.Mobile},
	} {
		if err := a.Fill(f.target, f.value); err != nil {
			return err
		}
	}
	return nil
}

// CreateAccount submits the form
func (p *AccountCreationPage) CreateAccount() error {
	return p.act().Click(p.CreateButton)
}

// VerifyAccountCreated dismisses any interstitial ad and asserts the
// confirmation headline
func (p *AccountCreationPage) VerifyAccountCreated(ctx context.Context) error {
	if _, err := p.CloseAdIfPresent(ctx); err != nil {
		return err
	}
	return p.act().ExpectVisibleWithin(p.Created, accountCreatedTimeout)
}

// ClickContinue leaves the confirmation page
func (p *AccountCreationPage) ClickContinue() error {
	return p.act().Click(p.ContinueButton, action.ThenWaitFor(wait.ContentLoaded))
}
