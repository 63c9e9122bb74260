package pages

import (
	"github.com/testforge/shopsuite/internal/action"
	"github.com/testforge/shopsuite/internal/browser"
)

const subscriptionSuccess = "You have been successfully subscribed!"

// Footer is the newsletter form shared by every storefront page
type Footer struct {
	actions *action.Actions

	SubscriptionEmail   browser.Target
	SubscribeButton     browser.Target
	SubscriptionSuccess browser.Target
}

func newFooter(s *Session) Footer {
	return Footer{
		actions:             s.Actions,
		SubscriptionEmail:   browser.ByName("#susbscribe_email"),
		SubscribeButton:     browser.ByName("#subscribe"),
		SubscriptionSuccess: browser.ByName(".alert-success"),
	}
}

// VerifySubscriptionHeading asserts the footer heading is shown
func (f Footer) VerifySubscriptionHeading() error {
	heading := browser.ByHandle(f.actions.Page().Locator("footer").GetByText(browser.Text("Subscription")).First())
	return f.actions.AssertVisible(heading)
}

// Subscribe submits the footer newsletter form
func (f Footer) Subscribe(email string) error {
	if err := f.actions.ScrollIntoView(f.SubscriptionEmail); err != nil {
		return err
	}
	if err := f.actions.Fill(f.SubscriptionEmail, email); err != nil {
		return err
	}
	return f.actions.Click(f.SubscribeButton)
}

// VerifySubscriptionSuccess asserts the newsletter confirmation banner
func (f Footer) VerifySubscriptionSuccess() error {
	return f.actions.ExpectContainsText(f.SubscriptionSuccess, subscriptionSuccess)
}
