package scenarios

import (
	"context"

	"github.com/testforge/shopsuite/internal/browser"
	"github.com/testforge/shopsuite/internal/fixtures"
	"github.com/testforge/shopsuite/internal/pages"
)

func miscScenarios() []Scenario {
	return []Scenario{
		{ID: "TC6", Name: "Contact us form", Suite: SuiteMisc, Run: contactUs},
		{ID: "TC7", Name: "Verify test cases page", Suite: SuiteMisc, Run: testCasesPage},
		{ID: "TC10", Name: "Verify subscription in home page", Suite: SuiteMisc, Run: homeSubscription},
		{ID: "TC11", Name: "Verify subscription in cart page", Suite: SuiteMisc, Run: cartSubscription},
		{ID: "TC25", Name: "Scroll up using arrow", Suite: SuiteMisc, Run: scrollUpWithArrow},
	}
}

func contactUs(_ context.Context, env *Env) error {
	site := env.Site
	attachment := browser.FromBytes("message.txt", "text/plain", []byte("Attachment sent by the contact form journey.\n"))
	return steps(
		site.Home.Open,
		site.Home.VerifyLoaded,
		site.Home.ClickContactUs,
		site.ContactUs.VerifyLoaded,
		func() error {
			return site.ContactUs.SubmitContactForm(pages.ContactForm{
				Name:    fixtures.RandomName(),
				Email:   fixtures.RandomEmail(),
				Subject: "Order enquiry",
				Message: "When will my order ship?",
				File:    &attachment,
			})
		},
		site.ContactUs.VerifySuccessMessage,
		site.ContactUs.GoHome,
		site.Home.VerifyLoaded,
	)
}

func testCasesPage(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		site.Home.Open,
		site.Home.VerifyLoaded,
		site.Home.ClickTestCases,
		site.TestCases.VerifyLoaded,
	)
}

func homeSubscription(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		site.Home.Open,
		site.Home.VerifyLoaded,
		site.Home.ScrollToBottom,
		site.Home.VerifySubscriptionHeading,
		func() error { return site.Home.Subscribe(fixtures.RandomEmail()) },
		site.Home.VerifySubscriptionSuccess,
	)
}

func cartSubscription(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		site.Home.Open,
		site.Home.ClickCart,
		site.Cart.VerifySubscriptionHeading,
		func() error { return site.Cart.Subscribe(fixtures.RandomEmail()) },
		site.Cart.VerifySubscriptionSuccess,
	)
}

func scrollUpWithArrow(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		site.Home.Open,
		site.Home.VerifyLoaded,
		site.Home.ScrollToBottom,
		site.Home.VerifySubscriptionHeading,
		site.Home.ClickScrollUpArrow,
		site.Home.VerifyCarouselHeadline,
	)
}
