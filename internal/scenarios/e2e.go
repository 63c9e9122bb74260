package scenarios

import (
	"context"

	"github.com/testforge/shopsuite/internal/fixtures"
)

const e2ePassword = "TestPassword123!"

func e2eScenarios() []Scenario {
	return []Scenario{
		{ID: "E2E1", Name: "Full purchase flow", Suite: SuiteE2E, Run: fullPurchase},
	}
}

// fullPurchase browses, registers, buys two products, downloads the invoice
// and removes the account
func fullPurchase(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	u.Password = e2ePassword

	return steps(
		func() error { return register(ctx, env, u) },
		func() error { return openProducts(env) },
		func() error { return site.Products.SearchProduct("Top") },
		func() error { return site.Products.VerifySearchResults("Blue Top") },
		func() error { return site.Products.AddProductToCart("Blue Top") },
		site.Products.ContinueShoppingAfterAdd,
		func() error { return site.Products.AddProductToCart("Winter Top") },
		site.Products.ViewCart,
		func() error { return site.Cart.VerifyItemCount(2) },
		func() error { return checkout(env, u, "Winter Top") },
		func() error {
			_, err := site.Payment.DownloadInvoiceFile()
			return err
		},
		site.Payment.ClickContinue,
		site.Home.ClickLogout,
		func() error { return login(env, u.Email, u.Password) },
		func() error { return site.Home.VerifyLoggedInAs(u.Name) },
		func() error { return deleteAccount(env) },
	)
}
