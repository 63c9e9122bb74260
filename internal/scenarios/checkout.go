package scenarios

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/testforge/shopsuite/internal/domain"
	"github.com/testforge/shopsuite/internal/fixtures"
)

const orderComment = "Please deliver between 9am and 5pm."

func checkoutScenarios() []Scenario {
	return []Scenario{
		{ID: "TC14", Name: "Place order: register while checkout", Suite: SuiteCheckout, Run: registerWhileCheckout},
		{ID: "TC15", Name: "Place order: register before checkout", Suite: SuiteCheckout, Run: registerBeforeCheckout},
		{ID: "TC16", Name: "Place order: login before checkout", Suite: SuiteCheckout, Run: loginBeforeCheckout},
		{ID: "TC23", Name: "Verify address details in checkout page", Suite: SuiteCheckout, Run: checkoutAddress},
		{ID: "TC24", Name: "Download invoice after purchase order", Suite: SuiteCheckout, Run: downloadInvoice},
	}
}

// checkout runs from the cart page through payment confirmation
func checkout(env *Env, u domain.UserInfo, product string) error {
	site := env.Site
	return steps(
		site.Cart.ClickProceedToCheckout,
		site.Checkout.VerifyLoaded,
		func() error { return site.Checkout.VerifyAddressDetails(u) },
		func() error { return site.Checkout.VerifyProductInOrder(product) },
		func() error { return site.Checkout.PlaceOrderWithComment(orderComment) },
		func() error { return site.Payment.FillPaymentDetails(fixtures.TestCard()) },
		site.Payment.ConfirmPayment,
		site.Payment.VerifyOrderPlaced,
	)
}

func registerWhileCheckout(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	const product = "Blue Top"
	return steps(
		func() error { return fillCart(env, product) },
		site.Cart.ClickProceedToCheckout,
		site.Cart.ClickRegisterLogin,
		func() error { return registerFromLogin(ctx, env, u) },
		site.Home.ClickCart,
		func() error { return checkout(env, u, product) },
		func() error { return deleteAccount(env) },
	)
}

func registerBeforeCheckout(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	const product = "Blue Top"
	return steps(
		func() error { return register(ctx, env, u) },
		func() error { return fillCart(env, product) },
		func() error { return checkout(env, u, product) },
		site.Payment.ClickContinue,
		func() error { return deleteAccount(env) },
	)
}

func loginBeforeCheckout(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	const product = "Men Tshirt"
	return steps(
		func() error { return register(ctx, env, u) },
		site.Home.ClickLogout,
		func() error { return login(env, u.Email, u.Password) },
		func() error { return site.Home.VerifyLoggedInAs(u.Name) },
		func() error { return fillCart(env, product) },
		func() error { return checkout(env, u, product) },
		func() error { return deleteAccount(env) },
	)
}

func checkoutAddress(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.NewUser(fixtures.RandomName(), fixtures.RandomEmail(), "221B Baker Street")
	const product = "Blue Top"
	return steps(
		func() error { return register(ctx, env, u) },
		func() error { return fillCart(env, product) },
		site.Cart.ClickProceedToCheckout,
		func() error { return site.Checkout.VerifyAddressDetails(u) },
		func() error { return deleteAccount(env) },
	)
}

func downloadInvoice(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	const product = "Blue Top"
	return steps(
		func() error { return fillCart(env, product) },
		site.Cart.ClickProceedToCheckout,
		site.Cart.ClickRegisterLogin,
		func() error { return registerFromLogin(ctx, env, u) },
		site.Home.ClickCart,
		func() error { return checkout(env, u, product) },
		func() error {
			name, err := site.Payment.DownloadInvoiceFile()
			if err != nil {
				return fmt.Errorf("downloading invoice: %w", err)
			}
			env.Logger.Info("Invoice downloaded", zap.String("file", name))
			return nil
		},
		site.Payment.ClickContinue,
		func() error { return deleteAccount(env) },
	)
}
