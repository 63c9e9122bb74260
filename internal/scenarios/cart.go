package scenarios

import (
	"context"
)

func cartScenarios() []Scenario {
	return []Scenario{
		{ID: "TC12", Name: "Add products in cart", Suite: SuiteCart, Run: addProductsToCart},
		{ID: "TC13", Name: "Verify product quantity in cart", Suite: SuiteCart, Run: productQuantity},
		{ID: "TC17", Name: "Remove products from cart", Suite: SuiteCart, Run: removeFromCart},
	}
}

// fillCart adds products from the catalog and ends on the cart page
func fillCart(env *Env, products ...string) error {
	site := env.Site
	if err := openProducts(env); err != nil {
		return err
	}
	for i, name := range products {
		if err := site.Products.AddProductToCart(name); err != nil {
			return err
		}
		if i < len(products)-1 {
			if err := site.Products.ContinueShoppingAfterAdd(); err != nil {
				return err
			}
		}
	}
	return steps(site.Products.ViewCart, site.Cart.VerifyLoaded)
}

func addProductsToCart(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		func() error { return fillCart(env, "Blue Top", "Men Tshirt") },
		func() error { return site.Cart.VerifyItemCount(2) },
		func() error { return site.Cart.VerifyProductInCart("Blue Top") },
		func() error { return site.Cart.VerifyProductInCart("Men Tshirt") },
	)
}

func productQuantity(_ context.Context, env *Env) error {
	site := env.Site
	const product = "Blue Top"
	return steps(
		func() error { return openProducts(env) },
		func() error { return site.Products.ViewProductDetails(product) },
		site.Products.VerifyProductDetails,
		func() error { return site.Products.AddToCartFromDetails(4) },
		site.Products.ViewCart,
		func() error { return site.Cart.VerifyProductQuantity(product, 4) },
	)
}

func removeFromCart(_ context.Context, env *Env) error {
	site := env.Site
	const product = "Blue Top"
	return steps(
		func() error { return fillCart(env, product) },
		func() error { return site.Cart.RemoveProduct(product) },
		func() error { return site.Cart.VerifyProductRemoved(product) },
		site.Cart.VerifyEmpty,
	)
}
