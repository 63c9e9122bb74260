package scenarios

import (
	"context"
	"regexp"

	"github.com/testforge/shopsuite/internal/fixtures"
)

var (
	productsURL = regexp.MustCompile(`/products`)
	detailsURL  = regexp.MustCompile(`/product_details/`)
)

func productScenarios() []Scenario {
	return []Scenario{
		{ID: "TC8", Name: "Verify all products and product detail page", Suite: SuiteProducts, Run: allProducts},
		{ID: "TC9", Name: "Search product", Suite: SuiteProducts, Run: searchProduct},
		{ID: "TC18", Name: "View category products", Suite: SuiteProducts, Run: categoryProducts},
		{ID: "TC19", Name: "View and cart brand products", Suite: SuiteProducts, Run: brandProducts},
		{ID: "TC20", Name: "Search products and verify cart after login", Suite: SuiteProducts, Run: searchThenLogin},
		{ID: "TC21", Name: "Add review on product", Suite: SuiteProducts, Run: addReview},
		{ID: "TC22", Name: "Add to cart from recommended items", Suite: SuiteProducts, Run: recommendedItems},
	}
}

func openProducts(env *Env) error {
	site := env.Site
	return steps(
		site.Home.Open,
		site.Home.VerifyLoaded,
		site.Home.ClickProducts,
		func() error { return site.Products.ExpectURL(productsURL) },
		site.Products.VerifyLoaded,
	)
}

func allProducts(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		func() error { return openProducts(env) },
		func() error { return site.Products.ViewProductDetails("") },
		func() error { return site.Products.ExpectURL(detailsURL) },
		site.Products.VerifyProductDetails,
	)
}

func searchProduct(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		func() error { return openProducts(env) },
		func() error { return site.Products.SearchProduct("Blue Top") },
		func() error { return site.Products.VerifySearchResults("Blue Top") },
	)
}

func categoryProducts(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		func() error { return openProducts(env) },
		site.Products.VerifySidebars,
		func() error { return site.Products.FilterByCategory("Women", "Dress") },
		func() error { return site.Products.VerifyListingTitle("Women - Dress Products") },
		func() error { return site.Products.FilterByCategory("Men", "Tshirts") },
		func() error { return site.Products.VerifyListingTitle("Men - Tshirts Products") },
	)
}

func brandProducts(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		func() error { return openProducts(env) },
		site.Products.VerifySidebars,
		func() error { return site.Products.FilterByBrand("Polo") },
		func() error { return site.Products.VerifyListingTitle("Brand - Polo Products") },
		func() error { return site.Products.FilterByBrand("H&M") },
		func() error { return site.Products.VerifyListingTitle("Brand - H&M Products") },
	)
}

func searchThenLogin(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	const product = "Blue Top"
	return steps(
		func() error { return register(ctx, env, u) },
		site.Home.ClickLogout,
		func() error { return openProducts(env) },
		func() error { return site.Products.SearchProduct(product) },
		func() error { return site.Products.VerifySearchResults(product) },
		func() error { return site.Products.AddProductToCart(product) },
		site.Products.ViewCart,
		func() error { return site.Cart.VerifyProductInCart(product) },
		func() error { return login(env, u.Email, u.Password) },
		site.Home.ClickCart,
		func() error { return site.Cart.VerifyProductInCart(product) },
		func() error { return deleteAccount(env) },
	)
}

func addReview(_ context.Context, env *Env) error {
	site := env.Site
	return steps(
		func() error { return openProducts(env) },
		func() error { return site.Products.ViewProductDetails("") },
		func() error {
			return site.Products.SubmitReview(fixtures.RandomName(), fixtures.RandomEmail(), "Great product, fits as described.")
		},
		site.Products.VerifyReviewSuccess,
	)
}

func recommendedItems(_ context.Context, env *Env) error {
	site := env.Site
	const product = "Blue Top"
	return steps(
		site.Home.Open,
		site.Home.ScrollToBottom,
		site.Home.VerifyRecommendedItems,
		func() error { return site.Home.AddRecommendedToCart(product) },
		func() error { return site.Cart.VerifyProductInCart(product) },
	)
}
