package pages

import (
	"strconv"

	"github.com/testforge/shopsuite/internal/action"
	"github.com/testforge/shopsuite/internal/browser"
)

const reviewThanks = "Thank you for your review."

// ProductsPage covers the catalog, the search box, the sidebar filters, the
// add-to-cart modal and the product details view
type ProductsPage struct {
	Base

	SearchInput      browser.Target
	SearchButton     browser.Target
	ProductList      browser.Target
	ViewCartLink     browser.Target
	ContinueShopping browser.Target
	CategorySidebar  browser.Target
	BrandSidebar     browser.Target

	ProductInformation browser.Target
	Quantity           browser.Target
	AddToCartButton    browser.Target

	ReviewName    browser.Target
	ReviewEmail   browser.Target
	ReviewText    browser.Target
	ReviewSubmit  browser.Target
	ReviewSuccess browser.Target
}

// NewProductsPage builds the products page object
func NewProductsPage(s *Session) *ProductsPage {
	b := newBase(s, "/products")
	return &ProductsPage{
		Base:               b,
		SearchInput:        b.css("#search_product"),
		SearchButton:       b.css("#submit_search"),
		ProductList:        b.css(".features_items"),
		ViewCartLink:       b.role("link", "View Cart"),
		ContinueShopping:   b.role("button", "Continue Shopping"),
		CategorySidebar:    b.css("#accordian"),
		BrandSidebar:       b.css(".brands_products"),
		ProductInformation: b.css(".product-information"),
		Quantity:           b.css("#quantity"),
		AddToCartButton:    b.css("button.cart"),
		ReviewName:         b.css("#name"),
		ReviewEmail:        b.css("#email"),
		ReviewText:         b.css("#review"),
		ReviewSubmit:       b.css("#button-review"),
		ReviewSuccess:      b.css(".alert-success span"),
	}
}

func (p *ProductsPage) card(name string) browser.Locator {
	return p.page().Locator(".product-image-wrapper").Filter(name).First()
}

// VerifyLoaded asserts the full catalog is listed
func (p *ProductsPage) VerifyLoaded() error {
	if err := p.ExpectText("All Products"); err != nil {
		return err
	}
	return p.act().AssertVisible(p.ProductList)
}

// SearchProduct runs a catalog search
func (p *ProductsPage) SearchProduct(query string) error {
	if err := p.act().Fill(p.SearchInput, query); err != nil {
		return err
	}
	return p.act().Click(p.SearchButton)
}

// VerifySearchResults asserts the results heading and that name is listed
func (p *ProductsPage) VerifySearchResults(name string) error {
	if err := p.ExpectText("Searched Products"); err != nil {
		return err
	}
	return p.act().ExpectContainsText(p.ProductList, name)
}

// AddProductToCart hovers the product card so its overlay shows and adds
// the product to the cart
func (p *ProductsPage) AddProductToCart(name string) error {
	card := browser.ByHandle(p.card(name))
	if err := p.act().Waiter().Visible(card); err != nil {
		return err
	}
	if err := p.act().Hover(card); err != nil {
		return err
	}
	return p.act().Click(browser.ByHandle(p.card(name).Locator(".add-to-cart").First()))
}

// ViewCart follows the link in the added-to-cart modal
func (p *ProductsPage) ViewCart() error {
	return p.act().Click(p.ViewCartLink)
}

// ContinueShoppingAfterAdd closes the added-to-cart modal
func (p *ProductsPage) ContinueShoppingAfterAdd() error {
	return p.act().Click(p.ContinueShopping)
}

// FilterByCategory expands a sidebar category and opens one of its
// sub-categories
func (p *ProductsPage) FilterByCategory(category, subCategory string) error {
	sidebar := p.page().Locator("#accordian")
	if err := p.act().Click(browser.ByHandle(sidebar.Locator(`a[href="#` + category + `"]`))); err != nil {
		return err
	}
	sub := p.page().Locator("#"+category).GetByRole("link", subCategory)
	return p.act().Click(browser.ByHandle(sub))
}

// FilterByBrand opens a brand from the sidebar
func (p *ProductsPage) FilterByBrand(brand string) error {
	link := p.page().Locator(".brands_products").GetByText(browser.Text(brand)).First()
	return p.act().Click(browser.ByHandle(link), action.Force())
}

// VerifyListingTitle asserts the catalog heading, e.g. after filtering
func (p *ProductsPage) VerifyListingTitle(title string) error {
	return p.act().ExpectContainsText(browser.ByHandle(p.page().Locator(".features_items .title").First()), title)
}

// VerifySidebars asserts the category and brand sidebars are shown
func (p *ProductsPage) VerifySidebars() error {
	if err := p.act().AssertVisible(p.CategorySidebar); err != nil {
		return err
	}
	return p.act().AssertVisible(p.BrandSidebar)
}

// ViewProductDetails opens the details view of the named product, or of the
// first listed product when name is empty
func (p *ProductsPage) ViewProductDetails(name string) error {
	var link browser.Locator
	if name == "" {
		link = p.page().GetByText(browser.Text("View Product")).First()
	} else {
		link = p.card(name).GetByText(browser.Text("View Product"))
	}
	return p.act().Click(browser.ByHandle(link))
}

// VerifyProductDetails asserts the details block lists every attribute
func (p *ProductsPage) VerifyProductDetails() error {
	if err := p.act().ExpectVisible(p.ProductInformation); err != nil {
		return err
	}
	for _, label := range []string{"Category:", "Availability:", "Condition:", "Brand:"} {
		if err := p.act().ExpectContainsText(p.ProductInformation, label); err != nil {
			return err
		}
	}
	return nil
}

// AddToCartFromDetails sets the quantity on the details view and adds the
// product to the cart
func (p *ProductsPage) AddToCartFromDetails(quantity int) error {
	if err := p.act().Fill(p.Quantity, strconv.Itoa(quantity)); err != nil {
		return err
	}
	return p.act().Click(p.AddToCartButton)
}

// SubmitReview posts a product review from the details view
func (p *ProductsPage) SubmitReview(name, email, review string) error {
	if err := p.ExpectText("Write Your Review"); err != nil {
		return err
	}
	if err := p.act().Fill(p.ReviewName, name); err != nil {
		return err
	}
	if err := p.act().Fill(p.ReviewEmail, email); err != nil {
		return err
	}
	if err := p.act().Fill(p.ReviewText, review); err != nil {
		return err
	}
	return p.act().Click(p.ReviewSubmit)
}

// VerifyReviewSuccess asserts the review confirmation
func (p *ProductsPage) VerifyReviewSuccess() error {
	return p.act().ExpectText(p.ReviewSuccess, reviewThanks)
}
