package pages

import (
	"regexp"

	"github.com/testforge/shopsuite/internal/browser"
)

var testCasesURL = regexp.MustCompile(`/test_cases`)

// TestCasesPage lists the site's published test cases
type TestCasesPage struct {
	Base

	Heading browser.Target
}

// NewTestCasesPage builds the test cases page object
func NewTestCasesPage(s *Session) *TestCasesPage {
	b := newBase(s, "/test_cases")
	return &TestCasesPage{
		Base:    b,
		Heading: browser.ByHandle(s.Page.GetByText(browser.ExactText("Test Cases")).First()),
	}
}

// VerifyLoaded asserts the URL and the heading
func (p *TestCasesPage) VerifyLoaded() error {
	if err := p.ExpectURL(testCasesURL); err != nil {
		return err
	}
	return p.act().AssertVisible(p.Heading)
}
