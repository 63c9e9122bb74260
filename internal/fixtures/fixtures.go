// Package fixtures builds the throwaway users, cards and identifiers the
// journeys sign up and pay with.
package fixtures

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/testforge/shopsuite/internal/domain"
)

// DefaultPassword is used for every account created by a journey
const DefaultPassword = "Pass123"

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// RandomName returns a unique display name
func RandomName() string {
	return "User " + shortID()
}

// RandomEmail returns a unique address that has never been registered
func RandomEmail() string {
	return fmt.Sprintf("shopsuite_%s@example.com", shortID())
}

// NewRunID identifies one suite run in logs, metrics and artifact keys
func NewRunID() string {
	return uuid.NewString()
}

// NewUser returns the signup data the journeys register with. address sets
// the first address line, which some journeys assert on later.
func NewUser(name, email, address string) domain.UserInfo {
	if address == "" {
		address = "Address"
	}
	return domain.UserInfo{
		Name:       name,
		Email:      email,
		Password:   DefaultPassword,
		Title:      domain.TitleMr,
		BirthDay:   "1",
		BirthMonth: "January",
		BirthYear:  "2000",
		FirstName:  "First",
		LastName:   "Last",
		Address1:   address,
		Country:    "India",
		State:      "State",
		City:       "City",
		Zipcode:    "10001",
		Mobile:     "1234567890",
	}
}

// RandomUser returns NewUser with a random name and email
func RandomUser() domain.UserInfo {
	return NewUser(RandomName(), RandomEmail(), "")
}

// TestCard is accepted by the site's fake payment gateway
func TestCard() domain.Card {
	return domain.Card{
		NameOnCard: "Test Name",
		Number:     "1234567812345678",
		CVC:        "123",
		ExpMonth:   "01",
		ExpYear:    "2030",
	}
}
