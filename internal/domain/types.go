package domain

// Title is the salutation offered by the signup form
type Title string

const (
	TitleMr  Title = "Mr."
	TitleMrs Title = "Mrs."
)

// UserInfo is everything the account creation form asks for
type UserInfo struct {
	Name       string
	Email      string
	Password   string
	Title      Title
	BirthDay   string
	BirthMonth string
	BirthYear  string
	FirstName  string
	LastName   string
	Company    string
	Address1   string
	Address2   string
	Country    string
	State      string
	City       string
	Zipcode    string
	Mobile     string
}

// Card is the payment form input
type Card struct {
	NameOnCard string
	Number     string
	CVC        string
	ExpMonth   string
	ExpYear    string
}
