package scenarios

import (
	"context"
	"fmt"

	"github.com/testforge/shopsuite/internal/domain"
)

// registerFromLogin signs u up from the login page and stops once the header
// shows the new account
func registerFromLogin(ctx context.Context, env *Env, u domain.UserInfo) error {
	site := env.Site
	err := steps(
		site.Login.VerifyLoaded,
		func() error { return site.Login.Signup(u.Name, u.Email) },
		site.AccountCreation.VerifyLoaded,
		func() error { return site.AccountCreation.FillAccountDetails(u) },
		site.AccountCreation.CreateAccount,
		func() error { return site.AccountCreation.VerifyAccountCreated(ctx) },
		site.AccountCreation.ClickContinue,
		func() error { return site.Home.VerifyLoggedInAs(u.Name) },
	)
	if err != nil {
		return fmt.Errorf("registering %s: %w", u.Email, err)
	}
	return nil
}

// register opens the store and creates an account for u
func register(ctx context.Context, env *Env, u domain.UserInfo) error {
	site := env.Site
	return steps(
		site.Home.Open,
		site.Home.VerifyLoaded,
		site.Home.ClickSignupLogin,
		func() error { return registerFromLogin(ctx, env, u) },
	)
}

// deleteAccount removes the logged-in account
func deleteAccount(env *Env) error {
	site := env.Site
	if err := steps(site.Home.ClickDeleteAccount, site.Home.VerifyAccountDeleted); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// login opens the login page and signs in as email
func login(env *Env, email, password string) error {
	site := env.Site
	return steps(
		site.Home.Open,
		site.Home.ClickSignupLogin,
		site.Login.VerifyLoaded,
		func() error { return site.Login.Login(email, password) },
	)
}
