package scenarios

import (
	"context"
	"regexp"

	"github.com/testforge/shopsuite/internal/fixtures"
)

var loginURL = regexp.MustCompile(`/login`)

func authScenarios() []Scenario {
	return []Scenario{
		{ID: "TC1", Name: "Register user", Suite: SuiteAuth, Run: registerUser},
		{ID: "TC2", Name: "Login with correct email and password", Suite: SuiteAuth, Run: loginValid},
		{ID: "TC3", Name: "Login with incorrect email and password", Suite: SuiteAuth, Run: loginInvalid},
		{ID: "TC4", Name: "Logout user", Suite: SuiteAuth, Run: logoutUser},
		{ID: "TC5", Name: "Register user with existing email", Suite: SuiteAuth, Run: registerExistingEmail},
	}
}

func registerUser(ctx context.Context, env *Env) error {
	u := fixtures.RandomUser()
	if err := register(ctx, env, u); err != nil {
		return err
	}
	return deleteAccount(env)
}

func loginValid(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	return steps(
		func() error { return register(ctx, env, u) },
		site.Home.ClickLogout,
		func() error { return login(env, u.Email, u.Password) },
		func() error { return site.Home.VerifyLoggedInAs(u.Name) },
		func() error { return deleteAccount(env) },
	)
}

func loginInvalid(_ context.Context, env *Env) error {
	site := env.Site
	email := fixtures.RandomEmail()
	if env.Config != nil && env.Config.User.Email != "" {
		email = env.Config.User.Email
	}
	return steps(
		func() error { return login(env, email, "wrong-"+fixtures.RandomName()) },
		site.Login.VerifyLoginError,
	)
}

func logoutUser(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	return steps(
		func() error { return register(ctx, env, u) },
		site.Home.ClickLogout,
		func() error { return site.Login.ExpectURL(loginURL) },
		site.Login.VerifyLoaded,
		// the account is still there; sign back in to remove it
		func() error { return site.Login.Login(u.Email, u.Password) },
		func() error { return deleteAccount(env) },
	)
}

func registerExistingEmail(ctx context.Context, env *Env) error {
	site := env.Site
	u := fixtures.RandomUser()
	return steps(
		func() error { return register(ctx, env, u) },
		site.Home.ClickLogout,
		site.Login.VerifyLoaded,
		func() error { return site.Login.Signup(u.Name, u.Email) },
		site.Login.VerifySignupError,
		func() error { return site.Login.Login(u.Email, u.Password) },
		func() error { return deleteAccount(env) },
	)
}
