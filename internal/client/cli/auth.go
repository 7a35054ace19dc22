package cli

import (
	"context"
	"fmt"
	"strings"

	"recordkeeper/internal/client/notify"
)

// Register creates a new account. It does not sign the user in; the password
// is asked twice to catch typos before they reach the server.
func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	repeat, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	if string(password) != string(repeat) {
		return fmt.Errorf("passwords do not match")
	}

	if err := a.session.Register(ctx, email, string(password)); err != nil {
		return err
	}
	a.notifier.Notify(notify.Positive, "account created, you can now log in")
	return nil
}

// Login authenticates and persists the session locally.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		return err
	}
	a.notifier.Notify(notify.Positive, "signed in as "+email)
	return nil
}

// Logout revokes the refresh token and drops all open client state.
func (a *App) Logout(ctx context.Context) error {
	if a.form != nil && !a.form.ConfirmLeave() {
		return nil
	}

	if err := a.session.Logout(ctx); err != nil {
		return err
	}

	a.form = nil
	a.transfer = nil
	a.collection = ""
	a.lastQuery = nil
	a.lastCursor = nil
	a.route = "/"

	a.notifier.Notify(notify.Positive, "signed out")
	return nil
}

// Whoami prints the signed-in identity including its current claims.
func (a *App) Whoami(ctx context.Context) error {
	user := a.session.Current()
	if user == nil {
		printlnFn("Not signed in.")
		return nil
	}
	printlnFn("Email:     " + user.Email)
	printlnFn("User ID:   " + user.ID)
	printlnFn("Roles:     " + strings.Join(user.Roles, ", "))
	printlnFn(fmt.Sprintf("Manager:   %t", user.IsManager))
	return nil
}

// Refresh rotates the refresh token. Claims changed server-side since login
// become visible here.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.session.Refresh(ctx); err != nil {
		return err
	}
	a.notifier.Notify(notify.Positive, "session refreshed")
	return nil
}
