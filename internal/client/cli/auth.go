package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
)

// Register prompts for the account fields and creates the account. It does
// not log in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	userName, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Full name (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	r := models.Registration{Email: email, Username: userName, Password: string(password)}
	if fullName != "" {
		r.FullName = &fullName
	}

	u, err := a.authService.Register(ctx, r)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %d). Use 'login' to sign in.\n", u.Username, u.ID)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	if err := a.authService.Login(ctx, userName, password); err != nil {
		return err
	}

	a.setUser(userName)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout forgets the token and clears the local cache.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.setUser("")
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.authService.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s <%s>\n", u.Username, u.Email)
	if u.FullName != nil {
		fmt.Fprintf(a.out, "Name:    %s\n", *u.FullName)
	}
	fmt.Fprintf(a.out, "Active:  %t\nSince:   %s\n", u.IsActive, u.CreatedAt.Local().Format("2006-01-02"))
	return nil
}
