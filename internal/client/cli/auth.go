package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/veyra/internal/client/client"
)

// Login authenticates the console. The username comes from the first
// argument, then the configured username, then a prompt that suggests the
// last account used on this machine. The configured password is used only
// for the configured username; otherwise it is prompted for without echo.
func (a *App) Login(ctx context.Context, args []string) error {
	userName := a.config.Username
	if len(args) > 0 {
		userName = args[0]
	}
	if userName == "" {
		last := a.lastUsername(ctx)
		prompt := "Enter username"
		if last != "" {
			prompt = fmt.Sprintf("Enter username [%s]", last)
		}
		name, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return err
		}
		userName = orDefault(name, last)
	}
	if userName == "" {
		return usage("login [username]")
	}

	password := a.config.Password
	if password == "" || userName != a.config.Username {
		pw, err := getPassword("Enter password", a.out)
		if err != nil {
			return err
		}
		defer wipe(pw)
		password = string(pw)
	}

	me, err := a.api.Login(ctx, userName, password)
	if err != nil {
		return err
	}

	a.me = me
	a.userName = me.Username()
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", me.Username(), me.Role())
	return nil
}

// Logout forgets the token, locally and in the session store, together with
// any credentials the client kept for refreshing it.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.api.SetToken(ctx, "")
	a.api = a.newAPI("", "")
	a.me = nil
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Whoami(ctx context.Context, _ []string) error {
	if a.me.IsAdmin() {
		if err := a.me.Refresh(ctx); err != nil {
			return err
		}
	}
	printUser(a.out, a.me)
	return nil
}

// Passwd changes the password of the logged-in account.
func (a *App) Passwd(ctx context.Context, _ []string) error {
	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer wipe(current)

	next, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer wipe(next)

	confirm, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer wipe(confirm)

	if string(next) != string(confirm) {
		return errors.New("passwords do not match")
	}

	msg, err := a.api.Auth().ChangePassword(ctx, string(current), string(next))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, orDefault(msg, "Password changed"))
	return nil
}

// describe renders err for the console, preferring the service's own
// explanation of a rejected request.
func describe(err error) string {
	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		if remote := reqErr.RemoteMessage(); remote != "" {
			return fmt.Sprintf("%s (%d)", remote, reqErr.Status)
		}
		return fmt.Sprintf("%s (%d)", reqErr.Message(), reqErr.Status)
	}
	return err.Error()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
