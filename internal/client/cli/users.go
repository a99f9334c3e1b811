package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/veyra"
)

// userKey reads a numeric argument as a user id and anything else as a
// username.
func userKey(arg string) veyra.UserKey {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return veyra.UserByID(id)
	}
	return veyra.UserByUsername(arg)
}

func parseRole(s string) (veyra.Role, error) {
	switch r := veyra.Role(s); r {
	case veyra.RoleUser, veyra.RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q (want %s or %s)", s, veyra.RoleUser, veyra.RoleAdmin)
}

// findUser fetches the user addressed by arg and fails when there is none.
func (a *App) findUser(ctx context.Context, arg string) (*veyra.User, error) {
	key := userKey(arg)
	u, err := a.api.Users().Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &veyra.NotFoundError{Resolvable: key}
	}
	return u, nil
}

func (a *App) ListUsers(ctx context.Context, _ []string) error {
	users, err := a.api.Users().GetAll(ctx)
	if err != nil {
		return err
	}
	printUsers(a.out, users)
	return nil
}

func (a *App) ShowUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("user <id|username>")
	}
	u, err := a.findUser(ctx, args[0])
	if err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

// AddUser creates an account; the password is prompted for twice.
func (a *App) AddUser(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("adduser <username> [user|admin]")
	}
	role := veyra.RoleUser
	if len(args) == 2 {
		r, err := parseRole(args[1])
		if err != nil {
			return err
		}
		role = r
	}

	pw, err := getPassword("Password for "+args[0], a.out)
	if err != nil {
		return err
	}
	defer wipe(pw)
	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer wipe(confirm)
	if string(pw) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}

	u, err := a.api.Users().Create(ctx, args[0], string(pw), role)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, "Created ")
	printUser(a.out, u)
	return nil
}

func (a *App) SetRole(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("setrole <id|username> <user|admin>")
	}
	role, err := parseRole(args[1])
	if err != nil {
		return err
	}
	u, err := a.findUser(ctx, args[0])
	if err != nil {
		return err
	}
	if err := u.UpdateRole(ctx, role); err != nil {
		return err
	}
	printUser(a.out, u)
	return nil
}

func (a *App) DeleteUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("deluser <id|username>")
	}
	key := userKey(args[0])
	if id, err := a.api.Users().Resolve(ctx, key); err == nil && id == a.me.ID() {
		return fmt.Errorf("refusing to delete the logged-in account")
	}
	msg, err := a.api.Users().Delete(ctx, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, orDefault(msg, "User deleted"))
	return nil
}
