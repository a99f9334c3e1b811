package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	report(err error)

	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Whoami(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error

	ListUsers(ctx context.Context, args []string) error
	ShowUser(ctx context.Context, args []string) error
	AddUser(ctx context.Context, args []string) error
	SetRole(ctx context.Context, args []string) error
	DeleteUser(ctx context.Context, args []string) error

	Verify(ctx context.Context, args []string) error
	ShowVerification(ctx context.Context, args []string) error
	SetVerification(ctx context.Context, args []string) error
	Unverify(ctx context.Context, args []string) error
	ListVerifications(ctx context.Context, args []string) error

	Analytics(ctx context.Context, args []string) error
	Activity(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, exit"
	helpLoggedIn  = `Available commands:
  whoami | passwd | logout
  users | user <id|name> | adduser <name> [role] | setrole <id|name> <role> | deluser <id|name>
  verify <discord_id> <ckey> [method] [flag=value...]
  verification <discord_id> | verification ckey:<ckey>
  setverify <discord_id|ckey:<ckey>> [discord_id=..] [ckey=..] [method=..] [flag=value...]
  unverify <discord_id|ckey:<ckey>>
  verifications [page] [search]
  analytics | activity [page]
  exit`
)

// ErrUsage is returned by commands called with the wrong arguments.
var ErrUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The first field of a line is the command, the rest are its arguments.
// Errors are reported through a.report and never stop the loop; it ends on
// EOF or "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("veyra %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var run func(context.Context, []string) error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "login":
			run = a.Login
		case "logout":
			run = a.Logout
		case "whoami":
			run = a.Whoami
		case "passwd":
			run = a.Passwd
		case "users":
			run = a.ListUsers
		case "user":
			run = a.ShowUser
		case "adduser":
			run = a.AddUser
		case "setrole":
			run = a.SetRole
		case "deluser":
			run = a.DeleteUser
		case "verify":
			run = a.Verify
		case "verification":
			run = a.ShowVerification
		case "setverify":
			run = a.SetVerification
		case "unverify":
			run = a.Unverify
		case "verifications", "l":
			run = a.ListVerifications
		case "analytics":
			run = a.Analytics
		case "activity":
			run = a.Activity

		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if cmd != "login" && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}
		a.report(run(ctx, args))
	}
}
