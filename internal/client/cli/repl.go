package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/taskkeeper/internal/client/client"
)

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Done(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, exit"
	helpLoggedIn  = `Available commands:
  list [status=] [priority=] [search=] [skip=] [limit=]
  add
  show <id>
  update <id> key=value...   (title, description, status, priority; description= clears it)
  done <id>
  delete <id>
  me, logout, help, exit`
)

// describe turns a command error into a line for the user.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, client.ErrUnauthorized):
		return "not logged in or session expired, use 'login'"
	case errors.As(err, &apiErr):
		return apiErr.Error()
	}
	return err.Error()
}

// runREPL reads commands from scanner until EOF or "exit"/"quit". Command
// errors are reported to w and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, w io.Writer) {
	for {
		fmt.Fprintf(w, "tk %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintln(w, "Error:", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(w, "Bye!")
			return
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}
			continue
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "me":
			err = a.Me(ctx)
		case "l", "list":
			err = a.List(ctx, args)
		case "add":
			err = a.Add(ctx)
		case "show":
			err = a.Show(ctx, args)
		case "update":
			err = a.Update(ctx, args)
		case "done":
			err = a.Done(ctx, args)
		case "delete":
			err = a.Delete(ctx, args)
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
			continue
		}

		if err != nil {
			fmt.Fprintln(w, "Error:", describe(err))
		}
	}
}
