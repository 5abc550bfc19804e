package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"peacock/internal/types"
)

type RegisterCommand struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewRegisterCommand(stdin io.Reader, stdout, stderr io.Writer, newClient clientFactory) *RegisterCommand {
	return &RegisterCommand{stdin: stdin, stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *RegisterCommand) Run(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		secret, err := readSecret(c.stdin, "password: ", c.stderr)
		if err != nil {
			return err
		}
		*password = secret
	}
	return withClient(c.newClient, false, func(ctx context.Context, client commandClient) error {
		req := types.Registration{Name: *name, Email: *email, Password: *password}
		if err := client.Register(ctx, req); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Registration successful. Log in with peacock login.")
		return nil
	})
}

type LoginCommand struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewLoginCommand(stdin io.Reader, stdout, stderr io.Writer, newClient clientFactory) *LoginCommand {
	return &LoginCommand{stdin: stdin, stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *LoginCommand) Run(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		secret, err := readSecret(c.stdin, "password: ", c.stderr)
		if err != nil {
			return err
		}
		*password = secret
	}
	return withClient(c.newClient, false, func(ctx context.Context, client commandClient) error {
		if err := client.Login(ctx, *email, *password); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Logged in.")
		return nil
	})
}

type LogoutCommand struct {
	stdout    io.Writer
	newClient clientFactory
}

func NewLogoutCommand(stdout io.Writer, newClient clientFactory) *LogoutCommand {
	return &LogoutCommand{stdout: stdout, newClient: newClient}
}

// Run restores first so a persisted credential is cleared even though this
// process never logged in.
func (c *LogoutCommand) Run(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("logout takes no arguments")
	}
	return withClient(c.newClient, false, func(ctx context.Context, client commandClient) error {
		client.Restore(ctx)
		if !client.Logout(ctx) {
			fmt.Fprintln(c.stdout, "Not logged in.")
		}
		return nil
	})
}

type WhoamiCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewWhoamiCommand(stdout, stderr io.Writer, newClient clientFactory) *WhoamiCommand {
	return &WhoamiCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *WhoamiCommand) Run(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withClient(c.newClient, true, func(ctx context.Context, client commandClient) error {
		profile, err := client.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s <%s>\n", profile.Name, profile.Email)
		if !profile.CreatedAt.IsZero() {
			fmt.Fprintf(c.stdout, "member since %s\n", formatTime(profile.CreatedAt))
		}
		return nil
	})
}
