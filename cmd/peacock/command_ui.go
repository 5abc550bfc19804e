package main

import (
	"context"
	"flag"
	"io"
)

type UICommand struct {
	stderr    io.Writer
	newClient clientFactory
}

func NewUICommand(stderr io.Writer, newClient clientFactory) *UICommand {
	return &UICommand{stderr: stderr, newClient: newClient}
}

// Run starts on the notes screen when a stored session restores and on the
// login screen otherwise.
func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withClient(c.newClient, false, func(ctx context.Context, client commandClient) error {
		return client.RunUI(client.Restore(ctx))
	})
}
