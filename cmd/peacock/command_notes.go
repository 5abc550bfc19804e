package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"peacock/internal/notes"
)

type ListCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewListCommand(stdout, stderr io.Writer, newClient clientFactory) *ListCommand {
	return &ListCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *ListCommand) Run(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	search := fs.String("search", "", "only notes whose title or content contains this text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withClient(c.newClient, true, func(ctx context.Context, client commandClient) error {
		list, err := client.Notes(ctx)
		if err != nil {
			return err
		}
		visible := notes.Project(list, *search)
		if len(visible) == 0 {
			fmt.Fprintln(c.stdout, "No notes found.")
			return nil
		}
		printNotes(c.stdout, visible)
		return nil
	})
}

type ShowCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewShowCommand(stdout, stderr io.Writer, newClient clientFactory) *ShowCommand {
	return &ShowCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *ShowCommand) Run(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := noteIDArg(fs.Args())
	if err != nil {
		return err
	}
	return withClient(c.newClient, true, func(ctx context.Context, client commandClient) error {
		note, err := client.Note(ctx, id)
		if err != nil {
			return err
		}
		printNote(c.stdout, note)
		return nil
	})
}

type AddCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewAddCommand(stdout, stderr io.Writer, newClient clientFactory) *AddCommand {
	return &AddCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *AddCommand) Run(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	title := fs.String("title", "", "note title")
	content := fs.String("content", "", "note content")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withClient(c.newClient, true, func(ctx context.Context, client commandClient) error {
		if err := client.CreateNote(ctx, *title, *content); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Note created.")
		return nil
	})
}

type EditCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewEditCommand(stdout, stderr io.Writer, newClient clientFactory) *EditCommand {
	return &EditCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

// Run keeps the stored value for any field not given on the command line.
func (c *EditCommand) Run(args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	title := fs.String("title", "", "new title")
	content := fs.String("content", "", "new content")
	id, rest := splitLeadingID(args)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if id == "" {
		var err error
		if id, err = noteIDArg(fs.Args()); err != nil {
			return err
		}
	}
	if *title == "" && *content == "" {
		return errors.New("nothing to change: pass --title and/or --content")
	}
	return withClient(c.newClient, true, func(ctx context.Context, client commandClient) error {
		current, err := client.Note(ctx, id)
		if err != nil {
			return err
		}
		newTitle, newContent := current.Title, current.Content
		if *title != "" {
			newTitle = *title
		}
		if *content != "" {
			newContent = *content
		}
		if err := client.UpdateNote(ctx, id, newTitle, newContent); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Note updated.")
		return nil
	})
}

type RemoveCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewRemoveCommand(stdout, stderr io.Writer, newClient clientFactory) *RemoveCommand {
	return &RemoveCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *RemoveCommand) Run(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := noteIDArg(fs.Args())
	if err != nil {
		return err
	}
	return withClient(c.newClient, true, func(ctx context.Context, client commandClient) error {
		if err := client.DeleteNote(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Note deleted.")
		return nil
	})
}

func noteIDArg(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errors.New("expected exactly one note id")
	}
	return strings.TrimSpace(args[0]), nil
}

// splitLeadingID lets the id come before flags, which flag.Parse would
// otherwise treat as the end of the flag list.
func splitLeadingID(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", args
	}
	return strings.TrimSpace(args[0]), args[1:]
}
