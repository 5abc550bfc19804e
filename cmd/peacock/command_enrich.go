package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"peacock/internal/sanitizer"
	"peacock/internal/types"
)

type EnrichCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewEnrichCommand(stdout, stderr io.Writer, newClient clientFactory) *EnrichCommand {
	return &EnrichCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *EnrichCommand) Run(args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	kindFlag := fs.String("kind", string(types.EnrichmentSummary), "summary|improve|tags")
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
	kind, err := types.ParseEnrichmentKind(*kindFlag)
	if err != nil {
		return err
	}
	return withClient(c.newClient, true, func(ctx context.Context, client commandClient) error {
		result, err := client.Enrich(ctx, id, kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, sanitizer.SanitizeText(result.String()))
		return nil
	})
}
