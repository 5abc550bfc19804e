package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"peacock/internal/devserver"
	"peacock/internal/logging"
)

const defaultDevAddr = "127.0.0.1:4000"

type serverRunner func(ctx context.Context, addr string, logger logging.Logger) error

func runDevServer(ctx context.Context, addr string, logger logging.Logger) error {
	return devserver.New(devserver.WithLogger(logger)).Run(ctx, addr)
}

type ServeDevCommand struct {
	stdout io.Writer
	stderr io.Writer
	run    serverRunner
}

func NewServeDevCommand(stdout, stderr io.Writer, run serverRunner) *ServeDevCommand {
	return &ServeDevCommand{stdout: stdout, stderr: stderr, run: run}
}

func (c *ServeDevCommand) Run(args []string) error {
	fs := flag.NewFlagSet("serve-dev", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	addr := fs.String("addr", defaultDevAddr, "listen address")
	verbose := fs.Bool("verbose", false, "log requests to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	logger := logging.New(c.stderr, level)
	fmt.Fprintf(c.stdout, "serving in-memory notes API on http://%s (Ctrl+C to stop)\n", *addr)
	ctx, cancel := commandContext()
	defer cancel()
	if c.run == nil {
		return fmt.Errorf("serve-dev: no server available")
	}
	if err := c.run(ctx, *addr, logger); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "stopped")
	return nil
}
