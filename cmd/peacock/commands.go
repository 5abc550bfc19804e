package main

import (
	"io"
	"os"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
	runServer serverRunner
}

func defaultCommandWiring(stdin io.Reader, stdout, stderr io.Writer, debug bool) commandWiring {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		newClient: newRuntimeFactory(stderr, debug),
		runServer: runDevServer,
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"register":  NewRegisterCommand(wiring.stdin, wiring.stdout, wiring.stderr, wiring.newClient),
		"login":     NewLoginCommand(wiring.stdin, wiring.stdout, wiring.stderr, wiring.newClient),
		"logout":    NewLogoutCommand(wiring.stdout, wiring.newClient),
		"whoami":    NewWhoamiCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"ls":        NewListCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"show":      NewShowCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"add":       NewAddCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"edit":      NewEditCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"rm":        NewRemoveCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"enrich":    NewEnrichCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"ui":        NewUICommand(wiring.stderr, wiring.newClient),
		"config":    NewConfigCommand(wiring.stdout, wiring.stderr),
		"serve-dev": NewServeDevCommand(wiring.stdout, wiring.stderr, wiring.runServer),
	}
}
