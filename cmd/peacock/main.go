package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const usageText = `peacock is a terminal client for the AI notes service.

Usage:
  peacock [--debug] <command> [flags]

Commands:
  register   create an account
  login      sign in and remember the session
  logout     end the session
  whoami     show the signed-in profile
  ls         list notes
  show       show one note with its AI fields
  add        create a note
  edit       update a note
  rm         delete a note
  enrich     summarize, improve or tag a note
  ui         run terminal UI
  config     print configuration (effective or defaults)
  serve-dev  run an in-memory notes server for local use
  help       show help

Flags:
  --debug      write debug logs to ~/.peacock/peacock.log
  -h, --help   show help

Examples:
  peacock login --email ann@example.com
  peacock ls --search groceries
  peacock add --title "Plan" --content "Ship the beta"
  peacock enrich <id> --kind tags
  peacock config --default --format toml
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	debug := false
	if len(args) > 0 && args[0] == "--debug" {
		debug = true
		args = args[1:]
	}
	if len(args) == 0 {
		printUsage()
		return
	}

	// A missing .env is normal; only a malformed one is worth reporting.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	wiring := defaultCommandWiring(os.Stdin, os.Stdout, os.Stderr, debug)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
