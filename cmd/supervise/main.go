// Package main provides the supervise CLI entrypoint.
//
// Usage:
//
//	supervise [OPTIONS] -- <command> [args...]
//
// Exit codes:
//   - the child's exit code when it exits on its own
//   - 128+N when the child is killed by signal N
//   - 1 for usage errors, configuration errors, and launch failures
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/supervise/cli/cmd"
	"github.com/justapithecus/supervise/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:            "supervise",
		Usage:           "Run a command and report its progress to a chat channel",
		UsageText:       cmd.UsageText,
		Version:         fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:           cmd.SuperviseFlags(),
		Action:          cmd.SuperviseAction,
		ExitErrHandler:  exitErrHandler,
		HideHelpCommand: true,
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from
// cli.Exit so the child's status becomes supervise's status.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitMessage(exitCoder); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// exitMessage returns the text worth printing for an exit error.
// cli.Exit("", N) carries no message; neither does a bare "exit status N".
func exitMessage(e cli.ExitCoder) string {
	msg := e.Error()
	if msg == fmt.Sprintf("exit status %d", e.ExitCode()) {
		return ""
	}
	return msg
}
