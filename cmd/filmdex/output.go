package main

import (
	"os"

	"github.com/mattn/go-isatty"
)

// terminalLogFormat resolves the "auto" log format: pretty console output on
// an interactive terminal, JSON lines otherwise.
func terminalLogFormat() string {
	if stdoutIsTerminal() {
		return "console"
	}
	return "json"
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
