// Package term provides ANSI color state, terminal detection, and the
// small set of console helpers the pasr command prints through.
//
// Colors are package-level variables; when colors are disabled the
// variables are empty strings, making string concatenation a no-op.
package term

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI color codes. Empty when colors are disabled.
var (
	Red    = ""
	Green  = ""
	Yellow = ""
	NC     = "" // Reset sequence.
)

// Configure resolves whether colors should be active and sets the
// package-level ANSI variables. Call once during startup.
func Configure() {
	if resolve() {
		Red = "\033[1;91m"
		Green = "\033[1;92m"
		Yellow = "\033[1;93m"
		NC = "\033[0m"
	} else {
		Red, Green, Yellow, NC = "", "", "", ""
	}
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return NC != "" }

// resolve honors the NO_COLOR env var (https://no-color.org) and only
// enables colors on a real terminal.
func resolve() bool {
	return IsTerminal(os.Stdout) &&
		os.Getenv("NO_COLOR") == "" &&
		strings.ToLower(os.Getenv("TERM")) != "dumb"
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// Infof prints a plain status line to stdout.
func Infof(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Successf prints a green status line to stdout.
func Successf(format string, args ...any) {
	fmt.Printf(Green+format+NC+"\n", args...)
}

// Warnf prints a yellow warning line to stdout.
func Warnf(format string, args ...any) {
	fmt.Printf(Yellow+format+NC+"\n", args...)
}

// Errorf prints a red error line to stderr.
func Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, Red+format+NC+"\n", args...)
}

// Confirm prints prompt and reads one line from r. Only an explicit
// "y" or "Y" counts as yes.
func Confirm(r io.Reader, prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.TrimRight(line, "\r\n")
	return answer == "y" || answer == "Y"
}
