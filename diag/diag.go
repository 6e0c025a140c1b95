// Package diag defines the two recoverable failure kinds of a compilation
// pass and the stderr reporting for them. A ConfigError is reported without
// a source position; a GenError is bound to a source node and reported as
// path:line:column. Anything that is neither kind is a programming error
// and is deliberately left to propagate.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ConfigError reports invalid or missing configuration: absent required
// settings, an unresolvable sync-mapping directory, a broken package
// descriptor, or an import that no resolution strategy can serve.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ConfigErrorf builds a ConfigError from a format string.
func ConfigErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// GenError reports a failure scoped to a single source node. Line is
// 1-based; the column is derived from the source text at report time.
type GenError struct {
	Path string
	Line int
	Msg  string
}

func (e *GenError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// GenErrorf builds a GenError from a format string.
func GenErrorf(path string, line int, format string, args ...any) error {
	return &GenError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Printer formats diagnostics for a terminal or a log sink.
type Printer struct {
	Out   io.Writer
	Color bool
}

// NewPrinter returns a Printer writing to stderr, with ANSI color when
// stderr is a terminal and NO_COLOR is unset.
func NewPrinter() *Printer {
	color := term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == ""
	return &Printer{Out: os.Stderr, Color: color}
}

// Report prints err as a diagnostic if it is one of the two classified
// kinds and returns true; otherwise it prints nothing and returns false,
// leaving the caller to propagate the error as fatal.
func (p *Printer) Report(err error) bool {
	label := "error:"
	if p.Color {
		label = "\033[31merror:\033[0m"
	}

	var ge *GenError
	if errors.As(err, &ge) {
		col := columnOf(ge.Path, ge.Line)
		fmt.Fprintf(p.Out, "%s:%d:%d: %s %s\n", ge.Path, ge.Line, col, label, ge.Msg)
		return true
	}

	var ce *ConfigError
	if errors.As(err, &ce) {
		fmt.Fprintf(p.Out, "%s %s\n", label, ce.Msg)
		return true
	}

	return false
}

// columnOf returns the 1-based offset of the first non-whitespace byte on
// the given line of the file, or 1 when the file or line is unavailable.
func columnOf(path string, line int) int {
	src, err := os.ReadFile(path)
	if err != nil || line < 1 {
		return 1
	}
	lines := strings.Split(string(src), "\n")
	if line > len(lines) {
		return 1
	}
	text := lines[line-1]
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return i + 1
		}
	}
	return 1
}
