package luagen

import (
	"fmt"
	"strings"
)

// luaWriter manages indented Lua source output for the code generator.
type luaWriter struct {
	sb     strings.Builder
	indent int
}

// Linef writes an indented, formatted line with a trailing newline.
func (w *luaWriter) Linef(format string, args ...any) {
	w.sb.WriteString(strings.Repeat("\t", w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

// Blank writes an empty line.
func (w *luaWriter) Blank() {
	w.sb.WriteByte('\n')
}

// Indent increases the indentation level.
func (w *luaWriter) Indent() { w.indent++ }

// Dedent decreases the indentation level.
func (w *luaWriter) Dedent() { w.indent-- }

// String returns the accumulated output.
func (w *luaWriter) String() string { return w.sb.String() }
