// Package frontend is the parsing boundary of the compiler: it extracts
// import references and line numbers from TypeScript sources and flags
// declaration-only files. It deliberately stops short of type checking;
// the rest of the pipeline only needs reference edges and specifiers.
package frontend

// codeScanner iterates byte-by-byte over TypeScript source, tracking
// string literal boundaries (single-quoted, double-quoted, template),
// escape sequences, and both comment forms. Callers check inCode or
// inString instead of maintaining their own quote/escape/comment flags.
//
// inString returns true for the entire string span including both
// delimiters; the closing flag keeps the final quote inside the span.
type codeScanner struct {
	src  string
	pos  int
	line int

	inSgl bool
	inDbl bool
	inTpl bool

	inLineComment  bool
	inBlockComment bool

	escaped bool
	// opening is set while processing an opening string delimiter.
	opening bool
	// closing is set while processing a closing string delimiter.
	closing bool
	// closingComment is set while processing the '/' of a '*/' pair.
	closingComment bool
	// prevStar tracks a '*' inside a block comment, for '*/' detection.
	prevStar bool
}

// newCodeScanner creates a scanner over src. Call next to advance to the
// first byte.
func newCodeScanner(src string) *codeScanner {
	return &codeScanner{src: src, pos: -1, line: 1}
}

// next advances to the next byte, updating string, escape, and comment
// state. Returns the byte and true, or (0, false) at end of input.
func (s *codeScanner) next() (byte, bool) {
	s.opening = false
	s.closing = false
	s.closingComment = false
	s.pos++
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]
	if ch == '\n' {
		s.line++
		s.inLineComment = false
	}

	if s.inLineComment {
		return ch, true
	}
	if s.inBlockComment {
		if ch == '/' && s.prevStar {
			s.inBlockComment = false
			s.closingComment = true
		}
		s.prevStar = ch == '*'
		return ch, true
	}

	if s.escaped {
		s.escaped = false
		return ch, true
	}
	if ch == '\\' && (s.inSgl || s.inDbl || s.inTpl) {
		s.escaped = true
		return ch, true
	}

	switch {
	case s.inSgl:
		if ch == '\'' {
			s.inSgl = false
			s.closing = true
		}
	case s.inDbl:
		if ch == '"' {
			s.inDbl = false
			s.closing = true
		}
	case s.inTpl:
		if ch == '`' {
			s.inTpl = false
			s.closing = true
		}
	default:
		switch ch {
		case '\'':
			s.inSgl = true
			s.opening = true
		case '"':
			s.inDbl = true
			s.opening = true
		case '`':
			s.inTpl = true
			s.opening = true
		case '/':
			if nxt, ok := s.peek(); ok {
				if nxt == '/' {
					s.inLineComment = true
				} else if nxt == '*' {
					s.inBlockComment = true
					s.prevStar = false
				}
			}
		}
	}

	return ch, true
}

// peek returns the next byte without advancing, or (0, false) at end.
func (s *codeScanner) peek() (byte, bool) {
	if s.pos+1 >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos+1], true
}

// inString reports whether the current byte is part of a string literal,
// including both delimiters.
func (s *codeScanner) inString() bool {
	return s.inSgl || s.inDbl || s.inTpl || s.closing
}

// inQuote reports whether the current byte is inside a single- or
// double-quoted literal, excluding the delimiters themselves. Import
// specifiers are exactly the bytes for which this holds.
func (s *codeScanner) inQuote() bool {
	return (s.inSgl || s.inDbl) && !s.opening
}

// inComment reports whether the current byte is part of a comment.
func (s *codeScanner) inComment() bool {
	return s.inLineComment || s.inBlockComment || s.closingComment
}

// inCode reports whether the current byte is plain code.
func (s *codeScanner) inCode() bool {
	return !s.inString() && !s.inComment()
}

// lineNo returns the current 1-based line number.
func (s *codeScanner) lineNo() int { return s.line }
