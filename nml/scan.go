package nml

import (
	"strconv"
	"strings"
)

// The helpers below scan NML lines byte by byte. All delimiters are ASCII, so multi-byte runes
// in literals pass through untouched.

func isLower(c byte) bool { return 'a' <= c && c <= 'z' }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isAlpha(c byte) bool { return isLower(c) || 'A' <= c && c <= 'Z' }

func isIdentByte(c byte) bool { return isAlpha(c) || isDigit(c) || c == '_' }

func isNameByte(c byte) bool { return isIdentByte(c) || c == '-' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v' }

func skipSpaces(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// scanWhile returns the end of the run of bytes starting at i for which ok returns true.
func scanWhile(s string, i int, ok func(byte) bool) int {
	for i < len(s) && ok(s[i]) {
		i++
	}
	return i
}

// scanTagName scans a lowercase tag name: [a-z][a-z0-9-]*.
func scanTagName(s string, i int) int {
	if i >= len(s) || !isLower(s[i]) {
		return i
	}
	return scanWhile(s, i+1, func(c byte) bool { return isLower(c) || isDigit(c) || c == '-' })
}

// scanBareIdent scans a bare lowercase identifier: [a-z_][A-Za-z0-9_]*.
func scanBareIdent(s string, i int) int {
	if i >= len(s) || !(isLower(s[i]) || s[i] == '_') {
		return i
	}
	return scanWhile(s, i+1, isIdentByte)
}

// scanQuoted scans a quoted literal starting at s[i], which must be a quote character. It returns
// the index just past the closing quote, or -1 if the literal is not terminated.
func scanQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return -1
}

// unquote returns the content of a quoted literal. Go escape sequences are honoured when they
// are valid; otherwise only escaped quotes and backslashes are resolved.
func unquote(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	q := lit[0]
	if q != '"' && q != '\'' || lit[len(lit)-1] != q {
		return lit
	}
	if q == '"' {
		if s, err := strconv.Unquote(lit); err == nil {
			return s
		}
	}
	body := lit[1 : len(lit)-1]
	return strings.NewReplacer(`\`+string(q), string(q), `\\`, `\`).Replace(body)
}

// unquoteValue unquotes v if it is a quoted literal and returns it verbatim otherwise.
func unquoteValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && scanQuoted(v, 0) == len(v) {
		return unquote(v)
	}
	return v
}

// nesting tracks brackets and quotes while scanning a fragment.
type nesting struct {
	parens, braces int
	quote          byte
	broken         bool // a closing bracket appeared without its opener
}

// feed processes s[i] and returns the index of the next byte to process.
func (n *nesting) feed(s string, i int) int {
	c := s[i]
	if n.quote != 0 {
		switch c {
		case '\\':
			return i + 2
		case n.quote:
			n.quote = 0
		}
		return i + 1
	}
	switch c {
	case '"', '\'', '`':
		n.quote = c
	case '(':
		n.parens++
	case ')':
		n.parens--
	case '{':
		n.braces++
	case '}':
		n.braces--
	}
	if n.parens < 0 || n.braces < 0 {
		n.broken = true
	}
	return i + 1
}

func (n *nesting) topLevel() bool {
	return n.quote == 0 && n.parens == 0 && n.braces == 0
}

func (n *nesting) balanced() bool {
	return n.topLevel() && !n.broken
}

// scanParenList scans a parenthesized list starting at s[i] == '('. It returns the index of the
// matching ')' or -1 if the list is not terminated on this line.
func scanParenList(s string, i int) int {
	var n nesting
	for j := i; j < len(s); {
		j = n.feed(s, j)
		if n.parens == 0 && n.quote == 0 {
			return j - 1
		}
	}
	return -1
}

// splitTopLevel splits s on sep bytes that are outside of quotes, parentheses and braces.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		n     nesting
		start int
	)
	for i := 0; i < len(s); {
		if s[i] == sep && n.topLevel() {
			parts = append(parts, s[start:i])
			i++
			start = i
			continue
		}
		i = n.feed(s, i)
	}
	return append(parts, s[start:])
}

// isBalanced reports whether quotes, parentheses and braces in s are all closed.
func isBalanced(s string) bool {
	var n nesting
	for i := 0; i < len(s); {
		i = n.feed(s, i)
	}
	return n.balanced()
}

// cutTopLevel splits s around the first sep byte outside of quotes and brackets.
func cutTopLevel(s string, sep byte) (before, after string, found bool) {
	var n nesting
	for i := 0; i < len(s); {
		if s[i] == sep && n.topLevel() {
			return s[:i], s[i+1:], true
		}
		i = n.feed(s, i)
	}
	return s, "", false
}
