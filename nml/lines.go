package nml

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// commentMarker starts a line that is ignored entirely.
const commentMarker = "//"

// SourceLine is one significant line of NML source.
type SourceLine struct {
	// Indent is the number of leading whitespace runes.
	Indent int
	// Text is the line content with surrounding whitespace trimmed.
	Text string
	// Pos is the location of the first non-whitespace rune.
	Pos Pos
}

// Tokenize splits src into significant lines. Blank lines and comment lines are dropped,
// so they have no effect on nesting. Any input, including the empty string, is accepted.
func Tokenize(src string) []SourceLine {
	var lines []SourceLine

	for i, raw := range strings.Split(src, "\n") {
		raw = strings.TrimSuffix(raw, "\r")

		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, commentMarker) {
			continue
		}

		indent := indentWidth(raw)
		lines = append(lines, SourceLine{
			Indent: indent,
			Text:   text,
			Pos:    Pos{Line: i + 1, Column: indent + 1},
		})
	}

	return lines
}

// indentWidth counts leading whitespace runes. A tab counts as a single column.
func indentWidth(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if !unicode.IsSpace(r) {
			break
		}
		n++
		s = s[size:]
	}
	return n
}
