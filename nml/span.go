package nml

import "strconv"

// Pos represents a source location in NML text.
type Pos struct {
	Line   int // 1-based line number
	Column int // 1-based column number (in runes, not bytes)
}

// IsZero returns true if the position is uninitialized
func (p Pos) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

func (p Pos) String() string {
	if p.IsZero() {
		return "-"
	}
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// advance returns the position shifted by n runes on the same line.
func (p Pos) advance(n int) Pos {
	p.Column += n
	return p
}
