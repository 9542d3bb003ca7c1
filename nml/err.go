package nml

import (
	"errors"
	"fmt"
	"strings"
)

// Severity classifies a diagnostic. None of them abort compilation.
type Severity int

const (
	// SeverityWarning marks a construct that was compiled with a fallback.
	SeverityWarning Severity = iota
	// SeverityError marks a construct that was dropped from the output.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic describes a construct that the compiler absorbed with a fallback: a skipped line,
// a skipped attribute or a statement passed through verbatim.
type Diagnostic struct {
	Pos      Pos
	Severity Severity
	Msg      string

	err error
}

func (d *Diagnostic) Error() string {
	return d.Pos.String() + ": " + d.Msg
}

func (d *Diagnostic) Unwrap() error {
	return d.err
}

var (
	errUnrecognizedLine  = errors.New("unrecognized line")
	errUnmatchedClose    = errors.New("closing marker without an open block")
	errMalformedAttr     = errors.New("malformed attribute")
	errUnsupportedStmt   = errors.New("unsupported statement, passed through raw")
	errUndeclaredState   = errors.New("undeclared state")
	errOrphanStyle       = errors.New("style block outside of an element")
	errVoidContent       = errors.New("void element cannot have content")
	errMalformedStyle    = errors.New("malformed style declaration")
	errDuplicateState    = errors.New("state redeclared, last declaration wins")
	errUnterminatedAttrs = errors.New("unterminated attribute list")
	errStateName         = errors.New("state name must start with a lowercase letter or underscore")
	errReservedAttr      = errors.New("reserved attribute")
	errPlaintext         = errors.New("obsolete element rendered as <pre>")
)

// Diagnostics is the list of diagnostics collected by a single compile.
type Diagnostics []*Diagnostic

// Err returns all diagnostics joined into a single error, or nil if there are none.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// HasErrors reports whether any diagnostic has SeverityError.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ContextLine is a numbered line of source shown around a diagnostic.
type ContextLine struct {
	Number int
	Text   string
}

// SourceContext holds the lines around a diagnostic position.
type SourceContext struct {
	Lines       []ContextLine
	ErrorLine   int
	ErrorColumn int
}

// SourceContext extracts up to radius lines before and after the diagnostic from src.
// It returns nil if the position is not within src.
func (d *Diagnostic) SourceContext(src string, radius int) *SourceContext {
	lines := strings.Split(src, "\n")
	if d.Pos.Line < 1 || d.Pos.Line > len(lines) {
		return nil
	}

	radius = max(radius, 0)
	from := max(d.Pos.Line-radius, 1)
	to := min(d.Pos.Line+radius, len(lines))

	ctx := &SourceContext{
		ErrorLine:   d.Pos.Line,
		ErrorColumn: d.Pos.Column,
	}
	for i := from; i <= to; i++ {
		ctx.Lines = append(ctx.Lines, ContextLine{
			Number: i,
			Text:   strings.TrimSuffix(lines[i-1], "\r"),
		})
	}
	return ctx
}

// String formats the context with line numbers and a caret under the error column.
func (c *SourceContext) String() string {
	if c == nil || len(c.Lines) == 0 {
		return ""
	}
	var b strings.Builder
	width := len(fmt.Sprint(c.Lines[len(c.Lines)-1].Number))
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "%*d | %s\n", width, l.Number, l.Text)
		if l.Number == c.ErrorLine && c.ErrorColumn > 0 {
			fmt.Fprintf(&b, "%*s | %s^\n", width, "", strings.Repeat(" ", c.ErrorColumn-1))
		}
	}
	return b.String()
}
