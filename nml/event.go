package nml

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	expr_parser "github.com/expr-lang/expr/parser"
)

// eventValueRegex matches the value of an on: attribute: `<eventName> { <statement> }`.
var eventValueRegex = regexp.MustCompile(`(?s)^([A-Za-z][A-Za-z0-9_-]*)\s*\{(.*)\}$`)

// stmtRegex splits a statement into target, operator and operand. A statement that does not
// match is passed through raw.
var stmtRegex = regexp.MustCompile(`(?s)^(.+?)\s*(\+=|-=|=)\s*(.+)$`)

// StatementKind enumerates the statement shapes understood inside event handlers.
type StatementKind int

const (
	// StmtRaw is a statement outside the supported grammar. It is emitted verbatim as a
	// native event attribute.
	StmtRaw StatementKind = iota
	// StmtAssign is `<state>.value = <literal>`.
	StmtAssign
	// StmtIncrement is `<state>.value += <integer>`.
	StmtIncrement
	// StmtDecrement is `<state>.value -= <integer>`.
	StmtDecrement
)

func (k StatementKind) String() string {
	switch k {
	case StmtRaw:
		return "raw"
	case StmtAssign:
		return "assign"
	case StmtIncrement:
		return "increment"
	case StmtDecrement:
		return "decrement"
	default:
		return fmt.Sprintf("StatementKind(%d)", int(k))
	}
}

// Statement is the compiled body of an event handler.
type Statement struct {
	Kind StatementKind

	// Target is the state name mutated by the statement. Empty for StmtRaw.
	Target string

	// Literal is the canonical source text of the assigned value (StmtAssign).
	Literal string

	// Delta is the integer operand of StmtIncrement and StmtDecrement.
	Delta int

	// Raw is the statement text as written, after trimming.
	Raw string
}

// ValueExpr returns the expression computing the new value of Target. The expression is valid
// both in the generated JavaScript runtime and in the expr language, where the state record is
// bound to the `state` variable. It returns "" for StmtRaw.
func (s Statement) ValueExpr() string {
	switch s.Kind {
	case StmtAssign:
		return s.Literal
	case StmtIncrement:
		return stateRef(s.Target) + " + " + strconv.Itoa(s.Delta)
	case StmtDecrement:
		return stateRef(s.Target) + " - " + strconv.Itoa(s.Delta)
	default:
		return ""
	}
}

// stateRef returns the expression reading the state entry name.
func stateRef(name string) string {
	return "state[" + jsString(name) + "]"
}

// jsString quotes s as a string literal that reads back the same in JavaScript and in expr.
// Control characters and the HTML-sensitive <, > and & come out as \u escapes.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// EventHandler is an on: entry bound to an element.
type EventHandler struct {
	Element *Node
	Event   string
	Stmt    Statement
	Pos     Pos
}

// Compiled reports whether the handler runs through the runtime's update operation.
func (h *EventHandler) Compiled() bool {
	return h.Stmt.Kind != StmtRaw
}

// parseEventValue splits `click { ... }` into the event name and statement body.
func parseEventValue(v string) (event, body string, ok bool) {
	m := eventValueRegex.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), m[2], true
}

// compileStatement matches body against the supported statement shapes. Anything else becomes a
// StmtRaw statement.
func compileStatement(body string) Statement {
	body = strings.TrimSpace(body)
	body = strings.TrimSpace(strings.TrimSuffix(body, ";"))
	raw := Statement{Kind: StmtRaw, Raw: body}

	m := stmtRegex.FindStringSubmatch(body)
	if m == nil {
		return raw
	}
	lhs, op, rhs := m[1], m[2], m[3]

	target, ok := parseValueTarget(lhs)
	if !ok {
		return raw
	}

	lit, ok := parseLiteral(rhs)
	if !ok {
		return raw
	}

	switch op {
	case "=":
		return Statement{Kind: StmtAssign, Target: target, Literal: lit.text, Raw: body}
	case "+=", "-=":
		if !lit.integer {
			return raw
		}
		kind := StmtIncrement
		if op == "-=" {
			kind = StmtDecrement
		}
		return Statement{Kind: kind, Target: target, Delta: lit.int, Raw: body}
	}
	return raw
}

// parseValueTarget recognizes `<identifier>.value` and returns the identifier.
func parseValueTarget(s string) (string, bool) {
	tree, err := expr_parser.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	member, ok := tree.Node.(*ast.MemberNode)
	if !ok {
		return "", false
	}
	id, ok := member.Node.(*ast.IdentifierNode)
	if !ok {
		return "", false
	}
	prop, ok := member.Property.(*ast.StringNode)
	if !ok || prop.Value != "value" {
		return "", false
	}
	return id.Value, true
}

type literal struct {
	text    string // canonical source text
	integer bool
	int     int
}

// parseLiteral recognizes integer, float, string and boolean literals, optionally negated.
func parseLiteral(s string) (literal, bool) {
	tree, err := expr_parser.Parse(strings.TrimSpace(s))
	if err != nil {
		return literal{}, false
	}

	node := tree.Node
	negative := false
	if u, ok := node.(*ast.UnaryNode); ok && (u.Operator == "-" || u.Operator == "+") {
		negative = u.Operator == "-"
		node = u.Node
		switch node.(type) {
		case *ast.IntegerNode, *ast.FloatNode:
		default:
			return literal{}, false
		}
	}

	switch n := node.(type) {
	case *ast.IntegerNode:
		v := n.Value
		if negative {
			v = -v
		}
		return literal{text: strconv.Itoa(v), integer: true, int: v}, true
	case *ast.FloatNode:
		v := n.Value
		if negative {
			v = -v
		}
		return literal{text: strconv.FormatFloat(v, 'g', -1, 64)}, true
	case *ast.StringNode:
		return literal{text: jsString(n.Value)}, true
	case *ast.BoolNode:
		return literal{text: strconv.FormatBool(n.Value)}, true
	}
	return literal{}, false
}
