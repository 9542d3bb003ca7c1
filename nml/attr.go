package nml

import (
	"fmt"
	"regexp"
	"strings"
)

// attrKeyRegex matches keys of the attribute list.
var attrKeyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// parseAttrs compiles the content of a parenthesized attribute list into n. Entries are separated
// by top-level commas; commas inside quotes and {...} event bodies do not split. Malformed
// entries are skipped and reported.
func (p *parser) parseAttrs(n *Node, list string, pos Pos) {
	for _, entry := range splitTopLevel(list, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if !isBalanced(entry) {
			p.error(pos, SeverityError, fmt.Errorf("%w %q: unmatched brackets or quotes", errMalformedAttr, entry))
			continue
		}

		key, val, ok := cutTopLevel(entry, ':')
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || val == "" {
			p.error(pos, SeverityError, fmt.Errorf("%w %q: expected key: value", errMalformedAttr, entry))
			continue
		}
		if !attrKeyRegex.MatchString(key) {
			p.error(pos, SeverityError, fmt.Errorf("%w %q: invalid key", errMalformedAttr, entry))
			continue
		}

		if isReservedAttr(key) {
			p.error(pos, SeverityError, fmt.Errorf("%w %q", errReservedAttr, key))
			continue
		}

		switch key {
		case "on":
			p.parseEvent(n, val, pos)
		case "class":
			for _, c := range strings.Fields(unquoteValue(val)) {
				n.AddClass(c)
			}
		case "style":
			props, bad := parseStyleDecls(unquoteValue(val))
			n.addStyle(props...)
			for _, b := range bad {
				p.error(pos, SeverityError, fmt.Errorf("%w %q", errMalformedStyle, b))
			}
		default:
			n.SetAttr(key, unquoteValue(val))
		}
	}
}

// isReservedAttr reports whether key names an attribute the generator emits for the runtime.
func isReservedAttr(key string) bool {
	return strings.EqualFold(key, markerAttr) || strings.EqualFold(key, handlerAttr)
}

// parseEvent compiles an on: entry into an event handler attached to n.
func (p *parser) parseEvent(n *Node, val string, pos Pos) {
	event, body, ok := parseEventValue(val)
	if !ok {
		p.error(pos, SeverityError, fmt.Errorf("%w %q: expected on: <event> { <statement> }", errMalformedAttr, val))
		return
	}

	h := &EventHandler{
		Element: n,
		Event:   event,
		Stmt:    compileStatement(body),
		Pos:     pos,
	}
	if !h.Compiled() {
		p.error(pos, SeverityWarning, fmt.Errorf("%w: on %s { %s }", errUnsupportedStmt, event, h.Stmt.Raw))
	}

	n.Events = append(n.Events, h)
	p.handlers = append(p.handlers, h)
}
