package nml

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tree is the result of parsing NML source: the element tree and its side tables. It is built
// fresh for every compile.
type Tree struct {
	// Root is the synthetic document node owning the top-level elements.
	Root *Node

	// States holds the state declarations.
	States *StateTable

	// Handlers lists every on: entry in source order.
	Handlers []*EventHandler

	// Diagnostics lists the constructs absorbed by a fallback.
	Diagnostics Diagnostics
}

// A parser builds the Node tree from significant lines. The indent stack is the list of open
// frames; an element stays open while subsequent lines are indented deeper than its declaration.
type parser struct {
	// doc is the synthetic root.
	doc *Node
	// states collects state declarations.
	states *StateTable
	// handlers collects event handlers in source order.
	handlers []*EventHandler
	// oe is the stack of open frames, outermost first.
	oe frameStack
	// blocks counts the { markers still waiting for their }.
	blocks int
	// diags captures everything absorbed during parsing.
	diags Diagnostics
}

// Parse builds the element tree for NML source. It never fails: unrecognized lines, malformed
// attributes and unsupported statements are reported in Tree.Diagnostics and otherwise skipped
// or passed through.
func Parse(src string) *Tree {
	p := &parser{
		doc:    &Node{Type: html.DocumentNode},
		states: NewStateTable(),
	}

	for _, l := range Tokenize(src) {
		p.parseLine(l)
	}

	// close what is still open
	p.oe = p.oe[:0]

	p.checkRefs(p.doc)

	return &Tree{
		Root:        p.doc,
		States:      p.states,
		Handlers:    p.handlers,
		Diagnostics: p.diags,
	}
}

// top returns the innermost open element, or the root if nothing is open.
func (p *parser) top() *Node {
	if f := p.oe.top(); f != nil && f.node != nil {
		return f.node
	}
	return p.doc
}

// openAfter returns the stack depth remaining once every frame declared at or beyond indent is
// closed. The stack itself is not changed.
func (p *parser) openAfter(indent int) int {
	n := len(p.oe)
	for n > 0 && p.oe[n-1].indent >= indent {
		n--
	}
	return n
}

// closeScopes pops frames until only depth frames remain.
func (p *parser) closeScopes(depth int) {
	for len(p.oe) > depth {
		p.oe.pop()
	}
}

func (p *parser) parseLine(l SourceLine) {
	depth := p.openAfter(l.Indent)

	// lines within a style block are declarations of the enclosing element
	if depth > 0 && p.oe[depth-1].style {
		p.closeScopes(depth)
		p.parseStyleLine(p.oe[depth-1].node, l)
		return
	}

	text := l.Text

	switch {
	case isCloseMarker(text):
		p.closeBlocks(l)

	case strings.HasPrefix(text, "state ") || strings.HasPrefix(text, "state\t"):
		name, init, ok := parseStateDecl(text)
		if !ok {
			p.error(l.Pos, SeverityError, fmt.Errorf("%w: %s", errUnrecognizedLine, text))
			return
		}
		if c := name[0]; !isLower(c) && c != '_' {
			p.error(l.Pos, SeverityError, fmt.Errorf("%w: %s", errStateName, name))
			return
		}
		p.closeScopes(depth)
		if replaced := p.states.Declare(name, init, l.Pos); replaced {
			p.error(l.Pos, SeverityWarning, fmt.Errorf("%w: %s", errDuplicateState, name))
		}

	case styleBlockRegex.MatchString(text):
		p.closeScopes(depth)
		p.addStyleBlock(l)

	case text[0] == '"' || text[0] == '\'':
		tl, ok := scanTextLine(text)
		if !ok {
			p.error(l.Pos, SeverityError, fmt.Errorf("%w: %s", errUnrecognizedLine, text))
			return
		}
		p.closeScopes(depth)
		p.addTextLine(l, tl)

	default:
		tl, ok := scanTagLine(text)
		if !ok {
			p.error(l.Pos, SeverityError, fmt.Errorf("%w: %s", errUnrecognizedLine, text))
			return
		}
		p.closeScopes(depth)
		p.addElement(l, tl)
	}
}

// addElement creates an element for a tag line, attaches it to the innermost open element and
// makes it the new innermost frame.
func (p *parser) addElement(l SourceLine, tl tagLine) {
	n := newElement(tl.tag, l.Pos)

	for _, c := range tl.classes {
		n.AddClass(c)
	}
	if tl.id != "" {
		n.SetAttr("id", tl.id)
	}

	if tl.hasAttrs {
		pos := l.Pos.advance(utf8.RuneCountInString(l.Text[:tl.attrsOffset]))
		if !tl.attrsClosed {
			p.error(pos, SeverityError, errUnterminatedAttrs)
		}
		p.parseAttrs(n, tl.attrs, pos)
	}

	if n.DataAtom == atom.Plaintext {
		p.error(l.Pos, SeverityWarning, fmt.Errorf("%w: <%s>", errPlaintext, n.Data))
	}

	n.Text = tl.text
	n.Bind = tl.bind
	if n.isVoid() && (tl.hasText || tl.bind != "") {
		p.error(l.Pos, SeverityWarning, fmt.Errorf("%w: <%s>", errVoidContent, n.Data))
	}

	p.appendChild(n, l.Pos)
	p.oe.push(frame{indent: l.Indent, node: n})

	if tl.block {
		p.blocks++
	}
}

// addTextLine attaches a text child to the innermost open element. Text lines open no frame.
func (p *parser) addTextLine(l SourceLine, tl textLine) {
	n := &Node{
		Type: html.TextNode,
		Data: tl.text,
		Bind: tl.bind,
		Pos:  l.Pos,
	}
	p.appendChild(n, l.Pos)
}

func (p *parser) appendChild(n *Node, pos Pos) {
	parent := p.top()
	if parent.Type == html.ElementNode && parent.isVoid() {
		p.error(pos, SeverityWarning, fmt.Errorf("%w: <%s>", errVoidContent, parent.Data))
	}
	parent.AppendChild(n)
}

// addStyleBlock opens a style frame for the innermost open element. The single-line form
// `style { a: "x"; b: "y" }` is applied immediately and opens a frame as well, so that stray
// declarations indented below it are still captured.
func (p *parser) addStyleBlock(l SourceLine) {
	m := styleBlockRegex.FindStringSubmatch(l.Text)
	inline := strings.HasSuffix(l.Text, "}")

	var target *Node
	if f := p.oe.top(); f != nil && f.node != nil {
		target = f.node
	} else {
		p.error(l.Pos, SeverityError, errOrphanStyle)
	}

	if inline {
		props, bad := parseStyleDecls(m[1])
		if target != nil {
			target.addStyle(props...)
		}
		for _, b := range bad {
			p.error(l.Pos, SeverityError, fmt.Errorf("%w %q", errMalformedStyle, b))
		}
	} else {
		p.blocks++
	}

	p.oe.push(frame{indent: l.Indent, node: target, style: true})
}

// parseStyleLine handles a line nested inside a style block.
func (p *parser) parseStyleLine(target *Node, l SourceLine) {
	if isCloseMarker(l.Text) {
		p.closeBlocks(l)
		return
	}

	props, bad := parseStyleDecls(l.Text)
	for _, b := range bad {
		p.error(l.Pos, SeverityError, fmt.Errorf("%w %q", errMalformedStyle, b))
	}
	if target != nil {
		target.addStyle(props...)
	}
}

// closeBlocks matches the } markers on a line against open { markers. Block markers carry no
// structure: nesting comes from indentation alone.
func (p *parser) closeBlocks(l SourceLine) {
	for _, c := range l.Text {
		if c != '}' {
			continue
		}
		if p.blocks == 0 {
			p.error(l.Pos, SeverityWarning, errUnmatchedClose)
			return
		}
		p.blocks--
	}
}

// checkRefs reports bindings and handlers naming states that were never declared.
func (p *parser) checkRefs(n *Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Bind != "" && !p.states.Has(c.Bind) {
			p.error(c.Pos, SeverityWarning, fmt.Errorf("%w %q: rendered as text", errUndeclaredState, c.Bind))
		}
		p.checkRefs(c)
	}
	if n != p.doc {
		return
	}
	for _, h := range p.handlers {
		if h.Compiled() && !p.states.Has(h.Stmt.Target) {
			p.error(h.Pos, SeverityWarning, fmt.Errorf("%w %q in on %s handler", errUndeclaredState, h.Stmt.Target, h.Event))
		}
	}
}

func (p *parser) error(pos Pos, sev Severity, err error) {
	p.diags = append(p.diags, &Diagnostic{Pos: pos, Severity: sev, Msg: err.Error(), err: err})
}

// isCloseMarker reports whether the line consists of } markers only.
func isCloseMarker(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '}' && !isSpace(s[i]) {
			return false
		}
	}
	return s != ""
}

// tagLine is the lexical breakdown of a tag line:
//
//	tag(.class|#id)* [(attrs)] ["text"] [binding] [{ | {}]
type tagLine struct {
	tag         string
	classes     []string
	id          string
	attrs       string
	hasAttrs    bool
	attrsClosed bool
	attrsOffset int
	text        string
	hasText     bool
	bind        string
	block       bool
}

// scanTagLine scans s against the tag grammar. The whole line must be consumed.
func scanTagLine(s string) (tagLine, bool) {
	var tl tagLine

	i := scanTagName(s, 0)
	if i == 0 {
		return tl, false
	}
	tl.tag = s[:i]

	// class and id shorthand, resolved before the attribute list
	for i < len(s) && (s[i] == '.' || s[i] == '#') {
		j := scanWhile(s, i+1, isNameByte)
		if j == i+1 {
			return tl, false
		}
		if s[i] == '.' {
			tl.classes = append(tl.classes, s[i+1:j])
		} else {
			tl.id = s[i+1 : j]
		}
		i = j
	}

	if i < len(s) && s[i] == '(' {
		tl.hasAttrs = true
		tl.attrsOffset = i
		if end := scanParenList(s, i); end >= 0 {
			tl.attrs = s[i+1 : end]
			tl.attrsClosed = true
			i = end + 1
		} else {
			tl.attrs = s[i+1:]
			i = len(s)
		}
	}

	i = skipSpaces(s, i)
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		end := scanQuoted(s, i)
		if end < 0 {
			return tl, false
		}
		tl.text = unquote(s[i:end])
		tl.hasText = true
		i = skipSpaces(s, end)
	}

	if j := scanBareIdent(s, i); j > i {
		tl.bind = s[i:j]
		i = skipSpaces(s, j)
	}

	if i < len(s) && s[i] == '{' {
		i = skipSpaces(s, i+1)
		if i < len(s) && s[i] == '}' {
			i = skipSpaces(s, i+1)
		} else {
			tl.block = true
		}
	}

	return tl, i == len(s)
}

// textLine is a quoted literal on its own line, optionally followed by a binding.
type textLine struct {
	text string
	bind string
}

func scanTextLine(s string) (textLine, bool) {
	var tl textLine
	end := scanQuoted(s, 0)
	if end < 0 {
		return tl, false
	}
	tl.text = unquote(s[:end])

	i := skipSpaces(s, end)
	if j := scanBareIdent(s, i); j > i {
		tl.bind = s[i:j]
		i = skipSpaces(s, j)
	}
	return tl, i == len(s)
}
