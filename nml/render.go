package nml

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// markerAttr marks placeholders bound to a state; the value is the state name.
	markerAttr = "data-bind"
	// handlerAttr marks elements with compiled event handlers; the value is the handler id.
	handlerAttr = "data-on"
)

// styleReset is the stylesheet of every generated document.
const styleReset = `*{margin:0;padding:0;box-sizing:border-box}` +
	`body{font-family:sans-serif}` +
	`a,button,[` + handlerAttr + `]{cursor:pointer}`

// Compile transpiles NML source into a self-contained HTML document. It is a pure function:
// equal inputs produce equal outputs and nothing outside the call is touched.
func Compile(src string) string {
	return Generate(Parse(src))
}

// Generate renders the tree as an HTML document with a style reset, the element markup and the
// runtime script. It never fails; an empty tree renders as a document with an empty body.
func Generate(t *Tree) string {
	doc, _ := generate(t)
	return doc
}

// generator walks the Node tree and produces the html.Node tree of the document body.
type generator struct {
	states *StateTable
	script *scriptBuilder
	// nextID is the id of the next element with compiled handlers.
	nextID int
}

func generate(t *Tree) (string, *scriptBuilder) {
	if t == nil {
		t = &Tree{Root: &Node{Type: html.DocumentNode}, States: NewStateTable()}
	}

	g := &generator{
		states: t.States,
		script: newScriptBuilder(t.States),
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := newHTMLElement(atom.Html)
	doc.AppendChild(root)

	head := newHTMLElement(atom.Head)
	root.AppendChild(head)
	meta := newHTMLElement(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	style := newHTMLElement(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: styleReset})
	head.AppendChild(style)

	body := newHTMLElement(atom.Body)
	root.AppendChild(body)

	if t.Root != nil {
		g.renderChildren(body, t.Root)
	}

	if s := g.script.String(); s != "" {
		script := newHTMLElement(atom.Script)
		script.AppendChild(&html.Node{Type: html.TextNode, Data: s})
		body.AppendChild(script)
	}

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		// unreachable with a strings.Builder and no void element content, keep the empty shell
		return emptyDocument, g.script
	}
	return b.String(), g.script
}

// emptyDocument is what Generate returns for a tree without elements or state.
const emptyDocument = `<!DOCTYPE html><html><head><meta charset="utf-8"/><style>` + styleReset +
	`</style></head><body></body></html>`

func newHTMLElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func (g *generator) renderChildren(dst *html.Node, n *Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			g.renderElement(dst, c)
		case html.TextNode:
			g.renderContent(dst, c.Data, c.Bind)
		}
	}
}

// renderElement emits n and its content in pre-order. Content of void elements is emitted as
// following siblings.
func (g *generator) renderElement(dst *html.Node, n *Node) {
	el := &html.Node{
		Type:     html.ElementNode,
		DataAtom: n.DataAtom,
		Data:     n.Data,
	}
	if el.DataAtom == atom.Plaintext {
		// the HTML serializer stops at <plaintext>, dropping everything after it
		el.DataAtom, el.Data = atom.Pre, atom.Pre.String()
	}
	el.Attr = g.renderAttrs(n)
	dst.AppendChild(el)

	content := el
	if n.isVoid() {
		content = dst
	}

	g.renderContent(content, n.Text, n.Bind)
	g.renderChildren(content, n)
}

func (g *generator) renderAttrs(n *Node) []html.Attribute {
	var attrs []html.Attribute

	if len(n.Classes) > 0 {
		attrs = append(attrs, html.Attribute{Key: "class", Val: strings.Join(n.Classes, " ")})
	}
	for _, a := range n.Attr {
		attrs = setHTMLAttr(attrs, a.Key, a.Val)
	}
	if len(n.Style) > 0 {
		attrs = setHTMLAttr(attrs, "style", styleAttr(n.Style))
	}

	compiled := false
	for _, h := range n.Events {
		if !h.Compiled() {
			// best effort: the browser evaluates the statement as a native handler
			attrs = appendHTMLAttr(attrs, "on"+h.Event, h.Stmt.Raw)
			continue
		}
		if !compiled {
			attrs = setHTMLAttr(attrs, handlerAttr, strconv.Itoa(g.nextID))
			compiled = true
		}
		g.script.addHandler(g.nextID, h.Event, h.Stmt)
	}
	if compiled {
		g.nextID++
	}

	return attrs
}

// renderContent emits literal text followed by the placeholder for a binding. A binding to an
// undeclared name renders the name as text.
func (g *generator) renderContent(dst *html.Node, text, bind string) {
	if text != "" {
		dst.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	if bind == "" {
		return
	}
	if !g.states.Has(bind) {
		dst.AppendChild(&html.Node{Type: html.TextNode, Data: bind})
		return
	}
	span := newHTMLElement(atom.Span)
	span.Attr = []html.Attribute{{Key: markerAttr, Val: bind}}
	dst.AppendChild(span)
	g.script.addPlaceholder(bind)
}

// setHTMLAttr sets key to val, replacing an existing value in place.
func setHTMLAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: val})
}

// appendHTMLAttr joins val to an existing script attribute with "; ".
func appendHTMLAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val += "; " + val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: val})
}
