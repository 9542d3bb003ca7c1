package nml

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// Dump renders the tree under n as indented XML. Elements keep their tag names; literal text
// and bindings become the text and bind attributes; handlers and text lines appear as nml:on
// and nml:text children. The output is deterministic and meant for tests and debugging.
func Dump(n *Node) string {
	if n == nil {
		return ""
	}

	doc := etree.NewDocument()
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			dumpNode(&doc.Element, c)
		}
	} else {
		dumpNode(&doc.Element, n)
	}

	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

func dumpNode(dst *etree.Element, n *Node) {
	switch n.Type {
	case html.TextNode:
		el := dst.CreateElement("nml:text")
		if n.Bind != "" {
			el.CreateAttr("bind", n.Bind)
		}
		el.SetText(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	el := dst.CreateElement(n.Data)
	if len(n.Classes) > 0 {
		el.CreateAttr("class", strings.Join(n.Classes, " "))
	}
	for _, a := range n.Attr {
		el.CreateAttr(a.Key, a.Val)
	}
	if len(n.Style) > 0 {
		el.CreateAttr("style", styleAttr(n.Style))
	}
	if n.Text != "" {
		el.CreateAttr("text", n.Text)
	}
	if n.Bind != "" {
		el.CreateAttr("bind", n.Bind)
	}

	for _, h := range n.Events {
		on := el.CreateElement("nml:on")
		on.CreateAttr("event", h.Event)
		on.CreateAttr("kind", h.Stmt.Kind.String())
		switch h.Stmt.Kind {
		case StmtAssign:
			on.CreateAttr("target", h.Stmt.Target)
			on.CreateAttr("value", h.Stmt.Literal)
		case StmtIncrement, StmtDecrement:
			on.CreateAttr("target", h.Stmt.Target)
			on.CreateAttr("delta", strconv.Itoa(h.Stmt.Delta))
		default:
			on.SetText(h.Stmt.Raw)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		dumpNode(el, c)
	}
}
