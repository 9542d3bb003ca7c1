package nml

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is an element of the parsed NML tree. The synthetic root has type html.DocumentNode and
// owns the top-level elements. Text children (quoted lines inside a block) are html.TextNode.
type Node struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node

	Type     html.NodeType
	DataAtom atom.Atom
	// Data is the tag name for elements and the literal for text nodes.
	Data string

	// Classes is the ordered set of class names from the .class shorthand and the class
	// attribute.
	Classes []string

	// Attr is the list of literal attributes, in source order. A repeated key replaces the
	// earlier value in place.
	Attr []Attribute

	// Events are the on: entries compiled for this element.
	Events []*EventHandler

	// Style holds declarations collected from style blocks and the style attribute.
	Style []StyleProperty

	// Text is the quoted literal following the tag head.
	Text string

	// Bind is the trailing bare identifier referring to a state variable.
	Bind string

	// Pos is the location of the declaration line.
	Pos Pos
}

type Attribute struct {
	Key string
	Val string
}

// StyleProperty is a single CSS declaration with a kebab-case name.
type StyleProperty struct {
	Name  string
	Value string
}

func newElement(tag string, pos Pos) *Node {
	return &Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Pos:      pos,
	}
}

// AppendChild adds a node c as a child of n.
//
// It will panic if c already has a parent or siblings.
func (n *Node) AppendChild(c *Node) {
	if c.Parent != nil || c.PrevSibling != nil || c.NextSibling != nil {
		panic("nml: AppendChild called for an attached child Node")
	}
	last := n.LastChild
	if last != nil {
		last.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
	c.Parent = n
	c.PrevSibling = last
}

// Children returns the direct children of n in order.
func (n *Node) Children() []*Node {
	var cc []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cc = append(cc, c)
	}
	return cc
}

// AddClass adds a class name unless it is already present.
func (n *Node) AddClass(name string) {
	for _, c := range n.Classes {
		if c == name {
			return
		}
	}
	n.Classes = append(n.Classes, name)
}

// SetAttr sets the attribute key to val. An existing key keeps its position.
func (n *Node) SetAttr(key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
}

// GetAttr returns the value of the attribute key.
func (n *Node) GetAttr(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// isVoid reports whether the element cannot have content in HTML.
func (n *Node) isVoid() bool {
	switch n.DataAtom {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img, atom.Input,
		atom.Keygen, atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

// frame is an open element on the parser's indent stack.
type frame struct {
	indent int
	node   *Node
	// style is set for a style block; lines inside it are declarations for node.
	style bool
}

// frameStack is a stack of open frames, outermost first.
type frameStack []frame

func (s *frameStack) push(f frame) {
	*s = append(*s, f)
}

// pop pops the stack. It will panic if the stack is empty.
func (s *frameStack) pop() frame {
	i := len(*s)
	f := (*s)[i-1]
	*s = (*s)[:i-1]
	return f
}

// top returns the most recently pushed frame, or nil if the stack is empty.
func (s *frameStack) top() *frame {
	if i := len(*s); i > 0 {
		return &(*s)[i-1]
	}
	return nil
}
