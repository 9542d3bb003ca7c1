package nml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseDocument(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

// findAll returns the elements of type a under n in document order.
func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findOne(t *testing.T, n *html.Node, a atom.Atom) *html.Node {
	t.Helper()
	found := findAll(n, a)
	require.Len(t, found, 1, "<%s> elements", a)
	return found[0]
}

func attrOf(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// childTags lists the element and text children of n as tag names and #text.
func childTags(n *html.Node) []string {
	var tags []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			tags = append(tags, c.Data)
		case html.TextNode:
			tags = append(tags, "#text")
		}
	}
	return tags
}

func scriptOf(t *testing.T, doc *html.Node) string {
	t.Helper()
	return textOf(findOne(t, doc, atom.Script))
}

func TestCompile_Empty(t *testing.T) {
	for _, src := range []string{"", "\n\n", "// only a comment\n   \n"} {
		require.Equal(t, emptyDocument, Compile(src))
	}

	doc := parseDocument(t, Compile(""))
	body := findOne(t, doc, atom.Body)
	require.Nil(t, body.FirstChild)
	require.Empty(t, findAll(doc, atom.Script))
}

func TestCompile_DocumentShell(t *testing.T) {
	out := Compile(`p "x"`)
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))

	doc := parseDocument(t, out)
	meta := findOne(t, doc, atom.Meta)
	charset, _ := attrOf(meta, "charset")
	require.Equal(t, "utf-8", charset)
	require.Equal(t, styleReset, textOf(findOne(t, doc, atom.Style)))

	// static documents carry no runtime
	require.Empty(t, findAll(doc, atom.Script))
	require.Equal(t, "x", textOf(findOne(t, doc, atom.P)))
}

func TestCompile_Deterministic(t *testing.T) {
	sources := []string{
		"",
		"state count = 0\nbutton(on: click { count.value += 1 }) \"Add\"\np count",
		"div.a#b(title: \"t\") {\n  style { color: \"red\" }\n  \"text\"\n}",
		"}\n??? \ndiv(on: click { x.value = 1, y",
	}
	for _, src := range sources {
		require.Equal(t, Compile(src), Compile(src))
	}
}

func TestCompile_Balanced(t *testing.T) {
	src := `div.page {
  header {
    h1 "Title"
    nav {
      a(href: "/") "Home"
      a(href: "/about") "About"
    }
  }
  section
    p "one"
      em "nested"
    p "two"
  footer
}`
	out := Compile(src)

	open := map[string]int{}
	z := html.NewTokenizer(strings.NewReader(out))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		name, _ := z.TagName()
		switch tt {
		case html.StartTagToken:
			open[string(name)]++
		case html.EndTagToken:
			open[string(name)]--
		}
	}
	for tag, n := range open {
		require.Zero(t, n, "unbalanced <%s>", tag)
	}
}

func TestCompile_Binding(t *testing.T) {
	out := Compile("state count = 0\ndiv\n  p count")
	doc := parseDocument(t, out)

	div := findOne(t, doc, atom.Div)
	p := findOne(t, div, atom.P)
	span := findOne(t, p, atom.Span)

	name, ok := attrOf(span, markerAttr)
	require.True(t, ok)
	require.Equal(t, "count", name)
	require.Nil(t, span.FirstChild)

	script := scriptOf(t, doc)
	require.Contains(t, script, `state["count"] = 0;`)
	require.Equal(t, 1, strings.Count(script, `refresh("count");`))
}

func TestCompile_StateCompleteness(t *testing.T) {
	src := `state a = 1
state b = "two"
state c = [1, 2, 3]
state a = 4
p a`
	script := scriptOf(t, parseDocument(t, Compile(src)))

	for _, name := range []string{"a", "b", "c"} {
		require.Equal(t, 1, strings.Count(script, `state["`+name+`"] = `), name)
		require.Equal(t, 1, strings.Count(script, `refresh("`+name+`");`), name)
	}
	require.Contains(t, script, `state["a"] = 4;`)
	require.Contains(t, script, `state["c"] = [1, 2, 3];`)
}

func TestCompile_UndeclaredBinding(t *testing.T) {
	doc := parseDocument(t, Compile("p missing"))

	p := findOne(t, doc, atom.P)
	require.Equal(t, "missing", textOf(p))
	require.Empty(t, findAll(doc, atom.Span))
}

func TestCompile_TextAndBinding(t *testing.T) {
	doc := parseDocument(t, Compile("state name = \"NML\"\nh1 \"Hello, \" name"))

	h1 := findOne(t, doc, atom.H1)
	require.Equal(t, []string{"#text", "span"}, childTags(h1))
	require.Equal(t, "Hello, ", textOf(h1))
}

func TestCompile_Handlers(t *testing.T) {
	src := `state count = 0
div {
  button(on: click { count.value += 1 }, on: dblclick { count.value = 0 }) "Add"
  button(on: click { count.value -= 1 }) "Sub"
  button(on: click { alert('hi') }) "Hi"
}`
	doc := parseDocument(t, Compile(src))
	buttons := findAll(doc, atom.Button)
	require.Len(t, buttons, 3)

	id, ok := attrOf(buttons[0], handlerAttr)
	require.True(t, ok)
	require.Equal(t, "0", id)
	id, ok = attrOf(buttons[1], handlerAttr)
	require.True(t, ok)
	require.Equal(t, "1", id)

	// raw statements are passed through as native handlers
	_, ok = attrOf(buttons[2], handlerAttr)
	require.False(t, ok)
	onclick, ok := attrOf(buttons[2], "onclick")
	require.True(t, ok)
	require.Equal(t, "alert('hi')", onclick)

	script := scriptOf(t, doc)
	require.Contains(t, script, `on(0, "click", function () { update("count", state["count"] + 1); });`)
	require.Contains(t, script, `on(0, "dblclick", function () { update("count", 0); });`)
	require.Contains(t, script, `on(1, "click", function () { update("count", state["count"] - 1); });`)
}

func TestCompile_Attributes(t *testing.T) {
	src := `a#home.nav(href: "/home", class: "active", style: "color: red") {
  style {
    font_weight: "bold"
  }
  "Home"
}`
	doc := parseDocument(t, Compile(src))
	a := findOne(t, doc, atom.A)

	want := map[string]string{
		"class": "nav active",
		"id":    "home",
		"href":  "/home",
		"style": "color: red; font-weight: bold",
	}
	for k, v := range want {
		got, ok := attrOf(a, k)
		require.True(t, ok, k)
		require.Equal(t, v, got, k)
	}
	require.Equal(t, "Home", textOf(a))
}

func TestCompile_VoidContent(t *testing.T) {
	src := `div
  input(type: "text") "label"
    span "after"`
	doc := parseDocument(t, Compile(src))

	div := findOne(t, doc, atom.Div)
	require.Equal(t, []string{"input", "#text", "span"}, childTags(div))
	require.Nil(t, findOne(t, div, atom.Input).FirstChild)
}

func TestCompile_ScriptEscaping(t *testing.T) {
	doc := parseDocument(t, Compile(`state s = "</script><b>x</b>"
p s`))

	require.Empty(t, findAll(doc, atom.B))
	script := scriptOf(t, doc)
	require.Contains(t, script, `<\/script>`)
	require.NotContains(t, script, "</script>")
}

func TestCompile_GracefulDegradation(t *testing.T) {
	src := `}
div
  p "a"
  ??? not a line
}
span "b"
section(on: click { x.value = 1, title: "t"`
	out := Compile(src)
	doc := parseDocument(t, out)

	body := findOne(t, doc, atom.Body)
	require.Equal(t, []string{"div", "span", "section"}, childTags(body))
	require.Equal(t, "a", textOf(findOne(t, doc, atom.P)))
	require.Equal(t, "b", textOf(findOne(t, doc, atom.Span)))

	require.NotEmpty(t, Parse(src).Diagnostics)
}

func TestGenerate_NilTree(t *testing.T) {
	require.Equal(t, emptyDocument, Generate(nil))
}

func TestCompile_StringLiteralEncoding(t *testing.T) {
	src := "state s = \"\"\nbutton(on: click { s.value = \"\\a\U000e0001</b>\" })\np s"
	script := scriptOf(t, parseDocument(t, Compile(src)))

	require.Contains(t, script, `update("s", "\u0007`+"\U000e0001"+`\u003c/b\u003e");`)
	require.NotContains(t, script, `\U000e0001`)
}

func TestCompile_ReservedAttrs(t *testing.T) {
	src := "state n = 0\ndiv(DATA-ON: \"0\", data-bind: \"n\", title: \"t\")\nbutton(on: click { n.value += 1 }) \"Add\""
	require.Len(t, Parse(src).Diagnostics, 2)

	doc := parseDocument(t, Compile(src))

	div := findOne(t, doc, atom.Div)
	_, ok := attrOf(div, handlerAttr)
	require.False(t, ok)
	_, ok = attrOf(div, markerAttr)
	require.False(t, ok)
	title, _ := attrOf(div, "title")
	require.Equal(t, "t", title)

	id, ok := attrOf(findOne(t, doc, atom.Button), handlerAttr)
	require.True(t, ok)
	require.Equal(t, "0", id)
}

func TestCompile_Plaintext(t *testing.T) {
	out := Compile("state n = 0\nplaintext \"x\"\np \"after\"\nbutton(on: click { n.value += 1 }) \"Add\"")
	require.NotContains(t, out, "<plaintext")
	require.True(t, strings.HasSuffix(strings.TrimSpace(out), "</html>"))

	doc := parseDocument(t, out)
	require.Equal(t, []string{"pre", "p", "button", "script"}, childTags(findOne(t, doc, atom.Body)))
	require.Equal(t, "x", textOf(findOne(t, doc, atom.Pre)))
	require.Equal(t, "after", textOf(findOne(t, doc, atom.P)))
}
