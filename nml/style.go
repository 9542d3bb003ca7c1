package nml

import (
	"regexp"
	"strings"

	"github.com/fatih/camelcase"
)

// styleDeclRegex matches a single `<name>: <value>` declaration inside a style block.
var styleDeclRegex = regexp.MustCompile(`^([A-Za-z_-][A-Za-z0-9_-]*)\s*:\s*(.+?)\s*;?$`)

// styleBlockRegex matches a style directive line: `style {`, `style {}` or
// `style { name: "value"; ... }`.
var styleBlockRegex = regexp.MustCompile(`^style\s*\{(?:(.*)\})?$`)

// cssPropertyName converts snake_case and camelCase property names to kebab-case:
// background_color and backgroundColor both become background-color.
func cssPropertyName(name string) string {
	var words []string
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' }) {
		for _, w := range camelcase.Split(part) {
			words = append(words, strings.ToLower(w))
		}
	}
	s := strings.Join(words, "-")
	if strings.HasPrefix(name, "-") {
		// vendor prefixes, e.g. -webkit-user-select
		s = "-" + s
	}
	return s
}

// parseStyleDecl parses a declaration such as `background_color: "#42b983"`.
func parseStyleDecl(s string) (StyleProperty, bool) {
	m := styleDeclRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return StyleProperty{}, false
	}
	v := unquoteValue(m[2])
	if v == "" || strings.ContainsAny(v, ";{}") {
		return StyleProperty{}, false
	}
	return StyleProperty{Name: cssPropertyName(m[1]), Value: v}, true
}

// parseStyleDecls parses a `;`-separated list of declarations. Malformed entries are returned
// separately.
func parseStyleDecls(s string) (props []StyleProperty, bad []string) {
	for _, d := range splitTopLevel(s, ';') {
		if strings.TrimSpace(d) == "" {
			continue
		}
		p, ok := parseStyleDecl(d)
		if !ok {
			bad = append(bad, strings.TrimSpace(d))
			continue
		}
		props = append(props, p)
	}
	return props, bad
}

// addStyle appends declarations to the element. A repeated property replaces the earlier value.
func (n *Node) addStyle(props ...StyleProperty) {
outer:
	for _, p := range props {
		for i := range n.Style {
			if n.Style[i].Name == p.Name {
				n.Style[i].Value = p.Value
				continue outer
			}
		}
		n.Style = append(n.Style, p)
	}
}

// styleAttr renders the style declarations as an inline style attribute value.
func styleAttr(props []StyleProperty) string {
	decls := make([]string, len(props))
	for i, p := range props {
		decls[i] = p.Name + ": " + p.Value
	}
	return strings.Join(decls, "; ")
}
