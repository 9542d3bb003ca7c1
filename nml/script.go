package nml

import (
	"strconv"
	"strings"
)

// scriptBuilder collects what the runtime needs while the markup is generated: the state
// record, the handler wirings and the placeholder markers. The script text is rendered once, at
// the end.
type scriptBuilder struct {
	states   []StateDeclaration
	handlers []handlerWiring
	markers  map[string]int // placeholders per state name
}

// handlerWiring is a compiled handler attached to the element marked with data-on="id".
type handlerWiring struct {
	id    int
	event string
	stmt  Statement
}

func newScriptBuilder(states *StateTable) *scriptBuilder {
	return &scriptBuilder{
		states:  states.Declarations(),
		markers: make(map[string]int),
	}
}

func (b *scriptBuilder) addPlaceholder(name string) {
	b.markers[name]++
}

func (b *scriptBuilder) addHandler(id int, event string, stmt Statement) {
	b.handlers = append(b.handlers, handlerWiring{id: id, event: event, stmt: stmt})
}

// empty reports whether the document needs no runtime at all.
func (b *scriptBuilder) empty() bool {
	return len(b.states) == 0 && len(b.handlers) == 0
}

const runtimePrelude = `
  function refresh(name) {
    var els = document.querySelectorAll('[` + markerAttr + `="' + name + '"]');
    for (var i = 0; i < els.length; i++) {
      els[i].textContent = state[name];
    }
  }

  function update(name, value) {
    state[name] = value;
    refresh(name);
  }

  function on(id, event, fn) {
    var el = document.querySelector('[` + handlerAttr + `="' + id + '"]');
    if (el) {
      el.addEventListener(event, fn);
    }
  }
`

// String renders the runtime script. Initializers are emitted exactly as declared.
func (b *scriptBuilder) String() string {
	if b.empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n(function () {\n  var state = {};\n")
	for _, d := range b.states {
		sb.WriteString("  " + stateRef(d.Name) + " = " + d.Init + ";\n")
	}

	sb.WriteString(runtimePrelude)

	if len(b.handlers) > 0 {
		sb.WriteString("\n")
	}
	for _, h := range b.handlers {
		sb.WriteString("  on(" + strconv.Itoa(h.id) + ", " + jsString(h.event) + ", function () { " +
			"update(" + jsString(h.stmt.Target) + ", " + h.stmt.ValueExpr() + "); });\n")
	}

	if len(b.states) > 0 {
		sb.WriteString("\n")
	}
	for _, d := range b.states {
		sb.WriteString("  refresh(" + jsString(d.Name) + ");\n")
	}
	sb.WriteString("})();\n")

	return escapeScript(sb.String())
}

var scriptEscaper = strings.NewReplacer("</", `<\/`, "<!--", `<\!--`)

// escapeScript keeps verbatim source from terminating the enclosing script element.
func escapeScript(s string) string {
	return scriptEscaper.Replace(s)
}
