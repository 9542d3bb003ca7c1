package playground

import (
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// DefaultSource is the editor content when Handler.Source is empty.
const DefaultSource = `state count = 0
state name = "NML User"

div.container {
  style {
    padding: "20px"
    background_color: "#f8f9fa"
    border_radius: "8px"
    text_align: "center"
  }

  h2 "Hello, " name
  p "Count: " count

  div.buttons {
    style { margin_top: "20px" }

    button(on: click { count.value += 1 }) {
      style {
        background_color: "#42b983"
        color: "white"
        border: "none"
        padding: "8px 16px"
        border_radius: "4px"
        margin_right: "10px"
      }
      "Increment"
    }

    button(on: click { count.value = 0 }) {
      style {
        background_color: "#e74c3c"
        color: "white"
        border: "none"
        padding: "8px 16px"
        border_radius: "4px"
      }
      "Reset"
    }
  }
}
`

const pageStyle = `*{box-sizing:border-box}` +
	`body{margin:0;font-family:sans-serif;display:flex;flex-direction:column;height:100vh}` +
	`header{padding:8px 16px;background:#222;color:#eee}` +
	`main{flex:1;display:flex;min-height:0}` +
	`#source{flex:1;font-family:monospace;font-size:14px;padding:12px;border:0;resize:none}` +
	`#preview{flex:1;border:0;border-left:1px solid #ccc}` +
	`#diagnostics{margin:0;padding:8px 16px;max-height:8em;overflow:auto;background:#fff8e1;font-size:12px}` +
	`#diagnostics:empty{display:none}`

// pageScript speaks the session protocol: every edit sends the source, every document message
// replaces the preview.
const pageScript = `
(function () {
  var source = document.getElementById("source");
  var preview = document.getElementById("preview");
  var diagnostics = document.getElementById("diagnostics");
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(scheme + location.host + location.pathname);

  function send() {
    if (ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify({source: source.value}));
    }
  }

  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    preview.srcdoc = msg.document;
    diagnostics.textContent = msg.diagnostics.map(function (d) {
      return d.line + ":" + d.column + ": " + d.severity + ": " + d.message;
    }).join("\n");
  };
  ws.onclose = function () {
    diagnostics.textContent = "disconnected";
  };
  source.addEventListener("input", send);
})();
`

// page renders the playground for the initial source and its compiled document. The preview is
// sandboxed: scripts run, but without same-origin access or top-level navigation.
func page(src, doc string) g.Node {
	return Doctype(
		HTML(Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				g.El("title", g.Text("NML Playground")),
				g.El("style", g.Raw(pageStyle)),
			),
			Body(
				Header(g.Text("NML Playground")),
				Main(
					Textarea(ID("source"), g.Attr("spellcheck", "false"), g.Text(src)),
					IFrame(ID("preview"), g.Attr("sandbox", "allow-scripts"), g.Attr("srcdoc", doc)),
				),
				Pre(ID("diagnostics")),
				Script(g.Raw(pageScript)),
			),
		),
	)
}

// errorDocument is the preview shown when a compile was aborted.
func errorDocument(err error) string {
	var b strings.Builder
	_ = Doctype(
		HTML(
			Head(Meta(Charset("utf-8"))),
			Body(
				H1(g.Text("Compile failed")),
				Pre(g.Text(err.Error())),
			),
		),
	).Render(&b)
	return b.String()
}
