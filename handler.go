package playground

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dpotapov/go-nml/nml"

	"github.com/gorilla/websocket"
)

const (
	// defaultQuietPeriod is how long the session waits after the last edit before compiling.
	defaultQuietPeriod = 800 * time.Millisecond

	// defaultMaxSourceBytes bounds the size of a source accepted from a client.
	defaultMaxSourceBytes = 1 << 20

	// diagnosticsHeader carries the number of diagnostics of a one-shot compile.
	diagnosticsHeader = "X-NML-Diagnostics"
)

// Handler serves the NML playground: an editor page with a live preview, a one-shot compile
// endpoint and the WebSocket session that recompiles the source as the user types.
//
//	GET  /   the playground page
//	POST /   compile the request body and respond with the document
//	WS   /   live preview session
type Handler struct {
	// Source is the initial content of the editor. If empty, a counter demo is used.
	Source string

	// QuietPeriod is the time the session waits after the last edit before compiling the
	// latest source. Edits arriving within the period supersede the pending one.
	// Defaults to 800ms.
	QuietPeriod time.Duration

	// MaxSourceBytes limits the size of sources accepted by POST requests and session
	// messages. Defaults to 1 MiB.
	MaxSourceBytes int64

	// CheckOrigin is passed to the WebSocket upgrader. If nil, only same-origin sessions are
	// accepted.
	CheckOrigin func(*http.Request) bool

	// OnError is a callback that is called when an error occurs while serving a request or
	// when a compile had to be aborted.
	OnError func(*http.Request, error)

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// init is used to initialize the handler only once.
	init sync.Once

	// logger is a private logger instance that is used to log internal events.
	logger *slog.Logger

	// upgrader responds to session requests with a WebSocket.
	upgrader websocket.Upgrader
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.init.Do(func() {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		if h.Logger != nil {
			h.logger = h.Logger
		}
		h.upgrader = websocket.Upgrader{CheckOrigin: h.CheckOrigin}
	})

	var err error
	if websocket.IsWebSocketUpgrade(r) {
		// the connection is hijacked, errors cannot be reported to the client
		err = h.serveSession(w, r)
	} else if err = h.handleRequest(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	if err != nil {
		h.logger.Error("Serve HTTP request", "url", r.URL.Redacted(), "error", err)

		if h.OnError != nil {
			h.OnError(r, err)
		}
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return h.servePage(w, r)
	case http.MethodPost:
		return h.serveCompile(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return nil
	}
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) error {
	src := h.source()
	res, err := h.compile(src)
	if err != nil {
		h.reportCompileError(r, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return nil
	}
	if err := page(src, res.Document).Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func (h *Handler) serveCompile(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxSourceBytes()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return nil
		}
		return fmt.Errorf("read request body: %w", err)
	}

	res, err := h.compile(string(body))
	if err != nil {
		h.reportCompileError(r, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(diagnosticsHeader, strconv.Itoa(len(res.Diagnostics)))
	if _, err := io.WriteString(w, res.Document); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// result is the outcome of compiling one source snapshot.
type result struct {
	Document    string
	Diagnostics nml.Diagnostics
}

// compileTree builds the document for src. It is a variable so tests can make it fail.
var compileTree = func(src string) (*nml.Tree, string) {
	t := nml.Parse(src)
	return t, nml.Generate(t)
}

// compile runs the compiler in a recover boundary. If the compiler panics, the error is returned
// along with a document describing it, so a live session keeps going.
func (h *Handler) compile(src string) (res result, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("compile source: panic: %v", v)
			res = result{Document: errorDocument(err)}
		}
	}()

	t, doc := compileTree(src)
	return result{Document: doc, Diagnostics: t.Diagnostics}, nil
}

func (h *Handler) reportCompileError(r *http.Request, err error) {
	h.logger.Error("Compile source", "url", r.URL.Redacted(), "error", err)
	if h.OnError != nil {
		h.OnError(r, err)
	}
}

func (h *Handler) source() string {
	if h.Source != "" {
		return h.Source
	}
	return DefaultSource
}

func (h *Handler) quietPeriod() time.Duration {
	if h.QuietPeriod > 0 {
		return h.QuietPeriod
	}
	return defaultQuietPeriod
}

func (h *Handler) maxSourceBytes() int64 {
	if h.MaxSourceBytes > 0 {
		return h.MaxSourceBytes
	}
	return defaultMaxSourceBytes
}
