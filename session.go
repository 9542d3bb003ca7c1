package playground

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// SourceMessage is sent by the client whenever the editor content changes.
type SourceMessage struct {
	Source string `json:"source"`
}

// DocumentMessage is sent by the server for every compiled snapshot. Seq increases by one per
// message within a session.
type DocumentMessage struct {
	Seq         int                 `json:"seq"`
	Document    string              `json:"document"`
	Diagnostics []DiagnosticMessage `json:"diagnostics"`
}

type DiagnosticMessage struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func newDocumentMessage(seq int, res result) DocumentMessage {
	m := DocumentMessage{
		Seq:         seq,
		Document:    res.Document,
		Diagnostics: make([]DiagnosticMessage, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Diagnostics {
		m.Diagnostics = append(m.Diagnostics, DiagnosticMessage{
			Line:     d.Pos.Line,
			Column:   d.Pos.Column,
			Severity: d.Severity.String(),
			Message:  d.Msg,
		})
	}
	return m
}

// serveSession runs a live preview session. Sources received from the client are debounced by
// the quiet period and only the latest one is compiled and sent back. The session ends when the
// client closes the connection; a pending source is then discarded.
func (h *Handler) serveSession(w http.ResponseWriter, r *http.Request) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}
	defer ws.Close()

	// allow for JSON framing and escaping around the source
	ws.SetReadLimit(2*h.maxSourceBytes() + 1024)

	h.logger.Debug("Start session", "remote_addr", r.RemoteAddr)

	g, ctx := errgroup.WithContext(r.Context())
	sources := make(chan string) // editor content as received

	// reader: the only goroutine reading from ws
	g.Go(func() error {
		defer close(sources)
		for {
			var msg SourceMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					return nil
				}
				return fmt.Errorf("read websocket message: %w", err)
			}

			select {
			case sources <- msg.Source:
			case <-ctx.Done():
				return nil
			}
		}
	})

	// publisher: the only goroutine writing to ws
	seq := 0
	g.Go(func() error {
		err := Debounce(ctx, sources, h.quietPeriod(), func(src string) error {
			seq++
			return h.publish(ws, r, seq, src)
		})
		if err != nil {
			// unblock the reader
			_ = ws.Close()
		}
		return err
	})

	err = g.Wait()

	h.logger.Debug("End session", "remote_addr", r.RemoteAddr, "documents", seq)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// publish compiles src and sends the document to the client.
func (h *Handler) publish(ws *websocket.Conn, r *http.Request, seq int, src string) error {
	res, err := h.compile(src)
	if err != nil {
		h.reportCompileError(r, err)
	}

	h.logger.Debug("Publish document", "seq", seq, "diagnostics", len(res.Diagnostics))

	if err := ws.WriteJSON(newDocumentMessage(seq, res)); err != nil {
		return fmt.Errorf("write websocket message: %w", err)
	}
	return nil
}
