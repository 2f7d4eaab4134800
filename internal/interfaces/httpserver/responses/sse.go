package responses

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrStreamClosed is returned once the client has disconnected.
var ErrStreamClosed = errors.New("event stream closed")

// SSEWriter writes `data: <json>` frames and flushes each one.
type SSEWriter struct {
	c      *gin.Context
	closed bool
}

// NewSSEWriter sets the event stream headers and sends them.
func NewSSEWriter(c *gin.Context) *SSEWriter {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	return &SSEWriter{c: c}
}

// Send writes one JSON frame.
func (w *SSEWriter) Send(v any) error {
	if w.closed {
		return ErrStreamClosed
	}
	if err := w.c.Request.Context().Err(); err != nil {
		w.closed = true
		return ErrStreamClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(w.c.Writer, "data: %s\n\n", data); err != nil {
		w.closed = true
		return ErrStreamClosed
	}
	w.c.Writer.Flush()
	return nil
}

// Done writes the terminating `data: [DONE]` line.
func (w *SSEWriter) Done() {
	if w.closed {
		return
	}
	_, _ = fmt.Fprint(w.c.Writer, "data: [DONE]\n\n")
	w.c.Writer.Flush()
	w.closed = true
}
