package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedReader returns its input in fixed-size pieces to exercise partial lines.
type chunkedReader struct {
	data []byte
	size int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.size
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	for {
		payload, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, payload)
	}
}

func TestReaderSplitsAcrossReads(t *testing.T) {
	stream := "data: {\"status\":\"translating\"}\n\n: keepalive\n" +
		"data: {\"status\":\"streaming\",\"chunk\":\"WSAVA \"}\n\n" +
		"event: ignored\n" +
		"data: {\"status\":\"done\"}\n"

	r := NewReader(&chunkedReader{data: []byte(stream), size: 7})
	got := readAll(t, r)

	assert.Equal(t, []string{
		`{"status":"translating"}`,
		`{"status":"streaming","chunk":"WSAVA "}`,
		`{"status":"done"}`,
	}, got)
}

func TestReaderStopsAtDoneMarker(t *testing.T) {
	r := NewReader(strings.NewReader("data: one\ndata: [DONE]\ndata: two\n"))
	assert.Equal(t, []string{"one"}, readAll(t, r))
}

func TestReaderHandlesCRLF(t *testing.T) {
	r := NewReader(strings.NewReader("data: one\r\ndata: two\r\n"))
	assert.Equal(t, []string{"one", "two"}, readAll(t, r))
}

func TestReaderTrailingLineWithoutNewline(t *testing.T) {
	r := NewReader(strings.NewReader("data: one\ndata: tail"))
	assert.Equal(t, []string{"one", "tail"}, readAll(t, r))
}
