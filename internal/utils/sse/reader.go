package sse

import (
	"bufio"
	"io"
	"strings"
)

const (
	DataPrefix = "data: "
	DoneMarker = "[DONE]"

	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// Reader yields the payloads of "data: " lines from an event stream. Partial
// lines are buffered until their newline arrives; other lines are skipped.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)
	return &Reader{scanner: scanner}
}

// Next returns the next data payload. It returns io.EOF when the stream ends
// or a [DONE] marker is read.
func (r *Reader) Next() (string, error) {
	for r.scanner.Scan() {
		payload, ok := strings.CutPrefix(r.scanner.Text(), DataPrefix)
		if !ok {
			continue
		}
		if strings.TrimSpace(payload) == DoneMarker {
			return "", io.EOF
		}
		return payload, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
