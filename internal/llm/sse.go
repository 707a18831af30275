package llm

import (
	"bufio"
	"io"
	"strings"
)

// sseDoneSentinel is the terminal payload of OpenAI-style event streams.
const sseDoneSentinel = "[DONE]"

// sseReader extracts data payloads from a server-sent-events body.
type sseReader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
}

func newSSEReader(body io.ReadCloser) *sseReader {
	scanner := bufio.NewScanner(body)
	// Model outputs can produce very long event lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseReader{scanner: scanner, body: body}
}

// next returns the next "data:" payload, skipping comments, event-name
// lines, and blank separators. Returns io.EOF at end of stream.
func (r *sseReader) next() (string, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		return payload, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *sseReader) close() error {
	return r.body.Close()
}
