package ui

import (
	"strings"
	"sync"
)

// Transcript is a concurrency-safe writer that keeps everything written to
// it as lines, so a live view can render messages produced by a task
// running on another goroutine.
type Transcript struct {
	mu      sync.Mutex
	lines   []string
	partial strings.Builder
}

// Write implements io.Writer.
func (t *Transcript) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range string(p) {
		if r == '\n' {
			t.lines = append(t.lines, t.partial.String())
			t.partial.Reset()
			continue
		}
		t.partial.WriteRune(r)
	}
	return len(p), nil
}

// Lines returns completed lines plus any unterminated trailing line.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := append([]string{}, t.lines...)
	if t.partial.Len() > 0 {
		out = append(out, t.partial.String())
	}
	return out
}

// Tail returns up to n of the most recent lines.
func (t *Transcript) Tail(n int) []string {
	lines := t.Lines()
	if n <= 0 || len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// String returns the transcript as text.
func (t *Transcript) String() string {
	return strings.Join(t.Lines(), "\n")
}
