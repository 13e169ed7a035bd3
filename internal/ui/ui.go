// Package ui prints the user-facing messages of a task run. Confirmations
// are green, warnings yellow and errors red when the destination is a
// terminal; plain text otherwise.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorConfirm = lipgloss.Color("#4CAF50")
	colorWarn    = lipgloss.Color("#F7B801")
	colorError   = lipgloss.Color("#FF6B6B")
)

// UI writes messages to an output and an error stream.
type UI struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	confirm lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	plain   lipgloss.Style
}

// New returns a UI whose styles follow the color capabilities of each
// writer.
func New(out, errOut io.Writer) *UI {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = out
	}
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)
	base := func(r *lipgloss.Renderer) lipgloss.Style {
		return r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	}
	return &UI{
		out:     out,
		errOut:  errOut,
		confirm: base(outRenderer).Foreground(colorConfirm),
		warn:    base(errRenderer).Foreground(colorWarn),
		err:     base(errRenderer).Foreground(colorError),
		plain:   base(outRenderer),
	}
}

// Confirm reports a completed step.
func (u *UI) Confirm(format string, args ...any) {
	u.write(u.out, u.confirm, fmt.Sprintf(format, args...))
}

// Info prints an unstyled notice.
func (u *UI) Info(format string, args ...any) {
	u.write(u.out, u.plain, fmt.Sprintf(format, args...))
}

// Warn prints a warning to the error stream.
func (u *UI) Warn(format string, args ...any) {
	u.write(u.errOut, u.warn, fmt.Sprintf(format, args...))
}

// Error prints an error to the error stream.
func (u *UI) Error(format string, args ...any) {
	u.write(u.errOut, u.err, fmt.Sprintf(format, args...))
}

// Styles are applied line by line so multi-line tool output is never
// re-aligned or padded.
func (u *UI) write(w io.Writer, style lipgloss.Style, message string) {
	if u == nil {
		return
	}
	message = strings.TrimRight(message, "\n")
	lines := strings.Split(message, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
