// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/kingrea/gemhelper/internal/runner"
)

// Handler produces the outcome of a matched command.
type Handler func(cmd runner.Command) (runner.Result, error)

type route struct {
	prefix  []string
	handler Handler
}

// Fake records every command it receives and answers from registered routes.
// Routes match on an argv prefix; the most recently registered match wins.
// Unmatched commands succeed with empty output.
type Fake struct {
	mu     sync.Mutex
	routes []route
	calls  []runner.Command
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{}
}

// On installs a handler for commands whose argv starts with prefix.
func (f *Fake) On(handler Handler, prefix ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route{prefix: append([]string{}, prefix...), handler: handler})
	return f
}

// OnOutput answers matching commands with a successful exit and stdout.
func (f *Fake) OnOutput(stdout string, prefix ...string) *Fake {
	return f.On(func(runner.Command) (runner.Result, error) {
		return runner.Result{Stdout: stdout}, nil
	}, prefix...)
}

// OnExit answers matching commands with the given exit code and stdout.
func (f *Fake) OnExit(code int, stdout string, prefix ...string) *Fake {
	return f.On(func(runner.Command) (runner.Result, error) {
		return runner.Result{ExitCode: code, Stdout: stdout}, nil
	}, prefix...)
}

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	if err := ctx.Err(); err != nil {
		return runner.Result{}, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, cloneCommand(cmd))
	var handler Handler
	for i := len(f.routes) - 1; i >= 0; i-- {
		if hasPrefix(cmd.Args, f.routes[i].prefix) {
			handler = f.routes[i].handler
			break
		}
	}
	f.mu.Unlock()
	if handler == nil {
		return runner.Result{}, nil
	}
	return handler(cmd)
}

// Calls returns a copy of every command received so far.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runner.Command, 0, len(f.calls))
	for _, cmd := range f.calls {
		out = append(out, cloneCommand(cmd))
	}
	return out
}

// Lines renders each received command as a shell line.
func (f *Fake) Lines() []string {
	calls := f.Calls()
	lines := make([]string, 0, len(calls))
	for _, cmd := range calls {
		lines = append(lines, cmd.String())
	}
	return lines
}

// Ran reports whether any received command started with prefix.
func (f *Fake) Ran(prefix ...string) bool {
	_, ok := f.Find(prefix...)
	return ok
}

// Find returns the first received command starting with prefix.
func (f *Fake) Find(prefix ...string) (runner.Command, bool) {
	for _, cmd := range f.Calls() {
		if hasPrefix(cmd.Args, prefix) {
			return cmd, true
		}
	}
	return runner.Command{}, false
}

// Reset forgets recorded calls but keeps the routes.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// String is handy in failure messages.
func (f *Fake) String() string {
	return strings.Join(f.Lines(), "\n")
}

func hasPrefix(args, prefix []string) bool {
	if len(prefix) > len(args) {
		return false
	}
	for i, part := range prefix {
		if args[i] != part {
			return false
		}
	}
	return true
}

func cloneCommand(cmd runner.Command) runner.Command {
	clone := cmd
	clone.Args = append([]string{}, cmd.Args...)
	if len(cmd.Env) > 0 {
		clone.Env = append([]string{}, cmd.Env...)
	}
	return clone
}
