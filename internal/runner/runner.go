package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command describes a single external program invocation.
type Command struct {
	// Args is the argv vector; Args[0] names the binary.
	Args []string
	// Dir is the working directory. Empty means the current process directory.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the process environment.
	Env []string
	// Interactive attaches the process stdio so the program can prompt the
	// user (credentials, one-time passwords). Output is still captured.
	Interactive bool
}

// String renders the argv the way a user would type it into a shell.
func (c Command) String() string {
	return shellquote.Join(c.Args...)
}

// Result captures how a finished command exited.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout followed by stderr, mirroring what a terminal shows
// when both streams are interleaved into one.
func (r Result) Output() string {
	switch {
	case r.Stderr == "":
		return r.Stdout
	case r.Stdout == "":
		return r.Stderr
	case strings.HasSuffix(r.Stdout, "\n"):
		return r.Stdout + r.Stderr
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Runner executes external commands. Implementations return an error only
// when the command could not be run at all; a non-zero exit is reported
// through Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// SubprocessError reports a command that ran but exited non-zero.
type SubprocessError struct {
	Command Command
	Result  Result
}

func (e *SubprocessError) Error() string {
	output := strings.TrimRight(e.Result.Output(), "\n")
	if output == "" {
		return fmt.Sprintf("Running `%s` failed with exit status %d and no output", e.Command, e.Result.ExitCode)
	}
	return fmt.Sprintf("Running `%s` failed with exit status %d and the following output:\n\n%s", e.Command, e.Result.ExitCode, output)
}

// Check converts a non-zero exit into a *SubprocessError.
func Check(cmd Command, res Result) error {
	if res.Success() {
		return nil
	}
	return &SubprocessError{Command: cmd, Result: res}
}

// RunChecked runs cmd and fails on launch errors and non-zero exits alike.
func RunChecked(ctx context.Context, r Runner, cmd Command) (Result, error) {
	res, err := r.Run(ctx, cmd)
	if err != nil {
		return res, err
	}
	return res, Check(cmd, res)
}
