package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Exec runs commands as real child processes.
type Exec struct {
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option customizes an Exec runner.
type Option func(*Exec)

// WithLogger traces every invocation at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exec) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStdio overrides the streams attached to interactive commands.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		if stdin != nil {
			e.stdin = stdin
		}
		if stdout != nil {
			e.stdout = stdout
		}
		if stderr != nil {
			e.stderr = stderr
		}
	}
}

// NewExec constructs a runner backed by os/exec.
func NewExec(opts ...Option) *Exec {
	e := &Exec{
		logger: zap.NewNop(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, cmd Command) (Result, error) {
	if len(cmd.Args) == 0 {
		return Result{}, fmt.Errorf("runner: empty command")
	}
	e.logger.Debug("running command",
		zap.Strings("argv", cmd.Args),
		zap.String("dir", cmd.Dir),
		zap.Bool("interactive", cmd.Interactive),
	)
	proc := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	if cmd.Interactive {
		proc.Stdin = e.stdin
		proc.Stdout = io.MultiWriter(e.stdout, &stdout)
		proc.Stderr = io.MultiWriter(e.stderr, &stderr)
	} else {
		proc.Stdout = &stdout
		proc.Stderr = &stderr
	}
	err := proc.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			e.logger.Debug("command exited non-zero",
				zap.Strings("argv", cmd.Args),
				zap.Int("exit_code", res.ExitCode),
			)
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("runner: %s: %w", cmd, ctxErr)
		}
		return res, fmt.Errorf("runner: %s: %w", cmd, err)
	}
	return res, nil
}
