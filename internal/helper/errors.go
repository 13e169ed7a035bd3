package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/gemhelper/internal/runner"
)

// ErrDirtyTree is wrapped by the PreconditionError raised by GuardClean.
var ErrDirtyTree = errors.New("working tree has uncommitted changes")

// PreconditionError reports a release guard that did not hold.
type PreconditionError struct {
	Message string
	Err     error
}

func (e *PreconditionError) Error() string { return e.Message }

func (e *PreconditionError) Unwrap() error { return e.Err }

// ToolchainError carries a failed packaging command. Its message is the
// toolchain's own output, unchanged.
type ToolchainError struct {
	Command runner.Command
	Result  runner.Result
}

func (e *ToolchainError) Error() string {
	output := strings.TrimRight(e.Result.Output(), "\n")
	if strings.TrimSpace(output) == "" {
		return fmt.Sprintf("Running `%s` failed with no output", e.Command)
	}
	return output
}

// InstallError reports a failed gem install with the command to rerun.
type InstallError struct {
	Name    string
	Version string
	Err     *runner.SubprocessError
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("Couldn't install gem %s (%s), run `%s` for more detailed output", e.Name, e.Version, e.Err.Command)
}

func (e *InstallError) Unwrap() error { return e.Err }

func asToolchainError(err error) error {
	var subErr *runner.SubprocessError
	if errors.As(err, &subErr) {
		return &ToolchainError{Command: subErr.Command, Result: subErr.Result}
	}
	return err
}
