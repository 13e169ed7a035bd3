package gem

import (
	"context"
	"fmt"

	"github.com/kingrea/gemhelper/internal/runner"
)

// Client drives the gem binary from a fixed working directory.
type Client struct {
	runner      runner.Runner
	dir         string
	command     []string
	interactive bool
}

// Option customizes a Client.
type Option func(*Client)

// WithCommand overrides the gem argv prefix (defaults to "gem").
func WithCommand(argv ...string) Option {
	return func(c *Client) {
		if len(argv) > 0 {
			c.command = append([]string{}, argv...)
		}
	}
}

// WithInteractivePush controls whether push attaches the terminal so the
// registry client can prompt for credentials or a one-time password.
func WithInteractivePush(enabled bool) Option {
	return func(c *Client) {
		c.interactive = enabled
	}
}

// NewClient returns a client running every command inside dir.
func NewClient(r runner.Runner, dir string, opts ...Option) *Client {
	c := &Client{
		runner:      r,
		dir:         dir,
		command:     []string{"gem"},
		interactive: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BuildCommand returns the argv used to build specPath.
func (c *Client) BuildCommand(specPath string) runner.Command {
	return c.newCommand("build", "-V", specPath)
}

// Build packages the gemspec into an archive in the client directory.
func (c *Client) Build(ctx context.Context, specPath string) (runner.Result, error) {
	return runner.RunChecked(ctx, c.runner, c.BuildCommand(specPath))
}

// InstallCommand returns the argv used to install an archive. A local install
// never contacts a remote source.
func (c *Client) InstallCommand(path string, local bool) runner.Command {
	cmd := c.newCommand("install", path)
	if local {
		cmd.Args = append(cmd.Args, "--local")
	}
	return cmd
}

// Install installs the archive at path.
func (c *Client) Install(ctx context.Context, path string, local bool) (runner.Result, error) {
	return runner.RunChecked(ctx, c.runner, c.InstallCommand(path, local))
}

// PushCommand returns the argv used to publish an archive.
func (c *Client) PushCommand(path string, target PushTarget, key string) runner.Command {
	cmd := c.newCommand("push", path)
	if key != "" {
		cmd.Args = append(cmd.Args, "--key", key)
	}
	cmd.Args = append(cmd.Args, target.Args()...)
	cmd.Interactive = c.interactive
	return cmd
}

// Push publishes the archive at path to target.
func (c *Client) Push(ctx context.Context, path string, target PushTarget, key string) (runner.Result, error) {
	if path == "" {
		return runner.Result{}, fmt.Errorf("gem: push requires an archive path")
	}
	return runner.RunChecked(ctx, c.runner, c.PushCommand(path, target, key))
}

func (c *Client) newCommand(args ...string) runner.Command {
	argv := make([]string, 0, len(c.command)+len(args))
	argv = append(argv, c.command...)
	argv = append(argv, args...)
	return runner.Command{Args: argv, Dir: c.dir}
}
