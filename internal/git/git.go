// Package git wraps the handful of git plumbing calls a release needs.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/kingrea/gemhelper/internal/runner"
)

// DefaultRemote is used when the current branch tracks no remote.
const DefaultRemote = "origin"

// Client runs git inside a working tree.
type Client struct {
	runner runner.Runner
	dir    string
}

// NewClient returns a client for the working tree at dir.
func NewClient(r runner.Runner, dir string) *Client {
	return &Client{runner: r, dir: dir}
}

// PushError reports a failed git push together with git's own output.
type PushError struct {
	Command runner.Command
	Output  string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("Couldn't git push. `%s` failed with the following output:\n\n%s\n", e.Command, strings.TrimRight(e.Output, "\n"))
}

// Clean reports whether the working tree has no unstaged changes.
func (c *Client) Clean(ctx context.Context) (bool, error) {
	return c.succeeds(ctx, "diff", "--exit-code")
}

// Committed reports whether the index has nothing staged relative to HEAD.
func (c *Client) Committed(ctx context.Context) (bool, error) {
	return c.succeeds(ctx, "diff-index", "--quiet", "--cached", "HEAD")
}

// Tags lists every tag name in the repository.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	out, err := c.output(ctx, "tag")
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if tag := strings.TrimSpace(line); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// HasTag reports whether a tag with exactly this name exists. The commit it
// points at is not inspected.
func (c *Client) HasTag(ctx context.Context, name string) (bool, error) {
	tags, err := c.Tags(ctx)
	if err != nil {
		return false, err
	}
	for _, tag := range tags {
		if tag == name {
			return true, nil
		}
	}
	return false, nil
}

// Tag creates an annotated tag at HEAD.
func (c *Client) Tag(ctx context.Context, name, message string) error {
	_, err := c.output(ctx, "tag", "-m", message, name)
	return err
}

// DeleteTag removes a local tag.
func (c *Client) DeleteTag(ctx context.Context, name string) error {
	_, err := c.output(ctx, "tag", "-d", name)
	return err
}

// CurrentBranch returns the checked-out branch name. When a tag shares the
// branch name git prints "heads/<branch>"; the prefix is dropped.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimPrefix(strings.TrimSpace(out), "heads/")
	if branch == "" || branch == "HEAD" {
		return "", fmt.Errorf("git: HEAD is detached; check out the branch to release from")
	}
	return branch, nil
}

// RemoteForBranch returns the remote branch tracks, or DefaultRemote.
func (c *Client) RemoteForBranch(ctx context.Context, branch string) (string, error) {
	cmd := c.command("config", "--get", "branch."+branch+".remote")
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	remote := strings.TrimSpace(res.Stdout)
	if !res.Success() || remote == "" {
		return DefaultRemote, nil
	}
	return remote, nil
}

// Push pushes a single fully qualified ref to remote.
func (c *Client) Push(ctx context.Context, remote, ref string) error {
	cmd := c.command("push", remote, ref)
	res, err := c.runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if !res.Success() {
		return &PushError{Command: cmd, Output: res.Output()}
	}
	return nil
}

func (c *Client) succeeds(ctx context.Context, args ...string) (bool, error) {
	res, err := c.runner.Run(ctx, c.command(args...))
	if err != nil {
		return false, err
	}
	return res.Success(), nil
}

func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	res, err := runner.RunChecked(ctx, c.runner, c.command(args...))
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (c *Client) command(args ...string) runner.Command {
	return runner.Command{Args: append([]string{"git"}, args...), Dir: c.dir}
}
