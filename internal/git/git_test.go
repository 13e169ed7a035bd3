package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/gemhelper/internal/runner/runnertest"
)

func TestCleanAndCommitted(t *testing.T) {
	fake := runnertest.New().
		OnExit(1, "", "git", "diff", "--exit-code").
		OnExit(0, "", "git", "diff-index")
	c := NewClient(fake, "/repo")

	clean, err := c.Clean(context.Background())
	require.NoError(t, err)
	assert.False(t, clean)
	committed, err := c.Committed(context.Background())
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, []string{
		"git diff --exit-code",
		"git diff-index --quiet --cached HEAD",
	}, fake.Lines())
	for _, cmd := range fake.Calls() {
		assert.Equal(t, "/repo", cmd.Dir)
	}
}

func TestHasTagMatchesExactName(t *testing.T) {
	fake := runnertest.New().OnOutput("v1.0.0-rc1\nv1.0.00\nv0.9.0\n", "git", "tag")
	c := NewClient(fake, "/repo")

	exists, err := c.HasTag(context.Background(), "v1.0.0")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = c.HasTag(context.Background(), "v0.9.0")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTagCreatesAnnotatedTag(t *testing.T) {
	fake := runnertest.New()
	c := NewClient(fake, "/repo")

	require.NoError(t, c.Tag(context.Background(), "v1.0.0", "Version 1.0.0"))
	assert.Equal(t, []string{"git tag -m 'Version 1.0.0' v1.0.0"}, fake.Lines())
}

func TestCurrentBranchStripsHeadsPrefix(t *testing.T) {
	fake := runnertest.New().OnOutput("heads/v1.0.0\n", "git", "rev-parse")
	branch, err := NewClient(fake, "/repo").CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", branch)
}

func TestCurrentBranchDetachedHead(t *testing.T) {
	fake := runnertest.New().OnOutput("HEAD\n", "git", "rev-parse")
	_, err := NewClient(fake, "/repo").CurrentBranch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detached")
}

func TestRemoteForBranch(t *testing.T) {
	fake := runnertest.New().OnOutput("upstream\n", "git", "config", "--get", "branch.main.remote")
	c := NewClient(fake, "/repo")

	remote, err := c.RemoteForBranch(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "upstream", remote)

	fake.OnExit(1, "", "git", "config")
	remote, err = c.RemoteForBranch(context.Background(), "feature")
	require.NoError(t, err)
	assert.Equal(t, DefaultRemote, remote)
}

func TestPushFailureCarriesOutput(t *testing.T) {
	fake := runnertest.New().OnExit(128, "fatal: 'origin' does not appear to be a git repository\n", "git", "push")
	err := NewClient(fake, "/repo").Push(context.Background(), "origin", "refs/heads/main")
	var pushErr *PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Contains(t, err.Error(), "Couldn't git push. `git push origin refs/heads/main` failed")
	assert.Contains(t, err.Error(), "does not appear to be a git repository")
}
