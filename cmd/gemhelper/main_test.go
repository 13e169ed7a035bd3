package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kingrea/gemhelper/internal/runner"
	"github.com/kingrea/gemhelper/internal/runner/runnertest"
)

const specYAML = "name: test\nversion: 0.0.1\nhomepage: https://example.com/test\n"

type testApp struct {
	*app
	dir    string
	fake   *runnertest.Fake
	out    *bytes.Buffer
	errOut *bytes.Buffer
	env    map[string]string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.gemspec"), []byte("# gemspec\n"), 0o644); err != nil {
		t.Fatalf("write gemspec: %v", err)
	}
	fake := runnertest.New()
	fake.OnOutput(specYAML, "ruby")
	fake.On(func(cmd runner.Command) (runner.Result, error) {
		return runner.Result{}, os.WriteFile(filepath.Join(cmd.Dir, "test-0.0.1.gem"), []byte("gem"), 0o644)
	}, "gem", "build")
	fake.OnOutput("main\n", "git", "rev-parse")

	ta := &testApp{
		dir:    dir,
		fake:   fake,
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		env:    map[string]string{},
	}
	ta.app = &app{
		stdin:  strings.NewReader(""),
		stdout: ta.out,
		stderr: ta.errOut,
		lookupEnv: func(key string) (string, bool) {
			value, ok := ta.env[key]
			return value, ok
		},
		newRunner: func(*app, *zap.Logger) runner.Runner { return fake },
	}
	return ta
}

func (ta *testApp) exec(args ...string) int {
	return ta.run(context.Background(), append([]string{"--dir", ta.dir}, args...))
}

func TestBuildCommand(t *testing.T) {
	ta := newTestApp(t)
	if code := ta.exec("build"); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, ta.errOut.String())
	}
	if got := ta.out.String(); got != "test 0.0.1 built to pkg/test-0.0.1.gem.\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if _, err := os.Stat(filepath.Join(ta.dir, "pkg", "test-0.0.1.gem")); err != nil {
		t.Fatalf("gem not moved into pkg: %v", err)
	}
	load, ok := ta.fake.Find("ruby", "-e")
	if !ok {
		t.Fatalf("gemspec should be loaded through ruby: %s", ta.fake)
	}
	if load.Args[len(load.Args)-1] != filepath.Join(ta.dir, "test.gemspec") {
		t.Fatalf("unexpected gemspec path %v", load.Args)
	}
}

func TestReleaseCommandWithRemoteArgument(t *testing.T) {
	ta := newTestApp(t)
	if code := ta.exec("--tag-prefix", "v", "release", "upstream"); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, ta.errOut.String())
	}
	for _, prefix := range [][]string{
		{"git", "tag", "-m", "Version 0.0.1", "v0.0.1"},
		{"git", "push", "upstream", "refs/heads/main"},
		{"git", "push", "upstream", "refs/tags/v0.0.1"},
		{"gem", "push", filepath.Join(ta.dir, "pkg", "test-0.0.1.gem")},
	} {
		if !ta.fake.Ran(prefix...) {
			t.Fatalf("expected %v to run, got:\n%s", prefix, ta.fake)
		}
	}
	for _, want := range []string{"Tagged v0.0.1.", "Pushed git commits and release tag.", "Pushed test 0.0.1 to rubygems.org."} {
		if !strings.Contains(ta.out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, ta.out.String())
		}
	}
}

func TestReleaseDirtyTreeFails(t *testing.T) {
	ta := newTestApp(t)
	ta.fake.OnExit(1, "", "git", "diff", "--exit-code")

	if code := ta.exec("release"); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(ta.errOut.String(), "There are files that need to be committed first.") {
		t.Fatalf("stderr missing guard message: %q", ta.errOut.String())
	}
	if ta.fake.Ran("gem", "build") || ta.fake.Ran("git", "push") {
		t.Fatalf("no side effects expected:\n%s", ta.fake)
	}
}

func TestGemPushDisabledByEnvironment(t *testing.T) {
	ta := newTestApp(t)
	ta.env["gem_push"] = "no"
	if code := ta.exec("release"); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, ta.errOut.String())
	}
	if ta.fake.Ran("gem", "push") {
		t.Fatalf("gem push must be skipped when gem_push=no")
	}
	if !ta.fake.Ran("git", "push") {
		t.Fatalf("git push should still run")
	}
}

func TestRemoteFlagAndPushKey(t *testing.T) {
	ta := newTestApp(t)
	ta.env["BUNDLE_GEM__PUSH_KEY"] = "WORK"
	if code := ta.exec("--remote", "fork", "release"); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, ta.errOut.String())
	}
	if !ta.fake.Ran("git", "push", "fork") {
		t.Fatalf("expected push to fork:\n%s", ta.fake)
	}
	if !ta.fake.Ran("gem", "push", filepath.Join(ta.dir, "pkg", "test-0.0.1.gem"), "--key", "work") {
		t.Fatalf("expected lowercased push key:\n%s", ta.fake)
	}
}

func TestTasksListsCommandTable(t *testing.T) {
	ta := newTestApp(t)
	if code := ta.exec("tasks"); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, ta.errOut.String())
	}
	out := ta.out.String()
	for _, want := range []string{
		"gemhelper build ",
		"# Build test-0.0.1.gem into the pkg directory.",
		"gemhelper release[remote]",
		"gemhelper release:rubygem_push",
		"# Push test-0.0.1.gem to rubygems.org.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("tasks output missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 8 {
		t.Fatalf("expected 8 tasks, got %d:\n%s", got, out)
	}
}

func TestTooManyArguments(t *testing.T) {
	ta := newTestApp(t)
	if code := ta.exec("build", "extra"); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if ta.fake.Ran("gem") {
		t.Fatalf("nothing should run on a usage error")
	}
}

func TestMissingGemspec(t *testing.T) {
	ta := newTestApp(t)
	empty := t.TempDir()
	code := ta.run(context.Background(), []string{"--dir", empty, "build"})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	want := "Unable to determine name from existing gemspec in " + empty + ". Use --name to set it manually."
	if !strings.Contains(ta.errOut.String(), want) {
		t.Fatalf("stderr %q missing %q", ta.errOut.String(), want)
	}
}

func TestNameFlagSelectsGemspec(t *testing.T) {
	ta := newTestApp(t)
	if err := os.WriteFile(filepath.Join(ta.dir, "other.gemspec"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if code := ta.exec("build"); code != 1 {
		t.Fatalf("two gemspecs without --name should fail, got %d", code)
	}
	ta.errOut.Reset()
	if code := ta.exec("--name", "test", "build"); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, ta.errOut.String())
	}
}
