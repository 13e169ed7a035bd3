package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
	args  map[string]Args
}

func (r *recorder) action(name string, err error) Action {
	return func(_ context.Context, args Args) error {
		r.calls = append(r.calls, name)
		if r.args == nil {
			r.args = map[string]Args{}
		}
		r.args[name] = args
		return err
	}
}

func releaseTable(t *testing.T, rec *recorder, failing string) *Registry {
	t.Helper()
	fail := func(name string) error {
		if name == failing {
			return errors.New(name + " broke")
		}
		return nil
	}
	reg := NewRegistry()
	reg.MustRegister(Definition{Name: "build", Action: rec.action("build", fail("build"))})
	reg.MustRegister(Definition{Name: "release:guard_clean", Action: rec.action("release:guard_clean", fail("release:guard_clean"))})
	reg.MustRegister(Definition{Name: "release:source_control_push", ArgNames: []string{"remote"}, Action: rec.action("release:source_control_push", fail("release:source_control_push"))})
	reg.MustRegister(Definition{Name: "release:rubygem_push", Action: rec.action("release:rubygem_push", fail("release:rubygem_push"))})
	reg.MustRegister(Definition{
		Name:      "release",
		ArgNames:  []string{"remote"},
		DependsOn: []string{"release:guard_clean", "build", "release:source_control_push", "release:rubygem_push"},
	})
	return reg
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Definition{Name: "build"}))
	err := reg.Register(Definition{Name: "build"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestDefinitionValidate(t *testing.T) {
	cases := map[string]Definition{
		"empty name":     {},
		"whitespace":     {Name: "re lease"},
		"self reference": {Name: "build", DependsOn: []string{"build"}},
		"duplicate dep":  {Name: "release", DependsOn: []string{"build", "build"}},
		"duplicate arg":  {Name: "release", ArgNames: []string{"remote", "remote"}},
	}
	for name, def := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, def.Validate())
		})
	}
}

func TestUsage(t *testing.T) {
	assert.Equal(t, "build", Definition{Name: "build"}.Usage())
	assert.Equal(t, "release[remote]", Definition{Name: "release", ArgNames: []string{"remote"}}.Usage())
}

func TestNamesFollowRegistrationOrder(t *testing.T) {
	reg := releaseTable(t, &recorder{}, "")
	assert.Equal(t, []string{
		"build",
		"release:guard_clean",
		"release:source_control_push",
		"release:rubygem_push",
		"release",
	}, reg.Names())
}

func TestValidateDetectsMissingDependency(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Definition{Name: "release", DependsOn: []string{"build"}})
	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build referenced by release not registered")
}

func TestValidateDetectsCycle(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Definition{Name: "a", DependsOn: []string{"b"}})
	reg.MustRegister(Definition{Name: "b", DependsOn: []string{"c"}})
	reg.MustRegister(Definition{Name: "c", DependsOn: []string{"a"}})
	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestBuildPlanOrdersPrerequisitesOnce(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Definition{Name: "build"})
	reg.MustRegister(Definition{Name: "build:checksum", DependsOn: []string{"build"}})
	reg.MustRegister(Definition{Name: "install", DependsOn: []string{"build"}})
	reg.MustRegister(Definition{Name: "all", DependsOn: []string{"build:checksum", "install"}})

	plan, err := reg.BuildPlan("all", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "build:checksum", "install", "all"}, plan.Names())
	for _, step := range plan.Steps {
		assert.Equal(t, StatusPending, step.Status)
	}
}

func TestBuildPlanBindsArguments(t *testing.T) {
	reg := releaseTable(t, &recorder{}, "")
	plan, err := reg.BuildPlan("release", []string{"upstream"})
	require.NoError(t, err)
	assert.Equal(t, Args{"remote": "upstream"}, plan.Args)
	for _, step := range plan.Steps {
		switch step.Name {
		case "release", "release:source_control_push":
			assert.Equal(t, "upstream", step.Args.Get("remote"), step.Name)
		default:
			assert.Nil(t, step.Args, step.Name)
		}
	}
}

func TestBuildPlanRejectsExtraArguments(t *testing.T) {
	reg := releaseTable(t, &recorder{}, "")
	_, err := reg.BuildPlan("build", []string{"origin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 0 argument(s), got 1")
}

func TestBuildPlanUnknownTask(t *testing.T) {
	_, err := NewRegistry().BuildPlan("deploy", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task deploy")
}

func TestRunExecutesInOrder(t *testing.T) {
	rec := &recorder{}
	reg := releaseTable(t, rec, "")
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	runner, err := NewRunner(reg,
		WithClock(func() time.Time { return now }),
		WithRunIDs(func() string { return "run-1" }))
	require.NoError(t, err)

	plan, err := runner.Run(context.Background(), "release", []string{"upstream"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", plan.RunID)
	assert.Equal(t, []string{
		"release:guard_clean",
		"build",
		"release:source_control_push",
		"release:rubygem_push",
	}, rec.calls)
	assert.Equal(t, Args{"remote": "upstream"}, rec.args["release:source_control_push"])
	assert.True(t, plan.Done())
	for _, step := range plan.Steps {
		assert.Equal(t, StatusCompleted, step.Status, step.Name)
		assert.Equal(t, now, step.StartedAt)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	rec := &recorder{}
	reg := releaseTable(t, rec, "release:guard_clean")
	runner, err := NewRunner(reg)
	require.NoError(t, err)

	plan, err := runner.Run(context.Background(), "release", nil)
	require.Error(t, err)
	assert.EqualError(t, err, "release:guard_clean broke")
	assert.Equal(t, []string{"release:guard_clean"}, rec.calls)
	failed := plan.Failed()
	require.NotNil(t, failed)
	assert.Equal(t, "release:guard_clean", failed.Name)
	for _, step := range plan.Steps[1:] {
		assert.Equal(t, StatusAborted, step.Status, step.Name)
	}
	assert.True(t, plan.Done())
}

func TestRunGeneratesRunID(t *testing.T) {
	runner, err := NewRunner(releaseTable(t, &recorder{}, ""))
	require.NoError(t, err)
	first, err := runner.Plan("build", nil)
	require.NoError(t, err)
	second, err := runner.Plan("build", nil)
	require.NoError(t, err)
	assert.Len(t, first.RunID, 36)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestExecuteRejectsFinishedStep(t *testing.T) {
	runner, err := NewRunner(releaseTable(t, &recorder{}, ""))
	require.NoError(t, err)
	plan, err := runner.Plan("build", nil)
	require.NoError(t, err)
	step := plan.Next()
	require.NoError(t, runner.Execute(context.Background(), plan, step))
	assert.ErrorIs(t, runner.Execute(context.Background(), plan, step), ErrStepNotPending)
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	rec := &recorder{}
	runner, err := NewRunner(releaseTable(t, rec, ""))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := runner.Run(ctx, "release", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.calls)
	assert.Equal(t, StatusFailed, plan.Steps[0].Status)
}

func TestNewRunnerRequiresRegistry(t *testing.T) {
	_, err := NewRunner(nil)
	assert.Error(t, err)
}
