package task

import (
	"fmt"
	"strings"
	"time"
)

// Status enumerates step outcomes within a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusAborted marks steps that never ran because an earlier one failed.
	StatusAborted Status = "aborted"
)

// Step is one task scheduled inside a plan.
type Step struct {
	Name        string
	Description string
	Args        Args
	Status      Status
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time

	action Action
}

// Duration reports how long the step ran.
func (s *Step) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Plan is the ordered list of steps needed to satisfy a target.
type Plan struct {
	RunID  string
	Target string
	Args   Args
	Steps  []*Step
}

// Next returns the first pending step, or nil when none remain.
func (p *Plan) Next() *Step {
	for _, step := range p.Steps {
		if step.Status == StatusPending {
			return step
		}
	}
	return nil
}

// Failed returns the failed step, if any.
func (p *Plan) Failed() *Step {
	for _, step := range p.Steps {
		if step.Status == StatusFailed {
			return step
		}
	}
	return nil
}

// Done reports whether no step is pending or running.
func (p *Plan) Done() bool {
	for _, step := range p.Steps {
		if step.Status == StatusPending || step.Status == StatusRunning {
			return false
		}
	}
	return true
}

// Names returns the step names in execution order.
func (p *Plan) Names() []string {
	out := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		out = append(out, step.Name)
	}
	return out
}

func (p *Plan) abortRemaining() {
	for _, step := range p.Steps {
		if step.Status == StatusPending {
			step.Status = StatusAborted
		}
	}
}

// BuildPlan orders the steps needed for target: prerequisites depth-first in
// declaration order, each task at most once. Positional arguments bind to
// the target's ArgNames and flow to every scheduled task declaring the same
// name.
func (r *Registry) BuildPlan(target string, positional []string) (*Plan, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	root, ok := r.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("task: unknown task %s", target)
	}
	if len(positional) > len(root.ArgNames) {
		return nil, fmt.Errorf("task: %s accepts %d argument(s), got %d", root.Usage(), len(root.ArgNames), len(positional))
	}
	args := Args{}
	for i, value := range positional {
		if strings.TrimSpace(value) == "" {
			continue
		}
		args[root.ArgNames[i]] = value
	}
	plan := &Plan{Target: target, Args: args.Clone()}
	visited := map[string]bool{}
	var visit func(string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		def, _ := r.Lookup(name)
		for _, dep := range def.DependsOn {
			visit(dep)
		}
		plan.Steps = append(plan.Steps, &Step{
			Name:        def.Name,
			Description: def.Description,
			Args:        scopeArgs(args, def.ArgNames),
			Status:      StatusPending,
			action:      def.Action,
		})
	}
	visit(target)
	return plan, nil
}

func scopeArgs(args Args, names []string) Args {
	if len(args) == 0 || len(names) == 0 {
		return nil
	}
	scoped := Args{}
	for _, name := range names {
		if value, ok := args[name]; ok {
			scoped[name] = value
		}
	}
	if len(scoped) == 0 {
		return nil
	}
	return scoped
}
