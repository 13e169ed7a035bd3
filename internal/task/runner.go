package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrStepNotPending is returned when Execute is asked to run a step twice.
var ErrStepNotPending = errors.New("task: step is not pending")

// Runner executes plans sequentially and stops at the first failure.
type Runner struct {
	registry *Registry
	logger   *zap.Logger
	clock    func() time.Time
	newID    func() string
}

// Option customizes the runner instance.
type Option func(*Runner)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithRunIDs overrides run identifier generation.
func WithRunIDs(next func() string) Option {
	return func(r *Runner) {
		if next != nil {
			r.newID = next
		}
	}
}

// NewRunner wires a runner to the task table.
func NewRunner(registry *Registry, opts ...Option) (*Runner, error) {
	if registry == nil {
		return nil, fmt.Errorf("task runner: registry is required")
	}
	runner := &Runner{
		registry: registry,
		logger:   zap.NewNop(),
		clock:    time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Registry exposes the task table the runner executes against.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Plan resolves target into an ordered plan tagged with a fresh run ID.
func (r *Runner) Plan(target string, positional []string) (*Plan, error) {
	plan, err := r.registry.BuildPlan(target, positional)
	if err != nil {
		return nil, err
	}
	plan.RunID = r.newID()
	r.logger.Debug("planned task run",
		zap.String("run_id", plan.RunID),
		zap.String("target", target),
		zap.Strings("steps", plan.Names()))
	return plan, nil
}

// Execute runs a single pending step and records its outcome. When the step
// fails every remaining pending step is marked aborted.
func (r *Runner) Execute(ctx context.Context, plan *Plan, step *Step) error {
	if step == nil || step.Status != StatusPending {
		return ErrStepNotPending
	}
	log := r.logger.With(zap.String("run_id", plan.RunID), zap.String("task", step.Name))
	if err := ctx.Err(); err != nil {
		step.Status = StatusFailed
		step.Err = err
		plan.abortRemaining()
		return err
	}
	step.Status = StatusRunning
	step.StartedAt = r.clock()
	log.Debug("task started", zap.Any("args", step.Args))
	var err error
	if step.action != nil {
		err = step.action(ctx, step.Args.Clone())
	}
	step.FinishedAt = r.clock()
	if err != nil {
		step.Status = StatusFailed
		step.Err = err
		plan.abortRemaining()
		log.Debug("task failed", zap.Duration("duration", step.Duration()), zap.Error(err))
		return err
	}
	step.Status = StatusCompleted
	log.Debug("task completed", zap.Duration("duration", step.Duration()))
	return nil
}

// Run plans target and executes every step in order. The returned plan is
// populated even when a step fails.
func (r *Runner) Run(ctx context.Context, target string, positional []string) (*Plan, error) {
	plan, err := r.Plan(target, positional)
	if err != nil {
		return nil, err
	}
	return plan, r.RunPlan(ctx, plan)
}

// RunPlan executes the pending steps of an existing plan.
func (r *Runner) RunPlan(ctx context.Context, plan *Plan) error {
	for step := plan.Next(); step != nil; step = plan.Next() {
		if err := r.Execute(ctx, plan, step); err != nil {
			return err
		}
	}
	return nil
}
