package helper

import (
	"context"
	"fmt"

	"github.com/kingrea/gemhelper/internal/task"
)

// ArgRemote names the optional git remote argument of the release tasks.
const ArgRemote = "remote"

// Command is one entry of the helper's command table.
type Command struct {
	Name      string
	Summary   string
	DependsOn []string
	ArgNames  []string
	// Describe renders the help text for a loaded gem.
	Describe func(h *Helper) string
	Action   func(ctx context.Context, h *Helper, args task.Args) error
}

// Commands is the table registered by RegisterTasks, in help order.
var Commands = []Command{
	{
		Name:    "build",
		Summary: "Build the gem into the pkg directory.",
		Describe: func(h *Helper) string {
			return fmt.Sprintf("Build %s into the %s directory.", h.spec.FileName(), h.cfg.PkgDir)
		},
		Action: func(ctx context.Context, h *Helper, _ task.Args) error {
			_, err := h.BuildGem(ctx)
			return err
		},
	},
	{
		Name:      "build:checksum",
		Summary:   "Generate a SHA512 checksum of the gem.",
		DependsOn: []string{"build"},
		Describe: func(h *Helper) string {
			return fmt.Sprintf("Generate SHA512 checksum of %s into the %s directory.", h.spec.FileName(), h.cfg.ChecksumsDir)
		},
		Action: func(ctx context.Context, h *Helper, _ task.Args) error {
			_, err := h.BuildChecksum(ctx)
			return err
		},
	},
	{
		Name:      "install",
		Summary:   "Build and install the gem into system gems.",
		DependsOn: []string{"build"},
		Describe: func(h *Helper) string {
			return fmt.Sprintf("Build and install %s into system gems.", h.spec.FileName())
		},
		Action: func(ctx context.Context, h *Helper, _ task.Args) error {
			return h.InstallGem(ctx, "", false)
		},
	},
	{
		Name:      "install:local",
		Summary:   "Build and install the gem without network access.",
		DependsOn: []string{"build"},
		Describe: func(h *Helper) string {
			return fmt.Sprintf("Build and install %s into system gems without network access.", h.spec.FileName())
		},
		Action: func(ctx context.Context, h *Helper, _ task.Args) error {
			return h.InstallGem(ctx, "", true)
		},
	},
	{
		Name:      "release",
		Summary:   "Tag, push and publish the current version.",
		DependsOn: []string{"release:guard_clean", "build", "release:source_control_push", "release:rubygem_push"},
		ArgNames:  []string{ArgRemote},
		Describe: func(h *Helper) string {
			return fmt.Sprintf("Create tag %s and build and push %s to %s.", h.TagName(), h.spec.FileName(), h.PushTarget().Host)
		},
	},
	{
		Name:    "release:guard_clean",
		Summary: "Fail unless the working tree is committed.",
		Describe: func(*Helper) string {
			return "Fail unless the working tree and index match HEAD."
		},
		Action: func(ctx context.Context, h *Helper, _ task.Args) error {
			return h.GuardClean(ctx)
		},
	},
	{
		Name:     "release:source_control_push",
		Summary:  "Tag the version and push branch and tag.",
		ArgNames: []string{ArgRemote},
		Describe: func(h *Helper) string {
			return fmt.Sprintf("Create tag %s and push the branch and tag.", h.TagName())
		},
		Action: func(ctx context.Context, h *Helper, args task.Args) error {
			return h.SourceControlPush(ctx, args.Get(ArgRemote))
		},
	},
	{
		Name:    "release:rubygem_push",
		Summary: "Publish the gem to its registry.",
		Describe: func(h *Helper) string {
			return fmt.Sprintf("Push %s to %s.", h.spec.FileName(), h.PushTarget().Host)
		},
		Action: func(ctx context.Context, h *Helper, _ task.Args) error {
			return h.RubygemPush(ctx)
		},
	},
}

// RegisterTasks installs the command table into reg, bound to h.
func RegisterTasks(reg *task.Registry, h *Helper) error {
	for _, cmd := range Commands {
		def := task.Definition{
			Name:        cmd.Name,
			Description: cmd.Describe(h),
			DependsOn:   cmd.DependsOn,
			ArgNames:    cmd.ArgNames,
		}
		if cmd.Action != nil {
			action := cmd.Action
			def.Action = func(ctx context.Context, args task.Args) error {
				return action(ctx, h, args)
			}
		}
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("helper: %w", err)
		}
	}
	return reg.Validate()
}
