package helper

import (
	"context"

	"go.uber.org/zap"

	"github.com/kingrea/gemhelper/internal/gem"
)

const dirtyTreeMessage = "There are files that need to be committed first."

// Release runs the full chain: guard, build, tag and push, publish. The
// first failure aborts the rest; nothing already tagged or pushed is undone.
func (h *Helper) Release(ctx context.Context, remote string) error {
	if err := h.GuardClean(ctx); err != nil {
		return err
	}
	if _, err := h.BuildGem(ctx); err != nil {
		return err
	}
	if err := h.SourceControlPush(ctx, remote); err != nil {
		return err
	}
	return h.RubygemPush(ctx)
}

// GuardClean fails unless the working tree and the index both match HEAD.
func (h *Helper) GuardClean(ctx context.Context) error {
	clean, err := h.git.Clean(ctx)
	if err != nil {
		return err
	}
	if clean {
		clean, err = h.git.Committed(ctx)
		if err != nil {
			return err
		}
	}
	if !clean {
		return &PreconditionError{Message: dirtyTreeMessage, Err: ErrDirtyTree}
	}
	return nil
}

// TagVersion creates the release tag unless a tag with the same name
// already exists. It reports whether a tag was created.
func (h *Helper) TagVersion(ctx context.Context) (bool, error) {
	tag := h.TagName()
	exists, err := h.git.HasTag(ctx, tag)
	if err != nil {
		return false, err
	}
	if exists {
		h.ui.Confirm("Tag %s has already been created.", tag)
		return false, nil
	}
	if err := h.git.Tag(ctx, tag, "Version "+h.spec.Version); err != nil {
		return false, err
	}
	h.ui.Confirm("Tagged %s.", tag)
	return true, nil
}

// GitPush pushes the current branch and the release tag. The remote is the
// argument, then the configured remote, then the branch's tracking remote,
// then origin. Full refs keep a branch and tag of the same name apart.
func (h *Helper) GitPush(ctx context.Context, remote string) error {
	branch, err := h.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if remote == "" {
		remote = h.cfg.Remote
	}
	if remote == "" {
		remote, err = h.git.RemoteForBranch(ctx, branch)
		if err != nil {
			return err
		}
	}
	h.logger.Debug("pushing release", zap.String("remote", remote), zap.String("branch", branch), zap.String("tag", h.TagName()))
	if err := h.git.Push(ctx, remote, "refs/heads/"+branch); err != nil {
		return err
	}
	if err := h.git.Push(ctx, remote, "refs/tags/"+h.TagName()); err != nil {
		return err
	}
	h.ui.Confirm("Pushed git commits and release tag.")
	return nil
}

// SourceControlPush tags the version and pushes. A tag created here is
// deleted again when the push fails so the release can be retried.
func (h *Helper) SourceControlPush(ctx context.Context, remote string) error {
	created, err := h.TagVersion(ctx)
	if err != nil {
		return err
	}
	pushErr := h.GitPush(ctx, remote)
	if pushErr == nil || !created {
		return pushErr
	}
	tag := h.TagName()
	h.ui.Error("Untagging %s due to error.", tag)
	if err := h.git.DeleteTag(ctx, tag); err != nil {
		h.logger.Warn("could not delete release tag", zap.String("tag", tag), zap.Error(err))
	}
	return pushErr
}

// PushTarget resolves the registry the gem will be published to.
func (h *Helper) PushTarget() gem.PushTarget {
	return gem.ResolvePushTarget(h.spec.AllowedPushHost(), h.cfg.RubygemsHost)
}

// RubygemPush publishes the archive unless gem_push is disabled. It uses the
// archive built in this run, else the packaged one on disk, else builds.
func (h *Helper) RubygemPush(ctx context.Context) error {
	if !h.cfg.GemPush {
		h.ui.Info("Skipping gem push for %s %s (gem_push is disabled).", h.spec.Name, h.spec.Version)
		return nil
	}
	path := h.built
	if path == "" {
		if existing, ok := h.existingGem(); ok {
			path = existing
		}
	}
	if path == "" {
		built, err := h.BuildGem(ctx)
		if err != nil {
			return err
		}
		path = built
	}
	target := h.PushTarget()
	h.logger.Debug("publishing gem", zap.String("path", path), zap.String("host", target.Host), zap.String("host_source", string(target.Source)))
	if _, err := h.gem.Push(ctx, path, target, h.cfg.PushKey); err != nil {
		return err
	}
	h.ui.Confirm("Pushed %s %s to %s.", h.spec.Name, h.spec.Version, target.Host)
	return nil
}
