package helper

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kingrea/gemhelper/internal/runner"
)

// ChecksumExtension names checksum files after their archive.
const ChecksumExtension = ".sha512"

// BuildGem packages the gemspec and moves the archive into the pkg
// directory, returning its absolute path.
func (h *Helper) BuildGem(ctx context.Context) (string, error) {
	if err := h.spec.Validate(); err != nil {
		return "", err
	}
	if _, err := h.gem.Build(ctx, h.spec.Path); err != nil {
		return "", asToolchainError(err)
	}
	src, err := h.findBuiltGem()
	if err != nil {
		return "", err
	}
	pkgDir := h.cfg.PkgPath()
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return "", fmt.Errorf("helper: create %s: %w", pkgDir, err)
	}
	dst := filepath.Join(pkgDir, filepath.Base(src))
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("helper: move %s to %s: %w", src, pkgDir, err)
	}
	h.built = dst
	h.logger.Debug("built gem", zap.String("path", dst))
	h.ui.Confirm("%s %s built to %s.", h.spec.Name, h.spec.Version, h.relative(dst))
	return dst, nil
}

// The toolchain writes the archive next to the gemspec. The exact
// name-version file is preferred; otherwise the newest name-*.gem wins.
func (h *Helper) findBuiltGem() (string, error) {
	dir := h.cfg.Dir
	exact := filepath.Join(dir, h.spec.FileName())
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return exact, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, h.spec.Name+"-*.gem"))
	if err != nil {
		return "", fmt.Errorf("helper: scan %s: %w", dir, err)
	}
	var (
		newest   string
		newestAt int64
	)
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if at := info.ModTime().UnixNano(); newest == "" || at > newestAt {
			newest, newestAt = match, at
		}
	}
	if newest == "" {
		return "", fmt.Errorf("helper: gem build reported success but no %s-*.gem was written to %s", h.spec.Name, dir)
	}
	return newest, nil
}

// BuildChecksum writes the SHA-512 digest of the built archive, building it
// first when this run has not done so yet.
func (h *Helper) BuildChecksum(ctx context.Context) (string, error) {
	path := h.built
	if path == "" {
		built, err := h.BuildGem(ctx)
		if err != nil {
			return "", err
		}
		path = built
	}
	digest, err := fileSHA512(path)
	if err != nil {
		return "", err
	}
	dir := h.cfg.ChecksumsPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("helper: create %s: %w", dir, err)
	}
	out := filepath.Join(dir, filepath.Base(path)+ChecksumExtension)
	if err := os.WriteFile(out, []byte(digest+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("helper: write %s: %w", out, err)
	}
	h.ui.Confirm("%s %s checksum written to %s.", h.spec.Name, h.spec.Version, h.relative(out))
	return out, nil
}

func fileSHA512(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("helper: open %s: %w", path, err)
	}
	defer f.Close()
	sum := sha512.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("helper: hash %s: %w", path, err)
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// InstallGem installs the archive at path, or the one built in this run, or
// a fresh build when neither exists. A local install never contacts a remote
// source.
func (h *Helper) InstallGem(ctx context.Context, path string, local bool) error {
	if path == "" {
		path = h.built
	}
	if path == "" {
		built, err := h.BuildGem(ctx)
		if err != nil {
			return err
		}
		path = built
	}
	if _, err := h.gem.Install(ctx, path, local); err != nil {
		var subErr *runner.SubprocessError
		if errors.As(err, &subErr) {
			return &InstallError{Name: h.spec.Name, Version: h.spec.Version, Err: subErr}
		}
		return err
	}
	h.ui.Confirm("%s (%s) installed.", h.spec.Name, h.spec.Version)
	return nil
}

// existingGem returns the packaged archive for the current version when one
// is already on disk.
func (h *Helper) existingGem() (string, bool) {
	path := filepath.Join(h.cfg.PkgPath(), h.spec.FileName())
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}
