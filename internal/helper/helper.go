package helper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kingrea/gemhelper/internal/config"
	"github.com/kingrea/gemhelper/internal/gem"
	"github.com/kingrea/gemhelper/internal/gemspec"
	"github.com/kingrea/gemhelper/internal/git"
	"github.com/kingrea/gemhelper/internal/runner"
	"github.com/kingrea/gemhelper/internal/ui"
)

// SpecLoader evaluates a gemspec file.
type SpecLoader interface {
	Load(ctx context.Context, path string) (*gemspec.Spec, error)
}

// Helper packages and releases the gem rooted at one directory.
type Helper struct {
	cfg    *config.Config
	spec   *gemspec.Spec
	runner runner.Runner
	loader SpecLoader
	ui     *ui.UI
	logger *zap.Logger
	gem    *gem.Client
	git    *git.Client

	interactivePush bool
	built           string
}

// Option customizes a Helper.
type Option func(*Helper)

// WithRunner swaps the subprocess runner (fakes in tests).
func WithRunner(r runner.Runner) Option {
	return func(h *Helper) {
		if r != nil {
			h.runner = r
		}
	}
}

// WithLoader swaps the gemspec loader.
func WithLoader(l SpecLoader) Option {
	return func(h *Helper) {
		if l != nil {
			h.loader = l
		}
	}
}

// WithUI sets where confirmations and errors are printed.
func WithUI(u *ui.UI) Option {
	return func(h *Helper) {
		if u != nil {
			h.ui = u
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Helper) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithInteractivePush controls whether gem push gets the terminal.
func WithInteractivePush(enabled bool) Option {
	return func(h *Helper) {
		h.interactivePush = enabled
	}
}

// New resolves and loads the gemspec for cfg.Dir. The spec is read once and
// treated as immutable afterwards.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Helper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("helper: config is required")
	}
	h := &Helper{
		cfg:             cfg,
		logger:          zap.NewNop(),
		interactivePush: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.runner == nil {
		h.runner = runner.NewExec(runner.WithLogger(h.logger))
	}
	if h.loader == nil {
		h.loader = gemspec.NewLoader(h.runner)
	}
	if h.ui == nil {
		h.ui = ui.New(os.Stdout, os.Stderr)
	}

	res, err := gemspec.Resolve(cfg.Dir, cfg.Name)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	spec, err := h.loader.Load(ctx, res.Path)
	if err != nil {
		return nil, err
	}
	if spec.Path == "" {
		spec.Path = res.Path
	}
	h.spec = spec
	h.gem = gem.NewClient(h.runner, res.Dir,
		gem.WithCommand(cfg.GemCommand...),
		gem.WithInteractivePush(h.interactivePush))
	h.git = git.NewClient(h.runner, res.Dir)
	h.logger.Debug("loaded gemspec",
		zap.String("path", spec.Path),
		zap.String("name", spec.Name),
		zap.String("version", spec.Version))
	return h, nil
}

// Spec returns the loaded gemspec.
func (h *Helper) Spec() *gemspec.Spec { return h.spec }

// Base is the gem root directory.
func (h *Helper) Base() string { return h.cfg.Dir }

// Config returns the configuration the helper was built with.
func (h *Helper) Config() *config.Config { return h.cfg }

// TagName is the release tag for the current version.
func (h *Helper) TagName() string {
	return h.cfg.TagPrefix + h.spec.Version
}

// BuiltGem returns the archive built during this run, if any.
func (h *Helper) BuiltGem() string { return h.built }

func (h *Helper) relative(path string) string {
	rel, err := filepath.Rel(h.cfg.Dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
