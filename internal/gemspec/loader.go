package gemspec

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/gemhelper/internal/runner"
)

// loadScript evaluates a gemspec with RubyGems and prints the fields we need
// as a plain YAML mapping so no Ruby-specific tags reach the decoder.
const loadScript = `spec = Gem::Specification.load(ARGV[0]) or abort("Invalid gemspec in [#{ARGV[0]}]")
require "yaml"
puts({
  "name" => spec.name.to_s,
  "version" => spec.version.to_s,
  "homepage" => spec.homepage.to_s,
  "metadata" => spec.metadata.to_h { |k, v| [k.to_s, v.to_s] },
}.to_yaml)`

// Loader evaluates gemspec files through the Ruby interpreter.
type Loader struct {
	runner runner.Runner
	ruby   []string
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithRuby overrides the interpreter argv (defaults to "ruby").
func WithRuby(argv ...string) LoaderOption {
	return func(l *Loader) {
		if len(argv) > 0 {
			l.ruby = append([]string{}, argv...)
		}
	}
}

// NewLoader returns a loader that shells out through r.
func NewLoader(r runner.Runner, opts ...LoaderOption) *Loader {
	l := &Loader{runner: r, ruby: []string{"ruby"}}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load evaluates the gemspec at path. Gemspecs commonly shell out to git
// relative to their own directory, so the interpreter runs there.
func (l *Loader) Load(ctx context.Context, path string) (*Spec, error) {
	if l == nil || l.runner == nil {
		return nil, fmt.Errorf("gemspec: loader is not configured")
	}
	argv := append(append([]string{}, l.ruby...), "-e", loadScript, path)
	cmd := runner.Command{Args: argv, Dir: filepath.Dir(path)}
	res, err := runner.RunChecked(ctx, l.runner, cmd)
	if err != nil {
		var subErr *runner.SubprocessError
		if errors.As(err, &subErr) {
			detail := strings.TrimSpace(subErr.Result.Output())
			if detail == "" {
				detail = fmt.Sprintf("Unable to load %s", path)
			}
			return nil, &SetupError{Dir: filepath.Dir(path), Detail: detail}
		}
		return nil, fmt.Errorf("gemspec: load %s: %w", path, err)
	}
	return Parse(path, []byte(res.Stdout))
}

// Parse decodes the YAML emitted by the load script.
func Parse(path string, data []byte) (*Spec, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("gemspec: %s produced no specification", path)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("gemspec: parse %s: %w", path, err)
	}
	spec.Path = path
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
