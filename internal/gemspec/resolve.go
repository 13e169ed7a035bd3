package gemspec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension is the suffix every gem descriptor carries.
const Extension = ".gemspec"

// Reason classifies the outcome of a descriptor scan.
type Reason int

const (
	ReasonFound Reason = iota
	ReasonMissing
	ReasonAmbiguous
)

func (r Reason) String() string {
	switch r {
	case ReasonFound:
		return "found"
	case ReasonMissing:
		return "missing"
	case ReasonAmbiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Resolution is the typed outcome of Resolve.
type Resolution struct {
	Dir        string
	Name       string
	Path       string
	Candidates []string
	Reason     Reason
}

// Err converts an unsuccessful resolution into a *SetupError.
func (r Resolution) Err() error {
	if r.Reason == ReasonFound {
		return nil
	}
	return &SetupError{Dir: r.Dir, Name: r.Name, Reason: r.Reason, Candidates: append([]string{}, r.Candidates...)}
}

// SetupError reports that no single gemspec could be chosen or loaded.
type SetupError struct {
	Dir        string
	Name       string
	Reason     Reason
	Candidates []string
	Detail     string
}

func (e *SetupError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Name != "" {
		return fmt.Sprintf("Unable to find %s%s in %s.", e.Name, Extension, e.Dir)
	}
	return fmt.Sprintf("Unable to determine name from existing gemspec in %s. Use --name to set it manually.", e.Dir)
}

// Resolve locates the descriptor for dir. With an explicit name the file
// <dir>/<name>.gemspec must exist; otherwise exactly one *.gemspec (a bare
// ".gemspec" included) must be present. Only I/O failures are returned as
// errors; an ambiguous or empty directory is reported through the Reason.
func Resolve(dir, name string) (Resolution, error) {
	if strings.TrimSpace(dir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Resolution{}, fmt.Errorf("gemspec: determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Resolution{}, fmt.Errorf("gemspec: resolve %s: %w", dir, err)
	}
	res := Resolution{Dir: abs, Name: strings.TrimSpace(name)}
	if res.Name != "" {
		path := filepath.Join(abs, res.Name+Extension)
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			res.Reason = ReasonMissing
			return res, nil
		case err != nil:
			return Resolution{}, fmt.Errorf("gemspec: stat %s: %w", path, err)
		case info.IsDir():
			res.Reason = ReasonMissing
			return res, nil
		}
		res.Path = path
		res.Candidates = []string{path}
		res.Reason = ReasonFound
		return res, nil
	}
	candidates, err := Discover(abs)
	if err != nil {
		return Resolution{}, err
	}
	res.Candidates = candidates
	switch len(candidates) {
	case 0:
		res.Reason = ReasonMissing
	case 1:
		res.Reason = ReasonFound
		res.Path = candidates[0]
	default:
		res.Reason = ReasonAmbiguous
	}
	return res, nil
}

// Discover lists every gemspec file directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("gemspec: read %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		if entry.IsDir() {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, nil
}
