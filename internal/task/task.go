package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Args carries named task arguments (e.g. release's remote).
type Args map[string]string

// Get returns the named argument or "".
func (a Args) Get(name string) string {
	if a == nil {
		return ""
	}
	return a[name]
}

// Clone returns a copy of the argument map.
func (a Args) Clone() Args {
	if len(a) == 0 {
		return nil
	}
	out := make(Args, len(a))
	for key, value := range a {
		out[key] = value
	}
	return out
}

// Action is the body of a task. A nil action makes the task a pure
// aggregate of its prerequisites.
type Action func(ctx context.Context, args Args) error

// Definition declares a named task and its prerequisites.
type Definition struct {
	Name        string
	Description string
	// DependsOn lists prerequisite task names, run in this order.
	DependsOn []string
	// ArgNames declares the positional arguments the task accepts. Arguments
	// are also handed to prerequisites declaring the same name.
	ArgNames []string
	Action   Action
}

// Validate ensures the definition is well-formed on its own.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("task: name is required")
	}
	if strings.ContainsAny(d.Name, " \t\n") {
		return fmt.Errorf("task: name %q must not contain whitespace", d.Name)
	}
	if dup := firstDuplicate(d.DependsOn); dup != "" {
		return fmt.Errorf("task: %s has duplicate dependency on %s", d.Name, dup)
	}
	if dup := firstDuplicate(d.ArgNames); dup != "" {
		return fmt.Errorf("task: %s declares argument %s twice", d.Name, dup)
	}
	for _, dep := range d.DependsOn {
		if dep == d.Name {
			return fmt.Errorf("task: %s depends on itself", d.Name)
		}
	}
	return nil
}

// Usage renders the task name with its arguments, rake style:
// "release[remote]".
func (d Definition) Usage() string {
	if len(d.ArgNames) == 0 {
		return d.Name
	}
	return d.Name + "[" + strings.Join(d.ArgNames, ",") + "]"
}

func (d Definition) clone() Definition {
	clone := d
	clone.DependsOn = append([]string(nil), d.DependsOn...)
	clone.ArgNames = append([]string(nil), d.ArgNames...)
	return clone
}

func firstDuplicate(values []string) string {
	sorted := append([]string{}, values...)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return sorted[i]
		}
	}
	return ""
}
