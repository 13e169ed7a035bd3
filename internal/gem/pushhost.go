package gem

import "strings"

const (
	// DefaultHost is how the public registry is named in messages.
	DefaultHost = "rubygems.org"
	// HostEnv overrides the registry for the gem binary itself.
	HostEnv = "RUBYGEMS_HOST"
)

// HostSource records which rule picked a push host.
type HostSource string

const (
	HostFromGemspec HostSource = "gemspec"
	HostFromEnv     HostSource = "env"
	HostDefault     HostSource = "default"
)

// PushTarget is the resolved registry a gem is published to.
type PushTarget struct {
	Host   string
	Source HostSource
}

// Explicit reports whether the host must be passed to gem push. The
// environment override is read by the gem binary directly and the default
// needs no flag.
func (t PushTarget) Explicit() bool {
	return t.Source == HostFromGemspec
}

// Args returns the extra gem push flags for this target.
func (t PushTarget) Args() []string {
	if !t.Explicit() {
		return nil
	}
	return []string{"--host", t.Host}
}

// ResolvePushTarget applies the precedence gemspec allowed_push_host, then a
// non-empty RUBYGEMS_HOST, then the public registry.
func ResolvePushTarget(allowedHost, envHost string) PushTarget {
	if host := strings.TrimSpace(allowedHost); host != "" {
		return PushTarget{Host: host, Source: HostFromGemspec}
	}
	if host := strings.TrimSpace(envHost); host != "" {
		return PushTarget{Host: host, Source: HostFromEnv}
	}
	return PushTarget{Host: DefaultHost, Source: HostDefault}
}
