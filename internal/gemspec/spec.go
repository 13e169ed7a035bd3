package gemspec

import (
	"fmt"
	"strings"
	"unicode"
)

// MetadataAllowedPushHost is the gemspec metadata key restricting where the
// gem may be published.
const MetadataAllowedPushHost = "allowed_push_host"

// Spec is the subset of a gem specification the release tasks need.
type Spec struct {
	Path     string            `yaml:"-"`
	Name     string            `yaml:"name"`
	Version  string            `yaml:"version"`
	Homepage string            `yaml:"homepage,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// Validate ensures the spec can produce an archive name.
func (s *Spec) Validate() error {
	if s == nil {
		return fmt.Errorf("gemspec: spec is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("gemspec: %s has no name", s.Path)
	}
	if strings.TrimSpace(s.Version) == "" {
		return fmt.Errorf("gemspec: %s has no version", s.Path)
	}
	return nil
}

// FullName is the archive stem, e.g. "rake-13.0.6".
func (s *Spec) FullName() string {
	return s.Name + "-" + s.Version
}

// FileName is the archive file name the toolchain produces.
func (s *Spec) FileName() string {
	return s.FullName() + ".gem"
}

// AllowedPushHost returns the metadata-declared push host, if any.
func (s *Spec) AllowedPushHost() string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(s.Metadata[MetadataAllowedPushHost])
}

// ModuleName maps a gem name onto the Ruby constant that conventionally
// namespaces it: dashes separate namespaces and underscores separate words,
// so "net-http_persistent" becomes "Net::HttpPersistent".
func (s *Spec) ModuleName() string {
	return ModuleName(s.Name)
}

// ModuleName is the free-function form of Spec.ModuleName.
func ModuleName(name string) string {
	var parts []string
	for _, segment := range strings.Split(name, "-") {
		var b strings.Builder
		for _, word := range strings.Split(segment, "_") {
			if word == "" {
				continue
			}
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
		if b.Len() > 0 {
			parts = append(parts, b.String())
		}
	}
	return strings.Join(parts, "::")
}
