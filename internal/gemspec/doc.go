// Package gemspec finds the single gem descriptor in a directory and loads
// the handful of fields the release tasks depend on (name, version, homepage
// and metadata). Loading is delegated to RubyGems itself because a gemspec
// is executable Ruby.
package gemspec
