// Package gem wraps the RubyGems command line: building an archive from a
// gemspec, installing it, and pushing it to a registry host.
package gem
