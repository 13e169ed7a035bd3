// Package helper orchestrates gem packaging and release for one gem
// directory.
//
// A Helper resolves and loads the gemspec once at construction and then
// exposes the individual steps (build, checksum, install, guard, tag, push,
// publish). RegisterTasks binds those steps into a task.Registry so the CLI
// can run them by name with their prerequisites.
package helper
