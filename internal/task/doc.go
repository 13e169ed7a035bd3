// Package task holds the explicit command table of the release helper.
//
// Tasks are registered by name with an ordered list of prerequisites. A run
// of a target first resolves a Plan: prerequisites depth-first in declared
// order, each task scheduled once. The Runner then executes steps
// sequentially, stopping at the first failure.
package task
