// Package tui renders a task run as a live bubbletea view: one line per
// step with a spinner on the running one, and the tail of the run's
// messages underneath.
package tui
