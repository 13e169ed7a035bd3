// Package runner abstracts external program execution. Everything that shells
// out to gem, git or ruby goes through the Runner interface so tests can swap
// in the deterministic fake from runnertest.
package runner
