// Package exec provides an interface for command execution inside a
// project sandbox.
package exec

import (
	"context"
	"time"

	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// Command describes one external tool invocation. The working directory is
// always a sandbox root (or a validated subdirectory of one); commands can
// not be pointed outside a project's workspace.
type Command struct {
	// Root is the project sandbox the command runs inside.
	Root sandbox.Root
	// Dir is an optional root-relative working directory (e.g. "frontend").
	Dir string
	// Script is the shell command to execute via "sh -c".
	Script string
	// Timeout is the maximum run time. Zero means DefaultTimeout.
	Timeout time.Duration
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// DefaultTimeout bounds commands that don't specify their own timeout.
const DefaultTimeout = 2 * time.Minute

// Result is the outcome of one command invocation. Runner implementations
// always return a Result; OS-level failures (command not found, spawn
// errors) are folded into it rather than returned as errors, so callers
// always have a verdict to report.
type Result struct {
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
	// ExitCode is the process exit code, or -1 if the process never ran.
	ExitCode int
	// Success is true iff the process exited zero within its timeout.
	Success bool
	// TimedOut is true if the process was killed for exceeding its timeout.
	TimedOut bool
	// Duration is how long the command ran.
	Duration time.Duration
}

// Combined returns stdout and stderr concatenated, for parsers that scan
// both streams.
func (r Result) Combined() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes the command and returns its result. The returned error
	// is reserved for context cancellation; tool failures are in Result.
	Run(ctx context.Context, cmd Command) (Result, error)
}
