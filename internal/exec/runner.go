package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"syscall"
	"time"
)

// SandboxRunner implements CommandRunner using os/exec. Commands run in
// their own process group so a timeout kills the whole tree, not just the
// shell.
type SandboxRunner struct{}

// NewRunner creates a new SandboxRunner.
func NewRunner() *SandboxRunner {
	return &SandboxRunner{}
}

// Run executes the command inside its sandbox root.
func (r *SandboxRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	start := time.Now()

	workDir := cmd.Root.Dir()
	if cmd.Dir != "" {
		abs, err := cmd.Root.Join(cmd.Dir)
		if err != nil {
			return Result{
				Stderr:   fmt.Sprintf("invalid working directory %q: %v", cmd.Dir, err),
				ExitCode: -1,
				Duration: time.Since(start),
			}, nil
		}
		workDir = abs
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := osexec.Command("sh", "-c", cmd.Script)
	proc.Dir = workDir
	proc.Env = append(os.Environ(), cmd.Env...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	if err := proc.Start(); err != nil {
		// Spawn failure (e.g. sh missing). Fold into the result.
		return Result{
			Stderr:   fmt.Sprintf("failed to start command: %v", err),
			ExitCode: -1,
			Duration: time.Since(start),
		}, nil
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		timedOut = runCtx.Err() == context.DeadlineExceeded
		// Kill the whole process group, then reap the child.
		_ = syscall.Kill(-proc.Process.Pid, syscall.SIGKILL)
		waitErr = <-done
		if ctx.Err() != nil && !timedOut {
			return Result{Duration: time.Since(start), ExitCode: -1}, ctx.Err()
		}
	}

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: proc.ProcessState.ExitCode(),
		TimedOut: timedOut,
		Duration: time.Since(start),
	}
	if timedOut {
		res.Stderr += fmt.Sprintf("\ncommand timed out after %s", timeout)
	}
	res.Success = waitErr == nil && res.ExitCode == 0 && !timedOut
	return res, nil
}

// Verify SandboxRunner implements CommandRunner at compile time.
var _ CommandRunner = (*SandboxRunner)(nil)
