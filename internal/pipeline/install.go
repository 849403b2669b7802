package pipeline

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/ninegate/internal/exec"
	"github.com/ShayCichocki/ninegate/internal/parse"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// InstallDependencies runs the package installer for the workspace (or a
// sub-project directory). Failure here must short-circuit all downstream
// checks; callers consult InstallResult.Success before running anything
// else.
func (p *Pipeline) InstallDependencies(ctx context.Context, root sandbox.Root, dir string) InstallResult {
	if !hasManifest(root, dir) {
		return InstallResult{
			Errors: []string{fmt.Sprintf("no %s found in %q", manifestPath, displayDir(dir))},
		}
	}

	installCmd := "npm install"
	if root.FileExists(joinDir(dir, "package-lock.json")) {
		installCmd = "npm ci"
	}

	p.logger.Log("install: running %q in %q", installCmd, displayDir(dir))
	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     dir,
		Script:  installCmd,
		Timeout: p.cfg.Timeouts.Install,
	})
	if err != nil {
		return InstallResult{Errors: []string{err.Error()}}
	}

	combined := res.Combined()
	result := InstallResult{
		Errors:   parse.InstallErrors(combined),
		Warnings: parse.InstallWarnings(combined),
		Duration: res.Duration,
	}
	if res.TimedOut {
		result.Errors = append(result.Errors, fmt.Sprintf("install timed out after %s", p.cfg.Timeouts.Install))
	}
	result.Success = res.Success && len(result.Errors) == 0
	if !result.Success && len(result.Errors) == 0 {
		result.Errors = []string{fmt.Sprintf("installer exited with code %d", res.ExitCode)}
	}
	p.logger.Log("install: success=%v errors=%d", result.Success, len(result.Errors))
	return result
}

// displayDir renders a sub-project dir for messages, "." for the root.
func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
