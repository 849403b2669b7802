package pipeline

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/ninegate/internal/exec"
	"github.com/ShayCichocki/ninegate/internal/parse"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// RunLint runs the project linter. Any non-zero error count fails;
// warnings alone do not.
func (p *Pipeline) RunLint(ctx context.Context, root sandbox.Root, dir string) LintResult {
	lintCmd := "npx eslint ."
	if hasScript(root, dir, "lint") {
		lintCmd = "npm run lint"
	}

	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     dir,
		Script:  lintCmd,
		Timeout: p.cfg.Timeouts.Lint,
	})
	if err != nil {
		return LintResult{Errors: []string{err.Error()}}
	}

	counts := parse.Lint(res.Combined())
	result := LintResult{
		Counts:   counts,
		Duration: res.Duration,
	}
	if res.TimedOut {
		result.Errors = append(result.Errors, "lint timed out")
	}
	if counts.Errors > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("%d lint error(s)", counts.Errors))
	}
	// A non-zero exit with zero parsed errors still fails: the linter
	// itself crashed or misconfigured.
	if !res.Success && counts.Errors == 0 && !res.TimedOut && counts.Warnings == 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("linter exited with code %d", res.ExitCode))
	}
	result.Success = len(result.Errors) == 0
	p.logger.Log("lint: success=%v errors=%d warnings=%d", result.Success, counts.Errors, counts.Warnings)
	return result
}

// RunSecurityScan audits dependencies. Any critical or high vulnerability
// fails the scan; moderate and low counts are recorded but non-blocking.
func (p *Pipeline) RunSecurityScan(ctx context.Context, root sandbox.Root, dir string) SecurityResult {
	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     dir,
		Script:  "npm audit --json",
		Timeout: p.cfg.Timeouts.Security,
	})
	if err != nil {
		return SecurityResult{Errors: []string{err.Error()}}
	}

	// npm audit exits non-zero whenever vulnerabilities exist, so the
	// verdict comes from the parsed counts, not the exit code.
	vulns := parse.Audit(res.Combined())
	result := SecurityResult{
		Vulns:    vulns,
		Duration: res.Duration,
	}
	if res.TimedOut {
		result.Errors = append(result.Errors, "security scan timed out")
	}
	if vulns.Blocking() {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%d critical and %d high severity vulnerabilities found", vulns.Critical, vulns.High))
	}
	result.Success = len(result.Errors) == 0
	p.logger.Log("security: success=%v critical=%d high=%d moderate=%d low=%d",
		result.Success, vulns.Critical, vulns.High, vulns.Moderate, vulns.Low)
	return result
}
