package pipeline

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/ninegate/internal/exec"
	"github.com/ShayCichocki/ninegate/internal/parse"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// RunTypeCheck invokes the TypeScript compiler in no-emit mode. Projects
// without a tsconfig are reported as skipped passes (not applicable).
func (p *Pipeline) RunTypeCheck(ctx context.Context, root sandbox.Root, dir string) TypeCheckResult {
	if !root.FileExists(joinDir(dir, "tsconfig.json")) {
		return TypeCheckResult{
			Success:    true,
			Skipped:    true,
			SkipReason: "no tsconfig.json (not a TypeScript project)",
		}
	}

	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     dir,
		Script:  "npx tsc --noEmit",
		Timeout: p.cfg.Timeouts.TypeCheck,
	})
	if err != nil {
		return TypeCheckResult{Errors: []string{err.Error()}}
	}

	combined := res.Combined()
	result := TypeCheckResult{
		ErrorCount: parse.TypeScriptErrorCount(combined),
		Errors:     parse.CompilerErrors(combined),
		Duration:   res.Duration,
	}
	if res.TimedOut {
		result.Errors = append(result.Errors, "type check timed out")
	}
	result.Success = res.Success && result.ErrorCount == 0 && !res.TimedOut
	p.logger.Log("typecheck: success=%v errors=%d", result.Success, result.ErrorCount)
	return result
}

// RunBuild runs the project's build script. A build is successful only if
// the process exits zero AND the parser finds zero compiler/bundler error
// patterns: some build tools exit 0 while still printing fatal errors.
func (p *Pipeline) RunBuild(ctx context.Context, root sandbox.Root, dir string) BuildResult {
	if !hasManifest(root, dir) {
		return BuildResult{
			Errors: []string{fmt.Sprintf("no %s found in %q", manifestPath, displayDir(dir))},
		}
	}
	if !hasScript(root, dir, "build") {
		return BuildResult{
			Success:    true,
			Skipped:    true,
			SkipReason: "no build script configured",
			Warnings:   []string{"package.json has no build script; nothing to build"},
		}
	}

	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     dir,
		Script:  "npm run build",
		Timeout: p.cfg.Timeouts.Build,
	})
	if err != nil {
		return BuildResult{Errors: []string{err.Error()}}
	}

	combined := res.Combined()
	result := BuildResult{
		Errors:   parse.CompilerErrors(combined),
		Duration: res.Duration,
	}
	if res.TimedOut {
		result.Errors = append(result.Errors, fmt.Sprintf("build timed out after %s", p.cfg.Timeouts.Build))
	}
	if !res.Success && len(result.Errors) == 0 {
		result.Errors = []string{fmt.Sprintf("build exited with code %d", res.ExitCode)}
	}
	// Exit code zero is not sufficient on its own.
	result.Success = res.Success && len(result.Errors) == 0
	p.logger.Log("build: success=%v exit=%d parsedErrors=%d", result.Success, res.ExitCode, len(result.Errors))
	return result
}
