package pipeline

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/ninegate/internal/exec"
	"github.com/ShayCichocki/ninegate/internal/parse"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// e2eConfigFiles are the Playwright config locations checked before a run.
var e2eConfigFiles = []string{
	"playwright.config.ts",
	"playwright.config.js",
	"playwright.config.mjs",
}

// e2eSpecGlobs are the locations searched for E2E spec files.
var e2eSpecGlobs = []string{
	"e2e/*.spec.ts",
	"e2e/*.spec.js",
	"tests/e2e/*.spec.ts",
	"tests/e2e/*.spec.js",
}

// RunE2E runs the end-to-end suite. The preconditions are checked in a
// fixed order, each failing with its own actionable message:
//
//  1. a live preview server must be reachable (registry, then port probe);
//  2. an E2E runner config must exist;
//  3. the frontend must independently build cleanly; a dev server can
//     serve a stale bundle that hides a broken build;
//  4. spec files must exist;
//  5. the runner's browser dependencies are ensured present;
//  6. tests execute with the JSON reporter, with a text fallback.
func (p *Pipeline) RunE2E(ctx context.Context, root sandbox.Root, projectID string) E2EResult {
	// 1. Live preview server.
	port, ok := p.preview.Discover(projectID, p.cfg.Preview.PortStart, p.cfg.Preview.PortEnd)
	if !ok {
		return E2EResult{Errors: []string{fmt.Sprintf(
			"no preview server reachable on ports %d-%d; start the dev server before running E2E tests",
			p.cfg.Preview.PortStart, p.cfg.Preview.PortEnd)}}
	}
	p.logger.Log("e2e: preview server found on port %d", port)

	// 2. Runner config.
	frontendDir := p.frontendDir(root)
	if !p.hasE2EConfig(root, frontendDir) {
		return E2EResult{Errors: []string{"no Playwright config found; add playwright.config.ts to enable E2E tests"}}
	}

	// 3. Independent frontend build.
	build := p.RunBuild(ctx, root, frontendDir)
	if !build.Success {
		errs := append([]string{"frontend build failed; E2E tests would run against a stale bundle"}, build.Errors...)
		return E2EResult{Errors: errs}
	}

	// 4. Spec files.
	specs := p.findE2ESpecs(root, frontendDir)
	if len(specs) == 0 {
		return E2EResult{Errors: []string{"no E2E spec files found (looked in e2e/ and tests/e2e/)"}}
	}

	// 5. Browser dependencies.
	browserRes, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     frontendDir,
		Script:  "npx playwright install chromium",
		Timeout: p.cfg.Timeouts.Install,
	})
	if err != nil {
		return E2EResult{Errors: []string{err.Error()}}
	}
	if !browserRes.Success {
		return E2EResult{Errors: []string{"failed to install Playwright browser dependencies"}}
	}

	// 6. Execute with the machine-readable reporter.
	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     frontendDir,
		Script:  fmt.Sprintf("PLAYWRIGHT_BASE_URL=http://127.0.0.1:%d npx playwright test --reporter=json", port),
		Timeout: p.cfg.Timeouts.E2E,
	})
	if err != nil {
		return E2EResult{Errors: []string{err.Error()}}
	}

	summary := parse.Playwright(res.Stdout)
	if !summary.FromJSON {
		// JSON parse failed; fall back over the combined text output.
		summary = parse.Playwright(res.Combined())
	}

	result := E2EResult{
		Passed:      summary.Expected,
		Failed:      summary.Unexpected,
		Skipped:     summary.Skipped,
		FailedSpecs: summary.FailedSpecs,
		Duration:    res.Duration,
	}
	if res.TimedOut {
		result.Errors = append(result.Errors, fmt.Sprintf("E2E tests timed out after %s", p.cfg.Timeouts.E2E))
	}
	if summary.Unexpected > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("%d E2E test(s) failed", summary.Unexpected))
	}
	if summary.Total() == 0 && !res.TimedOut {
		result.Errors = append(result.Errors, "E2E runner executed zero tests")
	}
	result.Success = len(result.Errors) == 0
	p.logger.Log("e2e: success=%v passed=%d failed=%d", result.Success, summary.Expected, summary.Unexpected)
	return result
}

// frontendDir returns the sub-directory holding the frontend for split
// projects, or "" when the workspace is a single project.
func (p *Pipeline) frontendDir(root sandbox.Root) string {
	if structure := p.DetectProjectStructure(root); structure.Kind == StructureFullstack {
		return structure.FrontendDir
	}
	return ""
}

// hasE2EConfig checks the conventional Playwright config locations.
func (p *Pipeline) hasE2EConfig(root sandbox.Root, dir string) bool {
	for _, name := range e2eConfigFiles {
		if root.FileExists(joinDir(dir, name)) {
			return true
		}
		// Configs also commonly live at the workspace root of a split project.
		if dir != "" && root.FileExists(name) {
			return true
		}
	}
	return false
}

// findE2ESpecs globs the conventional spec locations, both inside the
// frontend directory and at the workspace root.
func (p *Pipeline) findE2ESpecs(root sandbox.Root, dir string) []string {
	prefixes := []string{dir}
	if dir != "" {
		prefixes = append(prefixes, "")
	}
	var specs []string
	for _, pattern := range e2eSpecGlobs {
		for _, prefix := range prefixes {
			matches, err := root.Glob(joinDir(prefix, pattern))
			if err != nil {
				continue
			}
			specs = append(specs, matches...)
		}
	}
	return specs
}
