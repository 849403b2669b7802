package pipeline

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/ninegate/internal/exec"
	"github.com/ShayCichocki/ninegate/internal/parse"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// testResultsFile is the structured report preferred over raw runner
// output when a test run leaves one behind.
const testResultsFile = "test-results.json"

// RunTests runs the project's unit test suite. Two distinct blocking
// failures exist: no test script configured at all, and a test script
// that executes zero tests. Both must surface their own message.
func (p *Pipeline) RunTests(ctx context.Context, root sandbox.Root, dir string) TestResult {
	if !hasManifest(root, dir) {
		return TestResult{
			Errors: []string{fmt.Sprintf("no %s found in %q", manifestPath, displayDir(dir))},
		}
	}
	if !hasScript(root, dir, "test") {
		return TestResult{
			Errors: []string{"no test script configured in package.json; add a \"test\" script to enable unit testing"},
		}
	}

	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     dir,
		Script:  "npm test",
		Timeout: p.cfg.Timeouts.Test,
	})
	if err != nil {
		return TestResult{Errors: []string{err.Error()}}
	}

	counts := p.testCounts(root, dir, res.Combined())
	result := TestResult{
		TestsPassed: counts.Passed,
		TestsFailed: counts.Failed,
		TestsTotal:  counts.Total,
		Duration:    res.Duration,
	}
	if cov := p.coverageFor(root, dir); cov != nil {
		result.Coverage = cov
	}

	switch {
	case res.TimedOut:
		result.Errors = []string{fmt.Sprintf("tests timed out after %s", p.cfg.Timeouts.Test)}
	case counts.Total == 0:
		// A configured but empty suite is its own failure, distinct from
		// having no test script.
		result.Errors = []string{"test script is configured but no tests executed"}
	case counts.Failed > 0:
		result.Errors = []string{fmt.Sprintf("%d of %d tests failed", counts.Failed, counts.Total)}
	case !res.Success:
		result.Errors = []string{fmt.Sprintf("test runner exited with code %d", res.ExitCode)}
	}
	result.Success = len(result.Errors) == 0
	p.logger.Log("tests: success=%v passed=%d failed=%d total=%d",
		result.Success, counts.Passed, counts.Failed, counts.Total)
	return result
}

// testCounts prefers the structured results file over raw runner output.
func (p *Pipeline) testCounts(root sandbox.Root, dir, rawOutput string) parse.TestCounts {
	if data, err := root.ReadFile(joinDir(dir, testResultsFile)); err == nil {
		if counts := parse.TestSummary(string(data)); counts.FromJSON {
			return counts
		}
	}
	return parse.TestSummary(rawOutput)
}

// coverageFor reads the istanbul coverage summary if the run produced one.
func (p *Pipeline) coverageFor(root sandbox.Root, dir string) *float64 {
	data, err := root.ReadFile(joinDir(dir, "coverage/coverage-summary.json"))
	if err != nil {
		return nil
	}
	cov, ok := parse.CoverageSummary(string(data))
	if !ok {
		return nil
	}
	agg := cov.Aggregate()
	return &agg
}

// RunIntegrationTests runs the integration suite when one exists. Absence
// of integration test files is a pass (not applicable); files without a
// runner script is a pass with a warning; files with a runner are executed
// and judged on failure count.
func (p *Pipeline) RunIntegrationTests(ctx context.Context, root sandbox.Root, dir string) IntegrationResult {
	files := p.findIntegrationFiles(root, dir)
	if len(files) == 0 {
		return IntegrationResult{Success: true, Applicable: false}
	}

	if !hasScript(root, dir, "test:integration") {
		return IntegrationResult{
			Success:    true,
			Applicable: true,
			Warnings: []string{fmt.Sprintf(
				"found %d integration test file(s) but no test:integration script; tests were not executed", len(files))},
		}
	}

	res, err := p.runner.Run(ctx, exec.Command{
		Root:    root,
		Dir:     dir,
		Script:  "npm run test:integration",
		Timeout: p.cfg.Timeouts.Test,
	})
	if err != nil {
		return IntegrationResult{Applicable: true, Errors: []string{err.Error()}}
	}

	counts := parse.TestSummary(res.Combined())
	result := IntegrationResult{
		Applicable: true,
		Executed:   true,
		Counts:     counts,
		Duration:   res.Duration,
	}
	if res.TimedOut {
		result.Errors = append(result.Errors, "integration tests timed out")
	}
	if counts.Failed > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("%d integration test(s) failed", counts.Failed))
	}
	result.Success = len(result.Errors) == 0
	return result
}

// findIntegrationFiles scans the conventional integration-test locations.
func (p *Pipeline) findIntegrationFiles(root sandbox.Root, dir string) []string {
	patterns := []string{
		joinDir(dir, "tests/integration/*.test.ts"),
		joinDir(dir, "tests/integration/*.test.js"),
		joinDir(dir, "test/integration/*.test.ts"),
		joinDir(dir, "test/integration/*.test.js"),
		joinDir(dir, "src/*.integration.test.ts"),
	}
	var files []string
	for _, pattern := range patterns {
		matches, err := root.Glob(pattern)
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	return files
}
