package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// RunFullValidation runs the complete check suite for a workspace.
// Install runs first and is blocking: if it fails, every other check is
// reported as "Skipped (install failed)" without invoking any external
// command. After a successful install, type-check, build, tests, lint and
// security run concurrently. The report's Success is the logical AND of
// every sub-result.
func (p *Pipeline) RunFullValidation(ctx context.Context, root sandbox.Root, projectID string) *ValidationReport {
	start := time.Now()
	report := &ValidationReport{StartedAt: start}

	report.Install = p.InstallDependencies(ctx, root, "")
	if !report.Install.Success {
		skip := SkippedInstallFailed
		report.TypeCheck = TypeCheckResult{Skipped: true, SkipReason: skip, Errors: []string{skip}}
		report.Build = BuildResult{Skipped: true, SkipReason: skip, Errors: []string{skip}}
		report.Tests = TestResult{Skipped: true, SkipReason: skip, Errors: []string{skip}}
		report.Lint = LintResult{Skipped: true, SkipReason: skip, Errors: []string{skip}}
		report.Security = SecurityResult{Skipped: true, SkipReason: skip, Errors: []string{skip}}
		report.Duration = time.Since(start)
		p.cache.set(projectID, report)
		return report
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.TypeCheck = p.RunTypeCheck(gctx, root, "")
		return nil
	})
	g.Go(func() error {
		report.Build = p.RunBuild(gctx, root, "")
		return nil
	})
	g.Go(func() error {
		report.Tests = p.RunTests(gctx, root, "")
		return nil
	})
	g.Go(func() error {
		report.Lint = p.RunLint(gctx, root, "")
		return nil
	})
	g.Go(func() error {
		report.Security = p.RunSecurityScan(gctx, root, "")
		return nil
	})
	// Workers never return errors; results carry their own failures.
	_ = g.Wait()

	report.Success = report.Install.Success &&
		report.TypeCheck.Success &&
		report.Build.Success &&
		report.Tests.Success &&
		report.Lint.Success &&
		report.Security.Success
	report.Duration = time.Since(start)

	p.logger.Log("full validation: success=%v failed=%v duration=%s",
		report.Success, report.FailedChecks(), report.Duration)
	p.cache.set(projectID, report)
	return report
}

// CachedReport returns the most recent validation report for a project if
// it is still within the summary TTL. The cache is advisory only: a miss
// is always safe, callers just re-run the validation.
func (p *Pipeline) CachedReport(projectID string) (*ValidationReport, bool) {
	return p.cache.get(projectID)
}

// InvalidateCache drops the cached report for a project, e.g. after the
// workspace changes.
func (p *Pipeline) InvalidateCache(projectID string) {
	p.cache.invalidate(projectID)
}
