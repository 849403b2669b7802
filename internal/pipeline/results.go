package pipeline

import (
	"time"

	"github.com/ShayCichocki/ninegate/internal/parse"
)

// SkippedInstallFailed is the message dependents carry when install fails.
// Install failure short-circuits every downstream check; they are reported
// as skipped rather than attempted to avoid cascading noise.
const SkippedInstallFailed = "Skipped (install failed)"

// InstallResult is the outcome of dependency installation.
type InstallResult struct {
	Success  bool          `json:"success"`
	Errors   []string      `json:"errors,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration"`
}

// TypeCheckResult is the outcome of a type-check run.
type TypeCheckResult struct {
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped"`
	SkipReason string        `json:"skip_reason,omitempty"`
	ErrorCount int           `json:"error_count"`
	Errors     []string      `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// BuildResult is the outcome of a build run. Success requires both a zero
// exit code and zero parsed compiler/bundler error patterns.
type BuildResult struct {
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// TestResult is the outcome of a unit test run.
type TestResult struct {
	Success bool `json:"success"`
	Skipped bool `json:"skipped"`
	// SkipReason is set when the run was skipped (e.g. install failed).
	SkipReason  string        `json:"skip_reason,omitempty"`
	TestsPassed int           `json:"tests_passed"`
	TestsFailed int           `json:"tests_failed"`
	TestsTotal  int           `json:"tests_total"`
	Coverage    *float64      `json:"coverage,omitempty"`
	Errors      []string      `json:"errors,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// IntegrationResult is the outcome of an integration test run. Absence of
// integration tests is a pass (not applicable); presence without a runner
// script is a pass with a warning.
type IntegrationResult struct {
	Success    bool          `json:"success"`
	Applicable bool          `json:"applicable"`
	Executed   bool          `json:"executed"`
	Counts     parse.TestCounts `json:"counts"`
	Warnings   []string      `json:"warnings,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// E2EResult is the outcome of an end-to-end test run.
type E2EResult struct {
	Success     bool          `json:"success"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	FailedSpecs []string      `json:"failed_specs,omitempty"`
	Errors      []string      `json:"errors,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// LintResult is the outcome of a lint run. Warnings alone do not fail.
type LintResult struct {
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Counts     parse.LintCounts `json:"counts"`
	Errors     []string      `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// SecurityResult is the outcome of a dependency security scan. Only
// critical and high severities fail; moderate and low are recorded.
type SecurityResult struct {
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped"`
	SkipReason string        `json:"skip_reason,omitempty"`
	Vulns      parse.VulnCounts `json:"vulnerabilities"`
	Errors     []string      `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// ValidationReport aggregates one full validation run. Success is the
// logical AND of every sub-result.
type ValidationReport struct {
	Success   bool            `json:"success"`
	Install   InstallResult   `json:"install"`
	TypeCheck TypeCheckResult `json:"typecheck"`
	Build     BuildResult     `json:"build"`
	Tests     TestResult      `json:"tests"`
	Lint      LintResult      `json:"lint"`
	Security  SecurityResult  `json:"security"`
	Duration  time.Duration   `json:"duration"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
}

// FailedChecks lists the names of sub-results that did not succeed.
func (r *ValidationReport) FailedChecks() []string {
	var failed []string
	if !r.Install.Success {
		failed = append(failed, "install")
	}
	if !r.TypeCheck.Success {
		failed = append(failed, "typecheck")
	}
	if !r.Build.Success {
		failed = append(failed, "build")
	}
	if !r.Tests.Success {
		failed = append(failed, "tests")
	}
	if !r.Lint.Success {
		failed = append(failed, "lint")
	}
	if !r.Security.Success {
		failed = append(failed, "security")
	}
	return failed
}
