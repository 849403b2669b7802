package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ninegate/internal/events"
	"github.com/ShayCichocki/ninegate/internal/pipeline"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

var (
	validateJSON  bool
	validateE2E   bool
	validateFresh bool
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	checkStyle = lipgloss.NewStyle().Width(12)
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the full validation pipeline on this workspace",
	Long: `Run install, type-check, build, tests, lint, and security scan against
the current workspace and print a structured verdict.

Split frontend/backend projects are detected automatically and validated
per side. A recent verdict is served from cache unless --fresh is given.

Examples:
  ninegate validate           # Styled verdict
  ninegate validate --json    # Machine-readable report
  ninegate validate --e2e     # Also run browser end-to-end tests`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Emit the report as JSON")
	validateCmd.Flags().BoolVar(&validateE2E, "e2e", false, "Also run end-to-end tests against the preview server")
	validateCmd.Flags().BoolVar(&validateFresh, "fresh", false, "Ignore the cached report")
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	root, err := sandbox.NewRoot(a.workspace)
	if err != nil {
		return err
	}
	ctx := context.Background()

	structure := a.pipeline.DetectProjectStructure(root)
	if structure.Kind == pipeline.StructureFullstack {
		result := a.pipeline.ValidateFullstackProject(ctx, root)
		publishFullstackFailures(ctx, a, result)
		if validateJSON {
			return printJSON(result)
		}
		printFullstack(result)
		if !result.OverallSuccess {
			os.Exit(1)
		}
		return nil
	}

	if validateFresh {
		a.pipeline.InvalidateCache(a.project.ID)
	}
	report, cached := a.pipeline.CachedReport(a.project.ID)
	if !cached {
		report = a.pipeline.RunFullValidation(ctx, root, a.project.ID)
	}
	publishReportFailures(ctx, a, report)

	var e2e *pipeline.E2EResult
	if validateE2E {
		res := a.pipeline.RunE2E(ctx, root, a.project.ID)
		e2e = &res
	}

	if validateJSON {
		out := struct {
			*pipeline.ValidationReport
			E2E *pipeline.E2EResult `json:"e2e,omitempty"`
		}{report, e2e}
		return printJSON(out)
	}

	printReport(report, cached)
	if e2e != nil {
		printCheck("e2e", e2e.Success, false, e2e.Errors)
	}

	if !report.Success || (e2e != nil && !e2e.Success) {
		os.Exit(1)
	}
	return nil
}

func printReport(report *pipeline.ValidationReport, cached bool) {
	if cached {
		fmt.Println(skipStyle.Render("(cached report)"))
	}
	printCheck("install", report.Install.Success, false, report.Install.Errors)
	printCheck("typecheck", report.TypeCheck.Success, report.TypeCheck.Skipped, report.TypeCheck.Errors)
	printCheck("build", report.Build.Success, report.Build.Skipped, report.Build.Errors)
	printCheck("tests", report.Tests.Success, report.Tests.Skipped, report.Tests.Errors)
	printCheck("lint", report.Lint.Success, report.Lint.Skipped, report.Lint.Errors)
	printCheck("security", report.Security.Success, report.Security.Skipped, report.Security.Errors)

	fmt.Println()
	if report.Success {
		fmt.Println(passStyle.Render("PASS") + fmt.Sprintf("  all checks passed in %s", report.Duration.Round(time.Millisecond)))
	} else {
		fmt.Println(failStyle.Render("FAIL") + fmt.Sprintf("  failing checks: %v", report.FailedChecks()))
	}
}

func printFullstack(result pipeline.FullstackResult) {
	for _, side := range []pipeline.SideResult{result.Frontend, result.Backend} {
		fmt.Println(side.Name + ":")
		printCheck("  install", side.Install.Success, false, side.Install.Errors)
		printCheck("  build", side.Build.Success, side.Build.Skipped, side.Build.Errors)
	}
	fmt.Println()
	if result.OverallSuccess {
		fmt.Println(passStyle.Render("PASS") + "  both sides installed and built")
	} else {
		fmt.Println(failStyle.Render("FAIL"))
		for _, e := range result.Errors {
			fmt.Println("  " + e)
		}
	}
}

func printCheck(name string, success, skipped bool, errs []string) {
	label := checkStyle.Render(name)
	switch {
	case skipped && success:
		fmt.Println(label + skipStyle.Render("skip"))
	case success:
		fmt.Println(label + passStyle.Render("pass"))
	default:
		fmt.Println(label + failStyle.Render("fail"))
		for _, e := range errs {
			fmt.Println("    " + e)
		}
	}
}

// publishReportFailures emits one test_failure event per failing check.
func publishReportFailures(ctx context.Context, a *app, report *pipeline.ValidationReport) {
	for _, check := range report.FailedChecks() {
		_ = a.publisher.Publish(ctx, events.TopicTestFailure, events.TestFailure{
			ProjectID: a.project.ID,
			Check:     check,
		})
	}
}

// publishFullstackFailures attributes failures to the side that needs fixing.
func publishFullstackFailures(ctx context.Context, a *app, result pipeline.FullstackResult) {
	for _, side := range []pipeline.SideResult{result.Frontend, result.Backend} {
		if side.Success() {
			continue
		}
		check := "install"
		errs := side.Install.Errors
		if side.Install.Success {
			check = "build"
			errs = side.Build.Errors
		}
		_ = a.publisher.Publish(ctx, events.TopicTestFailure, events.TestFailure{
			ProjectID: a.project.ID,
			Side:      side.Name,
			Check:     check,
			Errors:    errs,
		})
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
