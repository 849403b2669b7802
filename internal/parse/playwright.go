package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// E2ESummary summarizes a Playwright run. Expected counts tests that
// finished with their expected status (i.e. passed); Unexpected counts
// failures.
type E2ESummary struct {
	Expected   int
	Unexpected int
	Skipped    int
	// FailedSpecs lists "file > title" identifiers for specs that did
	// not end ok, when the structured report is available.
	FailedSpecs []string
	// FromJSON is true when the summary came from the JSON reporter.
	FromJSON bool
}

// Total returns the number of executed (non-skipped) tests.
func (s E2ESummary) Total() int {
	return s.Expected + s.Unexpected
}

var (
	pwPassedRe  = regexp.MustCompile(`(\d+)\s+passed`)
	pwFailedRe  = regexp.MustCompile(`(\d+)\s+failed`)
	pwSkippedRe = regexp.MustCompile(`(\d+)\s+skipped`)
)

// Playwright parses Playwright JSON-reporter output
// (stats.{expected,unexpected,skipped} plus nested suites[].specs[].ok),
// falling back to the list reporter's "N passed"/"N failed" lines when the
// blob is not valid JSON.
func Playwright(raw string) E2ESummary {
	trimmed := strings.TrimSpace(raw)
	if gjson.Valid(trimmed) {
		stats := gjson.Get(trimmed, "stats")
		if stats.Exists() {
			s := E2ESummary{
				Expected:   int(stats.Get("expected").Int()),
				Unexpected: int(stats.Get("unexpected").Int()),
				Skipped:    int(stats.Get("skipped").Int()),
				FromJSON:   true,
			}
			s.FailedSpecs = collectFailedSpecs(gjson.Get(trimmed, "suites"))
			return s
		}
	}

	var s E2ESummary
	if m := pwPassedRe.FindStringSubmatch(raw); m != nil {
		s.Expected = atoi(m[1])
	}
	if m := pwFailedRe.FindStringSubmatch(raw); m != nil {
		s.Unexpected = atoi(m[1])
	}
	if m := pwSkippedRe.FindStringSubmatch(raw); m != nil {
		s.Skipped = atoi(m[1])
	}
	return s
}

// collectFailedSpecs walks the (possibly nested) suite tree for specs
// whose ok flag is false.
func collectFailedSpecs(suites gjson.Result) []string {
	var failed []string
	var walk func(suite gjson.Result)
	walk = func(suite gjson.Result) {
		file := suite.Get("file").String()
		suite.Get("specs").ForEach(func(_, spec gjson.Result) bool {
			if spec.Get("ok").Exists() && !spec.Get("ok").Bool() {
				failed = append(failed, fmt.Sprintf("%s > %s", file, spec.Get("title").String()))
			}
			return true
		})
		suite.Get("suites").ForEach(func(_, child gjson.Result) bool {
			walk(child)
			return true
		})
	}
	suites.ForEach(func(_, suite gjson.Result) bool {
		walk(suite)
		return true
	})
	return failed
}
