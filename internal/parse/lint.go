package parse

import "regexp"

// LintCounts summarizes a linter run. Only Errors fail a lint check;
// warnings are recorded but non-blocking.
type LintCounts struct {
	Errors   int
	Warnings int
	Fixable  int
}

var (
	// eslint summary: "✖ 5 problems (2 errors, 3 warnings)"
	lintSummaryRe = regexp.MustCompile(`\((\d+) errors?,\s*(\d+) warnings?\)`)
	lintErrorsRe  = regexp.MustCompile(`(\d+) errors?`)
	lintWarnsRe   = regexp.MustCompile(`(\d+) warnings?`)
	// "2 errors and 1 warning potentially fixable with the --fix option"
	lintFixableRe = regexp.MustCompile(`(\d+) errors? and \d+ warnings? potentially fixable`)
)

// Lint parses linter text output into error/warning counts. A zero value
// means the run was clean or produced no recognizable summary.
func Lint(raw string) LintCounts {
	var c LintCounts
	if m := lintSummaryRe.FindStringSubmatch(raw); m != nil {
		c.Errors = atoi(m[1])
		c.Warnings = atoi(m[2])
	} else {
		if m := lintErrorsRe.FindStringSubmatch(raw); m != nil {
			c.Errors = atoi(m[1])
		}
		if m := lintWarnsRe.FindStringSubmatch(raw); m != nil {
			c.Warnings = atoi(m[1])
		}
	}
	if m := lintFixableRe.FindStringSubmatch(raw); m != nil {
		c.Fixable = atoi(m[1])
	}
	return c
}
