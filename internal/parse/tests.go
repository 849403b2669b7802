package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// TestCounts summarizes a unit or integration test run.
type TestCounts struct {
	// Passed is the number of passing tests.
	Passed int
	// Failed is the number of failing tests.
	Failed int
	// Total is the total number of tests executed.
	Total int
	// FromJSON is true when the counts came from a structured report
	// rather than text-pattern extraction.
	FromJSON bool
}

var (
	// jest/vitest text summaries: "Tests: 2 failed, 10 passed, 12 total"
	testsFailedRe = regexp.MustCompile(`(\d+)\s+fail(?:ed|ing)`)
	testsPassedRe = regexp.MustCompile(`(\d+)\s+pass(?:ed|ing)`)
	testsTotalRe  = regexp.MustCompile(`(\d+)\s+total`)
)

// TestSummary parses test-runner output. A structured JSON report with
// numPassedTests/numFailedTests/numTotalTests fields is preferred; raw text
// falls back to "N passing"/"N failed" patterns. Missing counts are zero.
func TestSummary(raw string) TestCounts {
	if counts, ok := testSummaryJSON(raw); ok {
		return counts
	}

	var c TestCounts
	if m := testsPassedRe.FindStringSubmatch(raw); m != nil {
		c.Passed = atoi(m[1])
	}
	if m := testsFailedRe.FindStringSubmatch(raw); m != nil {
		c.Failed = atoi(m[1])
	}
	if m := testsTotalRe.FindStringSubmatch(raw); m != nil {
		c.Total = atoi(m[1])
	} else {
		c.Total = c.Passed + c.Failed
	}
	return c
}

// testSummaryJSON reads a jest-style JSON results blob.
func testSummaryJSON(raw string) (TestCounts, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return TestCounts{}, false
	}
	doc := gjson.Parse(trimmed)
	total := doc.Get("numTotalTests")
	if !total.Exists() {
		return TestCounts{}, false
	}
	return TestCounts{
		Passed:   int(doc.Get("numPassedTests").Int()),
		Failed:   int(doc.Get("numFailedTests").Int()),
		Total:    int(total.Int()),
		FromJSON: true,
	}, true
}

// atoi converts a digits-only match to an int, defaulting to zero.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
