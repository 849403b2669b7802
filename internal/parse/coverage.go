package parse

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Coverage holds the aggregate percentages from a coverage-summary report.
type Coverage struct {
	Lines      float64
	Statements float64
	Functions  float64
	Branches   float64
}

// Aggregate returns the mean of the four coverage percentages.
func (c Coverage) Aggregate() float64 {
	return (c.Lines + c.Statements + c.Functions + c.Branches) / 4
}

// CoverageSummary parses an istanbul/v8 coverage-summary.json blob
// (total.{lines,statements,functions,branches}.pct). The second return is
// false when the input has no recognizable coverage totals.
func CoverageSummary(raw string) (Coverage, bool) {
	trimmed := strings.TrimSpace(raw)
	if !gjson.Valid(trimmed) {
		return Coverage{}, false
	}
	total := gjson.Get(trimmed, "total")
	if !total.Exists() {
		return Coverage{}, false
	}
	return Coverage{
		Lines:      total.Get("lines.pct").Float(),
		Statements: total.Get("statements.pct").Float(),
		Functions:  total.Get("functions.pct").Float(),
		Branches:   total.Get("branches.pct").Float(),
	}, true
}
