package parse

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// VulnCounts holds vulnerability counts by severity from a security scan.
// Critical and high block; moderate and low are recorded only.
type VulnCounts struct {
	Critical int
	High     int
	Moderate int
	Low      int
}

// Total returns the total number of reported vulnerabilities.
func (v VulnCounts) Total() int {
	return v.Critical + v.High + v.Moderate + v.Low
}

// Blocking returns true if any critical or high vulnerability is present.
func (v VulnCounts) Blocking() bool {
	return v.Critical > 0 || v.High > 0
}

var auditTextRes = map[string]*regexp.Regexp{
	"critical": regexp.MustCompile(`(\d+)\s+critical`),
	"high":     regexp.MustCompile(`(\d+)\s+high`),
	"moderate": regexp.MustCompile(`(\d+)\s+moderate`),
	"low":      regexp.MustCompile(`(\d+)\s+low`),
}

// Audit parses `npm audit --json` output (metadata.vulnerabilities.*),
// falling back to "N critical"/"N high" text patterns. Missing severities
// default to zero.
func Audit(raw string) VulnCounts {
	trimmed := strings.TrimSpace(raw)
	if gjson.Valid(trimmed) {
		vulns := gjson.Get(trimmed, "metadata.vulnerabilities")
		if vulns.Exists() {
			return VulnCounts{
				Critical: int(vulns.Get("critical").Int()),
				High:     int(vulns.Get("high").Int()),
				Moderate: int(vulns.Get("moderate").Int()),
				Low:      int(vulns.Get("low").Int()),
			}
		}
	}

	var v VulnCounts
	if m := auditTextRes["critical"].FindStringSubmatch(raw); m != nil {
		v.Critical = atoi(m[1])
	}
	if m := auditTextRes["high"].FindStringSubmatch(raw); m != nil {
		v.High = atoi(m[1])
	}
	if m := auditTextRes["moderate"].FindStringSubmatch(raw); m != nil {
		v.Moderate = atoi(m[1])
	}
	if m := auditTextRes["low"].FindStringSubmatch(raw); m != nil {
		v.Low = atoi(m[1])
	}
	return v
}
