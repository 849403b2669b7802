package parse

import (
	"regexp"
	"strings"
)

// compilerErrorPatterns match compiler and bundler failures in combined
// stdout+stderr. Some build tools exit zero while still printing these, so
// a build is only clean when the exit code is zero AND no pattern matches.
var compilerErrorPatterns = []*regexp.Regexp{
	// tsc: "src/app.ts(10,5): error TS2322: ..."
	regexp.MustCompile(`(?m)^.*error TS\d+:.*$`),
	// vite/rollup/esbuild fatal markers
	regexp.MustCompile(`(?m)^.*\[vite\]:? .*(?:error|failed).*$`),
	regexp.MustCompile(`(?mi)^error during build:.*$`),
	regexp.MustCompile(`(?m)^RollupError: .*$`),
	regexp.MustCompile(`(?m)^✘ \[ERROR\] .*$`),
	// webpack: "ERROR in ./src/index.js"
	regexp.MustCompile(`(?m)^ERROR in .*$`),
	// next.js: "Failed to compile."
	regexp.MustCompile(`(?m)^Failed to compile\.?$`),
	// generic node crash during a build script
	regexp.MustCompile(`(?m)^.*Module not found: .*$`),
}

// CompilerErrors extracts compiler/bundler error lines from build output.
func CompilerErrors(raw string) []string {
	var errs []string
	seen := make(map[string]bool)
	for _, re := range compilerErrorPatterns {
		for _, m := range re.FindAllString(raw, -1) {
			line := strings.TrimSpace(m)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			errs = append(errs, line)
		}
	}
	return errs
}

// tsErrorCount matches the tsc summary line "Found 3 errors."
var tsErrorCount = regexp.MustCompile(`Found (\d+) errors?`)

// TypeScriptErrorCount returns the error count reported by tsc, preferring
// the summary line and falling back to counting individual error lines.
func TypeScriptErrorCount(raw string) int {
	if m := tsErrorCount.FindStringSubmatch(raw); m != nil {
		return atoi(m[1])
	}
	return len(regexp.MustCompile(`(?m)error TS\d+:`).FindAllString(raw, -1))
}
