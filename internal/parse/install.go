package parse

import (
	"regexp"
	"strings"
)

// installErrorPatterns match fatal package-installer output. npm prefixes
// fatal lines with "npm ERR!" (or "npm error" since npm 10), yarn and pnpm
// use bare "error" markers.
var installErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^npm ERR!.*$`),
	regexp.MustCompile(`(?m)^npm error .*$`),
	regexp.MustCompile(`(?mi)^error [A-Z].*$`),
	regexp.MustCompile(`(?m)^ERR_PNPM_\w+.*$`),
	regexp.MustCompile(`(?mi)ENOENT: no such file or directory.*package\.json`),
	regexp.MustCompile(`(?mi)could not resolve dependency.*$`),
}

// InstallErrors extracts fatal installer errors from raw install output.
// An empty slice means the log contains no recognized failure markers.
func InstallErrors(raw string) []string {
	var errs []string
	seen := make(map[string]bool)
	for _, re := range installErrorPatterns {
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

// InstallWarnings extracts non-fatal installer warnings (deprecations,
// peer dependency notices).
func InstallWarnings(raw string) []string {
	var warns []string
	re := regexp.MustCompile(`(?m)^npm (?:WARN|warn) .*$`)
	for _, m := range re.FindAllString(raw, -1) {
		warns = append(warns, strings.TrimSpace(m))
	}
	return warns
}
