// Package proof turns evidence files into judged, hashed artifacts. Each
// proof type maps to exactly one validator with its own threshold policy,
// so a verdict can always be traced back to a concrete rule.
package proof

import (
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/ninegate/internal/config"
	"github.com/ShayCichocki/ninegate/internal/parse"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

// Verdict is the outcome of judging one evidence file.
type Verdict struct {
	PassFail models.PassFail
	Summary  string
}

// Validator judges the content of one evidence file.
type Validator interface {
	Validate(content []byte) Verdict
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(content []byte) Verdict

func (f ValidatorFunc) Validate(content []byte) Verdict {
	return f(content)
}

// ValidatorFor returns the validator for a proof type. Every known proof
// type has one; unknown types get a nil validator.
func ValidatorFor(pt models.ProofType, thresholds config.ThresholdsConfig) Validator {
	switch pt {
	case models.ProofTestOutput:
		return ValidatorFunc(validateTestOutput)
	case models.ProofCoverageReport:
		return ValidatorFunc(func(content []byte) Verdict {
			return validateCoverage(content, thresholds.Coverage)
		})
	case models.ProofLintOutput:
		return ValidatorFunc(validateLint)
	case models.ProofSecurityScan:
		return ValidatorFunc(validateSecurity)
	case models.ProofBuildOutput:
		return ValidatorFunc(validateBuild)
	case models.ProofLighthouseReport:
		return ValidatorFunc(func(content []byte) Verdict {
			return validateLighthouse(content, thresholds.Lighthouse)
		})
	case models.ProofAccessibilityScan:
		return ValidatorFunc(validateAccessibility)
	case models.ProofSpecValidation:
		return ValidatorFunc(validateSpecReport)
	case models.ProofDeploymentLog, models.ProofSmokeTest:
		return ValidatorFunc(validateLog)
	case models.ProofScreenshot, models.ProofManualVerification:
		// Human-judged evidence. Recorded for reference, never blocking.
		return ValidatorFunc(validateInformational)
	default:
		return nil
	}
}

func validateTestOutput(content []byte) Verdict {
	counts := parse.TestSummary(string(content))
	if counts.Total == 0 {
		return Verdict{models.VerdictWarning, "no test results found in output"}
	}
	summary := fmt.Sprintf("%d/%d tests passed", counts.Passed, counts.Total)
	if counts.Failed > 0 {
		return Verdict{models.VerdictFail, summary}
	}
	return Verdict{models.VerdictPass, summary}
}

func validateCoverage(content []byte, minimum float64) Verdict {
	cov, ok := parse.CoverageSummary(string(content))
	if !ok {
		return Verdict{models.VerdictWarning, "coverage summary not parseable"}
	}
	summary := fmt.Sprintf("line coverage %.1f%% (minimum %.1f%%)", cov.Lines, minimum)
	if cov.Lines < minimum {
		return Verdict{models.VerdictFail, summary}
	}
	return Verdict{models.VerdictPass, summary}
}

func validateLint(content []byte) Verdict {
	counts := parse.Lint(string(content))
	summary := fmt.Sprintf("%d errors, %d warnings", counts.Errors, counts.Warnings)
	if counts.Errors > 0 {
		return Verdict{models.VerdictFail, summary}
	}
	if counts.Warnings > 0 {
		return Verdict{models.VerdictWarning, summary}
	}
	return Verdict{models.VerdictPass, summary}
}

func validateSecurity(content []byte) Verdict {
	vulns := parse.Audit(string(content))
	summary := fmt.Sprintf("%d critical, %d high, %d moderate, %d low",
		vulns.Critical, vulns.High, vulns.Moderate, vulns.Low)
	if vulns.Blocking() {
		return Verdict{models.VerdictFail, summary}
	}
	if vulns.Total() > 0 {
		return Verdict{models.VerdictWarning, summary}
	}
	return Verdict{models.VerdictPass, summary}
}

func validateBuild(content []byte) Verdict {
	errs := parse.CompilerErrors(string(content))
	if len(errs) > 0 {
		return Verdict{models.VerdictFail, fmt.Sprintf("%d build errors", len(errs))}
	}
	return Verdict{models.VerdictPass, "build output clean"}
}

// validateLighthouse checks every category score against the minimum.
// A single category below threshold fails the report.
func validateLighthouse(content []byte, minimum float64) Verdict {
	raw := string(content)
	categories := gjson.Get(raw, "categories")
	if !categories.Exists() {
		return Verdict{models.VerdictWarning, "lighthouse report not parseable"}
	}
	var low []string
	categories.ForEach(func(key, cat gjson.Result) bool {
		score := cat.Get("score").Float()
		if score < minimum {
			low = append(low, fmt.Sprintf("%s=%.2f", key.String(), score))
		}
		return true
	})
	if len(low) > 0 {
		return Verdict{models.VerdictFail,
			fmt.Sprintf("categories below %.2f: %v", minimum, low)}
	}
	return Verdict{models.VerdictPass,
		fmt.Sprintf("all categories at or above %.2f", minimum)}
}

// validateAccessibility reads an axe-core style report. Critical or serious
// violations fail; anything less is a warning.
func validateAccessibility(content []byte) Verdict {
	raw := string(content)
	violations := gjson.Get(raw, "violations")
	if !violations.Exists() {
		return Verdict{models.VerdictWarning, "accessibility report not parseable"}
	}
	var serious, minor int
	violations.ForEach(func(_, v gjson.Result) bool {
		switch v.Get("impact").String() {
		case "critical", "serious":
			serious++
		default:
			minor++
		}
		return true
	})
	summary := fmt.Sprintf("%d serious, %d minor violations", serious, minor)
	if serious > 0 {
		return Verdict{models.VerdictFail, summary}
	}
	if minor > 0 {
		return Verdict{models.VerdictWarning, summary}
	}
	return Verdict{models.VerdictPass, "no violations"}
}

func validateSpecReport(content []byte) Verdict {
	raw := string(content)
	passed := gjson.Get(raw, "passed")
	if !passed.Exists() {
		return Verdict{models.VerdictWarning, "spec validation report not parseable"}
	}
	if !passed.Bool() {
		return Verdict{models.VerdictFail, "spec validation reported failures"}
	}
	return Verdict{models.VerdictPass, "spec validation passed"}
}

// logFailureRe matches hard failure markers in operational logs.
var logFailureRe = regexp.MustCompile(`(?mi)^(?:fatal|error)[:!\s]|\bFAILED\b`)

// validateLog scans operational logs for hard failures.
func validateLog(content []byte) Verdict {
	if len(content) == 0 {
		return Verdict{models.VerdictWarning, "log is empty"}
	}
	if matches := logFailureRe.FindAllString(string(content), -1); len(matches) > 0 {
		return Verdict{models.VerdictFail, fmt.Sprintf("%d failure markers in log", len(matches))}
	}
	return Verdict{models.VerdictPass, "no errors in log"}
}

func validateInformational(content []byte) Verdict {
	if len(content) == 0 {
		return Verdict{models.VerdictInfo, "evidence file is empty"}
	}
	return Verdict{models.VerdictInfo, "recorded for human review"}
}
