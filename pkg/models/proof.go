package models

import "time"

// ProofType categorizes the evidence a proof artifact carries. Each type
// maps to exactly one validator with its own pass/fail threshold policy.
type ProofType string

const (
	ProofTestOutput         ProofType = "test_output"
	ProofCoverageReport     ProofType = "coverage_report"
	ProofLintOutput         ProofType = "lint_output"
	ProofSecurityScan       ProofType = "security_scan"
	ProofBuildOutput        ProofType = "build_output"
	ProofSpecValidation     ProofType = "spec_validation"
	ProofLighthouseReport   ProofType = "lighthouse_report"
	ProofAccessibilityScan  ProofType = "accessibility_scan"
	ProofDeploymentLog      ProofType = "deployment_log"
	ProofSmokeTest          ProofType = "smoke_test"
	ProofScreenshot         ProofType = "screenshot"
	ProofManualVerification ProofType = "manual_verification"
)

// AllProofTypes lists every known proof type.
var AllProofTypes = []ProofType{
	ProofTestOutput,
	ProofCoverageReport,
	ProofLintOutput,
	ProofSecurityScan,
	ProofBuildOutput,
	ProofSpecValidation,
	ProofLighthouseReport,
	ProofAccessibilityScan,
	ProofDeploymentLog,
	ProofSmokeTest,
	ProofScreenshot,
	ProofManualVerification,
}

// Valid returns true if the proof type is a known value.
func (p ProofType) Valid() bool {
	for _, known := range AllProofTypes {
		if p == known {
			return true
		}
	}
	return false
}

// PassFail is the verdict of one validation run.
type PassFail string

const (
	// VerdictPass indicates the evidence met its threshold.
	VerdictPass PassFail = "pass"
	// VerdictFail indicates the evidence missed its threshold.
	VerdictFail PassFail = "fail"
	// VerdictWarning indicates the evidence passed with reservations.
	VerdictWarning PassFail = "warning"
	// VerdictInfo indicates evidence recorded for reference only.
	VerdictInfo PassFail = "info"
)

// Valid returns true if the verdict is a known value.
func (v PassFail) Valid() bool {
	switch v {
	case VerdictPass, VerdictFail, VerdictWarning, VerdictInfo:
		return true
	default:
		return false
	}
}

// Blocking returns true if this verdict prevents a gate approval.
func (v PassFail) Blocking() bool {
	return v == VerdictFail
}

// ProofArtifact is an immutable record of one validation run: the file it
// judged, the hash of that file at validation time, and the verdict.
// Re-validation updates the verdict and hash in place rather than creating
// a duplicate record.
type ProofArtifact struct {
	// ID is the unique identifier for this artifact.
	ID string `json:"id"`
	// ProjectID is the owning project.
	ProjectID string `json:"project_id"`
	// GateID links the artifact to a gate, if any.
	GateID string `json:"gate_id,omitempty"`
	// Type selects the validator and threshold policy used to judge the file.
	Type ProofType `json:"proof_type"`
	// FilePath is the sandbox-relative path to the evidence file.
	FilePath string `json:"file_path"`
	// FileHash is the SHA-256 of the file content at validation time,
	// used to detect tampering and staleness.
	FileHash string `json:"file_hash"`
	// ContentSummary is a human-readable description of the evidence.
	ContentSummary string `json:"content_summary"`
	// Verdict is the pass/fail outcome of the latest validation.
	Verdict PassFail `json:"pass_fail"`
	// Verified indicates the artifact has been judged by its validator.
	Verified bool `json:"verified"`
	// VerifiedAt is when the latest validation ran.
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	// VerifiedBy is who triggered the latest validation.
	VerifiedBy string `json:"verified_by,omitempty"`
	// CreatedAt is when the artifact was first recorded.
	CreatedAt time.Time `json:"created_at"`
}
