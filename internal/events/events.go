// Package events emits gate lifecycle notifications so external tooling
// (dashboards, chat bots, CI) can react to approval decisions without
// polling the database.
package events

import (
	"context"

	"github.com/ShayCichocki/ninegate/pkg/models"
)

// Event topic constants
const (
	TopicGateReady    = "ninegate.gate.ready"
	TopicGateApproved = "ninegate.gate.approved"
	TopicGateRejected = "ninegate.gate.rejected"
	TopicGateBlocked  = "ninegate.gate.blocked"

	// Validation events
	TopicTestFailure    = "ninegate.validation.test_failure"
	TopicProofValidated = "ninegate.proof.validated"
	TopicProofStale     = "ninegate.proof.stale"
)

// Event types

// GateReady is emitted when a new gate is created and awaiting review.
type GateReady struct {
	Gate *models.Gate `json:"gate"`
}

// GateApproved is emitted when a reviewer approves a gate.
type GateApproved struct {
	Gate       *models.Gate `json:"gate"`
	ApprovedBy string       `json:"approved_by"`
}

// GateRejected is emitted when a reviewer rejects a gate.
type GateRejected struct {
	Gate   *models.Gate `json:"gate"`
	Reason string       `json:"reason,omitempty"`
}

// GateBlocked is emitted when a gate's next checkpoint is blocked pending
// remediation.
type GateBlocked struct {
	Gate   *models.Gate `json:"gate"`
	Reason string       `json:"reason"`
}

// TestFailure is emitted when a validation run fails. Side attributes the
// failure to "frontend" or "backend" for split projects, or is empty for
// single projects.
type TestFailure struct {
	ProjectID string   `json:"project_id"`
	Side      string   `json:"side,omitempty"`
	Check     string   `json:"check"`
	Errors    []string `json:"errors,omitempty"`
}

// ProofValidated is emitted after a proof artifact is judged.
type ProofValidated struct {
	Artifact *models.ProofArtifact `json:"artifact"`
}

// ProofStale is emitted when a verified artifact's evidence file changes
// on disk after validation.
type ProofStale struct {
	ArtifactID string `json:"artifact_id"`
	FilePath   string `json:"file_path"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
