// Package models defines the shared domain types for ninegate.
// These types are used across the gate state machine, the validation
// pipeline, and the persistence layer.
package models

import (
	"fmt"
	"strings"
	"time"
)

// FirstGate is the lowest gate number in the sequence.
const FirstGate = 1

// FinalGate is the highest gate number; approving it completes the project.
const FinalGate = 9

// GateStep is the lifecycle step within a numbered gate.
type GateStep string

const (
	// StepPending marks the entry checkpoint of a numbered gate.
	StepPending GateStep = "PENDING"
	// StepComplete marks the exit checkpoint of a numbered gate.
	StepComplete GateStep = "COMPLETE"
)

// Valid returns true if the step is a known value.
func (s GateStep) Valid() bool {
	return s == StepPending || s == StepComplete
}

// GateType identifies a checkpoint: a gate number (1-9) plus a lifecycle step.
type GateType struct {
	// Number is the gate number, 1 through 9.
	Number int `json:"number"`
	// Step is the lifecycle step within the gate.
	Step GateStep `json:"step"`
}

// NewGateType builds a GateType, validating the number and step.
func NewGateType(number int, step GateStep) (GateType, error) {
	gt := GateType{Number: number, Step: step}
	if !gt.Valid() {
		return GateType{}, fmt.Errorf("invalid gate type G%d_%s", number, step)
	}
	return gt, nil
}

// Valid returns true if the number is in range and the step is known.
func (gt GateType) Valid() bool {
	return gt.Number >= FirstGate && gt.Number <= FinalGate && gt.Step.Valid()
}

// String renders the gate type as "G<number>_<step>", e.g. "G4_COMPLETE".
func (gt GateType) String() string {
	return fmt.Sprintf("G%d_%s", gt.Number, gt.Step)
}

// Next returns the checkpoint after this one in the sequence
// G1_PENDING, G1_COMPLETE, G2_PENDING .. G9_COMPLETE. The second return
// is false for G9_COMPLETE, the final checkpoint.
func (gt GateType) Next() (GateType, bool) {
	if gt.Step == StepPending {
		return GateType{Number: gt.Number, Step: StepComplete}, true
	}
	if gt.Number >= FinalGate {
		return GateType{}, false
	}
	return GateType{Number: gt.Number + 1, Step: StepPending}, true
}

// Prev returns the checkpoint before this one. The second return is false
// for G1_PENDING, which has no predecessor.
func (gt GateType) Prev() (GateType, bool) {
	if gt.Step == StepComplete {
		return GateType{Number: gt.Number, Step: StepPending}, true
	}
	if gt.Number <= FirstGate {
		return GateType{}, false
	}
	return GateType{Number: gt.Number - 1, Step: StepComplete}, true
}

// ParseGateType parses a string produced by GateType.String.
func ParseGateType(s string) (GateType, error) {
	rest, ok := strings.CutPrefix(s, "G")
	if !ok {
		return GateType{}, fmt.Errorf("parse gate type %q: missing G prefix", s)
	}
	num, step, ok := strings.Cut(rest, "_")
	if !ok {
		return GateType{}, fmt.Errorf("parse gate type %q: missing step suffix", s)
	}
	var n int
	if _, err := fmt.Sscanf(num, "%d", &n); err != nil {
		return GateType{}, fmt.Errorf("parse gate type %q: %w", s, err)
	}
	return NewGateType(n, GateStep(step))
}

// GateStatus represents the current state of a gate.
type GateStatus string

const (
	// GatePending indicates the gate exists but review has not started.
	GatePending GateStatus = "PENDING"
	// GateInReview indicates the gate is being reviewed.
	GateInReview GateStatus = "IN_REVIEW"
	// GateApproved indicates the gate passed review. Terminal for this gate.
	GateApproved GateStatus = "APPROVED"
	// GateRejected indicates the reviewer rejected the gate's deliverables.
	GateRejected GateStatus = "REJECTED"
	// GateBlocked indicates the gate cannot proceed until remediation.
	GateBlocked GateStatus = "BLOCKED"
)

// Valid returns true if the status is a known value.
func (s GateStatus) Valid() bool {
	switch s {
	case GatePending, GateInReview, GateApproved, GateRejected, GateBlocked:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transition is allowed from this status.
// Only APPROVED is terminal; REJECTED and BLOCKED can return to PENDING
// after remediation.
func (s GateStatus) Terminal() bool {
	return s == GateApproved
}

// Gate is one approval checkpoint in a project's nine-gate sequence.
// Gates are never physically deleted; an approved gate is superseded by
// the next numbered gate.
type Gate struct {
	// ID is the unique identifier for this gate.
	ID string `json:"id"`
	// ProjectID is the owning project.
	ProjectID string `json:"project_id"`
	// Type identifies the checkpoint (number + lifecycle step).
	Type GateType `json:"type"`
	// Status is the current state of the gate.
	Status GateStatus `json:"status"`
	// ReviewNotes holds the reviewer's utterance for the latest decision.
	ReviewNotes string `json:"review_notes,omitempty"`
	// BlockingReason explains a REJECTED or BLOCKED status.
	BlockingReason string `json:"blocking_reason,omitempty"`
	// RequiresProof indicates whether proof artifacts must pass before approval.
	RequiresProof bool `json:"requires_proof"`
	// ApprovedAt is when the gate was approved, if it was.
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	// ApprovedBy is the user who approved the gate.
	ApprovedBy string `json:"approved_by,omitempty"`
	// CreatedAt is when the gate was created.
	CreatedAt time.Time `json:"created_at"`
}

// Project represents a workspace under gate control.
type Project struct {
	// ID is the unique identifier for this project.
	ID string `json:"id"`
	// Name is the human-readable project name.
	Name string `json:"name"`
	// OwnerID is the user who owns this project. Only the owner may
	// approve gates or manage proof artifacts.
	OwnerID string `json:"owner_id"`
	// Workspace is the absolute path to the project's sandbox root.
	Workspace string `json:"workspace"`
	// CreatedAt is when the project was created.
	CreatedAt time.Time `json:"created_at"`
}
