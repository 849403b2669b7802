// Package gate implements the nine-gate approval state machine. A project
// moves through ordered checkpoints G1_PENDING .. G9_COMPLETE; each may be
// approved only after its predecessor, and only with explicit reviewer
// consent backed by passing proof artifacts where the checkpoint demands
// them.
package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/ninegate/internal/events"
	"github.com/ShayCichocki/ninegate/internal/logging"
	"github.com/ShayCichocki/ninegate/internal/proof"
	"github.com/ShayCichocki/ninegate/internal/state"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

// Store is the persistence surface the machine needs.
type Store interface {
	state.ProjectStore
	state.GateStore
}

// ProofChecker re-validates a gate's attached evidence.
type ProofChecker interface {
	ValidateAllForGate(ctx context.Context, projectID, gateID, actor string) (proof.Aggregate, error)
}

// ProofFailedError refuses a transition because attached evidence failed
// or required evidence is absent, carrying the blocking proof types so the
// caller can name them.
type ProofFailedError struct {
	FailingTypes []models.ProofType
}

func (e *ProofFailedError) Error() string {
	return fmt.Sprintf("proof validation failed for: %v", e.FailingTypes)
}

// Machine drives gate transitions for all projects.
type Machine struct {
	store     Store
	proofs    ProofChecker
	defs      *Definitions
	policy    ApprovalPolicy
	publisher events.Publisher
	logger    *logging.DebugLogger

	// gateLocks serializes concurrent approval requests per gate, so the
	// read-check-write of a transition is race-free. Chosen over
	// last-write-wins database semantics: the no-skipped-gates invariant
	// depends on the precondition check and the status write being atomic.
	mu        sync.Mutex
	gateLocks map[string]*sync.Mutex
}

// NewMachine builds a Machine. Nil defs, policy, publisher, and logger
// fall back to defaults.
func NewMachine(store Store, proofs ProofChecker, defs *Definitions, policy ApprovalPolicy, publisher events.Publisher, logger *logging.DebugLogger) *Machine {
	if defs == nil {
		defs = DefaultDefinitions()
	}
	if policy == nil {
		policy = DefaultApprovalPolicy()
	}
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Machine{
		store:     store,
		proofs:    proofs,
		defs:      defs,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		gateLocks: make(map[string]*sync.Mutex),
	}
}

// InitProject persists a new project and opens its first checkpoint in
// PENDING state.
func (m *Machine) InitProject(ctx context.Context, project *models.Project) (*models.Gate, error) {
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	if err := m.store.CreateProject(project); err != nil {
		return nil, err
	}

	first, _ := models.NewGateType(models.FirstGate, models.StepPending)
	gate, err := m.openGate(ctx, project.ID, first)
	if err != nil {
		return nil, err
	}
	m.logger.Log("gate: project %s initialized at %s", project.ID, gate.Type)
	return gate, nil
}

// ApprovalRequest carries one reviewer decision.
type ApprovalRequest struct {
	GateID string
	// Approved is the reviewer's decision. False takes the rejection path.
	Approved bool
	// Notes is the reviewer's utterance. For approvals it must satisfy
	// the approval policy.
	Notes string
	// Actor is the requesting user. Must own the gate's project.
	Actor string
}

// RequestApproval applies one reviewer decision to a gate.
//
// The checks run in a fixed order: existence, ownership, predecessor
// approval, approval utterance, then proof validation. Only after all of
// them pass is the gate approved and its successor created. A rejection
// records the reason and creates nothing.
func (m *Machine) RequestApproval(ctx context.Context, req ApprovalRequest) (*models.Gate, error) {
	unlock := m.lockGate(req.GateID)
	defer unlock()

	gate, err := m.store.GetGate(req.GateID)
	if err != nil {
		return nil, err
	}
	if gate == nil {
		return nil, fmt.Errorf("gate %s: %w", req.GateID, ErrNotFound)
	}

	project, err := m.store.GetProject(gate.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", gate.ProjectID, ErrNotFound)
	}
	if project.OwnerID != req.Actor {
		return nil, ErrForbidden
	}

	if gate.Status.Terminal() {
		return nil, fmt.Errorf("gate %s: %w", gate.Type, ErrAlreadyApproved)
	}

	// Enforced on every request, including direct gate-ID references that
	// bypass the normal review order.
	if err := m.checkPredecessor(gate); err != nil {
		return nil, err
	}

	if !req.Approved {
		return m.reject(ctx, gate, req)
	}

	if !m.policy(req.Notes) {
		return nil, fmt.Errorf("notes %q: %w", req.Notes, ErrInvalidApproval)
	}

	if gate.RequiresProof {
		agg, err := m.proofs.ValidateAllForGate(ctx, gate.ProjectID, gate.ID, req.Actor)
		if err != nil {
			return nil, fmt.Errorf("validate proofs: %w", err)
		}
		// Every proof type the checkpoint demands must be covered by a
		// passing artifact. A gate with no artifacts at all is refused,
		// not waved through.
		missing := missingProofTypes(m.defs.For(gate.Type).ProofTypes, agg)
		if !agg.AllPassed() || len(missing) > 0 {
			return nil, &ProofFailedError{FailingTypes: append(agg.FailingTypes, missing...)}
		}
	}

	return m.approve(ctx, gate, req)
}

// approve stamps the gate APPROVED and opens the next checkpoint, or
// completes the machine when this was the final one.
func (m *Machine) approve(ctx context.Context, gate *models.Gate, req ApprovalRequest) (*models.Gate, error) {
	now := time.Now()
	gate.Status = models.GateApproved
	gate.ReviewNotes = req.Notes
	gate.BlockingReason = ""
	gate.ApprovedAt = &now
	gate.ApprovedBy = req.Actor
	if err := m.store.UpdateGate(gate); err != nil {
		return nil, err
	}

	_ = m.publisher.Publish(ctx, events.TopicGateApproved, events.GateApproved{
		Gate:       gate,
		ApprovedBy: req.Actor,
	})

	next, ok := gate.Type.Next()
	if !ok {
		m.logger.Log("gate: project %s completed all checkpoints", gate.ProjectID)
		return gate, nil
	}
	if _, err := m.openGate(ctx, gate.ProjectID, next); err != nil {
		return nil, fmt.Errorf("open next gate %s: %w", next, err)
	}
	m.logger.Log("gate: %s approved, %s opened", gate.Type, next)
	return gate, nil
}

// reject records the decision without creating a successor.
func (m *Machine) reject(ctx context.Context, gate *models.Gate, req ApprovalRequest) (*models.Gate, error) {
	gate.Status = models.GateRejected
	gate.ReviewNotes = req.Notes
	gate.BlockingReason = req.Notes
	if err := m.store.UpdateGate(gate); err != nil {
		return nil, err
	}

	_ = m.publisher.Publish(ctx, events.TopicGateRejected, events.GateRejected{
		Gate:   gate,
		Reason: req.Notes,
	})
	m.logger.Log("gate: %s rejected by %s", gate.Type, req.Actor)
	return gate, nil
}

// Block marks a gate BLOCKED pending remediation.
func (m *Machine) Block(ctx context.Context, gateID, reason, actor string) (*models.Gate, error) {
	unlock := m.lockGate(gateID)
	defer unlock()

	gate, err := m.ownedGate(gateID, actor)
	if err != nil {
		return nil, err
	}
	if gate.Status.Terminal() {
		return nil, fmt.Errorf("gate %s: %w", gate.Type, ErrAlreadyApproved)
	}

	gate.Status = models.GateBlocked
	gate.BlockingReason = reason
	if err := m.store.UpdateGate(gate); err != nil {
		return nil, err
	}
	_ = m.publisher.Publish(ctx, events.TopicGateBlocked, events.GateBlocked{
		Gate:   gate,
		Reason: reason,
	})
	return gate, nil
}

// Reopen returns a REJECTED or BLOCKED gate to PENDING after remediation.
func (m *Machine) Reopen(ctx context.Context, gateID, actor string) (*models.Gate, error) {
	unlock := m.lockGate(gateID)
	defer unlock()

	gate, err := m.ownedGate(gateID, actor)
	if err != nil {
		return nil, err
	}
	if gate.Status != models.GateRejected && gate.Status != models.GateBlocked {
		return nil, fmt.Errorf("gate %s is %s, only REJECTED or BLOCKED gates reopen", gate.Type, gate.Status)
	}

	gate.Status = models.GatePending
	gate.BlockingReason = ""
	if err := m.store.UpdateGate(gate); err != nil {
		return nil, err
	}
	_ = m.publisher.Publish(ctx, events.TopicGateReady, events.GateReady{Gate: gate})
	return gate, nil
}

// CurrentGate returns the first checkpoint of a project that is not yet
// approved, or nil when all nine gates are complete.
func (m *Machine) CurrentGate(projectID string) (*models.Gate, error) {
	gates, err := m.store.ListGatesForProject(projectID)
	if err != nil {
		return nil, err
	}
	for i := range gates {
		if gates[i].Status != models.GateApproved {
			return &gates[i], nil
		}
	}
	return nil, nil
}

// Completed reports whether the project's final checkpoint is approved.
func (m *Machine) Completed(projectID string) (bool, error) {
	final, _ := models.NewGateType(models.FinalGate, models.StepComplete)
	gate, err := m.store.FindGate(projectID, final)
	if err != nil {
		return false, err
	}
	return gate != nil && gate.Status == models.GateApproved, nil
}

// checkPredecessor enforces the sequence invariant: a gate's immediate
// predecessor must be APPROVED. G1_PENDING has no predecessor.
func (m *Machine) checkPredecessor(gate *models.Gate) error {
	prev, ok := gate.Type.Prev()
	if !ok {
		return nil
	}
	prevGate, err := m.store.FindGate(gate.ProjectID, prev)
	if err != nil {
		return err
	}
	if prevGate == nil || prevGate.Status != models.GateApproved {
		return fmt.Errorf("gate %s: %w", gate.Type, ErrPreviousGateNotApproved)
	}
	return nil
}

// openGate persists a new PENDING gate and announces it.
func (m *Machine) openGate(ctx context.Context, projectID string, gt models.GateType) (*models.Gate, error) {
	def := m.defs.For(gt)
	gate := &models.Gate{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		Type:          gt,
		Status:        models.GatePending,
		RequiresProof: def.RequiresProof,
		CreatedAt:     time.Now(),
	}
	if err := m.store.CreateGate(gate); err != nil {
		return nil, err
	}
	_ = m.publisher.Publish(ctx, events.TopicGateReady, events.GateReady{Gate: gate})
	return gate, nil
}

// ownedGate loads a gate and enforces the ownership check.
func (m *Machine) ownedGate(gateID, actor string) (*models.Gate, error) {
	gate, err := m.store.GetGate(gateID)
	if err != nil {
		return nil, err
	}
	if gate == nil {
		return nil, fmt.Errorf("gate %s: %w", gateID, ErrNotFound)
	}
	project, err := m.store.GetProject(gate.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", gate.ProjectID, ErrNotFound)
	}
	if project.OwnerID != actor {
		return nil, ErrForbidden
	}
	return gate, nil
}

// missingProofTypes returns the required types with no passing artifact,
// skipping those the aggregate already reports as failing.
func missingProofTypes(required []models.ProofType, agg proof.Aggregate) []models.ProofType {
	var missing []models.ProofType
	for _, t := range required {
		if agg.HasPassing(t) {
			continue
		}
		var failing bool
		for _, ft := range agg.FailingTypes {
			if ft == t {
				failing = true
				break
			}
		}
		if !failing {
			missing = append(missing, t)
		}
	}
	return missing
}

// lockGate acquires the per-gate mutex, creating it on first use.
func (m *Machine) lockGate(gateID string) func() {
	m.mu.Lock()
	lock, ok := m.gateLocks[gateID]
	if !ok {
		lock = &sync.Mutex{}
		m.gateLocks[gateID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
