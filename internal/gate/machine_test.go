package gate

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/ninegate/internal/events"
	"github.com/ShayCichocki/ninegate/internal/proof"
	"github.com/ShayCichocki/ninegate/internal/state"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

// stubChecker is a ProofChecker returning a canned aggregate.
type stubChecker struct {
	agg   proof.Aggregate
	err   error
	calls int
}

func (s *stubChecker) ValidateAllForGate(_ context.Context, _, _, _ string) (proof.Aggregate, error) {
	s.calls++
	return s.agg, s.err
}

// passingDefaults returns an aggregate with a passing artifact for every
// proof type the built-in definitions demand.
func passingDefaults() proof.Aggregate {
	types := []models.ProofType{
		models.ProofBuildOutput, models.ProofTestOutput,
		models.ProofCoverageReport, models.ProofLintOutput,
		models.ProofSecurityScan, models.ProofSmokeTest,
		models.ProofDeploymentLog, models.ProofLighthouseReport,
		models.ProofAccessibilityScan,
	}
	return proof.Aggregate{Pass: len(types), PassedTypes: types}
}

type fixture struct {
	machine *Machine
	db      *state.DB
	pub     *events.MemoryPublisher
	checker *stubChecker
	project *models.Project
	first   *models.Gate
}

func setupMachine(t *testing.T) *fixture {
	t.Helper()
	db, err := state.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pub := events.NewMemoryPublisher()
	checker := &stubChecker{}
	machine := NewMachine(db, checker, nil, nil, pub, nil)

	project := &models.Project{
		ID:        "proj-1",
		Name:      "demo",
		OwnerID:   "user-1",
		Workspace: t.TempDir(),
	}
	first, err := machine.InitProject(context.Background(), project)
	if err != nil {
		t.Fatalf("InitProject failed: %v", err)
	}
	return &fixture{machine: machine, db: db, pub: pub, checker: checker, project: project, first: first}
}

// approveThrough approves checkpoints in order up to and including target.
func (f *fixture) approveThrough(t *testing.T, target string) *models.Gate {
	t.Helper()
	var last *models.Gate
	current := f.first
	for {
		approved, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
			GateID:   current.ID,
			Approved: true,
			Notes:    "approve",
			Actor:    "user-1",
		})
		if err != nil {
			t.Fatalf("approve %s: %v", current.Type, err)
		}
		last = approved
		if approved.Type.String() == target {
			return last
		}
		next, ok := approved.Type.Next()
		if !ok {
			t.Fatalf("ran out of checkpoints before %s", target)
		}
		gate, err := f.db.FindGate("proj-1", next)
		if err != nil || gate == nil {
			t.Fatalf("next gate %s not created: %v", next, err)
		}
		current = gate
	}
}

func TestInitProject_OpensFirstGate(t *testing.T) {
	f := setupMachine(t)

	if f.first.Type.String() != "G1_PENDING" {
		t.Errorf("first gate = %s, want G1_PENDING", f.first.Type)
	}
	if f.first.Status != models.GatePending {
		t.Errorf("status = %s, want PENDING", f.first.Status)
	}

	topics := f.pub.Topics()
	if len(topics) != 1 || topics[0] != events.TopicGateReady {
		t.Errorf("topics = %v, want one gate.ready", topics)
	}
}

func TestRequestApproval_Approves(t *testing.T) {
	f := setupMachine(t)

	gate, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   f.first.ID,
		Approved: true,
		Notes:    "lgtm",
		Actor:    "user-1",
	})
	if err != nil {
		t.Fatalf("RequestApproval failed: %v", err)
	}
	if gate.Status != models.GateApproved {
		t.Errorf("status = %s, want APPROVED", gate.Status)
	}
	if gate.ApprovedAt == nil || gate.ApprovedBy != "user-1" {
		t.Errorf("approval stamps missing: %+v", gate)
	}

	// The successor checkpoint exists in PENDING state.
	next, _ := gate.Type.Next()
	successor, err := f.db.FindGate("proj-1", next)
	if err != nil {
		t.Fatalf("find successor: %v", err)
	}
	if successor == nil || successor.Status != models.GatePending {
		t.Errorf("successor = %+v, want PENDING gate", successor)
	}
}

func TestRequestApproval_NotFound(t *testing.T) {
	f := setupMachine(t)

	_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   "absent",
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRequestApproval_Forbidden(t *testing.T) {
	f := setupMachine(t)

	_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   f.first.ID,
		Approved: true,
		Notes:    "approve",
		Actor:    "intruder",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestRequestApproval_AmbiguousNotesRejected(t *testing.T) {
	f := setupMachine(t)

	// "ok" is ambiguous filler and must never unlock a transition.
	for _, notes := range []string{"ok", "sure", "fine", "", "I might approve later"} {
		_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
			GateID:   f.first.ID,
			Approved: true,
			Notes:    notes,
			Actor:    "user-1",
		})
		if !errors.Is(err, ErrInvalidApproval) {
			t.Errorf("notes %q: err = %v, want ErrInvalidApproval", notes, err)
		}
	}

	gate, err := f.db.GetGate(f.first.ID)
	if err != nil {
		t.Fatalf("get gate: %v", err)
	}
	if gate.Status == models.GateApproved {
		t.Error("ambiguous notes approved the gate")
	}
}

func TestRequestApproval_VocabularyAccepted(t *testing.T) {
	for _, notes := range []string{"approve", "Approved!", "yes", "LGTM", "ship it", "looks good"} {
		f := setupMachine(t)
		_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
			GateID:   f.first.ID,
			Approved: true,
			Notes:    notes,
			Actor:    "user-1",
		})
		if err != nil {
			t.Errorf("notes %q: unexpected error %v", notes, err)
		}
	}
}

func TestRequestApproval_OutOfOrderRefused(t *testing.T) {
	f := setupMachine(t)
	f.approveThrough(t, "G1_COMPLETE")

	// G2_COMPLETE does not exist yet; create it directly to simulate a
	// caller holding a raw gate ID and skipping G2_PENDING.
	gt, _ := models.ParseGateType("G2_COMPLETE")
	skipped := &models.Gate{
		ID:        "gate-skip",
		ProjectID: "proj-1",
		Type:      gt,
		Status:    models.GatePending,
		CreatedAt: time.Now(),
	}
	if err := f.db.CreateGate(skipped); err != nil {
		t.Fatalf("create gate: %v", err)
	}

	_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   "gate-skip",
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	if !errors.Is(err, ErrPreviousGateNotApproved) {
		t.Errorf("err = %v, want ErrPreviousGateNotApproved", err)
	}
}

// TestSequenceInvariant_RandomOrderings drives random approval attempts
// and checks that no checkpoint ever reaches APPROVED while its
// predecessor is unapproved.
func TestSequenceInvariant_RandomOrderings(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		f := setupMachine(t)

		// Materialize every checkpoint so out-of-order attempts have a
		// concrete gate ID to aim at.
		gt := f.first.Type
		for {
			next, ok := gt.Next()
			if !ok {
				break
			}
			existing, _ := f.db.FindGate("proj-1", next)
			if existing == nil {
				g := &models.Gate{
					ID:        "gate-" + next.String(),
					ProjectID: "proj-1",
					Type:      next,
					Status:    models.GatePending,
					CreatedAt: time.Now(),
				}
				if err := f.db.CreateGate(g); err != nil {
					t.Fatalf("create gate: %v", err)
				}
			}
			gt = next
		}

		gates, err := f.db.ListGatesForProject("proj-1")
		if err != nil {
			t.Fatalf("list gates: %v", err)
		}

		for attempt := 0; attempt < 40; attempt++ {
			target := gates[rng.Intn(len(gates))]
			_, _ = f.machine.RequestApproval(context.Background(), ApprovalRequest{
				GateID:   target.ID,
				Approved: true,
				Notes:    "approve",
				Actor:    "user-1",
			})

			current, err := f.db.ListGatesForProject("proj-1")
			if err != nil {
				t.Fatalf("list gates: %v", err)
			}
			for i := 1; i < len(current); i++ {
				if current[i].Status == models.GateApproved && current[i-1].Status != models.GateApproved {
					t.Fatalf("trial %d: %s approved before %s", trial, current[i].Type, current[i-1].Type)
				}
			}
		}
	}
}

func TestRequestApproval_RejectionRecordsReason(t *testing.T) {
	f := setupMachine(t)

	gate, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   f.first.ID,
		Approved: false,
		Notes:    "requirements incomplete",
		Actor:    "user-1",
	})
	if err != nil {
		t.Fatalf("RequestApproval failed: %v", err)
	}
	if gate.Status != models.GateRejected {
		t.Errorf("status = %s, want REJECTED", gate.Status)
	}
	if gate.BlockingReason != "requirements incomplete" {
		t.Errorf("BlockingReason = %q", gate.BlockingReason)
	}

	// Rejection must not create the successor.
	next, _ := gate.Type.Next()
	successor, err := f.db.FindGate("proj-1", next)
	if err != nil {
		t.Fatalf("find successor: %v", err)
	}
	if successor != nil {
		t.Errorf("rejection created successor gate %+v", successor)
	}

	topics := f.pub.Topics()
	if topics[len(topics)-1] != events.TopicGateRejected {
		t.Errorf("last topic = %s, want gate.rejected", topics[len(topics)-1])
	}
}

func TestRequestApproval_ProofGate(t *testing.T) {
	f := setupMachine(t)
	f.checker.agg = proof.Aggregate{Fail: 1, FailingTypes: []models.ProofType{models.ProofCoverageReport}}

	// Flag the first gate as proof-requiring.
	f.first.RequiresProof = true
	if err := f.db.UpdateGate(f.first); err != nil {
		t.Fatalf("update gate: %v", err)
	}

	_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   f.first.ID,
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	var proofErr *ProofFailedError
	if !errors.As(err, &proofErr) {
		t.Fatalf("err = %v, want ProofFailedError", err)
	}
	if len(proofErr.FailingTypes) != 1 || proofErr.FailingTypes[0] != models.ProofCoverageReport {
		t.Errorf("FailingTypes = %v", proofErr.FailingTypes)
	}
	if f.checker.calls != 1 {
		t.Errorf("checker calls = %d, want 1", f.checker.calls)
	}

	// With passing proofs the same request goes through.
	f.checker.agg = proof.Aggregate{Pass: 1}
	gate, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   f.first.ID,
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	if err != nil {
		t.Fatalf("RequestApproval failed: %v", err)
	}
	if gate.Status != models.GateApproved {
		t.Errorf("status = %s, want APPROVED", gate.Status)
	}
}

// TestRequestApproval_ProofGateNoEvidenceRefused checks that a
// proof-requiring checkpoint with zero attached artifacts is refused, with
// every expected proof type reported as blocking.
func TestRequestApproval_ProofGateNoEvidenceRefused(t *testing.T) {
	f := setupMachine(t)
	f.approveThrough(t, "G2_PENDING")

	gt, _ := models.ParseGateType("G2_COMPLETE")
	gate, err := f.db.FindGate("proj-1", gt)
	if err != nil || gate == nil {
		t.Fatalf("G2_COMPLETE not found: %v", err)
	}

	// No artifacts attached: the batch validation reports nothing at all.
	f.checker.agg = proof.Aggregate{}
	_, err = f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   gate.ID,
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	var proofErr *ProofFailedError
	if !errors.As(err, &proofErr) {
		t.Fatalf("err = %v, want ProofFailedError", err)
	}
	for _, want := range []models.ProofType{models.ProofBuildOutput, models.ProofTestOutput} {
		var found bool
		for _, ft := range proofErr.FailingTypes {
			if ft == want {
				found = true
			}
		}
		if !found {
			t.Errorf("FailingTypes = %v, missing %s", proofErr.FailingTypes, want)
		}
	}

	reloaded, err := f.db.GetGate(gate.ID)
	if err != nil {
		t.Fatalf("get gate: %v", err)
	}
	if reloaded.Status == models.GateApproved {
		t.Error("gate approved without any evidence")
	}
}

// TestRequestApproval_ProofGatePartialEvidenceRefused checks that passing
// artifacts for only some of the required types still block approval.
func TestRequestApproval_ProofGatePartialEvidenceRefused(t *testing.T) {
	f := setupMachine(t)
	f.approveThrough(t, "G2_PENDING")

	gt, _ := models.ParseGateType("G2_COMPLETE")
	gate, err := f.db.FindGate("proj-1", gt)
	if err != nil || gate == nil {
		t.Fatalf("G2_COMPLETE not found: %v", err)
	}

	// Only the build output passed; test output was never attached.
	f.checker.agg = proof.Aggregate{Pass: 1, PassedTypes: []models.ProofType{models.ProofBuildOutput}}
	_, err = f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   gate.ID,
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	var proofErr *ProofFailedError
	if !errors.As(err, &proofErr) {
		t.Fatalf("err = %v, want ProofFailedError", err)
	}
	if len(proofErr.FailingTypes) != 1 || proofErr.FailingTypes[0] != models.ProofTestOutput {
		t.Errorf("FailingTypes = %v, want [test_output]", proofErr.FailingTypes)
	}

	// With both required types passing the same request goes through.
	f.checker.agg = proof.Aggregate{Pass: 2, PassedTypes: []models.ProofType{
		models.ProofBuildOutput, models.ProofTestOutput,
	}}
	approved, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   gate.ID,
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	if err != nil {
		t.Fatalf("RequestApproval failed: %v", err)
	}
	if approved.Status != models.GateApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}
}

func TestRequestApproval_FinalGateCompletesMachine(t *testing.T) {
	f := setupMachine(t)
	// Default definitions demand proofs at several exit checkpoints; make
	// the stub checker pass every required type.
	f.checker.agg = passingDefaults()

	last := f.approveThrough(t, "G9_COMPLETE")
	if last.Type.String() != "G9_COMPLETE" {
		t.Fatalf("last gate = %s", last.Type)
	}

	done, err := f.machine.Completed("proj-1")
	if err != nil {
		t.Fatalf("Completed failed: %v", err)
	}
	if !done {
		t.Error("machine not complete after G9_COMPLETE approval")
	}

	current, err := f.machine.CurrentGate("proj-1")
	if err != nil {
		t.Fatalf("CurrentGate failed: %v", err)
	}
	if current != nil {
		t.Errorf("CurrentGate = %+v, want nil after completion", current)
	}

	gates, err := f.db.ListGatesForProject("proj-1")
	if err != nil {
		t.Fatalf("list gates: %v", err)
	}
	if len(gates) != 18 {
		t.Errorf("gate count = %d, want 18", len(gates))
	}
}

func TestRequestApproval_AlreadyApproved(t *testing.T) {
	f := setupMachine(t)
	f.approveThrough(t, "G1_PENDING")

	_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
		GateID:   f.first.ID,
		Approved: true,
		Notes:    "approve",
		Actor:    "user-1",
	})
	if !errors.Is(err, ErrAlreadyApproved) {
		t.Errorf("err = %v, want ErrAlreadyApproved", err)
	}
}

func TestRequestApproval_ConcurrentSameGate(t *testing.T) {
	f := setupMachine(t)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.machine.RequestApproval(context.Background(), ApprovalRequest{
				GateID:   f.first.ID,
				Approved: true,
				Notes:    "approve",
				Actor:    "user-1",
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	// Exactly one request wins; the rest observe the terminal state.
	var wins int
	for _, err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrAlreadyApproved) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}

	// The successor was created once.
	next, _ := f.first.Type.Next()
	gates, err := f.db.ListGatesForProject("proj-1")
	if err != nil {
		t.Fatalf("list gates: %v", err)
	}
	var successors int
	for _, g := range gates {
		if g.Type == next {
			successors++
		}
	}
	if successors != 1 {
		t.Errorf("successor count = %d, want 1", successors)
	}
}

func TestBlockAndReopen(t *testing.T) {
	f := setupMachine(t)

	blocked, err := f.machine.Block(context.Background(), f.first.ID, "waiting on legal review", "user-1")
	if err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	if blocked.Status != models.GateBlocked || blocked.BlockingReason == "" {
		t.Errorf("blocked gate = %+v", blocked)
	}

	reopened, err := f.machine.Reopen(context.Background(), f.first.ID, "user-1")
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if reopened.Status != models.GatePending || reopened.BlockingReason != "" {
		t.Errorf("reopened gate = %+v", reopened)
	}

	// A PENDING gate cannot be reopened again.
	if _, err := f.machine.Reopen(context.Background(), f.first.ID, "user-1"); err == nil {
		t.Error("Reopen accepted a PENDING gate")
	}
}

func TestCurrentGate(t *testing.T) {
	f := setupMachine(t)

	current, err := f.machine.CurrentGate("proj-1")
	if err != nil {
		t.Fatalf("CurrentGate failed: %v", err)
	}
	if current == nil || current.Type.String() != "G1_PENDING" {
		t.Errorf("current = %+v, want G1_PENDING", current)
	}

	f.approveThrough(t, "G1_COMPLETE")
	current, err = f.machine.CurrentGate("proj-1")
	if err != nil {
		t.Fatalf("CurrentGate failed: %v", err)
	}
	if current == nil || current.Type.String() != "G2_PENDING" {
		t.Errorf("current = %+v, want G2_PENDING", current)
	}
}
