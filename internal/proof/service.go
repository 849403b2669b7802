package proof

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/ninegate/internal/config"
	"github.com/ShayCichocki/ninegate/internal/events"
	"github.com/ShayCichocki/ninegate/internal/logging"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
	"github.com/ShayCichocki/ninegate/internal/state"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

var (
	// ErrNotFound is returned when a referenced artifact or project is missing.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when an actor is not the project owner.
	// Only owners may create, validate, or delete proof artifacts.
	ErrForbidden = errors.New("forbidden: not the project owner")
)

// Store is the persistence surface the proof service needs.
type Store interface {
	state.ProjectStore
	state.ArtifactStore
}

// Service creates and judges proof artifacts.
type Service struct {
	store      Store
	thresholds config.ThresholdsConfig
	publisher  events.Publisher
	logger     *logging.DebugLogger
}

// NewService builds a Service. A nil publisher drops events; a nil logger
// disables debug logging.
func NewService(store Store, thresholds config.ThresholdsConfig, publisher events.Publisher, logger *logging.DebugLogger) *Service {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Service{
		store:      store,
		thresholds: thresholds,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreateParams describes a new proof artifact.
type CreateParams struct {
	ProjectID string
	GateID    string
	Type      models.ProofType
	// FilePath is the evidence file, relative to the project workspace.
	FilePath string
	// Summary overrides the validator's summary when non-empty.
	Summary string
	// Validate runs the matching validator immediately after creation.
	Validate bool
	// Actor is the user performing the operation. Must own the project.
	Actor string
}

// Create hashes the referenced file, optionally judges it, and persists
// the artifact.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.ProofArtifact, error) {
	if !params.Type.Valid() {
		return nil, fmt.Errorf("unknown proof type %q", params.Type)
	}

	project, err := s.ownedProject(params.ProjectID, params.Actor)
	if err != nil {
		return nil, err
	}

	root, err := sandbox.NewRoot(project.Workspace)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	content, err := root.ReadFile(params.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read evidence file: %w", err)
	}

	artifact := &models.ProofArtifact{
		ID:             uuid.NewString(),
		ProjectID:      params.ProjectID,
		GateID:         params.GateID,
		Type:           params.Type,
		FilePath:       params.FilePath,
		FileHash:       hashContent(content),
		ContentSummary: params.Summary,
		CreatedAt:      time.Now(),
	}

	if params.Validate {
		s.judge(artifact, content, params.Actor)
	}

	if err := s.store.CreateArtifact(artifact); err != nil {
		return nil, err
	}
	s.logger.Log("proof: created %s artifact %s (verdict=%s)", artifact.Type, artifact.ID, artifact.Verdict)

	if params.Validate {
		_ = s.publisher.Publish(ctx, events.TopicProofValidated, events.ProofValidated{Artifact: artifact})
	}
	return artifact, nil
}

// Revalidate re-runs the matching validator against the artifact's file
// and updates the stored verdict and hash in place.
func (s *Service) Revalidate(ctx context.Context, artifactID, actor string) (*models.ProofArtifact, error) {
	artifact, err := s.store.GetArtifact(artifactID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, fmt.Errorf("artifact %s: %w", artifactID, ErrNotFound)
	}

	project, err := s.ownedProject(artifact.ProjectID, actor)
	if err != nil {
		return nil, err
	}

	root, err := sandbox.NewRoot(project.Workspace)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	content, err := root.ReadFile(artifact.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read evidence file: %w", err)
	}

	artifact.FileHash = hashContent(content)
	s.judge(artifact, content, actor)

	if err := s.store.UpdateArtifact(artifact); err != nil {
		return nil, err
	}
	s.logger.Log("proof: revalidated artifact %s (verdict=%s)", artifact.ID, artifact.Verdict)

	_ = s.publisher.Publish(ctx, events.TopicProofValidated, events.ProofValidated{Artifact: artifact})
	return artifact, nil
}

// Aggregate summarizes a batch validation over a gate's artifacts.
type Aggregate struct {
	Pass    int
	Fail    int
	Warning int
	Info    int
	// FailingTypes lists the proof types whose latest verdict blocks
	// approval, in artifact creation order.
	FailingTypes []models.ProofType
	// PassedTypes lists the proof types with at least one passing
	// artifact, in artifact creation order.
	PassedTypes []models.ProofType
}

// AllPassed reports whether no artifact carries a blocking verdict.
func (a Aggregate) AllPassed() bool {
	return a.Fail == 0
}

// HasPassing reports whether at least one artifact of type t passed.
func (a Aggregate) HasPassing(t models.ProofType) bool {
	for _, pt := range a.PassedTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// ValidateAllForGate re-validates every artifact attached to a gate and
// returns aggregate counts. Repeat calls on unchanged files are
// deterministic: the same files produce the same verdicts.
func (s *Service) ValidateAllForGate(ctx context.Context, projectID, gateID, actor string) (Aggregate, error) {
	project, err := s.ownedProject(projectID, actor)
	if err != nil {
		return Aggregate{}, err
	}

	root, err := sandbox.NewRoot(project.Workspace)
	if err != nil {
		return Aggregate{}, fmt.Errorf("open workspace: %w", err)
	}

	artifacts, err := s.store.ListArtifactsForGate(gateID)
	if err != nil {
		return Aggregate{}, err
	}

	var agg Aggregate
	for i := range artifacts {
		artifact := &artifacts[i]
		content, err := root.ReadFile(artifact.FilePath)
		if err != nil {
			// A vanished evidence file is a failed proof, not an error.
			artifact.Verdict = models.VerdictFail
			artifact.ContentSummary = fmt.Sprintf("evidence file missing: %s", artifact.FilePath)
			artifact.Verified = false
		} else {
			artifact.FileHash = hashContent(content)
			s.judge(artifact, content, actor)
		}

		if err := s.store.UpdateArtifact(artifact); err != nil {
			return Aggregate{}, err
		}

		switch artifact.Verdict {
		case models.VerdictPass:
			agg.Pass++
			agg.PassedTypes = append(agg.PassedTypes, artifact.Type)
		case models.VerdictFail:
			agg.Fail++
			agg.FailingTypes = append(agg.FailingTypes, artifact.Type)
		case models.VerdictWarning:
			agg.Warning++
		default:
			agg.Info++
		}
	}

	s.logger.Log("proof: gate %s batch validation pass=%d fail=%d warning=%d",
		gateID, agg.Pass, agg.Fail, agg.Warning)
	return agg, nil
}

// judge runs the artifact's validator over content and records the verdict.
func (s *Service) judge(artifact *models.ProofArtifact, content []byte, actor string) {
	validator := ValidatorFor(artifact.Type, s.thresholds)
	if validator == nil {
		return
	}
	verdict := validator.Validate(content)
	now := time.Now()

	artifact.Verdict = verdict.PassFail
	if artifact.ContentSummary == "" || artifact.Verified {
		artifact.ContentSummary = verdict.Summary
	}
	artifact.Verified = true
	artifact.VerifiedAt = &now
	artifact.VerifiedBy = actor
}

// ownedProject loads a project and enforces the ownership check.
func (s *Service) ownedProject(projectID, actor string) (*models.Project, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if project.OwnerID != actor {
		return nil, ErrForbidden
	}
	return project, nil
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
