// Package state provides SQLite-based persistence for ninegate.
package state

import (
	"io"

	"github.com/ShayCichocki/ninegate/pkg/models"
)

// ProjectStore handles project persistence operations.
type ProjectStore interface {
	CreateProject(p *models.Project) error
	GetProject(id string) (*models.Project, error)
	ListProjectsByOwner(ownerID string) ([]models.Project, error)
	FindProjectByWorkspace(workspace string) (*models.Project, error)
	UpdateProject(p *models.Project) error
}

// GateStore handles gate persistence operations.
type GateStore interface {
	CreateGate(g *models.Gate) error
	GetGate(id string) (*models.Gate, error)
	FindGate(projectID string, gt models.GateType) (*models.Gate, error)
	ListGatesForProject(projectID string) ([]models.Gate, error)
	UpdateGate(g *models.Gate) error
}

// ArtifactStore handles proof artifact persistence operations.
type ArtifactStore interface {
	CreateArtifact(a *models.ProofArtifact) error
	GetArtifact(id string) (*models.ProofArtifact, error)
	ListArtifactsForGate(gateID string) ([]models.ProofArtifact, error)
	ListArtifactsForProject(projectID string) ([]models.ProofArtifact, error)
	UpdateArtifact(a *models.ProofArtifact) error
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for gate-workflow persistence.
// It composes focused sub-interfaces so the gate machine and proof service
// can depend on just the operations they use, not the SQLite backend.
type Store interface {
	io.Closer
	Migrator
	ProjectStore
	GateStore
	ArtifactStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store         = (*DB)(nil)
	_ Migrator      = (*DB)(nil)
	_ ProjectStore  = (*DB)(nil)
	_ GateStore     = (*DB)(nil)
	_ ArtifactStore = (*DB)(nil)
)
