package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// StructureKind classifies a workspace layout.
type StructureKind string

const (
	// StructureSingle is a workspace with one package manifest at the root.
	StructureSingle StructureKind = "single"
	// StructureFullstack is a split layout with independent frontend/ and
	// backend/ sub-projects, each with its own manifest.
	StructureFullstack StructureKind = "fullstack"
	// StructureUnknown is a workspace with no recognizable manifest.
	StructureUnknown StructureKind = "unknown"
)

// Structure describes a detected workspace layout.
type Structure struct {
	Kind        StructureKind `json:"kind"`
	FrontendDir string        `json:"frontend_dir,omitempty"`
	BackendDir  string        `json:"backend_dir,omitempty"`
}

// DetectProjectStructure classifies the workspace. A split layout is
// detected by the presence of two independent package manifests under
// frontend/ and backend/.
func (p *Pipeline) DetectProjectStructure(root sandbox.Root) Structure {
	frontend := hasManifest(root, "frontend")
	backend := hasManifest(root, "backend")
	if frontend && backend {
		return Structure{Kind: StructureFullstack, FrontendDir: "frontend", BackendDir: "backend"}
	}
	if hasManifest(root, "") {
		return Structure{Kind: StructureSingle}
	}
	return Structure{Kind: StructureUnknown}
}

// SideResult holds the install and build outcomes for one side of a split
// project.
type SideResult struct {
	Name    string        `json:"name"`
	Install InstallResult `json:"install"`
	Build   BuildResult   `json:"build"`
}

// Success is true when both install and build passed for this side.
func (s SideResult) Success() bool {
	return s.Install.Success && s.Build.Success
}

// FullstackResult aggregates validation of a split frontend/backend
// project. Both sides must independently install and build; any failure
// names the originating side.
type FullstackResult struct {
	OverallSuccess bool          `json:"overall_success"`
	Frontend       SideResult    `json:"frontend"`
	Backend        SideResult    `json:"backend"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// ValidateFullstackProject installs and builds both halves of a split
// project. A workspace that is not actually split fails with a structure
// error rather than validating half a project.
func (p *Pipeline) ValidateFullstackProject(ctx context.Context, root sandbox.Root) FullstackResult {
	start := time.Now()

	structure := p.DetectProjectStructure(root)
	if structure.Kind != StructureFullstack {
		return FullstackResult{
			Errors: []string{fmt.Sprintf(
				"workspace is not a fullstack split (detected %s); expected frontend/package.json and backend/package.json",
				structure.Kind)},
		}
	}

	result := FullstackResult{
		Frontend: p.validateSide(ctx, root, "frontend", structure.FrontendDir),
		Backend:  p.validateSide(ctx, root, "backend", structure.BackendDir),
	}
	for _, side := range []SideResult{result.Frontend, result.Backend} {
		if !side.Install.Success {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: dependency install failed", side.Name))
		}
		if !side.Build.Success {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: build failed", side.Name))
		}
	}
	result.OverallSuccess = result.Frontend.Success() && result.Backend.Success()
	result.Duration = time.Since(start)
	p.logger.Log("fullstack: success=%v frontend=%v backend=%v",
		result.OverallSuccess, result.Frontend.Success(), result.Backend.Success())
	return result
}

// validateSide installs and builds one sub-project. A failed install
// short-circuits the build, same as the single-project pipeline.
func (p *Pipeline) validateSide(ctx context.Context, root sandbox.Root, name, dir string) SideResult {
	side := SideResult{Name: name}
	side.Install = p.InstallDependencies(ctx, root, dir)
	if !side.Install.Success {
		side.Build = BuildResult{Skipped: true, SkipReason: SkippedInstallFailed, Errors: []string{SkippedInstallFailed}}
		return side
	}
	side.Build = p.RunBuild(ctx, root, dir)
	return side
}
