package state

import (
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/ninegate/pkg/models"
)

const artifactColumns = `id, project_id, gate_id, proof_type, file_path, file_hash,
	content_summary, pass_fail, verified, verified_at, verified_by, created_at`

// Proof artifact CRUD operations

// CreateArtifact records a new proof artifact.
func (db *DB) CreateArtifact(a *models.ProofArtifact) error {
	_, err := db.Exec(`
		INSERT INTO proof_artifacts (`+artifactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ProjectID, nullableString(a.GateID), string(a.Type), a.FilePath,
		a.FileHash, a.ContentSummary, string(a.Verdict), a.Verified,
		formatNullableTime(a.VerifiedAt), a.VerifiedBy, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	return nil
}

// GetArtifact retrieves a proof artifact by ID. Returns nil if not found.
func (db *DB) GetArtifact(id string) (*models.ProofArtifact, error) {
	row := db.QueryRow(`SELECT `+artifactColumns+` FROM proof_artifacts WHERE id = ?`, id)
	a, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return a, nil
}

// ListArtifactsForGate retrieves all proof artifacts attached to a gate.
func (db *DB) ListArtifactsForGate(gateID string) ([]models.ProofArtifact, error) {
	return db.listArtifacts(`
		SELECT `+artifactColumns+` FROM proof_artifacts
		WHERE gate_id = ? ORDER BY created_at
	`, gateID)
}

// ListArtifactsForProject retrieves all proof artifacts of a project.
func (db *DB) ListArtifactsForProject(projectID string) ([]models.ProofArtifact, error) {
	return db.listArtifacts(`
		SELECT `+artifactColumns+` FROM proof_artifacts
		WHERE project_id = ? ORDER BY created_at
	`, projectID)
}

func (db *DB) listArtifacts(query string, arg any) ([]models.ProofArtifact, error) {
	rows, err := db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []models.ProofArtifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, rows.Err()
}

// UpdateArtifact updates an artifact's verdict and verification fields in
// place. Re-validation never creates a duplicate record.
func (db *DB) UpdateArtifact(a *models.ProofArtifact) error {
	_, err := db.Exec(`
		UPDATE proof_artifacts SET file_hash = ?, content_summary = ?,
			pass_fail = ?, verified = ?, verified_at = ?, verified_by = ?
		WHERE id = ?
	`, a.FileHash, a.ContentSummary, string(a.Verdict), a.Verified,
		formatNullableTime(a.VerifiedAt), a.VerifiedBy, a.ID)
	if err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}
	return nil
}

func scanArtifact(s scanner) (*models.ProofArtifact, error) {
	var a models.ProofArtifact
	var proofType string
	var gateID, summary, verdict, verifiedBy sql.NullString
	var verifiedAt sql.NullString
	var createdAt string

	err := s.Scan(&a.ID, &a.ProjectID, &gateID, &proofType, &a.FilePath,
		&a.FileHash, &summary, &verdict, &a.Verified,
		&verifiedAt, &verifiedBy, &createdAt)
	if err != nil {
		return nil, err
	}

	a.GateID = gateID.String
	a.Type = models.ProofType(proofType)
	a.ContentSummary = summary.String
	a.Verdict = models.PassFail(verdict.String)
	a.VerifiedAt = parseNullableTime(verifiedAt)
	a.VerifiedBy = verifiedBy.String
	a.CreatedAt, _ = parseTime(createdAt)
	return &a, nil
}

// nullableString stores empty strings as NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
