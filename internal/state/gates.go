package state

import (
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/ninegate/pkg/models"
)

const gateColumns = `id, project_id, gate_number, gate_step, status, review_notes,
	blocking_reason, requires_proof, approved_at, approved_by, created_at`

// Gate CRUD operations

// CreateGate creates a new gate. The (project, number, step) tuple is
// unique, so re-creating an existing checkpoint fails.
func (db *DB) CreateGate(g *models.Gate) error {
	_, err := db.Exec(`
		INSERT INTO gates (`+gateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.ProjectID, g.Type.Number, string(g.Type.Step), string(g.Status),
		g.ReviewNotes, g.BlockingReason, g.RequiresProof,
		formatNullableTime(g.ApprovedAt), g.ApprovedBy, formatTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("create gate: %w", err)
	}
	return nil
}

// GetGate retrieves a gate by ID. Returns nil if not found.
func (db *DB) GetGate(id string) (*models.Gate, error) {
	row := db.QueryRow(`SELECT `+gateColumns+` FROM gates WHERE id = ?`, id)
	g, err := scanGate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gate: %w", err)
	}
	return g, nil
}

// FindGate retrieves the gate at a specific checkpoint of a project.
// Returns nil if the checkpoint has not been created yet.
func (db *DB) FindGate(projectID string, gt models.GateType) (*models.Gate, error) {
	row := db.QueryRow(`
		SELECT `+gateColumns+` FROM gates
		WHERE project_id = ? AND gate_number = ? AND gate_step = ?
	`, projectID, gt.Number, string(gt.Step))
	g, err := scanGate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find gate: %w", err)
	}
	return g, nil
}

// ListGatesForProject retrieves all gates of a project in checkpoint order.
func (db *DB) ListGatesForProject(projectID string) ([]models.Gate, error) {
	rows, err := db.Query(`
		SELECT `+gateColumns+` FROM gates
		WHERE project_id = ?
		ORDER BY gate_number, gate_step DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list gates: %w", err)
	}
	defer rows.Close()

	var gates []models.Gate
	for rows.Next() {
		g, err := scanGate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gate: %w", err)
		}
		gates = append(gates, *g)
	}
	return gates, rows.Err()
}

// UpdateGate updates a gate's mutable fields.
func (db *DB) UpdateGate(g *models.Gate) error {
	_, err := db.Exec(`
		UPDATE gates SET status = ?, review_notes = ?, blocking_reason = ?,
			requires_proof = ?, approved_at = ?, approved_by = ?
		WHERE id = ?
	`, string(g.Status), g.ReviewNotes, g.BlockingReason, g.RequiresProof,
		formatNullableTime(g.ApprovedAt), g.ApprovedBy, g.ID)
	if err != nil {
		return fmt.Errorf("update gate: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...any) error
}

func scanGate(s scanner) (*models.Gate, error) {
	var g models.Gate
	var step, status string
	var reviewNotes, blockingReason, approvedBy sql.NullString
	var approvedAt sql.NullString
	var createdAt string

	err := s.Scan(&g.ID, &g.ProjectID, &g.Type.Number, &step, &status,
		&reviewNotes, &blockingReason, &g.RequiresProof,
		&approvedAt, &approvedBy, &createdAt)
	if err != nil {
		return nil, err
	}

	g.Type.Step = models.GateStep(step)
	g.Status = models.GateStatus(status)
	g.ReviewNotes = reviewNotes.String
	g.BlockingReason = blockingReason.String
	g.ApprovedAt = parseNullableTime(approvedAt)
	g.ApprovedBy = approvedBy.String
	g.CreatedAt, _ = parseTime(createdAt)
	return &g, nil
}
