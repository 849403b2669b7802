package state

import (
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/ninegate/pkg/models"
)

// Project CRUD operations

// CreateProject creates a new project.
func (db *DB) CreateProject(p *models.Project) error {
	_, err := db.Exec(`
		INSERT INTO projects (id, name, owner_id, workspace, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.OwnerID, p.Workspace, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID. Returns nil if not found.
func (db *DB) GetProject(id string) (*models.Project, error) {
	row := db.QueryRow(`
		SELECT id, name, owner_id, workspace, created_at
		FROM projects WHERE id = ?
	`, id)

	var p models.Project
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Workspace, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	p.CreatedAt, _ = parseTime(createdAt)
	return &p, nil
}

// ListProjectsByOwner retrieves all projects belonging to a user.
func (db *DB) ListProjectsByOwner(ownerID string) ([]models.Project, error) {
	rows, err := db.Query(`
		SELECT id, name, owner_id, workspace, created_at
		FROM projects WHERE owner_id = ? ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Workspace, &createdAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt, _ = parseTime(createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// FindProjectByWorkspace retrieves the project registered for a workspace
// directory, regardless of owner. Returns nil if not found.
func (db *DB) FindProjectByWorkspace(workspace string) (*models.Project, error) {
	row := db.QueryRow(`
		SELECT id, name, owner_id, workspace, created_at
		FROM projects WHERE workspace = ?
	`, workspace)

	var p models.Project
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Workspace, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project by workspace: %w", err)
	}

	p.CreatedAt, _ = parseTime(createdAt)
	return &p, nil
}

// UpdateProject updates a project's mutable fields.
func (db *DB) UpdateProject(p *models.Project) error {
	_, err := db.Exec(`
		UPDATE projects SET name = ?, owner_id = ?, workspace = ?
		WHERE id = ?
	`, p.Name, p.OwnerID, p.Workspace, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}
