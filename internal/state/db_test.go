package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/ninegate/pkg/models"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// seedProject creates a project row and returns it.
func seedProject(t *testing.T, db *DB, id, owner string) *models.Project {
	t.Helper()
	p := &models.Project{
		ID:        id,
		Name:      "demo",
		OwnerID:   owner,
		Workspace: "/tmp/demo",
		CreatedAt: time.Now(),
	}
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	return p
}

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "c", "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Error("parent directories were not created")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	// Re-running migrations must be a no-op.
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	var version int
	row := db.QueryRow("SELECT MAX(version) FROM schema_version")
	if err := row.Scan(&version); err != nil {
		t.Fatalf("scan version: %v", err)
	}
	if version != 3 {
		t.Errorf("schema version = %d, want 3", version)
	}
}

func TestProjectDBPath(t *testing.T) {
	got := ProjectDBPath("/work/app")
	want := filepath.Join("/work/app", ".ninegate", "state.db")
	if got != want {
		t.Errorf("ProjectDBPath = %q, want %q", got, want)
	}
}

func TestProject_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	seedProject(t, db, "proj-1", "user-1")

	got, err := db.GetProject("proj-1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetProject returned nil for existing project")
	}
	if got.Name != "demo" || got.OwnerID != "user-1" || got.Workspace != "/tmp/demo" {
		t.Errorf("got %+v", got)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetProject("absent")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetProject = %+v, want nil", got)
	}
}

// TestFindProjectByWorkspace checks the lookup matches on workspace alone,
// so re-initializing a directory never duplicates its project, whoever
// registered it first.
func TestFindProjectByWorkspace(t *testing.T) {
	db := setupTestDB(t)
	p := &models.Project{
		ID:        "proj-ws",
		Name:      "demo",
		OwnerID:   "user-2",
		Workspace: "/work/app",
		CreatedAt: time.Now(),
	}
	if err := db.CreateProject(p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	got, err := db.FindProjectByWorkspace("/work/app")
	if err != nil {
		t.Fatalf("FindProjectByWorkspace failed: %v", err)
	}
	if got == nil || got.ID != "proj-ws" || got.OwnerID != "user-2" {
		t.Errorf("got %+v, want proj-ws owned by user-2", got)
	}

	absent, err := db.FindProjectByWorkspace("/work/other")
	if err != nil {
		t.Fatalf("FindProjectByWorkspace failed: %v", err)
	}
	if absent != nil {
		t.Errorf("got %+v, want nil for unregistered workspace", absent)
	}
}

func TestListProjectsByOwner(t *testing.T) {
	db := setupTestDB(t)
	seedProject(t, db, "proj-1", "user-1")
	seedProject(t, db, "proj-2", "user-1")
	seedProject(t, db, "proj-3", "user-2")

	got, err := db.ListProjectsByOwner("user-1")
	if err != nil {
		t.Fatalf("ListProjectsByOwner failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
