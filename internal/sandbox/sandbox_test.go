package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testRoot creates a Root over a fresh temp directory.
func testRoot(t *testing.T) Root {
	t.Helper()
	r, err := NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	return r
}

func TestNewRoot_RejectsRelative(t *testing.T) {
	if _, err := NewRoot("relative/path"); err == nil {
		t.Error("expected error for relative root")
	}
	if _, err := NewRoot(""); err == nil {
		t.Error("expected error for empty root")
	}
}

func TestJoin(t *testing.T) {
	r := testRoot(t)

	tests := []struct {
		name    string
		rel     string
		wantErr bool
	}{
		{"plain file", "package.json", false},
		{"nested file", "frontend/src/index.ts", false},
		{"dot", ".", false},
		{"dotdot escape", "../outside", true},
		{"nested dotdot escape", "a/../../outside", true},
		{"absolute path", "/etc/passwd", true},
		{"dotdot inside bounds", "frontend/../package.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abs, err := r.Join(tt.rel)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Join(%q) = %q, want traversal error", tt.rel, abs)
				} else if !errors.Is(err, ErrTraversal) && tt.rel != "" {
					t.Errorf("Join(%q) error = %v, want ErrTraversal", tt.rel, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Join(%q) failed: %v", tt.rel, err)
			}
		})
	}
}

func TestReadWriteFile(t *testing.T) {
	r := testRoot(t)

	content := []byte(`{"name":"demo"}`)
	if err := r.WriteFile("config/app.json", content); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := r.ReadFile("config/app.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("ReadFile = %q, want %q", got, content)
	}
}

func TestWriteFile_RejectsTraversal(t *testing.T) {
	r := testRoot(t)
	if err := r.WriteFile("../escape.txt", []byte("x")); !errors.Is(err, ErrTraversal) {
		t.Errorf("WriteFile traversal error = %v, want ErrTraversal", err)
	}
}

func TestFileExists(t *testing.T) {
	r := testRoot(t)

	if r.FileExists("missing.json") {
		t.Error("FileExists should be false for missing file")
	}
	if err := r.WriteFile("present.json", []byte("{}")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !r.FileExists("present.json") {
		t.Error("FileExists should be true after write")
	}
	if r.FileExists("../present.json") {
		t.Error("FileExists should be false for traversal path")
	}
}

func TestDirExists(t *testing.T) {
	r := testRoot(t)
	if err := os.MkdirAll(filepath.Join(r.Dir(), "frontend"), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if !r.DirExists("frontend") {
		t.Error("DirExists should be true for created dir")
	}
	if r.DirExists("backend") {
		t.Error("DirExists should be false for missing dir")
	}
}

func TestGlob(t *testing.T) {
	r := testRoot(t)
	for _, f := range []string{"e2e/login.spec.ts", "e2e/cart.spec.ts", "e2e/helper.ts"} {
		if err := r.WriteFile(f, []byte("// spec")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	matches, err := r.Glob("e2e/*.spec.ts")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Glob found %d matches, want 2: %v", len(matches), matches)
	}

	if _, err := r.Glob("../*.spec.ts"); !errors.Is(err, ErrTraversal) {
		t.Errorf("Glob traversal error = %v, want ErrTraversal", err)
	}
}
