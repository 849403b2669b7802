package exec

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

func testRoot(t *testing.T) sandbox.Root {
	t.Helper()
	r, err := sandbox.NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	return r
}

func TestRun_Success(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), Command{
		Root:   testRoot(t),
		Script: "echo hello",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Success {
		t.Errorf("Success = false, want true (stderr: %s)", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "hello") {
		t.Errorf("Stdout = %q, want to contain %q", res.Stdout, "hello")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), Command{
		Root:   testRoot(t),
		Script: "echo oops >&2; exit 3",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "oops") {
		t.Errorf("Stderr = %q, want to contain %q", res.Stderr, "oops")
	}
}

func TestRun_CommandNotFound(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), Command{
		Root:   testRoot(t),
		Script: "definitely-not-a-real-command-12345",
	})
	if err != nil {
		t.Fatalf("Run should not return an error for a missing command: %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false for missing command")
	}
	if res.ExitCode == 0 {
		t.Error("ExitCode = 0, want non-zero for missing command")
	}
}

func TestRun_Timeout(t *testing.T) {
	r := NewRunner()
	start := time.Now()
	res, err := r.Run(context.Background(), Command{
		Root:    testRoot(t),
		Script:  "sleep 30",
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout did not kill the process promptly")
	}
	if res.Success {
		t.Error("Success = true, want false after timeout")
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if !strings.Contains(res.Stderr, "timed out") {
		t.Errorf("Stderr = %q, want timeout marker", res.Stderr)
	}
}

func TestRun_WorkDir(t *testing.T) {
	root := testRoot(t)
	if err := root.WriteFile("frontend/marker.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	r := NewRunner()
	res, err := r.Run(context.Background(), Command{
		Root:   root,
		Dir:    "frontend",
		Script: "ls",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(res.Stdout, "marker.txt") {
		t.Errorf("Stdout = %q, want marker.txt listing", res.Stdout)
	}
}

func TestRun_RejectsTraversalWorkDir(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), Command{
		Root:   testRoot(t),
		Dir:    "../outside",
		Script: "ls",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false for traversal work dir")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
}

func TestCombined(t *testing.T) {
	res := Result{Stdout: "out", Stderr: "err"}
	if got := res.Combined(); got != "out\nerr" {
		t.Errorf("Combined() = %q", got)
	}
	if got := (Result{Stdout: "only"}).Combined(); got != "only" {
		t.Errorf("Combined() = %q, want %q", got, "only")
	}
}
