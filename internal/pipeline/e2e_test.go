package pipeline

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/ShayCichocki/ninegate/internal/config"
	"github.com/ShayCichocki/ninegate/internal/exec"
)

// listenLocal opens a listener on an ephemeral port and returns the port.
func listenLocal(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().(*net.TCPAddr).Port
}

func e2eConfig(port int) *config.Config {
	cfg := config.Default()
	// Narrow the probe range to the test listener so discovery is fast
	// and deterministic.
	cfg.Preview.PortStart = port
	cfg.Preview.PortEnd = port
	return cfg
}

const playwrightJSON = `{
	"suites": [{"file": "smoke.spec.ts", "specs": [{"title": "loads", "ok": true}]}],
	"stats": {"expected": 3, "unexpected": 0, "skipped": 0}
}`

func e2eWorkspaceFiles() map[string]string {
	return map[string]string{
		"package.json":         basicManifest,
		"playwright.config.ts": "export default {};",
		"e2e/smoke.spec.ts":    "// spec",
	}
}

func TestRunE2E_NoPreviewServer(t *testing.T) {
	cfg := config.Default()
	// A closed port range guarantees no server is found.
	cfg.Preview.PortStart = 1
	cfg.Preview.PortEnd = 1

	runner := newFakeRunner()
	p := New(runner, cfg, nil)
	root := testRoot(t, e2eWorkspaceFiles())

	res := p.RunE2E(context.Background(), root, "proj-1")
	if res.Success {
		t.Error("Success = true without a preview server")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "preview server") {
		t.Errorf("Errors = %v, want preview-server message", res.Errors)
	}
	if runner.callCount() != 0 {
		t.Error("commands ran despite missing preview server")
	}
}

func TestRunE2E_NoConfig(t *testing.T) {
	port := listenLocal(t)
	p := New(newFakeRunner(), e2eConfig(port), nil)
	files := e2eWorkspaceFiles()
	delete(files, "playwright.config.ts")
	root := testRoot(t, files)

	res := p.RunE2E(context.Background(), root, "proj-1")
	if res.Success {
		t.Error("Success = true without a Playwright config")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "Playwright config") {
		t.Errorf("Errors = %v", res.Errors)
	}
}

func TestRunE2E_FrontendBuildMustPass(t *testing.T) {
	// The build is re-checked even though RunBuild exists elsewhere: a dev
	// server can serve a stale bundle over a broken build.
	port := listenLocal(t)
	runner := newFakeRunner()
	runner.on("npm run build", exec.Result{
		Success:  false,
		ExitCode: 1,
		Stdout:   "Failed to compile.",
	})
	p := New(runner, e2eConfig(port), nil)
	root := testRoot(t, e2eWorkspaceFiles())

	res := p.RunE2E(context.Background(), root, "proj-1")
	if res.Success {
		t.Error("Success = true with a broken frontend build")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "stale bundle") {
		t.Errorf("Errors = %v, want stale-bundle message", res.Errors)
	}
	if runner.calledWith("playwright test") {
		t.Error("E2E tests ran despite a broken build")
	}
}

func TestRunE2E_NoSpecs(t *testing.T) {
	port := listenLocal(t)
	p := New(newFakeRunner(), e2eConfig(port), nil)
	files := e2eWorkspaceFiles()
	delete(files, "e2e/smoke.spec.ts")
	root := testRoot(t, files)

	res := p.RunE2E(context.Background(), root, "proj-1")
	if res.Success {
		t.Error("Success = true without spec files")
	}
}

func TestRunE2E_Passes(t *testing.T) {
	port := listenLocal(t)
	runner := newFakeRunner()
	runner.on("playwright test", exec.Result{Success: true, Stdout: playwrightJSON})
	p := New(runner, e2eConfig(port), nil)
	root := testRoot(t, e2eWorkspaceFiles())

	res := p.RunE2E(context.Background(), root, "proj-1")
	if !res.Success {
		t.Fatalf("Success = false: %v", res.Errors)
	}
	if res.Passed != 3 || res.Failed != 0 {
		t.Errorf("Passed/Failed = %d/%d, want 3/0", res.Passed, res.Failed)
	}
	if !runner.calledWith(fmt.Sprintf("127.0.0.1:%d", port)) {
		t.Error("test command should target the discovered preview port")
	}
}

func TestRunE2E_FailuresReported(t *testing.T) {
	port := listenLocal(t)
	runner := newFakeRunner()
	runner.on("playwright test", exec.Result{
		Success:  false,
		ExitCode: 1,
		Stdout: `{
			"suites": [{"file": "smoke.spec.ts", "specs": [{"title": "loads", "ok": false}]}],
			"stats": {"expected": 2, "unexpected": 1, "skipped": 0}
		}`,
	})
	p := New(runner, e2eConfig(port), nil)
	root := testRoot(t, e2eWorkspaceFiles())

	res := p.RunE2E(context.Background(), root, "proj-1")
	if res.Success {
		t.Error("Success = true with failing E2E tests")
	}
	if len(res.FailedSpecs) != 1 {
		t.Errorf("FailedSpecs = %v, want one entry", res.FailedSpecs)
	}
}

func TestPreviewRegistry(t *testing.T) {
	r := NewPreviewRegistry()

	if _, ok := r.Lookup("p1"); ok {
		t.Error("Lookup should miss on empty registry")
	}

	r.Register("p1", 3000)
	port, ok := r.Lookup("p1")
	if !ok || port != 3000 {
		t.Errorf("Lookup = %d,%v, want 3000,true", port, ok)
	}

	r.Unregister("p1")
	if _, ok := r.Lookup("p1"); ok {
		t.Error("Lookup should miss after Unregister")
	}
}

func TestPreviewRegistry_DiscoverProbesRange(t *testing.T) {
	port := listenLocal(t)
	r := NewPreviewRegistry()

	// Nothing registered: discovery falls back to probing, covering the
	// process-restart scenario.
	got, ok := r.Discover("p1", port, port)
	if !ok || got != port {
		t.Errorf("Discover = %d,%v, want %d,true", got, ok, port)
	}

	// The discovered port is cached in the registry.
	cached, ok := r.Lookup("p1")
	if !ok || cached != port {
		t.Errorf("Lookup after Discover = %d,%v", cached, ok)
	}
}
