package pipeline

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// PreviewRegistry tracks the local port each project's preview server is
// listening on. The registry is process-local; after a restart it is
// empty, so callers fall back to probing a small port range.
type PreviewRegistry struct {
	mu    sync.RWMutex
	ports map[string]int
}

// NewPreviewRegistry creates an empty registry.
func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{ports: make(map[string]int)}
}

// Register records the preview port for a project.
func (r *PreviewRegistry) Register(projectID string, port int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ports[projectID] = port
}

// Unregister removes a project's preview port.
func (r *PreviewRegistry) Unregister(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ports, projectID)
}

// Lookup returns the registered port for a project.
func (r *PreviewRegistry) Lookup(projectID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	port, ok := r.ports[projectID]
	return port, ok
}

// probeTimeout bounds each individual port probe.
const probeTimeout = 500 * time.Millisecond

// Discover finds a reachable preview server for the project. The registry
// is consulted first; if it has no live entry the local port range
// [start, end] is probed, covering the case where the registering process
// has restarted but the dev server kept running.
func (r *PreviewRegistry) Discover(projectID string, start, end int) (int, bool) {
	if port, ok := r.Lookup(projectID); ok && portReachable(port) {
		return port, true
	}
	for port := start; port <= end; port++ {
		if portReachable(port) {
			r.Register(projectID, port)
			return port, true
		}
	}
	return 0, false
}

// portReachable dials the local port with a short timeout.
func portReachable(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
