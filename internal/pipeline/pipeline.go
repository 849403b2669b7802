// Package pipeline drives external build, test, lint and security tools
// against a project workspace and converts their output into structured
// verdicts. Tool failures are always folded into result objects; no
// operation in this package returns an error for a failing check.
package pipeline

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ShayCichocki/ninegate/internal/config"
	"github.com/ShayCichocki/ninegate/internal/exec"
	"github.com/ShayCichocki/ninegate/internal/logging"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
)

// Pipeline orchestrates the command runner and output parsers to produce
// typed validation results for a project workspace.
type Pipeline struct {
	runner  exec.CommandRunner
	cfg     *config.Config
	logger  *logging.DebugLogger
	preview *PreviewRegistry
	cache   *reportCache
}

// New creates a pipeline. A nil config uses built-in defaults; a nil
// logger disables debug logging.
func New(runner exec.CommandRunner, cfg *config.Config, logger *logging.DebugLogger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Pipeline{
		runner:  runner,
		cfg:     cfg,
		logger:  logger,
		preview: NewPreviewRegistry(),
		cache:   newReportCache(cfg.Cache.SummaryTTL),
	}
}

// Preview returns the pipeline's preview-server registry.
func (p *Pipeline) Preview() *PreviewRegistry {
	return p.preview
}

// manifestPath is the package manifest file name checked for scripts.
const manifestPath = "package.json"

// joinDir prefixes a root-relative path with an optional sub-project dir.
func joinDir(dir, rel string) string {
	if dir == "" {
		return rel
	}
	return dir + "/" + rel
}

// hasManifest reports whether a package manifest exists in the given
// sub-directory of the workspace ("" for the root).
func hasManifest(root sandbox.Root, dir string) bool {
	return root.FileExists(joinDir(dir, manifestPath))
}

// script returns the named script from the manifest, or "" if the manifest
// or the script is missing. Malformed manifests read as missing.
func script(root sandbox.Root, dir, name string) string {
	data, err := root.ReadFile(joinDir(dir, manifestPath))
	if err != nil {
		return ""
	}
	return gjson.GetBytes(data, "scripts."+name).String()
}

// hasScript reports whether the manifest defines a usable script. npm's
// placeholder test script ("Error: no test specified") counts as missing.
func hasScript(root sandbox.Root, dir, name string) bool {
	s := script(root, dir, name)
	if s == "" {
		return false
	}
	if strings.Contains(s, "no test specified") {
		return false
	}
	return true
}
