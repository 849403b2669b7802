package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ninegate/internal/config"
	"github.com/ShayCichocki/ninegate/internal/events"
	"github.com/ShayCichocki/ninegate/internal/exec"
	"github.com/ShayCichocki/ninegate/internal/gate"
	"github.com/ShayCichocki/ninegate/internal/logging"
	"github.com/ShayCichocki/ninegate/internal/pipeline"
	"github.com/ShayCichocki/ninegate/internal/proof"
	"github.com/ShayCichocki/ninegate/internal/state"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "ninegate",
	Short: "Nine-gate approval workflow with proof-backed validation",
	Long: `ninegate drives a project through nine ordered approval checkpoints.
Each gate unlocks only after its predecessor is approved, and gates with
exit criteria demand passing proof artifacts: hashed, validated evidence
files produced by real build, test, lint, and security tooling.

Run 'ninegate init' in a project workspace to begin, 'ninegate validate'
to produce verdicts, and 'ninegate gate approve' to move forward.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(proofCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles the wired services every subcommand needs.
type app struct {
	cfg       *config.Config
	db        *state.DB
	publisher events.Publisher
	machine   *gate.Machine
	proofs    *proof.Service
	pipeline  *pipeline.Pipeline
	logger    *logging.DebugLogger
	workspace string
	project   *models.Project
}

// openApp wires services against the project database in the current
// working directory. It fails if 'ninegate init' has not been run here.
func openApp() (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no ninegate project here; run 'ninegate init' first")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	project, err := findWorkspaceProject(db, cwd)
	if err != nil {
		db.Close()
		return nil, err
	}

	publisher := openPublisher(cfg)
	logger := logging.NewDebugLoggerForWorkspace(cwd)

	defs, err := gate.LoadDefinitions(cwd)
	if err != nil {
		db.Close()
		return nil, err
	}

	proofs := proof.NewService(db, cfg.Thresholds, publisher, logger)
	policy := gate.VocabularyPolicy(cfg.Approval.Vocabulary)
	machine := gate.NewMachine(db, proofs, defs, policy, publisher, logger)
	pipe := pipeline.New(exec.NewRunner(), cfg, logger)

	return &app{
		cfg:       cfg,
		db:        db,
		publisher: publisher,
		machine:   machine,
		proofs:    proofs,
		pipeline:  pipe,
		logger:    logger,
		workspace: cwd,
		project:   project,
	}, nil
}

func (a *app) close() {
	a.publisher.Close()
	a.logger.Close()
	a.db.Close()
}

// openPublisher connects the notification sink, falling back to a noop
// sink when NATS is not configured or unreachable.
func openPublisher(cfg *config.Config) events.Publisher {
	if cfg.Events.NATSURL == "" {
		return &events.NoopPublisher{}
	}
	pub, err := events.NewNATSPublisher(cfg.Events.NATSURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: events disabled: %v\n", err)
		return &events.NoopPublisher{}
	}
	return pub
}

// findWorkspaceProject returns the project registered for a workspace path.
func findWorkspaceProject(db *state.DB, workspace string) (*models.Project, error) {
	projects, err := db.ListProjectsByOwner(currentUser())
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Workspace == workspace {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("no project registered for %s; run 'ninegate init'", workspace)
}

// currentUser returns the acting user for ownership checks.
func currentUser() string {
	if u := os.Getenv("NINEGATE_USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "local"
}
