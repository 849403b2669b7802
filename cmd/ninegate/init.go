package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ninegate/internal/config"
	"github.com/ShayCichocki/ninegate/internal/events"
	"github.com/ShayCichocki/ninegate/internal/gate"
	"github.com/ShayCichocki/ninegate/internal/proof"
	"github.com/ShayCichocki/ninegate/internal/state"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

var (
	initForce       bool
	initProjectName string
	initWithConfig  bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a ninegate project",
	Long: `Initialize a workspace for gate-controlled delivery.

This command sets up everything needed to run ninegate:
  - Creates the .ninegate directory structure
  - Creates and migrates the project database
  - Registers the project and opens gate G1 in PENDING state
  - Optionally creates editable gate and config templates

The directory argument is optional and defaults to the current directory.

Examples:
  ninegate init                 # Initialize current directory
  ninegate init ./myproject     # Initialize specific directory
  ninegate init --force         # Reinitialize even if already set up
  ninegate init --with-config   # Create gates.yaml and config templates`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().StringVar(&initProjectName, "project-name", "", "Override auto-detected project name")
	initCmd.Flags().BoolVar(&initWithConfig, "with-config", false, "Create editable gates.yaml and .ninegate.yaml templates")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing ninegate in %s...\n\n", absPath)

	ninegateDir := filepath.Join(absPath, ".ninegate")
	if _, err := os.Stat(ninegateDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	if err := os.MkdirAll(filepath.Join(ninegateDir, "logs"), 0755); err != nil {
		return fmt.Errorf("creating .ninegate directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(ninegateDir, "proofs"), 0755); err != nil {
		return fmt.Errorf("creating proofs directory: %w", err)
	}
	printStatus("✓", "Created .ninegate directory structure", color.FgGreen)

	db, err := state.OpenProject(absPath)
	if err != nil {
		return fmt.Errorf("open project database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	printStatus("✓", "Created project database", color.FgGreen)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	owner := currentUser()
	projectName := initProjectName
	if projectName == "" {
		projectName = filepath.Base(absPath)
	}

	existing, err := db.FindProjectByWorkspace(absPath)
	if err != nil {
		return err
	}
	if existing == nil {
		defs, err := gate.LoadDefinitions(absPath)
		if err != nil {
			return err
		}
		proofs := proof.NewService(db, cfg.Thresholds, nil, nil)
		machine := gate.NewMachine(db, proofs, defs, nil, &events.NoopPublisher{}, nil)

		project := &models.Project{
			ID:        uuid.NewString(),
			Name:      projectName,
			OwnerID:   owner,
			Workspace: absPath,
		}
		first, err := machine.InitProject(context.Background(), project)
		if err != nil {
			return fmt.Errorf("register project: %w", err)
		}
		printStatus("✓", fmt.Sprintf("Registered project %q, opened gate %s", projectName, first.Type), color.FgGreen)
	} else {
		printStatus("✓", fmt.Sprintf("Project %q already registered", existing.Name), color.FgGreen)
	}

	if initWithConfig {
		if err := createGatesTemplate(absPath); err != nil {
			return err
		}
		if err := createProjectConfig(absPath); err != nil {
			return err
		}
		printStatus("✓", "Created gates.yaml and .ninegate.yaml templates", color.FgGreen)
	}

	fmt.Printf("\n%s ninegate initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  1. Check where you stand:")
	fmt.Println("     ninegate gate status")
	fmt.Println()
	fmt.Println("  2. Produce verdicts for the current work:")
	fmt.Println("     ninegate validate")
	fmt.Println()
	fmt.Println("  3. Approve the first gate:")
	fmt.Println("     ninegate gate approve --notes approve")
	fmt.Println()
	fmt.Println("Project details:")
	fmt.Printf("  Project name: %s\n", projectName)
	fmt.Printf("  Owner: %s\n", owner)
	fmt.Printf("  Workspace: %s\n", absPath)

	return nil
}

// createGatesTemplate writes a commented gates.yaml next to the defaults.
func createGatesTemplate(workspace string) error {
	path := filepath.Join(workspace, gate.DefinitionsFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("# Per-gate exit criteria. Entries overlay the built-in defaults.\n")
	b.WriteString("# gates:\n")
	b.WriteString("#   G4_COMPLETE:\n")
	b.WriteString("#     requires_proof: true\n")
	b.WriteString("#     proof_types: [coverage_report]\n")
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// createProjectConfig writes a .ninegate.yaml template.
func createProjectConfig(workspace string) error {
	path := filepath.Join(workspace, ".ninegate.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	template := `# ninegate project configuration
# This file overrides defaults from ~/.config/ninegate/config.yaml

# thresholds:
#   coverage: 80.0
#   lighthouse: 0.80

# timeouts:
#   install: 10m
#   build: 5m
#   test: 5m

# approval:
#   vocabulary: [approve, approved, yes, lgtm, ship it, looks good]

# events:
#   nats_url: nats://localhost:4222
`
	return os.WriteFile(path, []byte(template), 0644)
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
