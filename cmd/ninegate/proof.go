package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ninegate/internal/proof"
	"github.com/ShayCichocki/ninegate/internal/sandbox"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

var (
	proofAddType    string
	proofAddFile    string
	proofAddGate    string
	proofAddSummary string
	proofAddNoCheck bool
)

var proofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Manage proof artifacts",
	Long: `Proof artifacts are hashed, validated evidence files attached to gates.
Each proof type is judged by its own validator: coverage reports against the
coverage threshold, security scans against critical/high counts, and so on.`,
}

var proofListCmd = &cobra.Command{
	Use:   "list",
	Short: "List this project's proof artifacts",
	RunE:  runProofList,
}

var proofAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record and validate an evidence file",
	Long: `Hash an evidence file, judge it with the matching validator, and attach
it to a gate.

Examples:
  ninegate proof add --type coverage_report --file coverage/coverage-summary.json --gate <id>
  ninegate proof add --type screenshot --file docs/login.png --no-validate`,
	RunE: runProofAdd,
}

var proofRevalidateCmd = &cobra.Command{
	Use:   "revalidate <artifact-id>",
	Short: "Re-judge an artifact against its current file content",
	Args:  cobra.ExactArgs(1),
	RunE:  runProofRevalidate,
}

var proofWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Mark artifacts stale when their evidence files change",
	Long: `Watch every recorded evidence file and clear the verified flag of its
artifacts when the file is written, renamed, or removed. A stale artifact
must be revalidated before its gate can be approved.

Runs until interrupted.`,
	RunE: runProofWatch,
}

func init() {
	proofAddCmd.Flags().StringVar(&proofAddType, "type", "", "Proof type (e.g. coverage_report, test_output)")
	proofAddCmd.Flags().StringVar(&proofAddFile, "file", "", "Evidence file, relative to the workspace")
	proofAddCmd.Flags().StringVar(&proofAddGate, "gate", "", "Gate to attach the artifact to (defaults to the current gate)")
	proofAddCmd.Flags().StringVar(&proofAddSummary, "summary", "", "Human-readable description of the evidence")
	proofAddCmd.Flags().BoolVar(&proofAddNoCheck, "no-validate", false, "Record without running the validator")
	proofAddCmd.MarkFlagRequired("type")
	proofAddCmd.MarkFlagRequired("file")

	proofCmd.AddCommand(proofListCmd)
	proofCmd.AddCommand(proofAddCmd)
	proofCmd.AddCommand(proofRevalidateCmd)
	proofCmd.AddCommand(proofWatchCmd)
}

func runProofList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	artifacts, err := a.db.ListArtifactsForProject(a.project.ID)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Println("No proof artifacts. Add one with 'ninegate proof add'.")
		return nil
	}

	for _, art := range artifacts {
		fmt.Printf("%-20s %-8s %s\n", art.Type, verdictLabel(art.Verdict), art.FilePath)
		fmt.Printf("  id: %s  verified: %v", art.ID, art.Verified)
		if art.ContentSummary != "" {
			fmt.Printf("  (%s)", art.ContentSummary)
		}
		fmt.Println()
	}
	return nil
}

func runProofAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	gateID := proofAddGate
	if gateID == "" {
		current, err := a.machine.CurrentGate(a.project.ID)
		if err != nil {
			return err
		}
		if current != nil {
			gateID = current.ID
		}
	}

	artifact, err := a.proofs.Create(context.Background(), proof.CreateParams{
		ProjectID: a.project.ID,
		GateID:    gateID,
		Type:      models.ProofType(proofAddType),
		FilePath:  proofAddFile,
		Summary:   proofAddSummary,
		Validate:  !proofAddNoCheck,
		Actor:     currentUser(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s recorded %s artifact %s\n", color.GreenString("✓"), artifact.Type, artifact.ID)
	if artifact.Verified {
		fmt.Printf("  verdict: %s (%s)\n", verdictLabel(artifact.Verdict), artifact.ContentSummary)
	}
	return nil
}

func runProofRevalidate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	artifact, err := a.proofs.Revalidate(context.Background(), args[0], currentUser())
	if err != nil {
		return err
	}

	fmt.Printf("%s artifact %s revalidated\n", color.GreenString("✓"), artifact.ID)
	fmt.Printf("  verdict: %s (%s)\n", verdictLabel(artifact.Verdict), artifact.ContentSummary)
	return nil
}

func runProofWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	watcher, err := proof.NewWatcher(a.db, a.publisher, a.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	root, err := sandbox.NewRoot(a.workspace)
	if err != nil {
		return err
	}

	artifacts, err := a.db.ListArtifactsForProject(a.project.ID)
	if err != nil {
		return err
	}

	var tracked int
	for _, art := range artifacts {
		abs, err := root.Join(art.FilePath)
		if err != nil {
			a.logger.Log("watch: skip artifact %s: %v", art.ID, err)
			continue
		}
		if err := watcher.Track(art.ID, abs); err != nil {
			a.logger.Log("watch: track artifact %s: %v", art.ID, err)
			continue
		}
		tracked++
	}
	if tracked == 0 {
		fmt.Println("No proof artifacts to watch. Add one with 'ninegate proof add'.")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %d evidence files. Press Ctrl-C to stop.\n", tracked)
	watcher.Run(ctx)
	return nil
}

func verdictLabel(v models.PassFail) string {
	switch v {
	case models.VerdictPass:
		return color.GreenString(string(v))
	case models.VerdictFail:
		return color.RedString(string(v))
	case models.VerdictWarning:
		return color.YellowString(string(v))
	case "":
		return "unjudged"
	default:
		return string(v)
	}
}
