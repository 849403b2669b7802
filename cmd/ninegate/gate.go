package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/ninegate/internal/gate"
	"github.com/ShayCichocki/ninegate/pkg/models"
)

var (
	gateApproveNotes string
	gateRejectReason string
	gateBlockReason  string
	gateTargetID     string
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Inspect and transition approval gates",
}

var gateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every gate of this project",
	RunE:  runGateList,
}

var gateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current gate awaiting review",
	RunE:  runGateStatus,
}

var gateApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the current gate",
	Long: `Approve a gate and unlock the next checkpoint.

The --notes text must contain an explicit approval keyword (e.g. "approve",
"lgtm"); ambiguous wording is refused. Gates with exit criteria re-validate
their attached proof artifacts first and refuse the transition if any fail.

Examples:
  ninegate gate approve --notes approve
  ninegate gate approve --gate <id> --notes "lgtm"`,
	RunE: runGateApprove,
}

var gateRejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject the current gate",
	RunE:  runGateReject,
}

var gateBlockCmd = &cobra.Command{
	Use:   "block",
	Short: "Block the current gate pending remediation",
	RunE:  runGateBlock,
}

var gateReopenCmd = &cobra.Command{
	Use:   "reopen",
	Short: "Return a rejected or blocked gate to PENDING",
	Long: `Return a gate to PENDING after remediation.

Only REJECTED or BLOCKED gates can be reopened; the gate then awaits a
fresh review via 'ninegate gate approve'.`,
	RunE: runGateReopen,
}

func init() {
	gateApproveCmd.Flags().StringVar(&gateApproveNotes, "notes", "", "Approval notes (must contain an approval keyword)")
	gateApproveCmd.Flags().StringVar(&gateTargetID, "gate", "", "Gate ID (defaults to the current gate)")
	gateRejectCmd.Flags().StringVar(&gateRejectReason, "reason", "", "Why the deliverables were rejected")
	gateRejectCmd.Flags().StringVar(&gateTargetID, "gate", "", "Gate ID (defaults to the current gate)")
	gateBlockCmd.Flags().StringVar(&gateBlockReason, "reason", "", "What blocks this gate")
	gateBlockCmd.Flags().StringVar(&gateTargetID, "gate", "", "Gate ID (defaults to the current gate)")
	gateReopenCmd.Flags().StringVar(&gateTargetID, "gate", "", "Gate ID (defaults to the current gate)")

	gateCmd.AddCommand(gateListCmd)
	gateCmd.AddCommand(gateStatusCmd)
	gateCmd.AddCommand(gateApproveCmd)
	gateCmd.AddCommand(gateRejectCmd)
	gateCmd.AddCommand(gateBlockCmd)
	gateCmd.AddCommand(gateReopenCmd)
}

func runGateList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	gates, err := a.db.ListGatesForProject(a.project.ID)
	if err != nil {
		return err
	}

	for _, g := range gates {
		fmt.Printf("%-13s %-10s %s\n", g.Type, statusLabel(g.Status), g.ID)
		if g.BlockingReason != "" {
			fmt.Printf("              reason: %s\n", g.BlockingReason)
		}
	}
	return nil
}

func runGateStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	current, err := a.machine.CurrentGate(a.project.ID)
	if err != nil {
		return err
	}
	if current == nil {
		fmt.Printf("%s all nine gates approved\n", color.GreenString("✓"))
		return nil
	}

	fmt.Printf("Current gate: %s (%s)\n", current.Type, statusLabel(current.Status))
	fmt.Printf("  ID: %s\n", current.ID)
	if current.RequiresProof {
		artifacts, err := a.db.ListArtifactsForGate(current.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  Requires proof: yes (%d artifacts attached)\n", len(artifacts))
		for _, art := range artifacts {
			fmt.Printf("    %-20s %-8s %s\n", art.Type, art.Verdict, art.FilePath)
		}
	}
	if current.BlockingReason != "" {
		fmt.Printf("  Blocked: %s\n", current.BlockingReason)
	}
	return nil
}

func runGateApprove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	gateID, err := resolveGateID(a)
	if err != nil {
		return err
	}

	approved, err := a.machine.RequestApproval(context.Background(), gate.ApprovalRequest{
		GateID:   gateID,
		Approved: true,
		Notes:    gateApproveNotes,
		Actor:    currentUser(),
	})
	if err != nil {
		var proofErr *gate.ProofFailedError
		if errors.As(err, &proofErr) {
			fmt.Printf("%s proof validation failed or evidence is missing for:\n", color.RedString("✗"))
			for _, pt := range proofErr.FailingTypes {
				fmt.Printf("  - %s\n", pt)
			}
			fmt.Println("\nAttach evidence with 'ninegate proof add', fix failures and re-run 'ninegate proof revalidate', or 'ninegate validate'.")
		}
		return err
	}

	fmt.Printf("%s %s approved\n", color.GreenString("✓"), approved.Type)
	if next, ok := approved.Type.Next(); ok {
		fmt.Printf("  next gate: %s\n", next)
	} else {
		fmt.Printf("%s project complete: all nine gates approved\n", color.GreenString("✓"))
	}
	return nil
}

func runGateReject(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	gateID, err := resolveGateID(a)
	if err != nil {
		return err
	}

	rejected, err := a.machine.RequestApproval(context.Background(), gate.ApprovalRequest{
		GateID:   gateID,
		Approved: false,
		Notes:    gateRejectReason,
		Actor:    currentUser(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s rejected\n", color.RedString("✗"), rejected.Type)
	if rejected.BlockingReason != "" {
		fmt.Printf("  reason: %s\n", rejected.BlockingReason)
	}
	return nil
}

func runGateBlock(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	gateID, err := resolveGateID(a)
	if err != nil {
		return err
	}

	blocked, err := a.machine.Block(context.Background(), gateID, gateBlockReason, currentUser())
	if err != nil {
		return err
	}

	fmt.Printf("%s %s blocked\n", color.RedString("✗"), blocked.Type)
	if blocked.BlockingReason != "" {
		fmt.Printf("  reason: %s\n", blocked.BlockingReason)
	}
	return nil
}

func runGateReopen(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	gateID, err := resolveGateID(a)
	if err != nil {
		return err
	}

	reopened, err := a.machine.Reopen(context.Background(), gateID, currentUser())
	if err != nil {
		return err
	}

	fmt.Printf("%s %s returned to PENDING\n", color.GreenString("✓"), reopened.Type)
	return nil
}

// resolveGateID picks the explicit --gate target or the current gate.
func resolveGateID(a *app) (string, error) {
	if gateTargetID != "" {
		return gateTargetID, nil
	}
	current, err := a.machine.CurrentGate(a.project.ID)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", fmt.Errorf("all gates are approved; nothing to transition")
	}
	return current.ID, nil
}

func statusLabel(s models.GateStatus) string {
	switch s {
	case models.GateApproved:
		return color.GreenString(string(s))
	case models.GateRejected, models.GateBlocked:
		return color.RedString(string(s))
	case models.GateInReview:
		return color.YellowString(string(s))
	default:
		return string(s)
	}
}
