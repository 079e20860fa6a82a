package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Manage master approval decisions",
}

var approvalsInboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List masters awaiting an approval decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result []struct {
			ApprovalID      int64  `json:"approvalId"`
			MasterID        int64  `json:"masterId"`
			Name            string `json:"name"`
			TargetUnitCount int    `json:"targetUnitCount"`
			TargetUnits     string `json:"targetUnits"`
			ApproverUserID  *int64 `json:"approverUserId"`
			CreatedAt       string `json:"createdAt"`
		}
		if err := client.getJSON("/rcsa/approvals/inbox", &result); err != nil {
			return fmt.Errorf("failed to list approval inbox: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Master", "Name", "Units", "Targets", "Claimed By", "Created"}
		rows := make([][]string, 0, len(result))
		for _, item := range result {
			claimed := "-"
			if item.ApproverUserID != nil {
				claimed = strconv.FormatInt(*item.ApproverUserID, 10)
			}
			rows = append(rows, []string{
				strconv.FormatInt(item.MasterID, 10),
				truncate(item.Name, 40),
				strconv.Itoa(item.TargetUnitCount),
				truncate(item.TargetUnits, 40),
				claimed,
				item.CreatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", len(result))
		return nil
	},
}

var decisionNote string

var approvalsApproveCmd = &cobra.Command{
	Use:   "approve <master-id>",
	Short: "Approve a pending master",
	Args:  cobra.ExactArgs(1),
	RunE:  decide("approved"),
}

var approvalsRejectCmd = &cobra.Command{
	Use:   "reject <master-id>",
	Short: "Reject a pending master",
	Args:  cobra.ExactArgs(1),
	RunE:  decide("rejected"),
}

func decide(decision string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]any{
			"decision": decision,
			"note":     decisionNote,
		}
		var result map[string]any
		if err := client.postJSON("/rcsa/masters/"+args[0]+"/decision", body, &result); err != nil {
			return fmt.Errorf("failed to record decision: %w", err)
		}
		return printOutput(result)
	}
}

func init() {
	approvalsApproveCmd.Flags().StringVar(&decisionNote, "note", "", "Decision note")
	approvalsRejectCmd.Flags().StringVar(&decisionNote, "note", "", "Decision note")

	approvalsCmd.AddCommand(approvalsInboxCmd)
	approvalsCmd.AddCommand(approvalsApproveCmd)
	approvalsCmd.AddCommand(approvalsRejectCmd)

	rootCmd.AddCommand(approvalsCmd)
}
