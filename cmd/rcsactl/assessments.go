package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var assessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "Inspect and review assessments",
}

var assessmentsUnitID int64

var assessmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted assessments",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		path := "/rcsa/assessments"
		if assessmentsUnitID != 0 {
			path += "?unitId=" + strconv.FormatInt(assessmentsUnitID, 10)
		}

		var result []struct {
			ID            int64  `json:"id"`
			MasterName    string `json:"masterName"`
			UnitName      string `json:"unitName"`
			RiskType      string `json:"riskType"`
			ResidualLevel string `json:"residualLevel"`
			Status        string `json:"status"`
			UpdatedAt     string `json:"updatedAt"`
		}
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list assessments: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Master", "Unit", "Risk Type", "Residual", "Status", "Updated"}
		rows := make([][]string, 0, len(result))
		for _, a := range result {
			rows = append(rows, []string{
				strconv.FormatInt(a.ID, 10),
				truncate(a.MasterName, 30),
				truncate(a.UnitName, 25),
				truncate(a.RiskType, 20),
				a.ResidualLevel,
				a.Status,
				a.UpdatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", len(result))
		return nil
	},
}

var assessmentsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get assessment detail with review notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result map[string]any
		if err := client.getJSON("/rcsa/assessments/"+args[0], &result); err != nil {
			return fmt.Errorf("failed to get assessment: %w", err)
		}
		return printOutput(result)
	},
}

var reviewNote string

var assessmentsReviewCmd = &cobra.Command{
	Use:   "review <id> <approved|rejected>",
	Short: "Record a review decision on a submitted assessment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]any{
			"decision": args[1],
			"note":     reviewNote,
		}
		var result map[string]any
		if err := client.postJSON("/rcsa/review/"+args[0], body, &result); err != nil {
			return fmt.Errorf("failed to record review: %w", err)
		}
		return printOutput(result)
	},
}

var assessmentsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report reviewed assessments with latest decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		path := "/rcsa/report/reviewed"
		if assessmentsUnitID != 0 {
			path += "?unitId=" + strconv.FormatInt(assessmentsUnitID, 10)
		}

		var result []struct {
			ID            int64  `json:"id"`
			MasterName    string `json:"masterName"`
			UnitName      string `json:"unitName"`
			ResidualLevel string `json:"residualLevel"`
			Decision      string `json:"decision"`
			Note          string `json:"note"`
			ReviewedAt    string `json:"reviewedAt"`
		}
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Master", "Unit", "Residual", "Decision", "Note", "Reviewed"}
		rows := make([][]string, 0, len(result))
		for _, a := range result {
			rows = append(rows, []string{
				strconv.FormatInt(a.ID, 10),
				truncate(a.MasterName, 30),
				truncate(a.UnitName, 25),
				a.ResidualLevel,
				a.Decision,
				truncate(a.Note, 30),
				a.ReviewedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", len(result))
		return nil
	},
}

func init() {
	assessmentsListCmd.Flags().Int64Var(&assessmentsUnitID, "unit", 0, "Filter by unit id")
	assessmentsReportCmd.Flags().Int64Var(&assessmentsUnitID, "unit", 0, "Filter by unit id")
	assessmentsReviewCmd.Flags().StringVar(&reviewNote, "note", "", "Review note")

	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsGetCmd)
	assessmentsCmd.AddCommand(assessmentsReviewCmd)
	assessmentsCmd.AddCommand(assessmentsReportCmd)

	rootCmd.AddCommand(assessmentsCmd)
}
