package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var mastersCmd = &cobra.Command{
	Use:   "masters",
	Short: "Manage RCSA master templates",
}

var mastersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List master templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result []struct {
			ID           int64  `json:"id"`
			Name         string `json:"name"`
			Status       string `json:"status"`
			TargetUnits  int    `json:"targetUnits"`
			UsedCount    int    `json:"usedCount"`
			LastDecision string `json:"lastDecision"`
			CreatedAt    string `json:"createdAt"`
		}
		if err := client.getJSON("/rcsa/masters", &result); err != nil {
			return fmt.Errorf("failed to list masters: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Name", "Status", "Targets", "Used", "Last Decision", "Created"}
		rows := make([][]string, 0, len(result))
		for _, m := range result {
			rows = append(rows, []string{
				strconv.FormatInt(m.ID, 10),
				truncate(m.Name, 40),
				m.Status,
				strconv.Itoa(m.TargetUnits),
				strconv.Itoa(m.UsedCount),
				m.LastDecision,
				m.CreatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", len(result))
		return nil
	},
}

var mastersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get master detail with target and consumer units",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result map[string]any
		if err := client.getJSON("/rcsa/masters/"+args[0], &result); err != nil {
			return fmt.Errorf("failed to get master: %w", err)
		}
		return printOutput(result)
	},
}

var (
	masterName        string
	masterDescription string
	masterUnits       string
)

var mastersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft master template",
	RunE: func(cmd *cobra.Command, args []string) error {
		unitIDs, err := parseUnitIDs(masterUnits)
		if err != nil {
			return err
		}

		client := newClient()
		body := map[string]any{
			"name":        masterName,
			"description": masterDescription,
			"unitIds":     unitIDs,
		}
		var result map[string]any
		if err := client.postJSON("/rcsa/masters", body, &result); err != nil {
			return fmt.Errorf("failed to create master: %w", err)
		}
		return printOutput(result)
	},
}

var mastersAssignCmd = &cobra.Command{
	Use:   "assign-units <id>",
	Short: "Replace the target unit set of a draft master",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unitIDs, err := parseUnitIDs(masterUnits)
		if err != nil {
			return err
		}

		client := newClient()
		var result []map[string]any
		err = client.postJSON("/rcsa/masters/"+args[0]+"/assign-units", map[string]any{"unitIds": unitIDs}, &result)
		if err != nil {
			return fmt.Errorf("failed to assign units: %w", err)
		}
		return printOutput(result)
	},
}

var mastersSubmitCmd = &cobra.Command{
	Use:   "submit <id>",
	Short: "Submit a master for approval",
	Args:  cobra.ExactArgs(1),
	RunE:  masterAction("submit"),
}

var mastersPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish an approved master",
	Args:  cobra.ExactArgs(1),
	RunE:  masterAction("publish"),
}

var mastersArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a master",
	Args:  cobra.ExactArgs(1),
	RunE:  masterAction("archive"),
}

var mastersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an unused draft master",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		if err := client.deleteJSON("/rcsa/masters/" + args[0]); err != nil {
			return fmt.Errorf("failed to delete master: %w", err)
		}
		fmt.Printf("Master %s deleted\n", args[0])
		return nil
	},
}

// masterAction builds a RunE for the POST lifecycle endpoints.
func masterAction(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client := newClient()
		var result map[string]any
		err := client.postJSON("/rcsa/masters/"+args[0]+"/"+action, map[string]any{}, &result)
		if err != nil {
			return fmt.Errorf("failed to %s master: %w", action, err)
		}
		return printOutput(result)
	}
}

// parseUnitIDs parses a comma-separated id list.
func parseUnitIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("--units is required (comma-separated unit ids)")
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid unit id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	mastersCreateCmd.Flags().StringVar(&masterName, "name", "", "Master name")
	mastersCreateCmd.Flags().StringVar(&masterDescription, "description", "", "Master description")
	mastersCreateCmd.Flags().StringVar(&masterUnits, "units", "", "Comma-separated target unit ids")
	mastersAssignCmd.Flags().StringVar(&masterUnits, "units", "", "Comma-separated target unit ids")

	mastersCmd.AddCommand(mastersListCmd)
	mastersCmd.AddCommand(mastersGetCmd)
	mastersCmd.AddCommand(mastersCreateCmd)
	mastersCmd.AddCommand(mastersAssignCmd)
	mastersCmd.AddCommand(mastersSubmitCmd)
	mastersCmd.AddCommand(mastersPublishCmd)
	mastersCmd.AddCommand(mastersArchiveCmd)
	mastersCmd.AddCommand(mastersDeleteCmd)

	rootCmd.AddCommand(mastersCmd)
}
