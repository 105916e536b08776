package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

var alertsStatus string

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Work the escalation alert queue",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List escalation alerts, newest first",
	RunE:  runAlertsList,
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <alert-id>",
	Short: "Mark a pending alert as resolved",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsResolve,
}

var alertsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the alert queue",
	Long: `Watch polls the alert queue and renders it with a resolution-rate bar.
Without a terminal it degrades to a one-shot listing.`,
	RunE: runAlertsWatch,
}

func init() {
	alertsListCmd.Flags().StringVarP(&alertsStatus, "status", "s", "", "filter by status (pending or resolved)")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsResolveCmd)
	alertsCmd.AddCommand(alertsWatchCmd)
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	alerts, err := dbClient.ListAlerts(ctx, alertsStatus)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	printAlerts(alerts)
	return nil
}

func printAlerts(alerts []models.EscalationAlert) {
	if len(alerts) == 0 {
		fmt.Println("No alerts found.")
		return
	}

	fmt.Printf("Alerts (%d):\n\n", len(alerts))
	for _, a := range alerts {
		fmt.Printf("- %s [%s/%s] user %s\n", a.AlertID, a.Status, a.Priority, a.UserID)
		fmt.Printf("  %s  %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"), a.Reason)
		if verbose && a.LastMessage != "" {
			fmt.Printf("  Last message: %q\n", a.LastMessage)
		}
	}
}

func runAlertsResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	alert, err := dbClient.ResolveAlert(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}

	fmt.Printf("Alert %s resolved (user %s, reason: %s).\n", alert.AlertID, alert.UserID, alert.Reason)
	return nil
}

func runAlertsWatch(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		// Piped output: a live TUI would just be escape codes.
		return runAlertsList(cmd, args)
	}
	return watchAlerts(dbClient)
}
