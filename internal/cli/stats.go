package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/analytics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard metrics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc := analytics.NewService(dbClient, cliLogger())

	chatbot, err := svc.ChatbotMetrics(ctx)
	if err != nil {
		return fmt.Errorf("chatbot metrics: %w", err)
	}
	refunds, err := svc.RefundStatistics(ctx)
	if err != nil {
		return fmt.Errorf("refund statistics: %w", err)
	}
	orders, err := svc.OrderAnalytics(ctx)
	if err != nil {
		return fmt.Errorf("order analytics: %w", err)
	}

	fmt.Println("Chatbot")
	fmt.Printf("  Users served:         %d (%d today)\n", chatbot.UsersServed, chatbot.UsersToday)
	fmt.Printf("  Conversations:        %d\n", chatbot.TotalConversations)
	fmt.Printf("  Avg response time:    %.2fs\n", chatbot.AvgResponseTime)
	fmt.Printf("  Auto-resolution rate: %.1f%%\n", chatbot.AutoResolutionRate)
	fmt.Printf("  Pending alerts:       %d\n", chatbot.PendingAlerts)

	fmt.Println("\nRefunds")
	fmt.Printf("  Processed:            %d (%.1f%% of orders)\n", refunds.TotalRefunds, refunds.RefundRate)
	fmt.Printf("  Total value:          %.2f INR\n", refunds.TotalAmount)
	for _, r := range refunds.Reasons {
		fmt.Printf("  %-20s  %d\n", r.Reason+":", r.Count)
	}

	fmt.Println("\nOrders")
	fmt.Printf("  Total:                %d\n", orders.TotalOrders)
	fmt.Printf("  Delayed:              %d (%.1f%%)\n", orders.DelayedDeliveries, orders.DelayRate)
	fmt.Printf("  Avg delivery time:    %.1f min\n", orders.AvgDeliveryTime)
	fmt.Printf("  Avg order value:      %.2f INR\n", orders.AvgOrderValue)

	if verbose {
		fmt.Println("\nOrders by platform")
		for _, p := range orders.ByPlatform {
			fmt.Printf("  %-20s  %d\n", p.Category+":", p.Count)
		}
	}

	return nil
}
