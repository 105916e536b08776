package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect and seed the order catalogue",
}

var ordersGetCmd = &cobra.Command{
	Use:   "get <order-id>",
	Short: "Show one order with refund state",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersGet,
}

var ordersSeedCmd = &cobra.Command{
	Use:   "seed <csv-file>",
	Short: "Import orders from the delivery analytics CSV",
	Long: `Seed imports orders from the delivery analytics dataset. Rows are
upserted by order id, so re-running the import is safe.

Example:
  resolvebot orders seed data/Ecommerce_Delivery_Analytics_New.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runOrdersSeed,
}

func init() {
	ordersCmd.AddCommand(ordersGetCmd)
	ordersCmd.AddCommand(ordersSeedCmd)
}

func runOrdersGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	orderID := strings.ToUpper(strings.TrimSpace(args[0]))

	order, err := dbClient.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	fmt.Printf("%s  %s / %s\n", order.OrderID, order.Platform, order.ProductCategory)
	fmt.Printf("  Value:      %.2f INR\n", order.OrderValue)
	if order.DeliveryTimeMinutes > 0 {
		fmt.Printf("  Delivery:   %d min (delay: %s)\n", order.DeliveryTimeMinutes, order.DeliveryDelay)
	}
	if order.ServiceRating > 0 {
		fmt.Printf("  Rating:     %d/5\n", order.ServiceRating)
	}
	if order.CustomerFeedback != "" {
		fmt.Printf("  Feedback:   %s\n", order.CustomerFeedback)
	}
	fmt.Printf("  Refund:     %s\n", order.RefundRequested)
	if order.Refunded() {
		if order.RefundAmount != nil {
			fmt.Printf("  Refunded:   %.2f INR\n", *order.RefundAmount)
		}
		if order.RefundReason != nil {
			fmt.Printf("  Reason:     %s\n", *order.RefundReason)
		}
		if order.RefundDate != nil {
			fmt.Printf("  Date:       %s\n", order.RefundDate.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func runOrdersSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["order id"]; !ok {
		return fmt.Errorf("csv has no 'Order ID' column")
	}

	var imported, skipped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv row: %w", err)
		}

		order := orderFromRecord(record, cols)
		if order.OrderID == "" {
			skipped++
			continue
		}
		written, err := seedOrder(ctx, dbClient, order)
		if err != nil {
			return fmt.Errorf("upsert order %s: %w", order.OrderID, err)
		}
		if !written {
			skipped++
			continue
		}
		imported++
		if verbose && imported%1000 == 0 {
			fmt.Printf("  %d orders imported...\n", imported)
		}
	}

	fmt.Printf("Imported %d orders (%d rows skipped).\n", imported, skipped)
	return nil
}

type orderUpserter interface {
	UpsertOrder(ctx context.Context, order *models.Order) error
}

// seedOrder writes one dataset row. A transaction conflict from a concurrent
// import is retried once; a duplicate-key error means another writer already
// created the record, which seeding counts as a skip rather than a failure.
func seedOrder(ctx context.Context, store orderUpserter, order *models.Order) (bool, error) {
	err := store.UpsertOrder(ctx, order)
	if errors.Is(err, db.ErrTransactionConflict) {
		err = store.UpsertOrder(ctx, order)
	}
	if errors.Is(err, db.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// columnIndex maps lower-cased header names to their positions.
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

// orderFromRecord maps one dataset row onto an Order. Column names follow the
// delivery analytics CSV ("Order ID", "Order Value (INR)", ...).
func orderFromRecord(record []string, cols map[string]int) *models.Order {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	value, _ := strconv.ParseFloat(field("order value (inr)"), 64)
	minutes, _ := strconv.Atoi(field("delivery time (minutes)"))
	rating, _ := strconv.Atoi(field("service rating"))

	refund := field("refund requested")
	if refund == "" {
		refund = models.RefundNotRequested
	}

	return &models.Order{
		OrderID:             strings.ToUpper(field("order id")),
		Platform:            field("platform"),
		OrderDateTime:       field("order date & time"),
		ProductCategory:     field("product category"),
		OrderValue:          value,
		DeliveryTimeMinutes: minutes,
		ServiceRating:       rating,
		CustomerFeedback:    field("customer feedback"),
		DeliveryDelay:       field("delivery delay"),
		RefundRequested:     refund,
	}
}
