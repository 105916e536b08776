package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/refund"
)

// QueryOrderName is the order lookup tool name.
const QueryOrderName = "query_order_database"

// OrderLookupTool fetches an order record by id.
type OrderLookupTool struct {
	refunds *refund.Service
}

// NewOrderLookupTool wraps the refund service's order lookup as an LLM tool.
func NewOrderLookupTool(refunds *refund.Service) *OrderLookupTool {
	return &OrderLookupTool{refunds: refunds}
}

func (t *OrderLookupTool) Name() string { return QueryOrderName }

func (t *OrderLookupTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        QueryOrderName,
			Description: "Look up an order by its order ID (format ORD followed by 6 digits, e.g. ORD000032). Returns order details including category, value, delivery and refund status.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"order_id": map[string]any{
						"type":        "string",
						"description": "The order ID to look up",
					},
				},
				"required": []string{"order_id"},
			},
		},
	}
}

func (t *OrderLookupTool) Execute(ctx context.Context, _ Turn, args map[string]any) (map[string]any, error) {
	orderID, err := stringArg(args, "order_id")
	if err != nil {
		return nil, err
	}
	orderID = strings.ToUpper(strings.TrimSpace(orderID))

	order, err := t.refunds.QueryOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return map[string]any{"error": "Order ID not found."}, nil
		}
		return nil, err
	}
	return toMap(order)
}
