package tools

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/refund"
)

// Refund tool names.
const (
	CheckEligibilityName = "check_refund_eligibility"
	ProcessRefundName    = "process_refund"
)

// EligibilityTool computes whether an order can be refunded and for how much.
type EligibilityTool struct {
	refunds *refund.Service
}

// NewEligibilityTool wraps the eligibility check as an LLM tool.
func NewEligibilityTool(refunds *refund.Service) *EligibilityTool {
	return &EligibilityTool{refunds: refunds}
}

func (t *EligibilityTool) Name() string { return CheckEligibilityName }

func (t *EligibilityTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        CheckEligibilityName,
			Description: "Check whether an order is eligible for a refund and compute the refund amount (order value minus 5% shipping fee). Food & Beverage orders are never eligible. Always check eligibility before processing a refund.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"order_id": map[string]any{
						"type":        "string",
						"description": "The order ID to check",
					},
				},
				"required": []string{"order_id"},
			},
		},
	}
}

func (t *EligibilityTool) Execute(ctx context.Context, _ Turn, args map[string]any) (map[string]any, error) {
	orderID, err := stringArg(args, "order_id")
	if err != nil {
		return nil, err
	}

	eligibility, err := t.refunds.CheckEligibility(ctx, strings.ToUpper(strings.TrimSpace(orderID)))
	if err != nil {
		return nil, err
	}
	return toMap(eligibility)
}

// ProcessRefundTool applies a refund after the customer has confirmed.
type ProcessRefundTool struct {
	refunds *refund.Service
}

// NewProcessRefundTool wraps refund processing as an LLM tool.
func NewProcessRefundTool(refunds *refund.Service) *ProcessRefundTool {
	return &ProcessRefundTool{refunds: refunds}
}

func (t *ProcessRefundTool) Name() string { return ProcessRefundName }

func (t *ProcessRefundTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        ProcessRefundName,
			Description: "Process a refund for an order. Only call after the customer explicitly confirmed the refund amount. Fails if the order was already refunded.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"order_id": map[string]any{
						"type":        "string",
						"description": "The order ID to refund",
					},
					"amount": map[string]any{
						"type":        "number",
						"description": "The refund amount from the eligibility check",
					},
					"reason": map[string]any{
						"type":        "string",
						"description": "Short reason for the refund",
					},
				},
				"required": []string{"order_id", "amount", "reason"},
			},
		},
	}
}

func (t *ProcessRefundTool) Execute(ctx context.Context, _ Turn, args map[string]any) (map[string]any, error) {
	orderID, err := stringArg(args, "order_id")
	if err != nil {
		return nil, err
	}
	amount, err := floatArg(args, "amount")
	if err != nil {
		return nil, err
	}
	reason, err := stringArg(args, "reason")
	if err != nil {
		return nil, err
	}

	result, err := t.refunds.ProcessRefund(ctx, strings.ToUpper(strings.TrimSpace(orderID)), amount, reason)
	if err != nil {
		return nil, err
	}
	return toMap(result)
}
