package mcptools

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
)

// TriageInput defines the input schema for the smart_triage_nlu tool.
type TriageInput struct {
	Text string `json:"text" jsonschema:"required,Customer message to classify"`
}

// NewTriageHandler creates the NLU triage tool handler. It classifies free
// text into intent and sentiment with confidences.
func NewTriageHandler(deps *Dependencies) mcp.ToolHandlerFor[TriageInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input TriageInput) (*mcp.CallToolResult, any, error) {
		if input.Text == "" {
			return ErrorResult("Text is required", "Provide the customer message to classify"), nil, nil
		}

		result, err := deps.Classifier.Classify(ctx, input.Text)
		if err != nil {
			deps.Logger.Error("triage failed", "error", err)
			return ErrorResult("Classification failed", "The NLU service may be unavailable"), nil, nil
		}
		return JSONResult(result), nil, nil
	}
}

// OrderInput identifies one order.
type OrderInput struct {
	OrderID string `json:"order_id" jsonschema:"required,Order ID in the format ORD followed by six digits"`
}

// NewQueryOrderHandler creates the order lookup handler.
func NewQueryOrderHandler(deps *Dependencies) mcp.ToolHandlerFor[OrderInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input OrderInput) (*mcp.CallToolResult, any, error) {
		orderID := normalizeOrderID(input.OrderID)
		if orderID == "" {
			return ErrorResult("Order ID is required", "Use the format ORD followed by six digits"), nil, nil
		}

		order, err := deps.Refund.QueryOrder(ctx, orderID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrorResult("Order ID not found", "Check the order ID with the customer"), nil, nil
		}
		if err != nil {
			deps.Logger.Error("order lookup failed", "order_id", orderID, "error", err)
			return ErrorResult("Order lookup failed", "Database may be unavailable"), nil, nil
		}
		return JSONResult(order), nil, nil
	}
}

// NewCheckEligibilityHandler creates the refund eligibility handler.
func NewCheckEligibilityHandler(deps *Dependencies) mcp.ToolHandlerFor[OrderInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input OrderInput) (*mcp.CallToolResult, any, error) {
		orderID := normalizeOrderID(input.OrderID)
		if orderID == "" {
			return ErrorResult("Order ID is required", "Use the format ORD followed by six digits"), nil, nil
		}

		eligibility, err := deps.Refund.CheckEligibility(ctx, orderID)
		if err != nil {
			deps.Logger.Error("eligibility check failed", "order_id", orderID, "error", err)
			return ErrorResult("Eligibility check failed", "Database may be unavailable"), nil, nil
		}
		return JSONResult(eligibility), nil, nil
	}
}

// ProcessRefundInput defines the input schema for process_refund.
type ProcessRefundInput struct {
	OrderID string  `json:"order_id" jsonschema:"required,Order ID in the format ORD followed by six digits"`
	Amount  float64 `json:"amount" jsonschema:"required,Refund amount after the 5 percent shipping fee"`
	Reason  string  `json:"reason" jsonschema:"required,Customer's reason for the refund"`
}

// NewProcessRefundHandler creates the refund processing handler. Refund
// failures (unknown order, already refunded, non-refundable category) come
// back as structured results, not protocol errors.
func NewProcessRefundHandler(deps *Dependencies) mcp.ToolHandlerFor[ProcessRefundInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProcessRefundInput) (*mcp.CallToolResult, any, error) {
		orderID := normalizeOrderID(input.OrderID)
		if orderID == "" || input.Reason == "" {
			return ErrorResult("Order ID and reason are required", ""), nil, nil
		}

		result, err := deps.Refund.ProcessRefund(ctx, orderID, input.Amount, input.Reason)
		if err != nil {
			deps.Logger.Error("refund processing failed", "order_id", orderID, "error", err)
			return ErrorResult("Refund processing failed", "Database may be unavailable"), nil, nil
		}
		return JSONResult(result), nil, nil
	}
}

// EscalateInput defines the input schema for request_human_intervention.
// Unlike the conversational dispatcher, MCP callers are trusted operators and
// name the user explicitly.
type EscalateInput struct {
	UserID      string `json:"user_id" jsonschema:"required,Customer the alert is about"`
	Reason      string `json:"reason" jsonschema:"required,Why a human needs to take over"`
	LastMessage string `json:"last_message,omitempty" jsonschema:"The customer's most recent message"`
	Priority    string `json:"priority,omitempty" jsonschema:"low medium or high"`
}

// NewEscalateHandler creates the escalation handler.
func NewEscalateHandler(deps *Dependencies) mcp.ToolHandlerFor[EscalateInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EscalateInput) (*mcp.CallToolResult, any, error) {
		if input.UserID == "" || input.Reason == "" {
			return ErrorResult("User ID and reason are required", ""), nil, nil
		}

		receipt, err := deps.Escalate.RequestHumanIntervention(ctx, input.UserID, input.Reason, input.LastMessage, input.Priority)
		if err != nil {
			deps.Logger.Error("escalation failed", "user_id", input.UserID, "error", err)
			return ErrorResult("Escalation failed", "Database may be unavailable"), nil, nil
		}
		return JSONResult(receipt), nil, nil
	}
}

func normalizeOrderID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
