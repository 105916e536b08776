package mcptools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "smart_triage_nlu",
		Description: "Classify a customer message into intent and sentiment with confidence scores",
	}, NewTriageHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_order_database",
		Description: "Retrieve an order by its ID with full details",
	}, NewQueryOrderHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_refund_eligibility",
		Description: "Check whether an order qualifies for a refund and compute the amount after the shipping fee",
	}, NewCheckEligibilityHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_refund",
		Description: "Process a refund for an eligible order; refunds each order at most once",
	}, NewProcessRefundHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "request_human_intervention",
		Description: "Create a pending alert asking a human agent to take over a conversation",
	}, NewEscalateHandler(deps))
}
