package tools

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/escalate"
)

// RequestInterventionName is the escalation tool name.
const RequestInterventionName = "request_human_intervention"

// EscalationTool hands the conversation off to a human agent. The user id
// and last message come from the turn, not from the model.
type EscalationTool struct {
	escalations *escalate.Service
}

// NewEscalationTool wraps the escalation service as an LLM tool.
func NewEscalationTool(escalations *escalate.Service) *EscalationTool {
	return &EscalationTool{escalations: escalations}
}

func (t *EscalationTool) Name() string { return RequestInterventionName }

func (t *EscalationTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        RequestInterventionName,
			Description: "Escalate the conversation to a human support agent. Use when the customer is very upset, explicitly asks for a human, or the issue cannot be resolved with the available tools.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reason": map[string]any{
						"type":        "string",
						"description": "Why a human needs to take over",
					},
					"priority": map[string]any{
						"type":        "string",
						"enum":        []string{"low", "medium", "high"},
						"description": "Alert priority, defaults to medium",
					},
				},
				"required": []string{"reason"},
			},
		},
	}
}

func (t *EscalationTool) Execute(ctx context.Context, turn Turn, args map[string]any) (map[string]any, error) {
	reason, err := stringArg(args, "reason")
	if err != nil {
		return nil, err
	}
	priority, _ := stringArg(args, "priority")

	receipt, err := t.escalations.RequestHumanIntervention(ctx, turn.UserID, reason, turn.MessageText, priority)
	if err != nil {
		return nil, err
	}
	return toMap(receipt)
}
