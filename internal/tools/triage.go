package tools

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/nlu"
)

// TriageNLUName is the tool name the LLM uses for on-demand classification.
const TriageNLUName = "smart_triage_nlu"

// TriageTool re-runs intent/sentiment classification on demand, typically
// when the model detects a mid-conversation topic switch.
type TriageTool struct {
	classifier nlu.Classifier
}

// NewTriageTool wraps the classifier as an LLM tool.
func NewTriageTool(classifier nlu.Classifier) *TriageTool {
	return &TriageTool{classifier: classifier}
}

func (t *TriageTool) Name() string { return TriageNLUName }

func (t *TriageTool) Definition() llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        TriageNLUName,
			Description: "Classify a customer message into intent and sentiment. Use when the customer changes topic mid-conversation.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "The customer message to classify",
					},
				},
				"required": []string{"text"},
			},
		},
	}
}

func (t *TriageTool) Execute(ctx context.Context, _ Turn, args map[string]any) (map[string]any, error) {
	text, err := stringArg(args, "text")
	if err != nil {
		return nil, err
	}

	result, err := t.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	return toMap(result)
}
