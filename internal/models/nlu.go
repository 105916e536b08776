package models

import "fmt"

// NLUResult is the output of the external intent/sentiment classifier.
// Confidence values are in [0,1].
type NLUResult struct {
	Intent              string  `json:"intent"`
	IntentConfidence    float64 `json:"intent_confidence"`
	Sentiment           string  `json:"sentiment"`
	SentimentConfidence float64 `json:"sentiment_confidence"`
}

// String renders the result for inclusion in LLM context.
func (r NLUResult) String() string {
	return fmt.Sprintf("intent=%s (%.2f), sentiment=%s (%.2f)",
		r.Intent, r.IntentConfidence, r.Sentiment, r.SentimentConfidence)
}

// ToolInvocation records a single tool call made during a turn. It is
// returned to the boundary layer for logging and is not persisted.
type ToolInvocation struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}
