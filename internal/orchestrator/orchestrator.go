// Package orchestrator runs the per-turn conversation control loop: NLU
// freshness decision, context assembly, the two-phase LLM exchange with tool
// dispatch in between, and the final reply.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/convstate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/llm"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/metrics"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/models"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/nlu"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/tools"
)

// Apology is the only text the boundary ever sees when a turn fails
// unexpectedly. Internal details stay in the logs.
const Apology = "I'm sorry, something went wrong on our side. Please try again in a moment."

// historyLimit bounds how much prior conversation is replayed into the
// model context each turn.
const historyLimit = 20

// LLM is the completion service the orchestrator drives.
type LLM interface {
	Chat(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llm.Completion, error)
}

// HistoryStore supplies prior chat messages for context assembly.
type HistoryStore interface {
	ChatHistory(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)
}

// Orchestrator coordinates one conversational turn end to end.
type Orchestrator struct {
	model      LLM
	classifier nlu.Classifier
	state      *convstate.Store
	dispatcher *tools.Dispatcher
	history    HistoryStore
	collector  *metrics.Collector
	logger     *slog.Logger
}

// New creates an orchestrator. collector may be nil.
func New(model LLM, classifier nlu.Classifier, state *convstate.Store, dispatcher *tools.Dispatcher, history HistoryStore, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		model:      model,
		classifier: classifier,
		state:      state,
		dispatcher: dispatcher,
		history:    history,
		collector:  collector,
		logger:     logger,
	}
}

// HandleTurn processes one inbound message and returns the reply text plus
// the tool invocations made. It never returns an error: any unexpected
// failure is logged and collapsed into the generic apology, because the
// messaging boundary has no better channel than a chat reply.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID, messageText string) (finalText string, invocations []models.ToolInvocation) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked", "user_id", userID, "panic", r)
			o.collector.RecordError(metrics.OpTurn, time.Since(start))
			finalText = Apology
		}
	}()

	text, invs, err := o.runTurn(ctx, userID, messageText)
	if err != nil {
		o.logger.Error("turn failed", "user_id", userID, "error", err)
		o.collector.RecordError(metrics.OpTurn, time.Since(start))
		return Apology, invs
	}

	o.collector.RecordTiming(metrics.OpTurn, time.Since(start))
	return text, invs
}

func (o *Orchestrator) runTurn(ctx context.Context, userID, messageText string) (string, []models.ToolInvocation, error) {
	// Staleness is evaluated against the previous message timestamp and the
	// new one committed in the same step.
	runNLU, snapshot := o.state.BeginTurn(userID)

	nluResult := o.resolveNLU(ctx, userID, messageText, runNLU, snapshot)

	if orderID := ExtractOrderID(messageText); orderID != "" {
		o.state.AddExtractedInfo(userID, "order_id", orderID)
	}

	messages, err := o.buildContext(ctx, userID, messageText, nluResult)
	if err != nil {
		return "", nil, err
	}

	turn := tools.Turn{UserID: userID, MessageText: messageText}

	first, err := o.chat(ctx, messages,
		llms.WithTools(o.dispatcher.Definitions()),
		llms.WithToolChoice("auto"))
	if err != nil {
		return "", nil, err
	}

	if len(first.ToolCalls) == 0 {
		return first.Text, nil, nil
	}

	messages = append(messages, assistantToolCallMessage(first))

	var invocations []models.ToolInvocation
	for _, call := range first.ToolCalls {
		if call.FunctionCall == nil {
			o.logger.Warn("tool call without function payload skipped", "user_id", userID, "call_id", call.ID)
			continue
		}
		args := parseToolArguments(call)

		toolStart := time.Now()
		result := o.dispatcher.Dispatch(ctx, turn, call.FunctionCall.Name, args)
		o.collector.RecordTiming(metrics.OpToolExec, time.Since(toolStart))

		invocations = append(invocations, models.ToolInvocation{
			ToolName:  call.FunctionCall.Name,
			Arguments: args,
			Result:    result,
		})

		// A triage call on different text means the model detected a topic
		// switch; refresh the cached classification for later turns.
		if call.FunctionCall.Name == tools.TriageNLUName {
			if text, ok := args["text"].(string); ok && text != messageText {
				if refreshed := nluResultFromMap(result); refreshed != nil {
					o.state.UpdateNLU(userID, *refreshed)
				}
			}
		}

		messages = append(messages, toolResponseMessage(call, result))
	}

	second, err := o.chat(ctx, messages)
	if err != nil {
		return "", invocations, err
	}
	return second.Text, invocations, nil
}

// resolveNLU returns the classification to use this turn: a fresh one when
// the cache is stale, the cached one otherwise. A missing cache when one was
// expected triggers a re-classification; classifier failures degrade to
// whatever cache exists rather than failing the turn.
func (o *Orchestrator) resolveNLU(ctx context.Context, userID, messageText string, runNLU bool, snapshot convstate.State) *models.NLUResult {
	if !runNLU && snapshot.CachedNLU != nil {
		return snapshot.CachedNLU
	}

	start := time.Now()
	result, err := o.classifier.Classify(ctx, messageText)
	if err != nil {
		o.collector.RecordError(metrics.OpNLUClassify, time.Since(start))
		o.logger.Warn("nlu classification failed, proceeding without fresh signal",
			"user_id", userID, "error", err)
		return snapshot.CachedNLU
	}
	o.collector.RecordTiming(metrics.OpNLUClassify, time.Since(start))

	o.state.UpdateNLU(userID, *result)
	return result
}

func (o *Orchestrator) buildContext(ctx context.Context, userID, messageText string, nluResult *models.NLUResult) ([]llms.MessageContent, error) {
	orderID, _ := o.state.GetExtractedInfo(userID, "order_id")
	system := buildSystemPrompt(nluResult, o.state.Summarize(userID), orderID)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
	}

	prior, err := o.history.ChatHistory(ctx, userID, historyLimit)
	if err != nil {
		// History is context, not a hard dependency; a turn without it is
		// degraded but serviceable.
		o.logger.Warn("loading chat history failed", "user_id", userID, "error", err)
		prior = nil
	}
	for _, msg := range prior {
		role := llms.ChatMessageTypeHuman
		if msg.From == models.RoleSystem {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, msg.Text))
	}

	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, messageText)), nil
}

func (o *Orchestrator) chat(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llm.Completion, error) {
	start := time.Now()
	completion, err := o.model.Chat(ctx, messages, opts...)
	if err != nil {
		o.collector.RecordError(metrics.OpLLMCall, time.Since(start))
		return nil, err
	}
	o.collector.RecordTiming(metrics.OpLLMCall, time.Since(start))
	return completion, nil
}

// assistantToolCallMessage echoes the model's tool-call request back into the
// context, as the protocol requires before tool results can follow.
func assistantToolCallMessage(completion *llm.Completion) llms.MessageContent {
	parts := make([]llms.ContentPart, 0, len(completion.ToolCalls)+1)
	if completion.Text != "" {
		parts = append(parts, llms.TextContent{Text: completion.Text})
	}
	for _, call := range completion.ToolCalls {
		parts = append(parts, call)
	}
	return llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts}
}

func toolResponseMessage(call llms.ToolCall, result map[string]any) llms.MessageContent {
	content, err := json.Marshal(result)
	if err != nil {
		content = []byte(`{"error":"unencodable tool result"}`)
	}
	return llms.MessageContent{
		Role: llms.ChatMessageTypeTool,
		Parts: []llms.ContentPart{
			llms.ToolCallResponse{
				ToolCallID: call.ID,
				Name:       call.FunctionCall.Name,
				Content:    string(content),
			},
		},
	}
}

// parseToolArguments decodes the JSON argument payload of a tool call.
// Malformed arguments become an empty map; the individual tool then reports
// the missing parameters as a structured error the model can react to.
func parseToolArguments(call llms.ToolCall) map[string]any {
	args := map[string]any{}
	if call.FunctionCall == nil || call.FunctionCall.Arguments == "" {
		return args
	}
	if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// nluResultFromMap converts a triage tool result back into a typed NLU
// result. Returns nil when the map carries an error instead.
func nluResultFromMap(result map[string]any) *models.NLUResult {
	if _, failed := result["error"]; failed {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	var parsed models.NLUResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil
	}
	if parsed.Intent == "" {
		return nil
	}
	return &parsed
}
