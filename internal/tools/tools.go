// Package tools implements the tool registry the LLM can call during a turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tmc/langchaingo/llms"
)

// Turn carries per-turn values the dispatcher injects into tool executions.
// The user id always comes from the authenticated conversation, never from
// LLM-supplied arguments, so the model cannot act on another user's behalf.
type Turn struct {
	UserID      string
	MessageText string
}

// Tool is one operation the LLM may invoke by name.
type Tool interface {
	Name() string
	// Definition describes the tool for the LLM tool menu.
	Definition() llms.Tool
	Execute(ctx context.Context, turn Turn, args map[string]any) (map[string]any, error)
}

// Dispatcher resolves tool calls against a closed registry. Failures never
// propagate: unknown tools, handler errors, and panics all come back as an
// {"error": ...} result the model can recover from conversationally.
type Dispatcher struct {
	registry map[string]Tool
	logger   *slog.Logger
}

// NewDispatcher builds a dispatcher over a fixed set of tools.
func NewDispatcher(logger *slog.Logger, tools ...Tool) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	registry := make(map[string]Tool, len(tools))
	for _, t := range tools {
		registry[t.Name()] = t
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Definitions returns the tool menu for the LLM call.
func (d *Dispatcher) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(d.registry))
	for _, t := range d.registry {
		defs = append(defs, t.Definition())
	}
	return defs
}

// Dispatch executes a named tool and always returns a result map.
func (d *Dispatcher) Dispatch(ctx context.Context, turn Turn, name string, args map[string]any) (result map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", name, "panic", r)
			result = map[string]any{"error": fmt.Sprintf("%v", r)}
		}
	}()

	tool, ok := d.registry[name]
	if !ok {
		d.logger.Warn("unknown tool requested", "tool", name)
		return map[string]any{"error": fmt.Sprintf("Tool %s not available", name)}
	}

	d.logger.Info("tool call", "tool", name, "user_id", turn.UserID)
	result, err := tool.Execute(ctx, turn, args)
	if err != nil {
		d.logger.Error("tool failed", "tool", name, "error", err)
		return map[string]any{"error": err.Error()}
	}
	return result
}

// toMap converts a result struct into the map shape tool results use.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode tool result: %w", err)
	}
	return m, nil
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

// floatArg extracts a required numeric argument. JSON numbers arrive as
// float64, but models occasionally quote them.
func floatArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q must be a number", key)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument %q must be a number", key)
	}
}
