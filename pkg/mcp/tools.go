package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/latextocalc/latextocalc/pkg/dispatch"
	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/pipeline"
)

// Tool argument structs.

type translateArgs struct {
	Expression string `json:"expression"`
}

type settingsArgs struct {
	Set models.Settings `json:"set"`
}

type historyArgs struct {
	Limit   int  `json:"limit"`
	Summary bool `json:"summary"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"latex_translate":   handleTranslate,
	"latex_settings":    handleSettings,
	"latex_history":     handleHistory,
	"latex_cache_stats": handleCacheStats,
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "latex_translate",
		Description: "Translate a LaTeX expression into calculator syntax.",
		InputSchema: Schema{
			Type:     "object",
			Required: []string{"expression"},
			Properties: map[string]Property{
				"expression": {Type: "string", Description: "The LaTeX expression to translate"},
			},
		},
	},
	{
		Name:        "latex_settings",
		Description: "Show the translation settings, optionally changing some of them first.",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"set": {
					Type:                 "object",
					Description:          "Settings to change, e.g. {\"SC_on\": true} (optional)",
					AdditionalProperties: &Property{Type: "boolean"},
				},
			},
		},
	},
	{
		Name:        "latex_history",
		Description: "Show recent translations, or a summary grouped by status and endpoint.",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"limit":   {Type: "integer", Description: "Maximum number of entries (optional, default 20)"},
				"summary": {Type: "boolean", Description: "Return the aggregated summary instead of entries (optional)"},
			},
		},
	},
	{
		Name:        "latex_cache_stats",
		Description: "Show translation cache statistics (entries, hits, misses, hit rate).",
		InputSchema: Schema{Type: "object", Properties: map[string]Property{}},
	},
}

func handleTranslate(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args translateArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	tr, err := s.translator.Translate(ctx, args.Expression)
	switch {
	case errors.Is(err, pipeline.ErrNoInput):
		return errorResult("expression is required")
	case errors.Is(err, dispatch.ErrAllEndpointsFailed):
		return errorResult(pipeline.MsgServerDown + " (" + err.Error() + ")")
	case err != nil:
		return errorResult("Error translating: " + err.Error())
	}
	return textResult(formatTranslation(tr))
}

func handleSettings(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args settingsArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return errorResult("Invalid settings: " + err.Error())
		}
	}
	current, err := s.translator.Settings(ctx)
	if err != nil {
		return errorResult("Error loading settings: " + err.Error())
	}
	if len(args.Set) > 0 {
		current, err = s.translator.UpdateSettings(ctx, current.Apply(args.Set))
		if err != nil {
			return errorResult("Error saving settings: " + err.Error())
		}
	}
	return textResult(formatSettings(current))
}

func handleHistory(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.history == nil {
		return textResult("History is not configured.")
	}
	var args historyArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if args.Summary {
		rows, err := s.history.Summary(ctx)
		if err != nil {
			return errorResult("Error fetching history summary: " + err.Error())
		}
		return textResult(formatHistorySummary(rows))
	}
	recs, err := s.history.Recent(ctx, args.Limit)
	if err != nil {
		return errorResult("Error fetching history: " + err.Error())
	}
	return textResult(formatHistory(recs))
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.cache.Stats()
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}
