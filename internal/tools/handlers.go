package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/pools"
	"github.com/playalore/playalore/internal/styling"
)

// Handlers holds the services the tool surface dispatches into.
type Handlers struct {
	log     *logger.Logger
	pools   *pools.Service
	persona *styling.PersonaService
}

func NewHandlers(poolsSvc *pools.Service, persona *styling.PersonaService, baseLog *logger.Logger) *Handlers {
	return &Handlers{
		log:     baseLog.With("handler", "Tools"),
		pools:   poolsSvc,
		persona: persona,
	}
}

// guard converts any panic into the tool's default error shape so no
// call can crash the dispatcher.
func (h *Handlers) guard(tool string, result *any) {
	if r := recover(); r != nil {
		h.log.Error("tool handler panicked", "tool", tool, "panic", r)
		*result = map[string]any{"ok": false, "error": "internal error"}
	}
}

func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out any
	func() {
		defer h.guard("search", &out)
		input, err := decode[SearchRequest](req)
		if err != nil {
			out = pools.SearchResult{OK: false, Items: []pools.SearchResultItem{}, Error: err.Error()}
			return
		}
		out = h.pools.Search(ctx, pools.SearchParams{
			Query:           input.Query,
			TopK:            intOr(input.TopK, 10),
			Pools:           input.Pools,
			DateFrom:        input.DateFrom,
			DateTo:          input.DateTo,
			RequireRights:   stringOr(input.RequireRights, "public"),
			DiversifyByPool: boolOr(input.DiversifyByPool, true),
			IncludeTrace:    boolOr(input.IncludeTrace, true),
			IncludeCounts:   boolOr(input.IncludeCounts, true),
		})
	}()
	return mcp.NewToolResultJSON(out)
}

func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out any
	func() {
		defer h.guard("fetch", &out)
		input, err := decode[FetchRequest](req)
		if err != nil {
			out = pools.FetchResult{OK: false, Error: err.Error()}
			return
		}
		out = h.pools.Fetch(ctx, pools.FetchParams{
			ID:               input.ID,
			IncludeRelations: boolOr(input.IncludeRelations, true),
			RelationDepth:    intOr(input.RelationDepth, 1),
			Pools:            input.Pools,
			AsOf:             input.AsOf,
		})
	}()
	return mcp.NewToolResultJSON(out)
}

func (h *Handlers) HandleAnalyzePools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out any
	func() {
		defer h.guard("analyze_pools", &out)
		input, err := decode[AnalyzePoolsRequest](req)
		if err != nil {
			out = pools.AnalysisResult{OK: false, Matches: []pools.Match{}, PoolCounts: map[string]int{}, Ambiguous: []string{}, Error: err.Error()}
			return
		}
		result, err := h.pools.AnalyzeText(ctx,
			input.Text,
			stringOr(input.Mode, pools.ModeExtract),
			floatOr(input.LinkThreshold, 0.6))
		if err != nil {
			h.log.Error("analyze_pools failed", "error", err)
			out = pools.AnalysisResult{OK: false, Mode: input.Mode, Matches: []pools.Match{}, PoolCounts: map[string]int{}, Ambiguous: []string{}, Error: "analysis failed"}
			return
		}
		out = result
	}()
	return mcp.NewToolResultJSON(out)
}

func (h *Handlers) HandlePoolBridge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out any
	func() {
		defer h.guard("pool_bridge", &out)
		input, err := decode[PoolBridgeRequest](req)
		if err != nil {
			out = pools.BridgeResult{OK: false, Bridges: []pools.Bridge{}, Error: err.Error()}
			return
		}
		out = h.pools.PoolBridge(ctx, input.A, input.B, intOr(input.TopK, 10))
	}()
	return mcp.NewToolResultJSON(out)
}

func (h *Handlers) HandleLocationNeighbors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out any
	func() {
		defer h.guard("location_neighbors", &out)
		input, err := decode[LocationNeighborsRequest](req)
		if err != nil {
			out = pools.NeighborsResult{OK: false, NeighborAnalysis: []pools.YearNeighbors{}, Error: err.Error()}
			return
		}
		out = h.pools.LocationNeighbors(ctx, input.CampName, input.Year, stringOr(input.Radius, pools.RadiusAdjacent))
	}()
	return mcp.NewToolResultJSON(out)
}

func (h *Handlers) HandleSetPersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out any
	func() {
		defer h.guard("set_persona", &out)
		input, err := decode[SetPersonaRequest](req)
		if err != nil {
			out = map[string]any{"ok": false, "error": err.Error(), "error_code": "invalid_params"}
			return
		}
		out = h.persona.SetPersona(ctx, styling.SetPersonaParams{
			Persona:       input.Persona,
			StyleMode:     stringOr(input.StyleMode, styling.StyleModeLight),
			StyleScope:    stringOr(input.StyleScope, styling.StyleScopeFullAnswer),
			Era:           input.Era,
			RequireRights: stringOr(input.RequireRights, "public"),
			MaxQuotePct:   floatOr(input.MaxQuotePct, 0.1),
		})
	}()
	return mcp.NewToolResultJSON(out)
}

// HandleClearPersona is stateless on the server side; persona state
// lives with the dispatcher, so clearing always succeeds.
func (h *Handlers) HandleClearPersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(map[string]any{"ok": true, "persona": nil})
}
