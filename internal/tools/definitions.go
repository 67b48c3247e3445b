package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var searchToolDef = mcp.NewTool("search",
	mcp.WithDescription("Unified search over the knowledge base: vector similarity plus text match, filtered by pools, years and rights."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query. A bare 4-digit year acts as a year filter.")),
	mcp.WithNumber("top_k", mcp.Description("Maximum results, 1-50."), mcp.DefaultNumber(10)),
	mcp.WithArray("pools", mcp.Description("Restrict results to items tagged in any of these pools."), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithNumber("date_from", mcp.Description("Earliest item year, inclusive.")),
	mcp.WithNumber("date_to", mcp.Description("Latest item year, inclusive.")),
	mcp.WithString("require_rights", mcp.Description("Rights floor for results."), mcp.Enum("public", "internal", "any"), mcp.DefaultString("public")),
	mcp.WithBoolean("diversify_by_pool", mcp.Description("Round-robin results across pools."), mcp.DefaultBool(true)),
	mcp.WithBoolean("include_trace", mcp.Description("Include a human-readable retrieval trace."), mcp.DefaultBool(true)),
	mcp.WithBoolean("include_counts", mcp.Description("Include per-pool result counts."), mcp.DefaultBool(true)),
)

var fetchToolDef = mcp.NewTool("fetch",
	mcp.WithDescription("Fetch one item with its pool tags, entities, shared-entity relations, timeline, rights and provenance."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id.")),
	mcp.WithBoolean("include_relations", mcp.Description("Include items related through shared entities."), mcp.DefaultBool(true)),
	mcp.WithNumber("relation_depth", mcp.Description("Relation hops, 0-2."), mcp.DefaultNumber(1)),
	mcp.WithArray("pools", mcp.Description("Restrict the pool groupings to these pools."), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("as_of", mcp.Description("Hide timeline entries after this date (YYYY-MM-DD).")),
)

var analyzePoolsToolDef = mcp.NewTool("analyze_pools",
	mcp.WithDescription("Extract known entities from free text, classify them by pool, and score the text's pool coverage."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to analyze.")),
	mcp.WithString("mode", mcp.Description("Analysis mode."), mcp.Enum("extract", "classify", "link"), mcp.DefaultString("extract")),
	mcp.WithNumber("link_threshold", mcp.Description("Minimum confidence for linking a match to its item, (0,1]."), mcp.DefaultNumber(0.6)),
)

var poolBridgeToolDef = mcp.NewTool("pool_bridge",
	mcp.WithDescription("Find items tagged in both of two pools. Accepts a pool name, 'pool:entity', or free text naming a pool."),
	mcp.WithString("a", mcp.Required(), mcp.Description("First pool reference.")),
	mcp.WithString("b", mcp.Required(), mcp.Description("Second pool reference.")),
	mcp.WithNumber("top_k", mcp.Description("Maximum bridges, 1-25."), mcp.DefaultNumber(10)),
)

var locationNeighborsToolDef = mcp.NewTool("location_neighbors",
	mcp.WithDescription("Find camps placed near a named camp, per placement year, with a cross-year placement pattern."),
	mcp.WithString("camp_name", mcp.Required(), mcp.Description("Exact camp name.")),
	mcp.WithNumber("year", mcp.Description("Restrict to one placement year.")),
	mcp.WithString("radius", mcp.Description("How far a neighbor may be."), mcp.Enum("immediate", "adjacent", "neighborhood"), mcp.DefaultString("adjacent")),
)

var setPersonaToolDef = mcp.NewTool("set_persona",
	mcp.WithDescription("Build or fetch a persona style capsule: tone, cadence, devices, vocabulary, metaphors and directives distilled from the persona's corpus."),
	mcp.WithString("persona", mcp.Required(), mcp.Description("Persona name or canonical id such as person:larry_harvey.")),
	mcp.WithString("style_mode", mcp.Description("How strongly to apply the style."), mcp.Enum("off", "light", "medium", "strong"), mcp.DefaultString("light")),
	mcp.WithString("style_scope", mcp.Description("Which parts of an answer the style applies to."), mcp.Enum("narration_only", "examples_only", "full_answer"), mcp.DefaultString("full_answer")),
	mcp.WithString("era", mcp.Description("Era filter: 'YYYY', 'YYYY-YYYY', 'early_YYYYs' or 'late_YYYYs'.")),
	mcp.WithString("require_rights", mcp.Description("Rights floor for the corpus."), mcp.Enum("public", "internal", "any"), mcp.DefaultString("public")),
	mcp.WithNumber("max_quote_pct", mcp.Description("Maximum direct-quote share, 0.0-0.2."), mcp.DefaultNumber(0.1)),
)

var clearPersonaToolDef = mcp.NewTool("clear_persona",
	mcp.WithDescription("Clear the active persona. Stateless on the server; always succeeds."),
)
