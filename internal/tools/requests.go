package tools

// Request types for each tool. Pointers mark optional fields whose
// defaults are not the zero value.

// SearchRequest represents the arguments for search.
type SearchRequest struct {
	Query           string   `json:"query"`
	TopK            *int     `json:"top_k,omitempty"`
	Pools           []string `json:"pools,omitempty"`
	DateFrom        *int     `json:"date_from,omitempty"`
	DateTo          *int     `json:"date_to,omitempty"`
	RequireRights   string   `json:"require_rights,omitempty"`
	DiversifyByPool *bool    `json:"diversify_by_pool,omitempty"`
	IncludeTrace    *bool    `json:"include_trace,omitempty"`
	IncludeCounts   *bool    `json:"include_counts,omitempty"`
}

// FetchRequest represents the arguments for fetch.
type FetchRequest struct {
	ID               string   `json:"id"`
	IncludeRelations *bool    `json:"include_relations,omitempty"`
	RelationDepth    *int     `json:"relation_depth,omitempty"`
	Pools            []string `json:"pools,omitempty"`
	AsOf             string   `json:"as_of,omitempty"`
}

// AnalyzePoolsRequest represents the arguments for analyze_pools.
type AnalyzePoolsRequest struct {
	Text          string   `json:"text"`
	Mode          string   `json:"mode,omitempty"`
	LinkThreshold *float64 `json:"link_threshold,omitempty"`
}

// PoolBridgeRequest represents the arguments for pool_bridge.
type PoolBridgeRequest struct {
	A    string `json:"a"`
	B    string `json:"b"`
	TopK *int   `json:"top_k,omitempty"`
}

// LocationNeighborsRequest represents the arguments for location_neighbors.
type LocationNeighborsRequest struct {
	CampName string `json:"camp_name"`
	Year     *int   `json:"year,omitempty"`
	Radius   string `json:"radius,omitempty"`
}

// SetPersonaRequest represents the arguments for set_persona.
type SetPersonaRequest struct {
	Persona       string   `json:"persona"`
	StyleMode     string   `json:"style_mode,omitempty"`
	StyleScope    string   `json:"style_scope,omitempty"`
	Era           string   `json:"era,omitempty"`
	RequireRights string   `json:"require_rights,omitempty"`
	MaxQuotePct   *float64 `json:"max_quote_pct,omitempty"`
}

// ClearPersonaRequest represents the arguments for clear_persona.
type ClearPersonaRequest struct{}

func intOr(p *int, fallback int) int {
	if p != nil {
		return *p
	}
	return fallback
}

func boolOr(p *bool, fallback bool) bool {
	if p != nil {
		return *p
	}
	return fallback
}

func floatOr(p *float64, fallback float64) float64 {
	if p != nil {
		return *p
	}
	return fallback
}

func stringOr(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
