package pools

import (
	"github.com/playalore/playalore/internal/types"
)

// Analyzer modes for AnalyzeText.
const (
	ModeExtract  = "extract"
	ModeClassify = "classify"
	ModeLink     = "link"
)

// SearchResultItem is one ranked hit of the search tool.
type SearchResultItem struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	ItemType   string             `json:"item_type"`
	Year       int                `json:"year"`
	Pools      []string           `json:"pools"`
	Score      float64            `json:"score"`
	Rights     types.Rights       `json:"rights"`
	Provenance []types.Provenance `json:"provenance"`
}

// SearchMeta accompanies search results.
type SearchMeta struct {
	TotalEstimate int            `json:"total_estimate"`
	PoolCounts    map[string]int `json:"pool_counts,omitempty"`
	YearFilter    string         `json:"year_filter,omitempty"`
}

// SearchResult is the search tool response.
type SearchResult struct {
	OK    bool               `json:"ok"`
	Items []SearchResultItem `json:"items"`
	Trace string             `json:"trace,omitempty"`
	Meta  SearchMeta         `json:"meta"`
	Error string             `json:"error,omitempty"`
}

// RelatedItem is an item connected through shared entities.
type RelatedItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Shared int64  `json:"shared_entities"`
}

// TimelineEntry is one synthetic version of an item's history.
type TimelineEntry struct {
	Version int    `json:"version"`
	Date    string `json:"date"`
	Event   string `json:"event"`
}

// FetchResult is the fetch tool response.
type FetchResult struct {
	OK         bool                `json:"ok"`
	ID         string              `json:"id,omitempty"`
	Title      string              `json:"title,omitempty"`
	ItemType   string              `json:"item_type,omitempty"`
	Year       int                 `json:"year,omitempty"`
	Content    string              `json:"content,omitempty"`
	Location   string              `json:"location,omitempty"`
	Pools      map[string][]string `json:"pools,omitempty"`
	Entities   map[string][]string `json:"entities,omitempty"`
	Relations  []RelatedItem       `json:"relations,omitempty"`
	Timeline   []TimelineEntry     `json:"timeline,omitempty"`
	Rights     types.Rights        `json:"rights"`
	Provenance []types.Provenance  `json:"provenance,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Bridge is one item spanning two pools.
type Bridge struct {
	ItemID   string              `json:"item_id"`
	Title    string              `json:"title"`
	PoolsHit []string            `json:"pools_hit"`
	Entities map[string][]string `json:"entities"`
	Score    float64             `json:"score"`
	Path     string              `json:"path"`
}

// BridgeResult is the pool_bridge tool response.
type BridgeResult struct {
	OK      bool     `json:"ok"`
	PoolA   string   `json:"pool_a,omitempty"`
	PoolB   string   `json:"pool_b,omitempty"`
	Bridges []Bridge `json:"bridges"`
	Source  string   `json:"source,omitempty"` // "graph" | "relational"
	Error   string   `json:"error,omitempty"`
}

// Neighbor is one camp near the subject placement.
type Neighbor struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Location            string  `json:"location"`
	TimeDistanceMinutes int     `json:"time_distance_minutes"`
	StreetDistance      int     `json:"street_distance"`
	DistanceDescription string  `json:"distance_description"`
	Score               float64 `json:"score"`
}

// YearNeighbors groups neighbors for one placement year.
type YearNeighbors struct {
	Year      int        `json:"year"`
	Location  string     `json:"location"`
	Neighbors []Neighbor `json:"neighbors"`
}

// PlacementPattern summarizes cross-year placement stability.
type PlacementPattern struct {
	YearsSeen []int  `json:"years_seen"`
	Pattern   string `json:"pattern"` // "stable" | "mobile" | "single_year"
}

// NeighborsResult is the location_neighbors tool response.
type NeighborsResult struct {
	OK               bool              `json:"ok"`
	CampName         string            `json:"camp_name,omitempty"`
	NeighborAnalysis []YearNeighbors   `json:"neighbor_analysis"`
	Pattern          *PlacementPattern `json:"placement_pattern,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// Match is one detected entity in analyzed text.
type Match struct {
	Span       string  `json:"span"`
	Position   int     `json:"position"`
	Pool       string  `json:"pool,omitempty"`
	EntityType string  `json:"entity_type"`
	Confidence float64 `json:"confidence"`
	LinkedID   string  `json:"linked_id,omitempty"`
}

// AnalysisScores are the 0-100 composites over an analysis.
type AnalysisScores struct {
	Richness              float64 `json:"richness"`
	SemanticUnderstanding float64 `json:"semantic_understanding"`
	ConnectionStrength    float64 `json:"connection_strength"`
	Overall               float64 `json:"overall"`
	Grade                 string  `json:"grade"`
}

// AnalysisResult is the analyze_pools tool response.
type AnalysisResult struct {
	OK             bool           `json:"ok"`
	Mode           string         `json:"mode"`
	Matches        []Match        `json:"matches"`
	PoolCounts     map[string]int `json:"pool_counts"`
	Ambiguous      []string       `json:"ambiguous_terms"`
	BridgeEntities int            `json:"bridge_entities"`
	Scores         AnalysisScores `json:"scores"`
	Error          string         `json:"error,omitempty"`
}
