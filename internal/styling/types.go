package styling

import (
	"math"

	"github.com/playalore/playalore/internal/types"
)

// Collection strategy names. Each corpus item records which strategy
// produced it; the set feeds the strategy_diversity confidence factor.
const (
	StrategySemanticSearch    = "semantic_search"
	StrategyEntityAssociation = "entity_association"
	StrategyAuthoredContent   = "authored_content"
	StrategyExperienceContent = "experience_content"
	StrategyEmanationContent  = "emanation_content"
)

// StrategyCount is the number of independent collection strategies.
const StrategyCount = 5

// CorpusItem is the pipeline-internal projection of one item plus the
// strategy that found it. Lives for a single pipeline invocation.
type CorpusItem struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Content    string             `json:"content"`
	ItemType   string             `json:"item_type"`
	Year       int                `json:"year"`
	PoolsHit   []string           `json:"pools_hit"`
	Strategy   string             `json:"strategy"`
	Score      float64            `json:"score"`
	Rights     types.Rights       `json:"rights"`
	Provenance []types.Provenance `json:"provenance"`
}

// ResolveResult is the persona resolver outcome. Failures are values,
// never Go errors.
type ResolveResult struct {
	OK           bool   `json:"ok"`
	PersonaID    string `json:"persona_id,omitempty"`
	PersonaLabel string `json:"persona_label,omitempty"`
	Error        string `json:"error,omitempty"`
}

// CollectResult is the corpus collector outcome.
type CollectResult struct {
	OK             bool           `json:"ok"`
	Items          []CorpusItem   `json:"corpus_items"`
	TotalItems     int            `json:"total_items"`
	StrategiesUsed map[string]int `json:"strategies_used"`
	CoveragePools  []string       `json:"coverage_pools"`
	EraCoverage    string         `json:"era_coverage"`
	Error          string         `json:"error,omitempty"`
}

// ConfidenceFactors are the four independent 0-1 sub-scores of the
// feature extractor. All four fields are always set; DefaultConfidenceFactors
// is the only place a default applies.
type ConfidenceFactors struct {
	TextVolume        float64 `json:"text_volume"`
	StrategyDiversity float64 `json:"strategy_diversity"`
	PoolCoverage      float64 `json:"pool_coverage"`
	EraConsistency    float64 `json:"era_consistency"`
}

// DefaultConfidenceFactors is the neutral midpoint used when extraction
// never ran (for example the minimal placeholder capsule).
func DefaultConfidenceFactors() ConfidenceFactors {
	return ConfidenceFactors{
		TextVolume:        0.5,
		StrategyDiversity: 0.5,
		PoolCoverage:      0.5,
		EraConsistency:    0.5,
	}
}

// Mean of the four factors; the base of the capsule confidence blend.
func (f ConfidenceFactors) Mean() float64 {
	return (f.TextVolume + f.StrategyDiversity + f.PoolCoverage + f.EraConsistency) / 4
}

// Features is the feature extractor output. When the corpus text is
// empty, Error is set and the capsule fields hold their empty defaults.
type Features struct {
	Capsule           types.Capsule     `json:"capsule"`
	ConfidenceFactors ConfidenceFactors `json:"confidence_factors"`
	Error             string            `json:"error,omitempty"`
}

// Restriction is one aggregated rights concern across the corpus.
type Restriction struct {
	Kind        string `json:"kind"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// RightsSummary is the rights analyzer outcome for one corpus.
type RightsSummary struct {
	OK                  bool                      `json:"ok"`
	Quotable            bool                      `json:"quotable"`
	AttributionRequired bool                      `json:"attribution_required"`
	AttributionText     *string                   `json:"attribution_text,omitempty"`
	Visibility          string                    `json:"visibility,omitempty"`
	RightsBreakdown     map[string]map[string]int `json:"rights_breakdown,omitempty"`
	Restrictions        []Restriction             `json:"restrictions"`
	PublicPercentage    float64                   `json:"public_percentage"`
	Error               string                    `json:"error,omitempty"`
}

// BuildMeta carries request-level information about how a capsule
// response was produced.
type BuildMeta struct {
	Cache       string `json:"cache,omitempty"` // "hit" | "miss"
	BuildStatus string `json:"build_status,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	Stage       string `json:"stage,omitempty"` // set on stage failure
}

// BuildResponse is the unified capsule pipeline response. The cached
// payload is this struct minus Meta, which is request-scoped.
type BuildResponse struct {
	OK              bool                  `json:"ok"`
	PersonaID       string                `json:"persona_id,omitempty"`
	PersonaLabel    string                `json:"persona_label,omitempty"`
	StyleCapsule    *types.Capsule        `json:"style_capsule,omitempty"`
	StyleConfidence float64               `json:"style_confidence"`
	RightsSummary   *RightsSummary        `json:"rights_summary,omitempty"`
	Sources         []types.SourceSummary `json:"sources,omitempty"`
	Meta            *BuildMeta            `json:"meta,omitempty"`
	Error           string                `json:"error,omitempty"`
	ErrorCode       string                `json:"error_code,omitempty"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
