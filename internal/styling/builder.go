package styling

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/clients/redis"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
)

// Pipeline stage names reported on short-circuit.
const (
	StageResolvePersona  = "resolve_persona"
	StageCollectCorpus   = "collect_corpus"
	StageExtractFeatures = "extract_features"
	StageAnalyzeRights   = "analyze_rights"
	StagePersist         = "persist"
)

// BuildRequest addresses one capsule build.
type BuildRequest struct {
	Persona     string `json:"persona"`
	Era         string `json:"era,omitempty"`
	RightsScope string `json:"rights_scope"`
}

// Builder is the capsule pipeline backbone: resolve, collect, extract,
// analyze rights, blend confidence, persist, write cache, respond. Any
// stage failure short-circuits; nothing partial is ever persisted.
type Builder struct {
	log       *logger.Logger
	db        *gorm.DB
	resolver  *Resolver
	collector *Collector
	capsules  repos.StyleCapsuleRepo
	cache     redis.PayloadCache
	cfg       Config
}

func NewBuilder(db *gorm.DB, resolver *Resolver, collector *Collector, capsules repos.StyleCapsuleRepo, cache redis.PayloadCache, cfg Config, baseLog *logger.Logger) *Builder {
	return &Builder{
		log:       baseLog.With("service", "CapsuleBuilder"),
		db:        db,
		resolver:  resolver,
		collector: collector,
		capsules:  capsules,
		cache:     cache,
		cfg:       cfg,
	}
}

// Key derives the capsule identity for a request. The persona segment is
// the raw request string here; callers that already resolved the persona
// should key on the resolved id instead.
func (b *Builder) Key(personaID, era string, rightsScope string) types.CapsuleKey {
	return types.CapsuleKey{
		PersonaID:      personaID,
		Era:            era,
		RightsScope:    rightsScope,
		GraphVersion:   b.cfg.GraphVersion,
		LexiconVersion: b.cfg.LexiconVersion,
	}
}

// Config exposes the pipeline configuration to callers that derive keys
// or timeouts from it.
func (b *Builder) Config() Config { return b.cfg }

// ResolveKey resolves the request's persona and derives the capsule
// identity. Lock keys and workflow ids must come from here so the same
// logical build always maps to the same key.
func (b *Builder) ResolveKey(ctx context.Context, req BuildRequest) (types.CapsuleKey, error) {
	resolved := b.resolver.Resolve(ctx, req.Persona)
	if !resolved.OK {
		return types.CapsuleKey{}, fmt.Errorf("resolve persona %q: %s", req.Persona, resolved.Error)
	}
	return b.Key(resolved.PersonaID, req.Era, req.RightsScope), nil
}

// Build runs the full pipeline. The returned response is always
// well-formed; failures carry the failing stage and elapsed time.
func (b *Builder) Build(ctx context.Context, req BuildRequest) *BuildResponse {
	start := time.Now()
	fail := func(stage, msg string) *BuildResponse {
		return &BuildResponse{
			OK:    false,
			Error: msg,
			Meta:  &BuildMeta{Stage: stage, ElapsedMS: time.Since(start).Milliseconds()},
		}
	}

	resolved := b.resolver.Resolve(ctx, req.Persona)
	if !resolved.OK {
		return fail(StageResolvePersona, resolved.Error)
	}

	collected := b.collector.Collect(ctx, resolved.PersonaID, req.Era, req.RightsScope)
	if !collected.OK {
		return fail(StageCollectCorpus, collected.Error)
	}

	features := ExtractFeatures(collected.Items)
	if features.Error != "" {
		return fail(StageExtractFeatures, features.Error)
	}

	rights := SummarizeRights(collected.Items, req.RightsScope)
	if !rights.OK {
		return fail(StageAnalyzeRights, rights.Error)
	}

	confidence := blendConfidence(features.ConfidenceFactors, rights, len(collected.Items), req.Era != "")
	sources := topSources(collected.Items, 5)

	capsuleJSON, err := json.Marshal(features.Capsule)
	if err != nil {
		return fail(StagePersist, "Failed to persist capsule")
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fail(StagePersist, "Failed to persist capsule")
	}

	key := b.Key(resolved.PersonaID, req.Era, req.RightsScope)
	now := time.Now().UTC()
	row := &types.StyleCapsule{
		PersonaID:      key.PersonaID,
		PersonaLabel:   resolved.PersonaLabel,
		Era:            key.Era,
		RightsScope:    key.RightsScope,
		CapsuleJSON:    capsuleJSON,
		Confidence:     confidence,
		SourcesJSON:    sourcesJSON,
		GraphVersion:   key.GraphVersion,
		LexiconVersion: key.LexiconVersion,
		ExpiresAt:      now.Add(b.cfg.CapsuleTTL),
		CreatedAt:      now,
	}
	if err := b.capsules.Upsert(ctx, b.db, row); err != nil {
		b.log.Error("capsule persist failed", "persona", key.PersonaID, "error", err)
		return fail(StagePersist, "Failed to persist capsule")
	}

	capsule := features.Capsule
	payload := &BuildResponse{
		OK:              true,
		PersonaID:       resolved.PersonaID,
		PersonaLabel:    resolved.PersonaLabel,
		StyleCapsule:    &capsule,
		StyleConfidence: confidence,
		RightsSummary:   &rights,
		Sources:         sources,
	}

	// The cache mirrors the database row; a cache-write failure leaves
	// the build successful because the row is authoritative.
	if b.cache != nil {
		if ttl := time.Until(row.ExpiresAt); ttl > 0 {
			if err := b.cache.Set(ctx, key.CacheKey(), payload, ttl); err != nil {
				b.log.Warn("capsule cache write failed", "key", key.CacheKey(), "error", err)
			}
		}
	}

	resp := *payload
	resp.Meta = &BuildMeta{Cache: "miss", BuildStatus: "built", ElapsedMS: time.Since(start).Milliseconds()}
	return &resp
}

// blendConfidence implements the confidence formula: factor mean, minus
// rights penalties, adjusted for corpus size, plus a bonus when the
// caller pinned an era.
func blendConfidence(factors ConfidenceFactors, rights RightsSummary, corpusSize int, eraRequested bool) float64 {
	base := factors.Mean()

	penalty := 0.0
	if rights.PublicPercentage < 60 {
		penalty += 0.2
	}
	penalty += float64(len(rights.Restrictions)) * 0.1
	if !rights.Quotable {
		penalty += 0.3
	}

	var sizeFactor float64
	switch {
	case corpusSize <= 2:
		sizeFactor = -0.3
	case corpusSize <= 5:
		sizeFactor = -0.1
	case corpusSize <= 15:
		sizeFactor = 0
	case corpusSize <= 25:
		sizeFactor = 0.1
	default:
		sizeFactor = 0.2
	}

	bonus := 0.0
	if eraRequested {
		bonus = 0.1
	}

	return round2(clamp01(base - penalty + sizeFactor + bonus))
}

func topSources(items []CorpusItem, limit int) []types.SourceSummary {
	sorted := make([]CorpusItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]types.SourceSummary, 0, len(sorted))
	for _, item := range sorted {
		out = append(out, types.SourceSummary{
			ItemID:   item.ID,
			Name:     item.Title,
			ItemType: item.ItemType,
			Year:     item.Year,
			Strategy: item.Strategy,
			Score:    item.Score,
		})
	}
	return out
}

// MinimalCapsuleResponse is the provisional payload returned when the
// fast path gave up and an async build was enqueued. Deliberately
// low-confidence and conservative; callers must not treat it as final.
func MinimalCapsuleResponse(personaID, personaLabel string) *BuildResponse {
	return &BuildResponse{
		OK:           true,
		PersonaID:    personaID,
		PersonaLabel: personaLabel,
		StyleCapsule: &types.Capsule{
			Tone:       []string{"neutral"},
			Cadence:    "building",
			Devices:    []string{},
			Vocabulary: []string{},
			Metaphors:  []string{},
			Dos:        []string{},
			Donts:      []string{},
			Era:        "unknown",
		},
		StyleConfidence: 0.1,
		RightsSummary: &RightsSummary{
			OK:               true,
			Quotable:         false,
			Visibility:       "restricted",
			Restrictions:     []Restriction{},
			PublicPercentage: 0,
		},
		Meta: &BuildMeta{Cache: "miss", BuildStatus: "enqueued"},
	}
}
