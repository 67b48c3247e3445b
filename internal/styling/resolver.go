package styling

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/clients/openai"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/pools"
	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
	"github.com/playalore/playalore/internal/utils"
)

var personaIDPattern = regexp.MustCompile(`^(person|artist|founder|leader):[a-z_]+$`)

// PoolAnalyzer is the slice of the pools service the resolver needs: ad
// hoc entity extraction over a raw string.
type PoolAnalyzer interface {
	AnalyzeText(ctx context.Context, text, mode string, linkThreshold float64) (*pools.AnalysisResult, error)
}

// Resolver turns a free-form persona string into a canonical persona_id
// and display label using a four-tier fallback chain.
type Resolver struct {
	log      *logger.Logger
	db       *gorm.DB
	items    repos.ItemRepo
	entities repos.EntityRepo
	analyzer PoolAnalyzer
	embedder openai.Embedder
}

func NewResolver(db *gorm.DB, items repos.ItemRepo, entities repos.EntityRepo, analyzer PoolAnalyzer, embedder openai.Embedder, baseLog *logger.Logger) *Resolver {
	return &Resolver{
		log:      baseLog.With("service", "PersonaResolver"),
		db:       db,
		items:    items,
		entities: entities,
		analyzer: analyzer,
		embedder: embedder,
	}
}

// Resolve runs the fallback tiers in order; the first success wins. All
// failures come back as a result value, never as a Go error.
func (r *Resolver) Resolve(ctx context.Context, raw string) ResolveResult {
	input := strings.TrimSpace(raw)
	if input == "" {
		return ResolveResult{OK: false, Error: "empty persona"}
	}

	if res, ok := r.resolveDirectID(ctx, input); ok {
		return res
	}
	if res, ok := r.resolveExactEntity(ctx, input); ok {
		return res
	}
	if res, ok := r.resolveFuzzy(ctx, input); ok {
		return res
	}
	if res, ok := r.resolveSemantic(ctx, input); ok {
		return res
	}
	return ResolveResult{OK: false, Error: fmt.Sprintf("Could not resolve persona: %s", input)}
}

// Tier 1: input already looks like kind:snake_case_id; confirm a person
// entity exists whose value matches the humanized suffix.
func (r *Resolver) resolveDirectID(ctx context.Context, input string) (ResolveResult, bool) {
	if !personaIDPattern.MatchString(input) {
		return ResolveResult{}, false
	}
	suffix := input[strings.Index(input, ":")+1:]
	label := utils.Humanize(suffix)
	matches, err := r.entities.FilterByTypeAndValueLike(ctx, r.db, types.EntityTypePerson, label, 1)
	if err != nil {
		r.log.Warn("direct-id entity lookup failed", "persona", input, "error", err)
		return ResolveResult{}, false
	}
	if len(matches) == 0 {
		return ResolveResult{}, false
	}
	return ResolveResult{
		OK:           true,
		PersonaID:    input,
		PersonaLabel: utils.TitleCase(matches[0].EntityValue),
	}, true
}

// Tier 2: exact (case-insensitive) person entity value match.
func (r *Resolver) resolveExactEntity(ctx context.Context, input string) (ResolveResult, bool) {
	matches, err := r.entities.ExactValue(ctx, r.db, types.EntityTypePerson, input, 1)
	if err != nil {
		r.log.Warn("exact entity lookup failed", "persona", input, "error", err)
		return ResolveResult{}, false
	}
	if len(matches) == 0 {
		return ResolveResult{}, false
	}
	value := matches[0].EntityValue
	return ResolveResult{
		OK:           true,
		PersonaID:    "person:" + utils.SlugifyValue(value),
		PersonaLabel: utils.TitleCase(value),
	}, true
}

// Tier 3: run the pool analyzer in link mode and take the
// highest-confidence person detected in the idea pool.
func (r *Resolver) resolveFuzzy(ctx context.Context, input string) (ResolveResult, bool) {
	if r.analyzer == nil {
		return ResolveResult{}, false
	}
	analysis, err := r.analyzer.AnalyzeText(ctx, input, pools.ModeLink, 0.6)
	if err != nil || analysis == nil || !analysis.OK {
		if err != nil {
			r.log.Warn("fuzzy persona analysis failed", "persona", input, "error", err)
		}
		return ResolveResult{}, false
	}
	var best *pools.Match
	for i := range analysis.Matches {
		m := &analysis.Matches[i]
		if m.EntityType != types.EntityTypePerson && m.Pool != types.PoolIdea {
			continue
		}
		if best == nil || m.Confidence > best.Confidence ||
			(m.Confidence == best.Confidence && m.EntityType == types.EntityTypePerson && best.EntityType != types.EntityTypePerson) {
			best = m
		}
	}
	if best == nil {
		return ResolveResult{}, false
	}
	return ResolveResult{
		OK:           true,
		PersonaID:    "person:" + utils.SlugifyValue(best.Span),
		PersonaLabel: utils.TitleCase(best.Span),
	}, true
}

// Tier 4: top-5 semantic search restricted to the idea pool; first
// person entity whose value substring-matches the input (either
// direction) wins.
func (r *Resolver) resolveSemantic(ctx context.Context, input string) (ResolveResult, bool) {
	if r.embedder == nil {
		return ResolveResult{}, false
	}
	vecs, err := r.embedder.Embed(ctx, []string{input})
	if err != nil || len(vecs) != 1 {
		if err != nil {
			r.log.Warn("semantic persona embed failed", "persona", input, "error", err)
		}
		return ResolveResult{}, false
	}
	scored, err := r.items.SemanticSearch(ctx, r.db, vecs[0], 15)
	if err != nil {
		r.log.Warn("semantic persona search failed", "persona", input, "error", err)
		return ResolveResult{}, false
	}
	if len(scored) == 0 {
		return ResolveResult{}, false
	}

	ids := make([]string, 0, len(scored))
	for _, s := range scored {
		ids = append(ids, s.Item.ID)
	}
	entities, err := r.entities.GetByItemIDs(ctx, r.db, ids)
	if err != nil {
		r.log.Warn("semantic persona entity fetch failed", "persona", input, "error", err)
		return ResolveResult{}, false
	}

	ideaItems := map[string]bool{}
	personsByItem := map[string][]string{}
	for _, e := range entities {
		switch {
		case e.EntityType == types.PoolEntityType(types.PoolIdea):
			ideaItems[e.ItemID] = true
		case e.EntityType == types.EntityTypePerson:
			personsByItem[e.ItemID] = append(personsByItem[e.ItemID], e.EntityValue)
		}
	}

	lowered := strings.ToLower(input)
	taken := 0
	for _, s := range scored {
		if !ideaItems[s.Item.ID] {
			continue
		}
		taken++
		if taken > 5 {
			break
		}
		for _, value := range personsByItem[s.Item.ID] {
			lv := strings.ToLower(value)
			if strings.Contains(lv, lowered) || strings.Contains(lowered, lv) {
				return ResolveResult{
					OK:           true,
					PersonaID:    "person:" + utils.SlugifyValue(value),
					PersonaLabel: utils.TitleCase(value),
				}, true
			}
		}
	}
	return ResolveResult{}, false
}
