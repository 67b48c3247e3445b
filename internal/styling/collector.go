package styling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/clients/openai"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
	"github.com/playalore/playalore/internal/utils"
)

// Strategy base relevance scores. The length bonus is added on top and
// the sum is rounded to two decimals.
var strategyBaseScore = map[string]float64{
	StrategyAuthoredContent:   0.9,
	StrategyEmanationContent:  0.8,
	StrategyEntityAssociation: 0.7,
	StrategyExperienceContent: 0.6,
	StrategySemanticSearch:    0.5,
}

const strategyFallbackScore = 0.3

// Item types treated as authored primary-source material.
var authoredItemTypes = []string{
	types.ItemTypePhilosophicalText,
	types.ItemTypeManifesto,
	types.ItemTypeSpeech,
}

// Collector assembles a persona's style corpus by running five
// independent retrieval strategies and merging their results. A failing
// strategy contributes zero items; the collector itself only fails when
// its input is unusable.
type Collector struct {
	log      *logger.Logger
	db       *gorm.DB
	items    repos.ItemRepo
	entities repos.EntityRepo
	embedder openai.Embedder
}

func NewCollector(db *gorm.DB, items repos.ItemRepo, entities repos.EntityRepo, embedder openai.Embedder, baseLog *logger.Logger) *Collector {
	return &Collector{
		log:      baseLog.With("service", "CorpusCollector"),
		db:       db,
		items:    items,
		entities: entities,
		embedder: embedder,
	}
}

// Collect gathers, deduplicates and filters the corpus for a persona.
func (c *Collector) Collect(ctx context.Context, personaID, era, requireRights string) CollectResult {
	personaID = strings.TrimSpace(personaID)
	if personaID == "" || !strings.Contains(personaID, ":") {
		return CollectResult{OK: false, Error: fmt.Sprintf("invalid persona_id: %q", personaID)}
	}
	if !types.IsValidRightsScope(requireRights) {
		return CollectResult{OK: false, Error: fmt.Sprintf("invalid require_rights: %q", requireRights)}
	}
	label := utils.Humanize(personaID[strings.Index(personaID, ":")+1:])

	type strategyRun struct {
		name string
		run  func(context.Context, string) ([]CorpusItem, error)
	}
	runs := []strategyRun{
		{StrategySemanticSearch, c.semanticSearch},
		{StrategyEntityAssociation, c.entityAssociation},
		{StrategyAuthoredContent, c.authoredContent},
		{StrategyExperienceContent, c.experienceContent},
		{StrategyEmanationContent, c.emanationContent},
	}

	var mu sync.Mutex
	collected := make([][]CorpusItem, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range runs {
		g.Go(func() error {
			items, err := s.run(gctx, label)
			if err != nil {
				// One strategy failing never fails the collector.
				c.log.Warn("collection strategy failed", "strategy", s.name, "persona", personaID, "error", err)
				return nil
			}
			mu.Lock()
			collected[i] = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	merged := dedupeByMaxScore(collected)
	if err := c.attachPools(ctx, merged); err != nil {
		c.log.Warn("pool tagging failed", "persona", personaID, "error", err)
	}
	merged = filterByRights(merged, requireRights)
	if era != "" {
		if from, to, ok := parseEra(era); ok {
			merged = filterByEra(merged, from, to)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})

	strategies := map[string]int{}
	poolSet := map[string]bool{}
	minYear, maxYear := 0, 0
	for _, item := range merged {
		strategies[item.Strategy]++
		for _, p := range item.PoolsHit {
			poolSet[p] = true
		}
		y := itemYear(item.Year)
		if minYear == 0 || y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	pools := make([]string, 0, len(poolSet))
	for _, p := range types.PoolNames {
		if poolSet[p] {
			pools = append(pools, p)
		}
	}
	eraCoverage := ""
	if minYear > 0 {
		if minYear == maxYear {
			eraCoverage = fmt.Sprintf("%d", minYear)
		} else {
			eraCoverage = fmt.Sprintf("%d-%d", minYear, maxYear)
		}
	}

	return CollectResult{
		OK:             true,
		Items:          merged,
		TotalItems:     len(merged),
		StrategiesUsed: strategies,
		CoveragePools:  pools,
		EraCoverage:    eraCoverage,
	}
}

func (c *Collector) semanticSearch(ctx context.Context, label string) ([]CorpusItem, error) {
	if c.embedder == nil {
		return nil, nil
	}
	vecs, err := c.embedder.Embed(ctx, []string{label})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors", len(vecs))
	}
	// Over-fetch so the pool round-robin has enough variety to pick from.
	scored, err := c.items.SemanticSearch(ctx, c.db, vecs[0], 45)
	if err != nil {
		return nil, err
	}
	scored, err = c.diversifyScored(ctx, scored, 15)
	if err != nil {
		return nil, err
	}
	out := make([]CorpusItem, 0, len(scored))
	for _, s := range scored {
		out = append(out, c.toCorpusItem(s.Item, StrategySemanticSearch))
	}
	return out, nil
}

// diversifyScored round-robins semantic hits across their first pool
// tag so one dominant pool cannot fill the strategy's slice, then caps
// the result.
func (c *Collector) diversifyScored(ctx context.Context, scored []repos.ScoredItem, limit int) ([]repos.ScoredItem, error) {
	if len(scored) == 0 {
		return scored, nil
	}
	ids := make([]string, 0, len(scored))
	for _, s := range scored {
		ids = append(ids, s.Item.ID)
	}
	entities, err := c.entities.GetByItemIDs(ctx, c.db, ids)
	if err != nil {
		return nil, err
	}
	poolSet := map[string]map[string]bool{}
	for _, e := range entities {
		pool := types.PoolFromEntityType(e.EntityType)
		if pool == "" {
			continue
		}
		if poolSet[e.ItemID] == nil {
			poolSet[e.ItemID] = map[string]bool{}
		}
		poolSet[e.ItemID][pool] = true
	}
	firstPool := func(itemID string) string {
		for _, p := range types.PoolNames {
			if poolSet[itemID][p] {
				return p
			}
		}
		return "untagged"
	}

	buckets := map[string][]repos.ScoredItem{}
	order := []string{}
	for _, s := range scored {
		pool := firstPool(s.Item.ID)
		if _, ok := buckets[pool]; !ok {
			order = append(order, pool)
		}
		buckets[pool] = append(buckets[pool], s)
	}
	out := make([]repos.ScoredItem, 0, limit)
	for len(out) < limit {
		progressed := false
		for _, pool := range order {
			if len(buckets[pool]) == 0 {
				continue
			}
			out = append(out, buckets[pool][0])
			buckets[pool] = buckets[pool][1:]
			progressed = true
			if len(out) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out, nil
}

func (c *Collector) entityAssociation(ctx context.Context, label string) ([]CorpusItem, error) {
	entities, err := c.entities.ExactValue(ctx, c.db, types.EntityTypePerson, label, 20)
	if err != nil {
		return nil, err
	}
	return c.itemsFromEntities(ctx, entities, StrategyEntityAssociation, 20)
}

func (c *Collector) authoredContent(ctx context.Context, label string) ([]CorpusItem, error) {
	entities, err := c.entities.FilterByTypeAndValueLike(ctx, c.db, types.EntityTypePerson, label, 200)
	if err != nil {
		return nil, err
	}
	ids := itemIDSet(entities)
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := c.items.GetByIDs(ctx, c.db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]CorpusItem, 0, 10)
	for _, item := range items {
		if !isAuthoredType(item.ItemType) {
			continue
		}
		out = append(out, c.toCorpusItem(item, StrategyAuthoredContent))
		if len(out) == 10 {
			break
		}
	}
	return out, nil
}

func (c *Collector) experienceContent(ctx context.Context, label string) ([]CorpusItem, error) {
	items, err := c.items.TextMatch(ctx, c.db, label, 100)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	entities, err := c.entities.GetByItemIDs(ctx, c.db, ids)
	if err != nil {
		return nil, err
	}
	matched := map[string]bool{}
	lowered := strings.ToLower(label)
	for _, e := range entities {
		if e.EntityType != types.EntityTypePerson && e.EntityType != types.PoolEntityType(types.PoolExperience) {
			continue
		}
		if strings.Contains(strings.ToLower(e.EntityValue), lowered) {
			matched[e.ItemID] = true
		}
	}
	out := make([]CorpusItem, 0, 15)
	for _, item := range items {
		if !matched[item.ID] {
			continue
		}
		out = append(out, c.toCorpusItem(item, StrategyExperienceContent))
		if len(out) == 15 {
			break
		}
	}
	return out, nil
}

func (c *Collector) emanationContent(ctx context.Context, label string) ([]CorpusItem, error) {
	items, err := c.items.TextMatch(ctx, c.db, label, 100)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	entities, err := c.entities.GetByItemIDs(ctx, c.db, ids)
	if err != nil {
		return nil, err
	}
	emanation := map[string]bool{}
	for _, e := range entities {
		if e.EntityType == types.PoolEntityType(types.PoolEmanation) {
			emanation[e.ItemID] = true
		}
	}
	out := make([]CorpusItem, 0, 10)
	for _, item := range items {
		if !emanation[item.ID] {
			continue
		}
		out = append(out, c.toCorpusItem(item, StrategyEmanationContent))
		if len(out) == 10 {
			break
		}
	}
	return out, nil
}

func (c *Collector) itemsFromEntities(ctx context.Context, entities []*types.Entity, strategy string, limit int) ([]CorpusItem, error) {
	ids := itemIDSet(entities)
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := c.items.GetByIDs(ctx, c.db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]CorpusItem, 0, limit)
	for _, item := range items {
		out = append(out, c.toCorpusItem(item, strategy))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *Collector) toCorpusItem(item *types.Item, strategy string) CorpusItem {
	base, ok := strategyBaseScore[strategy]
	if !ok {
		base = strategyFallbackScore
	}
	score := round2(base + lengthBonus(item.Description))
	content := item.Name
	if item.Description != "" {
		content += "\n" + item.Description
	}
	return CorpusItem{
		ID:       item.ID,
		Title:    item.Name,
		Content:  content,
		ItemType: item.ItemType,
		Year:     item.Year,
		Strategy: strategy,
		Score:    score,
		Rights:   types.RightsFromMetadata(item.Metadata),
		Provenance: []types.Provenance{{
			SourceID:    item.ID,
			Citation:    fmt.Sprintf("burning_man_%d", itemYear(item.Year)),
			CollectedBy: strategy,
			CollectedAt: time.Now().UTC().Format(time.RFC3339),
			Method:      strategy,
		}},
	}
}

// attachPools fills PoolsHit from the pool entities of each merged item.
func (c *Collector) attachPools(ctx context.Context, items []CorpusItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	entities, err := c.entities.GetByItemIDs(ctx, c.db, ids)
	if err != nil {
		return err
	}
	poolsByItem := map[string]map[string]bool{}
	for _, e := range entities {
		pool := types.PoolFromEntityType(e.EntityType)
		if pool == "" {
			continue
		}
		if poolsByItem[e.ItemID] == nil {
			poolsByItem[e.ItemID] = map[string]bool{}
		}
		poolsByItem[e.ItemID][pool] = true
	}
	for i := range items {
		hit := poolsByItem[items[i].ID]
		for _, p := range types.PoolNames {
			if hit[p] {
				items[i].PoolsHit = append(items[i].PoolsHit, p)
			}
		}
	}
	return nil
}

func lengthBonus(description string) float64 {
	n := len(description)
	switch {
	case n <= 100:
		return 0.0
	case n <= 500:
		return 0.1
	case n <= 1500:
		return 0.2
	default:
		return 0.3
	}
}

func isAuthoredType(itemType string) bool {
	for _, t := range authoredItemTypes {
		if itemType == t {
			return true
		}
	}
	return strings.Contains(itemType, "principle")
}

func itemIDSet(entities []*types.Entity) []string {
	seen := map[string]bool{}
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		if seen[e.ItemID] {
			continue
		}
		seen[e.ItemID] = true
		ids = append(ids, e.ItemID)
	}
	return ids
}

// dedupeByMaxScore merges strategy outputs, keeping the highest-score
// variant of each item id. Strategy order breaks score ties so repeat
// runs yield the same winners.
func dedupeByMaxScore(collected [][]CorpusItem) []CorpusItem {
	best := map[string]CorpusItem{}
	order := []string{}
	for _, batch := range collected {
		for _, item := range batch {
			existing, ok := best[item.ID]
			if !ok {
				best[item.ID] = item
				order = append(order, item.ID)
				continue
			}
			if item.Score > existing.Score {
				best[item.ID] = item
			}
		}
	}
	out := make([]CorpusItem, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

func filterByRights(items []CorpusItem, requireRights string) []CorpusItem {
	if requireRights == types.RightsScopeAny {
		return items
	}
	out := items[:0]
	for _, item := range items {
		switch requireRights {
		case types.RightsScopePublic:
			if item.Rights.Visibility == "public" {
				out = append(out, item)
			}
		case types.RightsScopeInternal:
			if item.Rights.Visibility == "public" || item.Rights.Visibility == "internal" {
				out = append(out, item)
			}
		}
	}
	return out
}

func filterByEra(items []CorpusItem, from, to int) []CorpusItem {
	out := items[:0]
	for _, item := range items {
		y := itemYear(item.Year)
		if y >= from && y <= to {
			out = append(out, item)
		}
	}
	return out
}
