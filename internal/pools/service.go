package pools

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/clients/openai"
	"github.com/playalore/playalore/internal/graph"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
)

// BridgeSource is the graph-side bridge query; nil-safe callers fall
// back to the relational join when it errors.
type BridgeSource interface {
	BridgeItems(ctx context.Context, poolA, poolB string, limit int) ([]graph.BridgeRow, error)
}

// Service implements the read-mostly Seven Pools tools over the entity
// store. It shares the store with the capsule pipeline but has no
// dependency on it.
type Service struct {
	log      *logger.Logger
	db       *gorm.DB
	items    repos.ItemRepo
	entities repos.EntityRepo
	embedder openai.Embedder
	bridge   BridgeSource
}

func NewService(db *gorm.DB, items repos.ItemRepo, entities repos.EntityRepo, embedder openai.Embedder, bridge BridgeSource, baseLog *logger.Logger) *Service {
	return &Service{
		log:      baseLog.With("service", "PoolsService"),
		db:       db,
		items:    items,
		entities: entities,
		embedder: embedder,
		bridge:   bridge,
	}
}

// SearchParams are the validated inputs of the search tool.
type SearchParams struct {
	Query          string
	TopK           int
	Pools          []string
	DateFrom       *int
	DateTo         *int
	RequireRights  string
	DiversifyByPool bool
	IncludeTrace   bool
	IncludeCounts  bool
}

var yearInQuery = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Search runs the unified item search: vector-first with a text-match
// union, post-filtered by pools, years and rights.
func (s *Service) Search(ctx context.Context, p SearchParams) SearchResult {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return SearchResult{OK: false, Items: []SearchResultItem{}, Error: "empty query"}
	}
	if p.TopK < 1 || p.TopK > 50 {
		return SearchResult{OK: false, Items: []SearchResultItem{}, Error: fmt.Sprintf("top_k must be in [1,50], got %d", p.TopK)}
	}
	for _, pool := range p.Pools {
		if !types.IsValidPool(pool) {
			return SearchResult{OK: false, Items: []SearchResultItem{}, Error: fmt.Sprintf("unknown pool: %q", pool)}
		}
	}

	// A bare 4-digit year in the query acts as an implicit date filter
	// when no explicit range was given.
	dateFrom, dateTo := p.DateFrom, p.DateTo
	yearFilter := ""
	if dateFrom == nil && dateTo == nil {
		if m := yearInQuery.FindString(query); m != "" {
			y := atoiSafe(m)
			dateFrom, dateTo = &y, &y
			yearFilter = m
		}
	}

	candidates := s.gatherCandidates(ctx, query, p.TopK*3)
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Item.ID)
	}
	poolsByItem, _ := s.poolTags(ctx, ids)

	filtered := make([]repos.ScoredItem, 0, len(candidates))
	for _, c := range candidates {
		if dateFrom != nil && c.Item.Year < *dateFrom {
			continue
		}
		if dateTo != nil && c.Item.Year > *dateTo {
			continue
		}
		if len(p.Pools) > 0 && !hitsAnyPool(poolsByItem[c.Item.ID], p.Pools) {
			continue
		}
		if p.RequireRights == types.RightsScopePublic {
			if types.RightsFromMetadata(c.Item.Metadata).Visibility != "public" {
				continue
			}
		}
		filtered = append(filtered, c)
	}
	totalEstimate := len(filtered)

	if p.DiversifyByPool {
		filtered = diversifyByPool(filtered, poolsByItem)
	}
	if len(filtered) > p.TopK {
		filtered = filtered[:p.TopK]
	}

	items := make([]SearchResultItem, 0, len(filtered))
	poolCounts := map[string]int{}
	for _, c := range filtered {
		itemPools := poolsByItem[c.Item.ID]
		for _, pool := range itemPools {
			poolCounts[pool]++
		}
		items = append(items, SearchResultItem{
			ID:       c.Item.ID,
			Title:    c.Item.Name,
			ItemType: c.Item.ItemType,
			Year:     c.Item.Year,
			Pools:    itemPools,
			Score:    round3(c.Score),
			Rights:   types.RightsFromMetadata(c.Item.Metadata),
			Provenance: []types.Provenance{{
				SourceID:    c.Item.ID,
				Citation:    fmt.Sprintf("burning_man_%d", c.Item.Year),
				CollectedBy: "search",
				CollectedAt: time.Now().UTC().Format(time.RFC3339),
				Method:      "unified_search",
			}},
		})
	}

	result := SearchResult{
		OK:    true,
		Items: items,
		Meta:  SearchMeta{TotalEstimate: totalEstimate, YearFilter: yearFilter},
	}
	if p.IncludeCounts {
		result.Meta.PoolCounts = poolCounts
	}
	if p.IncludeTrace {
		result.Trace = buildTrace(items)
	}
	return result
}

// gatherCandidates unions vector search with a plain text match so the
// tool still answers when no embedder is configured.
func (s *Service) gatherCandidates(ctx context.Context, query string, limit int) []repos.ScoredItem {
	seen := map[string]bool{}
	out := []repos.ScoredItem{}

	if s.embedder != nil {
		if vecs, err := s.embedder.Embed(ctx, []string{query}); err == nil && len(vecs) == 1 {
			scored, err := s.items.SemanticSearch(ctx, s.db, vecs[0], limit)
			if err != nil {
				s.log.Warn("semantic search failed", "query", query, "error", err)
			}
			for _, sc := range scored {
				if !seen[sc.Item.ID] {
					seen[sc.Item.ID] = true
					out = append(out, sc)
				}
			}
		} else if err != nil {
			s.log.Warn("query embedding failed", "query", query, "error", err)
		}
	}

	textMatches, err := s.items.TextMatch(ctx, s.db, query, limit)
	if err != nil {
		s.log.Warn("text match failed", "query", query, "error", err)
	}
	for _, item := range textMatches {
		if !seen[item.ID] {
			seen[item.ID] = true
			out = append(out, repos.ScoredItem{Item: item, Score: 0.45})
		}
	}
	return out
}

func (s *Service) poolTags(ctx context.Context, itemIDs []string) (map[string][]string, error) {
	tags := map[string][]string{}
	if len(itemIDs) == 0 {
		return tags, nil
	}
	entities, err := s.entities.GetByItemIDs(ctx, s.db, itemIDs)
	if err != nil {
		s.log.Warn("pool tag fetch failed", "error", err)
		return tags, err
	}
	set := map[string]map[string]bool{}
	for _, e := range entities {
		pool := types.PoolFromEntityType(e.EntityType)
		if pool == "" {
			continue
		}
		if set[e.ItemID] == nil {
			set[e.ItemID] = map[string]bool{}
		}
		set[e.ItemID][pool] = true
	}
	for id, pools := range set {
		for _, p := range types.PoolNames {
			if pools[p] {
				tags[id] = append(tags[id], p)
			}
		}
	}
	return tags, nil
}

func hitsAnyPool(itemPools, wanted []string) bool {
	for _, w := range wanted {
		for _, p := range itemPools {
			if strings.EqualFold(p, w) {
				return true
			}
		}
	}
	return false
}

// diversifyByPool round-robins results across their first pool tag so a
// single dominant pool cannot crowd out the rest.
func diversifyByPool(items []repos.ScoredItem, poolsByItem map[string][]string) []repos.ScoredItem {
	buckets := map[string][]repos.ScoredItem{}
	order := []string{}
	for _, item := range items {
		pool := "untagged"
		if tags := poolsByItem[item.Item.ID]; len(tags) > 0 {
			pool = tags[0]
		}
		if _, ok := buckets[pool]; !ok {
			order = append(order, pool)
		}
		buckets[pool] = append(buckets[pool], item)
	}
	out := make([]repos.ScoredItem, 0, len(items))
	for len(out) < len(items) {
		progressed := false
		for _, pool := range order {
			if len(buckets[pool]) == 0 {
				continue
			}
			out = append(out, buckets[pool][0])
			buckets[pool] = buckets[pool][1:]
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return out
}

func buildTrace(items []SearchResultItem) string {
	fragments := make([]string, 0, len(items))
	for _, item := range items {
		pool := "untagged"
		if len(item.Pools) > 0 {
			pool = item.Pools[0]
		}
		fragments = append(fragments, fmt.Sprintf("%s(%s)", pool, item.Title))
		if len(fragments) == 5 {
			break
		}
	}
	return strings.Join(fragments, " → ")
}

// FetchParams are the validated inputs of the fetch tool.
type FetchParams struct {
	ID               string
	IncludeRelations bool
	RelationDepth    int
	Pools            []string
	AsOf             string // "YYYY-MM-DD"; timeline entries after this date are hidden
}

// Fetch assembles the full view of one item: pool and entity groupings,
// shared-entity relations, a synthetic two-version timeline, rights and
// provenance.
func (s *Service) Fetch(ctx context.Context, p FetchParams) FetchResult {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return FetchResult{OK: false, Error: "empty id"}
	}
	if p.RelationDepth < 0 || p.RelationDepth > 2 {
		return FetchResult{OK: false, Error: fmt.Sprintf("relation_depth must be in [0,2], got %d", p.RelationDepth)}
	}
	for _, pool := range p.Pools {
		if !types.IsValidPool(pool) {
			return FetchResult{OK: false, Error: fmt.Sprintf("unknown pool: %q", pool)}
		}
	}
	item, err := s.items.GetByID(ctx, s.db, id)
	if err != nil {
		s.log.Warn("fetch failed", "id", id, "error", err)
		return FetchResult{OK: false, Error: "fetch failed"}
	}
	if item == nil {
		return FetchResult{OK: false, Error: fmt.Sprintf("item not found: %s", id)}
	}

	entities, err := s.entities.GetByItemIDs(ctx, s.db, []string{id})
	if err != nil {
		s.log.Warn("fetch entity load failed", "id", id, "error", err)
	}
	poolFilter := map[string]bool{}
	for _, pool := range p.Pools {
		poolFilter[strings.ToLower(pool)] = true
	}
	poolGroups := map[string][]string{}
	basicGroups := map[string][]string{}
	for _, e := range entities {
		if pool := types.PoolFromEntityType(e.EntityType); pool != "" {
			if len(poolFilter) > 0 && !poolFilter[pool] {
				continue
			}
			poolGroups[pool] = appendUnique(poolGroups[pool], e.EntityValue)
		} else {
			basicGroups[e.EntityType] = appendUnique(basicGroups[e.EntityType], e.EntityValue)
		}
	}

	relations := []RelatedItem{}
	if p.IncludeRelations && p.RelationDepth > 0 {
		relations = s.relatedItems(ctx, id, p.RelationDepth)
	}

	timeline := []TimelineEntry{
		{Version: 1, Date: fmt.Sprintf("%d-01-01", item.Year), Event: "created"},
		{Version: 2, Date: item.UpdatedAt.UTC().Format("2006-01-02"), Event: "last_updated"},
	}
	if p.AsOf != "" {
		kept := timeline[:0]
		for _, entry := range timeline {
			if entry.Date <= p.AsOf {
				kept = append(kept, entry)
			}
		}
		timeline = kept
	}

	return FetchResult{
		OK:        true,
		ID:        item.ID,
		Title:     item.Name,
		ItemType:  item.ItemType,
		Year:      item.Year,
		Content:   item.Description,
		Location:  item.LocationString,
		Pools:     poolGroups,
		Entities:  basicGroups,
		Relations: relations,
		Timeline:  timeline,
		Rights:    types.RightsFromMetadata(item.Metadata),
		Provenance: []types.Provenance{{
			SourceID:    item.ID,
			Citation:    fmt.Sprintf("burning_man_%d", item.Year),
			CollectedBy: "fetch",
			CollectedAt: time.Now().UTC().Format(time.RFC3339),
			Method:      "direct_fetch",
		}},
	}
}

// relatedItems walks shared-entity cooccurrence. Depth 2 also expands
// the strongest direct relation one hop further.
func (s *Service) relatedItems(ctx context.Context, id string, depth int) []RelatedItem {
	rows, err := s.entities.JoinCooccurrence(ctx, s.db, id, 10)
	if err != nil {
		s.log.Warn("fetch relations failed", "id", id, "error", err)
		return []RelatedItem{}
	}
	if depth >= 2 && len(rows) > 0 {
		seen := map[string]bool{id: true}
		for _, row := range rows {
			seen[row.ItemID] = true
		}
		second, err := s.entities.JoinCooccurrence(ctx, s.db, rows[0].ItemID, 5)
		if err != nil {
			s.log.Warn("fetch depth-2 relations failed", "id", rows[0].ItemID, "error", err)
		}
		for _, row := range second {
			if !seen[row.ItemID] {
				seen[row.ItemID] = true
				rows = append(rows, row)
			}
		}
	}
	if len(rows) == 0 {
		return []RelatedItem{}
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ItemID)
	}
	related, err := s.items.GetByIDs(ctx, s.db, ids)
	if err != nil {
		s.log.Warn("fetch relation items failed", "id", id, "error", err)
		return []RelatedItem{}
	}
	names := make(map[string]string, len(related))
	for _, r := range related {
		names[r.ID] = r.Name
	}
	relations := make([]RelatedItem, 0, len(rows))
	for _, row := range rows {
		relations = append(relations, RelatedItem{ID: row.ItemID, Title: names[row.ItemID], Shared: row.Shared})
	}
	return relations
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return values
		}
	}
	return append(values, v)
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// sortNeighborsDesc keeps neighbor lists deterministic.
func sortByScoreDesc[T any](items []T, score func(T) float64, tiebreak func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := score(items[i]), score(items[j])
		if si != sj {
			return si > sj
		}
		return tiebreak(items[i]) < tiebreak(items[j])
	})
}
