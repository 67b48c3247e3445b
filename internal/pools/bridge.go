package pools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/playalore/playalore/internal/graph"
	"github.com/playalore/playalore/internal/types"
	"github.com/playalore/playalore/internal/utils"
)

// parsePoolRef handles the literal forms of a bridge reference: a pool
// name, "pool:entity_value", or free text whose words contain a pool
// name. Free text naming entities rather than pools falls through to
// the vocabulary lookup in resolvePoolRef.
func parsePoolRef(ref string) (pool, entityFilter string, err error) {
	ref = strings.TrimSpace(strings.ToLower(ref))
	if ref == "" {
		return "", "", fmt.Errorf("empty pool reference")
	}
	if types.IsValidPool(ref) {
		return ref, "", nil
	}
	if head, tail, found := strings.Cut(ref, ":"); found {
		head = strings.TrimSpace(head)
		tail = strings.TrimSpace(tail)
		if types.IsValidPool(head) && tail != "" {
			return head, tail, nil
		}
	}
	for _, word := range strings.Fields(ref) {
		clean := strings.Trim(word, ".,;:!?\"'()")
		if types.IsValidPool(clean) {
			return clean, "", nil
		}
	}
	return "", "", fmt.Errorf("cannot resolve pool from %q", ref)
}

// resolvePoolRef turns one side of a bridge request into a canonical
// pool name plus an optional entity-value filter. Literal forms win;
// otherwise the text is matched against each pool's known entity values
// and the pool with the most values present in the text is chosen.
func (s *Service) resolvePoolRef(ctx context.Context, ref string) (pool, entityFilter string, err error) {
	if pool, filter, err := parsePoolRef(ref); err == nil {
		return pool, filter, nil
	}
	lowered := strings.ToLower(strings.TrimSpace(ref))
	if lowered == "" {
		return "", "", fmt.Errorf("empty pool reference")
	}

	bestPool := ""
	bestHits := 0
	for _, candidate := range types.PoolNames {
		rows, err := s.entities.DistinctValuesByType(ctx, s.db, types.PoolEntityType(candidate), 1000)
		if err != nil {
			s.log.Warn("pool vocabulary lookup failed", "pool", candidate, "error", err)
			continue
		}
		hits := 0
		for _, row := range rows {
			value := strings.ToLower(strings.TrimSpace(row.EntityValue))
			if len(value) >= 3 && strings.Contains(lowered, value) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits, bestPool = hits, candidate
		}
	}
	if bestPool == "" {
		return "", "", fmt.Errorf("cannot resolve pool from %q", ref)
	}
	return bestPool, "", nil
}

// PoolBridge finds items tagged in both requested pools. The graph
// store answers when reachable; otherwise the relational entity table
// is joined in memory and Source reports the degraded path.
func (s *Service) PoolBridge(ctx context.Context, refA, refB string, limit int) BridgeResult {
	poolA, filterA, err := s.resolvePoolRef(ctx, refA)
	if err != nil {
		return BridgeResult{OK: false, Bridges: []Bridge{}, Error: err.Error()}
	}
	poolB, filterB, err := s.resolvePoolRef(ctx, refB)
	if err != nil {
		return BridgeResult{OK: false, Bridges: []Bridge{}, Error: err.Error()}
	}
	if poolA == poolB {
		return BridgeResult{OK: false, Bridges: []Bridge{}, Error: fmt.Sprintf("pools must differ, both are %q", poolA)}
	}
	if limit < 1 || limit > 25 {
		limit = 10
	}

	if s.bridge != nil {
		rows, err := s.bridge.BridgeItems(ctx, poolA, poolB, limit*2)
		if err == nil {
			bridges := s.bridgesFromGraph(poolA, poolB, filterA, filterB, rows, limit)
			return BridgeResult{OK: true, PoolA: poolA, PoolB: poolB, Bridges: bridges, Source: "graph"}
		}
		s.log.Warn("graph bridge unavailable, falling back", "pool_a", poolA, "pool_b", poolB, "error", err)
	}

	bridges, err := s.bridgesFromRelational(ctx, poolA, poolB, filterA, filterB, limit)
	if err != nil {
		s.log.Error("relational bridge failed", "pool_a", poolA, "pool_b", poolB, "error", err)
		return BridgeResult{OK: false, Bridges: []Bridge{}, Error: "bridge query failed"}
	}
	return BridgeResult{OK: true, PoolA: poolA, PoolB: poolB, Bridges: bridges, Source: "relational"}
}

func (s *Service) bridgesFromGraph(poolA, poolB, filterA, filterB string, rows []graph.BridgeRow, limit int) []Bridge {
	bridges := make([]Bridge, 0, limit)
	for _, row := range rows {
		if filterA != "" && !containsFold(row.AValues, filterA) {
			continue
		}
		if filterB != "" && !containsFold(row.BValues, filterB) {
			continue
		}
		bridges = append(bridges, newBridge(row.ItemID, row.Name, poolA, poolB, row.AValues, row.BValues))
		if len(bridges) == limit {
			break
		}
	}
	return bridges
}

// bridgesFromRelational groups pool entities by item in memory. Bounded
// by the per-type fetch limit, acceptable for this corpus size.
func (s *Service) bridgesFromRelational(ctx context.Context, poolA, poolB, filterA, filterB string, limit int) ([]Bridge, error) {
	typeA := types.PoolEntityType(poolA)
	typeB := types.PoolEntityType(poolB)
	entities, err := s.entities.EntitiesByTypes(ctx, s.db, []string{typeA, typeB}, 5000)
	if err != nil {
		return nil, err
	}

	byItem := map[string]map[string][]string{}
	for _, e := range entities {
		if byItem[e.ItemID] == nil {
			byItem[e.ItemID] = map[string][]string{}
		}
		byItem[e.ItemID][e.EntityType] = appendUnique(byItem[e.ItemID][e.EntityType], e.EntityValue)
	}

	candidates := []string{}
	for itemID, groups := range byItem {
		aValues, bValues := groups[typeA], groups[typeB]
		if len(aValues) == 0 || len(bValues) == 0 {
			continue
		}
		if filterA != "" && !containsFold(aValues, filterA) {
			continue
		}
		if filterB != "" && !containsFold(bValues, filterB) {
			continue
		}
		candidates = append(candidates, itemID)
	}
	if len(candidates) == 0 {
		return []Bridge{}, nil
	}

	items, err := s.items.GetByIDs(ctx, s.db, candidates)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}

	bridges := make([]Bridge, 0, len(candidates))
	for _, itemID := range candidates {
		groups := byItem[itemID]
		bridges = append(bridges, newBridge(itemID, names[itemID], poolA, poolB, groups[typeA], groups[typeB]))
	}
	sortByScoreDesc(bridges, func(b Bridge) float64 { return b.Score }, func(b Bridge) string { return b.ItemID })
	if len(bridges) > limit {
		bridges = bridges[:limit]
	}
	return bridges, nil
}

// newBridge scores a bridge by entity richness on both sides and
// renders the human-readable path through the item.
func newBridge(itemID, name, poolA, poolB string, aValues, bValues []string) Bridge {
	sort.Strings(aValues)
	sort.Strings(bValues)
	score := float64(len(aValues)+len(bValues)) / 10.0
	if score > 1.0 {
		score = 1.0
	}
	title := name
	if title == "" {
		title = itemID
	}
	path := fmt.Sprintf("%s(%s) → %s → %s(%s)",
		utils.TitleCase(poolA), firstOr(aValues, "?"),
		title,
		utils.TitleCase(poolB), firstOr(bValues, "?"))
	return Bridge{
		ItemID:   itemID,
		Title:    title,
		PoolsHit: []string{poolA, poolB},
		Entities: map[string][]string{poolA: aValues, poolB: bValues},
		Score:    round3(score),
		Path:     path,
	}
}

func containsFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
