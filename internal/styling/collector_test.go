package styling

import (
	"context"
	"testing"

	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
)

func TestLengthBonus(t *testing.T) {
	tests := []struct {
		length int
		want   float64
	}{
		{0, 0.0},
		{100, 0.0},
		{101, 0.1},
		{500, 0.1},
		{501, 0.2},
		{1500, 0.2},
		{1501, 0.3},
	}
	for _, tt := range tests {
		desc := make([]byte, tt.length)
		for i := range desc {
			desc[i] = 'x'
		}
		if got := lengthBonus(string(desc)); got != tt.want {
			t.Fatalf("length=%d: want=%g got=%g", tt.length, tt.want, got)
		}
	}
}

func TestStrategyBaseScores(t *testing.T) {
	tests := []struct {
		strategy string
		want     float64
	}{
		{StrategyAuthoredContent, 0.9},
		{StrategyEmanationContent, 0.8},
		{StrategyEntityAssociation, 0.7},
		{StrategyExperienceContent, 0.6},
		{StrategySemanticSearch, 0.5},
	}
	c := &Collector{}
	for _, tt := range tests {
		item := c.toCorpusItem(&types.Item{ID: "i1", Name: "Thing", Year: 2001}, tt.strategy)
		if item.Score != tt.want {
			t.Fatalf("%s: want=%g got=%g", tt.strategy, tt.want, item.Score)
		}
	}
	unknown := c.toCorpusItem(&types.Item{ID: "i1", Name: "Thing", Year: 2001}, "made_up")
	if unknown.Score != 0.3 {
		t.Fatalf("fallback score: want=0.3 got=%g", unknown.Score)
	}
}

func TestToCorpusItemProvenance(t *testing.T) {
	c := &Collector{}
	item := c.toCorpusItem(&types.Item{ID: "i1", Name: "Speech", Description: "text", Year: 1997}, StrategyAuthoredContent)
	if item.Content != "Speech\ntext" {
		t.Fatalf("content: got=%q", item.Content)
	}
	if len(item.Provenance) != 1 {
		t.Fatalf("provenance: want=1 got=%d", len(item.Provenance))
	}
	if item.Provenance[0].Citation != "burning_man_1997" {
		t.Fatalf("citation: got=%q", item.Provenance[0].Citation)
	}
	if item.Provenance[0].CollectedBy != StrategyAuthoredContent {
		t.Fatalf("collected_by: got=%q", item.Provenance[0].CollectedBy)
	}
}

func TestDedupeByMaxScore(t *testing.T) {
	collected := [][]CorpusItem{
		{
			{ID: "a", Strategy: StrategySemanticSearch, Score: 0.5},
			{ID: "b", Strategy: StrategySemanticSearch, Score: 0.5},
		},
		{
			{ID: "a", Strategy: StrategyAuthoredContent, Score: 0.9},
			{ID: "c", Strategy: StrategyAuthoredContent, Score: 0.9},
		},
		{
			// Equal score never displaces the earlier strategy's copy.
			{ID: "b", Strategy: StrategyExperienceContent, Score: 0.5},
		},
	}
	merged := dedupeByMaxScore(collected)
	if len(merged) != 3 {
		t.Fatalf("len: want=3 got=%d", len(merged))
	}
	if merged[0].ID != "a" || merged[0].Strategy != StrategyAuthoredContent {
		t.Fatalf("a: want authored winner, got=%s/%s", merged[0].ID, merged[0].Strategy)
	}
	if merged[1].ID != "b" || merged[1].Strategy != StrategySemanticSearch {
		t.Fatalf("b: want first-seen on tie, got=%s/%s", merged[1].ID, merged[1].Strategy)
	}
	if merged[2].ID != "c" {
		t.Fatalf("c: got=%s", merged[2].ID)
	}
}

func TestFilterByRights(t *testing.T) {
	items := []CorpusItem{
		{ID: "pub", Rights: types.Rights{Visibility: "public"}},
		{ID: "int", Rights: types.Rights{Visibility: "internal"}},
		{ID: "res", Rights: types.Rights{Visibility: "restricted"}},
	}
	tests := []struct {
		scope string
		want  []string
	}{
		{types.RightsScopePublic, []string{"pub"}},
		{types.RightsScopeInternal, []string{"pub", "int"}},
		{types.RightsScopeAny, []string{"pub", "int", "res"}},
	}
	for _, tt := range tests {
		in := make([]CorpusItem, len(items))
		copy(in, items)
		got := filterByRights(in, tt.scope)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: want=%d items got=%d", tt.scope, len(tt.want), len(got))
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Fatalf("%s[%d]: want=%q got=%q", tt.scope, i, id, got[i].ID)
			}
		}
	}
}

func TestFilterByEra(t *testing.T) {
	items := []CorpusItem{
		{ID: "early", Year: 1992},
		{ID: "mid", Year: 2001},
		{ID: "late", Year: 2015},
		{ID: "unset", Year: 0}, // defaults to 2024
	}
	got := filterByEra(items, 1995, 2005)
	if len(got) != 1 || got[0].ID != "mid" {
		t.Fatalf("era filter: got=%v", got)
	}
}

func TestSemanticSearchDiversifiesByPool(t *testing.T) {
	items := &fakeItemRepo{semantic: []repos.ScoredItem{
		{Item: &types.Item{ID: "i1", Name: "A"}, Score: 0.9},
		{Item: &types.Item{ID: "i2", Name: "B"}, Score: 0.8},
		{Item: &types.Item{ID: "i3", Name: "C"}, Score: 0.7},
		{Item: &types.Item{ID: "i4", Name: "D"}, Score: 0.6},
		{Item: &types.Item{ID: "i5", Name: "E"}, Score: 0.5},
	}}
	entities := &fakeEntityRepo{byItemIDs: []*types.Entity{
		{ItemID: "i1", EntityType: types.PoolEntityType(types.PoolIdea)},
		{ItemID: "i2", EntityType: types.PoolEntityType(types.PoolIdea)},
		{ItemID: "i3", EntityType: types.PoolEntityType(types.PoolIdea)},
		{ItemID: "i4", EntityType: types.PoolEntityType(types.PoolIdea)},
		{ItemID: "i5", EntityType: types.PoolEntityType(types.PoolManifest)},
	}}
	c := &Collector{items: items, entities: entities, embedder: &fakeEmbedder{}}

	out, err := c.semanticSearch(context.Background(), "larry harvey")
	if err != nil {
		t.Fatalf("semantic search: %v", err)
	}
	wantOrder := []string{"i1", "i5", "i2", "i3", "i4"}
	if len(out) != len(wantOrder) {
		t.Fatalf("len: want=%d got=%d", len(wantOrder), len(out))
	}
	for i, id := range wantOrder {
		if out[i].ID != id {
			t.Fatalf("position %d: want=%q got=%q", i, id, out[i].ID)
		}
	}
}

func TestDiversifyScoredCapsAtLimit(t *testing.T) {
	scored := make([]repos.ScoredItem, 20)
	for i := range scored {
		scored[i] = repos.ScoredItem{Item: &types.Item{ID: string(rune('a' + i))}, Score: 1.0 - float64(i)*0.01}
	}
	c := &Collector{entities: &fakeEntityRepo{}}
	out, err := c.diversifyScored(context.Background(), scored, 15)
	if err != nil {
		t.Fatalf("diversify: %v", err)
	}
	if len(out) != 15 {
		t.Fatalf("len: want=15 got=%d", len(out))
	}
}

func TestIsAuthoredType(t *testing.T) {
	tests := []struct {
		itemType string
		want     bool
	}{
		{types.ItemTypePhilosophicalText, true},
		{types.ItemTypeManifesto, true},
		{types.ItemTypeSpeech, true},
		{"principle", true},
		{types.ItemTypeCamp, false},
		{types.ItemTypeArt, false},
	}
	for _, tt := range tests {
		if got := isAuthoredType(tt.itemType); got != tt.want {
			t.Fatalf("%s: want=%v got=%v", tt.itemType, tt.want, got)
		}
	}
}

func TestItemIDSet(t *testing.T) {
	entities := []*types.Entity{
		{ItemID: "a"},
		{ItemID: "b"},
		{ItemID: "a"},
	}
	ids := itemIDSet(entities)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ids: got=%v", ids)
	}
}
