package pools

import (
	"testing"

	"github.com/playalore/playalore/internal/repos"
	"github.com/playalore/playalore/internal/types"
)

func scoredItem(id string, score float64) repos.ScoredItem {
	return repos.ScoredItem{Item: &types.Item{ID: id, Name: id}, Score: score}
}

func TestDiversifyByPoolRoundRobin(t *testing.T) {
	items := []repos.ScoredItem{
		scoredItem("i1", 0.9),
		scoredItem("i2", 0.8),
		scoredItem("i3", 0.7),
		scoredItem("i4", 0.6),
	}
	poolsByItem := map[string][]string{
		"i1": {"idea"},
		"i2": {"idea"},
		"i3": {"manifest"},
		"i4": {"idea"},
	}
	got := diversifyByPool(items, poolsByItem)
	wantOrder := []string{"i1", "i3", "i2", "i4"}
	for i, id := range wantOrder {
		if got[i].Item.ID != id {
			t.Fatalf("position %d: want=%q got=%q", i, id, got[i].Item.ID)
		}
	}
}

func TestDiversifyByPoolUntagged(t *testing.T) {
	items := []repos.ScoredItem{
		scoredItem("tagged", 0.9),
		scoredItem("bare", 0.5),
	}
	got := diversifyByPool(items, map[string][]string{"tagged": {"practical"}})
	if len(got) != 2 {
		t.Fatalf("len: want=2 got=%d", len(got))
	}
	if got[0].Item.ID != "tagged" || got[1].Item.ID != "bare" {
		t.Fatalf("order: got=%q,%q", got[0].Item.ID, got[1].Item.ID)
	}
}

func TestHitsAnyPool(t *testing.T) {
	itemPools := []string{"idea", "emanation"}
	if !hitsAnyPool(itemPools, []string{"Emanation"}) {
		t.Fatalf("want case-insensitive hit")
	}
	if hitsAnyPool(itemPools, []string{"practical", "manifest"}) {
		t.Fatalf("want miss")
	}
	if hitsAnyPool(nil, []string{"idea"}) {
		t.Fatalf("empty item pools: want miss")
	}
}

func TestBuildTraceCapsAtFive(t *testing.T) {
	items := make([]SearchResultItem, 7)
	for i := range items {
		items[i] = SearchResultItem{Title: "T", Pools: []string{"idea"}}
	}
	trace := buildTrace(items)
	want := "idea(T) → idea(T) → idea(T) → idea(T) → idea(T)"
	if trace != want {
		t.Fatalf("trace: want=%q got=%q", want, trace)
	}
}

func TestBuildTraceUntagged(t *testing.T) {
	trace := buildTrace([]SearchResultItem{{Title: "Dusty"}})
	if trace != "untagged(Dusty)" {
		t.Fatalf("trace: got=%q", trace)
	}
}

func TestAtoiSafe(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1999", 1999},
		{"07", 7},
		{"", 0},
		{"12a", 0},
		{"-5", 0},
	}
	for _, tt := range tests {
		if got := atoiSafe(tt.in); got != tt.want {
			t.Fatalf("%q: want=%d got=%d", tt.in, tt.want, got)
		}
	}
}

func TestAppendUnique(t *testing.T) {
	values := appendUnique([]string{"Gifting"}, "gifting")
	if len(values) != 1 {
		t.Fatalf("case-insensitive dup: want=1 got=%d", len(values))
	}
	values = appendUnique(values, "Decommodification")
	if len(values) != 2 {
		t.Fatalf("new value: want=2 got=%d", len(values))
	}
}

func TestSortByScoreDescTiebreak(t *testing.T) {
	items := []SearchResultItem{
		{ID: "b", Score: 0.5},
		{ID: "a", Score: 0.5},
		{ID: "c", Score: 0.9},
	}
	sortByScoreDesc(items, func(i SearchResultItem) float64 { return i.Score }, func(i SearchResultItem) string { return i.ID })
	if items[0].ID != "c" || items[1].ID != "a" || items[2].ID != "b" {
		t.Fatalf("order: got=%q,%q,%q", items[0].ID, items[1].ID, items[2].ID)
	}
}
