package tools

import (
	"sort"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	sort.Strings(names)
	want := []string{
		"analyze_pools",
		"clear_persona",
		"fetch",
		"location_neighbors",
		"pool_bridge",
		"search",
		"set_persona",
	}
	if len(names) != len(want) {
		t.Fatalf("tool count: want=%d got=%d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("tool[%d]: want=%q got=%q", i, name, names[i])
		}
	}
}

func TestRegistryHandlersBound(t *testing.T) {
	for name, entry := range toolRegistry {
		if entry.handler == nil {
			t.Fatalf("%s: nil handler factory", name)
		}
		if entry.def.Name != name {
			t.Fatalf("%s: definition name mismatch, got=%q", name, entry.def.Name)
		}
	}
}

func TestDecodeSearchRequest(t *testing.T) {
	var req mcp.CallToolRequest
	req.Params.Name = "search"
	req.Params.Arguments = map[string]any{
		"query":             "temple burn 2003",
		"top_k":             5,
		"pools":             []any{"idea", "emanation"},
		"require_rights":    "any",
		"diversify_by_pool": false,
	}
	decoded, err := decode[SearchRequest](req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Query != "temple burn 2003" {
		t.Fatalf("query: got=%q", decoded.Query)
	}
	if decoded.TopK == nil || *decoded.TopK != 5 {
		t.Fatalf("top_k: got=%v", decoded.TopK)
	}
	if len(decoded.Pools) != 2 || decoded.Pools[1] != "emanation" {
		t.Fatalf("pools: got=%v", decoded.Pools)
	}
	if decoded.DiversifyByPool == nil || *decoded.DiversifyByPool {
		t.Fatalf("diversify_by_pool: got=%v", decoded.DiversifyByPool)
	}
}

func TestDecodeMissingFieldsLeaveDefaults(t *testing.T) {
	var req mcp.CallToolRequest
	req.Params.Name = "search"
	req.Params.Arguments = map[string]any{"query": "dust"}
	decoded, err := decode[SearchRequest](req)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.TopK != nil {
		t.Fatalf("top_k: want nil got=%v", *decoded.TopK)
	}
	if intOr(decoded.TopK, 10) != 10 {
		t.Fatalf("default top_k: want=10")
	}
	if stringOr(decoded.RequireRights, "public") != "public" {
		t.Fatalf("default require_rights: want=public")
	}
}

func TestDefaultHelpers(t *testing.T) {
	five := 5
	yes := true
	pct := 0.15
	if intOr(&five, 10) != 5 || intOr(nil, 10) != 10 {
		t.Fatalf("intOr mismatch")
	}
	if !boolOr(&yes, false) || boolOr(nil, true) != true {
		t.Fatalf("boolOr mismatch")
	}
	if floatOr(&pct, 0.1) != 0.15 || floatOr(nil, 0.1) != 0.1 {
		t.Fatalf("floatOr mismatch")
	}
	if stringOr("", "fallback") != "fallback" || stringOr("set", "fallback") != "set" {
		t.Fatalf("stringOr mismatch")
	}
}
