package types

import "testing"

func TestIsValidPool(t *testing.T) {
	for _, pool := range PoolNames {
		if !IsValidPool(pool) {
			t.Fatalf("%q: want valid", pool)
		}
	}
	if !IsValidPool("  Idea ") {
		t.Fatalf("trimmed case-insensitive: want valid")
	}
	for _, bad := range []string{"", "pool_idea", "weather", "ideas"} {
		if IsValidPool(bad) {
			t.Fatalf("%q: want invalid", bad)
		}
	}
}

func TestPoolEntityTypeRoundTrip(t *testing.T) {
	for _, pool := range PoolNames {
		et := PoolEntityType(pool)
		if et != "pool_"+pool {
			t.Fatalf("%q: entity type got=%q", pool, et)
		}
		if back := PoolFromEntityType(et); back != pool {
			t.Fatalf("%q: round trip got=%q", pool, back)
		}
	}
}

func TestPoolFromEntityTypeRejectsNonPools(t *testing.T) {
	tests := []string{"person", "pool_weather", "pool_", "idea", ""}
	for _, et := range tests {
		if got := PoolFromEntityType(et); got != "" {
			t.Fatalf("%q: want empty, got=%q", et, got)
		}
	}
}

func TestIsValidRightsScope(t *testing.T) {
	for _, s := range []string{RightsScopePublic, RightsScopeInternal, RightsScopeAny} {
		if !IsValidRightsScope(s) {
			t.Fatalf("%q: want valid", s)
		}
	}
	for _, s := range []string{"", "Public", "restricted"} {
		if IsValidRightsScope(s) {
			t.Fatalf("%q: want invalid", s)
		}
	}
}
