package types

import (
	"testing"
	"time"
)

func TestCapsuleKeyCacheKey(t *testing.T) {
	key := CapsuleKey{
		PersonaID:      "person:larry_harvey",
		Era:            "1996-2004",
		RightsScope:    "public",
		GraphVersion:   "v3",
		LexiconVersion: "v7",
	}
	want := "style_capsule:person:larry_harvey:1996-2004:public:v3:v7"
	if got := key.CacheKey(); got != want {
		t.Fatalf("cache key: want=%q got=%q", want, got)
	}
}

func TestCapsuleKeyEraDefaultsToAny(t *testing.T) {
	key := CapsuleKey{
		PersonaID:      "person:larry_harvey",
		Era:            "  ",
		RightsScope:    "any",
		GraphVersion:   "v1",
		LexiconVersion: "v1",
	}
	want := "style_capsule:person:larry_harvey:any:any:v1:v1"
	if got := key.CacheKey(); got != want {
		t.Fatalf("cache key: want=%q got=%q", want, got)
	}
}

func TestCapsuleKeyLockKey(t *testing.T) {
	key := CapsuleKey{
		PersonaID:      "person:marian_goodell",
		RightsScope:    "internal",
		GraphVersion:   "v2",
		LexiconVersion: "v5",
	}
	want := "build_capsule:person:marian_goodell:any:internal:v2:v5"
	if got := key.LockKey(); got != want {
		t.Fatalf("lock key: want=%q got=%q", want, got)
	}
}

func TestStyleCapsuleValid(t *testing.T) {
	now := time.Now()
	fresh := &StyleCapsule{ExpiresAt: now.Add(time.Hour)}
	if !fresh.Valid(now) {
		t.Fatalf("fresh capsule: want valid")
	}
	stale := &StyleCapsule{ExpiresAt: now.Add(-time.Minute)}
	if stale.Valid(now) {
		t.Fatalf("stale capsule: want invalid")
	}
	var missing *StyleCapsule
	if missing.Valid(now) {
		t.Fatalf("nil capsule: want invalid")
	}
}
