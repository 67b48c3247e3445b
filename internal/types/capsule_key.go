package types

import "strings"

// CapsuleKey is the five-part identity of a style capsule. The same key
// addresses the database row, the cache entry and the build lock, so the
// rendering here must stay stable.
type CapsuleKey struct {
	PersonaID      string
	Era            string // "" when no era was requested
	RightsScope    string
	GraphVersion   string
	LexiconVersion string
}

func (k CapsuleKey) eraSegment() string {
	if strings.TrimSpace(k.Era) == "" {
		return "any"
	}
	return k.Era
}

// CacheKey renders the redis key for the capsule payload.
func (k CapsuleKey) CacheKey() string {
	return strings.Join([]string{
		"style_capsule",
		k.PersonaID,
		k.eraSegment(),
		k.RightsScope,
		k.GraphVersion,
		k.LexiconVersion,
	}, ":")
}

// LockKey renders the redis key for the at-most-one-build lease.
func (k CapsuleKey) LockKey() string {
	return strings.Join([]string{
		"build_capsule",
		k.PersonaID,
		k.eraSegment(),
		k.RightsScope,
		k.GraphVersion,
		k.LexiconVersion,
	}, ":")
}
