package types

import "strings"

// The seven pools: a fixed cultural-semantic taxonomy used to classify
// entities and, through them, items. Pool tags are stored as entities
// whose entity_type is "pool_<name>".
const (
	PoolIdea         = "idea"
	PoolManifest     = "manifest"
	PoolExperience   = "experience"
	PoolRelational   = "relational"
	PoolEvolutionary = "evolutionary"
	PoolPractical    = "practical"
	PoolEmanation    = "emanation"
)

// PoolNames lists the seven pools in canonical order.
var PoolNames = []string{
	PoolIdea,
	PoolManifest,
	PoolExperience,
	PoolRelational,
	PoolEvolutionary,
	PoolPractical,
	PoolEmanation,
}

const poolEntityPrefix = "pool_"

// IsValidPool reports whether name is one of the seven pools.
func IsValidPool(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range PoolNames {
		if p == name {
			return true
		}
	}
	return false
}

// PoolEntityType maps a pool name to its entity_type ("idea" -> "pool_idea").
func PoolEntityType(pool string) string {
	return poolEntityPrefix + strings.ToLower(strings.TrimSpace(pool))
}

// PoolFromEntityType maps an entity_type back to a pool name, returning
// "" when the type is not a pool tag.
func PoolFromEntityType(entityType string) string {
	if !strings.HasPrefix(entityType, poolEntityPrefix) {
		return ""
	}
	name := strings.TrimPrefix(entityType, poolEntityPrefix)
	if !IsValidPool(name) {
		return ""
	}
	return name
}
