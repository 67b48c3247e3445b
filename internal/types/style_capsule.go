package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StyleCapsule is the durable output of the style-synthesis pipeline.
// A capsule is identified by (persona_id, era, rights_scope, graph_version,
// lexicon_version) and is valid while expires_at is in the future. Rebuilds
// upsert the identity key; rows are never edited field-by-field.
//
// Era is stored as "" when no era was requested so the identity key stays
// a plain unique index (NULLs never collide in Postgres).
type StyleCapsule struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PersonaID      string         `gorm:"column:persona_id;not null;uniqueIndex:idx_style_capsule_key,priority:1" json:"persona_id"`
	PersonaLabel   string         `gorm:"column:persona_label;not null" json:"persona_label"`
	Era            string         `gorm:"column:era;not null;default:'';uniqueIndex:idx_style_capsule_key,priority:2" json:"era,omitempty"`
	RightsScope    string         `gorm:"column:rights_scope;not null;uniqueIndex:idx_style_capsule_key,priority:3" json:"rights_scope"`
	CapsuleJSON    datatypes.JSON `gorm:"column:capsule_json;type:jsonb;not null" json:"capsule_json"`
	Confidence     float64        `gorm:"column:confidence;type:decimal(3,2);not null" json:"confidence"`
	SourcesJSON    datatypes.JSON `gorm:"column:sources_json;type:jsonb" json:"sources_json,omitempty"`
	GraphVersion   string         `gorm:"column:graph_version;not null;uniqueIndex:idx_style_capsule_key,priority:4" json:"graph_version"`
	LexiconVersion string         `gorm:"column:lexicon_version;not null;uniqueIndex:idx_style_capsule_key,priority:5" json:"lexicon_version"`
	ExpiresAt      time.Time      `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (StyleCapsule) TableName() string { return "style_capsules" }

// Valid reports whether the capsule has not yet expired.
func (c *StyleCapsule) Valid(now time.Time) bool {
	return c != nil && c.ExpiresAt.After(now)
}

// Capsule is the structured style payload stored in capsule_json.
type Capsule struct {
	Tone       []string `json:"tone"`
	Cadence    string   `json:"cadence"`
	Devices    []string `json:"devices"`
	Vocabulary []string `json:"vocabulary"`
	Metaphors  []string `json:"metaphors"`
	Dos        []string `json:"dos"`
	Donts      []string `json:"donts"`
	Era        string   `json:"era"`
}

// SourceSummary is one entry of sources_json: a compact pointer back to a
// corpus item that contributed to the capsule.
type SourceSummary struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	ItemType string  `json:"item_type"`
	Year     int     `json:"year"`
	Strategy string  `json:"strategy"`
	Score    float64 `json:"score"`
}

// Rights scopes accepted by the pipeline, most to least restrictive.
const (
	RightsScopePublic   = "public"
	RightsScopeInternal = "internal"
	RightsScopeAny      = "any"
)

// IsValidRightsScope reports whether s is a known rights scope.
func IsValidRightsScope(s string) bool {
	return s == RightsScopePublic || s == RightsScopeInternal || s == RightsScopeAny
}
