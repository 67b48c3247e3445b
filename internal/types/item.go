package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Item is a knowledge-base document produced by the offline ingestion
// pipeline. This service treats items as read-only.
type Item struct {
	ID             string           `gorm:"primaryKey;column:id" json:"id"`
	ItemType       string           `gorm:"column:item_type;index" json:"item_type"`
	Year           int              `gorm:"column:year;index" json:"year"`
	Name           string           `gorm:"column:name" json:"name"`
	Description    string           `gorm:"column:description" json:"description"`
	LocationString string           `gorm:"column:location_string" json:"location_string"`
	Metadata       datatypes.JSON   `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Embedding      *pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`
	CreatedAt      time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (Item) TableName() string { return "items" }

// Known item types. Kept as plain strings in the column; these constants
// cover the types the style pipeline cares about.
const (
	ItemTypeCamp              = "camp"
	ItemTypeArt               = "art"
	ItemTypeEvent             = "event"
	ItemTypePhilosophicalText = "philosophical_text"
	ItemTypeExperienceStory   = "experience_story"
	ItemTypePracticalGuide    = "practical_guide"
	ItemTypeInfrastructure    = "infrastructure"
	ItemTypeHistoricalFact    = "historical_fact"
	ItemTypeTimelineEvent     = "timeline_event"
	ItemTypeEssay             = "essay"
	ItemTypeSpeech            = "speech"
	ItemTypeManifesto         = "manifesto"
	ItemTypeInterview         = "interview"
	ItemTypeLetter            = "letter"
	ItemTypeNote              = "note"
	ItemTypeThemeEssay        = "theme_essay"
	ItemTypePolicyEssay       = "policy_essay"
)

// Entity is a typed tag attached to exactly one Item. The same
// (type, value) pair may recur with different confidence because
// independent extraction passes append rather than merge.
type Entity struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ItemID      string    `gorm:"column:item_id;not null;index" json:"item_id"`
	Item        *Item     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ItemID;references:ID" json:"item,omitempty"`
	EntityType  string    `gorm:"column:entity_type;not null;index" json:"entity_type"`
	EntityValue string    `gorm:"column:entity_value;not null;index" json:"entity_value"`
	Confidence  *float64  `gorm:"column:confidence" json:"confidence,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Entity) TableName() string { return "entities" }

// Basic (non-pool) entity types.
const (
	EntityTypeLocation       = "location"
	EntityTypeActivity       = "activity"
	EntityTypeTheme          = "theme"
	EntityTypeTime           = "time"
	EntityTypePerson         = "person"
	EntityTypeItemType       = "item_type"
	EntityTypeContact        = "contact"
	EntityTypeOrganizational = "organizational"
	EntityTypeService        = "service"
	EntityTypeSchedule       = "schedule"
	EntityTypeRequirement    = "requirement"
)

// BasicEntityTypes lists every non-pool entity type.
var BasicEntityTypes = []string{
	EntityTypeLocation,
	EntityTypeActivity,
	EntityTypeTheme,
	EntityTypeTime,
	EntityTypePerson,
	EntityTypeItemType,
	EntityTypeContact,
	EntityTypeOrganizational,
	EntityTypeService,
	EntityTypeSchedule,
	EntityTypeRequirement,
}
