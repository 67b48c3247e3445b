package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/types"
)

// EntityValueRow is one distinct entity value of a type, with a
// representative item and the best confidence seen for that value.
type EntityValueRow struct {
	EntityValue string
	ItemID      string
	Confidence  float64
}

// CooccurrenceRow is an item related to a reference item through shared
// (entity_type, entity_value) pairs, with the number of shared pairs.
type CooccurrenceRow struct {
	ItemID string
	Shared int64
}

type EntityRepo interface {
	GetByItemIDs(ctx context.Context, tx *gorm.DB, itemIDs []string) ([]*types.Entity, error)
	// FilterByTypeAndValueLike matches entity_value case-insensitively by
	// substring within one entity_type.
	FilterByTypeAndValueLike(ctx context.Context, tx *gorm.DB, entityType, valueLike string, limit int) ([]*types.Entity, error)
	ExactValue(ctx context.Context, tx *gorm.DB, entityType, value string, limit int) ([]*types.Entity, error)
	EntitiesByTypes(ctx context.Context, tx *gorm.DB, entityTypes []string, limit int) ([]*types.Entity, error)
	// DistinctValuesByType returns each distinct value of a type once,
	// keeping the highest-confidence occurrence.
	DistinctValuesByType(ctx context.Context, tx *gorm.DB, entityType string, limit int) ([]EntityValueRow, error)
	GroupCountByType(ctx context.Context, tx *gorm.DB, itemIDs []string) (map[string]int64, error)
	// JoinCooccurrence finds items sharing (entity_type, entity_value)
	// pairs with the given item, most-shared first.
	JoinCooccurrence(ctx context.Context, tx *gorm.DB, itemID string, limit int) ([]CooccurrenceRow, error)
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: baseLog.With("repo", "EntityRepo")}
}

func (r *entityRepo) GetByItemIDs(ctx context.Context, tx *gorm.DB, itemIDs []string) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Entity
	if len(itemIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("item_id IN ?", itemIDs).
		Order("item_id, entity_type").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entityRepo) FilterByTypeAndValueLike(ctx context.Context, tx *gorm.DB, entityType, valueLike string, limit int) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Entity
	if err := transaction.WithContext(ctx).
		Where("entity_type = ? AND entity_value ILIKE ?", entityType, "%"+valueLike+"%").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entityRepo) ExactValue(ctx context.Context, tx *gorm.DB, entityType, value string, limit int) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Entity
	if err := transaction.WithContext(ctx).
		Where("entity_type = ? AND LOWER(entity_value) = LOWER(?)", entityType, value).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entityRepo) EntitiesByTypes(ctx context.Context, tx *gorm.DB, entityTypes []string, limit int) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Entity
	if len(entityTypes) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("entity_type IN ?", entityTypes).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entityRepo) DistinctValuesByType(ctx context.Context, tx *gorm.DB, entityType string, limit int) ([]EntityValueRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []EntityValueRow
	if err := transaction.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (LOWER(entity_value))
		            entity_value, item_id, COALESCE(confidence, 0.5) AS confidence
		     FROM entities
		     WHERE entity_type = ?
		     ORDER BY LOWER(entity_value), confidence DESC NULLS LAST
		     LIMIT ?`, entityType, limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *entityRepo) GroupCountByType(ctx context.Context, tx *gorm.DB, itemIDs []string) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[string]int64{}
	if len(itemIDs) == 0 {
		return out, nil
	}
	type row struct {
		EntityType string
		Count      int64
	}
	var rows []row
	if err := transaction.WithContext(ctx).
		Model(&types.Entity{}).
		Select("entity_type, COUNT(*) AS count").
		Where("item_id IN ?", itemIDs).
		Group("entity_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.EntityType] = rw.Count
	}
	return out, nil
}

func (r *entityRepo) JoinCooccurrence(ctx context.Context, tx *gorm.DB, itemID string, limit int) ([]CooccurrenceRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []CooccurrenceRow
	if err := transaction.WithContext(ctx).
		Raw(`SELECT b.item_id AS item_id, COUNT(*) AS shared
		     FROM entities a
		     JOIN entities b
		       ON a.entity_type = b.entity_type
		      AND LOWER(a.entity_value) = LOWER(b.entity_value)
		      AND b.item_id <> a.item_id
		     WHERE a.item_id = ?
		     GROUP BY b.item_id
		     ORDER BY shared DESC
		     LIMIT ?`, itemID, limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
