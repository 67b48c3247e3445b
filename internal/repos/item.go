package repos

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/types"
)

// ScoredItem pairs an item with a 0-1 relevance score from vector search.
type ScoredItem struct {
	Item  *types.Item
	Score float64
}

type ItemRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Item, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Item, error)
	FilterByTypes(ctx context.Context, tx *gorm.DB, itemTypes []string, limit int) ([]*types.Item, error)
	TextMatch(ctx context.Context, tx *gorm.DB, substr string, limit int) ([]*types.Item, error)
	ByName(ctx context.Context, tx *gorm.DB, name string) ([]*types.Item, error)
	// ByTypeAndYear scopes to one item type within one year; only items
	// with a non-empty location string are returned.
	ByTypeAndYear(ctx context.Context, tx *gorm.DB, itemType string, year int, limit int) ([]*types.Item, error)
	// SemanticSearch orders items by cosine distance against the query
	// vector. Items without an embedding never match.
	SemanticSearch(ctx context.Context, tx *gorm.DB, query []float32, limit int) ([]ScoredItem, error)
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ItemRepo")}
}

func (r *itemRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var item types.Item
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Item
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *itemRepo) FilterByTypes(ctx context.Context, tx *gorm.DB, itemTypes []string, limit int) ([]*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Item
	if len(itemTypes) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("item_type IN ?", itemTypes).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *itemRepo) TextMatch(ctx context.Context, tx *gorm.DB, substr string, limit int) ([]*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Item
	pattern := "%" + substr + "%"
	if err := transaction.WithContext(ctx).
		Where("name ILIKE ? OR description ILIKE ?", pattern, pattern).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *itemRepo) ByName(ctx context.Context, tx *gorm.DB, name string) ([]*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Item
	if err := transaction.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *itemRepo) ByTypeAndYear(ctx context.Context, tx *gorm.DB, itemType string, year int, limit int) ([]*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Item
	if err := transaction.WithContext(ctx).
		Where("item_type = ? AND year = ? AND location_string <> ''", itemType, year).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *itemRepo) SemanticSearch(ctx context.Context, tx *gorm.DB, query []float32, limit int) ([]ScoredItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(query) == 0 || limit <= 0 {
		return nil, nil
	}

	type row struct {
		ID    string
		Score float64
	}
	var rows []row
	vec := pgvector.NewVector(query)
	if err := transaction.WithContext(ctx).
		Raw(`SELECT id, 1 - (embedding <=> ?) AS score
		     FROM items
		     WHERE embedding IS NOT NULL
		     ORDER BY embedding <=> ?
		     LIMIT ?`, vec, vec, limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, rw := range rows {
		ids = append(ids, rw.ID)
	}
	items, err := r.GetByIDs(ctx, transaction, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	out := make([]ScoredItem, 0, len(rows))
	for _, rw := range rows {
		it, ok := byID[rw.ID]
		if !ok {
			continue
		}
		score := rw.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out = append(out, ScoredItem{Item: it, Score: score})
	}
	return out, nil
}
