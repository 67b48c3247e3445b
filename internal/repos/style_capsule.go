package repos

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/types"
)

type StyleCapsuleRepo interface {
	// FindValid returns the non-expired capsule for the key, or nil.
	FindValid(ctx context.Context, tx *gorm.DB, key types.CapsuleKey) (*types.StyleCapsule, error)
	// Upsert writes the capsule for its identity key. Rebuilds replace the
	// previous row wholesale; the last writer wins.
	Upsert(ctx context.Context, tx *gorm.DB, capsule *types.StyleCapsule) error
	// DueForRefresh lists capsules expiring within the window, soonest first.
	DueForRefresh(ctx context.Context, tx *gorm.DB, window time.Duration, limit int) ([]*types.StyleCapsule, error)
	// DeleteExpiredBatch removes up to batchSize expired rows and reports
	// how many went. Bounded so the sweep never holds a long transaction.
	DeleteExpiredBatch(ctx context.Context, tx *gorm.DB, batchSize int) (int64, error)
}

type styleCapsuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStyleCapsuleRepo(db *gorm.DB, baseLog *logger.Logger) StyleCapsuleRepo {
	return &styleCapsuleRepo{db: db, log: baseLog.With("repo", "StyleCapsuleRepo")}
}

func (r *styleCapsuleRepo) FindValid(ctx context.Context, tx *gorm.DB, key types.CapsuleKey) (*types.StyleCapsule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var capsule types.StyleCapsule
	err := transaction.WithContext(ctx).
		Where(`persona_id = ? AND era = ? AND rights_scope = ?
		       AND graph_version = ? AND lexicon_version = ?
		       AND expires_at > ?`,
			key.PersonaID, key.Era, key.RightsScope,
			key.GraphVersion, key.LexiconVersion, time.Now().UTC()).
		First(&capsule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &capsule, nil
}

func (r *styleCapsuleRepo) Upsert(ctx context.Context, tx *gorm.DB, capsule *types.StyleCapsule) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if capsule == nil {
		return fmt.Errorf("nil capsule")
	}
	if capsule.Confidence < 0 || capsule.Confidence > 1 {
		return fmt.Errorf("capsule confidence %.2f out of range", capsule.Confidence)
	}
	if !capsule.ExpiresAt.After(time.Now().UTC()) {
		return fmt.Errorf("capsule expires_at not in the future")
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "persona_id"},
				{Name: "era"},
				{Name: "rights_scope"},
				{Name: "graph_version"},
				{Name: "lexicon_version"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"persona_label", "capsule_json", "confidence",
				"sources_json", "expires_at", "created_at",
			}),
		}).
		Create(capsule).Error
}

func (r *styleCapsuleRepo) DueForRefresh(ctx context.Context, tx *gorm.DB, window time.Duration, limit int) ([]*types.StyleCapsule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now().UTC()
	var results []*types.StyleCapsule
	if err := transaction.WithContext(ctx).
		Where("expires_at > ? AND expires_at <= ?", now, now.Add(window)).
		Order("expires_at ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *styleCapsuleRepo) DeleteExpiredBatch(ctx context.Context, tx *gorm.DB, batchSize int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	res := transaction.WithContext(ctx).Exec(
		`DELETE FROM style_capsules
		 WHERE id IN (
		   SELECT id FROM style_capsules
		   WHERE expires_at < ?
		   LIMIT ?
		 )`, time.Now().UTC(), batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
