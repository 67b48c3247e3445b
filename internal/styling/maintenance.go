package styling

import (
	"context"

	"gorm.io/gorm"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/repos"
)

// BuildEnqueuer hands a capsule build to the background job
// infrastructure. Delivery is at-least-once; builds are idempotent
// writes to the identity key, so duplicates are harmless.
type BuildEnqueuer interface {
	EnqueueCapsuleBuild(ctx context.Context, req BuildRequest) error
}

// Maintenance drives the periodic capsule upkeep: re-enqueueing builds
// for capsules nearing expiry, and sweeping expired rows in bounded
// batches.
type Maintenance struct {
	log      *logger.Logger
	db       *gorm.DB
	capsules repos.StyleCapsuleRepo
	enqueue  BuildEnqueuer
	cfg      Config
}

func NewMaintenance(db *gorm.DB, capsules repos.StyleCapsuleRepo, enqueue BuildEnqueuer, cfg Config, baseLog *logger.Logger) *Maintenance {
	return &Maintenance{
		log:      baseLog.With("service", "CapsuleMaintenance"),
		db:       db,
		capsules: capsules,
		enqueue:  enqueue,
		cfg:      cfg,
	}
}

// RefreshScan enqueues a rebuild for every capsule expiring within the
// refresh window. Returns how many builds were enqueued.
func (m *Maintenance) RefreshScan(ctx context.Context) (int, error) {
	if m.enqueue == nil {
		return 0, nil
	}
	due, err := m.capsules.DueForRefresh(ctx, m.db, m.cfg.RefreshWindow, 100)
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, capsule := range due {
		req := BuildRequest{
			Persona:     capsule.PersonaID,
			Era:         capsule.Era,
			RightsScope: capsule.RightsScope,
		}
		if err := m.enqueue.EnqueueCapsuleBuild(ctx, req); err != nil {
			m.log.Warn("refresh enqueue failed", "persona", capsule.PersonaID, "error", err)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		m.log.Info("capsule refresh scan enqueued rebuilds", "count", enqueued)
	}
	return enqueued, nil
}

// CleanupExpired deletes expired capsules batch by batch until a short
// batch signals the backlog is drained.
func (m *Maintenance) CleanupExpired(ctx context.Context) (int64, error) {
	var total int64
	for {
		n, err := m.capsules.DeleteExpiredBatch(ctx, m.db, m.cfg.CleanupBatchSize)
		if err != nil {
			return total, err
		}
		total += n
		if n < int64(m.cfg.CleanupBatchSize) {
			break
		}
	}
	if total > 0 {
		m.log.Info("expired capsules removed", "count", total)
	}
	return total, nil
}
