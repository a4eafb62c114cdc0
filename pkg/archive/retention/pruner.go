package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fabrica-hq/vulcan/pkg/archive"
)

// Config controls pruning behavior.
type Config struct {
	// RetentionDays is how long records are kept. Zero disables pruning.
	RetentionDays int

	// PruneSchedule is a cron expression for automatic runs. Empty
	// disables the scheduler.
	PruneSchedule string
}

// Pruner removes archive records older than the retention window.
type Pruner struct {
	store  archive.Store
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// NewPruner creates a pruner over the given store.
func NewPruner(store archive.Store, config Config) *Pruner {
	return &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "archive.retention"),
		now:    time.Now,
	}
}

// Prune deletes records past the retention window and returns the count.
// With RetentionDays zero it is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning archive: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned archived reviews",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return deleted, nil
}
