package pollers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/bayerlab/internal/logging"
)

// CleanupPollerName is the manager key for the render cleanup poller
const CleanupPollerName = "render-cleanup"

// ImageCleaner removes rendered files from disk
type ImageCleaner interface {
	DeleteRender(renderID uuid.UUID) (int, error)
	CleanupOldImages(maxAge time.Duration) (int, error)
}

// RecordPruner removes expired render history rows
type RecordPruner interface {
	DeleteOlderThan(cutoff time.Time) ([]uuid.UUID, error)
}

// CleanupPoller expires renders older than the retention window
type CleanupPoller struct {
	*BasePoller
	images    ImageCleaner
	records   RecordPruner
	retention time.Duration
	now       func() time.Time
}

// NewCleanupPoller creates the cleanup poller. records may be nil when no database is configured.
func NewCleanupPoller(images ImageCleaner, records RecordPruner, retention time.Duration, config PollerConfig) *CleanupPoller {
	p := &CleanupPoller{
		images:    images,
		records:   records,
		retention: retention,
		now:       time.Now,
	}
	if retention <= 0 {
		config.Enabled = false
	}
	p.BasePoller = NewBasePoller(config, p.poll)
	return p
}

func (p *CleanupPoller) poll(ctx context.Context) error {
	cutoff := p.now().Add(-p.retention)
	removedFiles := 0

	if p.records != nil {
		ids, err := p.records.DeleteOlderThan(cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune render records: %w", err)
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n, err := p.images.DeleteRender(id)
			if err != nil {
				logging.WarnWithComponent(logging.ComponentCleanup, "Failed to delete render files", "render_id", id, "error", err)
				continue
			}
			removedFiles += n
		}
		if len(ids) > 0 {
			logging.InfoWithComponent(logging.ComponentCleanup, "Pruned render records", "count", len(ids))
		}
	}

	// Files with no surviving record, or written while no database was configured
	n, err := p.images.CleanupOldImages(p.retention)
	if err != nil {
		return fmt.Errorf("failed to clean up rendered images: %w", err)
	}
	removedFiles += n

	if removedFiles > 0 {
		logging.InfoWithComponent(logging.ComponentCleanup, "Removed rendered images", "count", removedFiles)
	}
	return nil
}
