package repository

import (
	"context"

	"fb-video-manager/domain/model"
)

// IScheduledPost is the durable job store for scheduled publishes. All
// methods are safe for concurrent use from the scheduler loop and request
// handlers; conflicting writes are serialized by the database.
type IScheduledPost interface {
	// Create inserts the post as pending with retry_count 0 and
	// store-assigned timestamps, returning the new id.
	Create(ctx context.Context, post *model.ScheduledPost) (int64, error)
	// GetByID returns nil without error when the id does not exist.
	GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error)
	// List returns posts matching all supplied filters, ascending by
	// scheduled_time.
	List(ctx context.Context, filter model.ScheduledPostFilter) ([]*model.ScheduledPost, error)
	// ListDue returns pending posts with scheduled_time <= now, ascending.
	ListDue(ctx context.Context, now int64) ([]*model.ScheduledPost, error)
	// Update applies the non-nil patch fields and stamps updated_at.
	// Returns false when the id does not exist or the patch is empty.
	Update(ctx context.Context, id int64, patch model.ScheduledPostPatch) (bool, error)
	// UpdateStatusIf transitions status only when the stored status still
	// equals expect, reporting whether the write took effect. Used by the
	// scheduler so a terminal write cannot clobber an external cancellation.
	UpdateStatusIf(ctx context.Context, id int64, expect string, patch model.ScheduledPostPatch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// CountByStatus supports the scheduler status summary.
	CountByStatus(ctx context.Context, status string) (int64, error)
	// ReclaimStuckProcessing flips posts stuck in processing for longer
	// than cutoff (epoch seconds on updated_at) back to pending, returning
	// how many were reclaimed.
	ReclaimStuckProcessing(ctx context.Context, cutoff int64) (int64, error)
}
