package usecase

import (
	"context"
	"sort"
	"time"

	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/cache"
	"fb-video-manager/infrastructure/logger"
)

type IUpcomingUsecase interface {
	// Upcoming merges local pending posts with the platform's own scheduled
	// posts, future-only, ascending by scheduled time.
	Upcoming(ctx context.Context) ([]*model.UpcomingItem, error)
	// CancelRemote deletes a platform-side scheduled post.
	CancelRemote(ctx context.Context, remoteID string) error
}

type UpcomingUsecase struct {
	postRepo   repository.IScheduledPost
	analytics  repository.IAnalytics
	publishers repository.IPublisherFactory
	status     *cache.StatusCache
	now        func() int64
}

func NewUpcomingUsecase(
	postRepo repository.IScheduledPost,
	analytics repository.IAnalytics,
	publishers repository.IPublisherFactory,
	status *cache.StatusCache,
) *UpcomingUsecase {
	return &UpcomingUsecase{
		postRepo:   postRepo,
		analytics:  analytics,
		publishers: publishers,
		status:     status,
		now:        func() int64 { return time.Now().Unix() },
	}
}

func (u *UpcomingUsecase) Upcoming(ctx context.Context) ([]*model.UpcomingItem, error) {
	if u.status != nil {
		var cached []*model.UpcomingItem
		if u.status.GetUpcoming(ctx, &cached) {
			return cached, nil
		}
	}

	now := u.now()
	local, err := u.postRepo.List(ctx, model.ScheduledPostFilter{
		Status:    model.PostStatusPending,
		StartTime: now + 1,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*model.UpcomingItem, 0, len(local))
	seenRemote := map[string]struct{}{}
	for _, post := range local {
		id := post.ID
		item := &model.UpcomingItem{
			Source:        model.UpcomingSourceLocal,
			LocalPostID:   &id,
			Title:         post.Title,
			Description:   post.Description,
			ScheduledTime: post.ScheduledTime,
			Status:        post.Status,
		}
		if remoteID := post.RemoteID(); remoteID != "" {
			seenRemote[remoteID] = struct{}{}
		}
		items = append(items, item)
	}

	// Remote fetch is best-effort; the view degrades to local-only
	remote := u.fetchRemote(ctx)
	for _, rp := range remote {
		if rp.ScheduledPublishTime <= now {
			// Zero or past timestamps mean malformed or already-publishing rows
			continue
		}
		if _, dup := seenRemote[rp.ID]; dup {
			continue
		}
		id := rp.ID
		items = append(items, &model.UpcomingItem{
			Source:        model.UpcomingSourceRemote,
			RemotePostID:  &id,
			Title:         rp.Message,
			ScheduledTime: rp.ScheduledPublishTime,
			Thumbnail:     rp.Thumbnail,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ScheduledTime < items[j].ScheduledTime
	})

	if u.status != nil {
		u.status.SetUpcoming(ctx, items, 30*time.Second)
	}
	return items, nil
}

func (u *UpcomingUsecase) fetchRemote(ctx context.Context) []*model.RemoteScheduledPost {
	publisher, err := u.publishers.ForOwner("")
	if err != nil {
		logger.GetLogger().WithField("error", err).Debug("No publisher credentials; upcoming view is local-only")
		return nil
	}
	remote, err := publisher.ListScheduled(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Error listing remote scheduled posts")
		return nil
	}
	return remote
}

func (u *UpcomingUsecase) CancelRemote(ctx context.Context, remoteID string) error {
	publisher, err := u.publishers.ForOwner("")
	if err != nil {
		return err
	}
	if err := publisher.CancelScheduled(ctx, remoteID); err != nil {
		return err
	}
	u.cancelLinkedLocal(ctx, remoteID)
	if u.status != nil {
		u.status.InvalidateUpcoming(ctx)
	}
	return nil
}

// cancelLinkedLocal marks pending posts tracking the cancelled remote video
// as cancelled too. Best-effort; the remote side is already gone.
func (u *UpcomingUsecase) cancelLinkedLocal(ctx context.Context, remoteID string) {
	local, err := u.postRepo.List(ctx, model.ScheduledPostFilter{Status: model.PostStatusPending})
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Error scanning local posts after remote cancel")
		return
	}
	cancelled := model.PostStatusCancelled
	for _, post := range local {
		if post.RemoteID() != remoteID {
			continue
		}
		ok, err := u.postRepo.UpdateStatusIf(ctx, post.ID, model.PostStatusPending,
			model.ScheduledPostPatch{Status: &cancelled})
		if err != nil {
			logger.GetLogger().WithField("post_id", post.ID).WithField("error", err).Warn("Error cancelling linked post")
			continue
		}
		if !ok {
			continue
		}
		u.analytics.LogEvent(ctx, model.EventScheduledPostCancelled, map[string]interface{}{
			"post_id":         post.ID,
			"remote_video_id": remoteID,
		})
	}
}
