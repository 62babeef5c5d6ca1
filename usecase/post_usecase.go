package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"fb-video-manager/domain/dto"
	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/cache"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/infrastructure/realtime"
)

var (
	ErrPostNotFound     = errors.New("scheduled post not found")
	ErrPastSchedule     = errors.New("scheduled time must be in the future")
	ErrEmptyPatch       = errors.New("no updatable fields in request")
	ErrNotCancellable   = errors.New("only pending or processing posts can be cancelled")
	ErrVideoFileMissing = errors.New("video file not found")
)

type IPostUsecase interface {
	Create(ctx context.Context, req *dto.CreatePostRequest) (*model.ScheduledPost, error)
	Get(ctx context.Context, id int64) (*model.ScheduledPost, error)
	List(ctx context.Context, filter model.ScheduledPostFilter) ([]*model.ScheduledPost, error)
	Patch(ctx context.Context, id int64, req *dto.PatchPostRequest) (*model.ScheduledPost, error)
	Delete(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64) (*model.ScheduledPost, error)
	PublishNow(ctx context.Context, req *dto.PublishNowRequest) (*repository.PublishResult, error)
}

type PostUsecase struct {
	postRepo   repository.IScheduledPost
	fileRepo   repository.IDownloadedFile
	analytics  repository.IAnalytics
	publishers repository.IPublisherFactory
	hub        *realtime.Hub
	status     *cache.StatusCache
	now        func() int64
}

func NewPostUsecase(
	postRepo repository.IScheduledPost,
	fileRepo repository.IDownloadedFile,
	analytics repository.IAnalytics,
	publishers repository.IPublisherFactory,
	hub *realtime.Hub,
	status *cache.StatusCache,
) *PostUsecase {
	return &PostUsecase{
		postRepo:   postRepo,
		fileRepo:   fileRepo,
		analytics:  analytics,
		publishers: publishers,
		hub:        hub,
		status:     status,
		now:        func() int64 { return time.Now().Unix() },
	}
}

func (u *PostUsecase) Create(ctx context.Context, req *dto.CreatePostRequest) (*model.ScheduledPost, error) {
	if req.ScheduledTime <= u.now() {
		return nil, ErrPastSchedule
	}
	if _, err := os.Stat(req.VideoFilePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoFileMissing, req.VideoFilePath)
	}

	post := &model.ScheduledPost{
		VideoFilePath: req.VideoFilePath,
		Title:         req.Title,
		Description:   req.Description,
		ScheduledTime: req.ScheduledTime,
		Metadata:      req.Metadata,
	}
	if req.UserID != "" {
		owner := req.UserID
		post.OwnerID = &owner
	}

	id, err := u.postRepo.Create(ctx, post)
	if err != nil {
		return nil, err
	}

	u.analytics.LogEvent(ctx, model.EventScheduledPostCreated, map[string]interface{}{
		"post_id":        id,
		"title":          req.Title,
		"scheduled_time": req.ScheduledTime,
	})
	u.invalidateUpcoming(ctx)

	return u.mustGet(ctx, id)
}

func (u *PostUsecase) Get(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	post, err := u.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (u *PostUsecase) List(ctx context.Context, filter model.ScheduledPostFilter) ([]*model.ScheduledPost, error) {
	posts, err := u.postRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*model.ScheduledPost{}
	}
	return posts, nil
}

// Patch applies the enumerated caller-updatable fields. Status, retry count
// and remote identity are scheduler-owned and not patchable here.
func (u *PostUsecase) Patch(ctx context.Context, id int64, req *dto.PatchPostRequest) (*model.ScheduledPost, error) {
	patch := model.ScheduledPostPatch{
		Title:         req.Title,
		Description:   req.Description,
		ScheduledTime: req.ScheduledTime,
		OwnerID:       req.UserID,
		Metadata:      req.Metadata,
	}
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if req.ScheduledTime != nil && *req.ScheduledTime <= u.now() {
		return nil, ErrPastSchedule
	}

	ok, err := u.postRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPostNotFound
	}
	u.invalidateUpcoming(ctx)
	return u.mustGet(ctx, id)
}

func (u *PostUsecase) Delete(ctx context.Context, id int64) error {
	ok, err := u.postRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPostNotFound
	}
	u.invalidateUpcoming(ctx)
	return nil
}

// Cancel moves a pending or processing post to cancelled. The conditional
// write means a concurrent publish wins the race cleanly: the cancel is
// refused rather than clobbering a published row.
func (u *PostUsecase) Cancel(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	post, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cancelled := model.PostStatusCancelled
	patch := model.ScheduledPostPatch{Status: &cancelled}
	ok, err := u.postRepo.UpdateStatusIf(ctx, id, model.PostStatusPending, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		ok, err = u.postRepo.UpdateStatusIf(ctx, id, model.PostStatusProcessing, patch)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, ErrNotCancellable
	}

	u.analytics.LogEvent(ctx, model.EventScheduledPostCancelled, map[string]interface{}{
		"post_id": id,
		"title":   post.Title,
	})
	u.invalidateUpcoming(ctx)

	result, err := u.mustGet(ctx, id)
	if err == nil && u.hub != nil {
		u.hub.BroadcastPostStatus(result)
	}
	return result, err
}

// PublishNow uploads immediately, or hands the schedule to the platform when
// ScheduledTime is set. Remote scheduling happens only here, never in the
// retry loop.
func (u *PostUsecase) PublishNow(ctx context.Context, req *dto.PublishNowRequest) (*repository.PublishResult, error) {
	if _, err := os.Stat(req.VideoFilePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoFileMissing, req.VideoFilePath)
	}
	if req.ScheduledTime != 0 && req.ScheduledTime <= u.now() {
		return nil, ErrPastSchedule
	}

	publisher, err := u.publishers.ForOwner(req.UserID)
	if err != nil {
		return nil, err
	}
	result, err := publisher.Publish(ctx, req.VideoFilePath, req.Title, req.Description, req.ScheduledTime)
	if err != nil {
		return nil, err
	}

	if _, err := u.fileRepo.UpdateUploadStatus(ctx, req.VideoFilePath,
		model.UploadStatusUploaded, &result.VideoID, &result.URL); err != nil {
		logger.GetLogger().WithField("file", req.VideoFilePath).WithField("error", err).Warn("Error stamping file upload status")
	}
	u.analytics.LogEvent(ctx, model.EventVideoUploaded, map[string]interface{}{
		"file_path": req.VideoFilePath,
		"video_id":  result.VideoID,
		"scheduled": req.ScheduledTime != 0,
	})
	u.invalidateUpcoming(ctx)
	return result, nil
}

func (u *PostUsecase) mustGet(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	post, err := u.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (u *PostUsecase) invalidateUpcoming(ctx context.Context) {
	if u.status != nil {
		u.status.InvalidateUpcoming(ctx)
	}
}
