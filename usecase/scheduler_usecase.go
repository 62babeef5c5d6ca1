package usecase

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"fb-video-manager/domain/dto"
	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/cache"
	"fb-video-manager/infrastructure/configuration"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/infrastructure/pubsub"
	"fb-video-manager/infrastructure/realtime"
	"fb-video-manager/infrastructure/servicebus"
)

const nextPostsLimit = 5

// publishTimeout bounds a single upload attempt. It must stay above the
// Graph client's own transport timeout so a slow transfer is decided by
// the remote side, not cut off here.
const publishTimeout = 10 * time.Minute

// ISchedulerUsecase drives the background publish loop.
type ISchedulerUsecase interface {
	Start()
	Stop()
	Running() bool
	Status(ctx context.Context) (*dto.SchedulerStatus, error)
	// ProcessDuePosts runs one tick: reclaim stuck work, then publish
	// every due pending post. Exposed for manual triggering.
	ProcessDuePosts(ctx context.Context) error
}

type SchedulerUsecase struct {
	postRepo   repository.IScheduledPost
	fileRepo   repository.IDownloadedFile
	analytics  repository.IAnalytics
	publishers repository.IPublisherFactory
	notifier   servicebus.ITransitionNotifier
	events     pubsub.IEventPubSub
	eventTopic string
	hub        *realtime.Hub
	status     *cache.StatusCache

	checkInterval     time.Duration
	processingTimeout time.Duration
	now               func() int64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSchedulerUsecase(
	postRepo repository.IScheduledPost,
	fileRepo repository.IDownloadedFile,
	analytics repository.IAnalytics,
	publishers repository.IPublisherFactory,
	notifier servicebus.ITransitionNotifier,
	events pubsub.IEventPubSub,
	eventTopic string,
	hub *realtime.Hub,
	status *cache.StatusCache,
	cfg configuration.Scheduler,
) *SchedulerUsecase {
	return &SchedulerUsecase{
		postRepo:          postRepo,
		fileRepo:          fileRepo,
		analytics:         analytics,
		publishers:        publishers,
		notifier:          notifier,
		events:            events,
		eventTopic:        eventTopic,
		hub:               hub,
		status:            status,
		checkInterval:     time.Duration(cfg.CheckIntervalSeconds) * time.Second,
		processingTimeout: time.Duration(cfg.ProcessingTimeoutMin) * time.Minute,
		now:               func() int64 { return time.Now().Unix() },
	}
}

// Start launches the loop goroutine. Calling Start on a running scheduler
// logs and returns.
func (u *SchedulerUsecase) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.running {
		logger.GetLogger().Warn("Scheduler already running")
		return
	}
	u.running = true
	u.stop = make(chan struct{})
	u.done = make(chan struct{})
	go u.loop(u.stop, u.done)
	logger.GetLogger().WithField("interval", u.checkInterval.String()).Info("Post scheduler started")
}

// Stop signals the loop and waits for the in-flight tick to finish.
func (u *SchedulerUsecase) Stop() {
	u.mu.Lock()
	if !u.running {
		u.mu.Unlock()
		return
	}
	u.running = false
	stop, done := u.stop, u.done
	u.mu.Unlock()

	close(stop)
	<-done
	logger.GetLogger().Info("Post scheduler stopped")
}

func (u *SchedulerUsecase) Running() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.running
}

func (u *SchedulerUsecase) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(u.checkInterval)
	defer ticker.Stop()

	// First scan immediately rather than one interval in
	u.tick()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			u.tick()
		}
	}
}

func (u *SchedulerUsecase) tick() {
	// No deadline on the tick itself: an upload that outlives the interval
	// delays the rest of the batch instead of being aborted mid-transfer.
	// Work that genuinely hangs is picked up by the reclaim sweep.
	if err := u.ProcessDuePosts(context.Background()); err != nil {
		logger.GetLogger().WithField("error", err).Error("Scheduler tick failed")
	}
}

func (u *SchedulerUsecase) ProcessDuePosts(ctx context.Context) error {
	now := u.now()

	cutoff := now - int64(u.processingTimeout/time.Second)
	if reclaimed, err := u.postRepo.ReclaimStuckProcessing(ctx, cutoff); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error reclaiming stuck posts")
	} else if reclaimed > 0 {
		logger.GetLogger().WithField("count", reclaimed).Warn("Reclaimed posts stuck in processing")
	}

	due, err := u.postRepo.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("scanning due posts: %w", err)
	}
	for _, post := range due {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		u.publishScheduledPost(ctx, post)
	}
	return nil
}

// publishScheduledPost moves one due post through the state machine. Every
// failure path lands the post back in pending or in a terminal state; a
// post is never left in processing by this function.
func (u *SchedulerUsecase) publishScheduledPost(ctx context.Context, post *model.ScheduledPost) {
	lg := logger.GetLogger().WithField("post_id", post.ID)

	processing := model.PostStatusProcessing
	claimed, err := u.postRepo.UpdateStatusIf(ctx, post.ID, model.PostStatusPending,
		model.ScheduledPostPatch{Status: &processing})
	if err != nil {
		lg.WithField("error", err).Error("Error claiming post")
		return
	}
	if !claimed {
		// Another worker took it, or it was cancelled between scan and claim
		return
	}

	owner := ""
	if post.OwnerID != nil {
		owner = *post.OwnerID
	}
	publisher, err := u.publishers.ForOwner(owner)
	if err != nil {
		// Configuration errors are terminal and do not consume a retry
		u.failTerminal(ctx, post, "Missing Facebook credentials", post.RetryCount)
		return
	}

	if _, err := os.Stat(post.VideoFilePath); err != nil {
		u.failTerminal(ctx, post, fmt.Sprintf("Video file not found: %s", post.VideoFilePath), post.RetryCount)
		return
	}

	pubCtx, cancelPub := context.WithTimeout(ctx, publishTimeout)
	result, err := publisher.Publish(pubCtx, post.VideoFilePath, post.Title, post.Description, 0)
	cancelPub()
	if err != nil {
		u.handlePublishFailure(ctx, post, err)
		return
	}

	published := model.PostStatusPublished
	patch := model.ScheduledPostPatch{
		Status:        &published,
		RemoteVideoID: &result.VideoID,
		RemoteURL:     &result.URL,
	}
	ok, err := u.postRepo.UpdateStatusIf(ctx, post.ID, model.PostStatusProcessing, patch)
	if err != nil {
		lg.WithField("error", err).Error("Error recording publish")
		return
	}
	if !ok {
		// Cancelled while uploading; the video is live but the local row
		// keeps its cancelled state
		lg.Warn("Post left processing before publish write; skipping terminal write")
		return
	}

	if _, err := u.fileRepo.UpdateUploadStatus(ctx, post.VideoFilePath,
		model.UploadStatusUploaded, &result.VideoID, &result.URL); err != nil {
		lg.WithField("error", err).Warn("Error stamping file upload status")
	}

	post.Status = model.PostStatusPublished
	post.RemoteVideoID = &result.VideoID
	post.RemoteURL = &result.URL
	u.afterTransition(ctx, post, model.EventScheduledPostPublished, map[string]interface{}{
		"post_id":  post.ID,
		"video_id": result.VideoID,
		"title":    post.Title,
	})
	lg.WithField("video_id", result.VideoID).Info("Successfully published scheduled post")
}

// handlePublishFailure retries transient upload failures until the budget is
// spent, then fails the post.
func (u *SchedulerUsecase) handlePublishFailure(ctx context.Context, post *model.ScheduledPost, pubErr error) {
	lg := logger.GetLogger().WithField("post_id", post.ID)
	retry := post.RetryCount + 1

	if retry >= model.MaxPublishRetries {
		msg := pubErr.Error()
		if !u.failWith(ctx, post, msg, retry) {
			// Cancelled mid-flight; nothing transitioned, so no event
			return
		}
		lg.WithField("retry_count", retry).WithField("error", msg).Error("Post failed after max attempts")
	} else {
		pending := model.PostStatusPending
		msg := fmt.Sprintf("Attempt %d: %v", retry, pubErr)
		ok, err := u.postRepo.UpdateStatusIf(ctx, post.ID, model.PostStatusProcessing,
			model.ScheduledPostPatch{Status: &pending, ErrorMessage: &msg, RetryCount: &retry})
		if err != nil {
			lg.WithField("error", err).Error("Error requeueing post")
			return
		}
		if !ok {
			return
		}
		post.Status = model.PostStatusPending
		post.RetryCount = retry
		post.ErrorMessage = &msg
		u.hubBroadcast(post)
		lg.WithField("retry_count", retry).WithField("error", pubErr.Error()).Warn("Post failed, will retry")
	}

	u.analytics.LogEvent(ctx, model.EventScheduledPostFailed, map[string]interface{}{
		"post_id":     post.ID,
		"error":       pubErr.Error(),
		"retry_count": retry,
	})
	u.publishEvent(ctx, model.EventScheduledPostFailed, map[string]interface{}{
		"post_id": post.ID,
	})
}

// failTerminal fails a post without consuming retry budget (configuration
// and precondition errors).
func (u *SchedulerUsecase) failTerminal(ctx context.Context, post *model.ScheduledPost, msg string, retryCount int) {
	logger.GetLogger().WithField("post_id", post.ID).WithField("error", msg).Error("Post failed terminally")
	if !u.failWith(ctx, post, msg, retryCount) {
		return
	}
	u.analytics.LogEvent(ctx, model.EventScheduledPostFailed, map[string]interface{}{
		"post_id": post.ID,
		"error":   msg,
	})
}

// failWith reports whether the conditional write took effect; a false return
// means the post left processing by another path and must not emit events.
func (u *SchedulerUsecase) failWith(ctx context.Context, post *model.ScheduledPost, msg string, retryCount int) bool {
	failed := model.PostStatusFailed
	ok, err := u.postRepo.UpdateStatusIf(ctx, post.ID, model.PostStatusProcessing,
		model.ScheduledPostPatch{Status: &failed, ErrorMessage: &msg, RetryCount: &retryCount})
	if err != nil {
		logger.GetLogger().WithField("post_id", post.ID).WithField("error", err).Error("Error failing post")
		return false
	}
	if !ok {
		return false
	}
	post.Status = model.PostStatusFailed
	post.ErrorMessage = &msg
	post.RetryCount = retryCount
	u.notifyTransition(ctx, post)
	u.hubBroadcast(post)
	u.invalidateUpcoming(ctx)
	return true
}

// afterTransition fans a terminal transition out to every optional sink.
func (u *SchedulerUsecase) afterTransition(ctx context.Context, post *model.ScheduledPost, eventType string, eventData map[string]interface{}) {
	u.analytics.LogEvent(ctx, eventType, eventData)
	u.publishEvent(ctx, eventType, eventData)
	u.notifyTransition(ctx, post)
	u.hubBroadcast(post)
	u.invalidateUpcoming(ctx)
}

func (u *SchedulerUsecase) publishEvent(ctx context.Context, eventType string, eventData map[string]interface{}) {
	if u.events == nil {
		return
	}
	if _, err := u.events.PublishEvent(ctx, u.eventTopic, eventType, eventData); err != nil {
		logger.GetLogger().WithField("event_type", eventType).WithField("error", err).Warn("Error publishing event")
	}
}

func (u *SchedulerUsecase) notifyTransition(ctx context.Context, post *model.ScheduledPost) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.NotifyTransition(ctx, post); err != nil {
		logger.GetLogger().WithField("post_id", post.ID).WithField("error", err).Warn("Error notifying transition")
	}
}

func (u *SchedulerUsecase) hubBroadcast(post *model.ScheduledPost) {
	if u.hub != nil {
		u.hub.BroadcastPostStatus(post)
	}
}

func (u *SchedulerUsecase) invalidateUpcoming(ctx context.Context) {
	if u.status != nil {
		u.status.InvalidateUpcoming(ctx)
	}
}

// Status reports the loop state with counts and the next pending posts. The
// payload is cached briefly; the cache is read-through only.
func (u *SchedulerUsecase) Status(ctx context.Context) (*dto.SchedulerStatus, error) {
	if u.status != nil {
		var cached dto.SchedulerStatus
		if u.status.GetStatus(ctx, &cached) && cached.Running == u.Running() {
			return &cached, nil
		}
	}

	pending, err := u.postRepo.CountByStatus(ctx, model.PostStatusPending)
	if err != nil {
		return nil, err
	}
	processing, err := u.postRepo.CountByStatus(ctx, model.PostStatusProcessing)
	if err != nil {
		return nil, err
	}
	next, err := u.nextScheduledPosts(ctx, nextPostsLimit)
	if err != nil {
		return nil, err
	}

	result := &dto.SchedulerStatus{
		Running:              u.Running(),
		CheckIntervalSeconds: int(u.checkInterval / time.Second),
		PendingCount:         pending,
		ProcessingCount:      processing,
		NextPosts:            next,
	}
	if u.status != nil {
		u.status.SetStatus(ctx, result, 10*time.Second)
	}
	return result, nil
}

// nextScheduledPosts returns pending posts strictly in the future, soonest
// first.
func (u *SchedulerUsecase) nextScheduledPosts(ctx context.Context, limit int) ([]*model.ScheduledPost, error) {
	posts, err := u.postRepo.List(ctx, model.ScheduledPostFilter{
		Status:    model.PostStatusPending,
		StartTime: u.now() + 1,
	})
	if err != nil {
		return nil, err
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	if posts == nil {
		posts = []*model.ScheduledPost{}
	}
	return posts, nil
}
