package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/configuration"
	"fb-video-manager/usecase"
)

func schedulerConfig() configuration.Scheduler {
	return configuration.Scheduler{CheckIntervalSeconds: 60, ProcessingTimeoutMin: 15}
}

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte("mp4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func duePost(id int64, videoPath string, retryCount int) *model.ScheduledPost {
	return &model.ScheduledPost{
		ID:            id,
		VideoFilePath: videoPath,
		Title:         "Sunday Service",
		Description:   "Live recording",
		ScheduledTime: time.Now().Unix() - 60,
		Status:        model.PostStatusPending,
		RetryCount:    retryCount,
	}
}

func TestSchedulerUsecase_ProcessDuePosts_PublishesDuePost(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockPublisher := new(MockPublisher)
	mockFactory := new(MockPublisherFactory)

	videoPath := writeTempVideo(t)
	post := duePost(1, videoPath, 0)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(1), model.PostStatusPending,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusProcessing
		})).
		Return(true, nil).
		Once()
	mockFactory.On("ForOwner", "").
		Return(mockPublisher, nil).
		Once()
	// A due post always publishes immediately; remote hold times are only
	// sent when the post is created directly on the platform.
	mockPublisher.On("Publish", mock.Anything, videoPath, "Sunday Service", "Live recording", int64(0)).
		Return(&repository.PublishResult{VideoID: "987", URL: "https://www.facebook.com/page/videos/987"}, nil).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(1), model.PostStatusProcessing,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusPublished &&
				patch.RemoteVideoID != nil && *patch.RemoteVideoID == "987"
		})).
		Return(true, nil).
		Once()
	mockFileRepo.On("UpdateUploadStatus", mock.Anything, videoPath, model.UploadStatusUploaded, mock.Anything, mock.Anything).
		Return(true, nil).
		Once()
	mockAnalytics.On("LogEvent", mock.Anything, model.EventScheduledPostPublished, mock.Anything).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockPostRepo.AssertExpectations(t)
	mockFileRepo.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
	mockFactory.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_TransientFailureRequeues(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockPublisher := new(MockPublisher)
	mockFactory := new(MockPublisherFactory)

	videoPath := writeTempVideo(t)
	post := duePost(7, videoPath, 0)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(7), model.PostStatusPending, mock.Anything).
		Return(true, nil).
		Once()
	mockFactory.On("ForOwner", "").
		Return(mockPublisher, nil).
		Once()
	mockPublisher.On("Publish", mock.Anything, videoPath, mock.Anything, mock.Anything, int64(0)).
		Return(nil, errors.New("connection reset")).
		Once()
	// First failure goes back to pending with the attempt recorded
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(7), model.PostStatusProcessing,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusPending &&
				patch.RetryCount != nil && *patch.RetryCount == 1 &&
				patch.ErrorMessage != nil && *patch.ErrorMessage == "Attempt 1: connection reset"
		})).
		Return(true, nil).
		Once()
	mockAnalytics.On("LogEvent", mock.Anything, model.EventScheduledPostFailed, mock.Anything).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockPostRepo.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_ExhaustedRetriesFailPost(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockPublisher := new(MockPublisher)
	mockFactory := new(MockPublisherFactory)

	videoPath := writeTempVideo(t)
	post := duePost(8, videoPath, model.MaxPublishRetries-1)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(8), model.PostStatusPending, mock.Anything).
		Return(true, nil).
		Once()
	mockFactory.On("ForOwner", "").
		Return(mockPublisher, nil).
		Once()
	mockPublisher.On("Publish", mock.Anything, videoPath, mock.Anything, mock.Anything, int64(0)).
		Return(nil, errors.New("connection reset")).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(8), model.PostStatusProcessing,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusFailed &&
				patch.RetryCount != nil && *patch.RetryCount == model.MaxPublishRetries
		})).
		Return(true, nil).
		Once()
	mockAnalytics.On("LogEvent", mock.Anything, model.EventScheduledPostFailed, mock.Anything).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockPostRepo.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_MissingFileFailsWithoutRetry(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockPublisher := new(MockPublisher)
	mockFactory := new(MockPublisherFactory)

	post := duePost(9, "/nonexistent/video.mp4", 1)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(9), model.PostStatusPending, mock.Anything).
		Return(true, nil).
		Once()
	mockFactory.On("ForOwner", "").
		Return(mockPublisher, nil).
		Once()
	// A missing file is not transient; the post fails and keeps its
	// retry count
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(9), model.PostStatusProcessing,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusFailed &&
				patch.RetryCount != nil && *patch.RetryCount == 1 &&
				patch.ErrorMessage != nil && *patch.ErrorMessage == "Video file not found: /nonexistent/video.mp4"
		})).
		Return(true, nil).
		Once()
	mockAnalytics.On("LogEvent", mock.Anything, model.EventScheduledPostFailed, mock.Anything).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockPostRepo.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_MissingCredentialsFailsWithoutRetry(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockFactory := new(MockPublisherFactory)

	videoPath := writeTempVideo(t)
	owner := "owner-42"
	post := duePost(10, videoPath, 0)
	post.OwnerID = &owner

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(10), model.PostStatusPending, mock.Anything).
		Return(true, nil).
		Once()
	mockFactory.On("ForOwner", "owner-42").
		Return(nil, errors.New("facebook credentials are not configured")).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(10), model.PostStatusProcessing,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusFailed &&
				patch.RetryCount != nil && *patch.RetryCount == 0 &&
				patch.ErrorMessage != nil && *patch.ErrorMessage == "Missing Facebook credentials"
		})).
		Return(true, nil).
		Once()
	mockAnalytics.On("LogEvent", mock.Anything, model.EventScheduledPostFailed, mock.Anything).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockPostRepo.AssertExpectations(t)
	mockFactory.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_LostClaimSkipsPost(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockFactory := new(MockPublisherFactory)

	videoPath := writeTempVideo(t)
	post := duePost(11, videoPath, 0)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	// Another worker won the claim
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(11), model.PostStatusPending, mock.Anything).
		Return(false, nil).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockFactory.AssertNotCalled(t, "ForOwner", mock.Anything)
	mockPostRepo.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_ReclaimCutoff(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockFactory := new(MockPublisherFactory)

	before := time.Now().Unix()
	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.MatchedBy(func(cutoff int64) bool {
		// 15-minute timeout measured from the tick's clock
		return cutoff >= before-901 && cutoff <= time.Now().Unix()-899
	})).
		Return(int64(2), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{}, nil).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockPostRepo.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_ListError(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockFactory := new(MockPublisherFactory)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return(nil, assert.AnError).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.Error(t, err)
	mockPostRepo.AssertExpectations(t)
}

func TestSchedulerUsecase_SlowPublishOutlivesTickInterval(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockPublisher := new(MockPublisher)
	mockFactory := new(MockPublisherFactory)

	videoPath := writeTempVideo(t)
	post := duePost(12, videoPath, 0)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil)
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{}, nil)
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(12), model.PostStatusPending, mock.Anything).
		Return(true, nil).
		Once()
	mockFactory.On("ForOwner", "").
		Return(mockPublisher, nil).
		Once()

	// An upload twice the tick interval must run to completion, not be
	// cut off at the next tick and burn a retry
	var publishCtxErr error
	mockPublisher.On("Publish", mock.Anything, videoPath, mock.Anything, mock.Anything, int64(0)).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			timer := time.NewTimer(2 * time.Second)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				publishCtxErr = ctx.Err()
			case <-timer.C:
			}
		}).
		Return(&repository.PublishResult{VideoID: "987", URL: "https://www.facebook.com/page/videos/987"}, nil).
		Once()

	published := make(chan struct{})
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(12), model.PostStatusProcessing,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusPublished
		})).
		Run(func(mock.Arguments) { close(published) }).
		Return(true, nil).
		Once()
	mockFileRepo.On("UpdateUploadStatus", mock.Anything, videoPath, model.UploadStatusUploaded, mock.Anything, mock.Anything).
		Return(true, nil).
		Once()
	mockAnalytics.On("LogEvent", mock.Anything, model.EventScheduledPostPublished, mock.Anything).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, configuration.Scheduler{CheckIntervalSeconds: 1, ProcessingTimeoutMin: 15})

	scheduler.Start()
	defer scheduler.Stop()

	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("slow publish never completed")
	}
	scheduler.Stop()

	assert.NoError(t, publishCtxErr)
	mockPostRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
	mockAnalytics.AssertExpectations(t)
}

func TestSchedulerUsecase_ProcessDuePosts_CancelledDuringFinalAttempt(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockPublisher := new(MockPublisher)
	mockFactory := new(MockPublisherFactory)

	videoPath := writeTempVideo(t)
	post := duePost(13, videoPath, model.MaxPublishRetries-1)

	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil).
		Once()
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{post}, nil).
		Once()
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(13), model.PostStatusPending, mock.Anything).
		Return(true, nil).
		Once()
	mockFactory.On("ForOwner", "").
		Return(mockPublisher, nil).
		Once()
	mockPublisher.On("Publish", mock.Anything, videoPath, mock.Anything, mock.Anything, int64(0)).
		Return(nil, errors.New("connection reset")).
		Once()
	// The post was cancelled while uploading, so the failed write loses
	// its claim and no failure event may be recorded
	mockPostRepo.On("UpdateStatusIf", mock.Anything, int64(13), model.PostStatusProcessing,
		mock.MatchedBy(func(patch model.ScheduledPostPatch) bool {
			return patch.Status != nil && *patch.Status == model.PostStatusFailed
		})).
		Return(false, nil).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	err := scheduler.ProcessDuePosts(context.Background())

	assert.NoError(t, err)
	mockAnalytics.AssertNotCalled(t, "LogEvent", mock.Anything, mock.Anything, mock.Anything)
	mockPostRepo.AssertExpectations(t)
}

func TestSchedulerUsecase_StartStop(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockFactory := new(MockPublisherFactory)

	// The loop scans immediately on start
	mockPostRepo.On("ReclaimStuckProcessing", mock.Anything, mock.Anything).
		Return(int64(0), nil)
	mockPostRepo.On("ListDue", mock.Anything, mock.Anything).
		Return([]*model.ScheduledPost{}, nil)

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	assert.False(t, scheduler.Running())
	scheduler.Start()
	assert.True(t, scheduler.Running())
	scheduler.Start() // idempotent
	scheduler.Stop()
	assert.False(t, scheduler.Running())
	scheduler.Stop() // idempotent

	mockPostRepo.AssertCalled(t, "ListDue", mock.Anything, mock.Anything)
}

func TestSchedulerUsecase_Status(t *testing.T) {
	mockPostRepo := new(MockScheduledPostRepository)
	mockFileRepo := new(MockDownloadedFileRepository)
	mockAnalytics := new(MockAnalytics)
	mockFactory := new(MockPublisherFactory)

	next := &model.ScheduledPost{ID: 3, Status: model.PostStatusPending, ScheduledTime: time.Now().Unix() + 3600}

	mockPostRepo.On("CountByStatus", mock.Anything, model.PostStatusPending).
		Return(int64(4), nil).
		Once()
	mockPostRepo.On("CountByStatus", mock.Anything, model.PostStatusProcessing).
		Return(int64(1), nil).
		Once()
	mockPostRepo.On("List", mock.Anything, mock.MatchedBy(func(filter model.ScheduledPostFilter) bool {
		return filter.Status == model.PostStatusPending && filter.StartTime > time.Now().Unix()-5
	})).
		Return([]*model.ScheduledPost{next}, nil).
		Once()

	scheduler := usecase.NewSchedulerUsecase(mockPostRepo, mockFileRepo, mockAnalytics, mockFactory,
		nil, nil, "", nil, nil, schedulerConfig())

	status, err := scheduler.Status(context.Background())

	assert.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, 60, status.CheckIntervalSeconds)
	assert.Equal(t, int64(4), status.PendingCount)
	assert.Equal(t, int64(1), status.ProcessingCount)
	assert.Len(t, status.NextPosts, 1)
	mockPostRepo.AssertExpectations(t)
}
