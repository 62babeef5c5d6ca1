package usecase_test

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/mock"

	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
)

// Mock implementations shared by the usecase tests.

type MockScheduledPostRepository struct {
	mock.Mock
}

func (m *MockScheduledPostRepository) Create(ctx context.Context, post *model.ScheduledPost) (int64, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScheduledPostRepository) GetByID(ctx context.Context, id int64) (*model.ScheduledPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledPost), args.Error(1)
}

func (m *MockScheduledPostRepository) List(ctx context.Context, filter model.ScheduledPostFilter) ([]*model.ScheduledPost, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduledPost), args.Error(1)
}

func (m *MockScheduledPostRepository) ListDue(ctx context.Context, now int64) ([]*model.ScheduledPost, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScheduledPost), args.Error(1)
}

func (m *MockScheduledPostRepository) Update(ctx context.Context, id int64, patch model.ScheduledPostPatch) (bool, error) {
	args := m.Called(ctx, id, patch)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduledPostRepository) UpdateStatusIf(ctx context.Context, id int64, expect string, patch model.ScheduledPostPatch) (bool, error) {
	args := m.Called(ctx, id, expect, patch)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduledPostRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduledPostRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockScheduledPostRepository) ReclaimStuckProcessing(ctx context.Context, cutoff int64) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockDownloadedFileRepository struct {
	mock.Mock
}

func (m *MockDownloadedFileRepository) Create(ctx context.Context, file *model.DownloadedFile) (int64, error) {
	args := m.Called(ctx, file)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDownloadedFileRepository) GetByPath(ctx context.Context, filePath string) (*model.DownloadedFile, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadedFile), args.Error(1)
}

func (m *MockDownloadedFileRepository) List(ctx context.Context, filter model.DownloadedFileFilter) ([]*model.DownloadedFile, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DownloadedFile), args.Error(1)
}

func (m *MockDownloadedFileRepository) UpdateUploadStatus(ctx context.Context, filePath, status string, remoteVideoID, remoteURL *string) (bool, error) {
	args := m.Called(ctx, filePath, status, remoteVideoID, remoteURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockDownloadedFileRepository) AddUploadHistory(ctx context.Context, entry *model.UploadHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockAnalytics struct {
	mock.Mock
}

func (m *MockAnalytics) LogEvent(ctx context.Context, eventType string, eventData map[string]interface{}) {
	m.Called(ctx, eventType, eventData)
}

func (m *MockAnalytics) Summary(ctx context.Context, days int) (*model.AnalyticsSummary, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalyticsSummary), args.Error(1)
}

type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) Get(ctx context.Context, key string) (interface{}, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1), args.Error(2)
}

func (m *MockSettings) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, filePath, title, description string, scheduledAt int64) (*repository.PublishResult, error) {
	args := m.Called(ctx, filePath, title, description, scheduledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PublishResult), args.Error(1)
}

func (m *MockPublisher) ListScheduled(ctx context.Context) ([]*model.RemoteScheduledPost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RemoteScheduledPost), args.Error(1)
}

func (m *MockPublisher) CancelScheduled(ctx context.Context, remoteID string) error {
	args := m.Called(ctx, remoteID)
	return args.Error(0)
}

func (m *MockPublisher) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPublisherFactory struct {
	mock.Mock
}

func (m *MockPublisherFactory) ForOwner(ownerID string) (repository.IPublisher, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.IPublisher), args.Error(1)
}

type MockTransitionNotifier struct {
	mock.Mock
}

func (m *MockTransitionNotifier) NotifyTransition(ctx context.Context, post *model.ScheduledPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockTransitionNotifier) GetMessage(ctx context.Context, count int) error {
	args := m.Called(ctx, count)
	return args.Error(0)
}

type MockEventPubSub struct {
	mock.Mock
}

func (m *MockEventPubSub) PublishEvent(ctx context.Context, topicName, eventType string, eventData map[string]interface{}) (string, error) {
	args := m.Called(ctx, topicName, eventType, eventData)
	return args.String(0), args.Error(1)
}

func (m *MockEventPubSub) GetSubscription(subID string) (*pubsub.Subscription, error) {
	args := m.Called(subID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pubsub.Subscription), args.Error(1)
}
