package repository

import (
	"context"

	"fb-video-manager/domain/model"
)

// PublishResult is the remote identity of a successfully published video.
type PublishResult struct {
	VideoID string `json:"video_id"`
	URL     string `json:"facebook_url"`
}

// IPublisher is the boundary to the remote platform's upload API.
type IPublisher interface {
	// Publish uploads the file and publishes it with title/description.
	// A non-zero scheduledAt (epoch seconds) asks the platform itself to
	// hold the post unpublished until that time.
	Publish(ctx context.Context, filePath, title, description string, scheduledAt int64) (*PublishResult, error)
	// ListScheduled returns the platform's own unpublished scheduled posts.
	ListScheduled(ctx context.Context) ([]*model.RemoteScheduledPost, error)
	// CancelScheduled deletes a remote scheduled post.
	CancelScheduled(ctx context.Context, remoteID string) error
	// TestConnection probes the API with the configured credentials.
	TestConnection(ctx context.Context) error
}

// IPublisherFactory resolves a publisher for a post's owner, falling back to
// the process-wide default credentials. Returns an error when neither yields
// usable credentials.
type IPublisherFactory interface {
	ForOwner(ownerID string) (IPublisher, error)
}
