package dto

import "fb-video-manager/domain/model"

// CreatePostRequest is the body for scheduling a new post.
type CreatePostRequest struct {
	VideoFilePath string         `json:"video_file_path" binding:"required"`
	Title         string         `json:"title" binding:"required"`
	Description   string         `json:"description"`
	ScheduledTime int64          `json:"scheduled_time" binding:"required"`
	UserID        string         `json:"user_id"`
	Metadata      model.Metadata `json:"metadata"`
}

// PatchPostRequest mirrors the enumerated patch fields; unknown body keys
// are ignored by binding and never reach the store.
type PatchPostRequest struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	ScheduledTime *int64          `json:"scheduled_time"`
	UserID        *string         `json:"user_id"`
	Metadata      *model.Metadata `json:"metadata"`
}

// PublishNowRequest uploads a file immediately, or hands scheduling to the
// platform when ScheduledTime is set.
type PublishNowRequest struct {
	VideoFilePath string `json:"video_file_path" binding:"required"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ScheduledTime int64  `json:"scheduled_time"`
	UserID        string `json:"user_id"`
}

// SchedulerStatus is the scheduler introspection payload.
type SchedulerStatus struct {
	Running              bool                   `json:"running"`
	CheckIntervalSeconds int                    `json:"check_interval"`
	PendingCount         int64                  `json:"pending_count"`
	ProcessingCount      int64                  `json:"processing_count"`
	NextPosts            []*model.ScheduledPost `json:"next_posts"`
}
