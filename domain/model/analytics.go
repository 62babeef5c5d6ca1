package model

// Analytics event types emitted by the scheduler on state transitions.
const (
	EventScheduledPostPublished = "scheduled_post_published"
	EventScheduledPostFailed    = "scheduled_post_failed"
	EventScheduledPostCancelled = "scheduled_post_cancelled"
	EventScheduledPostCreated   = "scheduled_post_created"
	EventVideoDownloaded        = "video_downloaded"
	EventVideoUploaded          = "video_uploaded"
	EventVideoUploadFailed      = "video_upload_failed"
)

// AnalyticsEvent is an immutable, append-only audit fact. EventData is an
// opaque JSON payload; Timestamp is epoch seconds.
type AnalyticsEvent struct {
	ID        int64                  `json:"id"`
	EventType string                 `json:"event_type"`
	EventData map[string]interface{} `json:"event_data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	SessionID *string                `json:"session_id,omitempty"`
}

// AnalyticsSummary aggregates events and library stats over a trailing window.
type AnalyticsSummary struct {
	EventCounts       map[string]int64 `json:"event_counts"`
	TotalDownloads    int64            `json:"total_downloads"`
	SuccessfulUploads int64            `json:"successful_uploads"`
	TotalSize         int64            `json:"total_size"`
}
