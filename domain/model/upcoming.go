package model

// Upcoming item sources.
const (
	UpcomingSourceLocal  = "local"
	UpcomingSourceRemote = "remote"
)

// UpcomingItem is one entry of the merged local/remote scheduled view.
// Local items carry the post id; remote items carry the remote post id.
type UpcomingItem struct {
	Source        string  `json:"source"`
	LocalPostID   *int64  `json:"post_id,omitempty"`
	RemotePostID  *string `json:"remote_post_id,omitempty"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	ScheduledTime int64   `json:"scheduled_time"`
	Thumbnail     *string `json:"thumbnail,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// RemoteScheduledPost is an unpublished post as reported by the Facebook
// Graph API. ScheduledPublishTime may be zero or garbage for malformed rows;
// callers filter those out.
type RemoteScheduledPost struct {
	ID                   string  `json:"id"`
	Message              string  `json:"message"`
	ScheduledPublishTime int64   `json:"scheduled_publish_time"`
	Thumbnail            *string `json:"thumbnail,omitempty"`
}
