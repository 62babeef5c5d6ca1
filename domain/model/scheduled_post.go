package model

import "encoding/json"

// Scheduled post lifecycle. published, failed and cancelled are terminal.
const (
	PostStatusPending    = "pending"
	PostStatusProcessing = "processing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
	PostStatusCancelled  = "cancelled"
)

// MaxPublishRetries bounds transient publish failures before a post is failed.
const MaxPublishRetries = 3

// Metadata is caller-supplied context persisted verbatim alongside a post.
// The scheduler never interprets it, except for the optional remote id used
// by the upcoming view to suppress duplicates.
type Metadata map[string]interface{}

// MetadataRemoteVideoIDKey is the conventional key linking a local post to
// the remote video it produced.
const MetadataRemoteVideoIDKey = "remote_video_id"

// ScheduledPost is a persisted request to publish a local video file to
// Facebook at a future time. Times are epoch seconds.
type ScheduledPost struct {
	ID            int64    `json:"id"`
	VideoFilePath string   `json:"video_file_path"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ScheduledTime int64    `json:"scheduled_time"`
	Status        string   `json:"status"`
	RemoteVideoID *string  `json:"facebook_video_id,omitempty"`
	RemoteURL     *string  `json:"facebook_url,omitempty"`
	ErrorMessage  *string  `json:"error_message,omitempty"`
	RetryCount    int      `json:"retry_count"`
	OwnerID       *string  `json:"user_id,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
}

// RemoteID returns the remote video id recorded in metadata, if any.
func (p *ScheduledPost) RemoteID() string {
	if p.RemoteVideoID != nil && *p.RemoteVideoID != "" {
		return *p.RemoteVideoID
	}
	if p.Metadata == nil {
		return ""
	}
	if v, ok := p.Metadata[MetadataRemoteVideoIDKey].(string); ok {
		return v
	}
	return ""
}

// ScheduledPostPatch is the enumerated set of updatable post fields. Nil
// fields are left untouched; the store stamps updated_at regardless.
type ScheduledPostPatch struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	ScheduledTime *int64    `json:"scheduled_time,omitempty"`
	Status        *string   `json:"status,omitempty"`
	RemoteVideoID *string   `json:"facebook_video_id,omitempty"`
	RemoteURL     *string   `json:"facebook_url,omitempty"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	RetryCount    *int      `json:"retry_count,omitempty"`
	OwnerID       *string   `json:"user_id,omitempty"`
	Metadata      *Metadata `json:"metadata,omitempty"`
}

// IsEmpty reports whether the patch carries no recognized field.
func (p *ScheduledPostPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ScheduledTime == nil &&
		p.Status == nil && p.RemoteVideoID == nil && p.RemoteURL == nil &&
		p.ErrorMessage == nil && p.RetryCount == nil && p.OwnerID == nil &&
		p.Metadata == nil
}

// ScheduledPostFilter narrows store listings. Zero values mean "no filter".
type ScheduledPostFilter struct {
	Status    string
	StartTime int64
	EndTime   int64
}

// EncodeMetadata serializes metadata for storage; nil maps persist as NULL.
func EncodeMetadata(m Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// DecodeMetadata parses stored metadata; empty input yields a nil map.
func DecodeMetadata(raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
