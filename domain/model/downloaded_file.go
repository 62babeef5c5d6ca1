package model

// Upload status of a downloaded file.
const (
	UploadStatusNotUploaded = "not_uploaded"
	UploadStatusUploaded    = "uploaded"
	UploadStatusDeleted     = "deleted"
)

// DownloadedFile records provenance for a locally stored media artifact.
// Created once after a successful extraction; only upload_status and the
// remote link fields change afterwards.
type DownloadedFile struct {
	ID            int64    `json:"id"`
	FilePath      string   `json:"file_path"`
	OriginalURL   string   `json:"original_url"`
	Title         *string  `json:"title,omitempty"`
	Description   *string  `json:"description,omitempty"`
	FileSize      *int64   `json:"file_size,omitempty"`
	Duration      *int64   `json:"duration,omitempty"`
	ThumbnailPath *string  `json:"thumbnail_path,omitempty"`
	DownloadDate  int64    `json:"download_date"`
	UploadStatus  string   `json:"upload_status"`
	RemoteVideoID *string  `json:"facebook_video_id,omitempty"`
	RemoteURL     *string  `json:"facebook_url,omitempty"`
	Tags          *string  `json:"tags,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
}

// DownloadedFileFilter narrows library listings.
type DownloadedFileFilter struct {
	Search   string
	Category string
	Status   string
	Limit    int
	Offset   int
}

// UploadHistoryEntry is one publish attempt tied to a downloaded file.
type UploadHistoryEntry struct {
	ID            int64   `json:"id"`
	FileID        int64   `json:"file_id"`
	UploadType    string  `json:"upload_type"` // immediate | scheduled
	Status        string  `json:"status"`
	StartedAt     int64   `json:"started_at"`
	CompletedAt   *int64  `json:"completed_at,omitempty"`
	ErrorMessage  *string `json:"error_message,omitempty"`
	RemoteVideoID *string `json:"facebook_video_id,omitempty"`
	RemoteURL     *string `json:"facebook_url,omitempty"`
}
