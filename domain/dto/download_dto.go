package dto

// DownloadRequest starts a single background download.
type DownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Cookies string `json:"cookies"`
}

// BatchDownloadRequest starts several background downloads in one call.
type BatchDownloadRequest struct {
	URLs    []string `json:"urls" binding:"required"`
	Cookies string   `json:"cookies"`
}

// DownloadStatus is the in-process progress view of one download. It is not
// durable; restarting the service forgets it while the downloaded_files
// record survives.
type DownloadStatus struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Status    string `json:"status"` // queued | downloading | completed | failed
	FilePath  string `json:"file_path,omitempty"`
	Title     string `json:"title,omitempty"`
	Error     string `json:"error,omitempty"`
	StartedAt int64  `json:"started_at"`
	EndedAt   *int64 `json:"ended_at,omitempty"`
}

// UploadPreviewRequest composes the final title/description for a file
// before uploading.
type UploadPreviewRequest struct {
	FilePath    string `json:"file_path" binding:"required"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UploadPreviewResponse is what confirm would send to the platform.
type UploadPreviewResponse struct {
	FilePath    string `json:"file_path"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FileSizeMB  int64  `json:"file_size_mb"`
	Transcoded  bool   `json:"transcoded"`
}

// UploadConfirmRequest executes the previewed upload.
type UploadConfirmRequest struct {
	FilePath      string `json:"file_path" binding:"required"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ScheduledTime int64  `json:"scheduled_time"`
	UserID        string `json:"user_id"`
	Transcode     bool   `json:"transcode"`
}
