package repository

import (
	"context"

	"fb-video-manager/domain/model"
)

// IDownloadedFile owns the library of extracted media artifacts and their
// upload history.
type IDownloadedFile interface {
	// Create inserts or replaces the record keyed by file path.
	Create(ctx context.Context, file *model.DownloadedFile) (int64, error)
	GetByPath(ctx context.Context, filePath string) (*model.DownloadedFile, error)
	List(ctx context.Context, filter model.DownloadedFileFilter) ([]*model.DownloadedFile, error)
	// UpdateUploadStatus stamps the publish outcome onto the record keyed
	// by file path. Returns false when no record matches.
	UpdateUploadStatus(ctx context.Context, filePath, status string, remoteVideoID, remoteURL *string) (bool, error)
	AddUploadHistory(ctx context.Context, entry *model.UploadHistoryEntry) error
}
