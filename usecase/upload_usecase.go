package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"fb-video-manager/domain/dto"
	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/configuration"
	"fb-video-manager/infrastructure/downloader"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/infrastructure/transcoder"
)

type IUploadUsecase interface {
	// Preview composes the title and description that Confirm would send,
	// without touching the platform.
	Preview(ctx context.Context, req *dto.UploadPreviewRequest) (*dto.UploadPreviewResponse, error)
	// Confirm uploads the file, optionally transcoding it first.
	Confirm(ctx context.Context, req *dto.UploadConfirmRequest) (*repository.PublishResult, error)
}

type UploadUsecase struct {
	publishers repository.IPublisherFactory
	fileRepo   repository.IDownloadedFile
	analytics  repository.IAnalytics
	transcoder *transcoder.Transcoder
	now        func() int64
}

func NewUploadUsecase(publishers repository.IPublisherFactory, fileRepo repository.IDownloadedFile, analytics repository.IAnalytics, tc *transcoder.Transcoder) *UploadUsecase {
	return &UploadUsecase{
		publishers: publishers,
		fileRepo:   fileRepo,
		analytics:  analytics,
		transcoder: tc,
		now:        func() int64 { return time.Now().Unix() },
	}
}

func (u *UploadUsecase) Preview(ctx context.Context, req *dto.UploadPreviewRequest) (*dto.UploadPreviewResponse, error) {
	info, err := os.Stat(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoFileMissing, req.FilePath)
	}
	title, description := composeUploadText(req.FilePath, req.Title, req.Description)
	return &dto.UploadPreviewResponse{
		FilePath:    req.FilePath,
		Title:       title,
		Description: description,
		FileSizeMB:  info.Size() / (1024 * 1024),
		Transcoded:  u.transcoder != nil && u.transcoder.Enabled(),
	}, nil
}

func (u *UploadUsecase) Confirm(ctx context.Context, req *dto.UploadConfirmRequest) (*repository.PublishResult, error) {
	if _, err := os.Stat(req.FilePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoFileMissing, req.FilePath)
	}
	publisher, err := u.publishers.ForOwner(req.UserID)
	if err != nil {
		return nil, err
	}

	uploadPath := req.FilePath
	if req.Transcode && u.transcoder != nil && u.transcoder.Enabled() {
		processed, err := u.transcoder.Process(ctx, req.FilePath)
		if err != nil {
			// The original file is still uploadable; transcoding is an
			// optimization, not a gate.
			logger.GetLogger().WithField("file", req.FilePath).WithField("error", err).Warn("Transcode failed, uploading original")
		} else {
			uploadPath = processed
		}
	}

	title, description := composeUploadText(req.FilePath, req.Title, req.Description)
	uploadType := "immediate"
	if req.ScheduledTime > 0 {
		uploadType = "scheduled"
	}

	entry := &model.UploadHistoryEntry{
		UploadType: uploadType,
		StartedAt:  u.now(),
	}
	if file, err := u.fileRepo.GetByPath(ctx, req.FilePath); err == nil && file != nil {
		entry.FileID = file.ID
	}

	result, err := publisher.Publish(ctx, uploadPath, title, description, req.ScheduledTime)
	completed := u.now()
	entry.CompletedAt = &completed
	if err != nil {
		entry.Status = "failed"
		msg := err.Error()
		entry.ErrorMessage = &msg
		u.recordHistory(ctx, entry)
		u.analytics.LogEvent(ctx, model.EventVideoUploadFailed, map[string]interface{}{
			"file_path": req.FilePath,
			"error":     err.Error(),
		})
		return nil, err
	}

	entry.Status = "completed"
	entry.RemoteVideoID = &result.VideoID
	entry.RemoteURL = &result.URL
	u.recordHistory(ctx, entry)

	if _, err := u.fileRepo.UpdateUploadStatus(ctx, req.FilePath, model.UploadStatusUploaded, &result.VideoID, &result.URL); err != nil {
		logger.GetLogger().WithField("file", req.FilePath).WithField("error", err).Error("Error updating upload status")
	}
	u.analytics.LogEvent(ctx, model.EventVideoUploaded, map[string]interface{}{
		"file_path": req.FilePath,
		"video_id":  result.VideoID,
		"scheduled": req.ScheduledTime > 0,
	})
	logger.GetLogger().WithField("video_id", result.VideoID).Info("Upload completed")
	return result, nil
}

func (u *UploadUsecase) recordHistory(ctx context.Context, entry *model.UploadHistoryEntry) {
	if entry.FileID == 0 {
		return
	}
	if err := u.fileRepo.AddUploadHistory(ctx, entry); err != nil {
		logger.GetLogger().WithField("file_id", entry.FileID).WithField("error", err).Error("Error recording upload history")
	}
}

// composeUploadText fills missing title/description from the download
// metadata sidecar and applies the configured defaults.
func composeUploadText(filePath, title, description string) (string, string) {
	if title == "" {
		title = downloader.TitleFromMetadata(filePath)
	}
	title = downloader.CleanTitle(title)
	if prefix := configuration.C.Facebook.DefaultTitlePrefix; prefix != "" && !strings.HasPrefix(title, prefix) {
		title = prefix + title
	}
	if description == "" {
		description = downloader.DescriptionFromMetadata(filePath)
	}
	if description == "" {
		description = configuration.C.Facebook.DefaultDescription
	}
	return title, description
}
