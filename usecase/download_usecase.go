package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fb-video-manager/domain/dto"
	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/downloader"
	"fb-video-manager/infrastructure/logger"
)

// MaxBatchURLs caps a single batch download request.
const MaxBatchURLs = 20

const maxConcurrentDownloads = 3

var (
	ErrBatchTooLarge    = errors.New("batch exceeds maximum URL count")
	ErrDownloadNotFound = errors.New("download not found")
	ErrEmptyBatch       = errors.New("batch contains no URLs")
)

type IDownloadUsecase interface {
	// StartDownload queues one background download and returns its status id.
	StartDownload(req *dto.DownloadRequest) (string, error)
	// StartBatch queues up to MaxBatchURLs downloads.
	StartBatch(req *dto.BatchDownloadRequest) ([]string, error)
	// GetStatus reads the in-process progress map. Statuses do not survive
	// a restart; durable facts live in the downloaded_files store.
	GetStatus(id string) (*dto.DownloadStatus, error)
}

type DownloadUsecase struct {
	dl        *downloader.Downloader
	fileRepo  repository.IDownloadedFile
	analytics repository.IAnalytics

	mu       sync.RWMutex
	statuses map[string]*dto.DownloadStatus
	seq      atomic.Int64
	sem      chan struct{}
}

func NewDownloadUsecase(dl *downloader.Downloader, fileRepo repository.IDownloadedFile, analytics repository.IAnalytics) *DownloadUsecase {
	return &DownloadUsecase{
		dl:        dl,
		fileRepo:  fileRepo,
		analytics: analytics,
		statuses:  make(map[string]*dto.DownloadStatus),
		sem:       make(chan struct{}, maxConcurrentDownloads),
	}
}

func (u *DownloadUsecase) StartDownload(req *dto.DownloadRequest) (string, error) {
	if err := downloader.ValidateURL(req.URL); err != nil {
		return "", err
	}
	id := u.enqueue(req.URL, req.Cookies)
	return id, nil
}

func (u *DownloadUsecase) StartBatch(req *dto.BatchDownloadRequest) ([]string, error) {
	if len(req.URLs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(req.URLs) > MaxBatchURLs {
		return nil, ErrBatchTooLarge
	}
	for _, url := range req.URLs {
		if err := downloader.ValidateURL(url); err != nil {
			return nil, err
		}
	}
	ids := make([]string, 0, len(req.URLs))
	for _, url := range req.URLs {
		ids = append(ids, u.enqueue(url, req.Cookies))
	}
	return ids, nil
}

func (u *DownloadUsecase) GetStatus(id string) (*dto.DownloadStatus, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	status, ok := u.statuses[id]
	if !ok {
		return nil, ErrDownloadNotFound
	}
	copied := *status
	return &copied, nil
}

func (u *DownloadUsecase) enqueue(url, cookies string) string {
	id := fmt.Sprintf("dl-%d-%d", time.Now().Unix(), u.seq.Add(1))
	status := &dto.DownloadStatus{
		ID:        id,
		URL:       url,
		Status:    "queued",
		StartedAt: time.Now().Unix(),
	}
	u.mu.Lock()
	u.statuses[id] = status
	u.mu.Unlock()

	go u.run(id, url, cookies)
	return id
}

// run executes one download in the background. The request context is not
// used; a client disconnect must not abort an extraction in flight.
func (u *DownloadUsecase) run(id, url, cookies string) {
	u.sem <- struct{}{}
	defer func() { <-u.sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	u.setStatus(id, func(s *dto.DownloadStatus) { s.Status = "downloading" })

	result, err := u.dl.Download(ctx, url, cookies)
	ended := time.Now().Unix()
	if err != nil {
		logger.GetLogger().WithField("url", url).WithField("error", err).Error("Download failed")
		u.setStatus(id, func(s *dto.DownloadStatus) {
			s.Status = "failed"
			s.Error = err.Error()
			s.EndedAt = &ended
		})
		return
	}

	file := &model.DownloadedFile{
		FilePath:    result.FilePath,
		OriginalURL: url,
	}
	if result.Title != "" {
		title := result.Title
		file.Title = &title
	}
	if result.Description != "" {
		desc := result.Description
		file.Description = &desc
	}
	if result.FileSize > 0 {
		size := result.FileSize
		file.FileSize = &size
	}
	if _, err := u.fileRepo.Create(ctx, file); err != nil {
		logger.GetLogger().WithField("file", result.FilePath).WithField("error", err).Error("Error recording downloaded file")
	}
	u.analytics.LogEvent(ctx, model.EventVideoDownloaded, map[string]interface{}{
		"url":       url,
		"file_path": result.FilePath,
		"title":     result.Title,
	})

	u.setStatus(id, func(s *dto.DownloadStatus) {
		s.Status = "completed"
		s.FilePath = result.FilePath
		s.Title = result.Title
		s.EndedAt = &ended
	})
	logger.GetLogger().WithField("file", result.FilePath).Info("Download completed")
}

func (u *DownloadUsecase) setStatus(id string, mutate func(*dto.DownloadStatus)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if s, ok := u.statuses[id]; ok {
		mutate(s)
	}
}
