package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fb-video-manager/domain/dto"
	"fb-video-manager/domain/model"
	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/configuration"
	"fb-video-manager/infrastructure/logger"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrUnsafeName    = errors.New("file name must not contain path separators")
	ErrSettingNotSet = errors.New("setting not found")
)

type ILibraryUsecase interface {
	// ListFiles returns the recorded download library.
	ListFiles(ctx context.Context, filter model.DownloadedFileFilter) ([]*model.DownloadedFile, error)
	// ListDiskFiles lists the raw download directory, newest first.
	ListDiskFiles() ([]dto.DiskFile, error)
	// ResolveDiskFile maps a bare file name to its path inside the download
	// directory, refusing traversal.
	ResolveDiskFile(name string) (string, error)
	// DeleteDiskFile removes one file from the download directory and marks
	// its library record deleted when one exists.
	DeleteDiskFile(ctx context.Context, name string) error
	AnalyticsSummary(ctx context.Context, days int) (*model.AnalyticsSummary, error)
	GetSetting(ctx context.Context, key string) (interface{}, error)
	SetSetting(ctx context.Context, key string, value interface{}) error
}

type LibraryUsecase struct {
	fileRepo  repository.IDownloadedFile
	analytics repository.IAnalytics
	settings  repository.ISettings
}

func NewLibraryUsecase(fileRepo repository.IDownloadedFile, analytics repository.IAnalytics, settings repository.ISettings) *LibraryUsecase {
	return &LibraryUsecase{fileRepo: fileRepo, analytics: analytics, settings: settings}
}

func (u *LibraryUsecase) ListFiles(ctx context.Context, filter model.DownloadedFileFilter) ([]*model.DownloadedFile, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return u.fileRepo.List(ctx, filter)
}

func (u *LibraryUsecase) ListDiskFiles() ([]dto.DiskFile, error) {
	dir := configuration.C.Downloader.OutputDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []dto.DiskFile{}, nil
		}
		return nil, err
	}
	files := make([]dto.DiskFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".info.json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, dto.DiskFile{
			Name:       entry.Name(),
			SizeMB:     info.Size() / (1024 * 1024),
			ModifiedAt: info.ModTime().Unix(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModifiedAt > files[j].ModifiedAt })
	return files, nil
}

func (u *LibraryUsecase) ResolveDiskFile(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrUnsafeName
	}
	path := filepath.Join(configuration.C.Downloader.OutputDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrFileNotFound
	}
	return path, nil
}

func (u *LibraryUsecase) DeleteDiskFile(ctx context.Context, name string) error {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return ErrUnsafeName
	}
	path := filepath.Join(configuration.C.Downloader.OutputDir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	// The metadata sidecar is useless without its video.
	_ = os.Remove(strings.TrimSuffix(path, filepath.Ext(path)) + ".info.json")

	if _, err := u.fileRepo.UpdateUploadStatus(ctx, path, model.UploadStatusDeleted, nil, nil); err != nil {
		logger.GetLogger().WithField("file", path).WithField("error", err).Error("Error marking file deleted")
	}
	logger.GetLogger().WithField("file", path).Info("File deleted")
	return nil
}

func (u *LibraryUsecase) AnalyticsSummary(ctx context.Context, days int) (*model.AnalyticsSummary, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	return u.analytics.Summary(ctx, days)
}

func (u *LibraryUsecase) GetSetting(ctx context.Context, key string) (interface{}, error) {
	value, ok, err := u.settings.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSettingNotSet
	}
	return value, nil
}

func (u *LibraryUsecase) SetSetting(ctx context.Context, key string, value interface{}) error {
	return u.settings.Set(ctx, key, value)
}
