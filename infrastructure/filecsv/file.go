package filecsv

import (
	"encoding/csv"
	"io"
	"strconv"

	"fb-video-manager/domain/model"
	"fb-video-manager/infrastructure/logger"
)

var exportHeader = []string{
	"id", "file_path", "original_url", "title", "file_size",
	"download_date", "upload_status", "facebook_video_id", "facebook_url",
}

// WriteDownloadedFiles streams the library as CSV, one row per file record.
func WriteDownloadedFiles(w io.Writer, files []*model.DownloadedFile) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while writing CSV header")
		return err
	}
	for _, file := range files {
		row := []string{
			strconv.FormatInt(file.ID, 10),
			file.FilePath,
			file.OriginalURL,
			deref(file.Title),
			formatSize(file.FileSize),
			strconv.FormatInt(file.DownloadDate, 10),
			file.UploadStatus,
			deref(file.RemoteVideoID),
			deref(file.RemoteURL),
		}
		if err := writer.Write(row); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while writing CSV row")
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatSize(size *int64) string {
	if size == nil {
		return ""
	}
	return strconv.FormatInt(*size, 10)
}
