package persistence

import (
	"database/sql"
	"fmt"

	"fb-video-manager/infrastructure/logger"
)

// EnsureSchema creates the scheduler tables if they are missing. Safe to call
// at startup.
func EnsureSchema(db *sql.DB) error {
	ddls := []string{
		`CREATE TABLE IF NOT EXISTS scheduled_posts (
			id BIGSERIAL PRIMARY KEY,
			video_file_path TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			scheduled_time BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			facebook_video_id TEXT,
			facebook_url TEXT,
			error_message TEXT,
			retry_count INT NOT NULL DEFAULT 0,
			user_id TEXT,
			metadata JSONB,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS downloaded_files (
			id BIGSERIAL PRIMARY KEY,
			file_path TEXT NOT NULL UNIQUE,
			original_url TEXT NOT NULL,
			title TEXT,
			description TEXT,
			file_size BIGINT,
			duration BIGINT,
			thumbnail_path TEXT,
			download_date BIGINT NOT NULL,
			upload_status TEXT NOT NULL DEFAULT 'not_uploaded',
			facebook_video_id TEXT,
			facebook_url TEXT,
			tags TEXT,
			category TEXT,
			metadata JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS upload_history (
			id BIGSERIAL PRIMARY KEY,
			file_id BIGINT REFERENCES downloaded_files(id),
			upload_type TEXT,
			status TEXT,
			started_at BIGINT NOT NULL,
			completed_at BIGINT,
			error_message TEXT,
			facebook_video_id TEXT,
			facebook_url TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value JSONB,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analytics_events (
			id BIGSERIAL PRIMARY KEY,
			event_type TEXT NOT NULL,
			event_data JSONB,
			timestamp BIGINT NOT NULL,
			session_id TEXT
		)`,
	}
	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("ensuring scheduler schema: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_scheduled_posts_status_time ON scheduled_posts(status, scheduled_time)`,
		`CREATE INDEX IF NOT EXISTS idx_downloaded_files_download_date ON downloaded_files(download_date)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_events_timestamp ON analytics_events(timestamp)`,
	}
	for _, ddl := range indexes {
		if _, err := db.Exec(ddl); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed creating index")
		}
	}
	return nil
}
