package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fb-video-manager/domain/model"
	"fb-video-manager/infrastructure/logger"
)

// AnalyticsRepository appends audit events to Postgres. Failures are logged
// and dropped so a broken sink never blocks a publish transition.
type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) LogEvent(ctx context.Context, eventType string, eventData map[string]interface{}) {
	var payload []byte
	if len(eventData) > 0 {
		b, err := json.Marshal(eventData)
		if err != nil {
			logger.GetLogger().WithField("event_type", eventType).WithError(err).Error("encoding analytics event")
			return
		}
		payload = b
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO analytics_events (event_type, event_data, timestamp) VALUES ($1,$2,$3)`,
		eventType, nullBytes(payload), time.Now().Unix())
	if err != nil {
		logger.GetLogger().WithField("event_type", eventType).WithError(err).Error("recording analytics event")
	}
}

func (r *AnalyticsRepository) Summary(ctx context.Context, days int) (*model.AnalyticsSummary, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()

	summary := &model.AnalyticsSummary{EventCounts: map[string]int64{}}

	rows, err := r.db.QueryContext(ctx,
		`SELECT event_type, COUNT(*) FROM analytics_events WHERE timestamp >= $1 GROUP BY event_type`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("aggregating analytics events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, err
		}
		summary.EventCounts[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE upload_status = $1),
		        COALESCE(SUM(file_size), 0)
		   FROM downloaded_files`, model.UploadStatusUploaded).
		Scan(&summary.TotalDownloads, &summary.SuccessfulUploads, &summary.TotalSize)
	if err != nil {
		return nil, fmt.Errorf("aggregating library stats: %w", err)
	}
	return summary, nil
}
