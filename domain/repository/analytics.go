package repository

import (
	"context"

	"fb-video-manager/domain/model"
)

// IAnalytics is a write-mostly audit sink. LogEvent must never fail the
// caller's transition; implementations log and swallow their own I/O errors.
type IAnalytics interface {
	LogEvent(ctx context.Context, eventType string, eventData map[string]interface{})
	Summary(ctx context.Context, days int) (*model.AnalyticsSummary, error)
}

// ISettings is the JSON key/value application settings table.
type ISettings interface {
	Get(ctx context.Context, key string) (interface{}, bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}
