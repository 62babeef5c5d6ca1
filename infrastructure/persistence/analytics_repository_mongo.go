package persistence

import (
	"context"
	"time"

	"fb-video-manager/domain/model"
	"fb-video-manager/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoAnalyticsRepository mirrors audit events into MongoDB while delegating
// aggregation to a primary sink. The mirror is best-effort; a nil client or a
// write failure only logs.
type MongoAnalyticsRepository struct {
	mongoDb *mongo.Client
	primary *AnalyticsRepository
}

func NewMongoAnalyticsRepository(db *mongo.Client, primary *AnalyticsRepository) *MongoAnalyticsRepository {
	return &MongoAnalyticsRepository{mongoDb: db, primary: primary}
}

func (r *MongoAnalyticsRepository) LogEvent(ctx context.Context, eventType string, eventData map[string]interface{}) {
	r.primary.LogEvent(ctx, eventType, eventData)

	if r.mongoDb == nil {
		return
	}
	collection := r.mongoDb.Database("fb_video_manager").Collection("analytics_events")
	doc := bson.M{
		"event_type": eventType,
		"timestamp":  time.Now().Unix(),
	}
	if len(eventData) > 0 {
		doc["event_data"] = eventData
	}
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		logger.GetLogger().WithField("event_type", eventType).WithError(err).Error("mirroring analytics event to mongo")
	}
}

func (r *MongoAnalyticsRepository) Summary(ctx context.Context, days int) (*model.AnalyticsSummary, error) {
	return r.primary.Summary(ctx, days)
}
