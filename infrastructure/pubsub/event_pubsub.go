package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"fb-video-manager/infrastructure/logger"
)

// NewPubSub connects to Google Cloud Pub/Sub using ambient credentials.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project ID is empty")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client for project %s: %w", projectID, err)
	}
	return client, nil
}

type IEventPubSub interface {
	PublishEvent(ctx context.Context, topicName, eventType string, eventData map[string]interface{}) (string, error)
	GetSubscription(subID string) (*pubsub.Subscription, error)
}

// EventPubSub fans analytics events out to a Pub/Sub topic so external
// consumers can follow publish activity. A nil client disables the fan-out.
type EventPubSub struct {
	PubSubClient *pubsub.Client
}

func NewEventPubSub(pubSubClient *pubsub.Client) IEventPubSub {
	return &EventPubSub{
		PubSubClient: pubSubClient,
	}
}

func (eventPubSub *EventPubSub) PublishEvent(
	ctx context.Context,
	topicName string,
	eventType string,
	eventData map[string]interface{},
) (string, error) {
	if eventPubSub.PubSubClient == nil {
		return "", nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event_type": eventType,
		"event_data": eventData,
		"timestamp":  time.Now().Unix(),
	})
	if err != nil {
		return "", err
	}

	topic := eventPubSub.PubSubClient.Topic(topicName)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist - creating it")
		_, err = eventPubSub.PubSubClient.CreateTopic(ctx, topicName)
		if err != nil {
			return "", err
		}
	}

	serverId, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().WithField("server ID", serverId).WithField("event_type", eventType).Info("Event published")
	return serverId, nil
}

func (eventPubSub *EventPubSub) GetSubscription(
	subID string,
) (*pubsub.Subscription, error) {
	if eventPubSub.PubSubClient == nil {
		return nil, fmt.Errorf("pubsub client is nil")
	}
	logger.GetLogger().WithField("subID", subID).Info("PubSub starting...")

	return eventPubSub.PubSubClient.Subscription(subID), nil
}
