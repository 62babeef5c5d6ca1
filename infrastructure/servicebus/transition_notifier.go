package servicebus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"fb-video-manager/domain/model"
	"fb-video-manager/infrastructure/logger"
)

// NewServiceBus connects to Azure Service Bus with the default credential
// chain (environment, managed identity, CLI).
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace is empty")
	}
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("acquiring azure credential: %w", err)
	}
	client, err := azservicebus.NewClient(namespace, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("creating service bus client for %s: %w", namespace, err)
	}
	return client, nil
}

type ITransitionNotifier interface {
	NotifyTransition(ctx context.Context, post *model.ScheduledPost) error
	GetMessage(ctx context.Context, count int) error
}

// TransitionNotifier pushes terminal state changes (published, failed,
// cancelled) onto a Service Bus queue for downstream automation. A nil
// client turns every send into a no-op.
type TransitionNotifier struct {
	AzservicebusClient *azservicebus.Client
	queue              string
}

func NewTransitionNotifier(azServiceBusClient *azservicebus.Client, queue string) ITransitionNotifier {
	if queue == "" {
		queue = "post-transitions"
	}
	return &TransitionNotifier{AzservicebusClient: azServiceBusClient, queue: queue}
}

func (notifier *TransitionNotifier) NotifyTransition(ctx context.Context, post *model.ScheduledPost) error {
	if notifier.AzservicebusClient == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"post_id":           post.ID,
		"status":            post.Status,
		"title":             post.Title,
		"facebook_video_id": post.RemoteVideoID,
		"error_message":     post.ErrorMessage,
		"timestamp":         time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	sender, err := notifier.AzservicebusClient.NewSender(notifier.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		err := sender.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, ctx)

	sbMessage := &azservicebus.Message{
		Body: payload,
	}
	err = sender.SendMessage(ctx, sbMessage, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}

	return nil
}

func (notifier *TransitionNotifier) GetMessage(ctx context.Context, count int) error {
	if notifier.AzservicebusClient == nil {
		return fmt.Errorf("service bus client is nil")
	}

	receiver, err := notifier.AzservicebusClient.NewReceiverForQueue(notifier.queue, nil)
	if err != nil {
		return err
	}
	defer func(receiver *azservicebus.Receiver, ctx context.Context) {
		err := receiver.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing receiver.")
		}
	}(receiver, ctx)

	messages, err := receiver.ReceiveMessages(ctx, count, nil)
	if err != nil {
		return err
	}

	for _, message := range messages {
		logger.GetLogger().WithField("body", string(message.Body)).Info("Transition message received")
		if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
			return err
		}
	}
	return nil
}
