package servicebus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"fb-video-manager/domain/model"
	"fb-video-manager/infrastructure/servicebus"
)

// TestNewTransitionNotifier tests the creation of a new TransitionNotifier
func TestNewTransitionNotifier(t *testing.T) {
	// We can't do much more without mocking the Azure Service Bus client
	notifier := servicebus.NewTransitionNotifier(nil, "")
	assert.NotNil(t, notifier)
}

func TestTransitionNotifier_NilClient(t *testing.T) {
	notifier := servicebus.NewTransitionNotifier(nil, "post-transitions")

	err := notifier.NotifyTransition(context.Background(), &model.ScheduledPost{
		ID:     1,
		Status: model.PostStatusPublished,
	})
	assert.NoError(t, err)

	err = notifier.GetMessage(context.Background(), 1)
	assert.Error(t, err)
}
