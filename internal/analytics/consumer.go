package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/swiftlink/internal/messaging"
	"go.uber.org/zap"
)

// NewConsumers creates one consumer per analytics topic, all persisting to store.
func NewConsumers(subscriber message.Subscriber, store Store, logger *zap.Logger) []messaging.Runnable {
	return []messaging.Runnable{
		messaging.NewConsumer(subscriber, TopicLinkCreated, store.SaveLinkCreated, logger),
		messaging.NewConsumer(subscriber, TopicLinkResolved, store.SaveLinkResolved, logger),
	}
}
