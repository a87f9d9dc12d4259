package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/swiftlink/internal/analytics"
	analyticsstore "github.com/serroba/swiftlink/internal/analytics/store"
	"github.com/serroba/swiftlink/internal/messaging"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis streams consumer group for analytics.
const ConsumerGroupName = "swiftlink-analytics"

// PublisherGroupPackage provides analytics.Publishers. With events disabled
// every event is dropped and no broker connection is made.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := messaging.NewRedisPublisher(
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*zap.Logger](i),
		)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (analytics.Publishers, error) {
		opts := do.MustInvoke[*Options](i)
		if !opts.EnableEvents {
			return analytics.DiscardPublishers(), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return analytics.Publishers{}, err
		}

		return analytics.NewPublishers(group.Publisher()), nil
	})
}

// ConsumerGroupPackage provides *messaging.ConsumerGroup with every analytics
// consumer registered.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisSubscriber(do.MustInvoke[*redis.Client](i), ConsumerGroupName, logger)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)

		for _, consumer := range analytics.NewConsumers(subscriber, analyticsstore.NewNoop(logger), logger) {
			group.Add(consumer)
		}

		return group, nil
	})
}
