package messaging

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisPublisher creates a watermill publisher writing to Redis streams.
func NewRedisPublisher(client redis.UniversalClient, logger *zap.Logger) (message.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, NewZapLogger(logger))
}

// NewRedisSubscriber creates a watermill subscriber reading Redis streams as
// a member of consumerGroup.
func NewRedisSubscriber(client redis.UniversalClient, consumerGroup string, logger *zap.Logger) (message.Subscriber, error) {
	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: consumerGroup,
	}, NewZapLogger(logger))
}
