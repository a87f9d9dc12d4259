package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/swiftlink/internal/messaging"
)

// Publishers holds the typed publish functions for analytics topics.
type Publishers struct {
	LinkCreated  messaging.Publish[LinkCreatedEvent]
	LinkResolved messaging.Publish[LinkResolvedEvent]
}

// NewPublishers binds analytics topics to publisher.
func NewPublishers(publisher message.Publisher) Publishers {
	return Publishers{
		LinkCreated:  messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		LinkResolved: messaging.NewPublishFunc[LinkResolvedEvent](publisher, TopicLinkResolved),
	}
}

// DiscardPublishers drops every event.
func DiscardPublishers() Publishers {
	return Publishers{
		LinkCreated:  messaging.Discard[LinkCreatedEvent](),
		LinkResolved: messaging.Discard[LinkResolvedEvent](),
	}
}
