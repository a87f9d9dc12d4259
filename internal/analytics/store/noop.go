package store

import (
	"context"

	"github.com/serroba/swiftlink/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("link created event received",
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.String("category", event.Category),
		zap.Strings("tags", event.Tags),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SaveLinkResolved(_ context.Context, event *analytics.LinkResolvedEvent) error {
	n.logger.Info("link resolved event received",
		zap.String("code", event.Code),
		zap.String("source", string(event.Source)),
		zap.Int64("clicks", event.Clicks),
		zap.Time("resolvedAt", event.ResolvedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
