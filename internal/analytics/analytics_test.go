package analytics_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/swiftlink/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.messages == nil {
		m.messages = make(map[string][]*message.Message)
	}

	m.messages[topic] = append(m.messages[topic], msgs...)

	return nil
}

func (m *mockPublisher) Close() error { return nil }

// mockSubscriber hands out one channel per topic.
type mockSubscriber struct {
	mu     sync.Mutex
	topics map[string]chan *message.Message
	closed bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{topics: map[string]chan *message.Message{
		analytics.TopicLinkCreated:  make(chan *message.Message, 10),
		analytics.TopicLinkResolved: make(chan *message.Message, 10),
	}}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	return m.topics[topic], nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		for _, ch := range m.topics {
			close(ch)
		}
	}

	return nil
}

type mockStore struct {
	mu       sync.Mutex
	created  []*analytics.LinkCreatedEvent
	resolved []*analytics.LinkResolvedEvent
}

func (m *mockStore) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created = append(m.created, event)

	return nil
}

func (m *mockStore) SaveLinkResolved(_ context.Context, event *analytics.LinkResolvedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resolved = append(m.resolved, event)

	return nil
}

func TestNewPublishers(t *testing.T) {
	pub := &mockPublisher{}
	publishers := analytics.NewPublishers(pub)

	err := publishers.LinkCreated(context.Background(), &analytics.LinkCreatedEvent{Code: "ab12cd"})
	require.NoError(t, err)

	err = publishers.LinkResolved(context.Background(), &analytics.LinkResolvedEvent{
		Code:   "ab12cd",
		Source: analytics.SourceVisit,
	})
	require.NoError(t, err)

	assert.Len(t, pub.messages[analytics.TopicLinkCreated], 1)
	assert.Len(t, pub.messages[analytics.TopicLinkResolved], 1)
	assert.Contains(t, string(pub.messages[analytics.TopicLinkResolved][0].Payload), `"source":"visit"`)
}

func TestDiscardPublishers(t *testing.T) {
	publishers := analytics.DiscardPublishers()

	assert.NoError(t, publishers.LinkCreated(context.Background(), &analytics.LinkCreatedEvent{}))
	assert.NoError(t, publishers.LinkResolved(context.Background(), &analytics.LinkResolvedEvent{}))
}

func TestNewConsumers(t *testing.T) {
	sub := newMockSubscriber()
	store := &mockStore{}

	consumers := analytics.NewConsumers(sub, store, zap.NewNop())
	require.Len(t, consumers, 2)

	for _, c := range consumers {
		require.NoError(t, c.Start(context.Background()))
	}

	created, _ := json.Marshal(&analytics.LinkCreatedEvent{Code: "ab12cd"})
	createdMsg := message.NewMessage("1", created)
	sub.topics[analytics.TopicLinkCreated] <- createdMsg

	resolved, _ := json.Marshal(&analytics.LinkResolvedEvent{Code: "ab12cd", Clicks: 6})
	resolvedMsg := message.NewMessage("2", resolved)
	sub.topics[analytics.TopicLinkResolved] <- resolvedMsg

	for _, msg := range []*message.Message{createdMsg, resolvedMsg} {
		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}
	}

	for _, c := range consumers {
		require.NoError(t, c.Shutdown())
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	require.Len(t, store.created, 1)
	require.Len(t, store.resolved, 1)
	assert.Equal(t, int64(6), store.resolved[0].Clicks)
}
