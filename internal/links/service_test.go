package links_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/serroba/swiftlink/internal/annotation"
	"github.com/serroba/swiftlink/internal/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) (string, error) {
	return "", errors.New("service unavailable")
}

// blockingAnnotator holds Analyze until release is closed.
type blockingAnnotator struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingAnnotator) Analyze(context.Context, string) annotation.Result {
	b.once.Do(func() { close(b.started) })
	<-b.release

	return annotation.Fallback()
}

func newTestService(storage links.Storage, annotator links.Annotator) *links.Service {
	gen, _ := links.NewCodeGenerator(links.DefaultCodeLength)
	store := links.NewStore(storage, zap.NewNop())

	return links.NewService(store, annotator, gen, zap.NewNop())
}

func failingAnnotator() links.Annotator {
	return annotation.NewClient(failingGenerator{}, time.Second, zap.NewNop())
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates link with fallback annotation", func(t *testing.T) {
		storage := newMockStorage()
		created := time.UnixMilli(1700000000000)
		svc := newTestService(storage, failingAnnotator()).WithClock(func() time.Time { return created })

		link, err := svc.Create(ctx, "example.com")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", link.OriginalURL)
		assert.Equal(t, []string{"Link"}, link.Tags)
		assert.Equal(t, "External Website", link.AISummary)
		assert.Equal(t, "General", link.Category)
		assert.Equal(t, int64(0), link.Clicks)
		assert.Equal(t, int64(1700000000000), link.CreatedAt)
		assert.Len(t, link.ShortCode, links.DefaultCodeLength)
		assert.NotEmpty(t, link.ID)
		assert.Equal(t, links.Collection{link}, storage.persisted())
	})

	t.Run("returns validation error and stores nothing", func(t *testing.T) {
		storage := newMockStorage()
		svc := newTestService(storage, failingAnnotator())

		_, err := svc.Create(ctx, "not a url")

		var verr *annotation.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, 0, storage.writes)
	})

	t.Run("newest link comes first", func(t *testing.T) {
		svc := newTestService(newMockStorage(), failingAnnotator())

		first, _ := svc.Create(ctx, "a.test")
		second, _ := svc.Create(ctx, "b.test")

		list := svc.List(ctx)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})

	t.Run("keeps existing links loaded from storage", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(sampleCollection())
		svc := newTestService(storage, failingAnnotator())

		_, err := svc.Create(ctx, "d.test")

		require.NoError(t, err)
		assert.Len(t, storage.persisted(), 4)
	})

	t.Run("rejects duplicate submission while annotating", func(t *testing.T) {
		annotator := &blockingAnnotator{started: make(chan struct{}), release: make(chan struct{})}
		svc := newTestService(newMockStorage(), annotator)

		errs := make(chan error, 1)

		go func() {
			_, err := svc.Create(ctx, "slow.test")
			errs <- err
		}()

		<-annotator.started

		_, err := svc.Create(ctx, "https://slow.test")
		assert.ErrorIs(t, err, links.ErrSubmissionInFlight)

		close(annotator.release)
		require.NoError(t, <-errs)

		_, err = svc.Create(ctx, "slow.test")
		assert.NoError(t, err)
	})
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("redirects and persists click", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(links.Collection{
			{ID: "1", OriginalURL: "https://foo.test", ShortCode: "ab12cd", Clicks: 5},
		})
		svc := newTestService(storage, failingAnnotator())

		outcome := svc.Resolve(ctx, "ab12cd")

		require.True(t, outcome.Redirect())
		assert.Equal(t, "https://foo.test", outcome.Target)
		assert.Equal(t, int64(6), storage.persisted()[0].Clicks)
		assert.Equal(t, int64(6), svc.List(ctx)[0].Clicks)
	})

	t.Run("continues on unknown code", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(sampleCollection())
		svc := newTestService(storage, failingAnnotator())

		outcome := svc.Resolve(ctx, "zzzzzz")

		assert.False(t, outcome.Redirect())
		assert.Equal(t, sampleCollection(), svc.List(ctx))
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes link", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(sampleCollection())
		svc := newTestService(storage, failingAnnotator())

		svc.Delete(ctx, "b")

		assert.Len(t, storage.persisted(), 2)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(sampleCollection())
		svc := newTestService(storage, failingAnnotator())

		svc.Delete(ctx, "missing")

		assert.Equal(t, sampleCollection(), svc.List(ctx))
		assert.Equal(t, 0, storage.writes)
	})
}

func TestService_Visit(t *testing.T) {
	ctx := context.Background()

	t.Run("increments clicks", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(sampleCollection())
		svc := newTestService(storage, failingAnnotator())

		link, err := svc.Visit(ctx, "b")

		require.NoError(t, err)
		assert.Equal(t, int64(5), link.Clicks)
		assert.Equal(t, "https://b.test", link.OriginalURL)
		assert.Equal(t, int64(5), storage.persisted()[1].Clicks)
	})

	t.Run("returns ErrNotFound for unknown id", func(t *testing.T) {
		svc := newTestService(newMockStorage(), failingAnnotator())

		_, err := svc.Visit(ctx, "missing")

		assert.ErrorIs(t, err, links.ErrNotFound)
	})
}

func TestService_List(t *testing.T) {
	t.Run("returns a copy", func(t *testing.T) {
		ctx := context.Background()
		storage := newMockStorage()
		storage.seed(sampleCollection())
		svc := newTestService(storage, failingAnnotator())

		list := svc.List(ctx)
		list[0].Clicks = 99

		assert.Equal(t, int64(0), svc.List(ctx)[0].Clicks)
	})
}

func TestService_SharedStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("instances keep each other's links", func(t *testing.T) {
		storage := newMockStorage()
		a := newTestService(storage, failingAnnotator()).WithSharedStorage()
		b := newTestService(storage, failingAnnotator()).WithSharedStorage()

		assert.Empty(t, a.List(ctx))
		assert.Empty(t, b.List(ctx))

		linkA, err := a.Create(ctx, "a.example")
		require.NoError(t, err)

		linkB, err := b.Create(ctx, "b.example")
		require.NoError(t, err)

		persisted := links.NewStore(storage, zap.NewNop()).Load(ctx)
		require.Len(t, persisted, 2)
		assert.Equal(t, linkB.ID, persisted[0].ID)
		assert.Equal(t, linkA.ID, persisted[1].ID)
		assert.Len(t, a.List(ctx), 2)
	})

	t.Run("clicks from another instance are not lost", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(sampleCollection())
		a := newTestService(storage, failingAnnotator()).WithSharedStorage()
		b := newTestService(storage, failingAnnotator()).WithSharedStorage()

		_ = b.List(ctx)
		require.True(t, a.Resolve(ctx, "bbbbbb").Redirect())

		link, err := b.Visit(ctx, "b")

		require.NoError(t, err)
		assert.Equal(t, int64(6), link.Clicks)
	})

	t.Run("read failure keeps the known collection", func(t *testing.T) {
		storage := newMockStorage()
		storage.seed(sampleCollection())
		svc := newTestService(storage, failingAnnotator()).WithSharedStorage()

		require.Len(t, svc.List(ctx), 3)

		storage.mu.Lock()
		storage.readErr = errMock
		storage.mu.Unlock()

		_, err := svc.Create(ctx, "new.example")
		require.NoError(t, err)

		storage.mu.Lock()
		storage.readErr = nil
		storage.mu.Unlock()

		assert.Len(t, storage.persisted(), 4)
	})

	t.Run("without shared storage the process copy wins", func(t *testing.T) {
		storage := newMockStorage()
		a := newTestService(storage, failingAnnotator())
		b := newTestService(storage, failingAnnotator())

		_ = a.List(ctx)
		_ = b.List(ctx)

		_, _ = a.Create(ctx, "a.example")
		_, _ = b.Create(ctx, "b.example")

		assert.Len(t, storage.persisted(), 1)
	})
}
