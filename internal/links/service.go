package links

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/swiftlink/internal/annotation"
	"go.uber.org/zap"
)

// Annotator annotates a normalized URL and never fails.
type Annotator interface {
	Analyze(ctx context.Context, url string) annotation.Result
}

// Service serializes every read-mutate-persist sequence on the store.
// The collection is loaded once, on first use, and saved after every
// committed mutation. With shared storage the collection is re-read before
// every operation so that links written by other instances are kept.
type Service struct {
	store        *Store
	annotator    Annotator
	generateCode CodeGenerator
	now          func() time.Time
	logger       *zap.Logger

	mu         sync.Mutex
	collection Collection
	loaded     bool
	shared     bool
	inFlight   map[string]struct{}
}

// NewService creates a link service.
func NewService(store *Store, annotator Annotator, generator CodeGenerator, logger *zap.Logger) *Service {
	return &Service{
		store:        store,
		annotator:    annotator,
		generateCode: generator,
		now:          time.Now,
		logger:       logger,
		inFlight:     make(map[string]struct{}),
	}
}

// WithClock overrides the creation timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now

	return s
}

// WithSharedStorage makes every operation start from the persisted
// collection instead of the in-process copy.
func (s *Service) WithSharedStorage() *Service {
	s.shared = true

	return s
}

// ensureLoaded must be called with mu held.
func (s *Service) ensureLoaded(ctx context.Context) {
	if s.loaded {
		if s.shared {
			s.collection = s.store.Refresh(ctx, s.collection)
		}

		return
	}

	s.collection = s.store.Load(ctx)
	s.loaded = true

	s.logger.Info("links loaded", zap.Int("count", len(s.collection)))
}

// Resolve checks a requested short code. A redirect outcome means the
// caller must navigate away instead of rendering.
func (s *Service) Resolve(ctx context.Context, code string) RedirectOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)

	outcome, updated := s.store.TryResolve(ctx, code, s.collection)
	s.collection = updated

	return outcome
}

// List returns a copy of the collection, newest first.
func (s *Service) List(ctx context.Context) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)

	out := make(Collection, len(s.collection))
	copy(out, s.collection)

	return out
}

// Create normalizes rawURL, annotates it and stores a new link. Only
// normalization errors and concurrent duplicate submissions are returned.
func (s *Service) Create(ctx context.Context, rawURL string) (ShortenedLink, error) {
	normalized, err := annotation.Normalize(rawURL)
	if err != nil {
		return ShortenedLink{}, err
	}

	if !s.claim(normalized) {
		return ShortenedLink{}, ErrSubmissionInFlight
	}
	defer s.release(normalized)

	result := s.annotator.Analyze(ctx, normalized)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)

	link := ShortenedLink{
		ID:          uuid.NewString(),
		OriginalURL: normalized,
		ShortCode:   UniqueCode(s.generateCode, s.collection),
		CreatedAt:   s.now().UnixMilli(),
		Clicks:      0,
		Tags:        result.Tags,
		AISummary:   result.Summary,
		Category:    result.Category,
	}

	s.collection = AddLink(s.collection, link)
	s.store.Save(ctx, s.collection)

	s.logger.Info("link created",
		zap.String("code", link.ShortCode),
		zap.String("url", link.OriginalURL),
		zap.String("annotation", string(result.Status)),
	)

	return link, nil
}

// Delete removes the link with id. Unknown ids are a no-op.
func (s *Service) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)

	if _, ok := FindByID(s.collection, id); !ok {
		return
	}

	s.collection = RemoveLink(s.collection, id)
	s.store.Save(ctx, s.collection)
}

// Visit records an explicit visit and returns the updated link.
func (s *Service) Visit(ctx context.Context, id string) (ShortenedLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoaded(ctx)

	if _, ok := FindByID(s.collection, id); !ok {
		return ShortenedLink{}, ErrNotFound
	}

	s.collection = RecordVisit(s.collection, id)
	s.store.Save(ctx, s.collection)

	link, _ := FindByID(s.collection, id)

	return link, nil
}

func (s *Service) claim(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[url]; busy {
		return false
	}

	s.inFlight[url] = struct{}{}

	return true
}

func (s *Service) release(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, url)
}
