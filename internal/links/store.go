package links

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

// StorageKey is the namespaced key the collection blob lives under.
const StorageKey = "swiftlink_data"

// Storage is a key-value store holding opaque blobs.
// Read returns ErrNotFound when the key is absent.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// RedirectOutcome is the result of checking a request for a short code.
// A zero value means continue with normal handling.
type RedirectOutcome struct {
	Target string
	Link   *ShortenedLink
}

// Redirect reports whether the caller must navigate to Target.
func (o RedirectOutcome) Redirect() bool {
	return o.Link != nil
}

// Store persists the link collection as a single blob and resolves short codes.
// Storage failures are logged and never returned.
type Store struct {
	storage Storage
	key     string
	logger  *zap.Logger
	loaded  atomic.Bool
}

// NewStore creates a link store over the given blob storage.
func NewStore(storage Storage, logger *zap.Logger) *Store {
	return &Store{
		storage: storage,
		key:     StorageKey,
		logger:  logger,
	}
}

// Load reads the persisted collection. Missing, unreadable and malformed
// blobs all load as an empty collection.
func (s *Store) Load(ctx context.Context) Collection {
	defer s.loaded.Store(true)

	c, err := s.read(ctx)
	if err != nil {
		return Collection{}
	}

	return c
}

// Refresh re-reads the persisted collection, picking up writes made by other
// processes sharing the storage. When the blob cannot be read or decoded,
// current is returned so a transient failure never erases known links.
func (s *Store) Refresh(ctx context.Context, current Collection) Collection {
	c, err := s.read(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return current
	}

	return c
}

// read returns ErrNotFound, a storage error or a decode error; every
// failure except a missing key is logged.
func (s *Store) read(ctx context.Context) (Collection, error) {
	data, err := s.storage.Read(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to read links",
				zap.String("key", s.key),
				zap.Error(err),
			)
		}

		return Collection{}, err
	}

	c, err := Decode(data)
	if err != nil {
		s.logger.Warn("stored links are malformed",
			zap.String("key", s.key),
			zap.Error(err),
		)

		return Collection{}, err
	}

	return c, nil
}

// Save overwrites the persisted collection. Saves issued before the first
// Load are dropped so that an unloaded store never clobbers existing data.
func (s *Store) Save(ctx context.Context, c Collection) {
	if !s.loaded.Load() {
		s.logger.Error("save before load dropped", zap.String("key", s.key))

		return
	}

	data, err := Encode(c)
	if err != nil {
		s.logger.Error("failed to encode links", zap.Error(err))

		return
	}

	if err := s.storage.Write(ctx, s.key, data); err != nil {
		s.logger.Error("failed to write links, update lost",
			zap.String("key", s.key),
			zap.Int("count", len(c)),
			zap.Error(err),
		)
	}
}

// TryResolve looks up code in c. On a hit the link's clicks are incremented
// and persisted immediately; the returned collection reflects the update.
// On a miss, or an empty code, c is returned untouched.
func (s *Store) TryResolve(ctx context.Context, code string, c Collection) (RedirectOutcome, Collection) {
	if code == "" {
		return RedirectOutcome{}, c
	}

	target, ok := FindByCode(c, code)
	if !ok {
		return RedirectOutcome{}, c
	}

	updated := RecordVisit(c, target.ID)
	s.Save(ctx, updated)

	target.Clicks++

	return RedirectOutcome{Target: target.OriginalURL, Link: &target}, updated
}
