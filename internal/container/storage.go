package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/swiftlink/internal/annotation"
	"github.com/serroba/swiftlink/internal/links"
	"github.com/serroba/swiftlink/internal/store"
	"go.uber.org/zap"
)

const startupTimeout = 10 * time.Second

// PostgresPackage provides *store.PostgresStore with its table migrated.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.PostgresStore, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("migrate postgres: %w", err)
		}

		return pg, nil
	})
}

// StoragePackage provides links.Storage for the configured backend. Durable
// backends get a Redis read cache when CacheTTL is set.
func StoragePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (links.Storage, error) {
		opts := do.MustInvoke[*Options](i)

		var (
			storage links.Storage
			err     error
		)

		switch opts.Storage {
		case StorageMemory:
			return store.NewMemoryStore(), nil
		case StorageRedis:
			return store.NewRedisStore(do.MustInvoke[*redis.Client](i)), nil
		case StoragePostgres:
			storage, err = do.Invoke[*store.PostgresStore](i)
		case StorageSQLite:
			ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
			defer cancel()

			storage, err = store.OpenSQLiteStore(ctx, opts.SQLitePath)
		default:
			return nil, fmt.Errorf("unknown storage backend %q", opts.Storage)
		}

		if err != nil {
			return nil, err
		}

		if opts.CacheTTL > 0 {
			storage = store.NewRedisCacheStore(storage, do.MustInvoke[*redis.Client](i), seconds(opts.CacheTTL))
		}

		return storage, nil
	})
}

// AnnotationPackage provides the annotation client. Without an API key every
// link gets the fallback annotation.
func AnnotationPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*annotation.Client, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var generator annotation.Generator = annotation.UnavailableGenerator{}

		if key := opts.APIKey(); key != "" {
			gemini, err := annotation.NewGeminiGenerator(context.Background(), key, opts.GeminiModel)
			if err != nil {
				return nil, fmt.Errorf("gemini client: %w", err)
			}

			generator = gemini
		} else {
			logger.Warn("no Gemini API key configured, links get the fallback annotation")
		}

		return annotation.NewClient(generator, seconds(opts.AnnotationTimeout), logger), nil
	})
}

// LinksPackage provides *links.Service.
func LinksPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*links.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		generator, err := links.NewCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		storage, err := do.Invoke[links.Storage](i)
		if err != nil {
			return nil, err
		}

		service := links.NewService(
			links.NewStore(storage, logger),
			do.MustInvoke[*annotation.Client](i),
			generator,
			logger,
		)

		// Every backend except memory can be shared by several servers.
		if opts.Storage != StorageMemory {
			service.WithSharedStorage()
		}

		return service, nil
	})
}
