package container

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/swiftlink/internal/analytics"
	"github.com/serroba/swiftlink/internal/handlers"
	"github.com/serroba/swiftlink/internal/health"
	"github.com/serroba/swiftlink/internal/links"
	"github.com/serroba/swiftlink/internal/middleware"
	"github.com/serroba/swiftlink/internal/ratelimit"
	"github.com/serroba/swiftlink/internal/store"
	"go.uber.org/zap"
)

const sweepInterval = 5 * time.Minute

// RateLimitPackage provides ratelimit.Store, the per-second burst limiter and
// *ratelimit.PolicyLimiter.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.RateLimitStore == StorageRedis {
			return store.NewRateLimitRedisStore(do.MustInvoke[*redis.Client](i)), nil
		}

		// Route limits are all shorter than a day, the policy's longest window.
		memory := store.NewRateLimitMemoryStore()
		memory.StartSweeper(sweepInterval, ratelimit.DefaultPolicy().MaxWindow())

		return memory, nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.WindowLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewWindowLimiter(do.MustInvoke[ratelimit.Store](i), int64(opts.BurstLimit), time.Second), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), ratelimit.DefaultPolicy()), nil
	})
}

// HealthPackage provides *health.Handler checking storage and, when used, Redis.
func HealthPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)

		checkers := map[string]health.Checker{
			"storage": health.StorageChecker(do.MustInvoke[links.Storage](i)),
		}

		if opts.UsesRedis() {
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*redis.Client](i))
		}

		return health.NewHandler(checkers), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		service, err := do.Invoke[*links.Service](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("SwiftLink", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		if opts.BurstLimit > 0 {
			api.UseMiddleware(middleware.Burst(api, do.MustInvoke[*ratelimit.WindowLimiter](i), logger))
		}

		api.UseMiddleware(middleware.RateLimit(api, do.MustInvoke[*ratelimit.PolicyLimiter](i), logger))

		linkHandler := handlers.NewLinkHandler(
			service,
			opts.PublicURL(),
			do.MustInvoke[analytics.Publishers](i),
			logger,
		)

		handlers.RegisterRoutes(api, linkHandler)
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		return api, nil
	})
}
