package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/swiftlink/internal/handlers"
)

// RequestMeta stores the client IP, User-Agent and Referer on the request
// context for analytics events.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		next(huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta)))
	}
}
