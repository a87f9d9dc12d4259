package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/swiftlink/internal/ratelimit"
	"go.uber.org/zap"
)

var errNoOperation = errors.New("missing operation in context")

// Burst rejects clients that exceed a flat limit, whatever the endpoint.
func Burst(api huma.API, limiter ratelimit.Limiter, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		allowed, err := limiter.Allow(ctx.Context(), clientKey(ctx))
		if err != nil {
			logger.Error("burst check failed", zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			logger.Warn("burst limit exceeded", zap.String("client_ip", clientIP(ctx)))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// RateLimit applies the limiter's policy to every request. Operations can
// carry a ratelimit.EndpointConfig under ratelimit.MetadataKey to disable
// limiting, pick a scope, or replace the policy with their own limits.
func RateLimit(api huma.API, limiter *ratelimit.PolicyLimiter, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op == nil {
			logger.Error("rate limiting without an operation")
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", errNoOperation)

			return
		}

		cfg, _ := ratelimit.ConfigFor(op)
		if cfg.Disabled {
			next(ctx)

			return
		}

		client := clientKey(ctx)

		var (
			exceeded *ratelimit.Exceeded
			err      error
		)

		if len(cfg.Limits) > 0 {
			exceeded, err = limiter.CheckLimits(ctx.Context(), client, op.Path, cfg.Limits)
		} else {
			exceeded, err = limiter.Check(ctx.Context(), client, ratelimit.Scopes(op, ctx.Method()))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", op.Path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if exceeded != nil {
			logger.Warn("rate limit exceeded",
				zap.String("path", op.Path),
				zap.String("method", ctx.Method()),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Limit.Max),
				zap.Duration("window", exceeded.Limit.Window),
				zap.String("client_ip", clientIP(ctx)),
			)

			ctx.SetHeader("Retry-After", strconv.Itoa(int(exceeded.RetryAfter().Seconds())))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, exceeded.Error())

			return
		}

		next(ctx)
	}
}

// clientKey identifies a client by IP and User-Agent without storing either.
func clientKey(ctx huma.Context) string {
	sum := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(sum[:])
}

// clientIP prefers proxy headers and falls back to the connection address.
func clientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := ctx.RemoteAddr()

	if ip, _, err := net.SplitHostPort(addr); err == nil {
		return ip
	}

	return addr
}
