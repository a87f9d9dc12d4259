package ratelimit

import (
	"context"
	"fmt"
)

// PolicyLimiter enforces a Policy, or per-endpoint limits, against a Store.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Check records a request by client under every scope and returns the first
// limit exceeded, or nil when the request is allowed.
func (l *PolicyLimiter) Check(ctx context.Context, client string, scopes []Scope) (*Exceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", client, scope, limit.Window.Milliseconds())

			exceeded, err := l.record(ctx, key, limit)
			if err != nil || exceeded != nil {
				if exceeded != nil {
					exceeded.Scope = scope
				}

				return exceeded, err
			}
		}
	}

	return nil, nil
}

// CheckLimits is Check for endpoint-specific limits. Counters are shared by
// every request matching route, whatever its path parameters.
func (l *PolicyLimiter) CheckLimits(ctx context.Context, client, route string, limits []LimitConfig) (*Exceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:route:%s:%d", client, route, limit.Window.Milliseconds())

		if exceeded, err := l.record(ctx, key, limit); err != nil || exceeded != nil {
			return exceeded, err
		}
	}

	return nil, nil
}

func (l *PolicyLimiter) record(ctx context.Context, key string, limit LimitConfig) (*Exceeded, error) {
	count, err := l.store.Record(ctx, key, limit.Window)
	if err != nil {
		return nil, err
	}

	if count > limit.Max {
		return &Exceeded{Limit: limit, Count: count}, nil
	}

	return nil, nil
}
