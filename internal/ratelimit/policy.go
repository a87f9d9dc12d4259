package ratelimit

import "time"

// LimitConfig is a maximum request count within a sliding window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder starts an empty policy.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{policy: &Policy{Limits: make(map[Scope][]LimitConfig)}}
}

// AddLimit appends a limit of max requests per window to scope.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: maxRequests})

	return b
}

// MaxWindow returns the longest window of any limit in the policy.
func (p *Policy) MaxWindow() time.Duration {
	var longest time.Duration

	for _, limits := range p.Limits {
		for _, l := range limits {
			longest = max(longest, l.Window)
		}
	}

	return longest
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultPolicy returns limits suited to the link API. Reads are cheap and
// every annotated request costs a model call.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 1000, time.Minute).
		AddLimit(ScopeRead, 600, time.Minute).
		AddLimit(ScopeWrite, 60, time.Minute).
		AddLimit(ScopeAnnotate, 10, time.Minute).
		AddLimit(ScopeAnnotate, 100, time.Hour).
		AddLimit(ScopeAnnotate, 500, 24*time.Hour).
		Build()
}
