package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/samber/lo"
)

// Scope groups requests that share a set of limits.
type Scope string

const (
	// ScopeGlobal applies to every request.
	ScopeGlobal Scope = "global"
	// ScopeRead covers safe methods.
	ScopeRead Scope = "read"
	// ScopeWrite covers mutating methods.
	ScopeWrite Scope = "write"
	// ScopeAnnotate covers requests that call the annotation model.
	ScopeAnnotate Scope = "annotate"
)

// MetadataKey is the huma operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

var readMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}

// EndpointConfig tunes rate limiting for one operation.
//
// Limits, when set, replace the policy for the endpoint entirely and Scope
// is ignored. Otherwise Scope, when set, replaces the read/write scope
// derived from the method.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// ConfigFor returns the EndpointConfig attached to op.
func ConfigFor(op *huma.Operation) (EndpointConfig, bool) {
	if op == nil || op.Metadata == nil {
		return EndpointConfig{}, false
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)

	return cfg, ok
}

// Scopes returns the scopes a request falls under: always ScopeGlobal, plus
// the operation's configured scope or the scope implied by method.
func Scopes(op *huma.Operation, method string) []Scope {
	if cfg, ok := ConfigFor(op); ok && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	if lo.Contains(readMethods, method) {
		return []Scope{ScopeGlobal, ScopeRead}
	}

	return []Scope{ScopeGlobal, ScopeWrite}
}
