// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the unsafe endpoints that
// create inbox messages and Q&A replies. It validates an Idempotency-Key
// request header, resolves the scope the key belongs to (for example
// "messages:<recipientId>"), asks a lookup whether that key already produced
// a resource, and annotates the request context so downstream handlers can:
//   - read the normalized key and scope (GetIdempotencyKey, IdempotencyScope)
//   - detect replayed requests and the stored resource (IsReplay, ReplayedResource)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Persistence stays behind the narrow IdempotencyLookup function type.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set on responses served from a stored result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemScope    = "idem.scope"
	ctxKeyIdemReplay   = "idem.replay"   // bool: true when a stored replay exists
	ctxKeyIdemResource = "idem.resource" // string: id of the stored resource
	ctxKeyRateBypass   = "rate.bypass"   // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyScope returns the scope resolved for this request, or "".
func IdempotencyScope(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemScope)
	return asString(v)
}

// IsReplay reports whether the middleware found a stored result for this
// request's (scope, key).
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ReplayedResource returns the resource id recorded for a replayed request.
func ReplayedResource(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemResource)
	return asString(v)
}

// ScopeFunc maps a request to its idempotency scope. An empty scope means
// the route does not take part in idempotency.
type ScopeFunc func(*gin.Context) string

// IdempotencyOptions configures header validation behavior for
// IdempotencyValidator. TTL enforcement belongs to the lookup.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
	// Scope resolves the scope. If nil, every request is out of scope.
	Scope ScopeFunc
}

// IdempotencyLookup reports the resource id a still-valid record holds for
// (scope, key) at now. Return ok=false when there is none; an error means the
// lookup itself failed and is treated as "no replay".
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (resourceID string, ok bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present) on
// in-scope routes, stashes key and scope in the request context and checks
// for a prior completed request via lookup.
//
// Behavior:
//   - Out-of-scope route or absent header: no-op.
//   - Header fails validation: responds 400 with a compact error body.
//   - Lookup finds a record: sets replay, resource and rate-bypass flags.
//
// The middleware never writes the replayed payload itself; handlers fetch
// the stored resource by id.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		if opts.Scope == nil {
			c.Next()
			return
		}
		scope := opts.Scope(c)
		key := c.GetHeader(HeaderIdempotencyKey)
		if scope == "" || key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			msg := "invalid Idempotency-Key"
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    msg,
				"error":      msg,
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if lookup != nil {
			id, ok, err := lookup(c.Request.Context(), scope, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			}
			if ok && id != "" {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyIdemResource, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// RouteScopes builds a ScopeFunc from a table of "METHOD route" to scope
// builders. The route is the registered Gin path (c.FullPath()).
//
//	RouteScopes(map[string]func(*gin.Context) string{
//	    "POST /api/messages/:userId": func(c *gin.Context) string { return "messages:" + c.Param("userId") },
//	})
func RouteScopes(table map[string]func(*gin.Context) string) ScopeFunc {
	return func(c *gin.Context) string {
		fn, ok := table[c.Request.Method+" "+c.FullPath()]
		if !ok {
			return ""
		}
		return fn(c)
	}
}
