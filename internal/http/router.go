// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// sessions, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/anonote-backend/docs"
	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/blob"
	"github.com/tbourn/anonote-backend/internal/config"
	"github.com/tbourn/anonote-backend/internal/feed"
	"github.com/tbourn/anonote-backend/internal/http/handlers"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/services"
)

// multipartOverhead is added to the upload cap to size the body limit.
const multipartOverhead = 64 << 10

// Deps are the runtime dependencies built by cmd/server.
type Deps struct {
	// Stores is one backend's repositories (repo.Store or docstore.Store).
	Stores services.Stores
	// Sessions signs and verifies the session cookie.
	Sessions *auth.SessionCodec
	// Verifier checks identity-provider tokens; nil disables token sign-in.
	Verifier auth.Verifier
	// Blobs stores uploaded profile pictures.
	Blobs blob.Store
	// Feed fans out live chat and Q&A events; nil disables the streams.
	Feed *feed.Broker
	// Ping reports backend health for /health; nil means always healthy.
	Ping func(context.Context) error
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), sessions,
// idempotency and rate limiting, CORS and security headers, health, metrics
// and docs endpoints, and then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (streams and /metrics excluded)
//  8. Session: resolve the caller from the cookie once
//  9. Request timeout (streams and picture uploads excluded)
//  10. Idempotency validator (before rate limiter to allow bypass on replay)
//  11. Rate limiter (per user/IP, bypass on replay)
//  12. CORS and Security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	apiBase := cfg.APIBasePath
	if apiBase == "/" {
		apiBase = ""
	}
	streams := []string{apiBase + handlers.ChatStreamPath, apiBase + handlers.QuestionsStreamPath}
	// Routes that may push a picture to the blob store. The blob client is
	// bounded by BLOB_TIMEOUT instead of REQUEST_TIMEOUT.
	uploads := []string{apiBase + "/upload-profile", apiBase + "/auth/signin"}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit, sized for a profile picture upload
	r.Use(limitBody(uploadLimit(cfg) + multipartOverhead))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics(streams...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(append([]string{"/metrics"}, streams...))))

	// 8) Caller identity from the signed session cookie
	r.Use(middleware.Session(d.Sessions))

	// 9) Per-request deadline
	r.Use(middleware.Timeout(cfg.RequestTimeout, append(uploads, streams...)...))

	// 10) Idempotency validation (before rate limiting)
	var lookup middleware.IdempotencyLookup
	if d.Stores.Idempotency != nil {
		lookup = handlers.ReplayLookup(d.Stores.Idempotency)
	}
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope:  handlers.IdempotencyScopes(apiBase),
		},
		lookup,
	))

	// 11) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP(), "/health", "/metrics")
	r.Use(rl.Handler())

	// 12) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		CacheControl: "private, no-cache",
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", health(d.Ping))

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Locally stored uploads
	if cfg.Blob.Driver == "disk" && strings.HasPrefix(cfg.Blob.PublicBaseURL, "/") {
		r.Static(cfg.Blob.PublicBaseURL, cfg.Blob.Dir)
	}

	// Dependency injection: services ← stores/blobs/feed
	h := handlers.New(buildDeps(d, cfg))

	// Public API
	h.Register(groupWithPrefix(r, apiBase))
}

// buildDeps constructs the application services over d's backends.
func buildDeps(d Deps, cfg config.Config) handlers.Deps {
	var (
		pub services.Publisher
		sub handlers.FeedSubscriber
	)
	if d.Feed != nil {
		pub, sub = d.Feed, d.Feed
	}

	profiles := services.NewProfileService(d.Stores.Users, d.Blobs)
	profiles.MaxUploadBytes = uploadLimit(cfg)

	messages := services.NewMessageService(d.Stores.Messages, d.Stores.Users)
	chat := services.NewChatService(d.Stores.Chat, d.Stores.Users, pub)
	questions := services.NewQuestionService(d.Stores.Questions, d.Stores.Users, pub)
	if n := cfg.MaxContentRunes; n > 0 {
		messages.MaxContentRunes = n
		chat.MaxContentRunes = n
		questions.MaxContentRunes = n
	}

	var idem handlers.IdempotencyRecorder
	if d.Stores.Idempotency != nil {
		idem = d.Stores.Idempotency
	}

	return handlers.Deps{
		Profiles:  profiles,
		Messages:  messages,
		Chat:      chat,
		Questions: questions,
		Sessions:  d.Sessions,
		Verifier:  d.Verifier,
		Cookie: handlers.CookieOptions{
			Secure:    cfg.Session.CookieSecure,
			AnonTTL:   cfg.Session.AnonTTL,
			SigninTTL: cfg.Session.SigninTTL,
		},
		Idempotency:    idem,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Feed:           sub,
	}
}

func uploadLimit(cfg config.Config) int64 {
	if cfg.UploadMaxBytes > 0 {
		return cfg.UploadMaxBytes
	}
	return services.DefaultMaxUploadBytes
}

// corsMiddleware returns the CORS chain. With no allowlist every origin is
// accepted without credentials; with an allowlist the request Origin is
// echoed and credentials (the session cookie) are allowed.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed, "Retry-After"}
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    exposeHeaders,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// health reports liveness, and backend reachability when ping is set.
func health(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
