// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage backends, sessions, identity verification, blob storage,
// rate limiting and observability settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevSessionSecret signs sessions when SESSION_SECRET is unset outside
// release mode. It must never be used in production.
const DevSessionSecret = "anonote-dev-secret-change-me"

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "anonote-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver        string // STORE_DRIVER: sqlite|postgres|mongo
	DBPath        string // DB_PATH (sqlite)
	DatabaseURL   string // DATABASE_URL (postgres)
	MongoURI      string // MONGO_URI
	MongoDatabase string // MONGO_DATABASE
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	Secret       string        // SESSION_SECRET
	Issuer       string        // SESSION_ISSUER
	CookieSecure bool          // COOKIE_SECURE
	AnonTTL      time.Duration // ANON_SESSION_TTL
	SigninTTL    time.Duration // SIGNIN_SESSION_TTL

	// DevSecret is true when Secret fell back to DevSessionSecret.
	DevSecret bool
}

// IdentityConfig points at the identity provider's token lookup endpoint.
// An empty VerifyURL disables token sign-in.
type IdentityConfig struct {
	VerifyURL string        // IDENTITY_VERIFY_URL
	APIKey    string        // IDENTITY_API_KEY
	Timeout   time.Duration // IDENTITY_TIMEOUT
}

// BlobConfig selects where uploaded pictures go.
type BlobConfig struct {
	Driver        string        // BLOB_DRIVER: disk|vercel
	Dir           string        // BLOB_DIR (disk)
	PublicBaseURL string        // BLOB_PUBLIC_BASE_URL (disk)
	APIURL        string        // BLOB_API_URL (vercel)
	Token         string        // BLOB_TOKEN (vercel)
	Timeout       time.Duration // BLOB_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	RequestTimeout    time.Duration // per-request deadline, except streams and picture uploads (BLOB_TIMEOUT)

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	Store           StoreConfig
	Session         SessionConfig
	Identity        IdentityConfig
	Blob            BlobConfig
	UploadMaxBytes  int64 // UPLOAD_MAX_BYTES
	MaxContentRunes int   // MAX_CONTENT_RUNES

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	ginMode := strings.ToLower(getenv("GIN_MODE", "release"))
	switch ginMode {
	case "debug", "release", "test":
	default:
		ginMode = "release"
	}
	release := ginMode == "release"

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           ginMode,
		RequestTimeout:    getdur("REQUEST_TIMEOUT", 10*time.Second),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// App
		Store: StoreConfig{
			Driver:        strings.ToLower(getenv("STORE_DRIVER", "sqlite")),
			DBPath:        getenv("DB_PATH", "anonote.db"),
			DatabaseURL:   getenv("DATABASE_URL", ""),
			MongoURI:      getenv("MONGO_URI", ""),
			MongoDatabase: getenv("MONGO_DATABASE", "anonote"),
		},
		Session: SessionConfig{
			Secret:       getenv("SESSION_SECRET", ""),
			Issuer:       getenv("SESSION_ISSUER", "anonote"),
			CookieSecure: getbool("COOKIE_SECURE", release),
			AnonTTL:      getdur("ANON_SESSION_TTL", 365*24*time.Hour),
			SigninTTL:    getdur("SIGNIN_SESSION_TTL", 7*24*time.Hour),
		},
		Identity: IdentityConfig{
			VerifyURL: getenv("IDENTITY_VERIFY_URL", ""),
			APIKey:    getenv("IDENTITY_API_KEY", ""),
			Timeout:   getdur("IDENTITY_TIMEOUT", 5*time.Second),
		},
		Blob: BlobConfig{
			Driver:        strings.ToLower(getenv("BLOB_DRIVER", "disk")),
			Dir:           getenv("BLOB_DIR", "uploads"),
			PublicBaseURL: getenv("BLOB_PUBLIC_BASE_URL", "/files"),
			APIURL:        getenv("BLOB_API_URL", "https://blob.vercel-storage.com"),
			Token:         getenv("BLOB_TOKEN", ""),
			Timeout:       getdur("BLOB_TIMEOUT", 30*time.Second),
		},
		UploadMaxBytes:  int64(getint("UPLOAD_MAX_BYTES", 5<<20)),
		MaxContentRunes: getint("MAX_CONTENT_RUNES", 500),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "anonote-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.Store.Driver {
	case "sqlite3":
		cfg.Store.Driver = "sqlite"
	case "postgresql", "pg":
		cfg.Store.Driver = "postgres"
	case "mongodb":
		cfg.Store.Driver = "mongo"
	}
	if cfg.Session.Secret == "" && !release {
		cfg.Session.Secret = DevSessionSecret
		cfg.Session.DevSecret = true
	}
	cfg.Blob.PublicBaseURL = strings.TrimRight(cfg.Blob.PublicBaseURL, "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, errors.New("REQUEST_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "mongo":
		if strings.TrimSpace(cfg.Store.MongoURI) == "" {
			return cfg, errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
		if strings.TrimSpace(cfg.Store.MongoDatabase) == "" {
			return cfg, errors.New("MONGO_DATABASE must not be empty")
		}
	default:
		return cfg, errors.New("STORE_DRIVER must be one of: sqlite, postgres, mongo")
	}
	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return cfg, errors.New("SESSION_SECRET is required in release mode")
	}
	if len(cfg.Session.Secret) < 16 {
		return cfg, errors.New("SESSION_SECRET must be at least 16 bytes")
	}
	if cfg.Session.AnonTTL <= 0 || cfg.Session.SigninTTL <= 0 {
		return cfg, errors.New("session TTLs must be > 0")
	}
	if cfg.Identity.Timeout <= 0 {
		return cfg, errors.New("IDENTITY_TIMEOUT must be > 0")
	}
	switch cfg.Blob.Driver {
	case "disk":
		if strings.TrimSpace(cfg.Blob.Dir) == "" {
			return cfg, errors.New("BLOB_DIR must not be empty")
		}
	case "vercel":
		if strings.TrimSpace(cfg.Blob.Token) == "" {
			return cfg, errors.New("BLOB_TOKEN is required when BLOB_DRIVER=vercel")
		}
	default:
		return cfg, errors.New("BLOB_DRIVER must be one of: disk, vercel")
	}
	if cfg.Blob.Timeout <= 0 {
		return cfg, errors.New("BLOB_TIMEOUT must be > 0")
	}
	if cfg.UploadMaxBytes <= 0 {
		return cfg, errors.New("UPLOAD_MAX_BYTES must be > 0")
	}
	if cfg.MaxContentRunes <= 0 {
		return cfg, errors.New("MAX_CONTENT_RUNES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// Addr returns the listen address for http.Server.
func (c Config) Addr() string { return ":" + strings.TrimPrefix(c.Port, ":") }

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

// getdur accepts Go durations plus a "d" suffix for whole days ("365d").
func getdur(k string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "d") {
		if n, err := strconv.Atoi(strings.TrimSuffix(v, "d")); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
