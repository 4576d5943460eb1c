// Command server runs the AnoNote HTTP API.
//
//	@title						AnoNote API
//	@version					1.0
//	@description				Anonymous inbox, global chat and Q&A board.
//	@BasePath					/api
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						userId
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/blob"
	"github.com/tbourn/anonote-backend/internal/config"
	"github.com/tbourn/anonote-backend/internal/docstore"
	"github.com/tbourn/anonote-backend/internal/feed"
	httpapi "github.com/tbourn/anonote-backend/internal/http"
	"github.com/tbourn/anonote-backend/internal/observability"
	"github.com/tbourn/anonote-backend/internal/repo"
	"github.com/tbourn/anonote-backend/internal/services"
	"github.com/tbourn/anonote-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

const (
	feedBuffer       = 64
	purgeInterval    = time.Hour
	shutdownDeadline = 15 * time.Second
)

// backend is an opened store plus its lifecycle hooks.
type backend struct {
	stores services.Stores
	ping   func(context.Context) error
	close  func(context.Context) error
	// purge removes expired idempotency records; nil when the store expires
	// them itself.
	purge func(context.Context, time.Time) (int64, error)
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	appVersion := sysutil.Version(version)
	if cfg.Session.DevSecret {
		log.Warn().Msg("SESSION_SECRET not set; using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	be, err := openBackend(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("store open failed")
	}

	blobs, err := openBlobs(cfg.Blob)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Blob.Driver).Msg("blob store setup failed")
	}

	sessions, err := auth.NewSessionCodec(cfg.Session.Secret, cfg.Session.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("session codec setup failed")
	}

	var verifier auth.Verifier = auth.DisabledVerifier{}
	if cfg.Identity.VerifyURL != "" {
		verifier = auth.NewIdentityToolkitVerifier(cfg.Identity.VerifyURL, cfg.Identity.APIKey, cfg.Identity.Timeout)
	}

	broker := feed.NewBroker(feedBuffer)

	if be.purge != nil {
		go purgeLoop(ctx, be.purge)
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Stores:   be.stores,
		Sessions: sessions,
		Verifier: verifier,
		Blobs:    blobs,
		Feed:     broker,
		Ping:     be.ping,
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout, // streams lift it per connection
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Str("store", cfg.Store.Driver).
			Str("blob", cfg.Blob.Driver).
			Bool("identity", cfg.Identity.VerifyURL != "").
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()

	// Closing the broker ends open streams so Shutdown does not wait on them.
	broker.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := be.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

// openBackend connects the configured store and prepares its schema.
func openBackend(ctx context.Context, sc config.StoreConfig) (*backend, error) {
	switch sc.Driver {
	case "mongo":
		client, err := docstore.New(ctx, sc.MongoURI, sc.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(context.Background())
			return nil, err
		}
		s := client.Store()
		return &backend{
			stores: services.Stores{Users: s, Messages: s, Chat: s, Questions: s, Idempotency: s},
			ping:   client.Ping,
			close:  client.Close,
		}, nil

	case "postgres":
		db, err := repo.OpenPostgres(sc.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return sqlBackend(db)

	default:
		db, err := repo.OpenSQLite(sc.DBPath)
		if err != nil {
			return nil, err
		}
		return sqlBackend(db)
	}
}

func sqlBackend(db *gorm.DB) (*backend, error) {
	if err := observability.InstrumentDB(db); err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	s := repo.NewStore(db)
	return &backend{
		stores: services.Stores{Users: s, Messages: s, Chat: s, Questions: s, Idempotency: s},
		ping:   sqlDB.PingContext,
		close:  func(context.Context) error { return sqlDB.Close() },
		purge: func(ctx context.Context, now time.Time) (int64, error) {
			return repo.PurgeExpiredIdempotency(ctx, db, now)
		},
	}, nil
}

func openBlobs(bc config.BlobConfig) (blob.Store, error) {
	if bc.Driver == "vercel" {
		return blob.NewVercelStore(bc.APIURL, bc.Token, bc.Timeout), nil
	}
	if err := os.MkdirAll(bc.Dir, 0o755); err != nil {
		return nil, err
	}
	disk, err := blob.NewDiskStore(bc.Dir, bc.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return disk, nil
}

// purgeLoop drops expired idempotency records at startup and then hourly.
func purgeLoop(ctx context.Context, purge func(context.Context, time.Time) (int64, error)) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		if n, err := purge(ctx, time.Now()); err != nil {
			log.Warn().Err(err).Msg("idempotency purge failed")
		} else if n > 0 {
			log.Debug().Int64("removed", n).Msg("idempotency purge")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
