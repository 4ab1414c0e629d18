package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"inkwell/api/internal/app"
	"inkwell/api/internal/authpw"
	"inkwell/api/internal/config"
	"inkwell/api/internal/email"
	"inkwell/api/internal/events"
	"inkwell/api/internal/export"
	"inkwell/api/internal/search"
	"inkwell/api/internal/session"
	"inkwell/api/internal/store"
	"inkwell/api/internal/upload"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "inkwell-api").Logger()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}
	dataStore := store.NewPostgresStore(db)

	// Refresh tokens live in Redis when it is reachable, otherwise in
	// Postgres alongside everything else.
	var sessions interface {
		SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
		LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
		RevokeRefreshSession(ctx context.Context, tokenHash string) error
	} = dataStore
	var redisStore *session.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, storing refresh sessions in postgres")
		} else {
			defer redisStore.Close()
			sessions = redisStore
		}
	}

	emailSvc := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if !emailSvc.IsConfigured() {
		log.Warn().Msg("smtp not configured, verification tokens returned in responses")
	}

	meili := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
	searchSvc := search.NewService(meili, search.NewPostgres(db), log)
	go searchSvc.ReindexAll(ctx)

	uploads, err := upload.NewService(ctx, upload.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init upload storage")
	}
	if !uploads.IsConfigured() {
		log.Warn().Msg("object storage not configured, image uploads disabled")
	}

	service := app.NewService(cfg, app.Deps{
		Store:    dataStore,
		Sessions: sessions,
		Accounts: authpw.NewService(dataStore, cfg.SocialProviders),
		Email:    emailSvc,
		Search:   searchSvc,
		Exports:  export.NewService(dataStore),
		Uploads:  uploads,
		Hub:      events.NewHub(),
		Log:      log,
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, log)
	httpServer.AddReadyCheck("postgres", db.PingContext)
	if redisStore != nil {
		httpServer.AddReadyCheck("redis", redisStore.Ping)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	meili.Close()
}
