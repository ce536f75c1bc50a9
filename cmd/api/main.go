package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/middleware"
	"server/internal/session"
	"server/internal/storage"
	"server/internal/store"
	"server/internal/transcriber"
	"server/internal/upload"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Session state lives in Postgres when DATABASE_URL is set, otherwise in
	// memory for the lifetime of the process.
	var kv store.KV = store.NewMemory()
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		pg := store.NewPostgres(dbpool)
		if err := pg.Init(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare session schema")
		}
		kv = pg
	}

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open staging storage")
	}

	sess := session.NewManager(kv, logger)
	if err := sess.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load session state")
	}

	client := transcriber.NewClient(transcriber.Options{
		BaseURL: cfg.BackendBaseURL,
		Logger:  &logger,
	})

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(logger, sess, upload.NewGate(files, logger), client, cfg.PollInterval, cfg.JWTSecret)

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLanguage: cfg.DefaultLanguage,
		CountryLookup:   countryLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("backend", client.BaseURL()).Msgf("gateway listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != os.ErrClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
