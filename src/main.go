package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-link-server/src/api"
	"finance-link-server/src/config"
	"finance-link-server/src/db"
	dbsql "finance-link-server/src/db/sql"
	"finance-link-server/src/handlers"
	"finance-link-server/src/logger"
	"finance-link-server/src/plaid"
	"finance-link-server/src/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plaidClient, err := plaid.NewPlaidClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("Plaid client setup failed")
	}
	gateway := plaid.NewGateway(plaidClient, plaid.GatewayConfig{
		ClientName:   cfg.PlaidClientName,
		Language:     cfg.PlaidLanguage,
		Products:     cfg.PlaidProducts,
		CountryCodes: cfg.PlaidCountryCodes,
		WebhookURL:   cfg.PlaidWebhookURL,
		LookbackDays: cfg.TransactionsLookbackDays,
	})

	cache, err := db.NewCache(cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Cache setup failed")
	}
	defer cache.Close()

	var store handlers.ItemStore = db.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("DB connection failed")
		}
		defer pool.Close()

		if err := db.RunMigrations(pool); err != nil {
			log.Fatal().Err(err).Msg("DB migration failed")
		}
		store = dbsql.NewPostgresStore(pool)
		log.Info().Msg("Persisting linked items to Postgres")
	} else {
		log.Warn().Msg("DATABASE_URL not set, linked items are kept in memory")
	}

	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Sandbox:        cfg.Sandbox(),
	}, log, gateway, cache, store, webhook.NewVerifier(gateway))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("plaid_env", cfg.PlaidEnv).Msg("API server running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}
