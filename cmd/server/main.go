package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"alias-sync-service/internal/api"
	"alias-sync-service/internal/catalog"
	"alias-sync-service/internal/config"
	"alias-sync-service/internal/engine"
	"alias-sync-service/internal/interfaces"
	redisStore "alias-sync-service/internal/redis"
	"alias-sync-service/internal/repository"
	"alias-sync-service/internal/shopify"
)

// setupLogging configures structured logging
func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// loadConfiguration loads and validates config and sync rules
func loadConfiguration() (*config.Config, *config.Rules) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load sync rules")
	}

	log.Info().
		Int("alias_groups", len(rules.AliasGroups)).
		Int("sets", len(rules.Sets)).
		Bool("write_enabled", cfg.WriteEnabled).
		Int64("allowed_location_id", cfg.AllowedLocationID).
		Msg("Configuration loaded")

	return cfg, rules
}

// buildCatalogIndex builds the SKU index; the server must not start serving
// with a partial or empty index
func buildCatalogIndex(ctx context.Context, client *shopify.Client) *catalog.Index {
	buildCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	index, err := catalog.BuildIndex(buildCtx, client)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build catalog index")
	}
	return index
}

// initializeStores selects the shared Redis store or the in-process store
func initializeStores(ctx context.Context, cfg *config.Config) (interfaces.LevelStore, interfaces.DedupStore, func()) {
	// Retention only bounds memory; freshness is decided per read.
	retention := 10 * cfg.DedupWindow
	if ttl := 10 * cfg.CacheTTL; ttl > retention {
		retention = ttl
	}

	if cfg.UseRedisStore() {
		store := redisStore.NewStore(cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisClusterMode, retention, cfg.RedisKeyPrefix)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Strs("redis_addrs", cfg.RedisAddrs).Msg("Redis store connected")

		return store, store, func() { store.Close() }
	}

	store := engine.NewMemoryStore()
	sweepCtx, cancel := context.WithCancel(ctx)
	go store.RunSweeper(sweepCtx, cfg.SweepInterval, retention)

	return store, store, cancel
}

// initializeJournal connects the Postgres sync journal when configured
func initializeJournal(ctx context.Context, cfg *config.Config) (interfaces.SyncJournal, api.JournalReader, func()) {
	if !cfg.JournalEnabled() {
		log.Info().Msg("Sync journal disabled")
		return repository.NopJournal{}, nil, func() {}
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	journal := repository.NewJournalRepository(db)
	if err := journal.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare sync journal schema")
	}
	log.Info().Msg("Sync journal connected")

	return journal, journal, func() { db.Close() }
}

// createEngine wires the reconciliation engine
func createEngine(
	client *shopify.Client,
	rules *config.Rules,
	index *catalog.Index,
	levels interfaces.LevelStore,
	dedups interfaces.DedupStore,
	journal interfaces.SyncJournal,
	cfg *config.Config,
) *engine.Engine {
	opts := engine.Options{
		WriteEnabled:      cfg.WriteEnabled,
		AllowedLocationID: cfg.AllowedLocationID,
		WriteDelay:        cfg.WriteDelay,
		CacheTTL:          cfg.CacheTTL,
		DedupWindow:       cfg.DedupWindow,
	}

	eng, err := engine.New(client, rules, index, levels, dedups, journal, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reconciliation engine")
	}
	return eng
}

// startHTTPServer starts the HTTP server
func startHTTPServer(cfg *config.Config, handler *api.WebhookHandler) *http.Server {
	router := handler.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%s", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("address", serverAddr).Msg("Sync service HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	return server
}

// gracefulShutdown handles graceful shutdown of the service
func gracefulShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down sync service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Sync service stopped")
}

func main() {
	setupLogging()
	log.Info().Msg("Starting alias sync service...")

	ctx := context.Background()

	cfg, rules := loadConfiguration()

	client := shopify.NewClient(cfg.ShopDomain, cfg.AccessToken, cfg.APIVersion)
	index := buildCatalogIndex(ctx, client)

	levels, dedups, closeStores := initializeStores(ctx, cfg)
	defer closeStores()

	journal, journalReader, closeJournal := initializeJournal(ctx, cfg)
	defer closeJournal()

	eng := createEngine(client, rules, index, levels, dedups, journal, cfg)
	handler := api.NewWebhookHandler(eng, journalReader, cfg.WebhookSecret)

	server := startHTTPServer(cfg, handler)

	gracefulShutdown(server)
}
