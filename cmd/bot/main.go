package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/open-builders/giveaway-bot/internal/common/logger"
	"github.com/open-builders/giveaway-bot/internal/config"
	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	apihttp "github.com/open-builders/giveaway-bot/internal/http"
	"github.com/open-builders/giveaway-bot/internal/metrics"
	"github.com/open-builders/giveaway-bot/internal/platform/db"
	"github.com/open-builders/giveaway-bot/internal/platform/discord"
	platformredis "github.com/open-builders/giveaway-bot/internal/platform/redis"
	pgrepo "github.com/open-builders/giveaway-bot/internal/repository/postgres"
	redisrepo "github.com/open-builders/giveaway-bot/internal/repository/redis"
	svc "github.com/open-builders/giveaway-bot/internal/service/giveaway"
	"github.com/open-builders/giveaway-bot/internal/utils/retry"
	"github.com/open-builders/giveaway-bot/internal/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("giveaway-bot", false)
		logger.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init("giveaway-bot", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := platformredis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		store  dg.Store
		lists  dg.Lists
		sqlDB  *sql.DB
		checks = []apihttp.Check{{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }}}
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		sqlDB, err = db.Open(ctx, cfg.Postgres.DatabaseURL, db.Options{
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer sqlDB.Close()
		if cfg.Postgres.AutoMigrate {
			if err := db.Migrate(ctx, sqlDB); err != nil {
				logger.Fatal().Err(err).Msg("Failed to migrate database")
			}
		}
		store = pgrepo.NewGiveawayRepository(sqlDB)
		lists = pgrepo.NewListsRepository(sqlDB)
		go recordPoolStats(ctx, sqlDB, m)
	default:
		store = redisrepo.NewGiveawayRepository(rdb.Client)
		lists = redisrepo.NewListsRepository(rdb.Client)
	}
	logger.Info().Str("backend", cfg.StoreBackend).Msg("Store initialized")

	publisher := workers.NewSignalPublisher(rdb.Client, cfg.Signals.Stream)
	bot, err := discord.NewBot(cfg.Discord.BotToken, cfg.Discord.Emoji, cfg.Discord.Color, publisher)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Discord session")
	}

	service := svc.New(store, bot.Messenger, redisrepo.NewLocker(rdb.Client, cfg.Giveaway.LockTTL), svc.Options{
		Retry:                    retry.Policy{Attempts: cfg.Retry.Attempts, BaseDelay: cfg.Retry.BaseDelay},
		SweepInterval:            cfg.Giveaway.SweepInterval,
		HistoryRetention:         cfg.Giveaway.HistoryRetention,
		MaxConcurrentResolutions: cfg.Giveaway.MaxConcurrentResolutions,
		ResolutionTimeout:        cfg.Giveaway.ResolutionTimeout,
		Emoji:                    cfg.Discord.Emoji,
		Metrics:                  m,
	})

	checks = append(checks, apihttp.Check{Name: cfg.StoreBackend, Ping: service.Ping})

	// the gateway must be up before overdue giveaways are announced
	if err := bot.Open(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open Discord gateway")
	}
	defer bot.Close()

	if err := service.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	worker := workers.NewSignalStreamWorker(rdb.Client, workers.StreamConfig{
		Stream:   cfg.Signals.Stream,
		Group:    cfg.Signals.ConsumerGroup,
		Consumer: cfg.Signals.ConsumerName,
	}, service, m)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	router := apihttp.NewRouter(apihttp.Deps{
		Giveaways:      service,
		Lists:          lists,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		Checks:         checks,
		AdminToken:     cfg.HTTP.AdminToken,
		CORSOrigins:    cfg.HTTP.CORSAllowedOrigins,
		Debug:          cfg.Debug,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	service.Stop()
	<-workerDone

	logger.Info().Msg("Bot exited")
}

func recordPoolStats(ctx context.Context, sqlDB *sql.DB, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := sqlDB.Stats()
			m.RecordDBPoolStats(st.OpenConnections, st.InUse, st.Idle, st.WaitCount, st.WaitDuration)
		}
	}
}
