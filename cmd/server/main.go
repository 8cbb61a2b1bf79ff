package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"readit/internal/config"
	"readit/internal/db"
	"readit/internal/handlers"
	"readit/internal/metrics"
	"readit/internal/middleware"
	"readit/internal/models"
	"readit/internal/router"
	"readit/internal/services"
	"readit/internal/utils"
	"readit/internal/votes"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "readit")
	log := middleware.Logger

	gdb, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := db.OpenRedis(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	var ledger votes.Ledger
	switch cfg.Votes.LedgerBackend {
	case "redis":
		if rdb == nil {
			log.Fatal().Msg("LEDGER_BACKEND=redis requires REDIS_URL")
		}
		ledger = votes.NewRedisLedger(rdb, cfg.Votes.BatchSize)
	case "sql", "":
		ledger = votes.NewGormLedger(gdb, cfg.Votes.BatchSize)
	default:
		log.Fatal().Str("backend", cfg.Votes.LedgerBackend).Msg("unknown ledger backend")
	}
	log.Info().Str("backend", cfg.Votes.LedgerBackend).Int("batch_size", cfg.Votes.BatchSize).Msg("vote ledger ready")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	ranking := services.NewRankingService(gdb, ledger, cfg.Votes.RankFlushInterval, log)
	ranking.Start(ctx)
	ranking.RefreshRecent(ctx, 7*24*time.Hour, 30)
	ranking.StartPeriodicRefresh(ctx, time.Hour, 7*24*time.Hour)

	publisher := services.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	subCache, err := utils.NewCache[models.Sub](1024, cfg.Server.SubCacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create sub cache")
	}

	voteSvc := votes.NewService(ledger, votes.NewGormItems(gdb), cfg.Votes.Timeout, log.With().Str("component", "votes").Logger())
	annotator := votes.NewAnnotator(ledger, log)

	var health *handlers.HealthHandler
	if rdb != nil {
		health = handlers.NewHealthHandler(gdb, rdb)
	} else {
		health = handlers.NewHealthHandler(gdb, nil)
	}

	h := &router.Handlers{
		Vote:    handlers.NewVoteHandler(gdb, voteSvc, annotator, ranking, publisher, log),
		Sub:     handlers.NewSubHandler(gdb, annotator, subCache, log),
		Post:    handlers.NewPostHandler(gdb, annotator, log),
		Health:  health,
		Metrics: handlers.Metrics(reg),
	}

	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	store := cookie.NewStore([]byte(cfg.Auth.SessionSecret))
	router.Setup(r, h, router.Options{
		DB:         gdb,
		JWTSecret:  cfg.Auth.JWTSecret,
		CORSOrigin: cfg.Server.CORSOrigin,
		Sessions:   sessions.Sessions("readit_session", store),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("readit server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	ranking.Stop()
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("close publisher")
	}
	closeRedis(rdb)
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
}

func closeRedis(rdb *redis.Client) {
	if rdb != nil {
		rdb.Close()
	}
}
