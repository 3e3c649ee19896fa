package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/autoreplyx/backend/internal/api"
	"github.com/autoreplyx/backend/internal/metrics"
	"github.com/autoreplyx/backend/internal/models"
	"github.com/autoreplyx/backend/internal/queue"
	"github.com/autoreplyx/backend/internal/repository"
	"github.com/autoreplyx/backend/internal/sender"
	"github.com/autoreplyx/backend/internal/service"
	"github.com/autoreplyx/backend/internal/worker"
	"github.com/autoreplyx/backend/pkg/config"
	"github.com/autoreplyx/backend/pkg/logger"
	"github.com/autoreplyx/backend/pkg/router"
	"github.com/autoreplyx/backend/shared/observability"
	"github.com/autoreplyx/backend/shared/redis"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("starting message worker", "env", cfg.Server.Env)

	shutdownTracing := observability.SetupTracing("autoreplyx-worker")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Channel{}, &models.AutoRule{}, &models.MessageLog{}); err != nil {
		log.LogError(err, "failed to migrate database")
		os.Exit(1)
	}

	// Initialize Redis
	store := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer store.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		pingCancel()
		log.LogError(err, "failed to connect to redis", "addr", cfg.Redis.Addr)
		os.Exit(1)
	}
	pingCancel()

	// Repositories
	users := repository.NewGormUserRepository(db)
	channels := repository.NewGormChannelRepository(db)
	rules := repository.NewGormRuleRepository(db)
	logs := repository.NewGormMessageLogRepository(db)

	// Queue and services
	q := queue.New(store, cfg.Worker.QueueKey)
	ruleSvc := service.NewRuleService(rules, store, cfg.Server.BaseURL, log)
	aiSvc := service.NewAIService(service.AIConfig{
		APIKey:    cfg.AI.GeminiAPIKey,
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
		CacheTTL:  cfg.AI.CacheTTL,
		Timeout:   cfg.AI.Timeout,
	}, store, log)

	senders := sender.NewRegistry(
		sender.NewInstagramSender(cfg.Channels.InstagramAPIURL, log),
		sender.NewKakaoSender(cfg.Channels.KakaoAPIURL, log),
		sender.NewNaverSender(cfg.Channels.NaverAPIURL, log),
	)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewPrometheusCollector(registry)

	processor := worker.NewProcessor(worker.Config{
		PoolSize:    cfg.Worker.PoolSize,
		PollTimeout: cfg.Worker.PollTimeout,
		MaxRetries:  cfg.Worker.MaxRetries,
	}, q, users, channels, logs, ruleSvc, aiSvc, senders, collector, log)

	sweeper := worker.NewSweeper(q, cfg.Worker.SweepInterval, collector, log)

	// Run the pipeline under a cancellable context
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	// HTTP surface: health, metrics and webhook ingestion
	r := router.New(cfg, log)
	webhook := api.NewWebhookHandler(q, channels, cfg.Channels.InstagramVerifyToken, log)
	r.SetupRoutes(webhook, registry)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("http server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "http server failed")
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "http server forced to shutdown")
	}

	// Stop the workers; in-flight messages run to completion
	cancel()
	wg.Wait()

	log.Info("worker exited gracefully")
}
