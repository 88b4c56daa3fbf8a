package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autodialer/internal/campaign"
	"autodialer/internal/config"
	"autodialer/internal/content"
	"autodialer/internal/dispatch"
	"autodialer/internal/events"
	"autodialer/internal/httpapi"
	"autodialer/internal/telephony"
	"autodialer/pkg/logger"
	"autodialer/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Stores and services
	records := campaign.NewPostgresRepo(db)
	campaignSvc := campaign.NewService(records)
	eventsSvc := events.NewService(events.NewPostgresRepo(db))

	provider := telephony.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.RequestTimeout)
	if err := provider.HealthCheck(rootCtx); err != nil {
		// Dispatches will fail until the provider is reachable, but the
		// webhook and read paths still work; keep serving.
		log.Warn("twilio health check failed", "err", err)
	}

	limiter := dispatch.NewRedisLimiter(rdb, "dialer:bulk:inflight", cfg.Dialer.MaxConcurrent, time.Minute)
	dialer := dispatch.NewService(records, provider, limiter, dispatch.Options{
		FromNumber:        cfg.Twilio.FromNumber,
		VoiceURL:          cfg.VoiceURL(),
		StatusCallbackURL: cfg.StatusCallbackURL(),
	})

	var generator content.Generator
	if cfg.Gemini.APIKey != "" {
		generator = content.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	} else {
		log.Warn("gemini not configured; article generation disabled")
	}
	contentSvc := content.NewService(content.NewMemoryRepo(), generator)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r,
		httpapi.Handlers{
			Campaign: campaignSvc,
			Dialer:   dialer,
			Content:  contentSvc,
		},
		telephony.WebhookHandlers{
			Reconciler: campaignSvc,
			Deliveries: eventsSvc,
		},
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
