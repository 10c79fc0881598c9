package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lureline/phishmetrics/internal/analytics"
	"github.com/lureline/phishmetrics/internal/config"
	"github.com/lureline/phishmetrics/internal/interaction"
	"github.com/lureline/phishmetrics/internal/report"
	"github.com/lureline/phishmetrics/internal/upstream"
	"github.com/lureline/phishmetrics/pkg/logger"
	"github.com/lureline/phishmetrics/pkg/postgres"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log = logger.WithService(log, "report-service")
	log.Info("Starting Report Service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.ReportPort),
	)

	db, err := postgres.New(postgres.Config{
		DSN:             cfg.Postgres.PostgresDSN(),
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	profileCache := upstream.NewProfileCache(rdb, cfg.Redis.ProfileCacheTTL, log)
	campaignClient := upstream.NewCampaignClient(cfg.Upstream.CampaignServiceURL, cfg.Upstream.CallTimeout, log)
	profileClient := upstream.NewProfileClient(cfg.Upstream.ProfileServiceURL, cfg.Upstream.CallTimeout, profileCache, log)

	eventRepo := interaction.NewRepository(db.DB, log)
	trendRepo := analytics.NewRepository(db.DB, log)

	reportService := report.NewService(eventRepo, campaignClient, profileClient, trendRepo, log)
	reportHandler := report.NewHandler(reportService, log)

	srv := &http.Server{
		Addr:         ":" + cfg.ReportPort,
		Handler:      reportHandler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.ReportPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("Shutdown timeout, forcing stop", zap.Error(err))
	}

	log.Info("Report Service stopped")
}
