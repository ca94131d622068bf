package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/toggle-audit-pipeline/internal/api/handler"
	"github.com/xela07ax/toggle-audit-pipeline/internal/api/server"
	"github.com/xela07ax/toggle-audit-pipeline/internal/api/service"
	"github.com/xela07ax/toggle-audit-pipeline/internal/directory"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"github.com/xela07ax/toggle-audit-pipeline/internal/infra/auth"
	"github.com/xela07ax/toggle-audit-pipeline/internal/queue"
	"github.com/xela07ax/toggle-audit-pipeline/internal/repository/postgres"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Инфраструктура и ресурсы (все соединения создаются здесь
	// и передаются вниз — никакого неявного глобального состояния)
	if cfg.Database.URL == "" {
		logger.Fatal("database.url is required (DATABASE_URL)")
	}
	repo := postgres.NewAuditRepo(
		cfg.Database.URL,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	// Проверяем соединение с таймаутом
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := repo.Ping(pingCtx); err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}
	cancelPing()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	qc, err := queue.NewClient(cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to broker", zap.Error(err))
	}
	if err := qc.DeclareQueue(cfg.Queue.Name); err != nil {
		logger.Fatal("failed to declare queue", zap.Error(err))
	}

	// 3. Метрики
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	// Экспортируем метрики для Prometheus на отдельном порту
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics endpoint started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 4. Ключи и слои (Dependency Injection)
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("failed to load private key", zap.Error(err))
	}
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("failed to load public key", zap.Error(err))
	}

	dirClient := directory.NewClient(cfg.Directory, rdb, metrics, logger)
	publisher := queue.NewNotificationPublisher(qc, cfg.Queue.Name)

	auditService := service.NewAuditService(repo, dirClient, publisher, metrics, logger)
	authService := service.NewAuthService(repo, privateKey, cfg.Auth.TokenTTL)
	statsService := service.NewStatsService(repo, rdb, logger)

	apiServer := server.NewAPIServer(
		logger,
		auth.NewBaseValidator(publicKey),
		handler.NewAuthHandler(authService),
		handler.NewAuditHandler(auditService),
		handler.NewStatsHandler(statsService),
	)

	// 5. HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("audit API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("audit API stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := qc.Close(); err != nil {
		logger.Warn("broker close failed", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Warn("redis close failed", zap.Error(err))
	}
	if err := repo.Close(); err != nil {
		logger.Warn("database close failed", zap.Error(err))
	}
	logger.Info("audit API exited properly")
}
