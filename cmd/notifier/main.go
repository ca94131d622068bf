package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/toggle-audit-pipeline/internal/infra"
	"github.com/xela07ax/toggle-audit-pipeline/internal/mailer"
	"github.com/xela07ax/toggle-audit-pipeline/internal/notifier"
	"github.com/xela07ax/toggle-audit-pipeline/internal/queue"
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

	// 2. Очередь: подключаемся и начинаем вычитывать доставки
	qc, err := queue.NewClient(cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to broker", zap.Error(err))
	}
	if err := qc.DeclareQueue(cfg.Queue.Name); err != nil {
		logger.Fatal("failed to declare queue", zap.Error(err))
	}
	deliveries, err := qc.Consume(cfg.Queue.Name)
	if err != nil {
		logger.Fatal("failed to start consuming", zap.Error(err))
	}

	// 3. Метрики
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics endpoint started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 4. Сборка воркера: SMTP-транспорт -> консьюмер -> насос пачек
	consumer := notifier.NewConsumer(mailer.New(cfg.Mail, logger), metrics, logger)
	pump := notifier.NewPump(deliveries, consumer, cfg.Queue.BatchSize, cfg.Queue.FlushInterval, logger)

	appCtx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pump.Run(appCtx)
	}()

	logger.Info("notifier started", zap.String("queue", cfg.Queue.Name))

	// 5. Graceful Shutdown: сначала останавливаем насос (он добьет
	// текущую пачку), потом закрываем соединение с брокером
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("notifier stopping...")

	cancel()
	wg.Wait()

	if err := qc.Close(); err != nil {
		logger.Warn("broker close failed", zap.Error(err))
	}
	logger.Info("notifier exited properly")
}
