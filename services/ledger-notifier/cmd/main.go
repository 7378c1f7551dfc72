package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	kafkautils "github.com/nimeshabuddhika/copytrade-ledger/pkg/kafka"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/configs"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-notifier/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// main runs the ledger notifier: it relays ledger events from Kafka to the configured webhook.
func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync()

	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The DLQ topic must exist before the first poison message arrives
	err = kafkautils.InitKafkaTopics(ctx, logger, kafkautils.KafkaConfig{
		BootstrapServers: cfg.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cfg.KafkaDLQTopic,
				NumPartitions:     1,
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cfg.KafkaDLQRetention.Milliseconds()),
				},
			},
		},
	})
	if err != nil {
		logger.Fatal("failed to initialize kafka topics", zap.Error(err))
	}

	consumer, err := services.NewEventConsumer(services.EventConsumerConfig{
		Context:  ctx,
		Logger:   logger,
		Config:   cfg,
		Notifier: services.NewWebhookNotifierFromConfig(logger, cfg),
	})
	if err != nil {
		logger.Fatal("failed to create event consumer", zap.Error(err))
	}
	stopConsumer, err := consumer.Start()
	if err != nil {
		logger.Fatal("failed to start event consumer", zap.Error(err))
	}

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics server started", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	// Handle graceful shutdown on SIGINT or SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	cancel()
	stopConsumer()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", zap.Error(err))
	}
	logger.Info("ledger notifier stopped")
}
