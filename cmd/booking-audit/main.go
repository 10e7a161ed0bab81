package main

import (
	"context"
	"errors"
	"os/signal"
	"staybook/internal/audit"
	"staybook/pkg/config"
	"staybook/pkg/docstore/backend"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"syscall"
	"time"
)

const (
	ServiceName    = "booking-audit"
	metricsInterval = time.Minute
)

func main() {
	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to open document store", "error", err)
	}
	recorder := audit.NewRecorder(store, cfg)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.BookingEventsTopic,
		kafkaCfg.AuditGroupID,
		kafkaCfg.BookingEventsDLQ,
		recorder.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events consumer", "error", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close consumer", "error", err)
		}
	}()

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(metrics.ConsumerMiddleware())
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}
	go metrics.Report(ctx, cfg.Log, metricsInterval)

	cfg.Log.Info("Starting booking audit consumer",
		"topic", kafkaCfg.BookingEventsTopic,
		"group_id", kafkaCfg.AuditGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Booking audit consumer stopped", "error", err)
	}

	metrics.Log(cfg.Log)
	cfg.Log.Info("Booking audit consumer stopped")
}
