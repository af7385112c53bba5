package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"deskbook/internal/reservations/events"
	"deskbook/pkg/config"
	"deskbook/pkg/kafka"
	kafka_config "deskbook/pkg/kafka/config"
	kafka_middleware "deskbook/pkg/kafka/middleware"
)

const ServiceName = "reservations-audit"

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Fatal("Audit consumer requires KAFKA_BROKERS")
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ReservationEventsTopic,
		cfg.AuditConsumerGroup,
		cfg.ReservationEventsDLQ,
		events.NewAuditHandler(cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting reservation audit consumer",
		"topic", cfg.ReservationEventsTopic,
		"group_id", cfg.AuditConsumerGroup,
	)
	err = consumer.Start(ctx)
	if closeErr := consumer.Close(); closeErr != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", closeErr)
	}
	metrics.LogSnapshot(cfg.Log)
	if err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Fatal("Audit consumer stopped", "error", err)
	}
	cfg.Log.Info("Audit consumer stopped")
}
