package main

import (
	"deskbook/internal/reservations/admission"
	"deskbook/internal/reservations/events"
	"deskbook/internal/reservations/handler"
	"deskbook/internal/reservations/lock"
	"deskbook/internal/reservations/repository"
	"deskbook/internal/reservations/service"
	"deskbook/internal/reservations/validator"
	"deskbook/pkg/app"
	"deskbook/pkg/config"
	"deskbook/pkg/kafka"
	kafka_config "deskbook/pkg/kafka/config"
	kafka_middleware "deskbook/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.UsesMongo() {
		cfg.SetMongo()
	}

	cfg.Log.Info("Starting Reservations service")
	metrics := kafka_middleware.NewMetrics()
	publisher := initPublisher(cfg, metrics)
	reservationService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
	)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
		metrics.LogSnapshot(cfg.Log)
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.ReservationService {
	var repo repository.ReservationRepository
	if cfg.StorageDriver == config.DriverMongo {
		repo = repository.NewMongoReservationRepository(cfg)
	} else {
		repo = repository.NewMemoryReservationRepository()
	}

	lockOpts := lock.Options{
		TTL:           cfg.LockTTL,
		WaitTimeout:   cfg.LockWaitTimeout,
		RetryInterval: cfg.LockRetryInterval,
	}
	var locker lock.Locker
	if cfg.LockDriver == config.DriverMongo {
		locker = lock.NewMongoLocker(cfg)
	} else {
		locker = lock.NewMemoryLocker(lockOpts)
	}

	reservationService := service.NewReservationService(service.Dependencies{
		Repo:      repo,
		Engine:    admission.NewEngine(repo, locker, cfg.Log),
		Validator: validator.NewProposalValidator(cfg.Log),
		Publisher: publisher,
		Hours:     cfg.BusinessHours,
		Log:       cfg.Log,
	})

	cfg.Log.Info("Reservation service initialized",
		"storage_driver", cfg.StorageDriver,
		"lock_driver", cfg.LockDriver,
		"business_hours", cfg.BusinessHours.Opening.String()+"-"+cfg.BusinessHours.Closing.String(),
	)
	return reservationService
}

func initPublisher(cfg *config.Config, metrics *kafka_middleware.Metrics) events.Publisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)
	if !kafkaCfg.Enabled() {
		return events.NewNoopPublisher()
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.ReservationEventsDLQ, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	return events.NewKafkaPublisher(producer)
}
