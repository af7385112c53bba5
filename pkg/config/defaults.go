package config

import "time"

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "deskbook"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultStorageDriver     = DriverMongo

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 64 * 1024

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBusinessOpeningTime = "00:00"
	DefaultBusinessClosingTime = "12:00"

	DefaultLockDriver        = DriverMongo
	DefaultLockTTL           = 30 * time.Second
	DefaultLockWaitTimeout   = 3 * time.Second
	DefaultLockRetryInterval = 25 * time.Millisecond

	DefaultReservationEventsTopic = "reservation-events"
	DefaultReservationEventsDLQ   = "dlq-reservation-events"
	DefaultAuditConsumerGroup     = "reservation-audit"

	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 100
)
