package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvStorageDriver     = "STORAGE_DRIVER"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBusinessOpeningTime = "BUSINESS_OPENING_TIME"
	EnvBusinessClosingTime = "BUSINESS_CLOSING_TIME"

	EnvLockDriver        = "LOCK_DRIVER"
	EnvLockTTL           = "LOCK_TTL"
	EnvLockWaitTimeout   = "LOCK_WAIT_TIMEOUT"
	EnvLockRetryInterval = "LOCK_RETRY_INTERVAL"

	EnvReservationEventsTopic = "RESERVATION_EVENTS_TOPIC"
	EnvReservationEventsDLQ   = "RESERVATION_EVENTS_DLQ_TOPIC"
	EnvAuditConsumerGroup     = "AUDIT_CONSUMER_GROUP"
)
