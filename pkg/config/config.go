package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"

	"deskbook/pkg/client"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	StorageDriver     string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BusinessOpeningTime string
	BusinessClosingTime string
	BusinessHours       model.BusinessHours

	LockDriver        string
	LockTTL           time.Duration
	LockWaitTimeout   time.Duration
	LockRetryInterval time.Duration

	ReservationEventsTopic string
	ReservationEventsDLQ   string
	AuditConsumerGroup     string

	Log    *logger.Logger
	Client *client.Client
}

var (
	timeOfDayRegex   = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	mongoSchemeRegex = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex  = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

// Load reads configuration from the environment, after merging a .env file from the
// working directory if one exists. Invalid configuration is fatal.
func Load(serviceName string) *Config {
	dotenvErr := godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		StorageDriver:     getEnvStr(EnvStorageDriver, DefaultStorageDriver),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BusinessOpeningTime: getEnvStr(EnvBusinessOpeningTime, DefaultBusinessOpeningTime),
		BusinessClosingTime: getEnvStr(EnvBusinessClosingTime, DefaultBusinessClosingTime),

		LockDriver:        getEnvStr(EnvLockDriver, DefaultLockDriver),
		LockTTL:           getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockWaitTimeout:   getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		LockRetryInterval: getEnvDuration(EnvLockRetryInterval, DefaultLockRetryInterval),

		ReservationEventsTopic: getEnvStr(EnvReservationEventsTopic, DefaultReservationEventsTopic),
		ReservationEventsDLQ:   getEnvStr(EnvReservationEventsDLQ, DefaultReservationEventsDLQ),
		AuditConsumerGroup:     getEnvStr(EnvAuditConsumerGroup, DefaultAuditConsumerGroup),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read .env file", "error", dotenvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// UsesMongo reports whether any component is configured to talk to MongoDB.
func (cfg *Config) UsesMongo() bool {
	return cfg.StorageDriver == DriverMongo || cfg.LockDriver == DriverMongo
}

// Validate checks every setting and reports all problems at once. On success it
// also fills BusinessHours from the opening and closing strings.
func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if !validDriver(cfg.StorageDriver) {
		errs = append(errs, fmt.Sprintf("StorageDriver must be %q or %q, got: %s", DriverMongo, DriverMemory, cfg.StorageDriver))
	}
	if !validDriver(cfg.LockDriver) {
		errs = append(errs, fmt.Sprintf("LockDriver must be %q or %q, got: %s", DriverMongo, DriverMemory, cfg.LockDriver))
	}
	if cfg.StorageDriver == DriverMemory && cfg.LockDriver == DriverMongo {
		errs = append(errs, "LockDriver mongo requires StorageDriver mongo")
	}

	if cfg.UsesMongo() {
		if cfg.MongoURI == "" {
			errs = append(errs, "MongoURI cannot be empty")
		} else if !mongoSchemeRegex.MatchString(cfg.MongoURI) {
			errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errs = append(errs, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	hoursValid := true
	if !timeOfDayRegex.MatchString(cfg.BusinessOpeningTime) {
		hoursValid = false
		errs = append(errs, fmt.Sprintf("BusinessOpeningTime must be in HH:MM format (00:00-23:59), got: %s", cfg.BusinessOpeningTime))
	}
	if !timeOfDayRegex.MatchString(cfg.BusinessClosingTime) {
		hoursValid = false
		errs = append(errs, fmt.Sprintf("BusinessClosingTime must be in HH:MM format (00:00-23:59), got: %s", cfg.BusinessClosingTime))
	}
	if hoursValid {
		hours, err := model.ParseBusinessHours(cfg.BusinessOpeningTime, cfg.BusinessClosingTime)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			cfg.BusinessHours = hours
		}
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"LockTTL", cfg.LockTTL},
		{"LockWaitTimeout", cfg.LockWaitTimeout},
		{"LockRetryInterval", cfg.LockRetryInterval},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.LockWaitTimeout > cfg.RequestTimeout {
		errs = append(errs, fmt.Sprintf("LockWaitTimeout (%s) must not exceed RequestTimeout (%s)", cfg.LockWaitTimeout, cfg.RequestTimeout))
	}
	if cfg.LockTTL < cfg.WriteTimeout {
		errs = append(errs, fmt.Sprintf("LockTTL (%s) must be at least WriteTimeout (%s)", cfg.LockTTL, cfg.WriteTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"storage_driver", cfg.StorageDriver,
		"lock_driver", cfg.LockDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"business_opening_time", cfg.BusinessOpeningTime,
		"business_closing_time", cfg.BusinessClosingTime,
		"lock_ttl", cfg.LockTTL,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"lock_retry_interval", cfg.LockRetryInterval,
		"reservation_events_topic", cfg.ReservationEventsTopic,
	)
}

func validDriver(driver string) bool {
	return driver == DriverMongo || driver == DriverMemory
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
