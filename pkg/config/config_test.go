package config

import (
	"strings"
	"testing"
	"time"

	"deskbook/pkg/model"
)

func validConfig() *Config {
	return &Config{
		MongoURI:            DefaultMongoURI,
		MongoDatabaseName:   DefaultMongoDatabaseName,
		MongoConnTimeout:    DefaultMongoConnTimeout,
		StorageDriver:       DriverMongo,
		Port:                DefaultPort,
		RateLimitRequests:   DefaultRateLimitRequests,
		RateLimitWindow:     DefaultRateLimitWindow,
		RequestTimeout:      DefaultRequestTimeout,
		IdempotencyTTL:      DefaultIdempotencyTTL,
		MaxRequestSize:      DefaultMaxRequestSize,
		ReadTimeout:         DefaultReadTimeout,
		WriteTimeout:        DefaultWriteTimeout,
		IdleTimeout:         DefaultIdleTimeout,
		ShutdownTimeout:     DefaultShutdownTimeout,
		BusinessOpeningTime: DefaultBusinessOpeningTime,
		BusinessClosingTime: DefaultBusinessClosingTime,
		LockDriver:          DriverMongo,
		LockTTL:             DefaultLockTTL,
		LockWaitTimeout:     DefaultLockWaitTimeout,
		LockRetryInterval:   DefaultLockRetryInterval,
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := model.BusinessHours{Opening: model.NewTimeOfDay(0, 0), Closing: model.NewTimeOfDay(12, 0)}
	if cfg.BusinessHours != want {
		t.Errorf("BusinessHours = %+v, want %+v", cfg.BusinessHours, want)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = "99999" },
			wantMsg: "Port must be between 1 and 65535",
		},
		{
			name:    "bad business hours format",
			mutate:  func(c *Config) { c.BusinessOpeningTime = "9am" },
			wantMsg: "BusinessOpeningTime must be in HH:MM format",
		},
		{
			name: "closing before opening",
			mutate: func(c *Config) {
				c.BusinessOpeningTime = "21:00"
				c.BusinessClosingTime = "09:00"
			},
			wantMsg: "is before opening time",
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.StorageDriver = "postgres" },
			wantMsg: "StorageDriver must be",
		},
		{
			name: "mongo locks without mongo storage",
			mutate: func(c *Config) {
				c.StorageDriver = DriverMemory
				c.LockDriver = DriverMongo
			},
			wantMsg: "LockDriver mongo requires StorageDriver mongo",
		},
		{
			name:    "mongo uri scheme",
			mutate:  func(c *Config) { c.MongoURI = "postgres://user:secret@db" },
			wantMsg: "MongoURI must start with",
		},
		{
			name:    "lock wait longer than request",
			mutate:  func(c *Config) { c.LockWaitTimeout = time.Minute },
			wantMsg: "LockWaitTimeout",
		},
		{
			name:    "non-positive duration",
			mutate:  func(c *Config) { c.LockRetryInterval = 0 },
			wantMsg: "LockRetryInterval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_MemoryDriversSkipMongoChecks(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = DriverMemory
	cfg.LockDriver = DriverMemory
	cfg.MongoURI = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:hunter2@db:27017")
	if strings.Contains(got, "hunter2") {
		t.Errorf("password leaked: %s", got)
	}
}
