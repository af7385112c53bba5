package kafka_config

import "time"

const (
	// Empty disables event publishing.
	DefaultKafkaBrokers = ""

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultConsumerStartOffset       = -2 // oldest, so audit replays history on a new group
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 10 * 1024 * 1024
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 0 // synchronous commits
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 30 * time.Second
	DefaultConsumerRebalanceTimeout  = 30 * time.Second
	DefaultConsumerMaxRetries        = 3
)
