package kafka_middleware

import (
	"context"
	"maps"
	"sync"
	"time"

	"deskbook/pkg/kafka"
	"deskbook/pkg/logger"
)

const unknownEventType = "unknown"

// Counters tracks one direction (publish or consume) for a single event type.
type Counters struct {
	Succeeded     int64
	Failed        int64
	DurationTotal time.Duration
}

// AvgDuration returns the mean handling time across succeeded and failed calls.
func (c Counters) AvgDuration() time.Duration {
	total := c.Succeeded + c.Failed
	if total == 0 {
		return 0
	}
	return c.DurationTotal / time.Duration(total)
}

// Metrics holds Kafka counters keyed by event type.
type Metrics struct {
	mu        sync.Mutex
	published map[string]Counters
	consumed  map[string]Counters
}

func NewMetrics() *Metrics {
	return &Metrics{
		published: make(map[string]Counters),
		consumed:  make(map[string]Counters),
	}
}

// Snapshot is a point-in-time copy of Metrics.
type Snapshot struct {
	Published map[string]Counters
	Consumed  map[string]Counters
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Published: maps.Clone(m.published),
		Consumed:  maps.Clone(m.consumed),
	}
}

func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.published)
	clear(m.consumed)
}

// LogSnapshot writes one line per event type and direction.
func (m *Metrics) LogSnapshot(log *logger.Logger) {
	snap := m.Snapshot()
	for eventType, c := range snap.Published {
		log.Info("Kafka publish metrics",
			"event_type", eventType,
			"published", c.Succeeded,
			"failed", c.Failed,
			"avg_duration_ms", c.AvgDuration().Milliseconds(),
		)
	}
	for eventType, c := range snap.Consumed {
		log.Info("Kafka consume metrics",
			"event_type", eventType,
			"consumed", c.Succeeded,
			"failed", c.Failed,
			"avg_duration_ms", c.AvgDuration().Milliseconds(),
		)
	}
}

func (m *Metrics) record(into map[string]Counters, eventType string, d time.Duration, err error) {
	if eventType == "" {
		eventType = unknownEventType
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := into[eventType]
	if err != nil {
		c.Failed++
	} else {
		c.Succeeded++
	}
	c.DurationTotal += d
	into[eventType] = c
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.record(m.published, msg.GetEventType(), time.Since(start), err)
		return err
	}
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.record(m.consumed, msg.GetEventType(), time.Since(start), err)
		return err
	}
}
