package kafka_middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"deskbook/pkg/kafka"
	"deskbook/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventMessage(t *testing.T, eventType string) kafka.Message {
	t.Helper()
	builder := kafka.NewMessage().WithKey("seat:1")
	if eventType != "" {
		builder = builder.WithEventType(eventType)
	}
	msg, err := builder.Build()
	require.NoError(t, err)
	return msg
}

func TestMetricsProducerMiddleware_CountsPerEventType(t *testing.T) {
	m := NewMetrics()
	mw := MetricsProducerMiddleware(m)
	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("broker down") }

	ctx := context.Background()
	require.NoError(t, mw(ctx, eventMessage(t, "reservation.admitted"), ok))
	require.NoError(t, mw(ctx, eventMessage(t, "reservation.admitted"), ok))
	require.Error(t, mw(ctx, eventMessage(t, "reservation.rejected"), fail))
	require.NoError(t, mw(ctx, eventMessage(t, ""), ok))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Published["reservation.admitted"].Succeeded)
	assert.Equal(t, int64(0), snap.Published["reservation.admitted"].Failed)
	assert.Equal(t, int64(1), snap.Published["reservation.rejected"].Failed)
	assert.Equal(t, int64(1), snap.Published[unknownEventType].Succeeded)
	assert.Empty(t, snap.Consumed)
}

func TestMetricsConsumerMiddleware_ConcurrentHandlers(t *testing.T) {
	m := NewMetrics()
	mw := MetricsConsumerMiddleware(m)
	handler := func(_ context.Context, msg kafka.Message) error {
		if msg.Key == "bad" {
			return errors.New("decode failed")
		}
		return nil
	}

	const n = 20
	msgs := make([]kafka.Message, n)
	for i := range msgs {
		msgs[i] = eventMessage(t, "reservation.admitted")
		if i%4 == 0 {
			msgs[i].Key = "bad"
		}
	}

	var wg sync.WaitGroup
	for _, msg := range msgs {
		wg.Add(1)
		go func(msg kafka.Message) {
			defer wg.Done()
			_ = mw(context.Background(), msg, handler)
		}(msg)
	}
	wg.Wait()

	c := m.Snapshot().Consumed["reservation.admitted"]
	assert.Equal(t, int64(15), c.Succeeded)
	assert.Equal(t, int64(5), c.Failed)

	m.LogSnapshot(logger.Discard())
	m.Reset()
	assert.Empty(t, m.Snapshot().Consumed)
}

func TestMetrics_SnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	mw := MetricsProducerMiddleware(m)
	ok := func(context.Context, kafka.Message) error { return nil }

	require.NoError(t, mw(context.Background(), eventMessage(t, "reservation.admitted"), ok))
	snap := m.Snapshot()
	require.NoError(t, mw(context.Background(), eventMessage(t, "reservation.admitted"), ok))

	assert.Equal(t, int64(1), snap.Published["reservation.admitted"].Succeeded)
	assert.Equal(t, int64(2), m.Snapshot().Published["reservation.admitted"].Succeeded)
}

func TestCounters_AvgDuration(t *testing.T) {
	assert.Zero(t, Counters{}.AvgDuration())
	assert.Equal(t, int64(5), Counters{Succeeded: 3, Failed: 1, DurationTotal: 20}.AvgDuration().Nanoseconds())
}
