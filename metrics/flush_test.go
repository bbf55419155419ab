package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foundrycore/cache"
	"foundrycore/clock"
	"foundrycore/metrics"
)

func TestFlush_CounterSumsAllDeltasInTheSameBucket(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := cache.New()
	agg := metrics.New(backend, metrics.WithClock(fake), metrics.WithFlushInterval(time.Hour))
	defer agg.Close()

	agg.Counter("orders.created", 1)
	agg.Counter("orders.created", 2)
	agg.Counter("orders.created", 3)
	agg.Flush()

	stats := agg.GetCounterStats("orders.created", fake.Now(), fake.Now())
	assert.EqualValues(t, 6, stats.Sum)
	assert.Len(t, stats.Points, 1)
	assert.EqualValues(t, 6, stats.Points[0].Count)
}

func TestFlush_GaugeTracksLastAndMax(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := cache.New()
	agg := metrics.New(backend, metrics.WithClock(fake), metrics.WithFlushInterval(time.Hour))
	defer agg.Close()

	agg.Gauge("queue.depth", 5)
	agg.Gauge("queue.depth", 9)
	agg.Gauge("queue.depth", 2)
	agg.Flush()

	stats := agg.GetGaugeStats("queue.depth", fake.Now(), fake.Now())
	assert.Equal(t, 9.0, stats.Max)
	assert.Equal(t, 2.0, stats.Last)
}

func TestFlush_TimingAggregatesCountTotalMinMax(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := cache.New()
	agg := metrics.New(backend, metrics.WithClock(fake), metrics.WithFlushInterval(time.Hour))
	defer agg.Close()

	agg.Timer("db.query", 10)
	agg.Timer("db.query", 30)
	agg.Timer("db.query", 20)
	agg.Flush()

	stats := agg.GetTimerStats("db.query", fake.Now(), fake.Now())
	assert.EqualValues(t, 3, stats.Count)
	assert.Equal(t, 60.0, stats.Sum)
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 30.0, stats.Max)
	assert.InDelta(t, 20.0, stats.Average, 0.001)
}

func TestFlush_EntriesFromDifferentMinutesLandInDistinctBuckets(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := cache.New()
	agg := metrics.New(backend, metrics.WithClock(fake), metrics.WithFlushInterval(time.Hour))
	defer agg.Close()

	agg.Counter("late", 1)
	fake.Advance(time.Minute)
	agg.Counter("late", 1)
	agg.Flush()

	stats := agg.GetCounterStats("late", fake.Now().Add(-time.Minute), fake.Now())
	assert.EqualValues(t, 2, stats.Sum)
	assert.Len(t, stats.Points, 2)
	assert.EqualValues(t, 1, stats.Points[0].Count)
	assert.EqualValues(t, 1, stats.Points[1].Count)
}

func TestFlush_UnbufferedWritesThrough(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := cache.New()
	agg := metrics.New(backend, metrics.WithClock(fake), metrics.WithUnbuffered())
	defer agg.Close()

	agg.Counter("hits", 1)

	stats := agg.GetCounterStats("hits", fake.Now(), fake.Now())
	assert.EqualValues(t, 1, stats.Sum)
}

func TestFlush_PrefixNamespacesKeysBetweenAggregators(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	backend := cache.New()
	a1 := metrics.New(backend, metrics.WithClock(fake), metrics.WithPrefix("svc-a:"), metrics.WithFlushInterval(time.Hour))
	a2 := metrics.New(backend, metrics.WithClock(fake), metrics.WithPrefix("svc-b:"), metrics.WithFlushInterval(time.Hour))
	defer a1.Close()
	defer a2.Close()

	a1.Counter("requests", 5)
	a1.Flush()
	a2.Counter("requests", 9)
	a2.Flush()

	assert.EqualValues(t, 5, a1.GetCounterStats("requests", fake.Now(), fake.Now()).Sum)
	assert.EqualValues(t, 9, a2.GetCounterStats("requests", fake.Now(), fake.Now()).Sum)
}
