package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/store"
)

type stubProber struct {
	latency time.Duration
	err     error
}

func (p *stubProber) PingLatency(context.Context) (time.Duration, error) {
	return p.latency, p.err
}

type capturingEvaluator struct {
	mu     sync.Mutex
	events []MetricEvent
}

func (e *capturingEvaluator) Evaluate(event MetricEvent) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

func (e *capturingEvaluator) ResolveIfRecovered(MetricEvent) {}

func (e *capturingEvaluator) byMetric(metric string) (MetricEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, event := range e.events {
		if event.Metric == metric {
			return event, true
		}
	}
	return MetricEvent{}, false
}

func testMonitorConfig() *Config {
	return &Config{
		Interval:     time.Hour, // ticks driven manually in tests
		WindowSize:   16,
		MaxSnapshots: 10,
		TrendWindow:  3,
		ProbeTimeout: time.Second,
		Thresholds: Thresholds{
			SlowMeanMs:    100,
			LowHitRate:    0.7,
			HighErrorRate: 0.05,
		},
	}
}

func newTestMonitor(t *testing.T, sampler *Sampler, config *Config) (*Monitor, *manager.Manager) {
	t.Helper()
	cache, err := manager.NewManager(store.NewMemoryStore(), &manager.Config{
		Prefix:          "test",
		DefaultTTLs:     map[string]time.Duration{caching.EntityClub: time.Minute},
		DegradedLatency: 50 * time.Millisecond,
		ProbeTimeout:    time.Second,
	}, nil)
	require.NoError(t, err)

	m, err := NewMonitor(sampler, cache, &stubProber{latency: 2 * time.Millisecond}, config, nil)
	require.NoError(t, err)
	return m, cache
}

// hangingProber blocks until the probe context expires
type hangingProber struct{}

func (hangingProber) PingLatency(ctx context.Context) (time.Duration, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestTickBoundsHungDataStoreProbe(t *testing.T) {
	config := testMonitorConfig()
	config.ProbeTimeout = 20 * time.Millisecond
	sampler := NewSampler(16)
	cache, err := manager.NewManager(store.NewMemoryStore(), &manager.Config{
		Prefix:          "test",
		DefaultTTLs:     map[string]time.Duration{caching.EntityClub: time.Minute},
		DegradedLatency: 50 * time.Millisecond,
		ProbeTimeout:    time.Second,
	}, nil)
	require.NoError(t, err)
	m, err := NewMonitor(sampler, cache, hangingProber{}, config, nil)
	require.NoError(t, err)

	done := make(chan *Snapshot, 1)
	go func() { done <- m.Tick(context.Background()) }()

	select {
	case snapshot := <-done:
		assert.Zero(t, snapshot.System.DataStoreLatencyMs)
	case <-time.After(time.Second):
		t.Fatal("tick did not return while the data store probe hung")
	}
}

func TestTickAggregatesWindowIntoSnapshot(t *testing.T) {
	sampler := NewSampler(16)
	m, cache := newTestMonitor(t, sampler, testMonitorConfig())

	for _, ms := range []int{10, 20, 30, 40, 200} {
		sampler.Record("standings.table", time.Duration(ms)*time.Millisecond, OutcomeSuccess)
	}

	// One miss then one hit: 50% hit rate
	ctx := context.Background()
	key := cache.Keys().ClubNode("42")
	compute := func(ctx context.Context) ([]byte, error) { return []byte("v"), nil }
	_, err := cache.GetOrCompute(ctx, caching.EntityClub, key, manager.GetOptions{}, compute)
	require.NoError(t, err)
	_, err = cache.GetOrCompute(ctx, caching.EntityClub, key, manager.GetOptions{}, compute)
	require.NoError(t, err)

	snapshot := m.Tick(ctx)
	require.NotNil(t, snapshot)

	stats, ok := snapshot.Operations["standings.table"]
	require.True(t, ok)
	assert.Equal(t, 60.0, stats.Mean)
	assert.Equal(t, 200.0, stats.P95)
	assert.Equal(t, 5, stats.Count)

	assert.Equal(t, 0.5, snapshot.Cache.HitRate)
	assert.Equal(t, 2.0, snapshot.System.DataStoreLatencyMs)
	assert.Same(t, snapshot, m.Latest())
}

func TestTickForwardsMetricEventsToEvaluator(t *testing.T) {
	sampler := NewSampler(16)
	m, _ := newTestMonitor(t, sampler, testMonitorConfig())

	evaluator := &capturingEvaluator{}
	m.SetEvaluator(evaluator)

	sampler.Record("club.get", 12*time.Millisecond, OutcomeSuccess)
	m.Tick(context.Background())

	event, ok := evaluator.byMetric("club.get.mean_ms")
	require.True(t, ok)
	assert.Equal(t, 12.0, event.Value)

	_, ok = evaluator.byMetric("cache.hit_rate")
	assert.True(t, ok)
	_, ok = evaluator.byMetric("datastore.latency_ms")
	assert.True(t, ok)
	_, ok = evaluator.byMetric("system.memory_mb")
	assert.True(t, ok)
}

func TestDegradationAndRecoveryTransitions(t *testing.T) {
	sampler := NewSampler(4)
	m, _ := newTestMonitor(t, sampler, testMonitorConfig())

	var events []DegradationEvent
	m.SetDegradationSink(func(event DegradationEvent) {
		events = append(events, event)
	})

	ctx := context.Background()

	// Four slow samples push the mean past the threshold
	for i := 0; i < 4; i++ {
		sampler.Record("standings.table", 300*time.Millisecond, OutcomeSuccess)
	}
	m.Tick(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, "standings.table.mean_ms", events[0].Metric)
	assert.False(t, events[0].Recovered)

	// Still breaching: no duplicate transition
	sampler.Record("standings.table", 300*time.Millisecond, OutcomeSuccess)
	m.Tick(ctx)
	require.Len(t, events, 1)

	// Fast samples fill the ring and the mean drops back under the threshold
	for i := 0; i < 4; i++ {
		sampler.Record("standings.table", 10*time.Millisecond, OutcomeSuccess)
	}
	m.Tick(ctx)
	require.Len(t, events, 2)
	assert.True(t, events[1].Recovered)
}

func TestSummarizeTrend(t *testing.T) {
	sampler := NewSampler(4)
	m, _ := newTestMonitor(t, sampler, testMonitorConfig())
	ctx := context.Background()

	assert.Equal(t, TrendStable, m.Summarize().Trend, "no snapshots yet")

	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			sampler.Record("club.get", 10*time.Millisecond, OutcomeSuccess)
		}
		m.Tick(ctx)
	}
	assert.Equal(t, TrendStable, m.Summarize().Trend)

	for j := 0; j < 4; j++ {
		sampler.Record("club.get", 100*time.Millisecond, OutcomeSuccess)
	}
	m.Tick(ctx)
	assert.Equal(t, TrendDegrading, m.Summarize().Trend)

	// Fast samples refill the ring; the prior window still holds the slow tick
	for j := 0; j < 4; j++ {
		sampler.Record("club.get", 10*time.Millisecond, OutcomeSuccess)
	}
	m.Tick(ctx)
	assert.Equal(t, TrendImproving, m.Summarize().Trend)
}

func TestSnapshotHistoryIsBounded(t *testing.T) {
	config := testMonitorConfig()
	config.MaxSnapshots = 3

	sampler := NewSampler(4)
	m, _ := newTestMonitor(t, sampler, config)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		m.Tick(ctx)
	}

	m.mu.RLock()
	retained := len(m.snapshots)
	m.mu.RUnlock()
	assert.Equal(t, 3, retained)
}

func TestStartStopIdempotent(t *testing.T) {
	sampler := NewSampler(4)
	m, _ := newTestMonitor(t, sampler, testMonitorConfig())

	m.Start()
	m.Start()
	m.Stop()
	m.Stop()
}
