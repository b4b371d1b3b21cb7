package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
)

// MetricEvent is one observed metric value forwarded to the alert engine
// on every monitor tick
type MetricEvent struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Evaluator receives metric observations; the alert engine implements it
type Evaluator interface {
	Evaluate(event MetricEvent)
	ResolveIfRecovered(event MetricEvent)
}

// LatencyProber measures a round trip to the primary data store
type LatencyProber interface {
	PingLatency(ctx context.Context) (time.Duration, error)
}

// DegradationEvent reports a monitor threshold transition, for the operator
// live feed
type DegradationEvent struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Recovered bool      `json:"recovered"`
	Timestamp time.Time `json:"timestamp"`
}

// Thresholds are the monitor's own degradation limits, evaluated on the
// computed snapshot rather than raw samples to avoid single-outlier noise
type Thresholds struct {
	SlowMeanMs    float64 // per-operation mean latency ceiling
	LowHitRate    float64 // cache hit rate floor
	HighErrorRate float64 // per-operation error rate ceiling
}

// Config holds monitor settings, validated eagerly
type Config struct {
	Interval     time.Duration
	WindowSize   int
	MaxSnapshots int
	TrendWindow  int
	ProbeTimeout time.Duration
	Thresholds   Thresholds
}

// Validate reports invalid monitor configuration
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("monitor: interval must be positive, got %v", c.Interval)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("monitor: window size must be positive, got %d", c.WindowSize)
	}
	if c.MaxSnapshots <= 0 {
		return fmt.Errorf("monitor: max snapshots must be positive, got %d", c.MaxSnapshots)
	}
	if c.TrendWindow <= 0 {
		return fmt.Errorf("monitor: trend window must be positive, got %d", c.TrendWindow)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("monitor: probe timeout must be positive, got %v", c.ProbeTimeout)
	}
	if c.Thresholds.LowHitRate < 0 || c.Thresholds.LowHitRate > 1 {
		return fmt.Errorf("monitor: hit rate threshold must be in [0,1], got %v", c.Thresholds.LowHitRate)
	}
	if c.Thresholds.HighErrorRate < 0 || c.Thresholds.HighErrorRate > 1 {
		return fmt.Errorf("monitor: error rate threshold must be in [0,1], got %v", c.Thresholds.HighErrorRate)
	}
	return nil
}

// Monitor aggregates samples into periodic snapshots, detects degradation
// against its thresholds and feeds metric observations to the alert engine.
// It runs on its own timer, decoupled from request handling.
type Monitor struct {
	sampler   *Sampler
	cache     *manager.Manager
	prober    LatencyProber
	evaluator Evaluator
	onDegrade func(DegradationEvent)
	config    *Config
	logger    *logging.ChanneledLogger

	mu        sync.RWMutex
	snapshots []*Snapshot
	breached  map[string]float64 // metric -> threshold currently breached

	runMu   sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}

	now func() time.Time
}

// NewMonitor creates a performance monitor over the given sampler and cache
func NewMonitor(sampler *Sampler, cache *manager.Manager, prober LatencyProber, config *Config, logger *logging.ChanneledLogger) (*Monitor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Monitor{
		sampler:  sampler,
		cache:    cache,
		prober:   prober,
		config:   config,
		logger:   logger,
		breached: make(map[string]float64),
		now:      time.Now,
	}, nil
}

// SetEvaluator registers the alert engine for metric observations
func (m *Monitor) SetEvaluator(evaluator Evaluator) {
	m.runMu.Lock()
	m.evaluator = evaluator
	m.runMu.Unlock()
}

// SetDegradationSink registers a callback for degradation/recovery
// transitions, used by the operator live feed
func (m *Monitor) SetDegradationSink(sink func(DegradationEvent)) {
	m.runMu.Lock()
	m.onDegrade = sink
	m.runMu.Unlock()
}

// Record appends one operation sample; O(1) and safe from any goroutine
func (m *Monitor) Record(operation string, duration time.Duration, outcome Outcome) {
	m.sampler.Record(operation, duration, outcome)
}

// Start launches the periodic aggregation loop. Idempotent: calling Start on
// a running monitor is a no-op.
func (m *Monitor) Start() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.stopped = make(chan struct{})

	if m.logger != nil {
		m.logger.Monitor().Info("Performance monitor started", "interval", m.config.Interval)
	}

	go m.run(ctx)
}

// Stop cancels the timer deterministically; no snapshot is produced after
// Stop returns. Idempotent.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, stopped := m.cancel, m.stopped
	m.cancel = nil
	m.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped

	if m.logger != nil {
		m.logger.Monitor().Info("Performance monitor stopped")
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.stopped)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick performs one aggregation pass. Exposed for the operator's on-demand
// snapshot endpoint and for tests.
func (m *Monitor) Tick(ctx context.Context) *Snapshot {
	snapshot := m.buildSnapshot(ctx)

	m.mu.Lock()
	m.snapshots = append(m.snapshots, snapshot)
	if len(m.snapshots) > m.config.MaxSnapshots {
		m.snapshots = m.snapshots[len(m.snapshots)-m.config.MaxSnapshots:]
	}
	m.mu.Unlock()

	m.evaluateSnapshot(snapshot)
	return snapshot
}

func (m *Monitor) buildSnapshot(ctx context.Context) *Snapshot {
	stats := make(map[string]OperationStats)
	for _, window := range m.sampler.Windows() {
		stats[window.Operation] = computeStats(window.Samples)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	system := SystemStats{
		MemoryUsedMB: float64(memStats.Alloc) / (1024 * 1024),
	}
	if m.prober != nil {
		// Bound the probe so a hung data store never stalls the tick loop
		probeCtx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
		latency, err := m.prober.PingLatency(probeCtx)
		cancel()
		if err == nil {
			system.DataStoreLatencyMs = float64(latency.Microseconds()) / 1000.0
		} else if m.logger != nil {
			m.logger.Monitor().Warn("Data store latency probe failed", "error", err.Error())
		}
	}

	var cacheMetrics manager.Metrics
	if m.cache != nil {
		cacheMetrics = m.cache.Metrics()
	}

	return &Snapshot{
		Timestamp:  m.now(),
		Operations: stats,
		Cache:      cacheMetrics,
		System:     system,
	}
}

// evaluateSnapshot compares the computed snapshot against the configured
// thresholds, emits degradation/recovery transitions and forwards every
// metric observation to the alert engine.
func (m *Monitor) evaluateSnapshot(snapshot *Snapshot) {
	at := snapshot.Timestamp

	m.observe("cache.hit_rate", snapshot.Cache.HitRate, at)
	m.observe("datastore.latency_ms", snapshot.System.DataStoreLatencyMs, at)
	m.observe("system.memory_mb", snapshot.System.MemoryUsedMB, at)

	if snapshot.Cache.Hits+snapshot.Cache.Misses > 0 {
		m.transition("cache.hit_rate", snapshot.Cache.HitRate, m.config.Thresholds.LowHitRate,
			snapshot.Cache.HitRate < m.config.Thresholds.LowHitRate, at)
	}

	for op, stats := range snapshot.Operations {
		meanMetric := op + ".mean_ms"
		errMetric := op + ".error_rate"

		m.observe(meanMetric, stats.Mean, at)
		m.observe(errMetric, stats.ErrorRate, at)

		m.transition(meanMetric, stats.Mean, m.config.Thresholds.SlowMeanMs,
			stats.Mean > m.config.Thresholds.SlowMeanMs, at)
		m.transition(errMetric, stats.ErrorRate, m.config.Thresholds.HighErrorRate,
			stats.ErrorRate > m.config.Thresholds.HighErrorRate, at)
	}
}

func (m *Monitor) observe(metric string, value float64, at time.Time) {
	m.runMu.Lock()
	evaluator := m.evaluator
	m.runMu.Unlock()
	if evaluator == nil {
		return
	}

	event := MetricEvent{Metric: metric, Value: value, Timestamp: at}
	evaluator.Evaluate(event)
	evaluator.ResolveIfRecovered(event)
}

func (m *Monitor) transition(metric string, value, threshold float64, breaching bool, at time.Time) {
	m.mu.Lock()
	_, wasBreached := m.breached[metric]
	if breaching {
		m.breached[metric] = threshold
	} else {
		delete(m.breached, metric)
	}
	m.mu.Unlock()

	if breaching == wasBreached {
		return
	}

	event := DegradationEvent{
		Metric:    metric,
		Value:     value,
		Threshold: threshold,
		Recovered: !breaching,
		Timestamp: at,
	}

	if m.logger != nil {
		if breaching {
			m.logger.Monitor().Warn("Performance degradation detected",
				"metric", metric, "value", value, "threshold", threshold)
		} else {
			m.logger.Monitor().Info("Metric recovered", "metric", metric, "value", value)
		}
	}

	m.runMu.Lock()
	sink := m.onDegrade
	m.runMu.Unlock()
	if sink != nil {
		sink(event)
	}
}

// Latest returns the most recent snapshot, or nil before the first tick
func (m *Monitor) Latest() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.snapshots) == 0 {
		return nil
	}
	return m.snapshots[len(m.snapshots)-1]
}

// Summarize returns the latest snapshot plus a trend computed against the
// prior TrendWindow snapshots
func (m *Monitor) Summarize() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.snapshots) == 0 {
		return Summary{Trend: TrendStable}
	}

	latest := m.snapshots[len(m.snapshots)-1]
	prior := m.snapshots[:len(m.snapshots)-1]
	if len(prior) > m.config.TrendWindow {
		prior = prior[len(prior)-m.config.TrendWindow:]
	}

	return Summary{Latest: latest, Trend: trendOf(latest, prior)}
}

// trendOf compares the latest overall mean latency against the average of
// the prior snapshots; a 10% band counts as stable.
func trendOf(latest *Snapshot, prior []*Snapshot) Trend {
	if len(prior) == 0 {
		return TrendStable
	}

	latestMean := overallMean(latest)
	var priorSum float64
	counted := 0
	for _, s := range prior {
		if mean := overallMean(s); mean > 0 {
			priorSum += mean
			counted++
		}
	}
	if counted == 0 || latestMean == 0 {
		return TrendStable
	}

	priorMean := priorSum / float64(counted)
	switch {
	case latestMean > priorMean*1.10:
		return TrendDegrading
	case latestMean < priorMean*0.90:
		return TrendImproving
	default:
		return TrendStable
	}
}

func overallMean(s *Snapshot) float64 {
	if len(s.Operations) == 0 {
		return 0
	}
	var sum float64
	for _, stats := range s.Operations {
		sum += stats.Mean
	}
	return sum / float64(len(s.Operations))
}
