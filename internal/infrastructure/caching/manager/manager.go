// Package manager provides the domain-aware cache layer: key schemas per
// query type, write invalidation, stampede protection and hit/miss metrics.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/store"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
)

// ComputeFunc loads a value from the primary data source on a cache miss
type ComputeFunc func(ctx context.Context) ([]byte, error)

// GetOptions tunes a single cached read
type GetOptions struct {
	TTL       time.Duration // zero means the entity type's default TTL
	SkipCache bool          // bypass the read path, recompute and store
}

// HealthStatus classifies the cache store's availability
type HealthStatus string

const (
	HealthHealthy     HealthStatus = "healthy"
	HealthDegraded    HealthStatus = "degraded"
	HealthUnavailable HealthStatus = "unavailable"
)

// Health is the result of a store round-trip probe
type Health struct {
	Status    HealthStatus `json:"status"`
	LatencyMs float64      `json:"latencyMs"`
}

// Metrics are the cache effectiveness counters exposed to the monitor
type Metrics struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Deletes int64   `json:"deletes"`
	HitRate float64 `json:"hitRate"`
}

// Config holds the cache manager settings, validated eagerly
type Config struct {
	Prefix          string
	DefaultTTLs     map[string]time.Duration // entity type -> TTL
	DegradedLatency time.Duration
	ProbeTimeout    time.Duration
}

// Validate reports invalid manager configuration
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("cache manager: key prefix is required")
	}
	if c.DegradedLatency <= 0 {
		return fmt.Errorf("cache manager: degraded latency threshold must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("cache manager: probe timeout must be positive")
	}
	for entityType, ttl := range c.DefaultTTLs {
		if ttl <= 0 {
			return fmt.Errorf("cache manager: TTL for %s must be positive, got %v", entityType, ttl)
		}
	}
	return nil
}

type inflightCompute struct {
	done  chan struct{}
	value []byte
	err   error
}

// Manager coordinates all cache reads and invalidations for league content.
// A single Manager is constructed at process start and shared.
type Manager struct {
	store  store.KeyedCacheStore
	keys   caching.Keys
	config *Config
	logger *logging.ChanneledLogger

	mu         sync.Mutex
	inflight   map[string]*inflightCompute
	generation map[string]uint64 // entity type -> bumped on invalidate

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// NewManager creates the cache manager over a keyed store
func NewManager(cacheStore store.KeyedCacheStore, config *Config, logger *logging.ChanneledLogger) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "prefix", config.Prefix, "queryTypes", len(config.DefaultTTLs))
	}

	return &Manager{
		store:      cacheStore,
		keys:       caching.Keys{Prefix: config.Prefix},
		config:     config,
		logger:     logger,
		inflight:   make(map[string]*inflightCompute),
		generation: make(map[string]uint64),
	}, nil
}

// Keys exposes the key builders bound to this manager's prefix
func (m *Manager) Keys() caching.Keys { return m.keys }

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Concurrent callers for the same key are coalesced: the compute
// function runs at most once per key per process, and every waiter receives
// the first caller's outcome. A compute error is returned to all waiters and
// never cached. When the store is unavailable the call degrades to a direct
// compute and the caller never sees a cache-layer error.
func (m *Manager) GetOrCompute(ctx context.Context, entityType, key string, opts GetOptions, compute ComputeFunc) ([]byte, error) {
	storeDown := false

	if !opts.SkipCache {
		value, err := m.store.Get(ctx, key)
		switch {
		case err == nil:
			m.hits.Add(1)
			return value, nil
		case errors.Is(err, store.ErrNotFound):
			// fall through to compute
		default:
			storeDown = true
			if m.logger != nil {
				m.logger.Cache().Warn("Cache store unavailable, falling back to data source", "key", key, "error", err.Error())
			}
		}
	}
	m.misses.Add(1)

	m.mu.Lock()
	if pending, ok := m.inflight[key]; ok {
		m.mu.Unlock()
		select {
		case <-pending.done:
			return pending.value, pending.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	pending := &inflightCompute{done: make(chan struct{})}
	m.inflight[key] = pending
	gen := m.generation[entityType]
	m.mu.Unlock()

	value, err := compute(ctx)
	pending.value, pending.err = value, err

	if err == nil && !storeDown {
		m.storeResult(ctx, entityType, key, value, opts.TTL, gen)
	}

	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()
	close(pending.done)

	return value, err
}

// storeResult writes a computed value unless an invalidation for the entity
// type arrived while the compute was in flight. The generation check makes
// the invalidation win regardless of timer ordering.
func (m *Manager) storeResult(ctx context.Context, entityType, key string, value []byte, ttl time.Duration, gen uint64) {
	if ttl <= 0 {
		ttl = m.ttlFor(entityType)
	}

	m.mu.Lock()
	if m.generation[entityType] != gen {
		m.mu.Unlock()
		if m.logger != nil {
			m.logger.Cache().Debug("Skipping stale cache write after invalidation", "key", key)
		}
		return
	}
	m.mu.Unlock()

	if err := m.store.Set(ctx, key, value, ttl); err != nil {
		if m.logger != nil {
			m.logger.Cache().Warn("Cache write failed", "key", key, "error", err.Error())
		}
		return
	}
	m.sets.Add(1)

	// An invalidation may have raced the Set above. Re-check and tombstone
	// the key so the invalidation wins even when its delete ran first.
	m.mu.Lock()
	stale := m.generation[entityType] != gen
	m.mu.Unlock()
	if stale {
		if err := m.store.Delete(ctx, key); err == nil {
			m.deletes.Add(1)
		}
	}
}

func (m *Manager) ttlFor(entityType string) time.Duration {
	if ttl, ok := m.config.DefaultTTLs[entityType]; ok {
		return ttl
	}
	return time.Minute
}

// Invalidate drops the changed entity's direct keys plus the full key
// namespace of its dependent aggregate types. Dependent cascades delete by
// type prefix against the store itself, so they reach keys written by other
// instances or before a restart. It must be called synchronously on every
// write path; it is best-effort against an unavailable store and never fails
// the caller.
func (m *Manager) Invalidate(ctx context.Context, entityType, entityID, changeKind string) {
	depTypes := caching.DependentTypes(entityType)

	m.mu.Lock()
	m.generation[entityType]++
	for _, depType := range depTypes {
		m.generation[depType]++
	}
	m.mu.Unlock()

	dropped := 0
	failed := false
	direct := m.keys.DirectKeys(entityType, entityID)
	if err := m.store.Delete(ctx, direct...); err != nil {
		failed = true
	} else {
		dropped += len(direct)
	}
	for _, depType := range depTypes {
		n, err := m.store.DeletePrefix(ctx, m.keys.TypePrefix(depType))
		dropped += n
		if err != nil {
			failed = true
		}
	}
	m.deletes.Add(int64(dropped))

	if failed {
		if m.logger != nil {
			m.logger.Cache().Warn("Best-effort invalidation against unavailable store",
				"entityType", entityType, "entityId", entityID)
		}
		return
	}
	if m.logger != nil {
		m.logger.Cache().Debug("Invalidated cache keys",
			"entityType", entityType, "entityId", entityID, "changeKind", changeKind, "keys", dropped)
	}
}

// InvalidateAll drops every key under this manager's prefix, for the
// operator cache-clear surface.
func (m *Manager) InvalidateAll(ctx context.Context) {
	m.mu.Lock()
	for entityType := range m.config.DefaultTTLs {
		if _, ok := m.generation[entityType]; !ok {
			m.generation[entityType] = 0
		}
	}
	for entityType := range m.generation {
		m.generation[entityType]++
	}
	m.mu.Unlock()

	dropped, err := m.store.DeletePrefix(ctx, m.config.Prefix+":")
	m.deletes.Add(int64(dropped))
	if err != nil && m.logger != nil {
		m.logger.Cache().Warn("Cache clear failed", "error", err.Error())
	}
}

// WarmTarget is one configured hot key for proactive warming
type WarmTarget struct {
	EntityType string
	Key        string
	TTL        time.Duration
	Compute    ComputeFunc
}

// Warm computes and stores the given targets. Per-key failures are logged
// and do not abort the batch. Returns the number of keys warmed.
func (m *Manager) Warm(ctx context.Context, targets []WarmTarget) int {
	warmed := 0
	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		_, err := m.GetOrCompute(ctx, target.EntityType, target.Key, GetOptions{TTL: target.TTL}, target.Compute)
		if err != nil {
			if m.logger != nil {
				m.logger.Warming().Warn("Warm target failed", "key", target.Key, "error", err.Error())
			}
			continue
		}
		warmed++
	}
	return warmed
}

// Health probes the store with a bounded round trip
func (m *Manager) Health(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	defer cancel()

	latency, err := m.store.Ping(ctx)
	if err != nil {
		return Health{Status: HealthUnavailable}
	}

	status := HealthHealthy
	if latency > m.config.DegradedLatency {
		status = HealthDegraded
	}
	return Health{
		Status:    status,
		LatencyMs: float64(latency.Microseconds()) / 1000.0,
	}
}

// Metrics returns the cache effectiveness counters. hitRate is defined as 0
// when no requests have been observed.
func (m *Manager) Metrics() Metrics {
	hits := m.hits.Load()
	misses := m.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Metrics{
		Hits:    hits,
		Misses:  misses,
		Sets:    m.sets.Load(),
		Deletes: m.deletes.Load(),
		HitRate: hitRate,
	}
}
