package monitoring

import (
	"math"
	"sort"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
)

// OperationStats are the aggregate latency statistics for one operation
// over its retained sample window
type OperationStats struct {
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	P95       float64 `json:"p95"`
	P99       float64 `json:"p99"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Count     int     `json:"count"`
	ErrorRate float64 `json:"errorRate"`
}

// SystemStats carries process and data-store level measurements
type SystemStats struct {
	MemoryUsedMB       float64 `json:"memoryUsedMB"`
	DataStoreLatencyMs float64 `json:"dataStoreLatencyMs"`
}

// Snapshot is an immutable aggregation of one monitor tick
type Snapshot struct {
	Timestamp  time.Time                 `json:"timestamp"`
	Operations map[string]OperationStats `json:"operations"`
	Cache      manager.Metrics           `json:"cache"`
	System     SystemStats               `json:"system"`
}

// Trend classifies recent performance movement
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// Summary is the latest snapshot plus a trend over the prior snapshots
type Summary struct {
	Latest *Snapshot `json:"latest"`
	Trend  Trend     `json:"trend"`
}

// computeStats aggregates one operation window using nearest-rank
// percentiles over the sorted durations.
func computeStats(samples []Sample) OperationStats {
	if len(samples) == 0 {
		return OperationStats{}
	}

	durations := make([]float64, len(samples))
	errs := 0
	sum := 0.0
	for i, s := range samples {
		durations[i] = s.DurationMs
		sum += s.DurationMs
		if s.Outcome == OutcomeError {
			errs++
		}
	}
	sort.Float64s(durations)

	n := len(durations)
	return OperationStats{
		Mean:      sum / float64(n),
		Median:    nearestRank(durations, 50),
		P95:       nearestRank(durations, 95),
		P99:       nearestRank(durations, 99),
		Min:       durations[0],
		Max:       durations[n-1],
		Count:     n,
		ErrorRate: float64(errs) / float64(n),
	}
}

// nearestRank returns the p-th percentile of sorted values using the
// nearest-rank method: the value at rank ceil(p/100 * n).
func nearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100.0 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
