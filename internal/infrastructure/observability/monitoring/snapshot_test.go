package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleSet(durations ...float64) []Sample {
	samples := make([]Sample, len(durations))
	for i, d := range durations {
		samples[i] = Sample{DurationMs: d, Outcome: OutcomeSuccess, Timestamp: time.Now()}
	}
	return samples
}

func TestComputeStatsNearestRankPercentiles(t *testing.T) {
	// One slow outlier must dominate p95 while the mean stays moderate
	stats := computeStats(sampleSet(10, 20, 30, 40, 200))

	assert.Equal(t, 60.0, stats.Mean)
	assert.Equal(t, 30.0, stats.Median)
	assert.Equal(t, 200.0, stats.P95)
	assert.Equal(t, 200.0, stats.P99)
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 200.0, stats.Max)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 0.0, stats.ErrorRate)
}

func TestComputeStatsErrorRate(t *testing.T) {
	samples := sampleSet(10, 20, 30, 40)
	samples[1].Outcome = OutcomeError

	stats := computeStats(samples)
	assert.Equal(t, 0.25, stats.ErrorRate)
}

func TestComputeStatsEmptyWindow(t *testing.T) {
	stats := computeStats(nil)
	assert.Equal(t, OperationStats{}, stats)
}

func TestNearestRankSingleSample(t *testing.T) {
	sorted := []float64{42}
	assert.Equal(t, 42.0, nearestRank(sorted, 50))
	assert.Equal(t, 42.0, nearestRank(sorted, 95))
	assert.Equal(t, 42.0, nearestRank(sorted, 99))
}

func TestNearestRankBounds(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, 5.0, nearestRank(sorted, 50))
	assert.Equal(t, 10.0, nearestRank(sorted, 95))
	assert.Equal(t, 1.0, nearestRank(sorted, 1))
	assert.Equal(t, 0.0, nearestRank(nil, 95))
}
