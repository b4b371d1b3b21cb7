package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerWindowIsBounded(t *testing.T) {
	s := NewSampler(4)
	for i := 0; i < 10; i++ {
		s.Record("standings.table", time.Duration(i+1)*time.Millisecond, OutcomeSuccess)
	}

	windows := s.Windows()
	require.Len(t, windows, 1)
	require.Len(t, windows[0].Samples, 4, "ring keeps only the newest windowSize samples")

	// FIFO order: oldest retained sample first
	assert.Equal(t, 7.0, windows[0].Samples[0].DurationMs)
	assert.Equal(t, 10.0, windows[0].Samples[3].DurationMs)
	assert.Equal(t, 10, windows[0].Fresh)
}

func TestWindowsSkipsIdleOperations(t *testing.T) {
	s := NewSampler(8)
	s.Record("club.get", 5*time.Millisecond, OutcomeSuccess)

	first := s.Windows()
	require.Len(t, first, 1)

	// No new samples since the last aggregation
	assert.Empty(t, s.Windows())

	s.Record("club.get", 6*time.Millisecond, OutcomeError)
	second := s.Windows()
	require.Len(t, second, 1)
	assert.Equal(t, 1, second[0].Fresh)
	assert.Len(t, second[0].Samples, 2, "window still holds retained history")
}

func TestSamplerSeparatesOperations(t *testing.T) {
	s := NewSampler(8)
	s.Record("club.get", 5*time.Millisecond, OutcomeSuccess)
	s.Record("standings.table", 80*time.Millisecond, OutcomeSuccess)

	windows := s.Windows()
	require.Len(t, windows, 2)

	byOp := make(map[string]OperationWindow)
	for _, w := range windows {
		byOp[w.Operation] = w
	}
	assert.Equal(t, 5.0, byOp["club.get"].Samples[0].DurationMs)
	assert.Equal(t, 80.0, byOp["standings.table"].Samples[0].DurationMs)
}

func TestSamplerConcurrentRecord(t *testing.T) {
	s := NewSampler(128)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Record("club.get", time.Millisecond, OutcomeSuccess)
			}
		}()
	}
	wg.Wait()

	windows := s.Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, 800, windows[0].Fresh)
	assert.Len(t, windows[0].Samples, 128)
}
