package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedAlert(id string, state State, at time.Time) *Alert {
	return &Alert{
		ID:          id,
		RuleID:      "rule-1",
		Metric:      "cache.hit_rate",
		Severity:    SeverityWarning,
		Value:       0.5,
		Threshold:   0.7,
		Message:     "cache.hit_rate is 0.50, below threshold 0.70",
		State:       state,
		TriggeredAt: at,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(storedAlert("a1", StateOpen, base)))
	require.NoError(t, s.Save(storedAlert("a2", StateResolved, base.Add(time.Minute))))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a1", loaded[0].ID, "load preserves insertion order")
	assert.Equal(t, "a2", loaded[1].ID)
}

func TestMemoryStoreSaveReplacesByID(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	alert := storedAlert("a1", StateOpen, base)
	require.NoError(t, s.Save(alert))

	alert.State = StateAcknowledged
	alert.AcknowledgedBy = "pat"
	require.NoError(t, s.Save(alert))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, StateAcknowledged, loaded[0].State)
	assert.Equal(t, "pat", loaded[0].AcknowledgedBy)
}

func TestMemoryStoreLoadReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(storedAlert("a1", StateOpen, base)))

	loaded, _ := s.Load()
	loaded[0].State = StateResolved

	again, _ := s.Load()
	assert.Equal(t, StateOpen, again[0].State, "callers must not mutate stored alerts")
}

func TestMemoryStorePruneKeepsActiveAlerts(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(storedAlert("a1", StateResolved, base)))
	require.NoError(t, s.Save(storedAlert("a2", StateOpen, base.Add(time.Minute))))
	require.NoError(t, s.Save(storedAlert("a3", StateResolved, base.Add(2*time.Minute))))
	require.NoError(t, s.Save(storedAlert("a4", StateEscalated, base.Add(3*time.Minute))))

	require.NoError(t, s.Prune(2))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a2", loaded[0].ID, "resolved alerts pruned first, oldest first")
	assert.Equal(t, "a4", loaded[1].ID)
}

func TestMemoryStorePruneNoopUnderLimit(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save(storedAlert("a1", StateOpen, time.Now())))
	require.NoError(t, s.Prune(10))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
