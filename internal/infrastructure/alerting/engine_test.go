package alerting

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/notifications"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/monitoring"
)

// fakeChannel records deliveries and can be told to fail
type fakeChannel struct {
	name string

	mu    sync.Mutex
	sent  []notifications.Payload
	fails int // fail this many sends before succeeding
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, payload notifications.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fails > 0 {
		c.fails--
		return errors.New("delivery refused")
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeChannel) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = false
	cfg.OutputToConsole = false
	cfg.DefaultLevel = slog.LevelError + 1 // silence test output
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}

func testEngineConfig() *Config {
	return &Config{
		Rules: []Rule{
			{
				ID:           "hit-rate-low",
				Metric:       "cache.hit_rate",
				Comparator:   CompareBelow,
				Threshold:    0.7,
				SustainedFor: 30 * time.Second,
				Severity:     SeverityWarning,
			},
			{
				ID:           "error-rate-high",
				Metric:       "standings.table.error_rate",
				Comparator:   CompareAbove,
				Threshold:    0.05,
				SustainedFor: 0,
				Severity:     SeverityCritical,
			},
		},
		TickInterval:    time.Second,
		Cooldown:        2 * time.Minute,
		MaxRetries:      2,
		RetryBackoff:    30 * time.Second,
		HistoryLimit:    100,
		DispatchTimeout: time.Second,
		SeverityChannels: map[Severity][]string{
			SeverityWarning:  {"chat"},
			SeverityCritical: {"chat", "email"},
		},
		EscalationSchedules: map[Severity][]EscalationTier{
			SeverityCritical: {
				{After: time.Minute, Channels: []string{"email"}},
				{After: 5 * time.Minute, Channels: []string{"email", "chat"}},
			},
		},
	}
}

type testEngine struct {
	*Engine
	chat  *fakeChannel
	email *fakeChannel
	clock time.Time
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	return newTestEngineWith(t, testEngineConfig(), NewMemoryStore())
}

func newTestEngineWith(t *testing.T, config *Config, store Store) *testEngine {
	t.Helper()
	chat := &fakeChannel{name: "chat"}
	email := &fakeChannel{name: "email"}
	registry := notifications.NewRegistry()
	require.NoError(t, registry.Register(chat))
	require.NoError(t, registry.Register(email))

	engine, err := NewEngine(config, store, registry, testLogger(t))
	require.NoError(t, err)

	te := &testEngine{Engine: engine, chat: chat, email: email, clock: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)}
	engine.now = func() time.Time { return te.clock }
	return te
}

func (te *testEngine) advance(d time.Duration) {
	te.clock = te.clock.Add(d)
}

func (te *testEngine) observe(metric string, value float64) {
	event := monitoring.MetricEvent{Metric: metric, Value: value, Timestamp: te.clock}
	te.Evaluate(event)
	te.ResolveIfRecovered(event)
}

func TestImmediateRuleOpensOnFirstBreach(t *testing.T) {
	te := newTestEngine(t)

	te.observe("standings.table.error_rate", 0.2)

	open := te.ListOpen()
	require.Len(t, open, 1)
	assert.Equal(t, "error-rate-high", open[0].RuleID)
	assert.Equal(t, StateOpen, open[0].State)
	assert.Equal(t, SeverityCritical, open[0].Severity)
	assert.Equal(t, 0.2, open[0].Value)

	te.dispatchWG.Wait()
	assert.Equal(t, 1, te.chat.sentCount())
	assert.Equal(t, 1, te.email.sentCount())
}

func TestSustainedRuleWaitsForWindow(t *testing.T) {
	te := newTestEngine(t)

	te.observe("cache.hit_rate", 0.5)
	assert.Empty(t, te.ListOpen(), "breach must sustain before an alert opens")

	te.advance(10 * time.Second)
	te.observe("cache.hit_rate", 0.5)
	assert.Empty(t, te.ListOpen())

	te.advance(25 * time.Second)
	te.observe("cache.hit_rate", 0.5)
	require.Len(t, te.ListOpen(), 1)
}

func TestRecoveryWithinWindowResetsSustain(t *testing.T) {
	te := newTestEngine(t)

	te.observe("cache.hit_rate", 0.5)
	te.advance(20 * time.Second)
	te.observe("cache.hit_rate", 0.9) // recovered before the window elapsed
	te.advance(20 * time.Second)
	te.observe("cache.hit_rate", 0.5) // breach restarts the clock
	assert.Empty(t, te.ListOpen())

	te.advance(30 * time.Second)
	te.observe("cache.hit_rate", 0.5)
	assert.Len(t, te.ListOpen(), 1)
}

func TestNoDuplicateAlertWhileActive(t *testing.T) {
	te := newTestEngine(t)

	te.observe("standings.table.error_rate", 0.2)
	te.advance(time.Second)
	te.observe("standings.table.error_rate", 0.3)
	te.advance(time.Second)
	te.observe("standings.table.error_rate", 0.4)

	assert.Len(t, te.ListOpen(), 1)
	assert.Len(t, te.ListRecent(10), 1)
}

func TestResolveAfterCooldown(t *testing.T) {
	te := newTestEngine(t)

	te.observe("standings.table.error_rate", 0.2)
	require.Len(t, te.ListOpen(), 1)

	// Healthy reading starts the cooldown clock
	te.advance(time.Second)
	te.observe("standings.table.error_rate", 0.0)
	assert.Len(t, te.ListOpen(), 1, "recovery must hold for the full cooldown")

	// A relapse resets the cooldown
	te.advance(time.Minute)
	te.observe("standings.table.error_rate", 0.2)
	te.advance(time.Minute)
	te.observe("standings.table.error_rate", 0.0)
	te.advance(time.Minute)
	te.observe("standings.table.error_rate", 0.0)
	assert.Len(t, te.ListOpen(), 1, "cooldown restarted by the relapse")

	te.advance(2 * time.Minute)
	te.observe("standings.table.error_rate", 0.0)
	assert.Empty(t, te.ListOpen())

	recent := te.ListRecent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, StateResolved, recent[0].State)
	require.NotNil(t, recent[0].ResolvedAt)
}

func TestNewAlertOpensAfterResolve(t *testing.T) {
	te := newTestEngine(t)

	te.observe("standings.table.error_rate", 0.2)
	te.advance(time.Second)
	te.observe("standings.table.error_rate", 0.0)
	te.advance(3 * time.Minute)
	te.observe("standings.table.error_rate", 0.0)
	require.Empty(t, te.ListOpen())

	te.advance(time.Second)
	te.observe("standings.table.error_rate", 0.5)
	assert.Len(t, te.ListOpen(), 1)
	assert.Len(t, te.ListRecent(10), 2)
}

func TestEscalationTiersFireOnceEach(t *testing.T) {
	te := newTestEngine(t)

	te.observe("standings.table.error_rate", 0.2)
	te.dispatchWG.Wait()
	require.Equal(t, 1, te.email.sentCount())

	// Before the first tier
	te.advance(30 * time.Second)
	te.Tick()
	te.dispatchWG.Wait()
	assert.Equal(t, 1, te.email.sentCount())

	// Past the first tier: one escalation delivery to email
	te.advance(40 * time.Second)
	te.Tick()
	te.dispatchWG.Wait()
	assert.Equal(t, 2, te.email.sentCount())

	alert := te.ListOpen()[0]
	assert.Equal(t, StateEscalated, alert.State)
	assert.Equal(t, 1, alert.EscalationTier)

	// Same tier never fires twice
	te.advance(time.Second)
	te.Tick()
	te.dispatchWG.Wait()
	assert.Equal(t, 2, te.email.sentCount())

	// Past the second tier
	te.advance(5 * time.Minute)
	te.Tick()
	te.dispatchWG.Wait()
	assert.Equal(t, 3, te.email.sentCount())
	assert.Equal(t, 2, te.ListOpen()[0].EscalationTier)
}

func TestAcknowledgeSuppressesEscalation(t *testing.T) {
	te := newTestEngine(t)

	te.observe("standings.table.error_rate", 0.2)
	alertID := te.ListOpen()[0].ID

	acked, err := te.Acknowledge(alertID, "pat")
	require.NoError(t, err)
	assert.Equal(t, StateAcknowledged, acked.State)
	assert.Equal(t, "pat", acked.AcknowledgedBy)
	require.NotNil(t, acked.AcknowledgedAt)

	te.dispatchWG.Wait()
	before := te.email.sentCount()

	te.advance(10 * time.Minute)
	te.Tick()
	te.dispatchWG.Wait()
	assert.Equal(t, before, te.email.sentCount(), "acknowledged alerts must not escalate")
	assert.Equal(t, StateAcknowledged, te.ListOpen()[0].State)
}

func TestAcknowledgeErrors(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.Acknowledge("no-such-alert", "pat")
	assert.Error(t, err)

	te.observe("standings.table.error_rate", 0.2)
	alertID := te.ListOpen()[0].ID
	te.advance(time.Second)
	te.observe("standings.table.error_rate", 0.0)
	te.advance(3 * time.Minute)
	te.observe("standings.table.error_rate", 0.0)
	require.Empty(t, te.ListOpen())

	_, err = te.Acknowledge(alertID, "pat")
	assert.Error(t, err, "resolved alerts can not be acknowledged")
}

func TestFailedDeliveryRetriesWithBackoff(t *testing.T) {
	te := newTestEngine(t)
	te.email.fails = 1

	te.observe("standings.table.error_rate", 0.2)
	te.dispatchWG.Wait()
	assert.Equal(t, 0, te.email.sentCount())
	assert.Equal(t, 1, te.chat.sentCount(), "one failing channel must not block the others")

	// Before the backoff elapses nothing is retried
	te.advance(10 * time.Second)
	te.Tick()
	te.dispatchWG.Wait()
	assert.Equal(t, 0, te.email.sentCount())

	te.advance(30 * time.Second)
	te.Tick()
	te.dispatchWG.Wait()
	assert.Equal(t, 1, te.email.sentCount())

	alert := te.ListOpen()[0]
	var emailAttempts []Delivery
	for _, d := range alert.Deliveries {
		if d.Channel == "email" {
			emailAttempts = append(emailAttempts, d)
		}
	}
	require.Len(t, emailAttempts, 2)
	assert.False(t, emailAttempts[0].Succeeded)
	assert.NotEmpty(t, emailAttempts[0].Error)
	assert.True(t, emailAttempts[1].Succeeded)
}

func TestDeliveryAbandonedAfterMaxRetries(t *testing.T) {
	cfg := testEngineConfig()
	cfg.EscalationSchedules = nil // isolate the retry path from escalation dispatches
	te := newTestEngineWith(t, cfg, NewMemoryStore())
	te.email.fails = 10 // more than MaxRetries

	te.observe("standings.table.error_rate", 0.2)
	te.dispatchWG.Wait()

	for i := 0; i < 6; i++ {
		te.advance(5 * time.Minute)
		te.Tick()
		te.dispatchWG.Wait()
	}

	alert := te.ListOpen()[0]
	attempts := 0
	for _, d := range alert.Deliveries {
		if d.Channel == "email" {
			attempts++
		}
	}
	assert.Equal(t, 3, attempts, "initial attempt plus MaxRetries")
}

func TestNoDispatchStartsAfterStop(t *testing.T) {
	te := newTestEngine(t)
	te.Start()

	// An alert opened while running delivers normally
	te.observe("standings.table.error_rate", 0.5)
	te.dispatchWG.Wait()
	require.Equal(t, 1, te.chat.sentCount())

	te.Stop()

	alert := te.ListOpen()[0]
	te.dispatch(alert, []string{"chat", "email"}, "late")
	te.dispatchWG.Wait()

	assert.Equal(t, 1, te.chat.sentCount())
	assert.Equal(t, 1, te.email.sentCount())
}

func TestTransitionSinkReceivesLifecycle(t *testing.T) {
	te := newTestEngine(t)

	var mu sync.Mutex
	var transitions []TransitionEvent
	te.SetTransitionSink(func(event TransitionEvent) {
		mu.Lock()
		transitions = append(transitions, event)
		mu.Unlock()
	})

	te.observe("standings.table.error_rate", 0.2)
	te.advance(time.Second)
	te.observe("standings.table.error_rate", 0.0)
	te.advance(3 * time.Minute)
	te.observe("standings.table.error_rate", 0.0)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, transitions, 2)
	assert.Equal(t, StateOpen, transitions[0].To)
	assert.Equal(t, StateResolved, transitions[1].To)
}

func TestSummarizeCountsByStateAndSeverity(t *testing.T) {
	te := newTestEngine(t)

	te.observe("standings.table.error_rate", 0.2)
	te.advance(time.Second)
	te.observe("cache.hit_rate", 0.5)
	te.advance(time.Minute)
	te.observe("cache.hit_rate", 0.5)
	require.Len(t, te.ListOpen(), 2)

	stats := te.Summarize(24 * time.Hour)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Open)
	assert.Equal(t, 0, stats.Resolved)
	assert.Equal(t, 1, stats.BySeverity[SeverityCritical])
	assert.Equal(t, 1, stats.BySeverity[SeverityWarning])
	assert.Equal(t, 1, stats.ByRule["error-rate-high"])
}

func TestAlertsSurviveRestartThroughStore(t *testing.T) {
	store := NewMemoryStore()
	te := newTestEngineWith(t, testEngineConfig(), store)

	te.observe("standings.table.error_rate", 0.2)
	te.dispatchWG.Wait()
	require.Len(t, te.ListOpen(), 1)

	// A new engine over the same store sees the open alert and will not
	// open a duplicate for the same rule
	restarted := newTestEngineWith(t, testEngineConfig(), store)
	require.Len(t, restarted.ListOpen(), 1)

	restarted.observe("standings.table.error_rate", 0.3)
	assert.Len(t, restarted.ListRecent(10), 1)
}

func TestEngineConfigValidation(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Rules = append(cfg.Rules, Rule{ID: "hit-rate-low", Metric: "x", Comparator: CompareAbove, Severity: SeverityInfo})
	registry := notifications.NewRegistry()
	require.NoError(t, registry.Register(&fakeChannel{name: "chat"}))
	require.NoError(t, registry.Register(&fakeChannel{name: "email"}))

	_, err := NewEngine(cfg, NewMemoryStore(), registry, testLogger(t))
	assert.Error(t, err, "duplicate rule ids are rejected")

	cfg = testEngineConfig()
	cfg.SeverityChannels[SeverityInfo] = []string{"pager"}
	_, err = NewEngine(cfg, NewMemoryStore(), registry, testLogger(t))
	assert.Error(t, err, "routing to an unregistered channel is rejected")
}
