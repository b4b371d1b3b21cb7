package alerting

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/notifications"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/monitoring"
)

// TransitionEvent reports an alert state change to interested listeners,
// the sysop live feed among them.
type TransitionEvent struct {
	Alert *Alert `json:"alert"`
	From  State  `json:"from"`
	To    State  `json:"to"`
}

// pendingDelivery is a failed notification awaiting retry
type pendingDelivery struct {
	alertID  string
	channel  string
	attempts int
	nextTry  time.Time
	payload  notifications.Payload
}

// Engine implements monitoring.Evaluator. It opens alerts when rules breach
// for their sustained window, escalates on schedule, retries failed
// deliveries and resolves alerts after the recovery cooldown.
type Engine struct {
	config   *Config
	store    Store
	registry *notifications.Registry
	logger   *logging.ChanneledLogger

	mu             sync.Mutex
	rules          map[string]*Rule
	alerts         map[string]*Alert // every loaded alert by ID
	order          []string          // alert IDs, oldest first
	activeByRule   map[string]string // rule ID -> non-resolved alert ID
	pendingSince   map[string]time.Time
	recoveredSince map[string]time.Time
	retries        []pendingDelivery

	onTransition func(TransitionEvent)

	runMu    sync.Mutex
	cancel   context.CancelFunc
	stopped  chan struct{}
	shutdown bool

	dispatchWG sync.WaitGroup

	now func() time.Time
}

// NewEngine validates the configuration, loads persisted alerts and returns
// an engine ready to Start.
func NewEngine(config *Config, store Store, registry *notifications.Registry, logger *logging.ChanneledLogger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	for severity, names := range config.SeverityChannels {
		for _, name := range names {
			if _, ok := registry.Get(name); !ok {
				return nil, fmt.Errorf("alert engine: %s routes to unknown channel %q", severity, name)
			}
		}
	}
	for severity, schedule := range config.EscalationSchedules {
		for _, tier := range schedule {
			for _, name := range tier.Channels {
				if _, ok := registry.Get(name); !ok {
					return nil, fmt.Errorf("alert engine: %s escalation routes to unknown channel %q", severity, name)
				}
			}
		}
	}

	e := &Engine{
		config:         config,
		store:          store,
		registry:       registry,
		logger:         logger,
		rules:          make(map[string]*Rule, len(config.Rules)),
		alerts:         make(map[string]*Alert),
		activeByRule:   make(map[string]string),
		pendingSince:   make(map[string]time.Time),
		recoveredSince: make(map[string]time.Time),
		now:            time.Now,
	}
	for i := range config.Rules {
		rule := &config.Rules[i]
		e.rules[rule.ID] = rule
	}

	loaded, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("alert engine: failed to load alert history: %w", err)
	}
	for _, alert := range loaded {
		e.alerts[alert.ID] = alert
		e.order = append(e.order, alert.ID)
		if alert.State.Active() {
			e.activeByRule[alert.RuleID] = alert.ID
		}
	}
	if len(loaded) > 0 {
		logger.Alert().Info("Loaded alert history", "count", len(loaded), "active", len(e.activeByRule))
	}
	return e, nil
}

// SetTransitionSink registers a listener for alert state changes
func (e *Engine) SetTransitionSink(fn func(TransitionEvent)) {
	e.mu.Lock()
	e.onTransition = fn
	e.mu.Unlock()
}

// Start launches the escalation and retry loop. Idempotent.
func (e *Engine) Start() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil || e.shutdown {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.stopped = make(chan struct{})
	go e.run(ctx)
	e.logger.Alert().Info("Alert engine started",
		"rules", len(e.rules), "tickInterval", e.config.TickInterval, "cooldown", e.config.Cooldown)
}

// Stop halts the loop and waits for in-flight dispatches to finish. No new
// dispatches begin after Stop returns.
func (e *Engine) Stop() {
	e.runMu.Lock()
	e.shutdown = true
	cancel := e.cancel
	stopped := e.stopped
	e.cancel = nil
	e.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
	e.dispatchWG.Wait()
	e.logger.Alert().Info("Alert engine stopped")
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.stopped)
	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Evaluate checks one metric observation against every rule watching that
// metric. A breach must sustain for the rule's window before an alert opens;
// rules with no window open immediately.
func (e *Engine) Evaluate(event monitoring.MetricEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rule := range e.rules {
		if rule.Metric != event.Metric {
			continue
		}
		if !rule.Breaches(event.Value) {
			delete(e.pendingSince, rule.ID)
			continue
		}

		// breach clears any recovery countdown for the rule's open alert
		if alertID, ok := e.activeByRule[rule.ID]; ok {
			delete(e.recoveredSince, alertID)
			continue
		}

		since, ok := e.pendingSince[rule.ID]
		if !ok {
			e.pendingSince[rule.ID] = event.Timestamp
			since = event.Timestamp
		}
		if event.Timestamp.Sub(since) < rule.SustainedFor {
			continue
		}
		delete(e.pendingSince, rule.ID)
		e.openAlert(rule, event)
	}
}

// ResolveIfRecovered resolves an open alert once its metric has stayed on
// the healthy side of the threshold for the full cooldown.
func (e *Engine) ResolveIfRecovered(event monitoring.MetricEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rule := range e.rules {
		if rule.Metric != event.Metric {
			continue
		}
		alertID, ok := e.activeByRule[rule.ID]
		if !ok {
			continue
		}
		if rule.Breaches(event.Value) {
			delete(e.recoveredSince, alertID)
			continue
		}
		since, ok := e.recoveredSince[alertID]
		if !ok {
			e.recoveredSince[alertID] = event.Timestamp
			continue
		}
		if event.Timestamp.Sub(since) < e.config.Cooldown {
			continue
		}
		e.resolve(e.alerts[alertID], event.Timestamp)
	}
}

// openAlert creates an alert and dispatches its opening notifications.
// Caller holds e.mu.
func (e *Engine) openAlert(rule *Rule, event monitoring.MetricEvent) {
	alert := &Alert{
		ID:        ulid.MustNew(ulid.Timestamp(e.now()), rand.Reader).String(),
		RuleID:    rule.ID,
		Metric:    rule.Metric,
		Severity:  rule.Severity,
		Value:     event.Value,
		Threshold: rule.Threshold,
		Message: fmt.Sprintf("%s is %.2f, %s threshold %.2f",
			rule.Metric, event.Value, rule.Comparator, rule.Threshold),
		State:       StateOpen,
		TriggeredAt: event.Timestamp,
	}
	e.alerts[alert.ID] = alert
	e.order = append(e.order, alert.ID)
	e.activeByRule[rule.ID] = alert.ID
	e.persist(alert)
	e.pruneHistory()

	e.logger.Alert().Warn("Alert opened",
		"alertId", alert.ID, "rule", rule.ID, "metric", rule.Metric,
		"value", event.Value, "threshold", rule.Threshold, "severity", rule.Severity)
	e.notifyTransition(alert, StateOpen, StateOpen)

	e.dispatch(alert, e.config.SeverityChannels[rule.Severity], "Alert opened")
}

// resolve transitions an alert to RESOLVED. Caller holds e.mu.
func (e *Engine) resolve(alert *Alert, at time.Time) {
	from := alert.State
	alert.State = StateResolved
	resolvedAt := at
	alert.ResolvedAt = &resolvedAt
	delete(e.activeByRule, alert.RuleID)
	delete(e.recoveredSince, alert.ID)
	e.persist(alert)

	e.logger.Alert().Info("Alert resolved",
		"alertId", alert.ID, "rule", alert.RuleID, "metric", alert.Metric,
		"openFor", at.Sub(alert.TriggeredAt))
	e.notifyTransition(alert, from, StateResolved)
}

// Acknowledge marks an active alert as seen by an operator, which suppresses
// further escalation.
func (e *Engine) Acknowledge(alertID, operator string) (*Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	alert, ok := e.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("alert %s not found", alertID)
	}
	if alert.State == StateResolved {
		return nil, fmt.Errorf("alert %s is already resolved", alertID)
	}
	from := alert.State
	alert.State = StateAcknowledged
	ackAt := e.now()
	alert.AcknowledgedAt = &ackAt
	alert.AcknowledgedBy = operator
	e.persist(alert)

	e.logger.Alert().Info("Alert acknowledged",
		"alertId", alert.ID, "rule", alert.RuleID, "by", operator)
	e.notifyTransition(alert, from, StateAcknowledged)
	return alert.clone(), nil
}

// Tick advances escalation schedules and due delivery retries. Called by the
// run loop and directly by tests.
func (e *Engine) Tick() {
	now := e.now()

	e.mu.Lock()
	for ruleID, alertID := range e.activeByRule {
		alert := e.alerts[alertID]
		if alert.State == StateAcknowledged {
			continue
		}
		schedule := e.config.EscalationSchedules[alert.Severity]
		for i := alert.EscalationTier; i < len(schedule); i++ {
			tier := schedule[i]
			if now.Sub(alert.TriggeredAt) < tier.After {
				break
			}
			from := alert.State
			alert.State = StateEscalated
			alert.EscalationTier = i + 1
			e.persist(alert)
			e.logger.Alert().Warn("Alert escalated",
				"alertId", alert.ID, "rule", ruleID, "tier", alert.EscalationTier,
				"after", tier.After)
			e.notifyTransition(alert, from, StateEscalated)
			e.dispatch(alert, tier.Channels, fmt.Sprintf("Alert escalated (tier %d)", alert.EscalationTier))
		}
	}

	var due []pendingDelivery
	remaining := e.retries[:0]
	for _, retry := range e.retries {
		if !retry.nextTry.After(now) {
			due = append(due, retry)
		} else {
			remaining = append(remaining, retry)
		}
	}
	e.retries = remaining
	e.mu.Unlock()

	for _, retry := range due {
		e.send(retry)
	}
}

// dispatch fans a notification out to the named channels, one goroutine per
// channel so a slow adapter never blocks the others. Caller holds e.mu.
func (e *Engine) dispatch(alert *Alert, channelNames []string, title string) {
	payload := notifications.Payload{
		Title:    title,
		Severity: string(alert.Severity),
		Message:  alert.Message,
		Metadata: map[string]string{
			"alertId":     alert.ID,
			"rule":        alert.RuleID,
			"metric":      alert.Metric,
			"value":       fmt.Sprintf("%.2f", alert.Value),
			"threshold":   fmt.Sprintf("%.2f", alert.Threshold),
			"triggeredAt": alert.TriggeredAt.Format(time.RFC3339),
		},
	}
	// The Add must happen under runMu so Stop's shutdown flag and its
	// WaitGroup wait cannot interleave with a starting dispatch.
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.shutdown {
		return
	}
	for _, name := range channelNames {
		delivery := pendingDelivery{alertID: alert.ID, channel: name, attempts: 0, payload: payload}
		e.dispatchWG.Add(1)
		go func(d pendingDelivery) {
			defer e.dispatchWG.Done()
			e.send(d)
		}(delivery)
	}
}

// send performs one delivery attempt and records the outcome on the alert.
// A failure below the retry cap is queued for the next eligible tick.
func (e *Engine) send(d pendingDelivery) {
	channel, ok := e.registry.Get(d.channel)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.config.DispatchTimeout)
	err := channel.Send(ctx, d.payload)
	cancel()

	attempt := d.attempts + 1
	record := Delivery{
		Channel:     d.channel,
		AttemptedAt: e.now(),
		Attempt:     attempt,
		Succeeded:   err == nil,
	}
	if err != nil {
		record.Error = err.Error()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if alert, ok := e.alerts[d.alertID]; ok {
		alert.Deliveries = append(alert.Deliveries, record)
		e.persist(alert)
	}

	if err == nil {
		e.logger.Dispatch().Info("Notification delivered",
			"alertId", d.alertID, "channel", d.channel, "attempt", attempt)
		return
	}

	if attempt > e.config.MaxRetries {
		e.logger.Dispatch().Error("Notification abandoned after retries",
			"alertId", d.alertID, "channel", d.channel, "attempts", attempt, "error", err.Error())
		return
	}
	backoff := e.config.RetryBackoff * time.Duration(attempt)
	e.retries = append(e.retries, pendingDelivery{
		alertID:  d.alertID,
		channel:  d.channel,
		attempts: attempt,
		nextTry:  e.now().Add(backoff),
		payload:  d.payload,
	})
	e.logger.Dispatch().Warn("Notification failed, will retry",
		"alertId", d.alertID, "channel", d.channel, "attempt", attempt,
		"nextTryIn", backoff, "error", err.Error())
}

// persist writes the alert through to the store; persistence failures are
// logged, never fatal. Caller holds e.mu.
func (e *Engine) persist(alert *Alert) {
	if err := e.store.Save(alert); err != nil {
		e.logger.Alert().Error("Failed to persist alert",
			"alertId", alert.ID, "error", err.Error())
	}
}

// pruneHistory keeps the in-memory history and store bounded. Caller holds e.mu.
func (e *Engine) pruneHistory() {
	excess := len(e.order) - e.config.HistoryLimit
	if excess <= 0 {
		return
	}
	kept := make([]string, 0, len(e.order))
	for _, id := range e.order {
		if excess > 0 && !e.alerts[id].State.Active() {
			delete(e.alerts, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	e.order = kept
	if err := e.store.Prune(e.config.HistoryLimit); err != nil {
		e.logger.Alert().Error("Failed to prune alert history", "error", err.Error())
	}
}

// notifyTransition fires the transition sink without holding it to the lock's
// critical path for long. Caller holds e.mu.
func (e *Engine) notifyTransition(alert *Alert, from, to State) {
	if e.onTransition == nil {
		return
	}
	e.onTransition(TransitionEvent{Alert: alert.clone(), From: from, To: to})
}

// ListOpen returns every non-resolved alert, newest first
func (e *Engine) ListOpen() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Alert, 0, len(e.activeByRule))
	for _, id := range e.order {
		if alert := e.alerts[id]; alert != nil && alert.State.Active() {
			out = append(out, alert.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	return out
}

// ListRecent returns up to limit alerts across all states, newest first
func (e *Engine) ListRecent(limit int) []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Alert, 0, limit)
	for i := len(e.order) - 1; i >= 0 && len(out) < limit; i-- {
		if alert := e.alerts[e.order[i]]; alert != nil {
			out = append(out, alert.clone())
		}
	}
	return out
}

// Summarize aggregates alert activity since the period start
func (e *Engine) Summarize(period time.Duration) *Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-period)
	stats := &Stats{
		Period:     period.String(),
		BySeverity: make(map[Severity]int),
		ByRule:     make(map[string]int),
	}
	for _, id := range e.order {
		alert := e.alerts[id]
		if alert == nil || alert.TriggeredAt.Before(cutoff) {
			continue
		}
		stats.Total++
		stats.BySeverity[alert.Severity]++
		stats.ByRule[alert.RuleID]++
		switch alert.State {
		case StateResolved:
			stats.Resolved++
		case StateEscalated:
			stats.Escalated++
			stats.Open++
		default:
			stats.Open++
		}
	}
	return stats
}
