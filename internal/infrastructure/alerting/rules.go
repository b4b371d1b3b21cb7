// Package alerting evaluates metric observations against static rules,
// owns the alert lifecycle and dispatches notifications with escalation.
package alerting

import (
	"fmt"
	"time"
)

// Severity orders alerts for channel routing
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Comparator defines how a rule compares a metric value to its threshold
type Comparator string

const (
	CompareAbove Comparator = "above"
	CompareBelow Comparator = "below"
)

// Rule is a static alert condition over one metric
type Rule struct {
	ID           string        `json:"id"`
	Metric       string        `json:"metric"`
	Comparator   Comparator    `json:"comparator"`
	Threshold    float64       `json:"threshold"`
	SustainedFor time.Duration `json:"sustainedFor"`
	Severity     Severity      `json:"severity"`
}

// Validate reports an invalid rule definition
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("alert rule: id is required")
	}
	if r.Metric == "" {
		return fmt.Errorf("alert rule %s: metric is required", r.ID)
	}
	switch r.Comparator {
	case CompareAbove, CompareBelow:
	default:
		return fmt.Errorf("alert rule %s: unknown comparator %q", r.ID, r.Comparator)
	}
	if r.SustainedFor < 0 {
		return fmt.Errorf("alert rule %s: sustainedFor must not be negative", r.ID)
	}
	switch r.Severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	default:
		return fmt.Errorf("alert rule %s: unknown severity %q", r.ID, r.Severity)
	}
	return nil
}

// Breaches reports whether a metric value violates the rule
func (r *Rule) Breaches(value float64) bool {
	if r.Comparator == CompareAbove {
		return value > r.Threshold
	}
	return value < r.Threshold
}

// EscalationTier is one step of a severity's escalation schedule. After is
// measured from the alert's creation time.
type EscalationTier struct {
	After    time.Duration `json:"after"`
	Channels []string      `json:"channels"`
}

// Config holds the alert engine settings, validated eagerly
type Config struct {
	Rules               []Rule
	TickInterval        time.Duration
	Cooldown            time.Duration
	MaxRetries          int
	RetryBackoff        time.Duration
	HistoryLimit        int
	DispatchTimeout     time.Duration
	SeverityChannels    map[Severity][]string         // channels notified when an alert opens
	EscalationSchedules map[Severity][]EscalationTier // ordered by After ascending
}

// Validate reports invalid engine configuration
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("alert engine: tick interval must be positive, got %v", c.TickInterval)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("alert engine: cooldown must be positive, got %v", c.Cooldown)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("alert engine: max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("alert engine: history limit must be positive, got %d", c.HistoryLimit)
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("alert engine: dispatch timeout must be positive, got %v", c.DispatchTimeout)
	}

	seen := make(map[string]bool, len(c.Rules))
	for i := range c.Rules {
		rule := &c.Rules[i]
		if err := rule.Validate(); err != nil {
			return err
		}
		if seen[rule.ID] {
			return fmt.Errorf("alert engine: duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true
	}

	for severity, schedule := range c.EscalationSchedules {
		for i, tier := range schedule {
			if tier.After <= 0 {
				return fmt.Errorf("alert engine: %s escalation tier %d must have a positive delay", severity, i)
			}
			if i > 0 && tier.After <= schedule[i-1].After {
				return fmt.Errorf("alert engine: %s escalation schedule must be strictly increasing", severity)
			}
		}
	}
	return nil
}
