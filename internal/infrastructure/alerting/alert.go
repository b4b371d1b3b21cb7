package alerting

import (
	"time"
)

// State tracks an alert through its lifecycle
type State string

const (
	StateOpen         State = "OPEN"
	StateAcknowledged State = "ACKNOWLEDGED"
	StateEscalated    State = "ESCALATED"
	StateResolved     State = "RESOLVED"
)

// Active reports whether the alert still demands attention
func (s State) Active() bool {
	return s != StateResolved
}

// Delivery records one notification attempt for audit
type Delivery struct {
	Channel     string    `json:"channel"`
	AttemptedAt time.Time `json:"attemptedAt"`
	Attempt     int       `json:"attempt"`
	Succeeded   bool      `json:"succeeded"`
	Error       string    `json:"error,omitempty"`
}

// Alert is a triggered rule condition with its full lifecycle history
type Alert struct {
	ID             string     `json:"id"`
	RuleID         string     `json:"ruleId"`
	Metric         string     `json:"metric"`
	Severity       Severity   `json:"severity"`
	Value          float64    `json:"value"`
	Threshold      float64    `json:"threshold"`
	Message        string     `json:"message"`
	State          State      `json:"state"`
	TriggeredAt    time.Time  `json:"triggeredAt"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	EscalationTier int        `json:"escalationTier"` // highest tier already fired, 0 = none
	Deliveries     []Delivery `json:"deliveries,omitempty"`
}

// clone returns a deep copy safe to hand to callers
func (a *Alert) clone() *Alert {
	cp := *a
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		cp.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		cp.ResolvedAt = &t
	}
	if len(a.Deliveries) > 0 {
		cp.Deliveries = make([]Delivery, len(a.Deliveries))
		copy(cp.Deliveries, a.Deliveries)
	}
	return &cp
}

// Stats summarizes alert activity over a period
type Stats struct {
	Period     string           `json:"period"`
	Total      int              `json:"total"`
	Open       int              `json:"open"`
	Resolved   int              `json:"resolved"`
	Escalated  int              `json:"escalated"`
	BySeverity map[Severity]int `json:"bySeverity"`
	ByRule     map[string]int   `json:"byRule"`
}
