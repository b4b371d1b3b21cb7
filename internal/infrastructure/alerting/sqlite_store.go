package alerting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/persistence/database"
)

// SQLiteStore persists alerts in a local sqlite table. Lifecycle fields live
// in columns for querying, delivery history rides along as JSON.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates the alert table if needed and returns the store
func NewSQLiteStore(db *database.DB) (*SQLiteStore, error) {
	const schema = `
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		rule_id TEXT NOT NULL,
		metric TEXT NOT NULL,
		severity TEXT NOT NULL,
		value REAL NOT NULL,
		threshold REAL NOT NULL,
		message TEXT NOT NULL,
		state TEXT NOT NULL,
		triggered_at TIMESTAMP NOT NULL,
		acknowledged_at TIMESTAMP,
		acknowledged_by TEXT,
		resolved_at TIMESTAMP,
		escalation_tier INTEGER NOT NULL DEFAULT 0,
		deliveries TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_state ON alerts(state);
	CREATE INDEX IF NOT EXISTS idx_alerts_triggered ON alerts(triggered_at);`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create alerts table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load() ([]*Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.db.QueryTimed(ctx, `
		SELECT id, rule_id, metric, severity, value, threshold, message, state,
		       triggered_at, acknowledged_at, acknowledged_by, resolved_at,
		       escalation_tier, deliveries
		FROM alerts ORDER BY triggered_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		var a Alert
		var ackAt, resAt sql.NullTime
		var ackBy, deliveries sql.NullString
		err := rows.Scan(&a.ID, &a.RuleID, &a.Metric, &a.Severity, &a.Value,
			&a.Threshold, &a.Message, &a.State, &a.TriggeredAt,
			&ackAt, &ackBy, &resAt, &a.EscalationTier, &deliveries)
		if err != nil {
			return nil, err
		}
		if ackAt.Valid {
			t := ackAt.Time
			a.AcknowledgedAt = &t
		}
		a.AcknowledgedBy = ackBy.String
		if resAt.Valid {
			t := resAt.Time
			a.ResolvedAt = &t
		}
		if deliveries.Valid && deliveries.String != "" {
			if err := json.Unmarshal([]byte(deliveries.String), &a.Deliveries); err != nil {
				return nil, fmt.Errorf("failed to decode deliveries for alert %s: %w", a.ID, err)
			}
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Save(alert *Alert) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var deliveries []byte
	if len(alert.Deliveries) > 0 {
		var err error
		deliveries, err = json.Marshal(alert.Deliveries)
		if err != nil {
			return fmt.Errorf("failed to encode deliveries for alert %s: %w", alert.ID, err)
		}
	}

	var ackAt, resAt any
	if alert.AcknowledgedAt != nil {
		ackAt = *alert.AcknowledgedAt
	}
	if alert.ResolvedAt != nil {
		resAt = *alert.ResolvedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, rule_id, metric, severity, value, threshold,
			message, state, triggered_at, acknowledged_at, acknowledged_by,
			resolved_at, escalation_tier, deliveries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			acknowledged_at = excluded.acknowledged_at,
			acknowledged_by = excluded.acknowledged_by,
			resolved_at = excluded.resolved_at,
			escalation_tier = excluded.escalation_tier,
			deliveries = excluded.deliveries`,
		alert.ID, alert.RuleID, alert.Metric, string(alert.Severity), alert.Value,
		alert.Threshold, alert.Message, string(alert.State), alert.TriggeredAt,
		ackAt, alert.AcknowledgedBy, resAt, alert.EscalationTier, string(deliveries))
	return err
}

func (s *SQLiteStore) Prune(limit int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM alerts WHERE state = ? AND id NOT IN (
			SELECT id FROM alerts ORDER BY triggered_at DESC LIMIT ?
		)`, string(StateResolved), limit)
	return err
}
