// Package services contains the application layer between the HTTP handlers
// and the infrastructure. Every read goes through the cache manager and every
// operation is timed into the performance monitor.
package services

import (
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/monitoring"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/persistence/league"
)

// Deps are the shared collaborators every content service needs
type Deps struct {
	Cache   *manager.Manager
	Repo    *league.Repository
	Monitor *monitoring.Monitor
	Logger  *logging.ChanneledLogger
}

// observe records one timed operation sample on the monitor
func (d *Deps) observe(operation string, start time.Time, err error) {
	outcome := monitoring.OutcomeSuccess
	if err != nil {
		outcome = monitoring.OutcomeError
	}
	d.Monitor.Record(operation, time.Since(start), outcome)
}
