package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/domain/entities/league"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
)

// StandingsService serves the cached league table, the most expensive read in
// the system. It is read-only; standings change only through fixture results.
type StandingsService struct {
	deps *Deps
}

// NewStandingsService creates the standings service
func NewStandingsService(deps *Deps) *StandingsService {
	return &StandingsService{deps: deps}
}

// Table returns the league table for one group, from cache when warm
func (s *StandingsService) Table(ctx context.Context, groupID string) (*league.Standings, error) {
	start := time.Now()
	data, err := s.deps.Cache.GetOrCompute(ctx, caching.EntityStandings, s.deps.Cache.Keys().Standings(groupID), manager.GetOptions{},
		func(ctx context.Context) ([]byte, error) {
			standings, err := s.deps.Repo.ComputeStandings(ctx, groupID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(standings)
		})
	s.deps.observe("standings.table", start, err)
	if err != nil {
		return nil, err
	}

	var standings league.Standings
	if err := json.Unmarshal(data, &standings); err != nil {
		return nil, fmt.Errorf("failed to decode cached standings for group %s: %w", groupID, err)
	}
	return &standings, nil
}
