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

// FixtureService serves cached fixture reads and invalidating fixture writes
type FixtureService struct {
	deps *Deps
}

// NewFixtureService creates the fixture service
func NewFixtureService(deps *Deps) *FixtureService {
	return &FixtureService{deps: deps}
}

// GetByID returns one fixture, from cache when warm
func (s *FixtureService) GetByID(ctx context.Context, id string) (*league.FixtureNode, error) {
	start := time.Now()
	data, err := s.deps.Cache.GetOrCompute(ctx, caching.EntityFixture, s.deps.Cache.Keys().FixtureNode(id), manager.GetOptions{},
		func(ctx context.Context) ([]byte, error) {
			fixture, err := s.deps.Repo.GetFixture(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(fixture)
		})
	s.deps.observe("fixture.get", start, err)
	if err != nil {
		return nil, err
	}

	var fixture league.FixtureNode
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to decode cached fixture %s: %w", id, err)
	}
	return &fixture, nil
}

// Save writes a fixture and synchronously invalidates its cached variants
func (s *FixtureService) Save(ctx context.Context, fixture *league.FixtureNode, created bool) error {
	start := time.Now()
	err := s.deps.Repo.UpsertFixture(ctx, fixture)
	s.deps.observe("fixture.save", start, err)
	if err != nil {
		return err
	}

	changeKind := caching.ChangeUpdate
	if created {
		changeKind = caching.ChangeCreate
	}
	s.deps.Cache.Invalidate(ctx, caching.EntityFixture, fixture.ID, changeKind)
	return nil
}

// RecordResult stores a final score and marks the fixture played. The result
// invalidation cascades to the standings table through the dependency map.
func (s *FixtureService) RecordResult(ctx context.Context, id string, homeGoals, awayGoals int) (*league.FixtureNode, error) {
	fixture, err := s.deps.Repo.GetFixture(ctx, id)
	if err != nil {
		return nil, err
	}
	fixture.HomeGoals = homeGoals
	fixture.AwayGoals = awayGoals
	fixture.Status = league.FixturePlayed

	start := time.Now()
	err = s.deps.Repo.UpsertFixture(ctx, fixture)
	s.deps.observe("fixture.result", start, err)
	if err != nil {
		return nil, err
	}

	s.deps.Cache.Invalidate(ctx, caching.EntityFixture, id, caching.ChangeResult)
	return fixture, nil
}

// Delete removes a fixture and invalidates its cached variants
func (s *FixtureService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.deps.Repo.DeleteFixture(ctx, id)
	s.deps.observe("fixture.delete", start, err)
	if err != nil {
		return err
	}
	s.deps.Cache.Invalidate(ctx, caching.EntityFixture, id, caching.ChangeDelete)
	return nil
}
