package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/domain/entities/league"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
	"github.com/matchdaymedia/leaguedesk-go/pkg/config"
)

// ClubService serves cached club reads and invalidating club writes
type ClubService struct {
	deps *Deps
}

// NewClubService creates the club service
func NewClubService(deps *Deps) *ClubService {
	return &ClubService{deps: deps}
}

// GetByID returns one club, from cache when warm
func (s *ClubService) GetByID(ctx context.Context, id string) (*league.ClubNode, error) {
	start := time.Now()
	data, err := s.deps.Cache.GetOrCompute(ctx, caching.EntityClub, s.deps.Cache.Keys().ClubNode(id), manager.GetOptions{},
		func(ctx context.Context) ([]byte, error) {
			club, err := s.deps.Repo.GetClub(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(club)
		})
	s.deps.observe("club.get", start, err)
	if err != nil {
		return nil, err
	}

	var club league.ClubNode
	if err := json.Unmarshal(data, &club); err != nil {
		return nil, fmt.Errorf("failed to decode cached club %s: %w", id, err)
	}
	return &club, nil
}

// List returns every club ordered by name
func (s *ClubService) List(ctx context.Context) ([]*league.ClubNode, error) {
	start := time.Now()
	data, err := s.deps.Cache.GetOrCompute(ctx, caching.EntityClub, s.deps.Cache.Keys().ClubList(), manager.GetOptions{TTL: config.ListTTL},
		func(ctx context.Context) ([]byte, error) {
			clubs, err := s.deps.Repo.ListClubs(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(clubs)
		})
	s.deps.observe("club.list", start, err)
	if err != nil {
		return nil, err
	}

	var clubs []*league.ClubNode
	if err := json.Unmarshal(data, &clubs); err != nil {
		return nil, fmt.Errorf("failed to decode cached club list: %w", err)
	}
	return clubs, nil
}

// Players returns a club's current squad
func (s *ClubService) Players(ctx context.Context, clubID string) ([]*league.PlayerNode, error) {
	start := time.Now()
	data, err := s.deps.Cache.GetOrCompute(ctx, caching.EntityClub, s.deps.Cache.Keys().ClubPlayers(clubID), manager.GetOptions{TTL: config.ListTTL},
		func(ctx context.Context) ([]byte, error) {
			players, err := s.deps.Repo.PlayersByClub(ctx, clubID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(players)
		})
	s.deps.observe("club.players", start, err)
	if err != nil {
		return nil, err
	}

	var players []*league.PlayerNode
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("failed to decode cached squad for club %s: %w", clubID, err)
	}
	return players, nil
}

// Fixtures returns a club's fixtures, newest kickoff first
func (s *ClubService) Fixtures(ctx context.Context, clubID string) ([]*league.FixtureNode, error) {
	start := time.Now()
	data, err := s.deps.Cache.GetOrCompute(ctx, caching.EntityClub, s.deps.Cache.Keys().ClubFixtures(clubID), manager.GetOptions{TTL: config.ListTTL},
		func(ctx context.Context) ([]byte, error) {
			fixtures, err := s.deps.Repo.FixturesByClub(ctx, clubID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(fixtures)
		})
	s.deps.observe("club.fixtures", start, err)
	if err != nil {
		return nil, err
	}

	var fixtures []*league.FixtureNode
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to decode cached fixtures for club %s: %w", clubID, err)
	}
	return fixtures, nil
}

// Save writes a club and synchronously invalidates its cached variants. The
// write path never returns before invalidation completes, so a read that
// follows the write can not observe the old cached value.
func (s *ClubService) Save(ctx context.Context, club *league.ClubNode, created bool) error {
	start := time.Now()
	err := s.deps.Repo.UpsertClub(ctx, club)
	s.deps.observe("club.save", start, err)
	if err != nil {
		return err
	}

	changeKind := caching.ChangeUpdate
	if created {
		changeKind = caching.ChangeCreate
	}
	s.deps.Cache.Invalidate(ctx, caching.EntityClub, club.ID, changeKind)
	return nil
}

// Delete removes a club and invalidates its cached variants
func (s *ClubService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.deps.Repo.DeleteClub(ctx, id)
	s.deps.observe("club.delete", start, err)
	if err != nil {
		return err
	}
	s.deps.Cache.Invalidate(ctx, caching.EntityClub, id, caching.ChangeDelete)
	return nil
}
