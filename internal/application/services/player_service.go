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

// PlayerService serves cached player reads and invalidating player writes
type PlayerService struct {
	deps *Deps
}

// NewPlayerService creates the player service
func NewPlayerService(deps *Deps) *PlayerService {
	return &PlayerService{deps: deps}
}

// GetByID returns one player, from cache when warm
func (s *PlayerService) GetByID(ctx context.Context, id string) (*league.PlayerNode, error) {
	start := time.Now()
	data, err := s.deps.Cache.GetOrCompute(ctx, caching.EntityPlayer, s.deps.Cache.Keys().PlayerNode(id), manager.GetOptions{},
		func(ctx context.Context) ([]byte, error) {
			player, err := s.deps.Repo.GetPlayer(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(player)
		})
	s.deps.observe("player.get", start, err)
	if err != nil {
		return nil, err
	}

	var player league.PlayerNode
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, fmt.Errorf("failed to decode cached player %s: %w", id, err)
	}
	return &player, nil
}

// Save writes a player and synchronously invalidates its cached variants.
// A transfer also touches the squad lists of the old and new club, which the
// dependency map covers through the player entity's dependents.
func (s *PlayerService) Save(ctx context.Context, player *league.PlayerNode, created bool) error {
	start := time.Now()
	err := s.deps.Repo.UpsertPlayer(ctx, player)
	s.deps.observe("player.save", start, err)
	if err != nil {
		return err
	}

	changeKind := caching.ChangeUpdate
	if created {
		changeKind = caching.ChangeCreate
	}
	s.deps.Cache.Invalidate(ctx, caching.EntityPlayer, player.ID, changeKind)
	return nil
}

// Delete removes a player and invalidates its cached variants
func (s *PlayerService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.deps.Repo.DeletePlayer(ctx, id)
	s.deps.observe("player.delete", start, err)
	if err != nil {
		return err
	}
	s.deps.Cache.Invalidate(ctx, caching.EntityPlayer, id, caching.ChangeDelete)
	return nil
}
