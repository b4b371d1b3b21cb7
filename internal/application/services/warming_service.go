package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
	"github.com/matchdaymedia/leaguedesk-go/pkg/config"
)

// WarmingService proactively computes the hot read set so the first reader
// after a deploy or an invalidation burst does not pay the cold-start cost.
// It warms once at startup and then on a fixed interval.
type WarmingService struct {
	deps     *Deps
	interval time.Duration

	runMu   sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewWarmingService creates the warming service
func NewWarmingService(deps *Deps, interval time.Duration) *WarmingService {
	return &WarmingService{deps: deps, interval: interval}
}

// Start warms immediately and then launches the interval loop. Idempotent.
func (s *WarmingService) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan struct{})
	go s.run(ctx)
	s.deps.Logger.Warming().Info("Cache warming started", "interval", s.interval)
}

// Stop halts the loop and waits for an in-flight warm pass to finish
func (s *WarmingService) Stop() {
	s.runMu.Lock()
	cancel := s.cancel
	stopped := s.stopped
	s.cancel = nil
	s.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
	s.deps.Logger.Warming().Info("Cache warming stopped")
}

func (s *WarmingService) run(ctx context.Context) {
	defer close(s.stopped)

	s.WarmNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.WarmNow(ctx)
		}
	}
}

// WarmNow computes and stores the hot read set: the club list, every club
// node with its squad, and the standings table for every group. Per-key
// failures are logged inside the manager and never abort the pass.
func (s *WarmingService) WarmNow(ctx context.Context) int {
	start := time.Now()

	clubs, err := s.deps.Repo.ListClubs(ctx)
	if err != nil {
		s.deps.Logger.Warming().Warn("Warm pass skipped, club list unavailable", "error", err.Error())
		return 0
	}

	keys := s.deps.Cache.Keys()
	targets := []manager.WarmTarget{{
		EntityType: caching.EntityClub,
		Key:        keys.ClubList(),
		TTL:        config.ListTTL,
		Compute: func(ctx context.Context) ([]byte, error) {
			all, err := s.deps.Repo.ListClubs(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(all)
		},
	}}

	groups := make(map[string]bool)
	for _, club := range clubs {
		club := club
		groups[club.GroupID] = true
		targets = append(targets,
			manager.WarmTarget{
				EntityType: caching.EntityClub,
				Key:        keys.ClubNode(club.ID),
				Compute: func(ctx context.Context) ([]byte, error) {
					node, err := s.deps.Repo.GetClub(ctx, club.ID)
					if err != nil {
						return nil, err
					}
					return json.Marshal(node)
				},
			},
			manager.WarmTarget{
				EntityType: caching.EntityClub,
				Key:        keys.ClubPlayers(club.ID),
				TTL:        config.ListTTL,
				Compute: func(ctx context.Context) ([]byte, error) {
					players, err := s.deps.Repo.PlayersByClub(ctx, club.ID)
					if err != nil {
						return nil, err
					}
					return json.Marshal(players)
				},
			})
	}

	for groupID := range groups {
		groupID := groupID
		targets = append(targets, manager.WarmTarget{
			EntityType: caching.EntityStandings,
			Key:        keys.Standings(groupID),
			Compute: func(ctx context.Context) ([]byte, error) {
				standings, err := s.deps.Repo.ComputeStandings(ctx, groupID)
				if err != nil {
					return nil, err
				}
				return json.Marshal(standings)
			},
		})
	}

	warmed := s.deps.Cache.Warm(ctx, targets)
	s.deps.Logger.Warming().Info("Warm pass complete",
		"targets", len(targets), "warmed", warmed, "duration", time.Since(start))
	return warmed
}
