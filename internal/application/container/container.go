// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/application/services"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/alerting"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/store"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/messaging"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/notifications"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/monitoring"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/persistence/database"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/persistence/league"
	"github.com/matchdaymedia/leaguedesk-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	Logger *logging.ChanneledLogger

	// Infrastructure
	DB           *database.DB
	Repo         *league.Repository
	CacheManager *manager.Manager
	Monitor      *monitoring.Monitor
	AlertEngine  *alerting.Engine
	Channels     *notifications.Registry
	Broadcaster  *messaging.SysOpBroadcaster

	// Content services (stateless singletons)
	ClubService      *services.ClubService
	PlayerService    *services.PlayerService
	FixtureService   *services.FixtureService
	StandingsService *services.StandingsService
	WarmingService   *services.WarmingService
}

// NewContainer creates and wires all singleton services. Configuration
// problems surface here, before the server accepts traffic.
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	db, err := database.NewConnection(config.DBDriver, config.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to data store: %w", err)
	}
	repo := league.NewRepository(db)

	cacheStore, err := store.NewRedisStore(&store.RedisConfig{
		Addr:      config.RedisAddr,
		Password:  config.RedisPassword,
		DB:        config.RedisDB,
		OpTimeout: config.CacheOpTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	cacheManager, err := manager.NewManager(cacheStore, &manager.Config{
		Prefix: config.CacheKeyPrefix,
		DefaultTTLs: map[string]time.Duration{
			caching.EntityClub:      config.ClubTTL,
			caching.EntityPlayer:    config.PlayerTTL,
			caching.EntityFixture:   config.FixtureTTL,
			caching.EntityStandings: config.StandingsTTL,
		},
		DegradedLatency: config.CacheDegradedLatency,
		ProbeTimeout:    config.CacheOpTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	sampler := monitoring.NewSampler(config.MonitorWindowSize)
	monitor, err := monitoring.NewMonitor(sampler, cacheManager, db, &monitoring.Config{
		Interval:     config.MonitorInterval,
		WindowSize:   config.MonitorWindowSize,
		MaxSnapshots: config.MonitorMaxSnapshots,
		TrendWindow:  config.MonitorTrendWindow,
		ProbeTimeout: config.MonitorProbeTimeout,
		Thresholds: monitoring.Thresholds{
			SlowMeanMs:    config.SlowMeanThresholdMs,
			LowHitRate:    config.LowHitRateThreshold,
			HighErrorRate: config.HighErrorRateMaximum,
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	channels, err := buildChannels(logger)
	if err != nil {
		return nil, err
	}

	alertStore, err := alerting.NewSQLiteStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert store: %w", err)
	}

	engine, err := alerting.NewEngine(alertConfig(channels), alertStore, channels, logger)
	if err != nil {
		return nil, err
	}
	monitor.SetEvaluator(engine)

	broadcaster := messaging.NewSysOpBroadcaster(cacheManager, monitor, engine, config.SysopBroadcastInterval, logger)
	engine.SetTransitionSink(broadcaster.OnAlertTransition)

	deps := &services.Deps{Cache: cacheManager, Repo: repo, Monitor: monitor, Logger: logger}

	return &Container{
		Logger:           logger,
		DB:               db,
		Repo:             repo,
		CacheManager:     cacheManager,
		Monitor:          monitor,
		AlertEngine:      engine,
		Channels:         channels,
		Broadcaster:      broadcaster,
		ClubService:      services.NewClubService(deps),
		PlayerService:    services.NewPlayerService(deps),
		FixtureService:   services.NewFixtureService(deps),
		StandingsService: services.NewStandingsService(deps),
		WarmingService:   services.NewWarmingService(deps, config.WarmingInterval),
	}, nil
}

// buildChannels registers every notification adapter that has configuration.
// An empty registry is valid; alerts still open, nothing is delivered.
func buildChannels(logger *logging.ChanneledLogger) (*notifications.Registry, error) {
	registry := notifications.NewRegistry()

	if config.WebhookEndpoint != "" {
		channel, err := notifications.NewWebhookChannel("webhook", config.WebhookEndpoint, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(channel); err != nil {
			return nil, err
		}
	}

	if config.ChatWebhookURL != "" {
		channel, err := notifications.NewChatWebhookChannel("chat", config.ChatWebhookURL, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(channel); err != nil {
			return nil, err
		}
	}

	if config.ResendAPIKey != "" && config.AlertEmailTo != "" {
		channel, err := notifications.NewEmailChannel("email", &notifications.EmailConfig{
			APIKey:    config.ResendAPIKey,
			To:        []string{config.AlertEmailTo},
			FromEmail: config.AlertEmailFrom,
			FromName:  config.AlertEmailFromName,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(channel); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// alertConfig builds the static rule set over the metrics the monitor emits.
// Severity routing and escalation only reference channels that exist, so a
// deployment with no chat webhook simply escalates through the webhook.
func alertConfig(channels *notifications.Registry) *alerting.Config {
	available := func(names ...string) []string {
		out := make([]string, 0, len(names))
		for _, name := range names {
			if _, ok := channels.Get(name); ok {
				out = append(out, name)
			}
		}
		return out
	}

	return &alerting.Config{
		Rules: []alerting.Rule{
			{
				ID:           "cache-hit-rate-low",
				Metric:       "cache.hit_rate",
				Comparator:   alerting.CompareBelow,
				Threshold:    config.LowHitRateThreshold,
				SustainedFor: 2 * config.MonitorInterval,
				Severity:     alerting.SeverityWarning,
			},
			{
				ID:           "standings-mean-slow",
				Metric:       "standings.table.mean_ms",
				Comparator:   alerting.CompareAbove,
				Threshold:    config.SlowMeanThresholdMs,
				SustainedFor: 2 * config.MonitorInterval,
				Severity:     alerting.SeverityWarning,
			},
			{
				ID:           "standings-error-rate-high",
				Metric:       "standings.table.error_rate",
				Comparator:   alerting.CompareAbove,
				Threshold:    config.HighErrorRateMaximum,
				SustainedFor: 0,
				Severity:     alerting.SeverityCritical,
			},
			{
				ID:           "datastore-latency-high",
				Metric:       "datastore.latency_ms",
				Comparator:   alerting.CompareAbove,
				Threshold:    config.SlowMeanThresholdMs,
				SustainedFor: 2 * config.MonitorInterval,
				Severity:     alerting.SeverityCritical,
			},
		},
		TickInterval:    config.AlertTickInterval,
		Cooldown:        config.AlertCooldown,
		MaxRetries:      config.AlertMaxRetries,
		RetryBackoff:    config.AlertRetryBackoff,
		HistoryLimit:    config.AlertHistoryLimit,
		DispatchTimeout: config.DispatchTimeout,
		SeverityChannels: map[alerting.Severity][]string{
			alerting.SeverityInfo:     available("chat"),
			alerting.SeverityWarning:  available("chat", "webhook"),
			alerting.SeverityCritical: available("chat", "webhook", "email"),
		},
		EscalationSchedules: map[alerting.Severity][]alerting.EscalationTier{
			alerting.SeverityWarning: {
				{After: 5 * time.Minute, Channels: available("email")},
			},
			alerting.SeverityCritical: {
				{After: 1 * time.Minute, Channels: available("email")},
				{After: 5 * time.Minute, Channels: available("email", "chat")},
			},
		},
	}
}
