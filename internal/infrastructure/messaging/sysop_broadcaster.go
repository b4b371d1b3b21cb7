// Package messaging pushes live operational state to connected sysop
// dashboard clients over websockets.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/alerting"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/caching/manager"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/monitoring"
)

// SysOpClient represents a single connected sysop dashboard client.
type SysOpClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// StatusPayload is the periodic state frame sent to every connected client.
type StatusPayload struct {
	Kind       string             `json:"kind"` // "status"
	Timestamp  time.Time          `json:"timestamp"`
	Cache      manager.Metrics    `json:"cache"`
	Health     manager.Health     `json:"health"`
	Summary    monitoring.Summary `json:"summary"`
	OpenAlerts []*alerting.Alert  `json:"openAlerts"`
}

// AlertPayload is the push frame sent when an alert changes state.
type AlertPayload struct {
	Kind  string          `json:"kind"` // "alert"
	From  alerting.State  `json:"from"`
	To    alerting.State  `json:"to"`
	Alert *alerting.Alert `json:"alert"`
}

// SysOpBroadcaster manages connected sysop clients and broadcasts the
// monitoring picture on an interval plus alert transitions as they happen.
type SysOpBroadcaster struct {
	clients    map[*SysOpClient]bool
	register   chan *SysOpClient
	unregister chan *SysOpClient
	transition chan AlertPayload
	done       chan struct{}

	cacheManager *manager.Manager
	monitor      *monitoring.Monitor
	engine       *alerting.Engine
	logger       *logging.ChanneledLogger
	interval     time.Duration

	mu sync.RWMutex
}

// NewSysOpBroadcaster creates a broadcaster wired to the live subsystems.
func NewSysOpBroadcaster(cm *manager.Manager, monitor *monitoring.Monitor, engine *alerting.Engine, interval time.Duration, logger *logging.ChanneledLogger) *SysOpBroadcaster {
	return &SysOpBroadcaster{
		clients:      make(map[*SysOpClient]bool),
		register:     make(chan *SysOpClient),
		unregister:   make(chan *SysOpClient),
		transition:   make(chan AlertPayload, 64),
		done:         make(chan struct{}),
		cacheManager: cm,
		monitor:      monitor,
		engine:       engine,
		logger:       logger,
		interval:     interval,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *SysOpBroadcaster) Run() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			b.mu.Lock()
			for client := range b.clients {
				close(client.Send)
				delete(b.clients, client)
			}
			b.mu.Unlock()
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			b.logger.Sysop().Info("SysOp client connected", "clients", b.clientCount())

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()
			b.logger.Sysop().Info("SysOp client disconnected", "clients", b.clientCount())

		case payload := <-b.transition:
			b.broadcast(payload)

		case <-ticker.C:
			b.broadcastStatus()
		}
	}
}

// Stop halts the loop and disconnects every client.
func (b *SysOpBroadcaster) Stop() {
	close(b.done)
}

// Register queues a client for registration. A no-op after Stop.
func (b *SysOpBroadcaster) Register(client *SysOpClient) {
	select {
	case b.register <- client:
	case <-b.done:
	}
}

// Unregister queues a client for unregistration. A no-op after Stop.
func (b *SysOpBroadcaster) Unregister(client *SysOpClient) {
	select {
	case b.unregister <- client:
	case <-b.done:
	}
}

// OnAlertTransition is wired as the alert engine's transition sink. It never
// blocks the engine; a full queue drops the frame.
func (b *SysOpBroadcaster) OnAlertTransition(event alerting.TransitionEvent) {
	payload := AlertPayload{Kind: "alert", From: event.From, To: event.To, Alert: event.Alert}
	select {
	case b.transition <- payload:
	default:
	}
}

func (b *SysOpBroadcaster) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// broadcastStatus gathers the current operational picture and sends it to
// every connected client.
func (b *SysOpBroadcaster) broadcastStatus() {
	if b.clientCount() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload := StatusPayload{
		Kind:       "status",
		Timestamp:  time.Now().UTC(),
		Cache:      b.cacheManager.Metrics(),
		Health:     b.cacheManager.Health(ctx),
		Summary:    b.monitor.Summarize(),
		OpenAlerts: b.engine.ListOpen(),
	}
	b.broadcast(payload)
}

// broadcast marshals one frame and fans it out, skipping clients whose send
// buffer is full rather than blocking the loop.
func (b *SysOpBroadcaster) broadcast(payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		b.logger.Sysop().Error("Failed to marshal sysop frame", "error", err.Error())
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}
