package alerting

import (
	"sync"
)

// Store persists alerts so the history survives restarts. Implementations
// must be safe for concurrent use by the engine's tick loop and handlers.
type Store interface {
	// Load returns every persisted alert, oldest first.
	Load() ([]*Alert, error)
	// Save writes an alert, replacing any record with the same ID.
	Save(alert *Alert) error
	// Prune drops the oldest resolved alerts until at most limit remain.
	Prune(limit int) error
}

// MemoryStore keeps alerts in process. Used in tests and when no
// durable path is configured.
type MemoryStore struct {
	mu     sync.Mutex
	alerts map[string]*Alert
	order  []string
}

// NewMemoryStore creates an empty in-process alert store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[string]*Alert)}
}

func (s *MemoryStore) Load() ([]*Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Alert, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.alerts[id].clone())
	}
	return out, nil
}

func (s *MemoryStore) Save(alert *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alerts[alert.ID]; !exists {
		s.order = append(s.order, alert.ID)
	}
	s.alerts[alert.ID] = alert.clone()
	return nil
}

func (s *MemoryStore) Prune(limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	excess := len(s.order) - limit
	if excess <= 0 {
		return nil
	}
	kept := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if excess > 0 && !s.alerts[id].State.Active() {
			delete(s.alerts, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}
