// Package notifications provides the delivery adapters the alert engine
// dispatches through. Each adapter formats and sends one payload and
// reports success or failure; retry policy lives in the alert engine.
package notifications

import (
	"context"
	"fmt"
)

// Payload is the channel-independent notification content
type Payload struct {
	Title    string            `json:"title"`
	Severity string            `json:"severity"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Channel is the contract a notification adapter must satisfy. Send must
// respect ctx cancellation; a timed-out send is a delivery failure.
type Channel interface {
	Name() string
	Send(ctx context.Context, payload Payload) error
}

// Registry holds the configured channels keyed by name
type Registry struct {
	channels map[string]Channel
}

// NewRegistry creates an empty channel registry
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds a channel; duplicate names are a configuration error
func (r *Registry) Register(channel Channel) error {
	if _, exists := r.channels[channel.Name()]; exists {
		return fmt.Errorf("notification channel %q already registered", channel.Name())
	}
	r.channels[channel.Name()] = channel
	return nil
}

// Get returns a channel by name
func (r *Registry) Get(name string) (Channel, bool) {
	channel, ok := r.channels[name]
	return channel, ok
}

// Names lists the registered channel names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	return names
}
