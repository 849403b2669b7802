package events

import (
	"context"
	"sync"
)

// Recorded is one captured event.
type Recorded struct {
	Topic string
	Event any
}

// MemoryPublisher records events in memory. Intended for tests and for
// the CLI's --dry-run paths.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Recorded
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (m *MemoryPublisher) Publish(ctx context.Context, topic string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Recorded{Topic: topic, Event: event})
	return nil
}

func (m *MemoryPublisher) Close() error {
	return nil
}

// Events returns a copy of all recorded events.
func (m *MemoryPublisher) Events() []Recorded {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Recorded, len(m.events))
	copy(out, m.events)
	return out
}

// Topics returns the topics of all recorded events, in order.
func (m *MemoryPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	topics := make([]string, len(m.events))
	for i, e := range m.events {
		topics[i] = e.Topic
	}
	return topics
}

var _ Publisher = (*MemoryPublisher)(nil)
