// Package events publishes domain events after successful writes. Delivery is
// best effort: callers log publish failures and carry on.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeActivityLogged       = "activity.logged"
	TypeActivityDeleted      = "activity.deleted"
	TypeLeaderboardRefreshed = "leaderboard.refreshed"
)

type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func New(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned from Publish when set
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// OfType returns the published events with the given type.
func (p *MemoryPublisher) OfType(eventType string) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
