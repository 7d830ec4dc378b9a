package events

import (
	"fmt"
	"sync"
	"time"
)

const subscriberBufferSize = 16

// Event signals that an evaluation was recorded and the target's aggregate
// moved. Dashboards use it as a refresh trigger; it is not a notification
// delivery mechanism.
type Event struct {
	Source               string    `json:"source"`
	TargetType           string    `json:"target_type"`
	TargetID             uint      `json:"target_id"`
	AverageScore         float64   `json:"average_score"`
	CompletedEvaluations int64     `json:"completed_evaluations"`
	Replaced             bool      `json:"replaced"`
	SentAt               time.Time `json:"sent_at"`
}

// Key returns the subscription key for the event's target.
func (e Event) Key() string {
	return TargetKey(e.TargetType, e.TargetID)
}

// TargetKey builds the subscription key for a target.
func TargetKey(targetType string, targetID uint) string {
	return fmt.Sprintf("%s:%d", targetType, targetID)
}

// Broker fans events out to in-process subscribers keyed by target.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewBroker constructs an empty broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a listener for one target key. The returned cancel
// function must be called to release the channel.
func (b *Broker) Subscribe(key string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBufferSize)

	b.mu.Lock()
	if b.subscribers[key] == nil {
		b.subscribers[key] = make(map[chan Event]struct{})
	}
	b.subscribers[key][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subscribers[key]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subscribers, key)
			}
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// Broadcast delivers the event to every subscriber of its target key.
// Slow subscribers are skipped rather than blocking the write path.
func (b *Broker) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.Key()] {
		select {
		case ch <- event:
		default:
		}
	}
}
