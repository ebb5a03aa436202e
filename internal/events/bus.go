// Package events implements the in-process progress event bus.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/metrics"
)

// Event types emitted by the scrape orchestrator, in lifecycle order.
const (
	TypeStarted        = "started"
	TypeSearching      = "searching"
	TypeSearchComplete = "search_complete"
	TypeLeadProcessed  = "lead_processed"
	TypeCompleted      = "completed"
	TypeFailed         = "failed"
	TypeCancelled      = "cancelled"
)

// subscriberCap bounds each subscriber queue; on overflow the event is
// dropped, never blocking the publisher.
const subscriberCap = 100

// Event is one progress notification on a job channel.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// IsTerminal reports whether the stream ends after this event.
func (e Event) IsTerminal() bool {
	switch e.Type {
	case TypeCompleted, TypeFailed, TypeCancelled:
		return true
	default:
		return false
	}
}

// Bus fans events out to live subscribers per channel. Delivery is
// at-most-once and best-effort: there is no replay, and a full subscriber
// queue drops the event with a logged warning. Publish is safe to call from
// the orchestrator goroutine while subscribers come and go from HTTP handler
// goroutines.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]chan Event
	logger *zap.Logger
}

// NewBus constructs a Bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[string][]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new listener on channel and returns its receive
// handle. The same handle must be passed to Unsubscribe.
func (b *Bus) Subscribe(channel string) <-chan Event {
	ch := make(chan Event, subscriberCap)
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener. The handle's channel is closed so pending
// range loops terminate.
func (b *Bus) Unsubscribe(channel string, handle <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	for i, ch := range subs {
		if ch == handle {
			b.subs[channel] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subs[channel]) == 0 {
		delete(b.subs, channel)
	}
}

// Publish delivers evt to every current subscriber of channel without
// blocking. Subscribers whose queue is full miss the event.
func (b *Bus) Publish(channel string, evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	// Sends stay under the read lock so Unsubscribe cannot close a channel
	// mid-publish; every send is non-blocking so the lock is held briefly.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[channel] {
		select {
		case ch <- evt:
		default:
			metrics.ObserveEventDropped()
			b.logger.Warn("event queue full, dropping event",
				zap.String("channel", channel),
				zap.String("type", evt.Type),
			)
		}
	}
}

// JobChannel returns the bus channel key for a job id.
func JobChannel(jobID string) string {
	return "job:" + jobID
}
