package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated  = "booking_created"
	EventBookingConflict = "booking_conflict"
	EventMatchCreated    = "match_created"
	EventMatchJoined     = "match_joined"
	EventMatchFull       = "match_full"
)

// BookingEventPayload is the booking snapshot handed to event consumers.
type BookingEventPayload struct {
	BookingID  int64     `json:"booking_id"`
	UserID     int64     `json:"user_id"`
	TurfID     int64     `json:"turf_id"`
	KitID      *int64    `json:"kit_id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
}

// MatchEventPayload is the match snapshot handed to event consumers.
type MatchEventPayload struct {
	MatchID       int64     `json:"match_id"`
	UserID        int64     `json:"user_id"`
	TurfID        int64     `json:"turf_id,omitempty"`
	Sport         string    `json:"sport,omitempty"`
	MatchTime     time.Time `json:"match_time,omitempty"`
	PlayersNeeded int64     `json:"players_needed,omitempty"`
	Status        string    `json:"status"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
