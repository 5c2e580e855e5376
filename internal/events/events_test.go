package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		received = append(received, e)
		return nil
	})

	payload := BookingEventPayload{
		BookingID:  1,
		UserID:     2,
		TurfID:     3,
		StartTime:  time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		TotalPrice: 1200,
		Status:     "confirmed",
	}
	require.NoError(t, bus.PublishJSON(EventBookingCreated, payload))

	require.Len(t, received, 1)
	assert.Equal(t, EventBookingCreated, received[0].Type)

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestEventBus_TypeIsolation(t *testing.T) {
	bus := NewEventBus()

	var bookingEvents, matchEvents int
	bus.Subscribe(EventBookingCreated, func(*Event) error {
		bookingEvents++
		return nil
	})
	bus.Subscribe(EventMatchJoined, func(*Event) error {
		matchEvents++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventMatchJoined, MatchEventPayload{MatchID: 1}))

	assert.Zero(t, bookingEvents)
	assert.Equal(t, 1, matchEvents)
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	var first, second int
	bus.Subscribe(EventMatchFull, func(*Event) error {
		first++
		return nil
	})
	bus.Subscribe(EventMatchFull, func(*Event) error {
		second++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventMatchFull, MatchEventPayload{MatchID: 9, Status: "full"}))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestEventBus_NilSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingCreated, BookingEventPayload{}))
}
