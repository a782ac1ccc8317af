package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	callCount := 0
	bus.Subscribe(func(event *Event) error {
		received = event
		callCount++
		return nil
	}, EventBookingCreated)

	err := bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 9, BookingReference: "BK20300101ABCDEF"})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, int64(9), decoded.BookingID)
	assert.Equal(t, "BK20300101ABCDEF", decoded.BookingReference)
}

func TestEventBusMultipleTypesAndSubscribers(t *testing.T) {
	bus := NewEventBus()
	var all, created int

	bus.Subscribe(func(*Event) error { all++; return nil }, BookingEventTypes...)
	bus.Subscribe(func(*Event) error { created++; return nil }, EventBookingCreated)

	for _, eventType := range BookingEventTypes {
		require.NoError(t, bus.Publish(&Event{Type: eventType}))
	}

	assert.Equal(t, 3, all)
	assert.Equal(t, 1, created)
}

func TestEventBusJoinsHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	first := errors.New("first")
	called := false

	bus.Subscribe(func(*Event) error { return first }, EventBookingCancelled)
	bus.Subscribe(func(*Event) error { called = true; return nil }, EventBookingCancelled)

	err := bus.PublishJSON(EventBookingCancelled, BookingEventPayload{BookingID: 1})
	assert.ErrorIs(t, err, first)
	assert.True(t, called, "later handlers still run")
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(&Event{Type: "unknown"}))
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON(EventBookingCreated, nil))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent("type", BookingEventPayload{BookingID: 123})
	require.NoError(t, err)
	assert.Equal(t, "type", event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, event.Decode(&decoded))
	assert.Equal(t, int64(123), decoded.BookingID)

	_, err = NewJSONEvent("type", make(chan int))
	assert.Error(t, err)
}
