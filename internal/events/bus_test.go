package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(nil)

	var first, second []string
	bus.Subscribe(func(evt Envelope) { first = append(first, evt.Type) })
	bus.Subscribe(func(evt Envelope) { second = append(second, evt.Type) })

	bus.Publish(Envelope{Type: TypeSessionStarted, Payload: SessionStartedV1{InteractionID: "int-1"}})

	assert.Equal(t, []string{TypeSessionStarted}, first)
	assert.Equal(t, []string{TypeSessionStarted}, second)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(nil)

	var got int
	unsub := bus.Subscribe(func(Envelope) { got++ })

	bus.Publish(Envelope{Type: TypePhaseAdvanced})
	unsub()
	bus.Publish(Envelope{Type: TypePhaseAdvanced})

	assert.Equal(t, 1, got)
}

func TestBusSurvivesPanickingSubscriber(t *testing.T) {
	bus := NewBus(nil)

	bus.Subscribe(func(Envelope) { panic("bad listener") })
	var delivered bool
	bus.Subscribe(func(Envelope) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(Envelope{Type: TypeSessionFinished, Payload: SessionFinishedV1{
			InteractionID:       "int-1",
			TotalElapsedSeconds: 1800,
			FinishedAt:          time.Now().UTC(),
		}})
	})
	assert.True(t, delivered)
}
