package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesAllClients(t *testing.T) {
	b := NewBroadcaster(nil)

	first, stopFirst := b.Register()
	second, stopSecond := b.Register()
	defer stopFirst()
	defer stopSecond()

	require.NoError(t, b.PushToast(context.Background(), Toast{Severity: "warning", Title: "Approaching limit"}))

	for _, ch := range []<-chan Frame{first, second} {
		frame := <-ch
		assert.Equal(t, FrameToast, frame.Type)
		assert.Equal(t, "Approaching limit", frame.Payload.(Toast).Title)
	}
}

func TestUnregisterClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, stop := b.Register()
	stop()
	stop() // idempotent

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, b.ClientCount())
}

func TestSlowClientDropsFramesWithoutBlocking(t *testing.T) {
	b := NewBroadcaster(nil)
	b.buffer = 1
	ch, stop := b.Register()
	defer stop()

	// Second broadcast overflows the 1-slot buffer; it must not block.
	b.Broadcast(Frame{Type: FrameTick})
	b.Broadcast(Frame{Type: FrameTick})

	assert.Len(t, ch, 1)
}

func TestCueShapes(t *testing.T) {
	warning := WarningCue()
	require.Len(t, warning.Tones, 2)
	assert.Greater(t, warning.Tones[0].FrequencyHz, warning.Tones[1].FrequencyHz, "warning descends")

	alert := AlertCue()
	assert.Len(t, alert.Tones, 3)
}

func TestPlayCueNeverFails(t *testing.T) {
	b := NewBroadcaster(nil)
	assert.NoError(t, b.PlayCue(context.Background(), AlertCue()))
}
