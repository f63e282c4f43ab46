package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewell-health/clinic-portal/internal/interaction"
)

func TestTickerPublishesRecomputedElapsed(t *testing.T) {
	store, fake, _, _ := newTestStore(t)
	_, err := store.Start(context.Background(), startInit())
	require.NoError(t, err)

	ticker := NewTicker(store, fake, nil)
	var frames []Tick
	ticker.Subscribe(func(frame Tick) { frames = append(frames, frame) })

	fake.Advance(42 * time.Second)
	ticker.publish()
	// A long suspension between ticks must not drift the value: elapsed is
	// recomputed from the anchor, not accumulated per tick.
	fake.Advance(10 * time.Minute)
	ticker.publish()

	require.Len(t, frames, 2)
	assert.Equal(t, int64(42), frames[0].PhaseElapsedSeconds)
	assert.Equal(t, int64(642), frames[1].PhaseElapsedSeconds)
	assert.Equal(t, int64(642), frames[1].SessionElapsedSeconds)
	assert.Equal(t, interaction.PhaseCheckedIn, frames[1].Phase)
	assert.Equal(t, store.Get().StartTime, frames[1].SessionStartedAt)
}

func TestTickerSessionElapsedIncludesCompletedPhases(t *testing.T) {
	store, fake, _, _ := newTestStore(t)
	_, err := store.Start(context.Background(), startInit())
	require.NoError(t, err)

	fake.Advance(5 * time.Minute)
	_, err = store.Advance(context.Background())
	require.NoError(t, err)
	fake.Advance(30 * time.Second)

	ticker := NewTicker(store, fake, nil)
	var frame Tick
	ticker.Subscribe(func(f Tick) { frame = f })
	ticker.publish()

	assert.Equal(t, int64(30), frame.PhaseElapsedSeconds)
	assert.Equal(t, int64(300), frame.TotalElapsedSeconds)
	assert.Equal(t, int64(330), frame.SessionElapsedSeconds)
}

func TestTickerSilentWithoutSession(t *testing.T) {
	store, fake, _, _ := newTestStore(t)
	ticker := NewTicker(store, fake, nil)

	var count int
	ticker.Subscribe(func(Tick) { count++ })
	ticker.publish()
	assert.Zero(t, count)
}

func TestTickerSilentAfterCompletion(t *testing.T) {
	store, fake, _, _ := newTestStore(t)
	_, err := store.Start(context.Background(), startInit())
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		fake.Advance(time.Minute)
		_, err := store.Advance(context.Background())
		require.NoError(t, err)
	}

	ticker := NewTicker(store, fake, nil)
	var count int
	ticker.Subscribe(func(Tick) { count++ })
	ticker.publish()
	assert.Zero(t, count)
}

func TestTickerUnsubscribe(t *testing.T) {
	store, fake, _, _ := newTestStore(t)
	_, err := store.Start(context.Background(), startInit())
	require.NoError(t, err)

	ticker := NewTicker(store, fake, nil)
	var count int
	unsub := ticker.Subscribe(func(Tick) { count++ })
	ticker.publish()
	unsub()
	ticker.publish()
	assert.Equal(t, 1, count)
}

func TestTickerRunStops(t *testing.T) {
	store, fake, _, _ := newTestStore(t)
	_, err := store.Start(context.Background(), startInit())
	require.NoError(t, err)

	ticker := NewTicker(store, fake, nil).WithInterval(time.Millisecond)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker.Run(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop after cancel")
	}
}
