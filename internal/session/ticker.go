package session

import (
	"context"
	"sync"
	"time"

	"github.com/carewell-health/clinic-portal/internal/clock"
	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// Tick is one published elapsed-time frame. Elapsed values are recomputed
// from the session's wall-clock anchors on every tick, never accumulated by
// counting ticks, so a suspended consumer resumes with correct values.
type Tick struct {
	InteractionID            string            `json:"interaction_id"`
	SessionStartedAt         time.Time         `json:"session_started_at"`
	Phase                    interaction.Phase `json:"phase"`
	PhaseElapsedSeconds      int64             `json:"phase_elapsed_seconds"`
	SessionElapsedSeconds    int64             `json:"session_elapsed_seconds"`
	TotalElapsedSeconds      int64             `json:"total_elapsed_seconds"`
	PredictedDurationSeconds *int64            `json:"predicted_duration_seconds,omitempty"`
	At                       time.Time         `json:"at"`
}

// Ticker republishes the active session's elapsed time once per interval
// while a session exists and has not completed. Completed or absent
// sessions publish nothing.
type Ticker struct {
	store    *Store
	clock    clock.Clock
	logger   *logging.Logger
	interval time.Duration

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Tick)
}

// NewTicker creates a ticker over the given store.
func NewTicker(store *Store, clk clock.Clock, logger *logging.Logger) *Ticker {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Ticker{
		store:    store,
		clock:    clk,
		logger:   logger,
		interval: time.Second,
		subs:     make(map[int]func(Tick)),
	}
}

// WithInterval overrides the 1-second default. Used by tests.
func (t *Ticker) WithInterval(d time.Duration) *Ticker {
	if d > 0 {
		t.interval = d
	}
	return t
}

// Subscribe registers a frame consumer and returns an unsubscribe function.
func (t *Ticker) Subscribe(fn func(Tick)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Run publishes frames until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.publish()
		}
	}
}

// publish samples now, recomputes elapsed values against the session's
// anchors and fans the frame out to subscribers.
func (t *Ticker) publish() {
	sess := t.store.Get()
	if sess == nil || sess.Completed() {
		return
	}

	now := t.clock.Now()
	phaseElapsed := clock.ElapsedSeconds(sess.PhaseStartTime, now)
	frame := Tick{
		InteractionID:            sess.InteractionID,
		SessionStartedAt:         sess.StartTime,
		Phase:                    sess.CurrentPhase,
		PhaseElapsedSeconds:      phaseElapsed,
		SessionElapsedSeconds:    sess.TotalElapsedSeconds + phaseElapsed,
		TotalElapsedSeconds:      sess.TotalElapsedSeconds,
		PredictedDurationSeconds: sess.PredictedDurationSeconds,
		At:                       now,
	}

	t.mu.Lock()
	handlers := make([]func(Tick), 0, len(t.subs))
	for _, fn := range t.subs {
		handlers = append(handlers, fn)
	}
	t.mu.Unlock()

	for _, fn := range handlers {
		fn(frame)
	}
}
