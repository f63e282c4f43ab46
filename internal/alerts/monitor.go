package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/carewell-health/clinic-portal/internal/session"
)

// Monitor bridges the elapsed-time ticker to the notifier. It tracks which
// session/phase combination the latches belong to and re-arms them the
// moment either changes, so the at-most-once guarantee is scoped to one
// tracked interval. The session start time is part of the key: restarting a
// session on the same interaction re-arms the latches too.
type Monitor struct {
	notifier *Notifier

	mu      sync.Mutex
	lastKey string
}

// NewMonitor creates a monitor over the given notifier.
func NewMonitor(notifier *Notifier) *Monitor {
	return &Monitor{notifier: notifier}
}

// OnTick consumes one ticker frame. Subscribe it with ticker.Subscribe.
func (m *Monitor) OnTick(frame session.Tick) {
	key := frame.InteractionID + "|" + frame.SessionStartedAt.UTC().Format(time.RFC3339Nano) + "|" + string(frame.Phase)

	m.mu.Lock()
	if key != m.lastKey {
		m.lastKey = key
		m.mu.Unlock()
		m.notifier.ResetAlerts()
	} else {
		m.mu.Unlock()
	}

	var threshold int64
	if frame.PredictedDurationSeconds != nil {
		threshold = *frame.PredictedDurationSeconds
	}
	m.notifier.Observe(context.Background(), frame.SessionElapsedSeconds, threshold, true)
}
