package queue

import (
	"context"
	"sync"
	"time"

	"github.com/carewell-health/clinic-portal/internal/appointments"
	"github.com/carewell-health/clinic-portal/internal/clock"
	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/internal/observability/metrics"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

type appointmentSource interface {
	ListForDay(ctx context.Context, day time.Time) ([]*appointments.Appointment, error)
}

type interactionSource interface {
	ListForDay(ctx context.Context, day time.Time) ([]*interaction.Interaction, error)
}

// Predictor fetches the ML duration estimate for an appointment shape. May
// be nil; estimates are optional.
type Predictor interface {
	PredictDurationSeconds(ctx context.Context, department, priority, appointmentType string) (int64, error)
}

// Refresher periodically rebuilds the queue snapshot from the appointment
// and interaction collaborators. Polling every ~30 seconds is the accepted
// first implementation; a push channel could replace it if latency
// requirements tighten.
type Refresher struct {
	appts     appointmentSource
	ins       interactionSource
	predictor Predictor
	clock     clock.Clock
	logger    *logging.Logger
	metrics   *metrics.LifecycleMetrics
	interval  time.Duration

	mu          sync.RWMutex
	entries     []Entry
	refreshedAt time.Time
}

// NewRefresher creates a queue refresher.
func NewRefresher(appts appointmentSource, ins interactionSource, predictor Predictor, clk clock.Clock, logger *logging.Logger) *Refresher {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Refresher{
		appts:     appts,
		ins:       ins,
		predictor: predictor,
		clock:     clk,
		logger:    logger,
		interval:  30 * time.Second,
	}
}

// WithInterval overrides the 30-second default.
func (r *Refresher) WithInterval(d time.Duration) *Refresher {
	if d > 0 {
		r.interval = d
	}
	return r
}

// WithMetrics attaches lifecycle metrics. Refresh latency is recorded per
// outcome.
func (r *Refresher) WithMetrics(m *metrics.LifecycleMetrics) *Refresher {
	r.metrics = m
	return r
}

// Run refreshes until ctx is cancelled, once immediately and then on every
// interval.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh rebuilds the snapshot now. A failing collaborator leaves the
// previous snapshot in place.
func (r *Refresher) Refresh(ctx context.Context) {
	started := time.Now()
	now := r.clock.Now()

	appts, err := r.appts.ListForDay(ctx, now)
	if err != nil {
		r.logger.Error("queue refresh: appointments fetch failed", "error", err)
		r.metrics.ObserveQueueRefresh("error", time.Since(started).Seconds())
		return
	}
	ins, err := r.ins.ListForDay(ctx, now)
	if err != nil {
		r.logger.Error("queue refresh: interactions fetch failed", "error", err)
		r.metrics.ObserveQueueRefresh("error", time.Since(started).Seconds())
		return
	}

	entries := Build(appts, ins, now)
	r.attachPredictions(ctx, entries)

	r.mu.Lock()
	r.entries = entries
	r.refreshedAt = now
	r.mu.Unlock()

	r.metrics.ObserveQueueRefresh("ok", time.Since(started).Seconds())
}

// attachPredictions decorates non-completed entries with duration
// estimates. A failed estimate leaves the entry without one; the threshold
// notifier degrades to inert for it.
func (r *Refresher) attachPredictions(ctx context.Context, entries []Entry) {
	if r.predictor == nil {
		return
	}
	for i := range entries {
		if entries[i].Status == StatusCompleted {
			continue
		}
		secs, err := r.predictor.PredictDurationSeconds(ctx, entries[i].Department, entries[i].Priority, entries[i].AppointmentType)
		if err != nil {
			r.logger.Debug("duration prediction unavailable",
				"appointment_id", entries[i].AppointmentID,
				"error", err,
			)
			continue
		}
		if secs > 0 {
			v := secs
			entries[i].PredictedDurationSeconds = &v
		}
	}
}

// Snapshot returns the latest entries, optionally filtered by department,
// with wait times recomputed against the current clock.
func (r *Refresher) Snapshot(department string) ([]Entry, time.Time) {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if department == "" || e.Department == department {
			entries = append(entries, e)
		}
	}
	refreshedAt := r.refreshedAt
	r.mu.RUnlock()

	now := r.clock.Now()
	for i := range entries {
		if entries[i].CheckInTime != nil && entries[i].Status != StatusCompleted {
			entries[i].WaitMinutes = clock.ElapsedMinutes(*entries[i].CheckInTime, now)
		}
	}
	return entries, refreshedAt
}
