package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/internal/notify"
	"github.com/carewell-health/clinic-portal/internal/observability/metrics"
	"github.com/carewell-health/clinic-portal/internal/session"
)

type fakeSurfaces struct {
	toasts []notify.Toast
	cues   []notify.Cue
	err    error
}

func (f *fakeSurfaces) PushToast(ctx context.Context, toast notify.Toast) error {
	if f.err != nil {
		return f.err
	}
	f.toasts = append(f.toasts, toast)
	return nil
}

func (f *fakeSurfaces) PlayCue(ctx context.Context, cue notify.Cue) error {
	if f.err != nil {
		return f.err
	}
	f.cues = append(f.cues, cue)
	return nil
}

func TestWarningAndAlertFireExactlyOnce(t *testing.T) {
	surfaces := &fakeSurfaces{}
	n := NewNotifier(surfaces, surfaces, nil)
	ctx := context.Background()

	// Threshold 600: warning crosses at 480, alert at 600.
	for elapsed := int64(470); elapsed < 480; elapsed++ {
		n.Observe(ctx, elapsed, 600, true)
	}
	assert.Empty(t, surfaces.toasts)

	n.Observe(ctx, 480, 600, true)
	require.Len(t, surfaces.toasts, 1)
	assert.Equal(t, "warning", surfaces.toasts[0].Severity)
	require.Len(t, surfaces.cues, 1)
	assert.Equal(t, "duration-warning", surfaces.cues[0].Name)

	// Further ticks between the thresholds fire nothing new.
	for elapsed := int64(481); elapsed < 600; elapsed++ {
		n.Observe(ctx, elapsed, 600, true)
	}
	assert.Len(t, surfaces.toasts, 1)

	n.Observe(ctx, 600, 600, true)
	require.Len(t, surfaces.toasts, 2)
	assert.Equal(t, "error", surfaces.toasts[1].Severity)
	assert.Equal(t, "duration-alert", surfaces.cues[1].Name)

	// Past the threshold, neither fires again until reset.
	for elapsed := int64(601); elapsed < 1000; elapsed++ {
		n.Observe(ctx, elapsed, 600, true)
	}
	assert.Len(t, surfaces.toasts, 2)
	assert.Len(t, surfaces.cues, 2)
}

func TestResetAlertsReArmsLatches(t *testing.T) {
	surfaces := &fakeSurfaces{}
	n := NewNotifier(surfaces, surfaces, nil)
	ctx := context.Background()

	n.Observe(ctx, 700, 600, true)
	require.Len(t, surfaces.toasts, 2, "jump past both thresholds fires both signals")

	n.ResetAlerts()
	n.Observe(ctx, 700, 600, true)
	assert.Len(t, surfaces.toasts, 4)
}

func TestInertWithoutThreshold(t *testing.T) {
	surfaces := &fakeSurfaces{}
	n := NewNotifier(surfaces, surfaces, nil)
	ctx := context.Background()

	for _, threshold := range []int64{0, -30} {
		for elapsed := int64(0); elapsed < 5000; elapsed += 500 {
			n.Observe(ctx, elapsed, threshold, true)
		}
	}
	assert.Empty(t, surfaces.toasts, "missing prediction degrades to inert")
	assert.Empty(t, surfaces.cues)
}

func TestInactiveSessionObservesNothing(t *testing.T) {
	surfaces := &fakeSurfaces{}
	n := NewNotifier(surfaces, surfaces, nil)

	n.Observe(context.Background(), 700, 600, false)
	assert.Empty(t, surfaces.toasts)
}

func TestSurfaceFailuresAreSwallowed(t *testing.T) {
	surfaces := &fakeSurfaces{err: errors.New("speaker unplugged")}
	n := NewNotifier(surfaces, surfaces, nil)

	require.NotPanics(t, func() {
		n.Observe(context.Background(), 700, 600, true)
	})
}

func TestNilSurfaces(t *testing.T) {
	n := NewNotifier(nil, nil, nil)
	require.NotPanics(t, func() {
		n.Observe(context.Background(), 700, 600, true)
	})
}

func TestCustomWarningRatio(t *testing.T) {
	surfaces := &fakeSurfaces{}
	n := NewNotifier(surfaces, surfaces, nil).WithWarningRatio(0.5)

	n.Observe(context.Background(), 300, 600, true)
	require.Len(t, surfaces.toasts, 1)
	assert.Equal(t, "warning", surfaces.toasts[0].Severity)
}

func TestMonitorResetsOnPhaseAndSessionChange(t *testing.T) {
	surfaces := &fakeSurfaces{}
	n := NewNotifier(surfaces, surfaces, nil)
	m := NewMonitor(n)
	threshold := int64(600)

	frame := session.Tick{
		InteractionID:            "int-1",
		Phase:                    interaction.PhaseConsultInProgress,
		SessionElapsedSeconds:    700,
		PredictedDurationSeconds: &threshold,
	}
	m.OnTick(frame)
	require.Len(t, surfaces.toasts, 2)

	// Same interval: latched.
	frame.SessionElapsedSeconds = 800
	m.OnTick(frame)
	assert.Len(t, surfaces.toasts, 2)

	// Phase change re-arms.
	frame.Phase = interaction.PhaseVitalsComplete
	m.OnTick(frame)
	assert.Len(t, surfaces.toasts, 4)

	// New session re-arms.
	frame.InteractionID = "int-2"
	m.OnTick(frame)
	assert.Len(t, surfaces.toasts, 6)
}

func TestMonitorReArmsOnSessionRestart(t *testing.T) {
	surfaces := &fakeSurfaces{}
	m := NewMonitor(NewNotifier(surfaces, surfaces, nil))
	threshold := int64(600)

	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	frame := session.Tick{
		InteractionID:            "int-1",
		SessionStartedAt:         started,
		Phase:                    interaction.PhaseConsultInProgress,
		SessionElapsedSeconds:    700,
		PredictedDurationSeconds: &threshold,
	}
	m.OnTick(frame)
	require.Len(t, surfaces.toasts, 2)

	// A restarted session on the same interaction and phase gets its own
	// warning and alert; only the start time differs.
	frame.SessionStartedAt = started.Add(15 * time.Minute)
	m.OnTick(frame)
	assert.Len(t, surfaces.toasts, 4)

	// The restarted interval latches like any other.
	frame.SessionElapsedSeconds = 800
	m.OnTick(frame)
	assert.Len(t, surfaces.toasts, 4)
}

func TestFiredSignalsAreCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewLifecycleMetrics(reg)
	surfaces := &fakeSurfaces{}
	n := NewNotifier(surfaces, surfaces, nil).WithMetrics(m)

	n.Observe(context.Background(), 700, 600, true)
	n.Observe(context.Background(), 800, 600, true)

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "clinic_interaction_duration_alerts_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "severity" {
					counts[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, counts[notify.SeverityWarning])
	assert.Equal(t, 1.0, counts[notify.SeverityError])
}

func TestMonitorWithoutPrediction(t *testing.T) {
	surfaces := &fakeSurfaces{}
	m := NewMonitor(NewNotifier(surfaces, surfaces, nil))

	// No alerts ever fire regardless of elapsed time.
	for elapsed := int64(0); elapsed < 100000; elapsed += 1000 {
		m.OnTick(session.Tick{
			InteractionID:         "int-1",
			Phase:                 interaction.PhaseConsultInProgress,
			SessionElapsedSeconds: elapsed,
		})
	}
	assert.Empty(t, surfaces.toasts)
	assert.Empty(t, surfaces.cues)
}
