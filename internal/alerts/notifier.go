package alerts

import (
	"context"
	"fmt"
	"sync"

	"github.com/carewell-health/clinic-portal/internal/notify"
	"github.com/carewell-health/clinic-portal/internal/observability/metrics"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// Notifier compares elapsed time against a predicted-duration threshold and
// raises each of its two signals at most once per latch interval. With no
// threshold (absent or <= 0) it is inert. Failures of the toast or audio
// surfaces are swallowed; a missing beep never breaks a consultation.
type Notifier struct {
	toasts       notify.ToastSink
	audio        notify.CuePlayer
	logger       *logging.Logger
	metrics      *metrics.LifecycleMetrics
	warningRatio float64

	mu           sync.Mutex
	warningFired bool
	alertFired   bool
}

// NewNotifier creates a threshold notifier. Either surface may be nil.
func NewNotifier(toasts notify.ToastSink, audio notify.CuePlayer, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{
		toasts:       toasts,
		audio:        audio,
		logger:       logger,
		warningRatio: 0.8,
	}
}

// WithWarningRatio overrides the 0.8 default warning fraction.
func (n *Notifier) WithWarningRatio(ratio float64) *Notifier {
	if ratio > 0 && ratio < 1 {
		n.warningRatio = ratio
	}
	return n
}

// WithMetrics attaches lifecycle metrics. Fired signals are counted by
// severity.
func (n *Notifier) WithMetrics(m *metrics.LifecycleMetrics) *Notifier {
	n.metrics = m
	return n
}

// Observe evaluates the thresholds for the current elapsed value. Called on
// every tick.
func (n *Notifier) Observe(ctx context.Context, elapsedSeconds, thresholdSeconds int64, active bool) {
	if !active || thresholdSeconds <= 0 {
		return
	}

	warningThreshold := int64(float64(thresholdSeconds) * n.warningRatio)

	n.mu.Lock()
	fireWarning := elapsedSeconds >= warningThreshold && !n.warningFired
	if fireWarning {
		n.warningFired = true
	}
	fireAlert := elapsedSeconds >= thresholdSeconds && !n.alertFired
	if fireAlert {
		n.alertFired = true
	}
	n.mu.Unlock()

	if fireWarning {
		n.metrics.ObserveAlert(notify.SeverityWarning)
		remaining := thresholdSeconds - elapsedSeconds
		n.logger.Info("session nearing predicted duration",
			"elapsed_seconds", elapsedSeconds,
			"threshold_seconds", thresholdSeconds,
			"remaining_seconds", remaining,
		)
		n.pushToast(ctx, notify.Toast{
			Severity: notify.SeverityWarning,
			Title:    "Approaching predicted duration",
			Message:  fmt.Sprintf("About %s remaining of the predicted duration", formatRemaining(remaining)),
		})
		n.playCue(ctx, notify.WarningCue())
	}

	if fireAlert {
		n.metrics.ObserveAlert(notify.SeverityError)
		n.logger.Warn("session exceeded predicted duration",
			"elapsed_seconds", elapsedSeconds,
			"threshold_seconds", thresholdSeconds,
		)
		n.pushToast(ctx, notify.Toast{
			Severity: notify.SeverityError,
			Title:    "Predicted duration exceeded",
			Message:  "The session has run past its predicted duration",
		})
		n.playCue(ctx, notify.AlertCue())
	}
}

// ResetAlerts re-arms both latches. Callers invoke it whenever a new session
// starts or the tracked phase changes; otherwise the dedup latch would
// suppress the next interaction's alerts.
func (n *Notifier) ResetAlerts() {
	n.mu.Lock()
	n.warningFired = false
	n.alertFired = false
	n.mu.Unlock()
}

func (n *Notifier) pushToast(ctx context.Context, toast notify.Toast) {
	if n.toasts == nil {
		return
	}
	if err := n.toasts.PushToast(ctx, toast); err != nil {
		n.logger.Debug("toast delivery failed", "error", err)
	}
}

func (n *Notifier) playCue(ctx context.Context, cue notify.Cue) {
	if n.audio == nil {
		return
	}
	if err := n.audio.PlayCue(ctx, cue); err != nil {
		n.logger.Debug("audio cue failed", "error", err)
	}
}

func formatRemaining(seconds int64) string {
	if seconds <= 0 {
		return "no time"
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm", seconds/60)
}
