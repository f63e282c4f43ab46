package notify

import "context"

// Toast severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Toast is a dismissable staff-facing banner.
type Toast struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// ToastSink surfaces dismissable staff-facing banners.
type ToastSink interface {
	PushToast(ctx context.Context, toast Toast) error
}

// Tone is one synthesized beep segment.
type Tone struct {
	FrequencyHz int `json:"frequency_hz"`
	DurationMs  int `json:"duration_ms"`
}

// Cue is a short synthesized audio cue. Clients render the tone sequence
// with whatever synthesis they have; there is no sampled audio.
type Cue struct {
	Name  string `json:"name"`
	Tones []Tone `json:"tones"`
}

// CuePlayer plays short synthesized audio cues.
type CuePlayer interface {
	PlayCue(ctx context.Context, cue Cue) error
}

// WarningCue is a two-tone descending beep played when a session nears its
// predicted duration.
func WarningCue() Cue {
	return Cue{
		Name: "duration-warning",
		Tones: []Tone{
			{FrequencyHz: 880, DurationMs: 150},
			{FrequencyHz: 660, DurationMs: 250},
		},
	}
}

// AlertCue is a triple urgent beep played when a session exceeds its
// predicted duration.
func AlertCue() Cue {
	return Cue{
		Name: "duration-alert",
		Tones: []Tone{
			{FrequencyHz: 990, DurationMs: 120},
			{FrequencyHz: 990, DurationMs: 120},
			{FrequencyHz: 990, DurationMs: 260},
		},
	}
}
