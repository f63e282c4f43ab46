package notify

import (
	"context"
	"sync"

	"github.com/carewell-health/clinic-portal/pkg/logging"
)

// Frame types pushed to stream clients.
const (
	FrameTick  = "tick"
	FrameToast = "toast"
	FrameCue   = "cue"
)

// Frame is one message on the live stream.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Broadcaster fans frames out to connected stream clients. Delivery is best
// effort: a client that cannot keep up has frames dropped, and no delivery
// problem ever surfaces as an error to the notifier.
type Broadcaster struct {
	logger *logging.Logger
	buffer int

	mu      sync.Mutex
	clients map[chan Frame]struct{}
}

// NewBroadcaster creates a broadcaster with a per-client buffer.
func NewBroadcaster(logger *logging.Logger) *Broadcaster {
	if logger == nil {
		logger = logging.Default()
	}
	return &Broadcaster{
		logger:  logger,
		buffer:  32,
		clients: make(map[chan Frame]struct{}),
	}
}

// Register adds a stream client and returns its frame channel plus an
// unregister function. The channel is closed on unregister.
func (b *Broadcaster) Register() (<-chan Frame, func()) {
	ch := make(chan Frame, b.buffer)

	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Broadcast delivers a frame to every client, dropping it for clients whose
// buffer is full.
func (b *Broadcaster) Broadcast(frame Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- frame:
		default:
			b.logger.Debug("dropping frame for slow stream client", "type", frame.Type)
		}
	}
}

// PushToast delivers a toast to all clients. Never fails.
func (b *Broadcaster) PushToast(ctx context.Context, toast Toast) error {
	b.Broadcast(Frame{Type: FrameToast, Payload: toast})
	return nil
}

// PlayCue delivers a synthesized cue descriptor to all clients. Never fails.
func (b *Broadcaster) PlayCue(ctx context.Context, cue Cue) error {
	b.Broadcast(Frame{Type: FrameCue, Payload: cue})
	return nil
}
