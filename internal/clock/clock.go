package clock

import (
	"sync"
	"time"
)

// Clock abstracts the wall-clock reference so elapsed time can be tested
// against a manufactured sequence of instants. All timer arithmetic in the
// lifecycle engine derives from anchors sampled through a Clock; elapsed
// values are never accumulated tick by tick.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now().UTC() }

// ElapsedSeconds returns whole seconds between an anchor and now, never
// negative. Anchors persisted from a previous process can sit slightly
// ahead of a freshly synced clock.
func ElapsedSeconds(anchor, now time.Time) int64 {
	secs := int64(now.Sub(anchor) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// ElapsedMinutes returns whole minutes between an anchor and now, floored.
func ElapsedMinutes(anchor, now time.Time) int64 {
	return ElapsedSeconds(anchor, now) / 60
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a fake clock starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the fake instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set pins the fake clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}
