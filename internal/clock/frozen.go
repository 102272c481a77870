package clock

import (
	"sync"
	"time"
)

// Frozen only moves when told to. Tests use it to pin invoice numbers and
// audit timestamps.
type Frozen struct {
	mu sync.Mutex
	at time.Time
}

func Freeze(at time.Time) *Frozen {
	return &Frozen{at: at.UTC()}
}

func (f *Frozen) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.at
}

// Tick moves the clock forward by d and returns the new time.
func (f *Frozen) Tick(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.at = f.at.Add(d)
	return f.at
}

// Set jumps to at, which may be earlier than the current time.
func (f *Frozen) Set(at time.Time) {
	f.mu.Lock()
	f.at = at.UTC()
	f.mu.Unlock()
}
