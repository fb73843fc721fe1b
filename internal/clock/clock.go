package clock

import "time"

// Clock supplies the current wall-clock instant. Services take a Clock
// instead of calling time.Now so tests can fabricate the time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by the device-local wall clock.
func System() Clock { return systemClock{} }

// Fixed is a settable test clock.
type Fixed struct {
	Current time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{Current: t} }

func (f *Fixed) Now() time.Time { return f.Current }

// Advance moves the fixed clock forward.
func (f *Fixed) Advance(d time.Duration) { f.Current = f.Current.Add(d) }

// Set pins the fixed clock to an exact instant.
func (f *Fixed) Set(t time.Time) { f.Current = t }
