package clock

import "time"

// FakeClock pins Now to a fixed instant so lifecycle timestamps,
// payout dates and month windows are deterministic in tests.
type FakeClock struct {
	current time.Time
}

// NewFakeClock starts the clock at t, normalized to UTC the way
// SystemClock reports time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

func (f *FakeClock) Now() time.Time {
	return f.current
}

// Advance moves the clock forward by d. Tests use it to cross month
// boundaries without touching individual rows.
func (f *FakeClock) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}
