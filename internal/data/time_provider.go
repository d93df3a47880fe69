package data

import "time"

// TimeProvider abstracts the clock so repositories can be tested at a
// fixed instant.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

// Now returns the system time.
func (RealTimeProvider) Now() time.Time { return time.Now() }

// FixedTimeProvider is a clock pinned to one instant, movable by the
// test that owns it. Not safe for concurrent use.
type FixedTimeProvider struct {
	current time.Time
}

// NewFixedTimeProvider pins the clock to t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{current: t}
}

// Now returns the pinned instant.
func (f *FixedTimeProvider) Now() time.Time { return f.current }

// SetTime repins the clock to t.
func (f *FixedTimeProvider) SetTime(t time.Time) { f.current = t }

// AddTime moves the clock forward by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) { f.current = f.current.Add(d) }
