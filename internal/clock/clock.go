package clock

import "time"

// Clock is the source of "now" for services, tokens and storage defaults.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a UTC wall clock.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Func adapts clk to the func() time.Time shape some libraries expect.
func Func(clk Clock) func() time.Time {
	if clk == nil {
		clk = NewSystem()
	}
	return clk.Now
}
