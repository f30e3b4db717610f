package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time for services so tests can control it.
type Clock interface {
	Now() time.Time
}

// SystemClock returns wall-clock time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return SystemClock{}
}

// Module wires the system clock.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
