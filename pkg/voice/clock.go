package voice

import "time"

// Clock schedules the arbitrator's timers and the restart settle.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// Timer is a scheduled callback.
type Timer interface {
	Stop() bool
}

// SystemClock uses the time package.
type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
func (SystemClock) After(d time.Duration) <-chan time.Time    { return time.After(d) }
func (SystemClock) Now() time.Time                            { return time.Now() }
