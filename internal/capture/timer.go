package capture

import "time"

// Timer is a cancellable deadline, satisfied by *time.Timer.
type Timer interface {
	Stop() bool
}

// TimerService schedules timeout callbacks. The real implementation wraps
// time.AfterFunc; tests substitute a manual clock.
type TimerService interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// WallClock is the production TimerService.
type WallClock struct{}

func (WallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
