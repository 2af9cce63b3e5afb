// Package clock lets usecases read the time through an interface so tests can
// freeze and advance it.
package clock

import "time"

type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func New() *System {
	return &System{}
}

func (*System) Now() time.Time {
	return time.Now()
}
