package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Clock abstracts time for the cache so tests can move it by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Shift boundaries as cron expressions: the capital day shift starts at 10:15 and the
// night shift at 22:00. Cached calendars are dropped at each of them.
var boundarySpecs = []string{
	"15 10 * * *",
	"0 22 * * *",
}

var boundarySchedules = mustParse(boundarySpecs)

func mustParse(specs []string) []cron.Schedule {
	out := make([]cron.Schedule, len(specs))
	for i, spec := range specs {
		s, err := cron.ParseStandard(spec)
		if err != nil {
			panic(err)
		}
		out[i] = s
	}
	return out
}

// NextBoundary returns the first shift boundary strictly after now, read in loc.
func NextBoundary(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	var next time.Time
	for _, s := range boundarySchedules {
		candidate := s.Next(now)
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// BoundarySpecs returns the cron expressions of the shift boundaries.
func BoundarySpecs() []string {
	return append([]string(nil), boundarySpecs...)
}
