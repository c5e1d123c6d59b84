package models

import (
	"fmt"
	"time"
)

// ClockTime is a time of day in minutes since midnight. 1440 stands for 24:00.
type ClockTime int

const (
	Midnight ClockTime = 0
	EndOfDay ClockTime = 24 * 60
)

// Clock builds a ClockTime from hours and minutes.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) ClockTime {
	return Clock(t.Hour(), t.Minute())
}

// Hour returns the hour component.
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c ClockTime) Minute() int { return int(c) % 60 }

// On returns the instant of c on the calendar day of day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, day.Location())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// SpanKind enumerates the shift windows a duty table can assign.
type SpanKind uint8

const (
	SpanFullDay SpanKind = iota + 1
	SpanCapitalDay
	SpanCapitalNight
	SpanRuralDaytime
	SpanRuralExtendedDaytime
)

func (k SpanKind) String() string {
	switch k {
	case SpanFullDay:
		return "full_day"
	case SpanCapitalDay:
		return "capital_day"
	case SpanCapitalNight:
		return "capital_night"
	case SpanRuralDaytime:
		return "rural_daytime"
	case SpanRuralExtendedDaytime:
		return "rural_extended_daytime"
	}
	return "unknown"
}

// DutyTimeSpan is a named shift window. Start is inclusive and End exclusive; a window
// whose Start is after its End crosses midnight.
type DutyTimeSpan struct {
	Kind  SpanKind
	Start ClockTime
	End   ClockTime
}

var (
	// FullDay covers 00:00-24:00.
	FullDay = DutyTimeSpan{Kind: SpanFullDay, Start: Midnight, End: EndOfDay}

	// CapitalDay covers 10:15-22:00.
	CapitalDay = DutyTimeSpan{Kind: SpanCapitalDay, Start: Clock(10, 15), End: Clock(22, 0)}

	// CapitalNight covers 22:00 until 10:15 of the following day.
	CapitalNight = DutyTimeSpan{Kind: SpanCapitalNight, Start: Clock(22, 0), End: Clock(10, 15)}
)

// RuralDaytime is a rural opening window printed next to the pharmacy, e.g. "10h-22h".
func RuralDaytime(open, close ClockTime) DutyTimeSpan {
	return DutyTimeSpan{Kind: SpanRuralDaytime, Start: open, End: close}
}

// RuralExtendedDaytime is a rural opening window that runs past 22:00.
func RuralExtendedDaytime(open, close ClockTime) DutyTimeSpan {
	return DutyTimeSpan{Kind: SpanRuralExtendedDaytime, Start: open, End: close}
}

// CrossesMidnight reports whether the window ends on the next calendar day.
func (s DutyTimeSpan) CrossesMidnight() bool {
	return s.Start > s.End
}

// Contains reports whether the time of day of t lies inside the window.
func (s DutyTimeSpan) Contains(t time.Time) bool {
	return s.ContainsClock(ClockOf(t))
}

// ContainsClock is Contains for a bare time of day.
func (s DutyTimeSpan) ContainsClock(c ClockTime) bool {
	switch {
	case s.Start == s.End:
		return true
	case s.CrossesMidnight():
		return c >= s.Start || c < s.End
	default:
		return c >= s.Start && c < s.End
	}
}

// OwningDate returns midnight of the calendar day whose table entry owns t. For a window
// crossing midnight, the early-morning part belongs to the previous day's entry.
func (s DutyTimeSpan) OwningDate(t time.Time) time.Time {
	day := Midnight.On(t)
	if s.CrossesMidnight() && ClockOf(t) < s.End {
		return day.AddDate(0, 0, -1)
	}
	return day
}

// Label is the Spanish caption used in listings.
func (s DutyTimeSpan) Label() string {
	switch s.Kind {
	case SpanFullDay:
		return "24 horas"
	case SpanCapitalDay:
		return "Día"
	case SpanCapitalNight:
		return "Noche"
	case SpanRuralDaytime, SpanRuralExtendedDaytime:
		return fmt.Sprintf("%s-%s", s.Start, s.End)
	}
	return s.Kind.String()
}

func (s DutyTimeSpan) String() string {
	return fmt.Sprintf("%s(%s-%s)", s.Kind, s.Start, s.End)
}

// MarshalText lets DutyTimeSpan key JSON objects.
func (s DutyTimeSpan) MarshalText() ([]byte, error) {
	switch s.Kind {
	case SpanRuralDaytime, SpanRuralExtendedDaytime:
		return []byte(fmt.Sprintf("%s@%s-%s", s.Kind, s.Start, s.End)), nil
	}
	return []byte(s.Kind.String()), nil
}
