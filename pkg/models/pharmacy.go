package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Pharmacy is one establishment as listed in a duty table.
type Pharmacy struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`

	// OperatingHours is set when the table prints an opening window for the duty day.
	// Nil means the table said nothing, which DefaultHoursPolicy resolves.
	OperatingHours *TimeRange `json:"operating_hours,omitempty"`

	// ZoneID names the rural health zone (ZBS) the pharmacy covers, if any.
	ZoneID string `json:"zone_id,omitempty"`

	// Notes keeps the raw annotation text for display only.
	Notes string `json:"notes,omitempty"`
}

// HoursPolicy decides whether a pharmacy without stated hours is open.
type HoursPolicy int

const (
	// AssumeOpen24h treats missing hours as a full-day duty.
	AssumeOpen24h HoursPolicy = iota
	// AssumeClosedOutsideStated treats missing hours as closed.
	AssumeClosedOutsideStated
)

// DefaultHoursPolicy is applied when the source gives no opening window: the duty
// pharmacy is considered open around the clock.
const DefaultHoursPolicy = AssumeOpen24h

// OpenAt reports whether the pharmacy is open at t under policy.
func (p Pharmacy) OpenAt(t time.Time, policy HoursPolicy) bool {
	if p.OperatingHours == nil {
		return policy == AssumeOpen24h
	}
	return p.OperatingHours.Contains(t)
}

// DutySpan returns the window the pharmacy serves on its duty day.
func (p Pharmacy) DutySpan() DutyTimeSpan {
	if p.OperatingHours == nil {
		return FullDay
	}
	return p.OperatingHours.Span()
}

func (p Pharmacy) String() string {
	if p.Address == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Address)
}

// TimeRange is an opening window [Open, Close). Close before Open wraps past midnight.
type TimeRange struct {
	Open  ClockTime `json:"open"`
	Close ClockTime `json:"close"`
}

// AllDay is the 24h window.
var AllDay = TimeRange{Open: Midnight, Close: EndOfDay}

// Is24h reports whether the window spans the whole day.
func (r TimeRange) Is24h() bool {
	return r.Open == r.Close || (r.Open == Midnight && r.Close == EndOfDay)
}

// Contains reports whether t's time of day is inside the window.
func (r TimeRange) Contains(t time.Time) bool {
	return r.Span().Contains(t)
}

// Span maps the window onto a DutyTimeSpan: FullDay for 24h, RuralDaytime when it closes
// by 22:00 on the same day, RuralExtendedDaytime otherwise.
func (r TimeRange) Span() DutyTimeSpan {
	switch {
	case r.Is24h():
		return FullDay
	case r.Close > r.Open && r.Close <= CapitalDay.End:
		return RuralDaytime(r.Open, r.Close)
	default:
		return RuralExtendedDaytime(r.Open, r.Close)
	}
}

func (r TimeRange) String() string {
	if r.Is24h() {
		return "24h"
	}
	return fmt.Sprintf("%s-%s", r.Open, r.Close)
}

var (
	allDayPattern    = regexp.MustCompile(`(?i)(?:^|[^\d])24\s*h(?:oras)?\b`)
	timeRangePattern = regexp.MustCompile(`(?i)(\d{1,2})(?:[:.h](\d{2}))?\s*h?\s*(?:-|–|a)\s*(\d{1,2})(?:[:.h](\d{2}))?\s*h?`)
)

// ParseTimeRange reads an hours annotation such as "24h", "10h-22h", "9h30-21h" or
// "10:00-22:00". The second result is false when s carries no usable window.
func ParseTimeRange(s string) (TimeRange, bool) {
	if m := timeRangePattern.FindStringSubmatch(s); m != nil {
		open, ok1 := clockFrom(m[1], m[2])
		closeAt, ok2 := clockFrom(m[3], m[4])
		if ok1 && ok2 {
			return TimeRange{Open: open, Close: closeAt}, true
		}
	}
	if allDayPattern.MatchString(s) {
		return AllDay, true
	}
	return TimeRange{}, false
}

func clockFrom(hour, minute string) (ClockTime, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m := 0
	if minute != "" {
		m, err = strconv.Atoi(minute)
		if err != nil || m < 0 || m > 59 {
			return 0, false
		}
	}
	if h == 24 && m != 0 {
		return 0, false
	}
	return Clock(h, m), true
}
