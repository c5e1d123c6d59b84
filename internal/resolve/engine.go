// Package resolve answers "which pharmacy is on duty at this instant" from a parsed
// schedule list. Everything here is a pure function of its inputs.
package resolve

import (
	"errors"
	"fmt"
	"time"

	"guardia/pkg/models"
)

var (
	// ErrDateNotFound is returned when no schedule covers the requested day.
	ErrDateNotFound = errors.New("date not found in schedule")

	// ErrZoneNotFound is returned when the day is covered but the zone is not in the table.
	ErrZoneNotFound = errors.New("zone not found in schedule")
)

// Resolution is the schedule entry and shift window active at an instant.
type Resolution struct {
	Schedule models.PharmacySchedule `json:"schedule"`
	Span     models.DutyTimeSpan     `json:"span"`
}

// Pharmacies returns the pharmacies assigned to the active window.
func (r Resolution) Pharmacies() []models.Pharmacy {
	return r.Schedule.Pharmacies(r.Span)
}

// OnDuty returns the assigned pharmacies that are open at at, judging pharmacies without
// stated hours by models.DefaultHoursPolicy.
func (r Resolution) OnDuty(at time.Time) []models.Pharmacy {
	return FilterOpen(r.Pharmacies(), at, models.DefaultHoursPolicy)
}

// FilterOpen keeps the pharmacies open at at under policy.
func FilterOpen(pharmacies []models.Pharmacy, at time.Time, policy models.HoursPolicy) []models.Pharmacy {
	out := make([]models.Pharmacy, 0, len(pharmacies))
	for _, p := range pharmacies {
		if p.OpenAt(at, policy) {
			out = append(out, p)
		}
	}
	return out
}

// Engine resolves instants in a fixed time zone.
type Engine struct {
	loc *time.Location
}

// NewEngine returns an engine reading instants in loc. A nil loc means time.Local.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc}
}

// Location returns the engine's time zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// PatternOf infers the shift pattern from the keys of the first schedule. The region's
// declared pattern is only used when there is nothing to inspect.
func PatternOf(schedules []models.PharmacySchedule, region models.Region) models.ShiftPattern {
	if len(schedules) == 0 {
		return region.Pattern
	}
	first := schedules[0]
	switch {
	case first.HasSpan(models.CapitalDay) || first.HasSpan(models.CapitalNight):
		return models.PatternSplit
	case first.HasSpan(models.FullDay):
		return models.PatternSingle
	}
	return region.Pattern
}

// Resolve returns the entry and window active at at. The boolean is false when nothing
// is on duty, which is a valid answer and not an error. Between 00:00 and 10:15 a split
// table is answered by the previous day's night shift. When a date appears twice the
// first entry in document order wins.
func (e *Engine) Resolve(schedules []models.PharmacySchedule, at time.Time, region models.Region) (Resolution, bool) {
	at = at.In(e.loc)

	switch PatternOf(schedules, region) {
	case models.PatternSplit:
		span := models.CapitalNight
		if models.CapitalDay.Contains(at) {
			span = models.CapitalDay
		}
		return find(schedules, span.OwningDate(at), span)
	case models.PatternSingle:
		return find(schedules, at, models.FullDay)
	}
	return Resolution{}, false
}

func find(schedules []models.PharmacySchedule, day time.Time, span models.DutyTimeSpan) (Resolution, bool) {
	for _, s := range schedules {
		if s.Date.Matches(day) && s.HasSpan(span) {
			return Resolution{Schedule: s, Span: span}, true
		}
	}
	return Resolution{}, false
}

// FindSchedule returns the first entry for the calendar day of day.
func (e *Engine) FindSchedule(schedules []models.PharmacySchedule, day time.Time) (models.PharmacySchedule, bool) {
	day = day.In(e.loc)
	for _, s := range schedules {
		if s.Date.Matches(day) {
			return s, true
		}
	}
	return models.PharmacySchedule{}, false
}

// FindZone returns the pharmacies of zoneID on the calendar day of day. An empty list
// with a nil error means the zone has no coverage that day; a missing day or zone is an
// error.
func (e *Engine) FindZone(schedules []models.PharmacySchedule, day time.Time, zoneID string) ([]models.Pharmacy, error) {
	s, ok := e.FindSchedule(schedules, day)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDateNotFound, models.NewDutyDate(day.In(e.loc)).Format())
	}
	pharmacies, ok := s.Zone(zoneID)
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", ErrZoneNotFound, zoneID, s.Date.Format())
	}
	return pharmacies, nil
}

// NextChange returns the first instant after at where the active window changes: the
// next 10:15 or 22:00 for split tables, the next midnight otherwise.
func (e *Engine) NextChange(at time.Time, pattern models.ShiftPattern) time.Time {
	at = at.In(e.loc)
	today := models.Midnight.On(at)
	tomorrow := today.AddDate(0, 0, 1)

	if pattern != models.PatternSplit {
		return tomorrow
	}
	for _, candidate := range []time.Time{
		models.CapitalDay.Start.On(today),
		models.CapitalNight.Start.On(today),
		models.CapitalDay.Start.On(tomorrow),
	} {
		if candidate.After(at) {
			return candidate
		}
	}
	return models.CapitalNight.Start.On(tomorrow)
}
