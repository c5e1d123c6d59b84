package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrYearUnresolved is returned when a DutyDate without a year is projected onto the calendar.
var ErrYearUnresolved = errors.New("duty date has no resolved year")

var monthNames = [...]string{
	"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var monthAbbrevs = [...]string{
	"", "ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

var weekdayNames = [...]string{
	time.Sunday:    "domingo",
	time.Monday:    "lunes",
	time.Tuesday:   "martes",
	time.Wednesday: "miércoles",
	time.Thursday:  "jueves",
	time.Friday:    "viernes",
	time.Saturday:  "sábado",
}

// DutyDate is a calendar day as printed in a duty table.
type DutyDate struct {
	DayOfWeek string     `json:"day_of_week,omitempty"` // Spanish weekday, lowercase ("lunes")
	Day       int        `json:"day"`                   // Day of month
	Month     time.Month `json:"month"`                 // Calendar month
	Year      int        `json:"year,omitempty"`        // 0 when the source row omits it
}

// NewDutyDate returns the DutyDate of t's calendar day in t's location.
func NewDutyDate(t time.Time) DutyDate {
	return DutyDate{
		DayOfWeek: WeekdayName(t.Weekday()),
		Day:       t.Day(),
		Month:     t.Month(),
		Year:      t.Year(),
	}
}

// HasYear reports whether the year is known.
func (d DutyDate) HasYear() bool {
	return d.Year > 0
}

// WithYear returns a copy with the year set and the weekday recomputed from the calendar.
func (d DutyDate) WithYear(year int) DutyDate {
	d.Year = year
	if year > 0 && d.Valid() {
		d.DayOfWeek = WeekdayName(time.Date(year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday())
	}
	return d
}

// Valid reports whether Day is a real day of Month. Without a year, 29 February is accepted.
func (d DutyDate) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	year := d.Year
	if year <= 0 {
		year = 2000
	}
	return d.Day <= daysIn(d.Month, year)
}

// MonthName returns the full Spanish month name.
func (d DutyDate) MonthName() string {
	return MonthName(d.Month)
}

// Time projects the date onto midnight in loc.
func (d DutyDate) Time(loc *time.Location) (time.Time, error) {
	if !d.HasYear() {
		return time.Time{}, ErrYearUnresolved
	}
	if !d.Valid() {
		return time.Time{}, fmt.Errorf("invalid duty date %s", d.Format())
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc), nil
}

// Matches reports whether t falls on this calendar day, judged in t's own location.
func (d DutyDate) Matches(t time.Time) bool {
	return d.Day == t.Day() && d.Month == t.Month() && d.Year == t.Year()
}

// Equal compares day, month and year; the weekday label is ignored.
func (d DutyDate) Equal(other DutyDate) bool {
	return d.Day == other.Day && d.Month == other.Month && d.Year == other.Year
}

// Compare orders dates chronologically. Dates without a year sort as year 0.
func (d DutyDate) Compare(other DutyDate) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// AddDays returns the date n days later. The year must be known.
func (d DutyDate) AddDays(n int) (DutyDate, error) {
	t, err := d.Time(time.UTC)
	if err != nil {
		return DutyDate{}, err
	}
	return NewDutyDate(t.AddDate(0, 0, n)), nil
}

// Format renders the canonical dd-mon-yyyy form, or dd-mon when the year is unknown.
func (d DutyDate) Format() string {
	abbrev := "???"
	if d.Month >= time.January && d.Month <= time.December {
		abbrev = monthAbbrevs[d.Month]
	}
	if !d.HasYear() {
		return fmt.Sprintf("%02d-%s", d.Day, abbrev)
	}
	return fmt.Sprintf("%02d-%s-%04d", d.Day, abbrev, d.Year)
}

// Long renders the date the way it is read out, e.g. "lunes, 1 de enero de 2025".
func (d DutyDate) Long() string {
	var b strings.Builder
	if d.DayOfWeek != "" {
		b.WriteString(d.DayOfWeek)
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%d de %s", d.Day, d.MonthName())
	if d.HasYear() {
		fmt.Fprintf(&b, " de %d", d.Year)
	}
	return b.String()
}

func (d DutyDate) String() string {
	return d.Format()
}

// MonthName returns the full Spanish name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m]
}

// MonthAbbrev returns the three-letter Spanish abbreviation of m.
func MonthAbbrev(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthAbbrevs[m]
}

// WeekdayName returns the Spanish name of w.
func WeekdayName(w time.Weekday) string {
	return weekdayNames[w]
}

// LookupMonth resolves a Spanish month name or abbreviation, ignoring case, accents and
// a trailing period. "sept" and "set" are accepted for September.
func LookupMonth(token string) (time.Month, bool) {
	t := Fold(token)
	if t == "" {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if t == monthNames[m] || t == monthAbbrevs[m] {
			return m, true
		}
	}
	switch t {
	case "sept", "set", "setiembre":
		return time.September, true
	}
	return 0, false
}

// LookupWeekday resolves a Spanish weekday name or its abbreviation.
func LookupWeekday(token string) (time.Weekday, bool) {
	t := Fold(token)
	if len(t) < 1 {
		return 0, false
	}
	for w := time.Sunday; w <= time.Saturday; w++ {
		full := Fold(weekdayNames[w])
		if t == full || (len(t) >= 2 && len(t) <= 3 && strings.HasPrefix(full, t)) {
			return w, true
		}
	}
	// Single-letter calendar headers ("L", "M", "X", "J", "V", "S", "D").
	switch t {
	case "l":
		return time.Monday, true
	case "x":
		return time.Wednesday, true
	case "j":
		return time.Thursday, true
	case "v":
		return time.Friday, true
	case "s":
		return time.Saturday, true
	case "d":
		return time.Sunday, true
	}
	return 0, false
}

// Fold lowercases s, strips diacritics and surrounding punctuation.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Trim(folded, ".,;:()")
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
