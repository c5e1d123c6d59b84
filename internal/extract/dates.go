package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"guardia/pkg/models"
)

var dateSeparators = strings.NewReplacer("-", " ", "/", " ", ",", " ", ".", " ")

// ParseDate reads a date cell as printed in the calendars: "01-ene", "01-ene-2025",
// "1/ene", "lun 1 ene 2025", "lunes, 1 de enero de 2025" or "07-dic sábado". A missing
// year is left as zero for YearTracker to resolve.
func ParseDate(raw string) (models.DutyDate, bool) {
	var tokens []string
	for _, tok := range strings.Fields(dateSeparators.Replace(models.Fold(raw))) {
		if tok != "de" && tok != "del" {
			tokens = append(tokens, tok)
		}
	}

	dayAt := -1
	for i, tok := range tokens {
		if isDayNumber(tok) {
			dayAt = i
			break
		}
	}
	// At most one weekday may precede the day number, and a month must follow it.
	if dayAt < 0 || dayAt > 1 || dayAt+1 >= len(tokens) {
		return models.DutyDate{}, false
	}

	var weekday string
	if dayAt == 1 {
		w, ok := models.LookupWeekday(tokens[0])
		if !ok {
			return models.DutyDate{}, false
		}
		weekday = models.WeekdayName(w)
	}

	day, _ := strconv.Atoi(tokens[dayAt])
	month, ok := models.LookupMonth(tokens[dayAt+1])
	if !ok {
		return models.DutyDate{}, false
	}

	year := 0
	for _, tok := range tokens[dayAt+2:] {
		switch {
		case year == 0 && isYear(tok):
			year, _ = strconv.Atoi(tok)
		case weekday == "":
			w, ok := models.LookupWeekday(tok)
			if !ok {
				return models.DutyDate{}, false
			}
			weekday = models.WeekdayName(w)
		default:
			return models.DutyDate{}, false
		}
	}

	d := models.DutyDate{DayOfWeek: weekday, Day: day, Month: month, Year: year}
	if !d.Valid() {
		return models.DutyDate{}, false
	}
	if year > 0 {
		d = d.WithYear(year)
	}
	return d, true
}

func isDayNumber(tok string) bool {
	if len(tok) == 0 || len(tok) > 2 {
		return false
	}
	n, err := strconv.Atoi(tok)
	return err == nil && n >= 1 && n <= 31
}

func isYear(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	n, err := strconv.Atoi(tok)
	return err == nil && n >= 1900 && n < 2100
}

var yearMarkerPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// findYear returns the first plausible year printed in s.
func findYear(s string) (int, bool) {
	m := yearMarkerPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	return y, err == nil
}

// YearTracker assigns years to the dates of one document in reading order.
//
// An explicit year wins. A date without a year takes the tracked year, which starts at
// the current year and moves forward by one when the month wraps backwards (December
// followed by January). The tracked year never decreases.
type YearTracker struct {
	year      int
	lastMonth time.Month
}

// NewYearTracker starts tracking at year.
func NewYearTracker(year int) *YearTracker {
	return &YearTracker{year: year}
}

// Year returns the year currently assumed for dates without one.
func (t *YearTracker) Year() int {
	return t.year
}

// Mark records a standalone year marker such as a "2026" line or a "ENERO 2026" header.
// The next date is read in that year without a wrap check.
func (t *YearTracker) Mark(year int) {
	if year > t.year {
		t.year = year
	}
	t.lastMonth = 0
}

// Resolve returns d with its year assigned.
func (t *YearTracker) Resolve(d models.DutyDate) models.DutyDate {
	if d.HasYear() {
		if d.Year > t.year {
			t.year = d.Year
		}
		t.lastMonth = d.Month
		return d
	}
	if t.lastMonth != 0 && t.lastMonth-d.Month >= 6 {
		t.year++
	}
	t.lastMonth = d.Month
	return d.WithYear(t.year)
}
