package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"guardia/internal/layout"
	"guardia/pkg/models"
)

const maxRangeDays = 31

var (
	dateToken  = regexp.MustCompile(`(\d{1,2})\s*[-/]\s*([a-z]{3,10})\.?(?:\s*[-/]\s*(\d{4}))?`)
	rangeLine  = regexp.MustCompile(`^(?:del?\s+)?(\d{1,2}\s*[-/]\s*[a-z]{3,10}\.?(?:\s*[-/]\s*\d{4})?)\s+(?:a|al|hasta)\s+(\d{1,2}\s*[-/]\s*[a-z]{3,10}\.?(?:\s*[-/]\s*\d{4})?)\s*[:\-]?\s+(.+)$`)
	listFiller = regexp.MustCompile(`^[\s,;y]*$`)
	furniture  = regexp.MustCompile(`^(?:pag(?:ina)?\.?\s*\d+|\d+\s*/\s*\d+|(?:l|m|x|j|v|s|d)(?:\s+(?:l|m|x|j|v|s|d)){6})$`)
)

// TownStrategy reads the market-town calendars. They are plain text: one or more
// "dd-mon" tokens followed by the code of the pharmacy on duty for all of those days.
// Weekly ranges ("01-ene a 07-ene CODE", "del 01-ene al 07-ene CODE") are accepted when
// the strategy allows them.
type TownStrategy struct {
	region      models.RegionID
	codes       CodeTable
	allowRanges bool
	opts        Options
}

// NewTownStrategy returns the strategy for a market town. El Espinar publishes weekly
// ranges, Cuéllar publishes day lists.
func NewTownStrategy(region models.RegionID, opts Options) *TownStrategy {
	codes := opts.Codes[region]
	if codes == nil {
		codes = CodeTable{}
	}
	return &TownStrategy{
		region:      region,
		codes:       codes,
		allowRanges: region == models.RegionElEspinar,
		opts:        opts,
	}
}

// Region implements Strategy.
func (s *TownStrategy) Region() models.RegionID { return s.region }

// Parse implements Strategy.
func (s *TownStrategy) Parse(doc *layout.Document) ([]models.PharmacySchedule, error) {
	return parseWith(s, doc)
}

// Extract implements Strategy.
func (s *TownStrategy) Extract(doc *layout.Document) (*Report, error) {
	const op = "TownStrategy.Extract"

	rec := newRecorder(s.region)
	years := NewYearTracker(s.opts.now().Year())

	for _, page := range doc.Pages {
		for _, line := range page.Lines() {
			s.parseLine(rec, years, page.Number, line)
		}
	}
	return rec.finish(op)
}

func (s *TownStrategy) parseLine(rec *recorder, years *YearTracker, page int, line string) {
	folded := models.Fold(line)
	switch {
	case folded == "" || furniture.MatchString(folded) || isHeaderLine(line):
		return
	}
	if year, ok := monthHeaderYear(line); ok {
		if year > 0 {
			years.Mark(year)
		}
		return
	}
	if year, ok := standaloneYear(folded); ok {
		years.Mark(year)
		return
	}

	if s.allowRanges {
		if m := rangeLine.FindStringSubmatch(folded); m != nil {
			s.parseRange(rec, years, page, line, m[1], m[2], m[3])
			return
		}
	}

	matches := dateToken.FindAllStringSubmatchIndex(folded, -1)
	if len(matches) == 0 || strings.TrimSpace(folded[:matches[0][0]]) != "" && !isWeekdayPrefix(folded[:matches[0][0]]) {
		// Only lines shaped like a data row are worth reporting.
		if unicode.IsDigit(rune(folded[0])) {
			rec.skip(page, line, ReasonBadDate)
		}
		return
	}

	var dates []models.DutyDate
	prevEnd := matches[0][0]
	for _, m := range matches {
		if gap := folded[prevEnd:m[0]]; !listFiller.MatchString(gap) && !isWeekdayPrefix(gap) {
			break
		}
		prevEnd = m[1]
		d, ok := ParseDate(folded[m[0]:m[1]])
		if !ok {
			rec.skip(page, folded[m[0]:m[1]], ReasonBadDate)
			continue
		}
		dates = append(dates, d)
	}

	code := strings.Trim(strings.TrimSpace(folded[prevEnd:]), ":-–,;")
	code = strings.TrimSpace(code)
	if code == "" {
		rec.skip(page, line, ReasonNoPharmacy)
		return
	}
	// A date left in the code means a range this calendar does not publish.
	if dateToken.MatchString(code) {
		rec.skip(page, line, ReasonBadRange)
		return
	}
	pharmacy := s.resolveCode(rec, page, originalCase(line, code))
	for _, d := range dates {
		rec.add(models.NewFullDaySchedule(years.Resolve(d), pharmacy))
	}
}

func (s *TownStrategy) parseRange(rec *recorder, years *YearTracker, page int, line, from, to, code string) {
	start, ok1 := ParseDate(from)
	end, ok2 := ParseDate(to)
	if !ok1 || !ok2 {
		rec.skip(page, line, ReasonBadDate)
		return
	}
	start = years.Resolve(start)
	end = years.Resolve(end)
	if end.Compare(start) < 0 {
		rec.skip(page, line, ReasonBadRange)
		return
	}

	pharmacy := s.resolveCode(rec, page, originalCase(line, strings.TrimSpace(code)))
	day := start
	for i := 0; i <= maxRangeDays; i++ {
		rec.add(models.NewFullDaySchedule(day, pharmacy))
		if day.Equal(end) {
			return
		}
		next, err := day.AddDays(1)
		if err != nil {
			break
		}
		day = next
	}
	rec.warn(page, ReasonBadRange, fmt.Sprintf("range %s longer than %d days truncated", line, maxRangeDays))
}

func (s *TownStrategy) resolveCode(rec *recorder, page int, code string) models.Pharmacy {
	p, known := s.codes.Resolve(code)
	if !known {
		rec.warn(page, ReasonUnknownCode, fmt.Sprintf("unknown pharmacy code %q", code))
	}
	return p
}

func isWeekdayPrefix(s string) bool {
	s = strings.Trim(strings.TrimSpace(s), ",;")
	if s == "" {
		return true
	}
	for _, tok := range strings.Fields(s) {
		if _, ok := models.LookupWeekday(tok); !ok && tok != "y" {
			return false
		}
	}
	return true
}

func standaloneYear(folded string) (int, bool) {
	if !isYear(folded) {
		return 0, false
	}
	return findYear(folded)
}

// originalCase recovers the printed spelling of a code found in the folded line.
func originalCase(line, folded string) string {
	fields := strings.Fields(line)
	want := strings.Fields(folded)
	if len(want) == 0 || len(fields) < len(want) {
		return folded
	}
	tail := fields[len(fields)-len(want):]
	if models.Fold(strings.Join(tail, " ")) == models.Fold(strings.Join(want, " ")) {
		return strings.Join(tail, " ")
	}
	return folded
}
