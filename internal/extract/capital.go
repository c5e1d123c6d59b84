package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"guardia/internal/layout"
	"guardia/pkg/models"
)

var (
	headerWords  = map[string]bool{"fecha": true, "dia": true, "noche": true, "turno": true, "horario": true, "guardia": true, "guardias": true, "farmacias": true, "calendario": true, "pagina": true}
	clockPattern = regexp.MustCompile(`\d{1,2}[:.]\d{2}`)
	monthHeader  = regexp.MustCompile(`^([a-z]+)(?:\s+(?:de\s+)?(\d{4}))?$`)
	timeWord     = regexp.MustCompile(`^[\d:.\-–h]+$`)
	captionGlue  = map[string]bool{"de": true, "a": true, "y": true, "horas": true}
)

// isHeaderLine reports table headers and page furniture: column captions ("FECHA",
// "DÍA 10:15 a 22:00"), titles ("FARMACIAS DE GUARDIA") and page numbers.
func isHeaderLine(line string) bool {
	f := models.Fold(line)
	if f == "" {
		return true
	}
	first := strings.Fields(f)[0]
	return headerWords[first] || strings.Contains(f, "de guardia") || (clockPattern.MatchString(f) && !layout.LooksLikeDate(f))
}

// isCaptionLine is the header test for pharmacy bands: every word must be a caption
// word or a time, so a cell such as "Farmacia A 10:00-22:00" is kept.
func isCaptionLine(line string) bool {
	for _, w := range strings.Fields(models.Fold(line)) {
		w = strings.Trim(w, ".,;:()")
		if w == "" || headerWords[w] || captionGlue[w] || timeWord.MatchString(w) {
			continue
		}
		return false
	}
	return true
}

// monthHeaderYear reports whether line is a month caption such as "ENERO" or
// "Enero de 2026" and returns its year, or 0.
func monthHeaderYear(line string) (int, bool) {
	m := monthHeader.FindStringSubmatch(models.Fold(line))
	if m == nil {
		return 0, false
	}
	if _, ok := models.LookupMonth(m[1]); !ok || len(m[1]) < 4 {
		return 0, false
	}
	year, _ := findYear(m[2])
	return year, true
}

// CapitalStrategy reads the Segovia capital calendar: a three-column table of date,
// day-shift pharmacy and night-shift pharmacy.
type CapitalStrategy struct {
	opts Options
}

// NewCapitalStrategy returns the capital strategy.
func NewCapitalStrategy(opts Options) *CapitalStrategy {
	return &CapitalStrategy{opts: opts}
}

// Region implements Strategy.
func (s *CapitalStrategy) Region() models.RegionID { return models.RegionCapital }

// Parse implements Strategy.
func (s *CapitalStrategy) Parse(doc *layout.Document) ([]models.PharmacySchedule, error) {
	return parseWith(s, doc)
}

// Extract implements Strategy.
func (s *CapitalStrategy) Extract(doc *layout.Document) (*Report, error) {
	const op = "CapitalStrategy.Extract"

	rec := newRecorder(s.Region())
	now := s.opts.now()
	years := NewYearTracker(now.Year())

	colOpts := s.opts.Columns
	if colOpts.ReferenceYear == 0 {
		colOpts.ReferenceYear = now.Year()
	}

	for _, page := range doc.Pages {
		bands, err := layout.ExtractColumns(page, 3, colOpts)
		if err != nil {
			return nil, WrapExtractError(op, s.Region(), err, fmt.Sprintf("page %d", page.Number))
		}

		// Headers are dropped from every band before zipping so that rows stay aligned.
		for c := range bands.Columns {
			bands.Columns[c] = s.dropHeaders(bands.Columns[c], c == 0)
		}

		rows, err := bands.Rows()
		var mismatch *layout.BandMismatchError
		if errors.As(err, &mismatch) {
			rec.warn(page.Number, ReasonBandMismatch, mismatch.Error())
		}

		for _, row := range rows {
			date, ok := ParseDate(row[0])
			if !ok {
				rec.skip(page.Number, strings.Join(row, " | "), ReasonBadDate)
				continue
			}
			day := parsePharmacyCell(row[1])
			night := parsePharmacyCell(row[2])
			if day.Name == "" && night.Name == "" {
				rec.skip(page.Number, strings.Join(row, " | "), ReasonNoPharmacy)
				continue
			}
			rec.add(models.NewCapitalSchedule(years.Resolve(date), listOf(day), listOf(night)))
		}
	}
	return rec.finish(op)
}

// dropHeaders removes captions from a band. Pharmacy bands only lose caption-only
// lines. In the date band, the year of a month caption ("ENERO 2026") is carried to the
// next date without one.
func (s *CapitalStrategy) dropHeaders(lines []string, dateColumn bool) []string {
	kept := lines[:0]
	pendingYear := 0
	for _, line := range lines {
		if !dateColumn {
			if !isCaptionLine(line) {
				kept = append(kept, line)
			}
			continue
		}
		if isHeaderLine(line) {
			continue
		}
		if year, ok := monthHeaderYear(line); ok {
			if year > 0 {
				pendingYear = year
			}
			continue
		}
		if pendingYear > 0 && layout.LooksLikeDate(line) {
			if _, ok := findYear(line); !ok {
				line = fmt.Sprintf("%s %d", line, pendingYear)
			}
			pendingYear = 0
		}
		kept = append(kept, line)
	}
	return kept
}

func listOf(p models.Pharmacy) []models.Pharmacy {
	if p.Name == "" {
		return nil
	}
	return []models.Pharmacy{p}
}
