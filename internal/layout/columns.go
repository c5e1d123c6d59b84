package layout

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrColumnCount is returned for column counts other than 2 or 3.
var ErrColumnCount = errors.New("column count must be 2 or 3")

// ColumnOptions tunes ExtractColumns.
type ColumnOptions struct {
	LeftMargin   float64
	RightMargin  float64
	TopMargin    float64
	BottomMargin float64

	// DateColumnRatio is the share of the usable width given to the first (date) column.
	// The remaining width is split evenly among the other columns.
	DateColumnRatio float64

	// ReferenceYear is the "current" year for standalone year markers. Zero means the
	// year of time.Now.
	ReferenceYear int

	// DateShaped decides whether a first-column line is a date row that can take a
	// pending year marker. Nil uses LooksLikeDate.
	DateShaped func(string) bool
}

// DefaultColumnOptions returns the options tuned for the published calendars.
func DefaultColumnOptions() ColumnOptions {
	return ColumnOptions{
		LeftMargin:      20,
		RightMargin:     20,
		DateColumnRatio: 0.25,
	}
}

// Bands holds the lines scanned from each column, top to bottom.
type Bands struct {
	Columns   [][]string
	Increment float64
}

// BandMismatchError reports columns that produced different numbers of lines.
type BandMismatchError struct {
	Lengths []int
}

func (e *BandMismatchError) Error() string {
	parts := make([]string, len(e.Lengths))
	for i, n := range e.Lengths {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("column line counts differ: %s", strings.Join(parts, "/"))
}

// Len returns the length of the shortest band.
func (b *Bands) Len() int {
	if len(b.Columns) == 0 {
		return 0
	}
	n := len(b.Columns[0])
	for _, col := range b.Columns[1:] {
		if len(col) < n {
			n = len(col)
		}
	}
	return n
}

// Rows zips the bands into rows up to the shortest band. When the bands differ in
// length the rows are still returned together with a *BandMismatchError.
func (b *Bands) Rows() ([][]string, error) {
	n := b.Len()
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(b.Columns))
		for c := range b.Columns {
			row[c] = b.Columns[c][i]
		}
		rows[i] = row
	}

	mismatch := false
	lengths := make([]int, len(b.Columns))
	for c, col := range b.Columns {
		lengths[c] = len(col)
		if len(col) != n {
			mismatch = true
		}
	}
	if mismatch {
		return rows, &BandMismatchError{Lengths: lengths}
	}
	return rows, nil
}

// ExtractColumns slices page into columnCount vertical bands and scans each band
// top-to-bottom in strips one increment high, the increment being the smallest font size
// on the page.
//
// Within a band, a strip whose text equals the last recorded line is skipped, so a line
// straddling two strips is recorded once. In the first band, a line holding nothing but
// the reference year or the one after it is not recorded; it is appended to the next
// date-shaped line instead.
func ExtractColumns(page *Page, columnCount int, opts ColumnOptions) (*Bands, error) {
	if columnCount != 2 && columnCount != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrColumnCount, columnCount)
	}

	usable := page.Width - opts.LeftMargin - opts.RightMargin
	if usable <= 0 {
		return nil, fmt.Errorf("page %d: margins leave no usable width", page.Number)
	}
	ratio := opts.DateColumnRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultColumnOptions().DateColumnRatio
	}
	dateShaped := opts.DateShaped
	if dateShaped == nil {
		dateShaped = LooksLikeDate
	}
	refYear := opts.ReferenceYear
	if refYear == 0 {
		refYear = time.Now().Year()
	}

	dateWidth := usable * ratio
	otherWidth := (usable - dateWidth) / float64(columnCount-1)
	rects := make([]Rect, columnCount)
	rects[0] = Rect{X: opts.LeftMargin, W: dateWidth}
	for c := 1; c < columnCount; c++ {
		rects[c] = Rect{X: opts.LeftMargin + dateWidth + float64(c-1)*otherWidth, W: otherWidth}
	}

	inc := page.ScanIncrement()
	bands := &Bands{Columns: make([][]string, columnCount), Increment: inc}
	last := make([]string, columnCount)
	pendingYear := 0

	for y := opts.TopMargin; y < page.Height-opts.BottomMargin; y += inc {
		for c := range rects {
			r := rects[c]
			r.Y, r.H = y, inc
			text := page.TextIn(r)
			if text == "" || text == last[c] {
				continue
			}
			last[c] = text

			if c == 0 {
				if year, ok := standaloneYear(text, refYear); ok {
					pendingYear = year
					continue
				}
				if pendingYear != 0 && dateShaped(text) {
					if !yearPattern.MatchString(text) {
						text = fmt.Sprintf("%s %d", text, pendingYear)
					}
					pendingYear = 0
				}
			}
			bands.Columns[c] = append(bands.Columns[c], text)
		}
	}
	return bands, nil
}

var (
	yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	datePattern = regexp.MustCompile(`(?i)\b\d{1,2}(?:\s*[-/.]\s*|\s+(?:de\s+)?)(?:ene|feb|mar|abr|may|jun|jul|ago|sep|oct|nov|dic)`)
)

// LooksLikeDate reports whether s contains a day number followed by a Spanish month.
func LooksLikeDate(s string) bool {
	return datePattern.MatchString(s)
}

func standaloneYear(text string, ref int) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	if year == ref || year == ref+1 {
		return year, true
	}
	return 0, false
}
