package extract

import (
	"fmt"
	"sort"
	"strings"

	"guardia/internal/layout"
	"guardia/pkg/models"
)

// noCoverage are the cell markers meaning a zone has no pharmacy on duty that day.
var noCoverage = map[string]bool{"-": true, "--": true, "—": true, "–": true, "sin guardia": true, "sin servicio": true, "no hay": true}

// ZoneStrategy reads the rural calendar, one column per health zone (ZBS). Rows have
// uneven heights because a zone cell can list several pharmacies, each optionally
// followed by its opening hours on the next line.
type ZoneStrategy struct {
	opts Options
}

// NewZoneStrategy returns the rural strategy.
func NewZoneStrategy(opts Options) *ZoneStrategy {
	return &ZoneStrategy{opts: opts}
}

// Region implements Strategy.
func (s *ZoneStrategy) Region() models.RegionID { return models.RegionRural }

// Parse implements Strategy.
func (s *ZoneStrategy) Parse(doc *layout.Document) ([]models.PharmacySchedule, error) {
	return parseWith(s, doc)
}

// Extract implements Strategy.
func (s *ZoneStrategy) Extract(doc *layout.Document) (*Report, error) {
	const op = "ZoneStrategy.Extract"

	rec := newRecorder(s.Region())
	years := NewYearTracker(s.opts.now().Year())

	var (
		tables int
		zones  []zoneColumn
	)
	for _, page := range doc.Pages {
		var ok bool
		if zones, ok = s.extractPage(rec, years, page, zones); ok {
			tables++
		}
	}
	if tables == 0 {
		return nil, WrapExtractError(op, s.Region(), ErrNoTable, fmt.Sprintf("%d pages", len(doc.Pages)))
	}
	return rec.finish(op)
}

// zoneColumn is a table column with its header text.
type zoneColumn struct {
	layout.Cell
	ID string
}

// extractPage reads the table on page. A continuation page without a header reuses the
// columns of the previous page.
func (s *ZoneStrategy) extractPage(rec *recorder, years *YearTracker, page *layout.Page, prev []zoneColumn) ([]zoneColumn, bool) {
	cols := s.opts.Columns
	left, right := cols.LeftMargin, page.Width-cols.RightMargin
	ratio := cols.DateColumnRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = layout.DefaultColumnOptions().DateColumnRatio
	}
	dateCell := layout.Cell{X: left, Width: (right - left) * ratio}
	zonesX := dateCell.X + dateCell.Width
	bottom := page.Height - cols.BottomMargin

	scanner := layout.NewRowScanner(page)
	firstY, ok := scanner.FindFirstCoherentRow([]layout.Cell{dateCell}, cols.TopMargin, bottom, func(row [][]string) bool {
		_, ok := ParseDate(strings.Join(row[0], " "))
		return ok
	})
	if !ok {
		rec.warn(page.Number, ReasonBadDate, "no dated row found on page")
		return prev, false
	}

	zones := s.zoneColumns(page, scanner, zonesX, right, cols.TopMargin, firstY, prev)
	if len(zones) == 0 {
		rec.warn(page.Number, ReasonNoPharmacy, "no zone columns found on page")
		return prev, false
	}

	cells := make([]layout.Cell, 0, len(zones)+1)
	cells = append(cells, dateCell)
	for _, z := range zones {
		cells = append(cells, z.Cell)
	}

	bounds := scanner.DetectRowBoundaries(dateCell.X, dateCell.X+dateCell.Width, firstY, bottom)
	for i, top := range bounds {
		rowBottom := bottom
		if i+1 < len(bounds) {
			rowBottom = bounds[i+1]
		}
		row := scanner.ScanRowSpan(cells, top, rowBottom)

		dateText := strings.Join(row[0], " ")
		date, ok := ParseDate(dateText)
		if !ok {
			rec.skip(page.Number, dateText, ReasonBadDate)
			continue
		}

		duties := make([]models.ZoneDuty, len(zones))
		for z, zone := range zones {
			duties[z] = models.ZoneDuty{ZoneID: zone.ID, Pharmacies: parseZoneCell(row[z+1])}
		}
		rec.add(models.NewZoneSchedule(years.Resolve(date), duties))
	}
	return zones, true
}

// zoneColumns locates the zone columns from the header block right above the first data
// row. Columns are the horizontal clusters of header glyphs. Without a header the
// previous page's columns are used, and failing that the configured zone names get
// equal widths.
func (s *ZoneStrategy) zoneColumns(page *layout.Page, scanner *layout.RowScanner, x0, x1, top, firstY float64, prev []zoneColumn) []zoneColumn {
	headerTop := top
	if blocks := scanner.DetectRowBoundaries(x0, x1, top, firstY); len(blocks) > 0 {
		headerTop = blocks[len(blocks)-1]
	}
	header := layout.Rect{X: x0, Y: headerTop, W: x1 - x0, H: firstY - headerTop}

	spans := clusterGlyphs(page.GlyphsIn(header), page.ScanIncrement()*2)
	if len(spans) == 0 {
		if prev != nil {
			return prev
		}
		return s.fallbackColumns(x0, x1)
	}

	out := make([]zoneColumn, len(spans))
	for i := range spans {
		start := x0
		if i > 0 {
			start = (spans[i-1][1] + spans[i][0]) / 2
		}
		end := x1
		if i+1 < len(spans) {
			end = (spans[i][1] + spans[i+1][0]) / 2
		}
		cell := layout.Cell{X: start, Width: end - start}
		id := strings.ReplaceAll(page.TextIn(layout.Rect{X: cell.X, Y: header.Y, W: cell.Width, H: header.H}), "\n", " ")
		if id == "" {
			id = s.zoneName(i)
		}
		out[i] = zoneColumn{Cell: cell, ID: id}
	}
	return out
}

func (s *ZoneStrategy) fallbackColumns(x0, x1 float64) []zoneColumn {
	n := len(s.opts.ZoneNames)
	if n == 0 {
		return nil
	}
	width := (x1 - x0) / float64(n)
	out := make([]zoneColumn, n)
	for i := range out {
		out[i] = zoneColumn{Cell: layout.Cell{X: x0 + float64(i)*width, Width: width}, ID: s.zoneName(i)}
	}
	return out
}

func (s *ZoneStrategy) zoneName(i int) string {
	if i < len(s.opts.ZoneNames) {
		return s.opts.ZoneNames[i]
	}
	return fmt.Sprintf("ZBS %d", i+1)
}

// clusterGlyphs merges glyph extents closer than gap and returns the [start, end] of
// each cluster from left to right.
func clusterGlyphs(glyphs []layout.Glyph, gap float64) [][2]float64 {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]layout.Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	spans := [][2]float64{{sorted[0].X, sorted[0].X + sorted[0].W}}
	for _, g := range sorted[1:] {
		last := &spans[len(spans)-1]
		if g.X <= last[1]+gap {
			if end := g.X + g.W; end > last[1] {
				last[1] = end
			}
			continue
		}
		spans = append(spans, [2]float64{g.X, g.X + g.W})
	}
	return spans
}

// parseZoneCell turns the lines of one zone cell into pharmacies. A line holding only
// hours applies to the pharmacy above it. An empty cell or a no-coverage marker yields
// an empty, non-nil list.
func parseZoneCell(lines []string) []models.Pharmacy {
	out := []models.Pharmacy{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || noCoverage[models.Fold(line)] {
			continue
		}
		if hours, ok := annotationOnly(line); ok {
			if len(out) > 0 {
				h := hours
				out[len(out)-1].OperatingHours = &h
				out[len(out)-1].Notes = line
			}
			continue
		}
		out = append(out, parsePharmacyCell(line))
	}
	return out
}
