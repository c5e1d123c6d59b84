package layout

import "strings"

// Cell is the horizontal extent of one table column.
type Cell struct {
	X     float64
	Width float64
}

// RowScanner reads tables whose rows have uneven heights by scanning a fixed set of
// cells at a shared vertical offset.
type RowScanner struct {
	page *Page

	// Increment is the vertical scan step.
	Increment float64
	// RowHeight bounds ScanRow when the next row's offset is unknown.
	RowHeight float64
	// MinGap is the blank height that separates two rows in DetectRowBoundaries.
	MinGap float64
	// MaxProbes bounds FindFirstCoherentRow.
	MaxProbes int
}

// NewRowScanner returns a scanner for page with increments derived from its fonts.
func NewRowScanner(page *Page) *RowScanner {
	inc := page.ScanIncrement()
	return &RowScanner{
		page:      page,
		Increment: inc,
		RowHeight: inc * 4,
		MinGap:    inc * 1.5,
		MaxProbes: 50,
	}
}

// Page returns the scanned page.
func (s *RowScanner) Page() *Page {
	return s.page
}

// ScanRow returns the lines of each cell for the row starting at rowY, reading at most
// RowHeight down.
func (s *RowScanner) ScanRow(cells []Cell, rowY float64) [][]string {
	return s.ScanRowSpan(cells, rowY, rowY+s.RowHeight)
}

// ScanRowSpan returns the lines of each cell between top (inclusive) and bottom.
// Repeated strips are collapsed the same way ExtractColumns does.
func (s *RowScanner) ScanRowSpan(cells []Cell, top, bottom float64) [][]string {
	out := make([][]string, len(cells))
	for i, c := range cells {
		var last string
		for y := top; y < bottom; y += s.Increment {
			h := s.Increment
			if y+h > bottom {
				h = bottom - y
			}
			text := s.page.TextIn(Rect{X: c.X, Y: y, W: c.Width, H: h})
			if text == "" || text == last {
				continue
			}
			last = text
			out[i] = append(out[i], strings.Split(text, "\n")...)
		}
	}
	return out
}

// DetectRowBoundaries returns the top offsets of the text blocks found in the band
// [x0, x1) between startY and endY. A block starts where text follows at least MinGap of
// blank height, or at the first text found.
func (s *RowScanner) DetectRowBoundaries(x0, x1, startY, endY float64) []float64 {
	var (
		out   []float64
		blank = s.MinGap
	)
	for y := startY; y < endY; y += s.Increment {
		if s.page.TextIn(Rect{X: x0, Y: y, W: x1 - x0, H: s.Increment}) == "" {
			blank += s.Increment
			continue
		}
		if len(out) == 0 || blank >= s.MinGap {
			out = append(out, y)
		}
		blank = 0
	}
	return out
}

// FindFirstCoherentRow probes the rows detected in the first cell between startY and
// endY and returns the offset of the first one accepted by valid. The search reads at
// most MaxProbes rows and never past endY.
func (s *RowScanner) FindFirstCoherentRow(cells []Cell, startY, endY float64, valid func([][]string) bool) (float64, bool) {
	if len(cells) == 0 {
		return 0, false
	}
	first := cells[0]
	bounds := s.DetectRowBoundaries(first.X, first.X+first.Width, startY, endY)
	for i, y := range bounds {
		if i >= s.MaxProbes {
			break
		}
		bottom := endY
		if i+1 < len(bounds) {
			bottom = bounds[i+1]
		}
		if valid(s.ScanRowSpan(cells, y, bottom)) {
			return y, true
		}
	}
	return 0, false
}
