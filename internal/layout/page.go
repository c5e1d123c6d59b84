// Package layout recovers table text from PDF pages by geometry.
//
// A Page is a flat list of positioned glyphs. Everything else in the package is built
// on one primitive, Page.TextIn, which returns the text found inside a rectangle:
//
//   - ExtractColumns slices a page into two or three vertical bands and scans them
//     top-to-bottom, producing one line list per band.
//   - RowScanner scans a set of fixed-width cells at a shared vertical offset, for tables
//     whose rows have uneven heights.
//
// Coordinates are in PDF points with Y measured from the top of the page, so scanning
// "down" means increasing Y. Glyph.Y is the text baseline.
package layout

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultIncrement is the scan step used when a page carries no font size information.
	DefaultIncrement = 5.0

	// wordGapFactor is the horizontal gap, as a fraction of the font size, that separates words.
	wordGapFactor = 0.25

	// lineTolerance is the baseline difference, in points, still treated as the same line.
	lineTolerance = 2.0
)

// Glyph is a run of text drawn at one position.
type Glyph struct {
	X        float64 // left edge
	Y        float64 // baseline, from the top of the page
	W        float64 // advance width
	FontSize float64
	Text     string
}

// Rect is an axis-aligned rectangle. Y grows downwards.
type Rect struct {
	X, Y, W, H float64
}

// Page is the text content of a single PDF page.
type Page struct {
	Number int
	Width  float64
	Height float64
	Glyphs []Glyph
}

// Document is the ordered list of pages of one PDF.
type Document struct {
	Pages []*Page
}

// NewPage builds a page from glyphs. It is how tests and fixtures describe a page.
func NewPage(width, height float64, glyphs ...Glyph) *Page {
	return &Page{Number: 1, Width: width, Height: height, Glyphs: glyphs}
}

// NewDocument wraps pages, renumbering them from 1.
func NewDocument(pages ...*Page) *Document {
	for i, p := range pages {
		p.Number = i + 1
	}
	return &Document{Pages: pages}
}

// Word is a glyph for a whole word or phrase, with its width estimated from the font size.
func Word(x, y, fontSize float64, text string) Glyph {
	return Glyph{
		X:        x,
		Y:        y,
		W:        float64(utf8.RuneCountInString(text)) * fontSize * 0.5,
		FontSize: fontSize,
		Text:     text,
	}
}

// MinFontSize returns the smallest positive font size on the page, or 0.
func (p *Page) MinFontSize() float64 {
	min := 0.0
	for _, g := range p.Glyphs {
		if g.FontSize <= 0 {
			continue
		}
		if min == 0 || g.FontSize < min {
			min = g.FontSize
		}
	}
	return min
}

// ScanIncrement is the vertical scan step for the page: the smallest font size, so that
// no line can fall between two scan positions, or DefaultIncrement.
func (p *Page) ScanIncrement() float64 {
	if inc := p.MinFontSize(); inc > 0 {
		return inc
	}
	return DefaultIncrement
}

// TextIn returns the trimmed text of the glyphs whose baseline lies within r vertically
// and whose horizontal midpoint lies within r. Lines are separated by "\n".
func (p *Page) TextIn(r Rect) string {
	return strings.Join(renderLines(p.GlyphsIn(r)), "\n")
}

// GlyphsIn returns the glyphs TextIn would read from r, in page order.
func (p *Page) GlyphsIn(r Rect) []Glyph {
	var hits []Glyph
	for _, g := range p.Glyphs {
		if g.Y < r.Y || g.Y >= r.Y+r.H {
			continue
		}
		mid := g.X + g.W/2
		if mid < r.X || mid >= r.X+r.W {
			continue
		}
		hits = append(hits, g)
	}
	return hits
}

// Lines returns every text line on the page, top to bottom.
func (p *Page) Lines() []string {
	glyphs := make([]Glyph, len(p.Glyphs))
	copy(glyphs, p.Glyphs)
	return renderLines(glyphs)
}

// Text returns the whole page as newline-separated lines.
func (p *Page) Text() string {
	return strings.Join(p.Lines(), "\n")
}

// Lines returns the lines of every page in order.
func (d *Document) Lines() []string {
	var out []string
	for _, p := range d.Pages {
		out = append(out, p.Lines()...)
	}
	return out
}

func renderLines(glyphs []Glyph) []string {
	if len(glyphs) == 0 {
		return nil
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		if math.Abs(glyphs[i].Y-glyphs[j].Y) > lineTolerance {
			return glyphs[i].Y < glyphs[j].Y
		}
		return glyphs[i].X < glyphs[j].X
	})

	var lines []string
	start := 0
	for i := 1; i <= len(glyphs); i++ {
		if i < len(glyphs) && math.Abs(glyphs[i].Y-glyphs[start].Y) <= lineTolerance {
			continue
		}
		if line := joinLine(glyphs[start:i]); line != "" {
			lines = append(lines, line)
		}
		start = i
	}
	return lines
}

func joinLine(glyphs []Glyph) string {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var b strings.Builder
	for i, g := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			size := math.Max(prev.FontSize, g.FontSize)
			if gap > size*wordGapFactor || utf8.RuneCountInString(prev.Text) > 1 || utf8.RuneCountInString(g.Text) > 1 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.Text)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
