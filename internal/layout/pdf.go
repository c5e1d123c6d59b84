package layout

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable is returned when a file cannot be decoded as a PDF.
var ErrUnreadable = errors.New("unreadable PDF")

// A4 dimensions in points, used when a page declares no MediaBox.
const (
	a4Width  = 595.0
	a4Height = 842.0
)

// Open reads every page of the PDF at path.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	return read(r)
}

// Read decodes a PDF held in memory.
func Read(data []byte) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return read(r)
}

func read(r *pdf.Reader) (doc *Document, err error) {
	// The decoder panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	doc = &Document{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		doc.Pages = append(doc.Pages, loadPage(p, i))
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrUnreadable)
	}
	return doc, nil
}

func loadPage(p pdf.Page, number int) *Page {
	width, height := mediaBox(p.V)
	content := p.Content()

	page := &Page{
		Number: number,
		Width:  width,
		Height: height,
		Glyphs: make([]Glyph, 0, len(content.Text)),
	}
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		page.Glyphs = append(page.Glyphs, Glyph{
			X:        t.X,
			Y:        height - t.Y,
			W:        t.W,
			FontSize: t.FontSize,
			Text:     t.S,
		})
	}
	return page
}

// mediaBox walks up the page tree until a MediaBox is found.
func mediaBox(v pdf.Value) (float64, float64) {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Len() != 4 {
			continue
		}
		w := box.Index(2).Float64() - box.Index(0).Float64()
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return a4Width, a4Height
}
