package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextIn(t *testing.T) {
	page := NewPage(400, 400,
		Word(40, 100, 8, "Farmacia"),
		Word(80, 100, 8, "Central"),
		Word(40, 110, 8, "C/ Real 1"),
		Word(300, 100, 8, "Otra"),
	)

	t.Run("joins words on a baseline and separates lines", func(t *testing.T) {
		got := page.TextIn(Rect{X: 0, Y: 95, W: 200, H: 20})
		assert.Equal(t, "Farmacia Central\nC/ Real 1", got)
	})

	t.Run("uses the glyph midpoint for horizontal inclusion", func(t *testing.T) {
		// "Otra" spans 300-316, midpoint 308.
		assert.Equal(t, "", page.TextIn(Rect{X: 309, Y: 95, W: 50, H: 10}))
		assert.Equal(t, "Otra", page.TextIn(Rect{X: 305, Y: 95, W: 50, H: 10}))
	})

	t.Run("uses the baseline for vertical inclusion", func(t *testing.T) {
		assert.Equal(t, "", page.TextIn(Rect{X: 0, Y: 101, W: 400, H: 5}))
		assert.Equal(t, "C/ Real 1", page.TextIn(Rect{X: 0, Y: 101, W: 200, H: 10}))
	})

	t.Run("glues single characters without a gap", func(t *testing.T) {
		chars := NewPage(200, 200,
			Glyph{X: 10, Y: 50, W: 4, FontSize: 8, Text: "1"},
			Glyph{X: 14, Y: 50, W: 4, FontSize: 8, Text: "2"},
			Glyph{X: 24, Y: 50, W: 4, FontSize: 8, Text: "e"},
		)
		assert.Equal(t, "12 e", chars.TextIn(Rect{X: 0, Y: 40, W: 200, H: 20}))
	})
}

func TestScanIncrement(t *testing.T) {
	assert.Equal(t, 7.0, NewPage(100, 100, Word(0, 10, 9, "a"), Word(0, 20, 7, "b")).ScanIncrement())
	assert.Equal(t, DefaultIncrement, NewPage(100, 100).ScanIncrement())
}

// columnPage lays words out on a 400pt page: with 20pt margins and a 0.25 date ratio
// the date band is 20-110 and the pharmacy band 110-380.
func columnPage(rows ...[2]string) *Page {
	var glyphs []Glyph
	y := 100.0
	for _, r := range rows {
		if r[0] != "" {
			glyphs = append(glyphs, Word(30, y, 8, r[0]))
		}
		if r[1] != "" {
			glyphs = append(glyphs, Word(150, y, 8, r[1]))
		}
		y += 20
	}
	return NewPage(400, 600, glyphs...)
}

func TestExtractColumns(t *testing.T) {
	opts := DefaultColumnOptions()
	opts.ReferenceYear = 2025

	t.Run("rejects unsupported column counts", func(t *testing.T) {
		_, err := ExtractColumns(columnPage(), 4, opts)
		assert.True(t, errors.Is(err, ErrColumnCount))
	})

	t.Run("splits bands", func(t *testing.T) {
		bands, err := ExtractColumns(columnPage(
			[2]string{"01-ene", "Farmacia A"},
			[2]string{"02-ene", "Farmacia B"},
		), 2, opts)
		require.NoError(t, err)

		rows, err := bands.Rows()
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"01-ene", "Farmacia A"}, {"02-ene", "Farmacia B"}}, rows)
		assert.Equal(t, 8.0, bands.Increment)
	})

	t.Run("collapses truly adjacent repeats", func(t *testing.T) {
		page := NewPage(400, 600,
			Word(150, 100, 8, "Farmacia A"),
			Word(150, 108, 8, "Farmacia A"),
		)
		bands, err := ExtractColumns(page, 2, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"Farmacia A"}, bands.Columns[1])
	})

	t.Run("keeps repeats separated by a different line", func(t *testing.T) {
		page := NewPage(400, 600,
			Word(150, 100, 8, "Farmacia A"),
			Word(150, 120, 8, "Farmacia B"),
			Word(150, 140, 8, "Farmacia A"),
		)
		bands, err := ExtractColumns(page, 2, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"Farmacia A", "Farmacia B", "Farmacia A"}, bands.Columns[1])
	})

	t.Run("applies a pending year to the next date", func(t *testing.T) {
		bands, err := ExtractColumns(columnPage(
			[2]string{"30-dic", "Farmacia A"},
			[2]string{"2026", ""},
			[2]string{"ENERO", ""},
			[2]string{"01-ene", "Farmacia B"},
		), 2, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"30-dic", "ENERO", "01-ene 2026"}, bands.Columns[0])
	})

	t.Run("keeps years outside the reference window", func(t *testing.T) {
		bands, err := ExtractColumns(columnPage([2]string{"2019", ""}), 2, opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"2019"}, bands.Columns[0])
	})

	t.Run("three columns split the remaining width evenly", func(t *testing.T) {
		// Date band 20-110, day band 110-245, night band 245-380.
		page := NewPage(400, 600,
			Word(30, 100, 8, "01-ene"),
			Word(120, 100, 8, "Dia"),
			Word(260, 100, 8, "Noche"),
		)
		bands, err := ExtractColumns(page, 3, opts)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"01-ene"}, {"Dia"}, {"Noche"}}, bands.Columns)
	})
}

func TestBandsRows(t *testing.T) {
	bands := &Bands{Columns: [][]string{{"a", "b", "c"}, {"1", "2"}}}

	rows, err := bands.Rows()
	assert.Equal(t, [][]string{{"a", "1"}, {"b", "2"}}, rows)

	var mismatch *BandMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []int{3, 2}, mismatch.Lengths)
	assert.Contains(t, err.Error(), "3/2")
}

func TestLooksLikeDate(t *testing.T) {
	for _, s := range []string{"01-ene", "lunes 1 de enero", "1/feb", "15 mar 2025", "Sábado 07-Dic"} {
		assert.True(t, LooksLikeDate(s), s)
	}
	for _, s := range []string{"ENERO", "Farmacia Sol", "2025", "24h"} {
		assert.False(t, LooksLikeDate(s), s)
	}
}

func TestRowScanner(t *testing.T) {
	// Two rows of uneven height: the first has a two-line pharmacy cell.
	page := NewPage(400, 600,
		Word(30, 50, 8, "FECHA"),
		Word(150, 50, 8, "ZBS NORTE"),
		Word(30, 100, 8, "01-ene"),
		Word(150, 100, 8, "Farmacia A"),
		Word(150, 110, 8, "10h-22h"),
		Word(30, 150, 8, "02-ene"),
		Word(150, 150, 8, "Farmacia B"),
	)
	s := NewRowScanner(page)
	cells := []Cell{{X: 20, Width: 90}, {X: 110, Width: 200}}

	t.Run("detects boundaries from blank gaps", func(t *testing.T) {
		bounds := s.DetectRowBoundaries(20, 110, 0, 600)
		require.Len(t, bounds, 3)
		assert.Equal(t, []float64{48, 96, 144}, bounds)
	})

	t.Run("keeps lines of a tall cell in one row", func(t *testing.T) {
		bounds := s.DetectRowBoundaries(110, 310, 90, 140)
		assert.Len(t, bounds, 1)
	})

	t.Run("scans a row span", func(t *testing.T) {
		got := s.ScanRowSpan(cells, 96, 144)
		assert.Equal(t, [][]string{{"01-ene"}, {"Farmacia A", "10h-22h"}}, got)
	})

	t.Run("scans a row with the default height", func(t *testing.T) {
		got := s.ScanRow(cells, 144)
		assert.Equal(t, [][]string{{"02-ene"}, {"Farmacia B"}}, got)
	})

	t.Run("finds the first row with a date", func(t *testing.T) {
		y, ok := s.FindFirstCoherentRow(cells, 0, 600, func(row [][]string) bool {
			return len(row[0]) > 0 && LooksLikeDate(row[0][0])
		})
		require.True(t, ok)
		assert.Equal(t, 96.0, y)
	})

	t.Run("reports not found without passing endY", func(t *testing.T) {
		probes := 0
		_, ok := s.FindFirstCoherentRow(cells, 0, 90, func(row [][]string) bool {
			probes++
			return false
		})
		assert.False(t, ok)
		assert.Equal(t, 1, probes)
	})

	t.Run("honours the probe limit", func(t *testing.T) {
		limited := NewRowScanner(page)
		limited.MaxProbes = 2
		probes := 0
		_, ok := limited.FindFirstCoherentRow(cells, 0, 600, func([][]string) bool {
			probes++
			return false
		})
		assert.False(t, ok)
		assert.Equal(t, 2, probes)
	})
}

func TestRead(t *testing.T) {
	_, err := Read([]byte("not a pdf"))
	assert.True(t, errors.Is(err, ErrUnreadable))
}
