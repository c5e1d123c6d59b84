// Package export flattens schedules into one row per assigned pharmacy and writes them as
// CSV or XLSX.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"guardia/pkg/models"
)

// ErrUnsupportedFormat is returned for output files that are neither .csv nor .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// DefaultSheet is the worksheet name used for XLSX exports.
const DefaultSheet = "Guardias"

// Row is one pharmacy assignment.
type Row struct {
	Date    string `csv:"fecha"`
	Weekday string `csv:"dia"`
	Shift   string `csv:"turno"`
	Zone    string `csv:"zona"`
	Name    string `csv:"farmacia"`
	Address string `csv:"direccion"`
	Phone   string `csv:"telefono"`
	Hours   string `csv:"horario"`
	Notes   string `csv:"notas"`
}

// Header returns the column captions in Values order.
func Header() []string {
	return []string{"Fecha", "Día", "Turno", "Zona", "Farmacia", "Dirección", "Teléfono", "Horario", "Notas"}
}

// Values returns the cells of r in Header order.
func (r Row) Values() []string {
	return []string{r.Date, r.Weekday, r.Shift, r.Zone, r.Name, r.Address, r.Phone, r.Hours, r.Notes}
}

// Rows flattens schedules in document order. A window or zone without pharmacies still
// yields one row with an empty name so the date stays visible.
func Rows(schedules []models.PharmacySchedule) []Row {
	var rows []Row
	for _, s := range schedules {
		base := Row{Date: s.Date.Format(), Weekday: s.Date.DayOfWeek}

		if s.IsZoned() {
			for _, z := range s.Zones {
				rows = appendPharmacies(rows, base, models.FullDay, z.ZoneID, z.Pharmacies)
			}
			continue
		}
		for _, span := range s.Spans() {
			rows = appendPharmacies(rows, base, span, "", s.Pharmacies(span))
		}
	}
	return rows
}

func appendPharmacies(rows []Row, base Row, span models.DutyTimeSpan, zone string, pharmacies []models.Pharmacy) []Row {
	base.Shift = span.Label()
	base.Zone = zone
	if len(pharmacies) == 0 {
		return append(rows, base)
	}
	for _, p := range pharmacies {
		row := base
		row.Name = p.Name
		row.Address = p.Address
		row.Phone = p.Phone
		row.Notes = p.Notes
		if p.OperatingHours != nil {
			row.Hours = p.OperatingHours.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	return gocsv.Marshal(rows, w)
}

// WriteXLSX writes rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, rows []Row) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	write := func(col, row int, v string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	for i, h := range Header() {
		if err := write(i+1, 1, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row.Values() {
			if err := write(c+1, r+2, v); err != nil {
				return err
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, bold)
	}
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	_ = f.SetColWidth(sheet, "A", "C", 12)
	_ = f.SetColWidth(sheet, "D", "D", 18)
	_ = f.SetColWidth(sheet, "E", "F", 36)
	_ = f.SetColWidth(sheet, "G", "H", 14)
	_ = f.SetColWidth(sheet, "I", "I", 40)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, choosing the format from its extension.
func WriteFile(path string, rows []Row) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if ext == ".csv" {
		err = WriteCSV(f, rows)
	} else {
		err = WriteXLSX(f, DefaultSheet, rows)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
