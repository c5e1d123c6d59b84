package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"guardia/pkg/models"
)

func sample() []models.PharmacySchedule {
	jan1 := models.DutyDate{Day: 1, Month: time.January}.WithYear(2025)
	jan2 := models.DutyDate{Day: 2, Month: time.January}.WithYear(2025)
	hours := models.TimeRange{Open: models.Clock(10, 0), Close: models.Clock(22, 0)}
	return []models.PharmacySchedule{
		models.NewCapitalSchedule(jan1,
			[]models.Pharmacy{{Name: "Farmacia A", Address: "C/ Real 1", Phone: "921000000"}},
			[]models.Pharmacy{{Name: "Farmacia B", Address: "Pza. Mayor 2"}},
		),
		models.NewZoneSchedule(jan2, []models.ZoneDuty{
			{ZoneID: "ZBS Norte", Pharmacies: []models.Pharmacy{{Name: "Farmacia N", OperatingHours: &hours, Notes: "10h-22h"}}},
			{ZoneID: "ZBS Sur", Pharmacies: []models.Pharmacy{}},
		}),
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sample())
	require.Len(t, rows, 4)

	assert.Equal(t, Row{Date: "01-ene-2025", Weekday: "miércoles", Shift: "Día", Name: "Farmacia A", Address: "C/ Real 1", Phone: "921000000"}, rows[0])
	assert.Equal(t, "Noche", rows[1].Shift)
	assert.Equal(t, "ZBS Norte", rows[2].Zone)
	assert.Equal(t, "10:00-22:00", rows[2].Hours)

	assert.Equal(t, "ZBS Sur", rows[3].Zone)
	assert.Empty(t, rows[3].Name)
	assert.Equal(t, "02-ene-2025", rows[3].Date)

	assert.Len(t, rows[0].Values(), len(Header()))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Rows(sample())))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "fecha,dia,turno,zona,farmacia,direccion,telefono,horario,notas", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "01-ene-2025,miércoles,Día,,Farmacia A"))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "", Rows(sample())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())
	rows, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, Header(), rows[0])
	assert.Equal(t, "Farmacia B", rows[2][4])
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"out.csv", "out.xlsx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, Rows(sample())), name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err := WriteFile(filepath.Join(dir, "out.pdf"), nil)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
