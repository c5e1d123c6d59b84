package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDutyDate(t *testing.T) {
	d := DutyDate{Day: 1, Month: time.January}

	t.Run("formats", func(t *testing.T) {
		assert.Equal(t, "01-ene", d.Format())
		assert.Equal(t, "01-ene-2025", d.WithYear(2025).Format())
		assert.Equal(t, "miércoles, 1 de enero de 2025", d.WithYear(2025).Long())
	})

	t.Run("time requires a year", func(t *testing.T) {
		_, err := d.Time(time.UTC)
		assert.True(t, errors.Is(err, ErrYearUnresolved))

		got, err := d.WithYear(2025).Time(time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("validity", func(t *testing.T) {
		assert.True(t, DutyDate{Day: 29, Month: time.February}.Valid())
		assert.False(t, DutyDate{Day: 29, Month: time.February, Year: 2025}.Valid())
		assert.True(t, DutyDate{Day: 29, Month: time.February, Year: 2024}.Valid())
		assert.False(t, DutyDate{Day: 31, Month: time.April}.Valid())
	})

	t.Run("add days crosses the year", func(t *testing.T) {
		next, err := DutyDate{Day: 31, Month: time.December}.WithYear(2025).AddDays(1)
		require.NoError(t, err)
		assert.Equal(t, "01-ene-2026", next.Format())
		assert.Equal(t, "jueves", next.DayOfWeek)
	})

	t.Run("matches the calendar day", func(t *testing.T) {
		assert.True(t, d.WithYear(2025).Matches(time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)))
		assert.False(t, d.Matches(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)))
	})
}

func TestLookups(t *testing.T) {
	for token, want := range map[string]time.Month{"ene": time.January, "Enero": time.January, "SEPT.": time.September, "setiembre": time.September, "dic": time.December} {
		got, ok := LookupMonth(token)
		assert.True(t, ok, token)
		assert.Equal(t, want, got, token)
	}
	_, ok := LookupMonth("foo")
	assert.False(t, ok)

	for token, want := range map[string]time.Weekday{"lun": time.Monday, "Miércoles": time.Wednesday, "mie": time.Wednesday, "X": time.Wednesday, "sab": time.Saturday} {
		got, ok := LookupWeekday(token)
		assert.True(t, ok, token)
		assert.Equal(t, want, got, token)
	}

	assert.Equal(t, "cuellar", Fold("  Cuéllar. "))
}

func TestDutyTimeSpan(t *testing.T) {
	clock := func(h, m int) time.Time { return time.Date(2025, 1, 2, h, m, 0, 0, time.UTC) }

	t.Run("capital day", func(t *testing.T) {
		assert.True(t, CapitalDay.Contains(clock(10, 15)))
		assert.True(t, CapitalDay.Contains(clock(21, 59)))
		assert.False(t, CapitalDay.Contains(clock(22, 0)))
		assert.False(t, CapitalDay.Contains(clock(10, 14)))
	})

	t.Run("capital night crosses midnight", func(t *testing.T) {
		assert.True(t, CapitalNight.CrossesMidnight())
		assert.True(t, CapitalNight.Contains(clock(22, 0)))
		assert.True(t, CapitalNight.Contains(clock(3, 0)))
		assert.False(t, CapitalNight.Contains(clock(10, 15)))

		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), CapitalNight.OwningDate(clock(9, 59)))
		assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), CapitalNight.OwningDate(clock(23, 0)))
		assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), CapitalDay.OwningDate(clock(9, 59)))
	})

	t.Run("full day", func(t *testing.T) {
		assert.True(t, FullDay.Contains(clock(0, 0)))
		assert.True(t, FullDay.Contains(clock(23, 59)))
	})

	t.Run("usable as a JSON map key", func(t *testing.T) {
		s := NewCapitalSchedule(DutyDate{Day: 1, Month: time.January}.WithYear(2025), []Pharmacy{{Name: "A"}}, nil)
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"capital_day":[{"name":"A"}]`)
		assert.Contains(t, string(raw), `"capital_night":[]`)
	})
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in   string
		want TimeRange
		span SpanKind
	}{
		{"24h", AllDay, SpanFullDay},
		{"24 horas", AllDay, SpanFullDay},
		{"10h-22h", TimeRange{Clock(10, 0), Clock(22, 0)}, SpanRuralDaytime},
		{"9h30-21h", TimeRange{Clock(9, 30), Clock(21, 0)}, SpanRuralDaytime},
		{"(10:00 a 23:00)", TimeRange{Clock(10, 0), Clock(23, 0)}, SpanRuralExtendedDaytime},
		{"10h-02h", TimeRange{Clock(10, 0), Clock(2, 0)}, SpanRuralExtendedDaytime},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimeRange(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.span, got.Span().Kind)
		})
	}

	_, ok := ParseTimeRange("Farmacia Sol")
	assert.False(t, ok)
	_, ok = ParseTimeRange("25h-26h")
	assert.False(t, ok)
}

func TestDefaultHoursPolicy(t *testing.T) {
	assert.Equal(t, AssumeOpen24h, DefaultHoursPolicy)

	night := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)
	unknown := Pharmacy{Name: "Sin horario"}
	assert.True(t, unknown.OpenAt(night, DefaultHoursPolicy))
	assert.False(t, unknown.OpenAt(night, AssumeClosedOutsideStated))
	assert.Equal(t, FullDay, unknown.DutySpan())

	daytime := TimeRange{Open: Clock(10, 0), Close: Clock(22, 0)}
	stated := Pharmacy{Name: "Diurna", OperatingHours: &daytime}
	assert.False(t, stated.OpenAt(night, DefaultHoursPolicy))
}

func TestZoneSchedule(t *testing.T) {
	s := NewZoneSchedule(DutyDate{Day: 1, Month: time.January}.WithYear(2025), []ZoneDuty{
		{ZoneID: "Norte", Pharmacies: []Pharmacy{{Name: "A"}, {Name: "B"}}},
		{ZoneID: "Sur"},
	})

	assert.True(t, s.IsZoned())
	assert.Equal(t, []string{"Norte", "Sur"}, s.ZoneIDs())
	assert.Equal(t, []DutyTimeSpan{FullDay}, s.Spans())

	all := s.Pharmacies(FullDay)
	require.Len(t, all, 2)
	assert.Equal(t, "Norte", all[1].ZoneID)

	south, ok := s.Zone("sur")
	assert.True(t, ok)
	assert.NotNil(t, south)
	assert.Empty(t, south)

	_, ok = s.Zone("Este")
	assert.False(t, ok)
}

func TestLookupRegion(t *testing.T) {
	for _, key := range []string{"cuellar", "Cuéllar", "el espinar", "segovia-capital"} {
		_, err := LookupRegion(key)
		assert.NoError(t, err, key)
	}
	_, err := LookupRegion("madrid")
	assert.Error(t, err)

	regions := Regions()
	regions[0].Name = "changed"
	assert.NotEqual(t, "changed", Regions()[0].Name)
}
