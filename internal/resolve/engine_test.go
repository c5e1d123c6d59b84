package resolve

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardia/pkg/models"
)

func date(day int, month time.Month, year int) models.DutyDate {
	return models.DutyDate{Day: day, Month: month}.WithYear(year)
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func pharmacies(names ...string) []models.Pharmacy {
	out := make([]models.Pharmacy, len(names))
	for i, n := range names {
		out[i] = models.Pharmacy{Name: n}
	}
	return out
}

func capitalRows() []models.PharmacySchedule {
	return []models.PharmacySchedule{
		models.NewCapitalSchedule(date(1, time.January, 2025), pharmacies("Farmacia A"), pharmacies("Farmacia B")),
		models.NewCapitalSchedule(date(2, time.January, 2025), pharmacies("Farmacia C"), pharmacies("Farmacia D")),
	}
}

func TestResolveSplit(t *testing.T) {
	e := NewEngine(time.UTC)
	capital, err := models.LookupRegion(string(models.RegionCapital))
	require.NoError(t, err)
	schedules := capitalRows()

	tests := []struct {
		name string
		at   time.Time
		day  int
		span models.DutyTimeSpan
		want string
	}{
		{"afternoon is the day shift", at(2025, 1, 1, 15, 0), 1, models.CapitalDay, "Farmacia A"},
		{"late evening is the night shift", at(2025, 1, 1, 23, 0), 1, models.CapitalNight, "Farmacia B"},
		{"22:00 starts the night", at(2025, 1, 1, 22, 0), 1, models.CapitalNight, "Farmacia B"},
		{"early morning belongs to the previous night", at(2025, 1, 2, 9, 59), 1, models.CapitalNight, "Farmacia B"},
		{"10:15 starts the day", at(2025, 1, 2, 10, 15), 2, models.CapitalDay, "Farmacia C"},
		{"just after midnight", at(2025, 1, 2, 0, 5), 1, models.CapitalNight, "Farmacia B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := e.Resolve(schedules, tt.at, capital)
			require.True(t, ok)
			assert.Equal(t, tt.day, r.Schedule.Date.Day)
			assert.Equal(t, tt.span, r.Span)
			assert.True(t, r.Span.Contains(tt.at))
			assert.Equal(t, pharmacies(tt.want), r.Pharmacies())
		})
	}

	t.Run("no entry for the owning day", func(t *testing.T) {
		_, ok := e.Resolve(schedules, at(2025, 1, 1, 9, 0), capital)
		assert.False(t, ok)
	})

	t.Run("every minute resolves to exactly one window", func(t *testing.T) {
		for m := 10*60 + 15; m < 24*60+10*60+15; m++ {
			instant := at(2025, 1, 1, 0, 0).Add(time.Duration(m) * time.Minute)
			r, ok := e.Resolve(schedules, instant, capital)
			require.True(t, ok, instant)
			assert.True(t, r.Span.Contains(instant), instant)
		}
	})

	t.Run("first entry wins on duplicate dates", func(t *testing.T) {
		dup := append(capitalRows(), models.NewCapitalSchedule(date(1, time.January, 2025), pharmacies("Farmacia X"), nil))
		dup[0], dup[2] = dup[2], dup[0]
		r, ok := e.Resolve(dup, at(2025, 1, 1, 12, 0), capital)
		require.True(t, ok)
		assert.Equal(t, "Farmacia X", r.Pharmacies()[0].Name)
	})
}

func TestResolveSingle(t *testing.T) {
	e := NewEngine(time.UTC)
	town, err := models.LookupRegion("cuellar")
	require.NoError(t, err)
	schedules := []models.PharmacySchedule{
		models.NewFullDaySchedule(date(1, time.January, 2025), pharmacies("Farmacia Uno")...),
		models.NewFullDaySchedule(date(2, time.January, 2025), pharmacies("Farmacia Dos")...),
	}

	r, ok := e.Resolve(schedules, at(2025, 1, 2, 3, 0), town)
	require.True(t, ok)
	assert.Equal(t, models.FullDay, r.Span)
	assert.Equal(t, "Farmacia Dos", r.Pharmacies()[0].Name)

	_, ok = e.Resolve(schedules, at(2025, 1, 3, 3, 0), town)
	assert.False(t, ok)

	t.Run("pattern comes from the data, not the region", func(t *testing.T) {
		capital, _ := models.LookupRegion(string(models.RegionCapital))
		r, ok := e.Resolve(schedules, at(2025, 1, 1, 23, 0), capital)
		require.True(t, ok)
		assert.Equal(t, models.FullDay, r.Span)
	})

	t.Run("empty schedule list", func(t *testing.T) {
		_, ok := e.Resolve(nil, at(2025, 1, 1, 12, 0), town)
		assert.False(t, ok)
	})
}

func TestResolveInLocation(t *testing.T) {
	madrid := time.FixedZone("CET", 3600)
	e := NewEngine(madrid)
	capital, _ := models.LookupRegion(string(models.RegionCapital))

	// 09:30 UTC is 10:30 in CET, inside the day shift of 2 January.
	r, ok := e.Resolve(capitalRows(), at(2025, 1, 2, 9, 30), capital)
	require.True(t, ok)
	assert.Equal(t, models.CapitalDay, r.Span)
	assert.Equal(t, 2, r.Schedule.Date.Day)
}

func TestOnDuty(t *testing.T) {
	daytime := models.TimeRange{Open: models.Clock(10, 0), Close: models.Clock(22, 0)}
	schedule := models.NewFullDaySchedule(date(1, time.January, 2025),
		models.Pharmacy{Name: "Abierta siempre"},
		models.Pharmacy{Name: "Diurna", OperatingHours: &daytime},
	)
	r := Resolution{Schedule: schedule, Span: models.FullDay}

	assert.Len(t, r.OnDuty(at(2025, 1, 1, 12, 0)), 2)

	night := r.OnDuty(at(2025, 1, 1, 23, 0))
	require.Len(t, night, 1)
	assert.Equal(t, "Abierta siempre", night[0].Name)

	assert.Empty(t, FilterOpen(r.Pharmacies(), at(2025, 1, 1, 23, 0), models.AssumeClosedOutsideStated))
}

func TestFindZone(t *testing.T) {
	e := NewEngine(time.UTC)
	schedules := []models.PharmacySchedule{
		models.NewZoneSchedule(date(1, time.January, 2025), []models.ZoneDuty{
			{ZoneID: "ZBS Norte", Pharmacies: pharmacies("Farmacia A")},
			{ZoneID: "ZBS Sur", Pharmacies: []models.Pharmacy{}},
		}),
	}

	north, err := e.FindZone(schedules, at(2025, 1, 1, 12, 0), "zbs norte")
	require.NoError(t, err)
	assert.Equal(t, "Farmacia A", north[0].Name)

	south, err := e.FindZone(schedules, at(2025, 1, 1, 12, 0), "ZBS Sur")
	require.NoError(t, err)
	assert.NotNil(t, south)
	assert.Empty(t, south)

	_, err = e.FindZone(schedules, at(2025, 1, 2, 12, 0), "ZBS Sur")
	assert.True(t, errors.Is(err, ErrDateNotFound))

	_, err = e.FindZone(schedules, at(2025, 1, 1, 12, 0), "ZBS Este")
	assert.True(t, errors.Is(err, ErrZoneNotFound))
}

func TestNextChange(t *testing.T) {
	e := NewEngine(time.UTC)
	tests := []struct {
		from time.Time
		want time.Time
	}{
		{at(2025, 1, 1, 9, 0), at(2025, 1, 1, 10, 15)},
		{at(2025, 1, 1, 10, 15), at(2025, 1, 1, 22, 0)},
		{at(2025, 1, 1, 22, 0), at(2025, 1, 2, 10, 15)},
		{at(2025, 1, 1, 23, 59), at(2025, 1, 2, 10, 15)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.NextChange(tt.from, models.PatternSplit), tt.from)
	}
	assert.Equal(t, at(2025, 1, 2, 0, 0), e.NextChange(at(2025, 1, 1, 15, 0), models.PatternSingle))
}
