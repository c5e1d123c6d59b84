package cmd

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardia/internal/logger"
	"guardia/internal/resolve"
	"guardia/internal/schedule"
	"guardia/pkg/models"
	"guardia/pkg/services"
)

func TestParseInstant(t *testing.T) {
	cet := time.FixedZone("CET", 3600)

	got, err := parseInstant("2025-01-02 08:30", cet)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 2, 8, 30, 0, 0, cet).Equal(got))

	got, err = parseInstant("2025-01-02T07:30:00Z", cet)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())

	_, err = parseInstant("mañana", cet)
	assert.Error(t, err)
}

func TestPrintAnswer(t *testing.T) {
	region, err := models.LookupRegion("segovia-capital")
	require.NoError(t, err)

	hours := models.TimeRange{Open: models.Clock(10, 0), Close: models.Clock(22, 0)}
	answer := &services.DutyAnswer{
		At:         time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC),
		Found:      true,
		Date:       "01-ene-2025",
		Span:       models.CapitalNight,
		Pharmacies: []models.Pharmacy{{Name: "Farmacia B", Address: "Pza. Mayor 2"}},
		Assigned: []models.Pharmacy{
			{Name: "Farmacia B", Address: "Pza. Mayor 2"},
			{Name: "Farmacia C", OperatingHours: &hours},
		},
		NextChange: time.Date(2025, 1, 2, 10, 15, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	printAnswer(&buf, region, answer)
	out := buf.String()
	assert.Contains(t, out, "01-ene-2025 · Noche")
	assert.Contains(t, out, "Farmacia B")
	assert.Contains(t, out, "Cerradas ahora: Farmacia C")
	assert.Contains(t, out, "02/01 10:15")
}

func TestHandleScheduleError(t *testing.T) {
	region, _ := models.LookupRegion("cuellar")
	log := logger.WithComponent("test")

	err := handleScheduleError(schedule.ErrNoData, region, log)
	assert.Contains(t, err.Error(), "no data available for Cuéllar")

	err = handleScheduleError(resolve.ErrDateNotFound, region, log)
	assert.True(t, errors.Is(err, resolve.ErrDateNotFound))
}

type stubService struct {
	services.ScheduleService
	calls atomic.Int32
}

func (s *stubService) Schedules(_ context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	s.calls.Add(1)
	if region.ID == models.RegionElEspinar {
		return nil, schedule.ErrNoData
	}
	date := models.DutyDate{Year: 2025, Month: time.March, Day: 7}
	return []models.PharmacySchedule{
		models.NewFullDaySchedule(date, models.Pharmacy{Name: "Farmacia " + region.Name}),
	}, nil
}

func TestLoadRegionsInParallel(t *testing.T) {
	svc := &stubService{}
	regions := models.Regions()

	results := loadRegionsInParallel(context.Background(), svc, regions, 3, logger.WithComponent("test"))

	require.Len(t, results, len(regions))
	assert.Equal(t, int32(len(regions)), svc.calls.Load())
	for i, res := range results {
		assert.Equal(t, regions[i].ID, res.Region.ID)
		if res.Region.ID == models.RegionElEspinar {
			assert.ErrorIs(t, res.Error, schedule.ErrNoData)
			continue
		}
		require.NoError(t, res.Error)
		assert.Len(t, res.Schedules, 1)
	}
}

func TestCommandContext(t *testing.T) {
	log := logger.WithComponent("test")

	ctx, cancel := commandContext(0, log)
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
	assert.NoError(t, ctx.Err())
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	ctx, cancel = commandContext(time.Minute, log)
	defer cancel()
	deadline, hasDeadline := ctx.Deadline()
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	assert.NoError(t, ctx.Err())
}
