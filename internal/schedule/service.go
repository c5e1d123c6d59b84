package schedule

import (
	"context"
	"fmt"
	"time"

	"guardia/internal/resolve"
	"guardia/pkg/models"
	"guardia/pkg/services"
)

// Service answers duty queries from a Cache.
type Service struct {
	cache  *Cache
	engine *resolve.Engine
}

// NewService returns a service resolving instants with engine.
func NewService(cache *Cache, engine *resolve.Engine) *Service {
	return &Service{cache: cache, engine: engine}
}

var _ services.ScheduleService = (*Service)(nil)

// Schedules implements services.ScheduleService.
func (s *Service) Schedules(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	return s.cache.Get(ctx, region)
}

// OnDuty implements services.ScheduleService.
func (s *Service) OnDuty(ctx context.Context, region models.Region, at time.Time) (*services.DutyAnswer, error) {
	schedules, err := s.cache.Get(ctx, region)
	if err != nil {
		return nil, err
	}

	answer := &services.DutyAnswer{
		Region:     region.ID,
		At:         at,
		Pharmacies: []models.Pharmacy{},
		NextChange: s.engine.NextChange(at, resolve.PatternOf(schedules, region)),
	}
	r, ok := s.engine.Resolve(schedules, at, region)
	if !ok {
		return answer, nil
	}
	answer.Found = true
	answer.Date = r.Schedule.Date.Format()
	answer.Span = r.Span
	answer.Assigned = r.Pharmacies()
	answer.Pharmacies = r.OnDuty(at)
	return answer, nil
}

// Zone implements services.ScheduleService.
func (s *Service) Zone(ctx context.Context, region models.Region, at time.Time, zoneID string) (*services.DutyAnswer, error) {
	schedules, err := s.cache.Get(ctx, region)
	if err != nil {
		return nil, err
	}
	pharmacies, err := s.engine.FindZone(schedules, at, zoneID)
	if err != nil {
		return nil, err
	}
	return &services.DutyAnswer{
		Region:     region.ID,
		At:         at,
		Found:      len(pharmacies) > 0,
		Date:       models.NewDutyDate(at.In(s.engine.Location())).Format(),
		Span:       models.FullDay,
		Zone:       zoneID,
		Pharmacies: pharmacies,
		Assigned:   pharmacies,
		NextChange: s.engine.NextChange(at, models.PatternSingle),
	}, nil
}

// Day implements services.ScheduleService.
func (s *Service) Day(ctx context.Context, region models.Region, day time.Time) (*models.PharmacySchedule, error) {
	schedules, err := s.cache.Get(ctx, region)
	if err != nil {
		return nil, err
	}
	entry, ok := s.engine.FindSchedule(schedules, day)
	if !ok {
		return nil, fmt.Errorf("%w: %s", resolve.ErrDateNotFound, models.NewDutyDate(day.In(s.engine.Location())).Format())
	}
	return &entry, nil
}

// Refresh implements services.ScheduleService.
func (s *Service) Refresh(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	return s.cache.ForceRefresh(ctx, region)
}
