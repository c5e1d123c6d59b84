package services

import (
	"context"
	"time"

	"guardia/pkg/models"
)

// ScheduleService answers duty questions for a region from its published calendar
type ScheduleService interface {
	// Schedules returns every dated entry of the region's calendar in document order
	Schedules(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error)

	// OnDuty returns the pharmacies on duty at the given instant
	OnDuty(ctx context.Context, region models.Region, at time.Time) (*DutyAnswer, error)

	// Zone returns the pharmacies of one ZBS zone on the calendar day of at
	Zone(ctx context.Context, region models.Region, at time.Time, zoneID string) (*DutyAnswer, error)

	// Day returns the entry for a calendar day
	Day(ctx context.Context, region models.Region, day time.Time) (*models.PharmacySchedule, error)

	// Refresh reloads the calendar, keeping the previous one if the reload fails
	Refresh(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error)
}

// DutyAnswer is the outcome of an on-duty query
type DutyAnswer struct {
	Region     models.RegionID     `json:"region"`
	At         time.Time           `json:"at"`
	Found      bool                `json:"found"`                 // false when nobody is on duty
	Date       string              `json:"date,omitempty"`        // owning calendar day, dd-mon-yyyy
	Span       models.DutyTimeSpan `json:"span"`                  // active shift window
	Zone       string              `json:"zone,omitempty"`        // ZBS zone when asked for one
	Pharmacies []models.Pharmacy   `json:"pharmacies"`            // open at At under the default hours policy
	Assigned   []models.Pharmacy   `json:"assigned,omitempty"`    // everyone listed for the window
	NextChange time.Time           `json:"next_change,omitempty"` // next shift boundary
}
