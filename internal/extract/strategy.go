// Package extract turns the pages of a regional duty calendar into dated schedules.
//
// Every region publishes its calendar with a different layout, so each one is parsed by
// its own Strategy. Strategies are looked up by region in a Registry that is built once
// and handed to whoever needs it:
//
//	reg := extract.NewRegistry(extract.DefaultOptions())
//	strategy, err := reg.Strategy(models.RegionCapital)
//	schedules, err := strategy.Parse(doc)
//
// A row that cannot be read is dropped, logged and counted; it never fails the whole
// document. A document that yields no rows at all fails with ErrNoSchedules.
package extract

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"guardia/internal/layout"
	"guardia/internal/logger"
	"guardia/internal/metrics"
	"guardia/pkg/models"
)

// Strategy parses the calendar document of one region.
type Strategy interface {
	// Region returns the region the strategy is configured for.
	Region() models.RegionID

	// Parse returns the dated schedules of doc in document order.
	Parse(doc *layout.Document) ([]models.PharmacySchedule, error)

	// Extract is Parse plus the diagnostics collected while reading.
	Extract(doc *layout.Document) (*Report, error)
}

// Skip reasons used in reports and metrics.
const (
	ReasonBadDate      = "bad_date"
	ReasonNoPharmacy   = "no_pharmacy"
	ReasonBandMismatch = "band_mismatch"
	ReasonUnknownCode  = "unknown_code"
	ReasonBadRange     = "bad_range"
)

// SkippedRow is a table row that was dropped.
type SkippedRow struct {
	Page   int    `json:"page"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Warning is a data-quality problem that did not drop a row.
type Warning struct {
	Page    int    `json:"page"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Report is the outcome of extracting one document.
type Report struct {
	Region    models.RegionID           `json:"region"`
	Schedules []models.PharmacySchedule `json:"schedules"`
	Skipped   []SkippedRow              `json:"skipped,omitempty"`
	Warnings  []Warning                 `json:"warnings,omitempty"`
}

// Options configures the strategies of a Registry.
type Options struct {
	// Now supplies the current time, which seeds year inference.
	Now func() time.Time

	// Columns tunes the column extractor used by the capital strategy.
	Columns layout.ColumnOptions

	// Codes maps town pharmacy codes to pharmacies. Missing regions use the built-in tables.
	Codes map[models.RegionID]CodeTable

	// ZoneNames are used when the rural header row cannot be read.
	ZoneNames []string
}

// DefaultOptions returns options using the wall clock and the built-in code tables.
func DefaultOptions() Options {
	return Options{
		Now:     time.Now,
		Columns: layout.DefaultColumnOptions(),
	}
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Registry maps regions to their strategies.
type Registry struct {
	strategies map[models.RegionID]Strategy
}

// NewRegistry builds the strategy of every served region.
func NewRegistry(opts Options) *Registry {
	r := &Registry{strategies: make(map[models.RegionID]Strategy)}
	r.Register(NewCapitalStrategy(opts))
	r.Register(NewTownStrategy(models.RegionCuellar, opts))
	r.Register(NewTownStrategy(models.RegionElEspinar, opts))
	r.Register(NewZoneStrategy(opts))
	return r
}

// Register adds or replaces the strategy for s.Region().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Region()] = s
}

// Strategy returns the strategy for region.
func (r *Registry) Strategy(region models.RegionID) (Strategy, error) {
	s, ok := r.strategies[region]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	return s, nil
}

// recorder collects schedules and diagnostics while a strategy reads a document.
type recorder struct {
	report *Report
	log    zerolog.Logger
}

func newRecorder(region models.RegionID) *recorder {
	return &recorder{
		report: &Report{Region: region},
		log:    logger.WithRegion("extract", string(region)),
	}
}

func (r *recorder) add(s models.PharmacySchedule) {
	r.report.Schedules = append(r.report.Schedules, s)
}

func (r *recorder) skip(page int, text, reason string) {
	r.report.Skipped = append(r.report.Skipped, SkippedRow{Page: page, Text: text, Reason: reason})
	metrics.RowsSkipped.WithLabelValues(string(r.report.Region), reason).Inc()
	r.log.Warn().
		Int("page", page).
		Str("row", text).
		Str("reason", reason).
		Msg("Skipping unreadable row")
}

func (r *recorder) warn(page int, reason, msg string) {
	r.report.Warnings = append(r.report.Warnings, Warning{Page: page, Reason: reason, Message: msg})
	metrics.ExtractWarnings.WithLabelValues(string(r.report.Region), reason).Inc()
	r.log.Warn().
		Int("page", page).
		Str("reason", reason).
		Msg(msg)
}

// finish returns the report, or ErrNoSchedules when nothing was read.
func (r *recorder) finish(op string) (*Report, error) {
	if len(r.report.Schedules) == 0 {
		return nil, WrapExtractError(op, r.report.Region, ErrNoSchedules,
			fmt.Sprintf("%d rows skipped", len(r.report.Skipped)))
	}
	r.log.Debug().
		Int("schedules", len(r.report.Schedules)).
		Int("skipped", len(r.report.Skipped)).
		Int("warnings", len(r.report.Warnings)).
		Msg("Document extracted")
	return r.report, nil
}

func parseWith(s Strategy, doc *layout.Document) ([]models.PharmacySchedule, error) {
	report, err := s.Extract(doc)
	if err != nil {
		return nil, err
	}
	return report.Schedules, nil
}
