package schedule

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"guardia/internal/document"
	"guardia/internal/extract"
	"guardia/internal/layout"
	"guardia/internal/logger"
	"guardia/pkg/models"
)

// DocumentLoader fetches a region's PDF from a document store and runs the region's
// strategy over it.
type DocumentLoader struct {
	store    document.Store
	registry *extract.Registry
	log      zerolog.Logger
}

// NewDocumentLoader returns a loader reading documents from store.
func NewDocumentLoader(store document.Store, registry *extract.Registry) *DocumentLoader {
	return &DocumentLoader{
		store:    store,
		registry: registry,
		log:      logger.WithComponent("loader"),
	}
}

// Load implements Loader.
func (l *DocumentLoader) Load(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	report, _, err := l.Extract(ctx, region)
	if err != nil {
		return nil, err
	}
	return report.Schedules, nil
}

// Extract returns the full extraction report and the document it was read from.
func (l *DocumentLoader) Extract(ctx context.Context, region models.Region) (*extract.Report, *document.Handle, error) {
	const op = "DocumentLoader.Extract"

	strategy, err := l.registry.Strategy(region.ID)
	if err != nil {
		return nil, nil, err
	}

	handle, err := l.store.EffectiveDocument(ctx, region)
	if err != nil {
		return nil, nil, err
	}
	if !handle.Fresh {
		l.log.Warn().
			Str("region", string(region.ID)).
			Str("path", handle.Path).
			Msg("Using a cached document that could not be checked for updates")
	}

	doc, err := layout.Open(handle.Path)
	if err != nil {
		return nil, handle, fmt.Errorf("%s: %w", op, err)
	}

	report, err := strategy.Extract(doc)
	if err != nil {
		return nil, handle, err
	}
	return report, handle, nil
}
