package cmd

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"guardia/pkg/models"
	"guardia/pkg/services"
)

// regionResult is the outcome of loading one region's calendar.
type regionResult struct {
	Region    models.Region
	Schedules []models.PharmacySchedule
	Error     error
}

// loadRegionsInParallel loads every region's calendar with a small worker pool. Results
// keep the order of regions.
func loadRegionsInParallel(ctx context.Context, svc services.ScheduleService, regions []models.Region, numWorkers int, log zerolog.Logger) []regionResult {
	if numWorkers < 1 {
		numWorkers = 1
	}

	type job struct {
		index  int
		region models.Region
	}
	jobs := make(chan job, len(regions))
	results := make([]regionResult, len(regions))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("region", string(j.region.ID)).
					Msg("Worker loading calendar")

				schedules, err := svc.Schedules(ctx, j.region)
				results[j.index] = regionResult{Region: j.region, Schedules: schedules, Error: err}
			}
		}(w)
	}

	for i, r := range regions {
		jobs <- job{index: i, region: r}
	}
	close(jobs)
	wg.Wait()

	return results
}
