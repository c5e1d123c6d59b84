// Package schedule keeps parsed calendars in memory and answers duty queries from them.
//
// A Cache holds one schedule list per region. Lists are loaded on first use and dropped
// at the next shift boundary (10:15 or 22:00), so a long-running process picks up a
// republished calendar at most one shift late. Concurrent misses for a region share a
// single load.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"guardia/internal/logger"
	"guardia/internal/metrics"
	"guardia/pkg/models"
)

// ErrNoData is returned when a region's calendar yields no schedules.
var ErrNoData = errors.New("no data available")

// ErrClosed is returned by a cache after Close.
var ErrClosed = errors.New("schedule cache closed")

// Loader produces the schedule list of a region.
type Loader interface {
	Load(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	return f(ctx, region)
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	Clock       Clock
	Location    *time.Location
	LoadTimeout time.Duration // zero means no limit
}

type entry struct {
	schedules  []models.PharmacySchedule
	loadedAt   time.Time
	expiresAt  time.Time
	timer      Timer
	generation uint64
}

// Cache holds parsed schedule lists per region.
type Cache struct {
	loader      Loader
	clock       Clock
	loc         *time.Location
	loadTimeout time.Duration
	log         zerolog.Logger

	group singleflight.Group

	mu          sync.Mutex
	entries     map[models.RegionID]*entry
	generation  uint64
	invalidated map[models.RegionID]uint64 // generation at the last Invalidate
	closed      bool
}

// NewCache returns an empty cache loading through loader.
func NewCache(loader Loader, opts CacheOptions) *Cache {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Cache{
		loader:      loader,
		clock:       opts.Clock,
		loc:         opts.Location,
		loadTimeout: opts.LoadTimeout,
		log:         logger.WithComponent("cache"),
		entries:     make(map[models.RegionID]*entry),
		invalidated: make(map[models.RegionID]uint64),
	}
}

// NextBoundary returns the next eviction instant after now.
func (c *Cache) NextBoundary(now time.Time) time.Time {
	return NextBoundary(now, c.loc)
}

// Get returns the cached list for region, loading it on a miss. A failed or empty load
// is not cached and returns a nil list with the error.
func (c *Cache) Get(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	if schedules, ok := c.Cached(region.ID); ok {
		metrics.CacheLookups.WithLabelValues(string(region.ID), "hit").Inc()
		return schedules, nil
	}
	metrics.CacheLookups.WithLabelValues(string(region.ID), "miss").Inc()
	return c.load(ctx, region)
}

// Cached returns the stored list without loading.
func (c *Cache) Cached(region models.RegionID) ([]models.PharmacySchedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[region]
	if !ok {
		return nil, false
	}
	return e.schedules, true
}

// ExpiresAt returns when the stored list for region will be dropped.
func (c *Cache) ExpiresAt(region models.RegionID) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[region]
	if !ok {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// Invalidate drops the stored list for region. A load already in flight still answers
// its callers but does not repopulate the cache.
func (c *Cache) Invalidate(region models.RegionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.invalidated[region] = c.generation
	c.evictLocked(region, "invalidate")
}

// ForceRefresh loads region again regardless of what is stored. On failure the stored
// list, if any, is kept and returned together with the error.
func (c *Cache) ForceRefresh(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	previous, _ := c.Cached(region.ID)

	c.group.Forget(string(region.ID))
	schedules, err := c.load(ctx, region)
	if err != nil {
		c.log.Warn().
			Err(err).
			Str("region", string(region.ID)).
			Int("kept", len(previous)).
			Msg("Refresh failed, keeping previous schedules")
		return previous, err
	}
	metrics.CacheEvictions.WithLabelValues(string(region.ID), "refresh").Inc()
	return schedules, nil
}

// Close stops every pending eviction and empties the cache.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		metrics.SchedulesLoaded.DeleteLabelValues(string(id))
	}
	c.entries = make(map[models.RegionID]*entry)
	c.closed = true
}

func (c *Cache) load(ctx context.Context, region models.Region) ([]models.PharmacySchedule, error) {
	const op = "Cache.load"

	ch := c.group.DoChan(string(region.ID), func() (any, error) {
		// Shared by every waiting caller: never cancelled by the first one.
		loadCtx := context.WithoutCancel(ctx)
		if c.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, c.loadTimeout)
			defer cancel()
		}

		startGen := c.currentGeneration()
		start := c.clock.Now()
		schedules, err := c.loader.Load(loadCtx, region)
		if err != nil {
			return nil, err
		}
		if len(schedules) == 0 {
			return nil, ErrNoData
		}
		stored, err := c.store(region.ID, schedules, startGen)
		if err != nil {
			return nil, err
		}
		if !stored {
			c.log.Debug().
				Str("region", string(region.ID)).
				Msg("Region invalidated during load, result not cached")
		}
		c.log.Info().
			Str("region", string(region.ID)).
			Int("schedules", len(schedules)).
			Dur("took", c.clock.Now().Sub(start)).
			Msg("Schedules loaded")
		return schedules, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%s %s: %w", op, region.ID, res.Err)
		}
		return res.Val.([]models.PharmacySchedule), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// store keeps schedules unless region was invalidated after the load began at startGen.
func (c *Cache) store(region models.RegionID, schedules []models.PharmacySchedule, startGen uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	if c.invalidated[region] > startGen {
		return false, nil
	}

	if old, ok := c.entries[region]; ok && old.timer != nil {
		old.timer.Stop()
	}

	c.generation++
	gen := c.generation
	now := c.clock.Now()
	expires := c.NextBoundary(now)

	c.entries[region] = &entry{
		schedules:  schedules,
		loadedAt:   now,
		expiresAt:  expires,
		generation: gen,
		timer: c.clock.AfterFunc(expires.Sub(now), func() {
			c.expire(region, gen)
		}),
	}
	metrics.SchedulesLoaded.WithLabelValues(string(region)).Set(float64(len(schedules)))
	return true, nil
}

// expire drops region if it still holds the generation the timer was armed for.
func (c *Cache) expire(region models.RegionID, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[region]
	if !ok || e.generation != gen {
		return
	}
	c.evictLocked(region, "boundary")
}

func (c *Cache) evictLocked(region models.RegionID, cause string) {
	e, ok := c.entries[region]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(c.entries, region)
	metrics.SchedulesLoaded.DeleteLabelValues(string(region))
	metrics.CacheEvictions.WithLabelValues(string(region), cause).Inc()
	c.log.Debug().
		Str("region", string(region)).
		Str("cause", cause).
		Time("loaded_at", e.loadedAt).
		Msg("Schedules evicted")
}
