package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"guardia/internal/config"
	"guardia/internal/document"
	"guardia/internal/extract"
	"guardia/internal/layout"
	"guardia/internal/resolve"
	"guardia/internal/schedule"
	"guardia/pkg/models"
)

// app wires the document store, strategies, cache and resolver for one command run.
type app struct {
	cfg     *config.Config
	loader  *schedule.DocumentLoader
	cache   *schedule.Cache
	service *schedule.Service
	engine  *resolve.Engine
}

func addFileFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Read the calendar from a local PDF instead of downloading it")
}

func newApp(cmd *cobra.Command, log zerolog.Logger) (*app, error) {
	cfg, err := appConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	store, err := newStore(cmd, cfg)
	if err != nil {
		return nil, err
	}

	opts := extract.DefaultOptions()
	opts.Columns.DateColumnRatio = cfg.DateColumnRatio
	opts.ZoneNames = cfg.ZoneNames
	if cfg.CodesFile != "" {
		codes, err := loadCodes(cfg.CodesFile)
		if err != nil {
			return nil, err
		}
		opts.Codes = codes
		log.Debug().
			Str("file", cfg.CodesFile).
			Int("regions", len(codes)).
			Msg("Loaded pharmacy code tables")
	}

	loader := schedule.NewDocumentLoader(store, extract.NewRegistry(opts))
	engine := resolve.NewEngine(cfg.Location())
	cache := schedule.NewCache(loader, schedule.CacheOptions{
		Location:    cfg.Location(),
		LoadTimeout: cfg.LoadTimeout,
	})

	return &app{
		cfg:     cfg,
		loader:  loader,
		cache:   cache,
		service: schedule.NewService(cache, engine),
		engine:  engine,
	}, nil
}

func (a *app) Close() {
	a.cache.Close()
}

func (a *app) region(key string) (models.Region, error) {
	return a.cfg.Region(key)
}

func newStore(cmd *cobra.Command, cfg *config.Config) (document.Store, error) {
	if f := cmd.Flags().Lookup("file"); f != nil && f.Value.String() != "" {
		return document.NewFileStore(f.Value.String()), nil
	}
	return document.NewHTTPStore(document.Options{
		Dir:       cfg.CacheDir,
		Client:    &http.Client{Timeout: cfg.HTTPTimeout},
		RPS:       cfg.DownloadRPS,
		UserAgent: cfg.UserAgent,
	})
}

func loadCodes(path string) (map[models.RegionID]extract.CodeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open code tables: %w", err)
	}
	defer f.Close()

	codes, err := extract.LoadCodeTables(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read code tables %s: %w", path, err)
	}
	return codes, nil
}

// commandContext returns a context cancelled on SIGINT/SIGTERM or after timeout. A zero
// timeout never expires.
func commandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// parseInstant accepts RFC 3339 or "2006-01-02 15:04" in loc. Empty means now.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, format := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected RFC 3339 or YYYY-MM-DD HH:MM", s)
}

// handleScheduleError turns load and lookup failures into messages for the terminal.
func handleScheduleError(err error, region models.Region, log zerolog.Logger) error {
	log.Error().Err(err).Str("region", string(region.ID)).Msg("Schedule lookup failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("timed out loading the calendar of %s", region.Name)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("canceled")
	case errors.Is(err, schedule.ErrNoData), errors.Is(err, extract.ErrNoSchedules), errors.Is(err, extract.ErrNoTable):
		return fmt.Errorf("no data available for %s: the calendar contains no readable duty rows", region.Name)
	case errors.Is(err, document.ErrNoDocument), errors.Is(err, document.ErrBadStatus), errors.Is(err, document.ErrNotPDF):
		return fmt.Errorf("no data available for %s: the calendar could not be downloaded (%v)", region.Name, err)
	case errors.Is(err, layout.ErrUnreadable):
		return fmt.Errorf("the calendar of %s is not a readable PDF: %w", region.Name, err)
	case errors.Is(err, resolve.ErrDateNotFound), errors.Is(err, resolve.ErrZoneNotFound):
		return err
	default:
		return fmt.Errorf("failed to load the calendar of %s: %w", region.Name, err)
	}
}
