package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"guardia/internal/logger"
	"guardia/internal/schedule"
	"guardia/pkg/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch <region>",
	Short: "Print the pharmacy on duty at every shift change",
	Long: `Run until interrupted, printing the pharmacies on duty now and again at every shift
boundary (10:15 and 22:00, plus midnight for regions with one pharmacy per day).

The calendar is kept in memory and reloaded after each boundary, so a republished
calendar is picked up within one shift. With --metrics-addr, Prometheus metrics about
extraction, the cache and downloads are served on /metrics.`,
	Example: `  guardia watch segovia-capital
  guardia watch cuellar --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

// midnightSpec marks the day change of single-shift regions.
const midnightSpec = "0 0 * * *"

func init() {
	rootCmd.AddCommand(watchCmd)

	addFileFlag(watchCmd)
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	watchCmd.Flags().Bool("json", false, "Print each answer as JSON")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("watch")

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	region, err := a.region(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(0, log)
	defer cancel()

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, log)
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	report := func() {
		loadCtx, stop := context.WithTimeout(ctx, a.cfg.LoadTimeout)
		defer stop()

		at := time.Now().In(a.engine.Location())
		answer, err := a.service.OnDuty(loadCtx, region, at)
		if err != nil {
			_ = handleScheduleError(err, region, log)
			return
		}
		if jsonOutput {
			_ = writeJSON(os.Stdout, answer)
			return
		}
		printAnswer(os.Stdout, region, answer)
	}

	specs := schedule.BoundarySpecs()
	if region.Pattern != models.PatternSplit {
		specs = append(specs, midnightSpec)
	}

	c := cron.New(
		cron.WithLocation(a.engine.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	for _, spec := range specs {
		// Runs just after the cache's own eviction at the same instant.
		if _, err := c.AddFunc(spec, func() {
			time.Sleep(time.Second)
			report()
		}); err != nil {
			return err
		}
	}

	log.Info().
		Str("region", string(region.ID)).
		Strs("boundaries", specs).
		Str("metrics_addr", metricsAddr).
		Msg("Watching duty changes")

	report()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	log.Info().Msg("Watch stopped")
	return nil
}

func serveMetrics(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}
