package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"guardia/internal/extract"
	"guardia/internal/logger"
)

var parseCmd = &cobra.Command{
	Use:   "parse <region>",
	Short: "Extract and print the full duty calendar of a region",
	Long: `Download (or read with --file) the calendar of a region and print every dated entry
it contains, followed by the rows that could not be read.

Use this command to check a newly published calendar before relying on it.`,
	Example: `  # Print the capital calendar
  guardia parse segovia-capital

  # Parse a local copy and dump everything as JSON
  guardia parse cuellar --file ./cuellar-2025.pdf --json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

// ParseOutput is the JSON shape of the parse command.
type ParseOutput struct {
	*extract.Report
	Document string `json:"document"`
	Fresh    bool   `json:"fresh"`
}

func init() {
	rootCmd.AddCommand(parseCmd)

	addFileFlag(parseCmd)
	parseCmd.Flags().Bool("json", false, "Output as JSON")
	parseCmd.Flags().BoolP("verbose", "v", false, "List every skipped row and warning")
	parseCmd.Flags().Duration("timeout", 2*time.Minute, "Download and parse timeout")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("parse")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	region, err := a.region(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeout, log)
	defer cancel()

	start := time.Now()
	report, handle, err := a.loader.Extract(ctx, region)
	if err != nil {
		return handleScheduleError(err, region, log)
	}

	log.Info().
		Str("region", string(region.ID)).
		Int("schedules", len(report.Schedules)).
		Int("skipped", len(report.Skipped)).
		Dur("duration", time.Since(start)).
		Msg("Calendar parsed")

	if jsonOutput {
		return writeJSON(os.Stdout, ParseOutput{Report: report, Document: handle.Path, Fresh: handle.Fresh})
	}

	for _, s := range report.Schedules {
		printSchedule(os.Stdout, s)
	}

	fmt.Printf("\n%d entries, %d rows skipped, %d warnings\n", len(report.Schedules), len(report.Skipped), len(report.Warnings))
	if !handle.Fresh {
		fmt.Println("⚠️  The calendar could not be checked for updates; showing the cached copy.")
	}
	if verbose {
		for _, s := range report.Skipped {
			fmt.Printf("  skipped p%d [%s] %q\n", s.Page, s.Reason, s.Text)
		}
		for _, w := range report.Warnings {
			fmt.Printf("  warning p%d [%s] %s\n", w.Page, w.Reason, w.Message)
		}
	}
	return nil
}
