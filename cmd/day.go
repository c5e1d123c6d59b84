package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"guardia/internal/logger"
)

var dayCmd = &cobra.Command{
	Use:   "day <region>",
	Short: "Show the calendar entry for one day",
	Long: `Show every shift and pharmacy listed for a calendar day. Unlike "now", opening hours
are not applied: the entry is printed as published.`,
	Example: `  guardia day segovia-capital --date 2025-01-06
  guardia day el-espinar --date 2025-08-15 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDay,
}

func init() {
	rootCmd.AddCommand(dayCmd)

	addFileFlag(dayCmd)
	dayCmd.Flags().StringP("date", "d", "", "Day to look up (YYYY-MM-DD, default today)")
	dayCmd.Flags().Bool("json", false, "Output as JSON")
	dayCmd.Flags().Duration("timeout", 2*time.Minute, "Download and parse timeout")
}

func runDay(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("day")

	dateFlag, _ := cmd.Flags().GetString("date")
	jsonOutput, _ := cmd.Flags().GetBool("json")
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

	day := time.Now().In(a.engine.Location())
	if dateFlag != "" {
		day, err = time.ParseInLocation("2006-01-02", dateFlag, a.engine.Location())
		if err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", dateFlag)
		}
	}

	ctx, cancel := commandContext(timeout, log)
	defer cancel()

	entry, err := a.service.Day(ctx, region, day)
	if err != nil {
		return handleScheduleError(err, region, log)
	}

	if jsonOutput {
		return writeJSON(os.Stdout, entry)
	}
	fmt.Println(region.Name)
	printSchedule(os.Stdout, *entry)
	return nil
}
