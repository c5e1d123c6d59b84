package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"guardia/internal/logger"
	"guardia/internal/search"
	"guardia/pkg/models"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find a pharmacy by name or address and list its next duty dates",
	Long: `Search the pharmacies listed in the calendars for an approximate match on name or
address (case and accents are ignored, letters must appear in order) and show the
upcoming dates each one is on duty.

All regions are searched unless --region is given. A region whose calendar cannot be
loaded is skipped with a warning.`,
	Example: `  guardia search "plaza mayor"
  guardia search velasco --region cuellar --limit 3`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// searchWorkers bounds concurrent calendar downloads.
const searchWorkers = 4

func init() {
	rootCmd.AddCommand(searchCmd)

	addFileFlag(searchCmd)
	searchCmd.Flags().StringSliceP("region", "r", nil, "Regions to search (repeatable, default all)")
	searchCmd.Flags().IntP("limit", "n", 10, "Maximum number of pharmacies to show")
	searchCmd.Flags().Int("dates", 5, "Upcoming dates to show per pharmacy")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
	searchCmd.Flags().Duration("timeout", 5*time.Minute, "Overall timeout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("search")

	regionKeys, _ := cmd.Flags().GetStringSlice("region")
	limit, _ := cmd.Flags().GetInt("limit")
	dates, _ := cmd.Flags().GetInt("dates")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var regions []models.Region
	if len(regionKeys) == 0 {
		regions = a.cfg.Regions()
	}
	for _, key := range regionKeys {
		r, err := a.region(key)
		if err != nil {
			return err
		}
		regions = append(regions, r)
	}

	ctx, cancel := commandContext(timeout, log)
	defer cancel()

	index := search.NewIndex()
	for _, res := range loadRegionsInParallel(ctx, a.service, regions, searchWorkers, log) {
		if res.Error != nil {
			if ctx.Err() != nil {
				return handleScheduleError(res.Error, res.Region, log)
			}
			log.Warn().Err(res.Error).Str("region", string(res.Region.ID)).Msg("Skipping region")
			continue
		}
		index.Add(res.Region.ID, res.Schedules)
	}

	now := time.Now().In(a.engine.Location())
	matches := index.Search(args[0], now, limit)
	for i := range matches {
		if dates > 0 && len(matches[i].Upcoming) > dates {
			matches[i].Upcoming = matches[i].Upcoming[:dates]
		}
	}

	log.Debug().
		Str("query", args[0]).
		Int("indexed", index.Len()).
		Int("matches", len(matches)).
		Msg("Search completed")

	if jsonOutput {
		return writeJSON(os.Stdout, matches)
	}
	if len(matches) == 0 {
		fmt.Printf("No pharmacy matches %q\n", args[0])
		return nil
	}
	for _, m := range matches {
		printPharmacy(os.Stdout, "", m.Entry.Pharmacy)
		fmt.Printf("   %s\n", m.Entry.Region)
		if len(m.Upcoming) == 0 {
			fmt.Println("   (sin guardias próximas)")
		}
		for _, d := range m.Upcoming {
			label := d.Span.Label()
			if d.Zone != "" {
				label = d.Zone
			}
			fmt.Printf("   📅 %s · %s\n", d.Date.Long(), label)
		}
	}
	return nil
}
