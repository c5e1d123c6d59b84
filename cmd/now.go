package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"guardia/internal/logger"
	"guardia/pkg/services"
)

var nowCmd = &cobra.Command{
	Use:   "now <region>",
	Short: "Show the pharmacies on duty right now",
	Long: `Show the pharmacies on duty in a region at the current moment, or at --at.

In Segovia capital the answer depends on the shift: from 10:15 to 22:00 the day pharmacy,
otherwise the night pharmacy of the day the shift started. Pharmacies with stated opening
hours are only listed while open. For the rural health zones use --zone to pick one.`,
	Example: `  guardia now segovia-capital
  guardia now segovia-capital --at "2025-01-02 08:30"
  guardia now segovia-rural --zone "ZBS Riaza" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	addFileFlag(nowCmd)
	nowCmd.Flags().String("at", "", "Instant to resolve (RFC 3339 or YYYY-MM-DD HH:MM, default now)")
	nowCmd.Flags().StringP("zone", "z", "", "ZBS zone for the rural calendar")
	nowCmd.Flags().Bool("json", false, "Output as JSON")
	nowCmd.Flags().Duration("timeout", 2*time.Minute, "Download and parse timeout")
}

func runNow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("now")

	atFlag, _ := cmd.Flags().GetString("at")
	zone, _ := cmd.Flags().GetString("zone")
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
	at, err := parseInstant(atFlag, a.engine.Location())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeout, log)
	defer cancel()

	var answer *services.DutyAnswer
	if zone != "" {
		answer, err = a.service.Zone(ctx, region, at, zone)
	} else {
		answer, err = a.service.OnDuty(ctx, region, at)
	}
	if err != nil {
		return handleScheduleError(err, region, log)
	}

	log.Debug().
		Str("region", string(region.ID)).
		Time("at", at).
		Bool("found", answer.Found).
		Int("pharmacies", len(answer.Pharmacies)).
		Msg("Resolved duty")

	if jsonOutput {
		return writeJSON(os.Stdout, answer)
	}
	printAnswer(os.Stdout, region, answer)
	return nil
}
