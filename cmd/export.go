package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"guardia/internal/export"
	"guardia/internal/logger"
)

var exportCmd = &cobra.Command{
	Use:   "export <region>",
	Short: "Export a region's calendar as XLSX or CSV",
	Long: `Write one row per assigned pharmacy (date, shift, zone, name, address, phone, hours)
to a spreadsheet. The format follows the extension of --output: .xlsx or .csv. Without
--output the CSV is written to stdout.`,
	Example: `  guardia export segovia-capital -o capital.xlsx
  guardia export segovia-rural > rural.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addFileFlag(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Output file (.xlsx or .csv, default CSV on stdout)")
	exportCmd.Flags().Duration("timeout", 2*time.Minute, "Download and parse timeout")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	outputPath, _ := cmd.Flags().GetString("output")
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

	schedules, err := a.service.Schedules(ctx, region)
	if err != nil {
		return handleScheduleError(err, region, log)
	}
	rows := export.Rows(schedules)

	if outputPath == "" {
		return export.WriteCSV(os.Stdout, rows)
	}
	if err := export.WriteFile(outputPath, rows); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write export")
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("rows", len(rows)).
		Msg("Calendar exported")
	fmt.Printf("✅ %d rows written to %s\n", len(rows), outputPath)
	return nil
}
