package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"guardia/internal/export"
	"guardia/internal/logger"
	"guardia/internal/sheets"
)

var publishCmd = &cobra.Command{
	Use:   "publish <region>",
	Short: "Publish a region's calendar to a Google Sheet",
	Long: `Write the calendar of a region to a worksheet of a Google spreadsheet, one row per
assigned pharmacy. The worksheet is created with a header row if missing. By default
previous rows are replaced; use --append to keep them.

Required environment variables:
  GOOGLE_SHEET_URL - URL of the target spreadsheet (or --sheet)
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  guardia publish segovia-capital
  guardia publish cuellar --worksheet Cuellar --append
  guardia publish segovia-rural --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	addFileFlag(publishCmd)
	publishCmd.Flags().String("sheet", "", "Spreadsheet URL (default GOOGLE_SHEET_URL)")
	publishCmd.Flags().StringP("worksheet", "w", "", "Worksheet name (default GOOGLE_SHEET_WORKSHEET)")
	publishCmd.Flags().Bool("append", false, "Append rows instead of replacing the worksheet contents")
	publishCmd.Flags().Bool("dry-run", false, "Parse and count rows without writing to the sheet")
	publishCmd.Flags().Duration("timeout", 3*time.Minute, "Overall timeout")
}

func runPublish(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("publish")

	sheetURL, _ := cmd.Flags().GetString("sheet")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	appendRows, _ := cmd.Flags().GetBool("append")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
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
	if sheetURL == "" {
		sheetURL = a.cfg.GoogleSheetURL
	}
	if worksheet == "" {
		worksheet = a.cfg.GoogleSheetWorksheet
	}
	if sheetURL == "" && !dryRun {
		return fmt.Errorf("no spreadsheet given: set GOOGLE_SHEET_URL or pass --sheet")
	}

	ctx, cancel := commandContext(timeout, log)
	defer cancel()

	schedules, err := a.service.Schedules(ctx, region)
	if err != nil {
		return handleScheduleError(err, region, log)
	}
	rows := export.Rows(schedules)

	if dryRun {
		fmt.Printf("🔍 Dry run: %d rows from %d entries would be written to %q\n", len(rows), len(schedules), worksheet)
		return nil
	}

	svc, err := sheets.NewSheetsService(ctx, sheetURL, sheets.Credentials{
		File: a.cfg.GoogleCredentialsFile,
		JSON: a.cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		if errors.Is(err, sheets.ErrNoCredentials) {
			return fmt.Errorf("Google credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS to a service account JSON file or GOOGLE_CREDENTIALS to its contents")
		}
		return err
	}

	if err := svc.Publish(ctx, worksheet, rows, !appendRows); err != nil {
		log.Error().Err(err).Str("worksheet", worksheet).Msg("Publishing failed")
		return err
	}

	fmt.Printf("✅ %d rows published to %q\n", len(rows), worksheet)
	return nil
}
