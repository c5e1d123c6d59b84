package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"guardia/internal/config"
	"guardia/internal/logger"
)

var version = "1.0.0"

// loadedConfig is set by Execute; commands fall back to loading it themselves so a
// configuration error is reported by the command that needs it.
var loadedConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "guardia",
	Short: "Guardia - on-duty pharmacies of the province of Segovia",
	Long: `Guardia reads the duty calendars published as PDF by the pharmacists' association
of Segovia and answers which pharmacy is on duty at a given moment.

Calendars are downloaded on demand and cached on disk. Segovia capital splits each day
into a day shift (10:15-22:00) and a night shift (22:00-10:15); the towns and rural
health zones assign one pharmacy per day.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("Guardia executed without a command")

		fmt.Println("Guardia - farmacias de guardia de Segovia")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the CLI with the configuration loaded by main. cfg may be nil.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	loadedConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func appConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loadedConfig = cfg
	return cfg, nil
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}
