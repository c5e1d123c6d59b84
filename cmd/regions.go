package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the served regions and their calendar URLs",
	Long: `List every region guardia can read, with its shift pattern and the URL its calendar
is downloaded from. URLs can be overridden with GUARDIA_URL_<REGION>, for example
GUARDIA_URL_SEGOVIA_CAPITAL.`,
	Example: `  guardia regions
  guardia regions --json`,
	Args: cobra.NoArgs,
	RunE: runRegions,
}

func init() {
	rootCmd.AddCommand(regionsCmd)

	regionsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runRegions(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := appConfig()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	regions := cfg.Regions()

	if jsonOutput {
		return writeJSON(os.Stdout, regions)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSHIFTS\tURL")
	for _, r := range regions {
		shifts := r.Pattern.String()
		if r.Zoned {
			shifts += " (ZBS)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, shifts, r.DocumentURL)
	}
	return w.Flush()
}
