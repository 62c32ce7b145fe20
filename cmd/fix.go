package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starloop/cartomancer/internal/normalizer"
)

var (
	fixDryRun bool
	fixLangs  []string
)

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Repair translation files into the canonical card schema",
	Long: `Fix rewrites every translation file whose records use the degraded schema
(an object keyed by card id, with name/description/categories) into the canonical
list of cards. Cards missing from a translation are filled with the canonical
Spanish record and reported. Files already in canonical shape are left alone.

Examples:
  cartomancer fix
  cartomancer fix --dry-run --lang en --lang pt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		langs := languagesOrDefault(fixLangs)

		batch, err := normalizer.RepairDir(cfg.DataDir, langs, normalizer.Options{
			Logger: logger,
			DryRun: fixDryRun,
		})
		if err != nil {
			return fmt.Errorf("error reading data dir: %v", err)
		}

		fmt.Println("Repair Results:")
		fmt.Println("---------------")

		repaired := 0
		for _, res := range batch.Results {
			switch res.Status {
			case normalizer.AlreadyCanonical:
				fmt.Printf("%s %s already canonical\n", okMark, res.Path)
			default:
				if res.Status == normalizer.Repaired {
					repaired++
				}
				fmt.Printf("%s %s %s: %d mapped, %d placeholders\n",
					okMark, res.Path, res.Status, res.Mapped, len(res.Placeholders))
				if len(res.Placeholders) > 0 {
					fmt.Printf("   %s placeholder ids: %v\n", warnMark, res.Placeholders)
				}
				if len(res.Fallbacks) > 0 {
					fmt.Printf("   %s mistyped fields replaced by source text: %v\n", warnMark, res.Fallbacks)
				}
			}
		}

		for _, err := range batch.Errors {
			fmt.Printf("%s %v\n", failMark, err)
		}

		fmt.Printf("\n%d files repaired, %d skipped (not found), %d failed\n",
			repaired, len(batch.Skipped), len(batch.Errors))
		if len(batch.Errors) > 0 {
			return fmt.Errorf("%d files could not be repaired", len(batch.Errors))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(fixCmd)

	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Report what would change without writing")
	fixCmd.Flags().StringSliceVarP(&fixLangs, "lang", "l", nil, "Languages to repair (default: configured languages)")
}
