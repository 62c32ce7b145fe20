package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/starloop/cartomancer/internal/card"
	"github.com/starloop/cartomancer/internal/compare"
	"github.com/starloop/cartomancer/internal/deck"
)

var (
	compareSection string
	compareLang    string
	deepLangs      []string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare one section of a translation against the canonical text",
	Long: `Compare pairs every canonical card with its translation by id and checks the
length ratio of one text section. Ratios outside the configured band (0.7 to 1.3
by default, bounds included) are reported as quality issues.

Examples:
  cartomancer compare
  cartomancer compare --section gnosis --lang pt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := compareSection
		if name == "" {
			name = cfg.ComparisonSection
		}
		section, err := card.ParseSection(name)
		if err != nil {
			return err
		}
		if !section.IsText() {
			return fmt.Errorf("section %s has no text to compare", section)
		}

		ranges, err := deck.Discover(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("error reading data dir: %v", err)
		}

		band := compare.Band{Min: cfg.RatioBand.Min, Max: cfg.RatioBand.Max}
		var base, other []card.Card
		issues := 0
		for _, r := range ranges {
			if r.Canonical == "" {
				continue
			}
			src, err := loadCanonical(r.Canonical)
			if err != nil {
				fmt.Printf("%s %v\n", failMark, err)
				continue
			}
			trans, err := loadCanonical(r.TranslationPath(compareLang))
			if err != nil {
				fmt.Printf("%s %v\n", failMark, err)
				continue
			}
			base = append(base, src...)
			other = append(other, trans...)

			cmp := compare.Compare(src, trans, section, band)
			issues += len(cmp.QualityIssues)

			fmt.Printf("%s: %d matching\n", heading(r.Name), cmp.Matching)
			for _, m := range cmp.Mismatches {
				fmt.Printf("   %s Card %d: %s\n", warnMark, m.CardID, m.Kind)
			}
			for _, q := range cmp.QualityIssues {
				fmt.Printf("   %s Card %d: ratio %.2f (source %d, %s %d)\n",
					failMark, q.CardID, q.Ratio, q.BaseLen, compareLang, q.OtherLen)
			}
		}

		fmt.Println()
		printSeparator()
		printStats("es", compare.Analyze(base, section))
		printStats(compareLang, compare.Analyze(other, section))
		printSeparator()

		if issues > 0 {
			fmt.Printf("%s %d cards outside the %.1f-%.1f ratio band\n", failMark, issues, band.Min, band.Max)
		} else {
			fmt.Printf("%s All compared cards are within the %.1f-%.1f ratio band\n", okMark, band.Min, band.Max)
		}
		return nil
	},
}

var compareDeepCmd = &cobra.Command{
	Use:   "deep",
	Short: "Compare every text section across several languages",
	Long: `Deep compares all six text sections of the cards present in the canonical
file and in every selected translation, and lists the sections whose length ratio
is outside the band for at least one language.

Examples:
  cartomancer compare deep --lang en --lang pt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		langs := deepLangs
		if len(langs) == 0 {
			langs = []string{"en", "pt"}
		}

		ranges, err := deck.Discover(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("error reading data dir: %v", err)
		}

		band := compare.Band{Min: cfg.RatioBand.Min, Max: cfg.RatioBand.Max}
		compared, problems := 0, 0
		for _, r := range ranges {
			if r.Canonical == "" {
				continue
			}
			base, err := loadCanonical(r.Canonical)
			if err != nil {
				fmt.Printf("%s %v\n", failMark, err)
				continue
			}

			others := make(map[string][]card.Card, len(langs))
			for _, lang := range langs {
				cards, err := loadCanonical(r.TranslationPath(lang))
				if err != nil {
					logger.Warn("Leaving language out of range comparison",
						zap.String("range", r.Name), zap.String("lang", lang), zap.Error(err))
					continue
				}
				others[lang] = cards
			}
			if len(others) == 0 {
				continue
			}

			report := compare.DeepCompare(base, others, band)
			compared += len(report.Cards)
			problems += len(report.Problems)

			for _, p := range report.Problems {
				var parts []string
				for _, lang := range report.Languages {
					parts = append(parts, fmt.Sprintf("%s %d (%.2f)",
						lang, p.Lengths.Lens[lang], compare.Round2(p.Lengths.Ratios[lang])))
				}
				fmt.Printf("%s Card %d (%s) %s: source %d, %s\n",
					failMark, p.CardID, p.Key, p.Lengths.Section, p.Lengths.BaseLen, strings.Join(parts, ", "))
			}
		}

		fmt.Println()
		if problems > 0 {
			fmt.Printf("%s %d sections outside the ratio band across %d cards\n", failMark, problems, compared)
		} else {
			fmt.Printf("%s %d cards compared, no problems found\n", okMark, compared)
		}
		return nil
	},
}

// loadCanonical loads a file that must already be list-shaped
func loadCanonical(path string) ([]card.Card, error) {
	f, err := deck.Load(path)
	if err != nil {
		return nil, err
	}
	if !f.IsCanonical() {
		return nil, fmt.Errorf("%s is not in canonical shape, run 'cartomancer fix' first", filepath.Base(path))
	}
	return f.Cards(), nil
}

func printStats(lang string, s compare.SectionStats) {
	fmt.Printf("%s: %d cards, %d with section, avg %.0f, min %d, max %d\n",
		lang, s.Cards, s.WithSection, s.Avg, s.Min, s.Max)
}

func init() {
	RootCmd.AddCommand(compareCmd)
	compareCmd.AddCommand(compareDeepCmd)

	compareCmd.Flags().StringVarP(&compareSection, "section", "s", "", "Section to compare (default: comparison_section from config)")
	compareCmd.Flags().StringVarP(&compareLang, "lang", "l", "en", "Translation language")
	compareDeepCmd.Flags().StringSliceVarP(&deepLangs, "lang", "l", nil, "Languages to compare (default: en, pt)")
}
