package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/starloop/cartomancer/internal/deck"
	"github.com/starloop/cartomancer/internal/validator"
)

var (
	verifyLangs []string
	parityByID  bool
)

// verifyCmd represents the verify command group
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify card files for completeness, structure and coverage",
	Long: `Commands for verifying the card files in the data directory. Every check
scans all files before reporting, and exits non-zero when any file fails.`,
}

var verifyCompleteCmd = &cobra.Command{
	Use:   "complete [files...]",
	Short: "Check that every card has all its content sections",
	Long: `Complete checks that every card carries the six text sections and the
biblical resonance. Text sections shorter than min_section_length characters are
counted as incomplete. Without arguments every range file and its configured
translations are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			var err error
			if paths, err = discoverFiles(languagesOrDefault(verifyLangs)); err != nil {
				return err
			}
		}

		checked, failed := 0, 0
		for _, path := range paths {
			f, err := deck.Load(path)
			if deck.IsNotFound(err) {
				fmt.Printf("%s %s not found, skipped\n", warnMark, path)
				continue
			}
			checked++
			if err != nil {
				fmt.Printf("%s %v\n", failMark, err)
				failed++
				continue
			}
			if !verifyCompleteFile(path, f) {
				failed++
			}
		}

		fmt.Println()
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed the completeness check", failed, checked)
		}
		fmt.Printf("%s All %d files are complete\n", okMark, checked)
		return nil
	},
}

func verifyCompleteFile(path string, f *deck.File) bool {
	if !f.IsCanonical() {
		fmt.Printf("%s %s is not in canonical shape, run 'cartomancer fix' first\n", failMark, path)
		return false
	}

	report := validator.CheckCompleteness(f.Cards(), cfg.MinSectionLength)
	mark := okMark
	if len(report.Issues) > 0 {
		mark = failMark
	}
	fmt.Printf("%s %s: %d cards, %d/%d sections complete (%.1f%%)\n",
		mark, heading(filepath.Base(path)), len(report.Cards),
		report.CompleteSections, report.TotalSections, report.CompletionRate())

	for _, c := range report.Cards {
		for _, s := range c.Sections {
			if s.Present && !s.Complete {
				logger.Debug("Section below minimum length",
					zap.String("file", path), zap.Int("card", c.ID),
					zap.String("section", string(s.Section)), zap.Int("length", s.Length))
			}
		}
	}
	for _, issue := range report.Issues {
		fmt.Printf("   %s\n", issue)
	}
	return len(report.Issues) == 0
}

var verifyParityCmd = &cobra.Command{
	Use:   "parity",
	Short: "Check that translations keep the keys of their source file",
	Long: `Parity compares every translation with its canonical range file. Both must
have the same shape and length, and every key of a source card must appear on the
translated card. Cards are paired by position unless --by-id (or parity.by_id in
the config) is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := validator.Positional
		if parityByID || cfg.Parity.ByID {
			mode = validator.ByID
		}

		ranges, err := deck.Discover(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("error reading data dir: %v", err)
		}

		checked, failed := 0, 0
		for _, r := range ranges {
			if r.Canonical == "" {
				logger.Warn("Skipping range without source file", zap.String("range", r.Name))
				continue
			}
			source, err := deck.ReadRaw(r.Canonical)
			if err != nil {
				fmt.Printf("%s %v\n", failMark, err)
				failed++
				continue
			}

			langs := r.Languages()
			if len(verifyLangs) > 0 {
				langs = verifyLangs
			}
			for _, lang := range langs {
				path, ok := r.Translations[lang]
				if !ok {
					continue
				}
				checked++

				translated, err := deck.ReadRaw(path)
				if err != nil {
					fmt.Printf("%s %v\n", failMark, err)
					failed++
					continue
				}

				report := validator.CheckParity(source, translated, mode)
				if report.Passed() {
					fmt.Printf("%s %s\n", okMark, filepath.Base(path))
					continue
				}
				failed++
				fmt.Printf("%s %s\n", failMark, filepath.Base(path))
				for _, f := range report.Failures {
					fmt.Printf("   %s\n", f)
				}
			}
		}

		fmt.Println()
		if failed > 0 {
			return fmt.Errorf("%d of %d translations failed the parity check", failed, checked)
		}
		fmt.Printf("%s All %d translations match their source structure\n", okMark, checked)
		return nil
	},
}

var verifyCoverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Report which languages have a deployable translation of each range",
	Long: `Coverage checks, for every range and language, that the translation exists,
is a list with as many cards as the source, and that its first card carries a
name and an archetype.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		langs := languagesOrDefault(verifyLangs)

		ranges, err := deck.Discover(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("error reading data dir: %v", err)
		}

		covered := make(map[string]int, len(langs))
		total := 0
		for _, r := range ranges {
			if r.Canonical == "" {
				continue
			}
			src, err := deck.Load(r.Canonical)
			if err != nil {
				fmt.Printf("%s %v\n", failMark, err)
				continue
			}
			total++
			expected := len(src.Cards())

			fmt.Printf("%s (%d cards)\n", heading(r.Name), expected)
			for _, lang := range langs {
				translated, err := deck.ReadRaw(r.TranslationPath(lang))
				if err == nil {
					err = validator.CheckCoverage(translated, expected)
				} else if deck.IsNotFound(err) {
					err = fmt.Errorf("missing")
				}

				if err != nil {
					fmt.Printf("   %s %s: %v\n", failMark, lang, err)
					continue
				}
				covered[lang]++
				fmt.Printf("   %s %s\n", okMark, lang)
			}
		}

		fmt.Println()
		printSeparator()
		complete := true
		for _, lang := range langs {
			mark := okMark
			if covered[lang] < total {
				mark = failMark
				complete = false
			}
			fmt.Printf("%s %s: %d/%d ranges\n", mark, lang, covered[lang], total)
		}
		printSeparator()

		if !complete {
			return fmt.Errorf("translation coverage is incomplete")
		}
		return nil
	},
}

// discoverFiles lists the canonical files and the existing translations for langs
func discoverFiles(langs []string) ([]string, error) {
	ranges, err := deck.Discover(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("error reading data dir: %v", err)
	}

	var paths []string
	for _, r := range ranges {
		if r.Canonical != "" {
			paths = append(paths, r.Canonical)
		}
		for _, lang := range langs {
			if p, ok := r.Translations[lang]; ok {
				paths = append(paths, p)
			}
		}
	}
	return paths, nil
}

func init() {
	RootCmd.AddCommand(verifyCmd)
	verifyCmd.AddCommand(verifyCompleteCmd)
	verifyCmd.AddCommand(verifyParityCmd)
	verifyCmd.AddCommand(verifyCoverageCmd)

	verifyCmd.PersistentFlags().StringSliceVarP(&verifyLangs, "lang", "l", nil, "Languages to check (default: configured languages)")
	verifyParityCmd.Flags().BoolVar(&parityByID, "by-id", false, "Pair cards by id instead of list position")
}
