package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/starloop/cartomancer/internal/card"
	"github.com/starloop/cartomancer/internal/config"
	"github.com/starloop/cartomancer/internal/deck"
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Inspect and configure the card data directory",
	Long:  `Commands for inspecting the range files in the data directory and configuring where it lives.`,
}

// deckListCmd represents the deck ls command
var deckListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List range files and their translations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir := cfg.DataDir

		// Check if the data directory exists
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Printf("Data directory %s does not exist.\n", dir)
			fmt.Println("Run 'cartomancer deck set-dir <path>' to point at your card files.")
			return
		}

		ranges, err := deck.Discover(dir)
		if err != nil {
			fmt.Printf("Error reading data directory: %v\n", err)
			return
		}

		if len(ranges) == 0 {
			fmt.Println("No range files found in", dir)
			return
		}

		fmt.Println("Data directory:", dir)
		for _, r := range ranges {
			shape := describeShape(r.Canonical)
			fmt.Printf("  %-8s %s\n", r.Name, shape)

			for _, lang := range r.Languages() {
				fmt.Printf("    %s  %s\n", lang, describeShape(r.Translations[lang]))
			}
			if missing := missingLanguages(r); len(missing) > 0 {
				fmt.Printf("    missing: %s\n", strings.Join(missing, ", "))
			}
		}
	},
}

func describeShape(path string) string {
	if path == "" {
		return failMark + " no source file"
	}
	f, err := deck.Load(path)
	if err != nil {
		return fmt.Sprintf("%s %v", failMark, err)
	}
	if f.IsCanonical() {
		return fmt.Sprintf("%s %d cards", okMark, len(f.Cards()))
	}
	degraded, _ := f.Source.(card.Degraded)
	return fmt.Sprintf("%s degraded (%d entries), run 'cartomancer fix'", warnMark, len(degraded))
}

func missingLanguages(r deck.Range) []string {
	var missing []string
	for _, lang := range cfg.Languages {
		if _, ok := r.Translations[lang]; !ok {
			missing = append(missing, lang)
		}
	}
	return missing
}

// deckSetDirCmd represents the deck set-dir command
var deckSetDirCmd = &cobra.Command{
	Use:   "set-dir [path]",
	Short: "Set the data directory holding the range files",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := args[0]

		// Check the directory holds range files
		ranges, err := deck.Discover(dir)
		if err != nil {
			fmt.Printf("Error: Not a readable directory - %v\n", err)
			return
		}
		if len(ranges) == 0 {
			fmt.Printf("Warning: no range files found in %s\n", dir)
		}

		if err := config.SetDataDir(configPath, dir); err != nil {
			fmt.Printf("Error setting data directory: %v\n", err)
			return
		}

		abs, _ := filepath.Abs(dir)
		fmt.Printf("Data directory set to: %s\n", abs)
	},
}

// deckInitCmd represents the deck init command
var deckInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the config file and data directory",
	Run: func(cmd *cobra.Command, args []string) {
		// Create the data directory if it doesn't exist
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			fmt.Printf("Error creating data directory: %v\n", err)
			return
		}
		fmt.Println("Data directory:", cfg.DataDir)

		// The root command already created the config on first use
		path := configPath
		if path == "" {
			path = config.GetConfigFilePath()
		}
		fmt.Println("Config file initialized at:", path)
	},
}

func init() {
	RootCmd.AddCommand(deckCmd)
	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckSetDirCmd)
	deckCmd.AddCommand(deckInitCmd)
}
