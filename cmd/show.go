package cmd

import (
	"fmt"
	"strconv"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/starloop/cartomancer/internal/card"
	"github.com/starloop/cartomancer/internal/deck"
)

var showLang string

var showCmd = &cobra.Command{
	Use:   "show [card_id]",
	Short: "Display the content of a specific card",
	Long: `Show displays every content section of a card, wrapped to the terminal width.
Cards are addressed by their numeric id. Without --lang the canonical Spanish
record is shown; with it, the translation (which must already be in canonical shape).

Examples:
  cartomancer show 0
  cartomancer show --lang ja 21`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid card id: %s", args[0])
		}

		c, err := findCard(id, showLang)
		if err != nil {
			return err
		}

		displayCard(c, showLang)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showLang, "lang", "l", "", "Show the translation in this language")
}

// findCard looks a card up in the data dir, mapping "" and "es" to the canonical file
func findCard(id int, lang string) (*card.Card, error) {
	if lang == "es" {
		lang = ""
	}
	c, err := deck.FindCard(cfg.DataDir, id, lang)
	if err != nil {
		return nil, fmt.Errorf("error getting card: %v", err)
	}
	return c, nil
}

var sectionLabels = map[card.Section]string{
	card.Archetype:                "Archetype",
	card.Shadow:                   "Shadow",
	card.Mysticism:                "Mysticism",
	card.Daily:                    "Daily",
	card.Botany:                   "Botany",
	card.Gnosis:                   "Gnosis",
	card.BiblicalResonanceSection: "Biblical Resonance",
}

// displayCard prints the card header followed by its sections
func displayCard(c *card.Card, lang string) {
	width := terminalWidth() - 4 // Leave a small margin
	if lang == "" {
		lang = "es"
	}

	var lines []string
	lines = append(lines, colorize.CyanString("Card: ")+colorize.HiWhiteString("%s", c.Name))
	lines = append(lines, colorize.CyanString("ID:   ")+colorize.HiWhiteString("%d", c.ID))
	lines = append(lines, colorize.CyanString("Key:  ")+colorize.HiWhiteString("%s", c.Key))
	lines = append(lines, colorize.CyanString("Lang: ")+colorize.HiWhiteString("%s", lang))

	for _, s := range card.TextSections {
		text := c.Content.Text(s)
		if text == "" {
			continue
		}
		lines = append(lines, "", colorize.CyanString("%s:", sectionLabels[s]))
		lines = append(lines, wrapText(text, width)...)
	}

	br := c.Content.BiblicalResonance
	if br.Quote != "" || br.Connection != "" {
		lines = append(lines, "", colorize.CyanString("%s:", sectionLabels[card.BiblicalResonanceSection]))
		if br.Quote != "" {
			quote := fmt.Sprintf("%q", br.Quote)
			if br.Reference != "" {
				quote += " (" + br.Reference + ")"
			}
			italic := colorize.New(colorize.Italic)
			for _, l := range wrapText(quote, width) {
				lines = append(lines, italic.Sprint(l))
			}
		}
		if br.Connection != "" {
			lines = append(lines, wrapText(br.Connection, width)...)
		}
	}

	fmt.Println()
	for _, line := range lines {
		fmt.Println("  " + line)
	}
	fmt.Println()
}
