package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"golang.org/x/text/width"
)

var (
	okMark   = color.GreenString("✅")
	failMark = color.RedString("❌")
	warnMark = color.YellowString("⚠️")
	heading  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// terminalWidth returns the width of stdout, or 80 when it is not a terminal
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func printSeparator() {
	w := terminalWidth()
	if w > 80 {
		w = 80
	}
	fmt.Println(strings.Repeat("=", w))
}

// displayWidth counts terminal columns; East Asian wide runes take two
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// wrapText wraps text to a specified width. Words wider than a line, such as
// unspaced Japanese or Chinese text, are broken between runes.
func wrapText(text string, max int) []string {
	if max < 10 {
		max = 40
	}

	var result []string
	var line string
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	for _, word := range words {
		for _, part := range splitWord(word, max) {
			switch {
			case line == "":
				line = part
			case displayWidth(line)+1+displayWidth(part) <= max:
				line += " " + part
			default:
				result = append(result, line)
				line = part
			}
		}
	}
	if line != "" {
		result = append(result, line)
	}
	return result
}

// splitWord cuts word into pieces at most max columns wide
func splitWord(word string, max int) []string {
	if displayWidth(word) <= max {
		return []string{word}
	}

	var parts []string
	var b strings.Builder
	cols := 0
	for _, r := range word {
		w := displayWidth(string(r))
		if cols+w > max {
			parts = append(parts, b.String())
			b.Reset()
			cols = 0
		}
		b.WriteRune(r)
		cols += w
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// languagesOrDefault returns the --lang values, or the configured languages
func languagesOrDefault(langs []string) []string {
	if len(langs) > 0 {
		return langs
	}
	return cfg.Languages
}
