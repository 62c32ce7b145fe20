package validator

import (
	"fmt"
	"unicode/utf8"

	"github.com/starloop/cartomancer/internal/card"
)

// DefaultMinLength is the length a text section must exceed to count as complete
const DefaultMinLength = 100

// SectionResult describes one section of one card
type SectionResult struct {
	Section  card.Section
	Present  bool
	Complete bool
	Length   int // In characters
}

// CardCompleteness holds the section results of a card, in RequiredSections order
type CardCompleteness struct {
	ID       int
	Key      string
	Sections []SectionResult
}

// CompletenessReport is the outcome of CheckCompleteness
type CompletenessReport struct {
	Cards            []CardCompleteness
	TotalSections    int
	CompleteSections int
	Issues           []string
}

// CompletionRate returns complete/total sections as a percentage
func (r CompletenessReport) CompletionRate() float64 {
	if r.TotalSections == 0 {
		return 0
	}
	return float64(r.CompleteSections) / float64(r.TotalSections) * 100
}

// CheckCompleteness checks every card for the required sections. A text
// section is complete when it is longer than minLength characters; the
// biblical resonance is complete when quote, reference and connection are
// all present. Content defects are reported, never returned as errors.
func CheckCompleteness(cards []card.Card, minLength int) CompletenessReport {
	var report CompletenessReport

	for _, c := range cards {
		result := CardCompleteness{ID: c.ID, Key: c.Key}

		for _, section := range card.RequiredSections {
			report.TotalSections++

			if !c.Content.Has(section) {
				result.Sections = append(result.Sections, SectionResult{Section: section})
				report.Issues = append(report.Issues,
					fmt.Sprintf("Card %d missing section: %s", c.ID, section))
				continue
			}

			sr := SectionResult{Section: section, Present: true}
			if section == card.BiblicalResonanceSection {
				br := c.Content.BiblicalResonance
				sr.Complete = br.Complete()
				sr.Length = utf8.RuneCountInString(br.Quote) +
					utf8.RuneCountInString(br.Reference) +
					utf8.RuneCountInString(br.Connection)
			} else {
				sr.Length = utf8.RuneCountInString(c.Content.Text(section))
				sr.Complete = sr.Length > minLength
			}

			if sr.Complete {
				report.CompleteSections++
			}
			result.Sections = append(result.Sections, sr)
		}

		report.Cards = append(report.Cards, result)
	}

	return report
}
