package compare

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/starloop/cartomancer/internal/card"
)

// Band is the accepted range of translated/source length ratios, bounds included
type Band struct {
	Min float64
	Max float64
}

// DefaultBand accepts translations within 30% of the source length
var DefaultBand = Band{Min: 0.7, Max: 1.3}

// Contains reports whether ratio lies inside the band
func (b Band) Contains(ratio float64) bool {
	return ratio >= b.Min && ratio <= b.Max
}

// Ratio returns the character-length ratio of other to base, 0 when base is empty
func Ratio(base, other string) float64 {
	n := utf8.RuneCountInString(base)
	if n == 0 {
		return 0
	}
	return float64(utf8.RuneCountInString(other)) / float64(n)
}

// MismatchKind says why a card could not be compared
type MismatchKind string

const (
	MissingInTranslation MismatchKind = "missing in translation"
	MissingContent       MismatchKind = "missing content"
)

// Mismatch is a card present in the base set that could not be compared
type Mismatch struct {
	CardID int
	Kind   MismatchKind
}

// QualityIssue is a compared card whose length ratio is outside the band
type QualityIssue struct {
	CardID   int
	Section  card.Section
	BaseLen  int
	OtherLen int
	Ratio    float64
}

// Comparison is the outcome of Compare
type Comparison struct {
	Matching      int
	Mismatches    []Mismatch
	QualityIssues []QualityIssue
}

// Compare matches other against base by card id on one section. A card
// matches when both sides have non-empty text; its length ratio is then
// checked against the band.
func Compare(base, other []card.Card, section card.Section, band Band) Comparison {
	var cmp Comparison
	others := card.Index(other)

	for _, b := range base {
		o, ok := others[b.ID]
		if !ok {
			cmp.Mismatches = append(cmp.Mismatches, Mismatch{CardID: b.ID, Kind: MissingInTranslation})
			continue
		}

		baseText := b.Content.Text(section)
		otherText := o.Content.Text(section)
		if baseText == "" || otherText == "" {
			cmp.Mismatches = append(cmp.Mismatches, Mismatch{CardID: b.ID, Kind: MissingContent})
			continue
		}

		cmp.Matching++
		ratio := Ratio(baseText, otherText)
		if !band.Contains(ratio) {
			cmp.QualityIssues = append(cmp.QualityIssues, QualityIssue{
				CardID:   b.ID,
				Section:  section,
				BaseLen:  utf8.RuneCountInString(baseText),
				OtherLen: utf8.RuneCountInString(otherText),
				Ratio:    ratio,
			})
		}
	}

	return cmp
}

// SectionLengths holds one section's lengths and ratios across languages
type SectionLengths struct {
	Section card.Section
	BaseLen int
	Lens    map[string]int
	Ratios  map[string]float64
}

// Round2 rounds a ratio to two decimals for display
func Round2(r float64) float64 {
	return math.Round(r*100) / 100
}

// CardLengths is the deep comparison of one card
type CardLengths struct {
	ID       int
	Key      string
	Sections []SectionLengths
}

// Problem is a section whose ratio is outside the band for at least one language
type Problem struct {
	CardID  int
	Key     string
	Lengths SectionLengths
}

// DeepReport is the outcome of DeepCompare
type DeepReport struct {
	Languages []string
	Cards     []CardLengths
	Problems  []Problem
}

// DeepCompare compares every text section of the cards present in base and
// in all the other language sets. Sections empty in base have no ratio and
// are never flagged.
func DeepCompare(base []card.Card, others map[string][]card.Card, band Band) DeepReport {
	var report DeepReport

	for lang := range others {
		report.Languages = append(report.Languages, lang)
	}
	sort.Strings(report.Languages)

	indexes := make(map[string]map[int]card.Card, len(others))
	for lang, cards := range others {
		indexes[lang] = card.Index(cards)
	}

	for _, b := range card.SortByID(base) {
		counterparts := make(map[string]card.Card, len(others))
		common := true
		for _, lang := range report.Languages {
			o, ok := indexes[lang][b.ID]
			if !ok {
				common = false
				break
			}
			counterparts[lang] = o
		}
		if !common {
			continue
		}

		cl := CardLengths{ID: b.ID, Key: b.Key}
		for _, section := range card.TextSections {
			baseText := b.Content.Text(section)
			sl := SectionLengths{
				Section: section,
				BaseLen: utf8.RuneCountInString(baseText),
				Lens:    make(map[string]int, len(others)),
				Ratios:  make(map[string]float64, len(others)),
			}

			flagged := false
			for _, lang := range report.Languages {
				otherText := counterparts[lang].Content.Text(section)
				ratio := Ratio(baseText, otherText)
				sl.Lens[lang] = utf8.RuneCountInString(otherText)
				sl.Ratios[lang] = ratio
				if sl.BaseLen > 0 && !band.Contains(ratio) {
					flagged = true
				}
			}

			cl.Sections = append(cl.Sections, sl)
			if flagged {
				report.Problems = append(report.Problems, Problem{CardID: b.ID, Key: b.Key, Lengths: sl})
			}
		}
		report.Cards = append(report.Cards, cl)
	}

	return report
}

// SectionStats summarizes one section across a record set
type SectionStats struct {
	Cards       int
	WithSection int
	Avg         float64
	Min, Max    int
}

// Analyze collects length statistics for a section. Min and Max are 0 when
// no card has the section.
func Analyze(cards []card.Card, section card.Section) SectionStats {
	stats := SectionStats{Cards: len(cards)}

	total := 0
	for _, c := range cards {
		if !c.Content.Has(section) {
			continue
		}
		n := utf8.RuneCountInString(c.Content.Text(section))
		if stats.WithSection == 0 || n < stats.Min {
			stats.Min = n
		}
		if n > stats.Max {
			stats.Max = n
		}
		total += n
		stats.WithSection++
	}

	if stats.WithSection > 0 {
		stats.Avg = float64(total) / float64(stats.WithSection)
	}
	return stats
}
