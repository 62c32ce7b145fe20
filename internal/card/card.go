package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Card represents one tarot card's content in a single language
type Card struct {
	ID      int     `json:"id"`  // Stable across every language variant of a range file
	Key     string  `json:"key"` // Slug, never translated
	Name    string  `json:"name"`
	Content Content `json:"content"`
}

// Content holds the card's sections
type Content struct {
	Archetype         string            `json:"archetype"`
	Shadow            string            `json:"shadow"`
	Mysticism         string            `json:"mysticism"`
	Daily             string            `json:"daily"`
	Botany            string            `json:"botany"`
	Gnosis            string            `json:"gnosis"`
	BiblicalResonance BiblicalResonance `json:"biblical_resonance"`

	// sections absent from the decoded JSON object
	missing map[Section]bool
}

// BiblicalResonance is the scripture block attached to each card
type BiblicalResonance struct {
	Quote      string `json:"quote"`
	Reference  string `json:"reference"`
	Connection string `json:"connection"`

	missing map[string]bool
}

// Section names one slot of card content
type Section string

const (
	Archetype                Section = "archetype"
	Shadow                   Section = "shadow"
	Mysticism                Section = "mysticism"
	Daily                    Section = "daily"
	Botany                   Section = "botany"
	Gnosis                   Section = "gnosis"
	BiblicalResonanceSection Section = "biblical_resonance"
)

// TextSections are the plain-text sections in display order
var TextSections = []Section{Archetype, Shadow, Mysticism, Daily, Botany, Gnosis}

// RequiredSections are all sections a canonical record carries
var RequiredSections = append(append([]Section{}, TextSections...), BiblicalResonanceSection)

var resonanceKeys = []string{"quote", "reference", "connection"}

// ParseSection converts a section name into a Section
func ParseSection(name string) (Section, error) {
	for _, s := range RequiredSections {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown section: %s", name)
}

// IsText reports whether the section is one of the plain-text sections
func (s Section) IsText() bool {
	return s != BiblicalResonanceSection
}

// Text returns the text of a plain-text section. It returns "" for
// biblical_resonance and unknown sections.
func (c Content) Text(s Section) string {
	switch s {
	case Archetype:
		return c.Archetype
	case Shadow:
		return c.Shadow
	case Mysticism:
		return c.Mysticism
	case Daily:
		return c.Daily
	case Botany:
		return c.Botany
	case Gnosis:
		return c.Gnosis
	}
	return ""
}

// Has reports whether the section key was present when the content was decoded.
// Content built in code has every section.
func (c Content) Has(s Section) bool {
	return !c.missing[s]
}

// Has reports whether a sub-field (quote, reference, connection) was present
func (b BiblicalResonance) Has(key string) bool {
	return !b.missing[key]
}

// Complete reports whether quote, reference and connection are all present
func (b BiblicalResonance) Complete() bool {
	for _, k := range resonanceKeys {
		if !b.Has(k) {
			return false
		}
	}
	return true
}

// UnmarshalJSON decodes content and remembers which sections were absent
func (c *Content) UnmarshalJSON(data []byte) error {
	type plain Content
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*c = Content(p)
	c.missing = nil
	for _, s := range RequiredSections {
		if _, ok := keys[string(s)]; !ok {
			c.markMissing(s)
		}
	}
	if !c.Has(BiblicalResonanceSection) {
		c.BiblicalResonance.markAllMissing()
	}
	return nil
}

// UnmarshalJSON decodes the block and remembers which sub-fields were absent
func (b *BiblicalResonance) UnmarshalJSON(data []byte) error {
	type plain BiblicalResonance
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*b = BiblicalResonance(p)
	b.missing = nil
	for _, k := range resonanceKeys {
		if _, ok := keys[k]; !ok {
			if b.missing == nil {
				b.missing = make(map[string]bool)
			}
			b.missing[k] = true
		}
	}
	return nil
}

// UnmarshalJSON decodes a card; a card without a content object has no sections
func (c *Card) UnmarshalJSON(data []byte) error {
	type plain Card
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["content"]; !ok {
		for _, s := range RequiredSections {
			p.Content.markMissing(s)
		}
		p.Content.BiblicalResonance.markAllMissing()
	}
	*c = Card(p)
	return nil
}

func (c *Content) markMissing(s Section) {
	if c.missing == nil {
		c.missing = make(map[Section]bool)
	}
	c.missing[s] = true
}

func (b *BiblicalResonance) markAllMissing() {
	b.missing = make(map[string]bool, len(resonanceKeys))
	for _, k := range resonanceKeys {
		b.missing[k] = true
	}
}

// Clone returns a deep copy of the card, presence information included
func (c Card) Clone() Card {
	out := c
	if c.Content.missing != nil {
		out.Content.missing = make(map[Section]bool, len(c.Content.missing))
		for k, v := range c.Content.missing {
			out.Content.missing[k] = v
		}
	}
	if c.Content.BiblicalResonance.missing != nil {
		out.Content.BiblicalResonance.missing = make(map[string]bool)
		for k, v := range c.Content.BiblicalResonance.missing {
			out.Content.BiblicalResonance.missing[k] = v
		}
	}
	return out
}

// SortByID returns the cards ordered by ascending id. When an id repeats,
// the last occurrence wins.
func SortByID(cards []Card) []Card {
	byID := make(map[int]Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

// Index maps card id to card
func Index(cards []Card) map[int]Card {
	idx := make(map[int]Card, len(cards))
	for _, c := range cards {
		idx[c.ID] = c
	}
	return idx
}

// RawRecord is one entry of a degraded translation file. These files were
// produced by an older generation run with its own field vocabulary.
//
// Decoding never fails: fields of the wrong JSON type are left empty and
// reported by Invalid, and an entry that is not an object is Malformed.
type RawRecord struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Categories  Categories `json:"categories"`

	decoded   bool
	keys      int
	malformed bool
	invalid   []DegradedField
}

// Categories groups the per-discipline readings of a degraded record
type Categories struct {
	Psychological string `json:"psychological"`
	Esoteric      string `json:"esoteric"`
	Theological   string `json:"theological"`
}

// Empty reports whether the entry has nothing to map: null or {} when
// decoded, no text at all when built in code. Keys the mapping does not
// know still make a decoded entry non-empty.
func (r RawRecord) Empty() bool {
	if r.decoded {
		return r.keys == 0 && !r.malformed
	}
	return r.Name == "" && r.Description == "" && r.Categories == Categories{}
}

// Malformed reports whether the decoded entry was not a JSON object
func (r RawRecord) Malformed() bool {
	return r.malformed
}

// Invalid lists the fields that were present with the wrong JSON type
func (r RawRecord) Invalid() []DegradedField {
	return r.invalid
}

// UnmarshalJSON decodes the entry field by field
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	*r = RawRecord{decoded: true}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		r.malformed = true
		return nil
	}
	r.keys = len(fields)

	r.Name = r.text(fields, "name", DegradedName)
	r.Description = r.text(fields, "description", DegradedDescription)

	raw, ok := fields["categories"]
	if !ok {
		return nil
	}
	var cats map[string]json.RawMessage
	if err := json.Unmarshal(raw, &cats); err != nil {
		r.invalid = append(r.invalid, DegradedPsychological, DegradedEsoteric, DegradedTheological)
		return nil
	}
	r.Categories.Psychological = r.text(cats, "psychological", DegradedPsychological)
	r.Categories.Esoteric = r.text(cats, "esoteric", DegradedEsoteric)
	r.Categories.Theological = r.text(cats, "theological", DegradedTheological)
	return nil
}

func (r *RawRecord) text(fields map[string]json.RawMessage, key string, f DegradedField) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.invalid = append(r.invalid, f)
		return ""
	}
	return s
}

// Source is a loaded record set, either canonical or degraded.
// The shape is resolved once, at load time.
type Source interface {
	isSource()
}

// Canonical is a list of card records
type Canonical []Card

// Degraded maps stringified card ids to degraded records
type Degraded map[string]RawRecord

func (Canonical) isSource() {}
func (Degraded) isSource()  {}

// Lookup returns the degraded record stored under the card id
func (d Degraded) Lookup(id int) (RawRecord, bool) {
	r, ok := d[strconv.Itoa(id)]
	return r, ok
}
