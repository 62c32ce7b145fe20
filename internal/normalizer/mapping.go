package normalizer

import (
	"fmt"

	"github.com/starloop/cartomancer/internal/card"
)

// Policy decides where a normalized field takes its value from
type Policy int

const (
	// PreferTranslated uses the degraded field, or the canonical value when it is empty
	PreferTranslated Policy = iota
	// FallbackToCanonical always uses the canonical value
	FallbackToCanonical
	// AlwaysEmpty writes an empty string so the UI hides the section
	AlwaysEmpty
)

func (p Policy) String() string {
	switch p {
	case PreferTranslated:
		return "preferTranslated"
	case FallbackToCanonical:
		return "fallbackToCanonical"
	case AlwaysEmpty:
		return "alwaysEmpty"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Rule maps one canonical field
type Rule struct {
	Target card.Field
	Policy Policy
	From   card.DegradedField // Only read by PreferTranslated
}

// Mapping is the table applied to every degraded record. Fields without a
// rule are left empty; id is always canonical.
type Mapping []Rule

// DefaultMapping is the field vocabulary of the old generation run.
// "description" is general-purpose text, not a shadow reading, but it is
// still preferred over Spanish text or no text. No degraded record carries
// daily, botany or gnosis content.
var DefaultMapping = Mapping{
	{Target: card.FieldKey, Policy: FallbackToCanonical},
	{Target: card.FieldName, Policy: PreferTranslated, From: card.DegradedName},
	{Target: card.FieldArchetype, Policy: PreferTranslated, From: card.DegradedPsychological},
	{Target: card.FieldShadow, Policy: PreferTranslated, From: card.DegradedDescription},
	{Target: card.FieldMysticism, Policy: PreferTranslated, From: card.DegradedEsoteric},
	{Target: card.FieldDaily, Policy: AlwaysEmpty},
	{Target: card.FieldBotany, Policy: AlwaysEmpty},
	{Target: card.FieldGnosis, Policy: AlwaysEmpty},
	{Target: card.FieldResonanceQuote, Policy: FallbackToCanonical},
	{Target: card.FieldResonanceReference, Policy: FallbackToCanonical},
	{Target: card.FieldResonanceConnection, Policy: PreferTranslated, From: card.DegradedTheological},
}

// Validate checks that every rule addresses known fields, that key is never
// translated and that no field is mapped twice
func (m Mapping) Validate() error {
	seen := make(map[card.Field]bool, len(m))
	for _, r := range m {
		if !r.Target.Known() {
			return fmt.Errorf("unknown target field: %s", r.Target)
		}
		if seen[r.Target] {
			return fmt.Errorf("field %s mapped twice", r.Target)
		}
		seen[r.Target] = true

		if r.Target == card.FieldKey && r.Policy != FallbackToCanonical {
			return fmt.Errorf("key must not vary by language")
		}

		switch r.Policy {
		case PreferTranslated:
			if !r.From.Known() {
				return fmt.Errorf("%s: unknown degraded field %q", r.Target, r.From)
			}
		case FallbackToCanonical, AlwaysEmpty:
		default:
			return fmt.Errorf("%s: unknown policy %s", r.Target, r.Policy)
		}
	}
	if !seen[card.FieldKey] {
		return fmt.Errorf("key must be mapped from the canonical record")
	}
	return nil
}

// Apply builds the normalized record for one card
func (m Mapping) Apply(canonical card.Card, degraded card.RawRecord) card.Card {
	out := card.Card{ID: canonical.ID}
	for _, r := range m {
		switch r.Policy {
		case PreferTranslated:
			v := degraded.Get(r.From)
			if v == "" {
				v = canonical.Get(r.Target)
			}
			out.Set(r.Target, v)
		case FallbackToCanonical:
			out.Set(r.Target, canonical.Get(r.Target))
		case AlwaysEmpty:
			out.Set(r.Target, "")
		}
	}
	return out
}
