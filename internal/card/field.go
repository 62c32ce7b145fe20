package card

// Field addresses a string field of a Card
type Field string

const (
	FieldKey                 Field = "key"
	FieldName                Field = "name"
	FieldArchetype           Field = "content.archetype"
	FieldShadow              Field = "content.shadow"
	FieldMysticism           Field = "content.mysticism"
	FieldDaily               Field = "content.daily"
	FieldBotany              Field = "content.botany"
	FieldGnosis              Field = "content.gnosis"
	FieldResonanceQuote      Field = "content.biblical_resonance.quote"
	FieldResonanceReference  Field = "content.biblical_resonance.reference"
	FieldResonanceConnection Field = "content.biblical_resonance.connection"
)

// Fields lists every addressable field
var Fields = []Field{
	FieldKey, FieldName,
	FieldArchetype, FieldShadow, FieldMysticism, FieldDaily, FieldBotany, FieldGnosis,
	FieldResonanceQuote, FieldResonanceReference, FieldResonanceConnection,
}

// Known reports whether f addresses a Card field
func (f Field) Known() bool {
	for _, k := range Fields {
		if k == f {
			return true
		}
	}
	return false
}

func (c *Card) ref(f Field) *string {
	switch f {
	case FieldKey:
		return &c.Key
	case FieldName:
		return &c.Name
	case FieldArchetype:
		return &c.Content.Archetype
	case FieldShadow:
		return &c.Content.Shadow
	case FieldMysticism:
		return &c.Content.Mysticism
	case FieldDaily:
		return &c.Content.Daily
	case FieldBotany:
		return &c.Content.Botany
	case FieldGnosis:
		return &c.Content.Gnosis
	case FieldResonanceQuote:
		return &c.Content.BiblicalResonance.Quote
	case FieldResonanceReference:
		return &c.Content.BiblicalResonance.Reference
	case FieldResonanceConnection:
		return &c.Content.BiblicalResonance.Connection
	}
	return nil
}

// Get returns the value of a field, "" for unknown fields
func (c Card) Get(f Field) string {
	if p := c.ref(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns a field. Unknown fields are ignored. Presence information is
// left as is.
func (c *Card) Set(f Field, v string) {
	if p := c.ref(f); p != nil {
		*p = v
	}
}

// DegradedField addresses a string field of a RawRecord
type DegradedField string

const (
	DegradedName          DegradedField = "name"
	DegradedDescription   DegradedField = "description"
	DegradedPsychological DegradedField = "categories.psychological"
	DegradedEsoteric      DegradedField = "categories.esoteric"
	DegradedTheological   DegradedField = "categories.theological"
)

// Known reports whether f addresses a RawRecord field
func (f DegradedField) Known() bool {
	switch f {
	case DegradedName, DegradedDescription, DegradedPsychological, DegradedEsoteric, DegradedTheological:
		return true
	}
	return false
}

// Get returns the value of a degraded field, "" for unknown fields
func (r RawRecord) Get(f DegradedField) string {
	switch f {
	case DegradedName:
		return r.Name
	case DegradedDescription:
		return r.Description
	case DegradedPsychological:
		return r.Categories.Psychological
	case DegradedEsoteric:
		return r.Categories.Esoteric
	case DegradedTheological:
		return r.Categories.Theological
	}
	return ""
}
