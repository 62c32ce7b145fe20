package normalizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/starloop/cartomancer/internal/card"
	"github.com/starloop/cartomancer/internal/deck"
)

var ignorePresence = cmpopts.IgnoreUnexported(card.Content{}, card.BiblicalResonance{})

func canonicalCard(id int) card.Card {
	s := func(field string) string { return fmt.Sprintf("es-%s-%d", field, id) }
	return card.Card{
		ID:   id,
		Key:  fmt.Sprintf("key-%d", id),
		Name: s("name"),
		Content: card.Content{
			Archetype: s("archetype"),
			Shadow:    s("shadow"),
			Mysticism: s("mysticism"),
			Daily:     s("daily"),
			Botany:    s("botany"),
			Gnosis:    s("gnosis"),
			BiblicalResonance: card.BiblicalResonance{
				Quote:      s("quote"),
				Reference:  s("reference"),
				Connection: s("connection"),
			},
		},
	}
}

func canonicalRange(lo, hi int) []card.Card {
	var cards []card.Card
	for id := lo; id <= hi; id++ {
		cards = append(cards, canonicalCard(id))
	}
	return cards
}

func TestDefaultMappingIsValid(t *testing.T) {
	require.NoError(t, DefaultMapping.Validate())
}

func TestMappingValidate(t *testing.T) {
	cases := map[string]Mapping{
		"unknown target": {{Target: card.FieldKey, Policy: FallbackToCanonical}, {Target: "content.tarot", Policy: AlwaysEmpty}},
		"unknown source": {{Target: card.FieldKey, Policy: FallbackToCanonical}, {Target: card.FieldName, Policy: PreferTranslated, From: "title"}},
		"translated key": {{Target: card.FieldKey, Policy: PreferTranslated, From: card.DegradedName}},
		"duplicate":      {{Target: card.FieldKey, Policy: FallbackToCanonical}, {Target: card.FieldKey, Policy: FallbackToCanonical}},
		"no key":         {{Target: card.FieldName, Policy: FallbackToCanonical}},
		"unknown policy": {{Target: card.FieldKey, Policy: FallbackToCanonical}, {Target: card.FieldName, Policy: Policy(9)}},
	}
	for name, m := range cases {
		assert.Error(t, m.Validate(), name)
	}
}

func TestApplyFieldMapping(t *testing.T) {
	es := canonicalCard(11)
	raw := card.RawRecord{
		Name:        "La Justice",
		Description: "La Justice siège...",
		Categories: card.Categories{
			Psychological: "Psychologiquement...",
			Esoteric:      "Ésotériquement...",
			Theological:   "Théologiquement...",
		},
	}

	got := DefaultMapping.Apply(es, raw)

	want := card.Card{
		ID:   11,
		Key:  "key-11",
		Name: "La Justice",
		Content: card.Content{
			Archetype: "Psychologiquement...",
			Shadow:    "La Justice siège...",
			Mysticism: "Ésotériquement...",
			BiblicalResonance: card.BiblicalResonance{
				Quote:      "es-quote-11",
				Reference:  "es-reference-11",
				Connection: "Théologiquement...",
			},
		},
	}
	if diff := cmp.Diff(want, got, ignorePresence); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}

func TestFallbackToCanonicalOnEmpty(t *testing.T) {
	es := canonicalCard(12)
	got := DefaultMapping.Apply(es, card.RawRecord{Name: "Le Pendu"})

	assert.Equal(t, "Le Pendu", got.Name)
	assert.Equal(t, es.Content.Archetype, got.Content.Archetype)
	assert.Equal(t, es.Content.Mysticism, got.Content.Mysticism)
	assert.Equal(t, es.Content.Shadow, got.Content.Shadow)
	assert.Equal(t, es.Content.BiblicalResonance.Connection, got.Content.BiblicalResonance.Connection)
	assert.Empty(t, got.Content.Daily)
	assert.Empty(t, got.Content.Botany)
	assert.Empty(t, got.Content.Gnosis)
}

func TestNormalizeCanonicalIsNoop(t *testing.T) {
	translated := canonicalRange(0, 2)
	translated[0].Name = "The Fool"

	out, res := Normalize(canonicalRange(0, 5), card.Canonical(translated), Options{})

	assert.True(t, res.AlreadyCanonical)
	assert.Equal(t, translated, out)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	canonical := canonicalRange(6, 10)
	degraded := card.Degraded{
		"9": {Name: "L'Ermite", Categories: card.Categories{Esoteric: "x"}},
		"6": {Name: "Les Amoureux"},
	}

	once, _ := Normalize(canonical, degraded, Options{})
	twice, res := Normalize(canonical, card.Canonical(once), Options{})

	assert.True(t, res.AlreadyCanonical)
	if diff := cmp.Diff(once, twice, ignorePresence); diff != "" {
		t.Errorf("second pass changed output (-once +twice):\n%s", diff)
	}
}

func TestNormalizeOrdersByCanonicalID(t *testing.T) {
	canonical := []card.Card{canonicalCard(15), canonicalCard(11), canonicalCard(13), canonicalCard(12), canonicalCard(14)}
	degraded := card.Degraded{
		"14": {Name: "Tempérance"},
		"11": {Name: "La Justice"},
		"99": {Name: "stray"},
	}

	out, res := Normalize(canonical, degraded, Options{})

	require.Len(t, out, 5)
	for i, c := range out {
		assert.Equal(t, 11+i, c.ID)
		assert.Equal(t, fmt.Sprintf("key-%d", 11+i), c.Key)
	}
	assert.Equal(t, 2, res.Mapped)
	assert.Equal(t, []int{12, 13, 15}, res.Placeholders)
}

func TestNormalizeEmptyEntryIsPlaceholder(t *testing.T) {
	out, res := Normalize(canonicalRange(0, 0), card.Degraded{"0": {}}, Options{})
	assert.Equal(t, []int{0}, res.Placeholders)
	assert.Equal(t, "es-daily-0", out[0].Content.Daily)
}

func TestNormalizeOnlyNullOrEmptyEntriesArePlaceholders(t *testing.T) {
	var degraded card.Degraded
	require.NoError(t, json.Unmarshal([]byte(`{
		"6": {"title": "Les Amoureux"},
		"7": {"name": ""},
		"8": null,
		"9": {}
	}`), &degraded))

	out, res := Normalize(canonicalRange(6, 9), degraded, Options{})

	assert.Equal(t, []int{8, 9}, res.Placeholders)
	assert.Equal(t, 2, res.Mapped)
	for _, c := range out[:2] {
		assert.Equal(t, fmt.Sprintf("es-name-%d", c.ID), c.Name, "empty name falls back")
		assert.Empty(t, c.Content.Daily, "mapped records never carry Spanish daily text")
		assert.Empty(t, c.Content.Gnosis)
	}
	assert.Equal(t, "es-daily-8", out[2].Content.Daily)
}

func TestNormalizeMistypedFieldsFallBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var degraded card.Degraded
	require.NoError(t, json.Unmarshal([]byte(`{
		"6": {"name": 123, "description": "d6"},
		"7": {"name": "Le Chariot", "categories": "oops"},
		"8": "oops"
	}`), &degraded))

	out, res := Normalize(canonicalRange(6, 8), degraded, Options{Logger: zap.New(core)})

	assert.Equal(t, []int{8}, res.Placeholders)
	assert.Equal(t, []int{6, 7}, res.Fallbacks)

	assert.Equal(t, "es-name-6", out[0].Name)
	assert.Equal(t, "d6", out[0].Content.Shadow)
	assert.Equal(t, "Le Chariot", out[1].Name)
	assert.Equal(t, "es-archetype-7", out[1].Content.Archetype)
	assert.Equal(t, "es-mysticism-7", out[1].Content.Mysticism)
	assert.Equal(t, "es-connection-7", out[1].Content.BiblicalResonance.Connection)
	if diff := cmp.Diff(canonicalCard(8), out[2], ignorePresence); diff != "" {
		t.Errorf("non-object entry should be a placeholder:\n%s", diff)
	}

	require.Len(t, logs.All(), 3)
	assert.Equal(t, []interface{}{"categories.psychological", "categories.esoteric", "categories.theological"},
		logs.FilterField(zap.Int("id", 7)).All()[0].ContextMap()["fields"])
}

func TestNormalizeLogsPlaceholders(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	Normalize(canonicalRange(6, 7), card.Degraded{"6": {Name: "x"}}, Options{Logger: zap.New(core)})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ContextMap()["id"])
}

// Cards 6-10, translation holds 6, 7 and 9 with a description only.
func TestNormalizeRangeScenario(t *testing.T) {
	canonical := canonicalRange(6, 10)
	degraded := card.Degraded{
		"9": {Description: "desc-9"},
		"6": {Description: "desc-6"},
		"7": {Description: "desc-7"},
	}

	out, res := Normalize(canonical, degraded, Options{})

	require.Len(t, out, 5)
	assert.Equal(t, []int{8, 10}, res.Placeholders)

	for i, c := range out {
		es := canonical[i]
		require.Equal(t, es.ID, c.ID)
		require.Equal(t, es.Key, c.Key)

		if c.ID == 8 || c.ID == 10 {
			if diff := cmp.Diff(es, c, ignorePresence); diff != "" {
				t.Errorf("placeholder %d differs from canonical:\n%s", c.ID, diff)
			}
			continue
		}

		assert.Equal(t, fmt.Sprintf("desc-%d", c.ID), c.Content.Shadow)
		assert.Equal(t, es.Name, c.Name)
		assert.Equal(t, es.Content.Archetype, c.Content.Archetype)
		assert.Equal(t, es.Content.Mysticism, c.Content.Mysticism)
		assert.Equal(t, es.Content.BiblicalResonance, c.Content.BiblicalResonance)
		assert.Equal(t, "", c.Content.Daily)
		assert.Equal(t, "", c.Content.Botany)
		assert.Equal(t, "", c.Content.Gnosis)
	}
}

func writeJSON(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRepairRewritesInPlace(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "6-10.json")
	target := filepath.Join(dir, "6-10_fr.json")
	require.NoError(t, deck.Save(source, canonicalRange(6, 10)))
	writeJSON(t, target, `{"7": {"name": "Le Chariot", "description": "Le Chariot avance…"}, "6": {"name": "Les Amoureux"}}`)

	res, err := Repair(source, target, Options{})
	require.NoError(t, err)
	assert.Equal(t, Repaired, res.Status)
	assert.Equal(t, 2, res.Mapped)
	assert.Equal(t, []int{8, 9, 10}, res.Placeholders)

	f, err := deck.Load(target)
	require.NoError(t, err)
	require.True(t, f.IsCanonical())
	require.Len(t, f.Cards(), 5)
	assert.Equal(t, "Le Chariot avance…", f.Cards()[1].Content.Shadow)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Le Chariot avance…", "non-ASCII must not be escaped")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no staging file left behind")

	again, err := Repair(source, target, Options{})
	require.NoError(t, err)
	assert.Equal(t, AlreadyCanonical, again.Status)
}

func TestRepairKeepsGoodEntriesBesideMistypedOnes(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "6-7.json")
	target := filepath.Join(dir, "6-7_fr.json")
	require.NoError(t, deck.Save(source, canonicalRange(6, 7)))
	writeJSON(t, target, `{"6": {"name": "Les Amoureux", "description": "d6"}, "7": {"name": "Le Chariot", "categories": "oops"}}`)

	res, err := Repair(source, target, Options{})
	require.NoError(t, err)
	assert.Equal(t, Repaired, res.Status)
	assert.Equal(t, 2, res.Mapped)
	assert.Equal(t, []int{7}, res.Fallbacks)

	f, err := deck.Load(target)
	require.NoError(t, err)
	require.True(t, f.IsCanonical())
	cards := f.Cards()
	require.Len(t, cards, 2)
	assert.Equal(t, "Les Amoureux", cards[0].Name)
	assert.Equal(t, "d6", cards[0].Content.Shadow)
	assert.Equal(t, "Le Chariot", cards[1].Name)
	assert.Equal(t, "es-archetype-7", cards[1].Content.Archetype)
	assert.Equal(t, "es-mysticism-7", cards[1].Content.Mysticism)
}

func TestRepairDryRunLeavesFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "0-5.json")
	target := filepath.Join(dir, "0-5_de.json")
	require.NoError(t, deck.Save(source, canonicalRange(0, 5)))
	original := `{"0": {"name": "Der Narr"}}`
	writeJSON(t, target, original)

	res, err := Repair(source, target, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, DryRun, res.Status)
	assert.Len(t, res.Placeholders, 5)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestVerifyStagedRejectsWrongOutput(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "staged.json")

	require.NoError(t, deck.Save(staged, canonicalRange(0, 1)))
	assert.ErrorContains(t, verifyStaged(staged, canonicalRange(0, 2)), "expected 3")

	swapped := canonicalRange(0, 1)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	require.NoError(t, deck.Save(staged, swapped))
	assert.ErrorContains(t, verifyStaged(staged, canonicalRange(0, 1)), "record 0 is card 1")

	writeJSON(t, staged, `{"0": {}}`)
	assert.ErrorContains(t, verifyStaged(staged, canonicalRange(0, 0)), "not list-shaped")
}

func TestRepairDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, deck.Save(filepath.Join(dir, "0-5.json"), canonicalRange(0, 5)))
	require.NoError(t, deck.Save(filepath.Join(dir, "6-10.json"), canonicalRange(6, 10)))
	writeJSON(t, filepath.Join(dir, "0-5_fr.json"), `{"0": {"name": "Le Mat"}}`)
	require.NoError(t, deck.Save(filepath.Join(dir, "0-5_en.json"), canonicalRange(0, 5)))
	writeJSON(t, filepath.Join(dir, "6-10_fr.json"), `{"6": `)
	writeJSON(t, filepath.Join(dir, "11-15_fr.json"), `{}`)

	batch, err := RepairDir(dir, []string{"en", "fr", "ja"}, Options{})
	require.NoError(t, err)

	require.Len(t, batch.Results, 2)
	assert.Equal(t, AlreadyCanonical, batch.Results[0].Status)
	assert.Equal(t, Repaired, batch.Results[1].Status)
	assert.Len(t, batch.Errors, 1, "malformed 6-10_fr.json")
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "0-5_ja.json"),
		filepath.Join(dir, "6-10_en.json"),
		filepath.Join(dir, "6-10_ja.json"),
	}, batch.Skipped)

	f, err := deck.Load(filepath.Join(dir, "0-5_fr.json"))
	require.NoError(t, err)
	assert.True(t, f.IsCanonical())
}
