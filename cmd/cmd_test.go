package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starloop/cartomancer/internal/card"
	"github.com/starloop/cartomancer/internal/config"
	"github.com/starloop/cartomancer/internal/deck"
)

func fullCard(id int, key, name string) card.Card {
	text := strings.Repeat("texto ", 30)
	return card.Card{
		ID:   id,
		Key:  key,
		Name: name,
		Content: card.Content{
			Archetype: text, Shadow: text, Mysticism: text,
			Daily: text, Botany: text, Gnosis: text,
			BiblicalResonance: card.BiblicalResonance{
				Quote: "Hágase la luz", Reference: "Génesis 1:3", Connection: text,
			},
		},
	}
}

// run executes the root command against a fresh config and data dir
func run(t *testing.T, dir string, args ...string) error {
	t.Helper()
	return runWithConfig(t, filepath.Join(t.TempDir(), "config.toml"), dir, args...)
}

func runWithConfig(t *testing.T, cfgFile, dir string, args ...string) error {
	t.Helper()

	verbose, dataDir, configPath = false, "", ""
	fixDryRun, fixLangs = false, nil
	verifyLangs, parityByID = nil, false
	compareSection, compareLang, deepLangs = "", "en", nil
	showLang, askLang = "", ""

	RootCmd.SetArgs(append([]string{"--config", cfgFile, "--data-dir", dir}, args...))
	return RootCmd.Execute()
}

func setupData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, deck.Save(filepath.Join(dir, "0-1.json"), []card.Card{
		fullCard(0, "fool", "El Loco"),
		fullCard(1, "magician", "El Mago"),
	}))
	return dir
}

func TestFixRepairsDegradedTranslation(t *testing.T) {
	dir := setupData(t)
	target := filepath.Join(dir, "0-1_en.json")
	require.NoError(t, os.WriteFile(target,
		[]byte(`{"1": {"name": "The Magician", "description": "Will made manifest"}}`), 0644))

	require.NoError(t, run(t, dir, "fix", "--lang", "en"))

	f, err := deck.Load(target)
	require.NoError(t, err)
	require.True(t, f.IsCanonical())
	assert.Equal(t, "El Loco", f.Cards()[0].Name, "placeholder from the source")
	assert.Equal(t, "The Magician", f.Cards()[1].Name)
	assert.Equal(t, "Will made manifest", f.Cards()[1].Content.Shadow)
}

func TestFixDryRunWritesNothing(t *testing.T) {
	dir := setupData(t)
	target := filepath.Join(dir, "0-1_pt.json")
	original := []byte(`{"0": {"name": "O Louco"}}`)
	require.NoError(t, os.WriteFile(target, original, 0644))

	require.NoError(t, run(t, dir, "fix", "--dry-run", "--lang", "pt"))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestVerifyParity(t *testing.T) {
	dir := setupData(t)
	require.NoError(t, deck.Save(filepath.Join(dir, "0-1_en.json"), []card.Card{
		fullCard(0, "fool", "The Fool"),
		fullCard(1, "magician", "The Magician"),
	}))
	require.NoError(t, run(t, dir, "verify", "parity"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0-1_fr.json"),
		[]byte(`[{"id": 0, "name": "Le Mat"}, {"id": 1, "name": "Le Bateleur"}]`), 0644))
	assert.ErrorContains(t, run(t, dir, "verify", "parity"), "failed the parity check")
}

func TestVerifyCoverageReportsMissingLanguages(t *testing.T) {
	dir := setupData(t)
	require.NoError(t, deck.Save(filepath.Join(dir, "0-1_en.json"), []card.Card{
		fullCard(0, "fool", "The Fool"),
		fullCard(1, "magician", "The Magician"),
	}))

	assert.NoError(t, run(t, dir, "verify", "coverage", "--lang", "en"))
	assert.ErrorContains(t, run(t, dir, "verify", "coverage", "--lang", "en", "--lang", "ja"), "incomplete")
}

func TestVerifyComplete(t *testing.T) {
	dir := setupData(t)
	assert.NoError(t, run(t, dir, "verify", "complete"))

	broken := filepath.Join(dir, "2-2.json")
	require.NoError(t, os.WriteFile(broken, []byte(`[{"id": 2, "key": "priestess", "content": {"archetype": "x"}}]`), 0644))
	assert.ErrorContains(t, run(t, dir, "verify", "complete", broken), "1 of 1 files")

	missing := filepath.Join(dir, "3-3_en.json")
	assert.NoError(t, run(t, dir, "verify", "complete", missing), "missing files are skipped")
	assert.ErrorContains(t, run(t, dir, "verify", "complete", missing, broken), "1 of 1 files")
}

func TestCompareRejectsUnknownSection(t *testing.T) {
	dir := setupData(t)
	assert.ErrorContains(t, run(t, dir, "compare", "--section", "astrology"), "unknown section")
	assert.ErrorContains(t, run(t, dir, "compare", "--section", "biblical_resonance"), "no text")
}

func TestShowAndAskArguments(t *testing.T) {
	dir := setupData(t)
	assert.NoError(t, run(t, dir, "show", "1"))
	assert.ErrorContains(t, run(t, dir, "show", "fool"), "invalid card id")
	assert.ErrorContains(t, run(t, dir, "show", "7"), "no range file covers card 7")

	t.Setenv("GEMINI_API_KEY", "")
	assert.ErrorContains(t, run(t, dir, "ask", "1", "What now?"), "GEMINI_API_KEY")
}

func TestDeckCommands(t *testing.T) {
	dir := setupData(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cfgFile := filepath.Join(t.TempDir(), "alt.toml")

	assert.NoError(t, run(t, dir, "deck", "ls"))
	require.NoError(t, runWithConfig(t, cfgFile, dir, "deck", "set-dir", dir))

	saved, err := config.LoadFile(cfgFile)
	require.NoError(t, err)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, saved.DataDir)

	_, err = os.Stat(filepath.Join(xdg, "cartomancer", "config.toml"))
	assert.True(t, os.IsNotExist(err), "set-dir writes the file given with --config")
}

func TestCompareRuns(t *testing.T) {
	dir := setupData(t)
	require.NoError(t, deck.Save(filepath.Join(dir, "0-1_en.json"), []card.Card{
		fullCard(0, "fool", "The Fool"),
		fullCard(1, "magician", "The Magician"),
	}))

	assert.NoError(t, run(t, dir, "compare"))
	assert.NoError(t, run(t, dir, "compare", "deep", "--lang", "en"))
}

func TestWrapText(t *testing.T) {
	lines := wrapText("uno dos tres cuatro cinco seis", 10)
	assert.Equal(t, []string{"uno dos", "tres", "cuatro", "cinco seis"}, lines)

	assert.Equal(t, []string{""}, wrapText("   ", 40))
	assert.Equal(t, []string{"日本語 日本語", "日本語"}, wrapText("日本語 日本語 日本語", 13),
		"wide runes take two columns")

	unspaced := wrapText(strings.Repeat("愚者", 12), 10)
	assert.Equal(t, []string{"愚者愚者愚", "者愚者愚者", "愚者愚者愚", "者愚者愚者", "愚者愚者"}, unspaced)
	for _, l := range unspaced {
		assert.LessOrEqual(t, displayWidth(l), 10)
	}

	assert.Equal(t, []string{"abcdefghij", "klm nop"}, wrapText("abcdefghijklm nop", 10))
}
