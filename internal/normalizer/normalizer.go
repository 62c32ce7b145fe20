package normalizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/starloop/cartomancer/internal/card"
	"github.com/starloop/cartomancer/internal/deck"
	"github.com/starloop/cartomancer/internal/validator"
)

// Options configures normalization and repair
type Options struct {
	Mapping Mapping     // DefaultMapping when nil
	Logger  *zap.Logger // Nop when nil
	DryRun  bool        // Repair stops before writing
}

func (o Options) mapping() Mapping {
	if o.Mapping == nil {
		return DefaultMapping
	}
	return o.Mapping
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Result summarizes one normalization
type Result struct {
	AlreadyCanonical bool
	Mapped           int   // Records built from degraded entries
	Placeholders     []int // Ids copied from the canonical record
	Fallbacks        []int // Mapped ids with mistyped fields replaced by canonical values
}

// Normalize turns a translation into canonical shape. A canonical-shaped
// source is returned unchanged. Otherwise the output has exactly one record
// per canonical id, in ascending id order. Ids missing from the degraded map,
// or whose entry is null, {} or not an object, get a copy of the canonical
// record; present ones go through the mapping.
func Normalize(canonical []card.Card, src card.Source, opts Options) ([]card.Card, Result) {
	if c, ok := src.(card.Canonical); ok {
		return []card.Card(c), Result{AlreadyCanonical: true}
	}

	// Anything that is not a degraded map has nothing to map from
	degraded, _ := src.(card.Degraded)

	log := opts.logger()
	mapping := opts.mapping()

	var result Result
	ordered := card.SortByID(canonical)
	out := make([]card.Card, 0, len(ordered))
	for _, c := range ordered {
		raw, ok := degraded.Lookup(c.ID)
		if !ok || raw.Empty() || raw.Malformed() {
			msg := "Card missing from translation, using canonical record as placeholder"
			if raw.Malformed() {
				msg = "Translation entry is not an object, using canonical record as placeholder"
			}
			log.Warn(msg, zap.Int("id", c.ID), zap.String("key", c.Key))
			out = append(out, c.Clone())
			result.Placeholders = append(result.Placeholders, c.ID)
			continue
		}

		if bad := raw.Invalid(); len(bad) > 0 {
			fields := make([]string, len(bad))
			for i, f := range bad {
				fields[i] = string(f)
			}
			log.Warn("Ignoring mistyped translation fields, canonical values used",
				zap.Int("id", c.ID), zap.Strings("fields", fields))
			result.Fallbacks = append(result.Fallbacks, c.ID)
		}

		out = append(out, mapping.Apply(c, raw))
		result.Mapped++
	}

	return out, result
}

// Status is the outcome of Repair
type Status int

const (
	Repaired Status = iota
	AlreadyCanonical
	DryRun
)

func (s Status) String() string {
	switch s {
	case Repaired:
		return "repaired"
	case AlreadyCanonical:
		return "already a list"
	case DryRun:
		return "dry run"
	}
	return "unknown"
}

// RepairResult describes the repair of one translation file
type RepairResult struct {
	Path   string
	Status Status
	Result
}

// Repair rewrites a degraded translation file into canonical shape. The
// output is staged next to the original, reloaded and verified, then renamed
// over it. On any failure the original is left untouched.
func Repair(canonicalPath, targetPath string, opts Options) (RepairResult, error) {
	res := RepairResult{Path: targetPath}

	source, err := deck.Load(canonicalPath)
	if err != nil {
		return res, err
	}
	if !source.IsCanonical() {
		return res, fmt.Errorf("canonical file %s is not list-shaped", canonicalPath)
	}

	target, err := deck.Load(targetPath)
	if err != nil {
		return res, err
	}

	opts.Logger = opts.logger().With(zap.String("file", targetPath))
	cards, result := Normalize(source.Cards(), target.Source, opts)
	res.Result = result

	switch {
	case result.AlreadyCanonical:
		res.Status = AlreadyCanonical
		return res, nil
	case opts.DryRun:
		res.Status = DryRun
		return res, nil
	}

	if err := replace(targetPath, cards, source.Cards()); err != nil {
		return res, err
	}
	res.Status = Repaired
	opts.Logger.Info("Translation rewritten",
		zap.Int("mapped", result.Mapped), zap.Int("placeholders", len(result.Placeholders)))
	return res, nil
}

// replace stages cards in a temp file, verifies it and renames it over path
func replace(path string, cards, canonical []card.Card) (err error) {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %v", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error staging %s: %v", path, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err = deck.Save(tmpPath, cards); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("error setting mode on %s: %v", tmpPath, err)
	}

	if err = verifyStaged(tmpPath, canonical); err != nil {
		return fmt.Errorf("staged output for %s failed verification: %w", path, err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("error replacing %s: %v", path, err)
	}
	return nil
}

// verifyStaged reloads a staged file and checks it holds one complete
// record per canonical id, in order
func verifyStaged(path string, canonical []card.Card) error {
	f, err := deck.Load(path)
	if err != nil {
		return err
	}
	if !f.IsCanonical() {
		return fmt.Errorf("output is not list-shaped")
	}

	want := card.SortByID(canonical)
	got := f.Cards()
	if len(got) != len(want) {
		return fmt.Errorf("output has %d cards, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Key != want[i].Key {
			return fmt.Errorf("record %d is card %d (%s), expected %d (%s)",
				i, got[i].ID, got[i].Key, want[i].ID, want[i].Key)
		}
	}

	if report := validator.CheckCompleteness(got, 0); len(report.Issues) > 0 {
		return fmt.Errorf("%s", report.Issues[0])
	}
	return nil
}

// BatchResult collects the outcome of RepairDir
type BatchResult struct {
	Results []RepairResult
	Skipped []string // Translation files that do not exist
	Errors  []error
}

// RepairDir repairs the translations of every range in dir for the given
// languages. Missing files are skipped and failures are collected; the batch
// always visits every file.
func RepairDir(dir string, langs []string, opts Options) (BatchResult, error) {
	var batch BatchResult

	ranges, err := deck.Discover(dir)
	if err != nil {
		return batch, err
	}

	log := opts.logger()
	for _, r := range ranges {
		if r.Canonical == "" {
			log.Warn("Skipping range without source file", zap.String("range", r.Name))
			continue
		}

		for _, lang := range langs {
			target := r.TranslationPath(lang)
			res, err := Repair(r.Canonical, target, opts)
			if err != nil {
				if deck.IsNotFound(err) && pathOf(err) == target {
					log.Debug("Translation not found, skipping", zap.String("file", target))
					batch.Skipped = append(batch.Skipped, target)
					continue
				}
				log.Error("Repair failed", zap.String("file", target), zap.Error(err))
				batch.Errors = append(batch.Errors, err)
				continue
			}
			batch.Results = append(batch.Results, res)
		}
	}

	return batch, nil
}

func pathOf(err error) string {
	var le *deck.LoadError
	if errors.As(err, &le) {
		return le.Path
	}
	return ""
}
