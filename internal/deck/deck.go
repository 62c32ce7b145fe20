package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/starloop/cartomancer/internal/card"
)

// Kind classifies load failures
type Kind int

const (
	NotFound Kind = iota
	Malformed
	SchemaMismatch
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Malformed:
		return "malformed"
	case SchemaMismatch:
		return "schema mismatch"
	}
	return "unknown"
}

// LoadError is returned by ReadRaw and Load
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a LoadError of kind NotFound.
// Callers treat it as "skip this optional file".
func IsNotFound(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == NotFound
}

// File is a parsed range file
type File struct {
	Path   string
	Raw    any
	Source card.Source
}

// Cards returns the records of a canonical file, nil for a degraded one
func (f *File) Cards() []card.Card {
	if c, ok := f.Source.(card.Canonical); ok {
		return c
	}
	return nil
}

// IsCanonical reports whether the file is list-shaped
func (f *File) IsCanonical() bool {
	_, ok := f.Source.(card.Canonical)
	return ok
}

// ReadRaw reads a file and parses it as generic JSON. It does not look at the schema.
func ReadRaw(path string) (any, error) {
	_, raw, err := read(path)
	return raw, err
}

func read(path string) ([]byte, any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &LoadError{Kind: NotFound, Path: path}
		}
		return nil, nil, &LoadError{Kind: Malformed, Path: path, Err: err}
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &LoadError{Kind: Malformed, Path: path, Err: err}
	}
	return data, raw, nil
}

// Load reads a range file and resolves its shape: a list is canonical,
// an object keyed by card id is degraded.
func Load(path string) (*File, error) {
	data, raw, err := read(path)
	if err != nil {
		return nil, err
	}

	f := &File{Path: path, Raw: raw}
	switch raw.(type) {
	case []any:
		var cards []card.Card
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, &LoadError{Kind: SchemaMismatch, Path: path, Err: err}
		}
		f.Source = card.Canonical(cards)
	case map[string]any:
		// Entries decode one at a time so a bad entry cannot sink the file
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, &LoadError{Kind: SchemaMismatch, Path: path, Err: err}
		}
		records := make(card.Degraded, len(entries))
		for id, entry := range entries {
			var r card.RawRecord
			if err := json.Unmarshal(entry, &r); err != nil {
				return nil, &LoadError{Kind: SchemaMismatch, Path: path, Err: fmt.Errorf("entry %s: %w", id, err)}
			}
			records[id] = r
		}
		f.Source = records
	default:
		return nil, &LoadError{Kind: SchemaMismatch, Path: path,
			Err: fmt.Errorf("expected a list or an object, got %T", raw)}
	}

	return f, nil
}

// Save writes cards as a 4-space indented JSON list, replacing the file
// content. Non-ASCII text is written as is.
func Save(path string, cards []card.Card) error {
	data, err := encode(cards)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing %s: %v", path, err)
	}
	return nil
}

func encode(cards []card.Card) ([]byte, error) {
	if cards == nil {
		cards = []card.Card{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(cards); err != nil {
		return nil, fmt.Errorf("error encoding cards: %v", err)
	}
	return buf.Bytes(), nil
}

// Range is a block of card ids with its canonical file and translations
type Range struct {
	Name         string // e.g. "6-10"
	Lo, Hi       int
	Dir          string
	Canonical    string            // Path of the Spanish source, "" when absent
	Translations map[string]string // Language code to path
}

var rangeFilePattern = regexp.MustCompile(`^(\d+)-(\d+)(?:_([a-z]{2}))?\.json$`)

// ParseRangeFile splits a range file name into its bounds and language.
// The language is "" for canonical files.
func ParseRangeFile(name string) (lo, hi int, lang string, ok bool) {
	m := rangeFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, "", false
	}
	lo, _ = strconv.Atoi(m[1])
	hi, _ = strconv.Atoi(m[2])
	return lo, hi, m[3], true
}

// TranslationPath returns where the translation for lang lives, whether or not it exists
func (r Range) TranslationPath(lang string) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s_%s.json", r.Name, lang))
}

// CanonicalPath returns where the canonical file lives, whether or not it exists
func (r Range) CanonicalPath() string {
	return filepath.Join(r.Dir, r.Name+".json")
}

// Languages returns the languages with a translation file, sorted
func (r Range) Languages() []string {
	langs := make([]string, 0, len(r.Translations))
	for l := range r.Translations {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Discover lists the range files in dir, sorted by their first card id
func Discover(dir string) ([]Range, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading data directory: %v", err)
	}

	byName := make(map[string]*Range)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lo, hi, lang, ok := ParseRangeFile(entry.Name())
		if !ok {
			continue
		}

		name := strings.SplitN(strings.TrimSuffix(entry.Name(), ".json"), "_", 2)[0]
		r, ok := byName[name]
		if !ok {
			r = &Range{Name: name, Lo: lo, Hi: hi, Dir: dir, Translations: make(map[string]string)}
			byName[name] = r
		}

		path := filepath.Join(dir, entry.Name())
		if lang == "" {
			r.Canonical = path
		} else {
			r.Translations[lang] = path
		}
	}

	ranges := make([]Range, 0, len(byName))
	for _, r := range byName {
		ranges = append(ranges, *r)
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Lo != ranges[j].Lo {
			return ranges[i].Lo < ranges[j].Lo
		}
		return ranges[i].Hi < ranges[j].Hi
	})
	return ranges, nil
}

// FindCard looks a card up by id in the range covering it. With a language,
// the translation file is used; it must be canonical-shaped.
func FindCard(dir string, id int, lang string) (*card.Card, error) {
	ranges, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	for _, r := range ranges {
		if id < r.Lo || id > r.Hi {
			continue
		}

		path := r.CanonicalPath()
		if lang != "" {
			path = r.TranslationPath(lang)
		}

		f, err := Load(path)
		if err != nil {
			return nil, err
		}
		if !f.IsCanonical() {
			return nil, fmt.Errorf("%s is not list-shaped, run 'cartomancer fix' first", path)
		}

		for _, c := range f.Cards() {
			if c.ID == id {
				return &c, nil
			}
		}
		return nil, fmt.Errorf("card %d not found in %s", id, path)
	}

	return nil, fmt.Errorf("no range file covers card %d", id)
}
