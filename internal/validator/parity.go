package validator

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects how list items are paired for the key-parity check
type Mode int

const (
	// Positional pairs item i of the source with item i of the translation.
	// A reordered translation produces false mismatches.
	Positional Mode = iota
	// ByID pairs items by their "id" field
	ByID
)

// ParityReport lists the structural differences between a source file and its translation
type ParityReport struct {
	Failures []string
}

// Passed reports whether the translation matches the source structure
func (r ParityReport) Passed() bool {
	return len(r.Failures) == 0
}

func (r *ParityReport) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// CheckParity compares the structure of two generically parsed JSON documents.
// Both must be lists of objects of the same length, or both objects; every key
// of a source item must be present on its translated counterpart.
func CheckParity(source, translated any, mode Mode) ParityReport {
	var report ParityReport

	switch src := source.(type) {
	case []any:
		trans, ok := translated.([]any)
		if !ok {
			report.fail("Structure mismatch with source.")
			return report
		}
		if len(src) != len(trans) {
			report.fail("Length mismatch. Source: %d, Trans: %d", len(src), len(trans))
			return report
		}
		if mode == ByID {
			checkItemsByID(&report, src, trans)
		} else {
			for i := range src {
				if missing := missingKeys(src[i], trans[i]); len(missing) > 0 {
					report.fail("Item %d: Missing keys: %s", i, formatKeySet(missing))
				}
			}
		}
	case map[string]any:
		trans, ok := translated.(map[string]any)
		if !ok {
			report.fail("Structure mismatch with source.")
			return report
		}
		if missing := missingKeys(src, trans); len(missing) > 0 {
			report.fail("Missing keys: %s", formatKeySet(missing))
		}
	default:
		report.fail("Structure mismatch with source.")
	}

	return report
}

func checkItemsByID(report *ParityReport, src, trans []any) {
	byID := make(map[string]any, len(trans))
	for i, item := range trans {
		id, ok := itemID(item)
		if !ok {
			report.fail("Item %d: translated item has no id", i)
			continue
		}
		byID[id] = item
	}

	for i, item := range src {
		id, ok := itemID(item)
		if !ok {
			report.fail("Item %d: source item has no id", i)
			continue
		}
		counterpart, ok := byID[id]
		if !ok {
			report.fail("Card %s: missing in translation", id)
			continue
		}
		if missing := missingKeys(item, counterpart); len(missing) > 0 {
			report.fail("Card %s: Missing keys: %s", id, formatKeySet(missing))
		}
	}
}

func itemID(item any) (string, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := obj["id"]
	if !ok || id == nil {
		return "", false
	}
	return fmt.Sprint(id), true
}

// missingKeys returns the keys of src that trans lacks, sorted.
// A value that is not an object has no keys.
func missingKeys(src, trans any) []string {
	srcObj, _ := src.(map[string]any)
	transObj, _ := trans.(map[string]any)

	var missing []string
	for k := range srcObj {
		if _, ok := transObj[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// formatKeySet renders keys as a set literal, e.g. {'name', 'key'}
func formatKeySet(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}
