package validator

import "fmt"

// CheckCoverage checks that a translation is deployable: a list with as many
// cards as its source, whose first card carries a name, a content object and
// an archetype. Only the first card is sampled.
func CheckCoverage(translated any, expected int) error {
	list, ok := translated.([]any)
	if !ok {
		return fmt.Errorf("not a list")
	}
	if len(list) != expected {
		return fmt.Errorf("has %d cards, expected %d", len(list), expected)
	}
	if len(list) == 0 {
		return nil
	}

	sample, _ := list[0].(map[string]any)
	content, _ := sample["content"].(map[string]any)
	if !nonEmptyString(sample["name"]) || content == nil || !nonEmptyString(content["archetype"]) {
		return fmt.Errorf("first card is missing name, content or content.archetype")
	}
	return nil
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
