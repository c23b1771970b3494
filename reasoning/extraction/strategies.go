package extraction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/krump3t/astra-graphrag/graphindex"
)

// UnitFilteredMnemonics returns curve mnemonics matching unitFilter, via the
// graph when available and falling back to a scan of retrievedTexts.
func UnitFilteredMnemonics(unitFilter string, retrievedTexts []string, graph *graphindex.Graph) (string, bool) {
	target := strings.ToLower(unitFilter)

	if graph != nil {
		matched := graph.CurvesByUnit(target)
		if len(matched) > 0 {
			uniq := dedupe(matched)
			sort.Strings(uniq)
			switch {
			case len(uniq) == 1:
				return uniq[0], true
			case len(uniq) <= 10:
				return strings.Join(uniq, ", "), true
			default:
				return fmt.Sprintf("%d curves found: %s...", len(uniq), strings.Join(uniq[:10], ", ")), true
			}
		}
	}

	var fallback []string
	for _, text := range retrievedTexts {
		unit, ok := extractFromAttributesSection(text, "unit")
		if !ok || strings.ToLower(unit) != target {
			continue
		}
		if mnemonic, ok := extractFromAttributesSection(text, "mnemonic"); ok {
			fallback = append(fallback, strings.ToUpper(mnemonic))
		}
	}

	if len(fallback) == 0 {
		return "", false
	}
	uniq := dedupe(fallback)
	if len(uniq) == 1 {
		return uniq[0], true
	}
	sort.Strings(uniq)
	return strings.Join(uniq, ", "), true
}

// TemporalAttribute extracts a year or date value from the first matching
// retrieved text.
func TemporalAttribute(attributeName string, retrievedTexts []string) (string, bool) {
	for _, text := range retrievedTexts {
		if value, ok := extractTemporalFromText(text, attributeName); ok {
			return value, true
		}
	}
	return "", false
}

// StateAttribute formats a state as "ABBR (Full Name)" where possible.
func StateAttribute(retrievedTexts []string) (string, bool) {
	var states []string
	for _, text := range retrievedTexts {
		if value, ok := extractFromAttributesSection(text, "state"); ok {
			states = append(states, strings.TrimSpace(value))
		}
	}

	if len(states) > 0 {
		raw := states[0]
		upper := strings.ToUpper(raw)
		if full, ok := usStateAbbrev[upper]; ok {
			return formatAttributeValue("state", fmt.Sprintf("%s (%s)", upper, full)), true
		}
		full := normalizeState(raw)
		if abbr, ok := stateNameToAbbr[full]; ok {
			return formatAttributeValue("state", fmt.Sprintf("%s (%s)", abbr, full)), true
		}
		return formatAttributeValue("state", full), true
	}

	for _, text := range retrievedTexts {
		location, ok := extractLocationFromText(text)
		if !ok {
			continue
		}
		if state, ok := extractStateFromLocation(location); ok {
			full := normalizeState(state)
			if abbr, ok := stateNameToAbbr[full]; ok {
				return formatAttributeValue("state", fmt.Sprintf("%s (%s)", abbr, full)), true
			}
			return formatAttributeValue("state", full), true
		}
		return "Location: " + location, true
	}

	return "", false
}

// LocationAttribute answers "where is X" style queries with "City, State".
func LocationAttribute(query string, retrievedTexts []string) (string, bool) {
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "where") && !strings.Contains(lower, "located") {
		return "", false
	}

	for _, text := range retrievedTexts {
		location, ok := extractLocationFromText(text)
		if !ok {
			continue
		}
		city, cityOK := extractCityFromLocation(location)
		state, stateOK := extractStateFromLocation(location)

		switch {
		case cityOK && stateOK:
			return fmt.Sprintf("Location: %s, %s", city, state), true
		case stateOK:
			return formatAttributeValue("state", normalizeState(state)), true
		default:
			return "Location: " + location, true
		}
	}

	return "", false
}

// WellAttribute returns the well's WELL attribute as "Well name: <value>".
func WellAttribute(retrievedTexts []string) (string, bool) {
	for _, text := range retrievedTexts {
		if value, ok := extractFromAttributesSection(text, "well"); ok {
			return formatAttributeValue("well", value), true
		}
	}
	return "", false
}

// MnemonicWithDescriptions lists curve mnemonics paired with descriptions.
func MnemonicWithDescriptions(retrievedTexts []string) (string, bool) {
	var details []string
	for _, text := range retrievedTexts {
		mnemonic, hasMnemonic := extractFromAttributesSection(text, "mnemonic")
		if !hasMnemonic {
			continue
		}
		if description, ok := extractFromAttributesSection(text, "description"); ok {
			details = append(details, fmt.Sprintf("%s (%s)", mnemonic, description))
		} else {
			details = append(details, mnemonic)
		}
	}

	if len(details) == 0 {
		return "", false
	}
	if len(details) == 1 {
		return details[0], true
	}
	if len(details) <= 5 {
		return strings.Join(details, ", "), true
	}
	return fmt.Sprintf("%d curves found: %s...", len(details), strings.Join(details[:5], ", ")), true
}

// GenericAttribute is the fallback: a single value, a short comma-separated
// list, or a truncated "N different values found" summary.
func GenericAttribute(attributeName string, retrievedTexts []string) (string, bool) {
	values := extractMultipleValues(retrievedTexts, attributeName)
	if len(values) == 0 {
		return "", false
	}
	if len(values) == 1 {
		return formatAttributeValue(attributeName, values[0]), true
	}
	if len(values) <= 5 {
		return strings.Join(values, ", "), true
	}
	return fmt.Sprintf("%d different values found: %s...", len(values), strings.Join(values[:5], ", ")), true
}

// Answer dispatches through the seven sub-strategies in spec order, returning
// the first that produces a value.
func Answer(query string, retrievedTexts []string, detection Detection, graph *graphindex.Graph) (string, bool) {
	if detection.UnitFilter != "" {
		if result, ok := UnitFilteredMnemonics(detection.UnitFilter, retrievedTexts, graph); ok {
			return result, true
		}
	}

	if detection.AttributeName == "year" || detection.AttributeName == "date" {
		if result, ok := TemporalAttribute(detection.AttributeName, retrievedTexts); ok {
			return result, true
		}
	}

	if detection.AttributeName == "state" {
		if result, ok := StateAttribute(retrievedTexts); ok {
			return result, true
		}
	}

	if result, ok := LocationAttribute(query, retrievedTexts); ok {
		return result, true
	}

	if detection.AttributeName == "well" {
		if result, ok := WellAttribute(retrievedTexts); ok {
			return result, true
		}
	}

	if detection.AttributeName == "mnemonic" {
		if result, ok := MnemonicWithDescriptions(retrievedTexts); ok {
			return result, true
		}
	}

	return GenericAttribute(detection.AttributeName, retrievedTexts)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
