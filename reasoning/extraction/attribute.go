// Package extraction implements the structured attribute-lookup strategies
// used when a query asks for a specific well/site/curve attribute rather
// than a free-form answer.
package extraction

import (
	"regexp"
	"strings"
)

// USStateAbbrev maps two-letter state/territory codes to their full names.
// Shared with the aggregation package for state-filter detection.
var USStateAbbrev = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "FL": "Florida", "GA": "Georgia",
	"HI": "Hawaii", "ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
	"DC": "District of Columbia",
}

var usStateAbbrev = USStateAbbrev

var stateNameToAbbr = buildNameToAbbr()

func buildNameToAbbr() map[string]string {
	m := make(map[string]string, len(usStateAbbrev))
	for abbr, name := range usStateAbbrev {
		m[name] = abbr
	}
	return m
}

var attributeLabels = map[string]string{
	"site_code": "USGS site code",
	"site_name": "Site name",
	"state":     "State",
	"well":      "Well name",
}

var attributeAliases = map[string][]string{
	"site_name": {"site_name", "station_name", "name of site", "site name", "station name", "NAME"},
	"state":     {"state", "site_state", "us_state", "state_code", "STATE"},
	"well":      {"well", "well_name"},
}

// AttributePatterns maps a closed set of attribute names to phrases that
// indicate a user is asking for that attribute.
var AttributePatterns = map[string][]string{
	"well":         {"well name", "name of the well", "what is the well name"},
	"domain":       {"domain", "data domain"},
	"site_code":    {"site code", "usgs code", "station code", "site number", "site id"},
	"site_name":    {"site name", "station name", "name of the site", "name of the station", "monitoring site name"},
	"mnemonic":     {"curve code", "mnemonic", "curve name", "which curve", "curve mnemonic", "log code", "curve abbreviation", "what curve", "curves measure", "curve represents", "porosity measurements", "gamma ray"},
	"description":  {"what does", "curve measure", "what is measured", "measures what", "types of"},
	"state":        {"what state", "which state", "state located", "in which state"},
	"county":       {"what county", "which county", "county located"},
	"operator":     {"operator", "company", "who operates", "well operator"},
	"api_number":   {"api number", "api code", "well api", "api identifier"},
	"year":         {"most recent year", "latest year", "what year", "which year", "year represented", "recent year"},
	"date":         {"most recent date", "latest date", "when was", "date of"},
}

var attributeOrder = []string{
	"well", "domain", "site_code", "site_name", "mnemonic", "description",
	"state", "county", "operator", "api_number", "year", "date",
}

// Detection is the result of recognizing an attribute-lookup query.
type Detection struct {
	AttributeName  string
	QueryType      string
	UnitFilter     string
	Confidence     float64
	PatternMatched string
}

// DetectAttributeQuery identifies an attribute-lookup intent, if any.
func DetectAttributeQuery(query string) (Detection, bool) {
	lower := strings.ToLower(query)

	if (strings.Contains(lower, "unit") || strings.Contains(lower, "units")) &&
		(strings.Contains(lower, "ohm.m") || strings.Contains(lower, "ohm m") || strings.Contains(lower, "ohm-m")) {
		return Detection{AttributeName: "mnemonic", QueryType: "unit_filtered_mnemonics", UnitFilter: "ohm.m", Confidence: 0.9, PatternMatched: "unit:ohm.m"}, true
	}

	for _, attr := range attributeOrder {
		for _, pattern := range AttributePatterns[attr] {
			if strings.Contains(lower, pattern) {
				return Detection{AttributeName: attr, QueryType: "attribute_lookup", Confidence: 0.9, PatternMatched: pattern}, true
			}
		}
	}

	return Detection{}, false
}

// ShouldUseStructuredExtraction mirrors the gate applied before the
// StructuredExtraction strategy runs: aggregation queries and
// "explain/compare/why" style questions are excluded.
func ShouldUseStructuredExtraction(query string, isAggregation bool) bool {
	if isAggregation {
		return false
	}

	lower := strings.ToLower(query)
	for _, keyword := range []string{"why", "how does", "explain", "compare", "difference between", "relationship", "what is the effect"} {
		if strings.Contains(lower, keyword) {
			return false
		}
	}

	_, ok := DetectAttributeQuery(query)
	return ok
}

func formatAttributeValue(name, value string) string {
	if label, ok := attributeLabels[name]; ok {
		return label + ": " + value
	}
	return value
}

var attrSectionPatterns = map[string][]*regexp.Regexp{}

func attributeSectionPattern(name string) []*regexp.Regexp {
	if cached, ok := attrSectionPatterns[name]; ok {
		return cached
	}
	quoted := regexp.QuoteMeta(name)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?im)- ` + quoted + `:\s*(.+?)\s*$`),
		regexp.MustCompile(`(?im)` + quoted + `:\s*(.+?)\s*$`),
	}
	attrSectionPatterns[name] = patterns
	return patterns
}

// extractFromAttributesSection finds "- name: value" or "name: value" lines,
// then known aliases, then a bracketed "[NAME] value" tag.
func extractFromAttributesSection(text, attributeName string) (string, bool) {
	for _, pattern := range attributeSectionPattern(attributeName) {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}

	for _, alias := range attributeAliases[attributeName] {
		pattern := regexp.MustCompile(`(?im)- ` + regexp.QuoteMeta(alias) + `:\s*(.+?)\s*$`)
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}

	tag := strings.ToUpper(attributeName)
	tagPattern := regexp.MustCompile(`\[` + regexp.QuoteMeta(tag) + `\]\s*([^\[\]\r\n]+)`)
	if m := tagPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	return "", false
}

var (
	yearPattern     = regexp.MustCompile(`(?m)YEAR:\s*(\d{4})`)
	temporalPattern = regexp.MustCompile(`(?m)TEMPORAL:?\s*.*?(\d{4})`)
	anyYearPattern  = regexp.MustCompile(`(\d{4})`)
	temporalDate    = regexp.MustCompile(`(?m)TEMPORAL:\s*(.+?)(?:\n|$)`)
)

func extractTemporalFromText(text, attributeName string) (string, bool) {
	if attributeName == "year" {
		if m := yearPattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
		if m := temporalPattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
		if value, ok := extractFromAttributesSection(text, "year"); ok {
			if m := anyYearPattern.FindStringSubmatch(value); m != nil {
				return m[1], true
			}
		}
	}
	if attributeName == "date" {
		if m := temporalDate.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
		for _, key := range []string{"date", "datetime", "measurement_dt", "timestamp"} {
			if value, ok := extractFromAttributesSection(text, key); ok {
				return value, true
			}
		}
	}
	return "", false
}

var (
	locationLine = regexp.MustCompile(`(?m)LOCATION:\s*(.+?)(?:\n|$)`)
	stateLine    = regexp.MustCompile(`(?m)STATE:\s*(.+?)(?:\n|$)`)
	locationTag  = regexp.MustCompile(`(?i)\[(?:LOCATION|SITE_NAME)\]\s*([^\[\]\r\n]+)`)
)

func extractLocationFromText(text string) (string, bool) {
	if m := locationLine.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := stateLine.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if value, ok := extractFromAttributesSection(text, "site_name"); ok {
		return value, true
	}
	if m := locationTag.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

func normalizeState(value string) string {
	return strings.Title(strings.ToLower(strings.TrimSpace(value)))
}

var stateAbbrevBoundary = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(usStateAbbrev))
	for abbr := range usStateAbbrev {
		m[abbr] = regexp.MustCompile(`\b` + abbr + `\b`)
	}
	return m
}()

func extractStateFromLocation(locationText string) (string, bool) {
	if locationText == "" {
		return "", false
	}
	upper := strings.ToUpper(locationText)
	for abbr, name := range usStateAbbrev {
		if stateAbbrevBoundary[abbr].MatchString(upper) {
			return name, true
		}
	}
	for name := range stateNameToAbbr {
		if strings.Contains(upper, strings.ToUpper(name)) {
			return name, true
		}
	}
	return "", false
}

var (
	parenStrip     = regexp.MustCompile(`\([^)]*\)`)
	trailingState  = regexp.MustCompile(`,\s*([A-Z]{2})\b`)
	directionSplit = regexp.MustCompile(`\b(NEAR|AT|UPSTREAM FROM|DOWNSTREAM FROM|UPSTREAM|DOWNSTREAM|NORTH OF|SOUTH OF|EAST OF|WEST OF)\b`)
)

var directionalTokens = map[string]bool{
	"NE": true, "NW": true, "SE": true, "SW": true, "N": true, "S": true, "E": true, "W": true,
	"NORTH": true, "SOUTH": true, "EAST": true, "WEST": true,
}

var featureStopwords = map[string]bool{
	"RIVER": true, "CREEK": true, "LAKE": true, "RESERVOIR": true, "FIELD": true, "BASIN": true,
	"SITE": true, "STATION": true, "POINT": true, "PLANT": true, "CHANNEL": true, "FORK": true,
	"BRANCH": true, "MINE": true, "LAGOON": true, "CANAL": true, "STREAM": true,
}

func extractCityFromLocation(locationText string) (string, bool) {
	if locationText == "" {
		return "", false
	}
	textUpper := strings.TrimSpace(strings.ToUpper(locationText))
	textUpper = parenStrip.ReplaceAllString(textUpper, "")

	beforeState := textUpper
	if loc := trailingState.FindStringIndex(textUpper); loc != nil {
		beforeState = textUpper[:loc[0]]
	}

	parts := directionSplit.Split(beforeState, -1)
	candidate := beforeState
	if len(parts) > 0 {
		candidate = parts[len(parts)-1]
	}
	candidate = strings.TrimSpace(strings.ReplaceAll(candidate, "-", " "))

	tokens := strings.Fields(candidate)
	for len(tokens) > 0 && directionalTokens[tokens[0]] {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && featureStopwords[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	var cleaned []string
	for _, tok := range tokens {
		if !directionalTokens[tok] && !featureStopwords[tok] {
			cleaned = append(cleaned, tok)
		}
	}
	if len(cleaned) == 0 {
		return "", false
	}
	return strings.Title(strings.ToLower(strings.Join(cleaned, " "))), true
}

func extractMultipleValues(texts []string, attributeName string) []string {
	var values []string
	seen := map[string]bool{}
	for _, text := range texts {
		if value, ok := extractFromAttributesSection(text, attributeName); ok && !seen[value] {
			values = append(values, value)
			seen[value] = true
		}
	}
	return values
}
