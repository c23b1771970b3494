package aggregation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/krump3t/astra-graphrag/graphindex"
)

var belongsToWellPattern = regexp.MustCompile(`\[BELONGS_TO_WELL\]\s*([\w\-_/]+)`)

// Type is the closed set of aggregation operations this package can answer
// directly from documents, without a generation round-trip.
type Type string

const (
	TypeCount           Type = "COUNT"
	TypeList            Type = "LIST"
	TypeDistinct        Type = "DISTINCT"
	TypeSum             Type = "SUM"
	TypeMax             Type = "MAX"
	TypeMin             Type = "MIN"
	TypeRange           Type = "RANGE"
	TypeComparison      Type = "COMPARISON"
	typePerWellCurves   Type = "PER_WELL_CURVE_COUNTS"
)

var maxPhrases = []string{"most recent", "latest", "newest", "maximum", "highest"}
var minPhrases = []string{"oldest", "earliest", "minimum", "lowest"}
var countPhrases = []string{"how many", "count", "number of", "total number"}
var listPhrases = []string{"list all", "show all", "what are all", "enumerate"}
var distinctPhrases = []string{"different", "unique", "distinct", "various"}
var sumPhrases = []string{"total production", "sum of", "combined"}

func anyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func isComparisonQuery(queryLower string) bool {
	if strings.Contains(queryLower, "which") && (strings.Contains(queryLower, " more ") || strings.Contains(queryLower, " most ")) {
		return true
	}
	if strings.Contains(queryLower, "are there more") {
		return true
	}
	return anyPhrase(queryLower, []string{"more records", "more data", "more measurements", "more curves"})
}

func isRangeQuery(queryLower string) bool {
	if strings.Contains(queryLower, "range") {
		return true
	}
	if strings.Contains(queryLower, "span") && anyPhrase(queryLower, []string{"year", "time", "period"}) {
		return true
	}
	if strings.Contains(queryLower, "how many years") || strings.Contains(queryLower, "number of years") {
		return true
	}
	if strings.Contains(queryLower, "years of data") || strings.Contains(queryLower, "year span") {
		return true
	}
	if strings.Contains(queryLower, "difference between") && (strings.Contains(queryLower, "max") || strings.Contains(queryLower, "maximum")) {
		return true
	}
	return false
}

// DetectType classifies the query into an aggregation type the way the
// config-driven pattern table does: a "what data...available" special case
// first, then COMPARISON/RANGE predicates, then the phrase-list types in a
// fixed order.
func DetectType(query string) (Type, bool) {
	queryLower := strings.ToLower(query)

	if strings.Contains(queryLower, "what data") && strings.Contains(queryLower, "available") {
		return TypeCount, true
	}

	switch {
	case isComparisonQuery(queryLower):
		return TypeComparison, true
	case isRangeQuery(queryLower):
		return TypeRange, true
	case anyPhrase(queryLower, maxPhrases):
		return TypeMax, true
	case anyPhrase(queryLower, minPhrases):
		return TypeMin, true
	case anyPhrase(queryLower, countPhrases):
		return TypeCount, true
	case anyPhrase(queryLower, listPhrases):
		return TypeList, true
	case anyPhrase(queryLower, distinctPhrases):
		return TypeDistinct, true
	case anyPhrase(queryLower, sumPhrases):
		return TypeSum, true
	}

	return "", false
}

// Result is the outcome of handling a single aggregation query.
type Result struct {
	Type               Type
	Query              string
	NumDocumentsScanned int
	NumDocuments        int
	Filters             Filters
	Answer              string
	Count               int
	DirectCount         bool
	EntityTypeFilter    string
	Values              []string
	Field               string
	Sum                 float64
	Min                 interface{}
	Max                 interface{}
	RangeValue          interface{}
	Inclusive           bool
	Groups              []string
	GroupCounts         []int
	MaxGroup            string
	MaxCount            int
}

func inferEntityType(queryLower string) string {
	switch {
	case strings.Contains(queryLower, "eia"):
		return "eia_record"
	case strings.Contains(queryLower, "usgs site"), strings.Contains(queryLower, "monitoring site"):
		return "usgs_site"
	case strings.Contains(queryLower, "usgs measurement"), strings.Contains(queryLower, "water measurement"):
		return "usgs_measurement"
	case strings.Contains(queryLower, "las curve"), (strings.Contains(queryLower, "curve") && strings.Contains(queryLower, "well")):
		return "las_curve"
	case strings.Contains(queryLower, "las document"), strings.Contains(queryLower, "well"):
		return "las_document"
	}
	return ""
}

func countUniqueCurveMnemonics(graph *graphindex.Graph) (int, []string) {
	if graph == nil {
		return 0, nil
	}
	seen := make(map[string]struct{})
	for _, node := range graph.NodesByType(graphindex.NodeLASCurve) {
		if src, ok := node.Attr("source"); ok {
			if s, ok := src.(string); ok && s != "" && !strings.EqualFold(s, "force2020") {
				continue
			}
		}
		m, ok := node.Attr("mnemonic")
		if !ok {
			continue
		}
		ms, ok := m.(string)
		if !ok || ms == "" {
			continue
		}
		upper := strings.ToUpper(ms)
		if upper == "NONE" {
			continue
		}
		seen[upper] = struct{}{}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return len(values), values
}

func handleCount(result *Result, queryLower string, documents []Document, directCount *int, graph *graphindex.Graph) bool {
	entityType := inferEntityType(queryLower)
	if entityType == "" && len(documents) > 0 {
		seen := make(map[string]struct{})
		for _, d := range documents {
			if d.EntityType != "" {
				seen[d.EntityType] = struct{}{}
			}
		}
		if len(seen) == 1 {
			for t := range seen {
				entityType = t
			}
		}
	}

	if entityType == "las_curve" && anyPhrase(queryLower, []string{"available", "different", "unique", "types"}) {
		count, values := countUniqueCurveMnemonics(graph)
		result.Count = count
		result.EntityTypeFilter = entityType
		result.Values = values
		label := pluralizeLabel(entityLabel(entityType), count)
		result.Answer = fmt.Sprintf("There are %d unique %s.", count, label)
		return true
	}

	var count int
	if directCount != nil {
		count = *directCount
		result.DirectCount = true
	} else {
		count = CountEntities(documents, entityType)
	}

	result.Count = count
	result.EntityTypeFilter = entityType
	result.Answer = formatCountAnswer(count, entityType, result.Filters)
	return true
}

func handleListLike(result *Result, query string, documents []Document) bool {
	field, ok := ExtractFieldFromQuery(query, documents)
	if !ok {
		field = "entity_type"
	}

	values := ListUniqueValues(documents, field, 20)
	result.Field = field
	result.Values = values
	result.Count = len(values)
	if len(values) > 0 {
		result.Answer = fmt.Sprintf("Found %d unique %s values: %s", len(values), field, strings.Join(values, ", "))
	} else {
		result.Answer = fmt.Sprintf("No values found for %s", field)
	}
	return true
}

func handleSum(result *Result, query string, documents []Document) bool {
	field, ok := ExtractFieldFromQuery(query, documents)
	if !ok {
		return false
	}
	total := SumField(documents, field)
	result.Field = field
	result.Sum = total
	result.Answer = fmt.Sprintf("Total %s: %s", field, formatFloat(total))
	return true
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatExtremeDisplay(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(roundTo(v, 3), 'g', -1, 64)
}

func roundTo(v float64, places int) float64 {
	mult := 1.0
	for i := 0; i < places; i++ {
		mult *= 10
	}
	return float64(int64(v*mult+sign(v)*0.5)) / mult
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func handleRange(result *Result, query string, documents []Document) bool {
	queryLower := strings.ToLower(query)
	var field string
	switch {
	case strings.Contains(queryLower, "year"):
		field = "year"
	case strings.Contains(queryLower, "month"):
		field = "month"
	case strings.Contains(queryLower, "date"):
		field = "date"
	}
	if field == "" {
		if f, ok := ExtractFieldFromQuery(query, documents); ok {
			field = f
		}
	}
	if field == "" {
		return false
	}

	var numericValues []float64
	for _, doc := range documents {
		if value, ok := extractFieldValue(doc, field); ok {
			if numeric, ok := coerceNumeric(value); ok {
				numericValues = append(numericValues, numeric)
			}
		}
	}
	if len(numericValues) == 0 {
		return false
	}

	minVal, maxVal := numericValues[0], numericValues[0]
	for _, v := range numericValues {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	inclusive := anyPhrase(queryLower, []string{"how many years", "number of years", "years of data", "year span"})
	rangeVal := maxVal - minVal
	if inclusive {
		rangeVal++
	}

	result.Field = field
	result.Min = formatExtremeDisplay(minVal)
	result.Max = formatExtremeDisplay(maxVal)
	result.RangeValue = formatExtremeDisplay(rangeVal)
	result.Inclusive = inclusive

	if strings.Contains(queryLower, "year") {
		result.Answer = fmt.Sprintf("%v years (%v-%v)", result.RangeValue, result.Min, result.Max)
	} else {
		result.Answer = fmt.Sprintf("Range is %v (%v to %v)", result.RangeValue, result.Min, result.Max)
	}
	return true
}

func handleExtreme(result *Result, query string, documents []Document, mode Type) bool {
	queryLower := strings.ToLower(query)
	var field string
	if anyPhrase(queryLower, []string{"year", "date", "time"}) {
		field = "year"
	} else if f, ok := ExtractFieldFromQuery(query, documents); ok {
		field = f
	}
	if field == "" {
		return false
	}

	var value interface{}
	var ok bool
	if mode == TypeMax {
		value, ok = MaxField(documents, field)
		result.Max = value
	} else {
		value, ok = MinField(documents, field)
		result.Min = value
	}
	result.Field = field
	if !ok {
		result.Answer = "No data found"
		return true
	}
	result.Answer = fmt.Sprintf("%v", value)
	return true
}

func inferComparisonField(queryLower string, query string, documents []Document) (string, bool) {
	switch {
	case strings.Contains(queryLower, "domain"):
		return "domain", true
	case strings.Contains(queryLower, "operator"):
		return "operator", true
	case strings.Contains(queryLower, "state"):
		return "state", true
	}
	if anyPhrase(queryLower, []string{"las", "usgs", "eia", "curve", "site", "measurement", "dataset"}) {
		return "entity_type", true
	}
	return ExtractFieldFromQuery(query, documents)
}

func handleComparison(result *Result, query string, documents []Document) bool {
	queryLower := strings.ToLower(query)
	field, ok := inferComparisonField(queryLower, query, documents)
	if !ok {
		result.Answer = "Could not determine field to compare."
		return true
	}

	keys, counts := GroupByField(documents, field)
	maxGroup, maxCount := FindMaxGroup(keys, counts)

	result.Field = field
	result.Groups = keys
	result.GroupCounts = counts
	result.MaxGroup = maxGroup
	result.MaxCount = maxCount

	if maxGroup != "" {
		result.Answer = fmt.Sprintf("%s (%d records)", maxGroup, maxCount)
	} else {
		result.Answer = "No data found for comparison."
	}
	return true
}

// Handle runs the pattern-detected aggregation type against documents,
// applying any state filters the query names, and returns nil if no
// aggregation type was detected or its handler declined to answer.
func Handle(query string, documents []Document, directCount *int, graph *graphindex.Graph) *Result {
	aggType, ok := DetectType(query)
	if !ok {
		return nil
	}

	queryLower := strings.ToLower(query)
	filteredDocuments, filters := applyQueryFilters(documents, queryLower)
	effectiveDocuments := documents
	effectiveDirectCount := directCount
	if !filters.empty() {
		effectiveDocuments = filteredDocuments
		effectiveDirectCount = nil
	}

	result := &Result{
		Type:                aggType,
		Query:               query,
		NumDocumentsScanned: len(documents),
		NumDocuments:        len(effectiveDocuments),
		Filters:             filters,
	}

	var handled bool
	switch aggType {
	case TypeCount:
		handled = handleCount(result, queryLower, effectiveDocuments, effectiveDirectCount, graph)
	case TypeList, TypeDistinct:
		handled = handleListLike(result, query, effectiveDocuments)
	case TypeSum:
		handled = handleSum(result, query, effectiveDocuments)
	case TypeMax:
		handled = handleExtreme(result, query, effectiveDocuments, TypeMax)
	case TypeMin:
		handled = handleExtreme(result, query, effectiveDocuments, TypeMin)
	case TypeRange:
		handled = handleRange(result, query, effectiveDocuments)
	case TypeComparison:
		handled = handleComparison(result, query, effectiveDocuments)
	}
	if !handled {
		return nil
	}

	if !filters.empty() && result.Type != TypeCount {
		result.Answer = mergeFilterSuffix(result.Answer, filters)
	} else if result.Answer != "" && !strings.HasSuffix(result.Answer, ".") {
		if result.Type != TypeMax && result.Type != TypeMin {
			result.Answer = strings.TrimRight(result.Answer, ".") + "."
		}
	}

	return result
}

func isForceQuery(queryLower string) bool {
	return strings.Contains(queryLower, "force") || strings.Contains(queryLower, "force2020") || strings.Contains(queryLower, "norwegian")
}

func shouldCountWell(node *graphindex.Node, isForceQuery bool) bool {
	if node.Type != graphindex.NodeLASDocument {
		return false
	}
	isForceWell := strings.HasPrefix(node.ID, "force2020-well-")
	if isForceQuery {
		return isForceWell
	}
	return true
}

func extractBelongsToWell(doc Document) (string, bool) {
	for _, key := range []string{"belongs_to", "well_id", "parent_well"} {
		if v, ok := doc.Fields[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	if m := belongsToWellPattern.FindStringSubmatch(doc.SemanticText); m != nil {
		return m[1], true
	}
	return "", false
}

func groupCurvesPerWell(documents []Document) map[string]int {
	groups := make(map[string]int)
	for _, doc := range documents {
		if doc.EntityType != "las_curve" {
			continue
		}
		wellID, ok := extractBelongsToWell(doc)
		if !ok {
			continue
		}
		groups[wellID]++
	}
	return groups
}

func summarizePerWellCounts(groups map[string]int) (count, min, max int, avg float64) {
	if len(groups) == 0 {
		return 0, 0, 0, 0
	}
	first := true
	var total int
	for _, v := range groups {
		if first {
			min, max = v, v
			first = false
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		total += v
	}
	return len(groups), min, max, roundTo(float64(total)/float64(len(groups)), 2)
}

// HandleRelationshipAware answers well-count and per-well-curve-count
// queries using the graph directly, bypassing the generic document
// aggregation path for exact counts.
func HandleRelationshipAware(query string, documents []Document, graph *graphindex.Graph) *Result {
	queryLower := strings.ToLower(query)

	if strings.Contains(queryLower, "how many") && strings.Contains(queryLower, "well") && graph != nil {
		forceQuery := isForceQuery(queryLower)
		count := 0
		for _, node := range graph.NodesByType(graphindex.NodeLASDocument) {
			if shouldCountWell(node, forceQuery) {
				count++
			}
		}
		return &Result{
			Type:             TypeCount,
			Query:            query,
			Count:            count,
			EntityTypeFilter: "las_document",
			Answer:           fmt.Sprintf("There are %d wells.", count),
		}
	}

	if strings.Contains(queryLower, "each") && strings.Contains(queryLower, "curve") && strings.Contains(queryLower, "well") {
		groups := groupCurvesPerWell(documents)
		count, min, max, avg := summarizePerWellCounts(groups)
		_ = count
		return &Result{
			Type:   typePerWellCurves,
			Query:  query,
			Answer: fmt.Sprintf("Avg curves per well: %v (min %d, max %d)", avg, min, max),
		}
	}

	return nil
}

// FormatForLLM renders an aggregation result of any type as a context block
// for a generation prompt; AggregationStrategy stores it in state metadata
// as "aggregation_context" for every result it returns.
func FormatForLLM(result *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AGGREGATION RESULT (%s):\n\n", result.Type)
	fmt.Fprintf(&b, "%s\n\n", result.Answer)

	switch result.Type {
	case TypeCount:
		fmt.Fprintf(&b, "Count: %d\n", result.Count)
		if result.EntityTypeFilter != "" {
			fmt.Fprintf(&b, "Filtered by entity type: %s\n", result.EntityTypeFilter)
		}
	case TypeList, TypeDistinct:
		fmt.Fprintf(&b, "Unique values (%d):\n", len(result.Values))
		limit := len(result.Values)
		if limit > 20 {
			limit = 20
		}
		for _, v := range result.Values[:limit] {
			fmt.Fprintf(&b, "  - %s\n", v)
		}
	case TypeSum:
		fmt.Fprintf(&b, "Sum: %s\n", formatFloat(result.Sum))
		field := result.Field
		if field == "" {
			field = "unknown"
		}
		fmt.Fprintf(&b, "Field: %s\n", field)
	case TypeRange:
		fmt.Fprintf(&b, "Min: %v\n", result.Min)
		fmt.Fprintf(&b, "Max: %v\n", result.Max)
		fmt.Fprintf(&b, "Range: %v\n", result.RangeValue)
		fmt.Fprintf(&b, "Inclusive: %v\n", result.Inclusive)
	case TypeComparison:
		b.WriteString("Group counts:\n")
		limit := len(result.Groups)
		if limit > 10 {
			limit = 10
		}
		for i := 0; i < limit; i++ {
			fmt.Fprintf(&b, "  - %s: %d\n", result.Groups[i], result.GroupCounts[i])
		}
		maxGroup := result.MaxGroup
		if maxGroup == "" {
			maxGroup = "unknown"
		}
		fmt.Fprintf(&b, "\nHighest: %s with %d records\n", maxGroup, result.MaxCount)
	}

	fmt.Fprintf(&b, "\nBased on %d retrieved documents.", result.NumDocuments)
	return b.String()
}
