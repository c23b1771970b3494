package reasoning

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/krump3t/astra-graphrag/graphindex"
)

// primaryMnemonicOrder is the preferred display order for curve mnemonics;
// anything not listed is appended afterward in sorted order.
var primaryMnemonicOrder = []string{
	"DEPT", "FORCE_2020_LITHOFACIES_LITHOLOGY", "FORCE_2020_LITHOFACIES_CONFIDENCE",
	"CALI", "MUDWEIGHT", "ROP", "RHOB", "GR", "SGR", "NPHI", "DTC", "DTS", "DRHO",
	"PEF", "BS", "DCAL", "RDEP", "RMED", "RSHA", "RXO", "SP",
}

func orderMnemonics(mnemonics map[string]struct{}) []string {
	var seen []string
	for m := range mnemonics {
		v := strings.ToUpper(strings.TrimSpace(m))
		if v != "" {
			seen = append(seen, v)
		}
	}
	seenSet := stringSet(seen...)

	var ordered []string
	for _, preferred := range primaryMnemonicOrder {
		if _, ok := seenSet[preferred]; ok {
			ordered = append(ordered, preferred)
		}
	}

	orderedSet := stringSet(ordered...)
	var remainder []string
	for _, m := range seen {
		if _, ok := orderedSet[m]; !ok {
			remainder = append(remainder, m)
		}
	}
	sort.Strings(remainder)
	return append(ordered, remainder...)
}

var trailingJunkPattern = regexp.MustCompile(`[^\w\-]+$`)

// normalizeWellNodeID converts a raw well identifier as it appears in a
// query ("15/9-13") into the graph's node id convention
// ("force2020-well-15_9-13").
func normalizeWellNodeID(rawID string) (string, bool) {
	if rawID == "" {
		return "", false
	}
	normalized := strings.ReplaceAll(strings.TrimSpace(rawID), "/", "_")
	if normalized == "" {
		return "", false
	}
	normalized = trailingJunkPattern.ReplaceAllString(normalized, "")
	if !strings.HasPrefix(normalized, "force2020-well-") {
		normalized = "force2020-well-" + normalized
	}
	return normalized, true
}

// normalizeUnit canonicalizes ohm.m spelling variants the same way unit
// filters on curve attributes are matched.
func normalizeUnit(u string) string {
	s := strings.ToLower(strings.TrimSpace(u))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", ".")
	s = strings.ReplaceAll(s, "-", ".")
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", ".")
	}
	if strings.Contains(s, "ohm") && strings.Contains(s, ".m") {
		return "ohm.m"
	}
	return s
}

func inferBasinFromWellMetadata(node *graphindex.Node) string {
	if node == nil {
		return ""
	}
	name, _ := node.Attr("WELL")
	nameStr := strings.TrimSpace(fmt.Sprintf("%v", orEmpty(name)))
	uwi, _ := node.Attr("UWI")
	uwiStr := strings.TrimSpace(fmt.Sprintf("%v", orEmpty(uwi)))

	lowerName := strings.ToLower(nameStr)
	if strings.Contains(lowerName, "sleipner") {
		return "Sleipner area of the Norwegian North Sea"
	}
	if strings.HasPrefix(uwiStr, "15/") {
		block := strings.SplitN(uwiStr, "-", 2)[0]
		return fmt.Sprintf("Norwegian North Sea (block %s)", block)
	}
	if nameStr != "" {
		return "Norwegian Continental Shelf"
	}
	return ""
}

func orEmpty(v interface{}) interface{} {
	if v == nil {
		return ""
	}
	return v
}

func attrString(node *graphindex.Node, key string) string {
	if node == nil {
		return ""
	}
	v, ok := node.Attr(key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// wellContext bundles the data every well-relationship handler needs so
// dispatchWellQuery can try them in order without re-deriving state.
type wellContext struct {
	WellID           string
	NormalizedID     string
	Curves           []*graphindex.Node
	Mnemonics        map[string]struct{}
	OrderedMnemonics []string
	Groups           curveGroups
	WellNode         *graphindex.Node
	Basin            string
}

func buildWellContext(graph *graphindex.Graph, wellID string) (wellContext, bool) {
	normalized, ok := normalizeWellNodeID(wellID)
	if !ok {
		return wellContext{}, false
	}

	curves := graph.GetCurvesForWell(normalized)
	mnemonics := make(map[string]struct{})
	for _, curve := range curves {
		if m, ok := curve.Attr("mnemonic"); ok {
			if ms, ok := m.(string); ok {
				mnemonics[strings.ToUpper(ms)] = struct{}{}
			}
		}
	}
	ordered := orderMnemonics(mnemonics)
	wellNode, _ := graph.GetNode(normalized)

	return wellContext{
		WellID:           wellID,
		NormalizedID:     normalized,
		Curves:           curves,
		Mnemonics:        mnemonics,
		OrderedMnemonics: ordered,
		Groups:           buildCurveGroups(ordered),
		WellNode:         wellNode,
		Basin:            inferBasinFromWellMetadata(wellNode),
	}, true
}

// dispatchWellQuery tries each well-relationship handler in turn and returns
// true from the first one that answers the query.
func dispatchWellQuery(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	type handler func(string, wellContext) (string, map[string]interface{}, bool)
	handlers := []handler{
		handlePetrophysicalEvaluation,
		handleHydrocarbonIdentification,
		handleUnitFilter,
		handleLogSuiteClassification,
		handleCapabilityMatrix,
		handleGeologicalSetting,
		handleCurveListing,
		handleDepthCurves,
		handleGammaRayNeutron,
		handlePorosityCurves,
		handleResistivityCurves,
		handleCurveGrouping,
		handleUnderscoreCount,
		handleTripleComboExclusion,
	}
	for _, h := range handlers {
		if answer, meta, ok := h(queryLower, ctx); ok {
			return answer, meta, true
		}
	}
	return "", nil, false
}

func handlePetrophysicalEvaluation(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "petrophysical") || !strings.Contains(queryLower, "evaluation") {
		return "", nil, false
	}

	var sections []string
	if len(ctx.Groups.Resistivity) > 0 {
		sections = append(sections, fmt.Sprintf("resistivity logs (%s)", strings.Join(ctx.Groups.Resistivity, ", ")))
	}
	if len(ctx.Groups.Porosity) > 0 {
		sections = append(sections, fmt.Sprintf("porosity logs (%s)", strings.Join(ctx.Groups.Porosity, ", ")))
	}
	if len(ctx.Groups.Depth) > 0 {
		sections = append(sections, fmt.Sprintf("depth control (%s)", strings.Join(ctx.Groups.Depth, ", ")))
	}

	parts := []string{"Yes - the curve suite supports a complete petrophysical evaluation."}
	if len(sections) > 0 {
		parts = append(parts, fmt.Sprintf("It includes %s for interpretation.", strings.Join(sections, "; ")))
	}
	if len(ctx.Groups.Lithology) > 0 {
		parts = append(parts, fmt.Sprintf("Lithology coverage comes from %s.", strings.Join(ctx.Groups.Lithology, ", ")))
	}

	return strings.Join(parts, " "), map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics}, true
}

func handleHydrocarbonIdentification(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "hydrocarbon") {
		return "", nil, false
	}
	if len(ctx.Groups.Resistivity) == 0 && len(ctx.Groups.Porosity) == 0 {
		return "", nil, false
	}

	var parts []string
	if len(ctx.Groups.Resistivity) > 0 {
		parts = append(parts, fmt.Sprintf("resistivity logs (%s) to spot hydrocarbon-bearing zones", strings.Join(ctx.Groups.Resistivity, ", ")))
	}
	if len(ctx.Groups.Porosity) > 0 {
		parts = append(parts, fmt.Sprintf("porosity logs (%s) to confirm density-neutron crossover", strings.Join(ctx.Groups.Porosity, ", ")))
	}

	return fmt.Sprintf("Use %s.", strings.Join(parts, " and ")), map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics}, true
}

func handleUnitFilter(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "unit") || !strings.Contains(queryLower, "ohm") {
		return "", nil, false
	}

	matched := make(map[string]struct{})
	for _, curve := range ctx.Curves {
		unit, _ := curve.Attr("unit")
		mnemonic, _ := curve.Attr("mnemonic")
		ms, _ := mnemonic.(string)
		if normalizeUnit(fmt.Sprintf("%v", orEmpty(unit))) == "ohm.m" && ms != "" {
			matched[strings.ToUpper(ms)] = struct{}{}
		}
	}
	if len(matched) == 0 {
		return "", nil, false
	}

	ordered := orderMnemonics(matched)
	return fmt.Sprintf("%s all have units of ohm.m", strings.Join(ordered, ", ")),
		map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics, "unit_filter": "ohm.m"}, true
}

func handleLogSuiteClassification(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	hasSuiteToken := strings.Contains(queryLower, "suite") || strings.Contains(queryLower, "classification")
	if !hasSuiteToken {
		return "", nil, false
	}
	if strings.Contains(queryLower, "possible") && strings.Contains(queryLower, "impossible") {
		return "", nil, false
	}

	var components []string
	if len(ctx.Groups.Depth) > 0 {
		components = append(components, fmt.Sprintf("depth control (%s)", strings.Join(ctx.Groups.Depth, ", ")))
	}
	if len(ctx.Groups.Porosity) > 0 {
		components = append(components, fmt.Sprintf("porosity logs (%s)", strings.Join(ctx.Groups.Porosity, ", ")))
	}
	if len(ctx.Groups.Resistivity) > 0 {
		components = append(components, fmt.Sprintf("resistivity logs (%s)", strings.Join(ctx.Groups.Resistivity, ", ")))
	}
	if len(ctx.Groups.Lithology) > 0 {
		components = append(components, fmt.Sprintf("lithofacies interpretation (%s)", strings.Join(ctx.Groups.Lithology, ", ")))
	}
	if len(components) == 0 {
		components = append(components, "standard FORCE 2020 open-hole suite")
	}

	wellName := attrString(ctx.WellNode, "WELL")
	if wellName == "" {
		wellName = "well " + ctx.WellID
	}
	block := attrString(ctx.WellNode, "UWI")
	summary := strings.Join(components, "; ")

	var locationFragment string
	switch {
	case ctx.Basin != "":
		locationFragment = fmt.Sprintf(" This suite is typical of the %s.", ctx.Basin)
	case block != "":
		locationFragment = fmt.Sprintf(" This suite is typical of Norwegian Continental Shelf block %s.", block)
	}

	answer := strings.TrimSpace(fmt.Sprintf("%s log suite classification: %s.%s", wellName, summary, locationFragment))
	meta := map[string]interface{}{"log_suite_summary": components, "evidence_mnemonics": ctx.OrderedMnemonics}
	if ctx.Basin != "" {
		meta["basin_context"] = ctx.Basin
	}
	return answer, meta, true
}

func handleCapabilityMatrix(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "possible") || !strings.Contains(queryLower, "impossible") {
		return "", nil, false
	}

	var possible, impossible []string
	if len(ctx.Groups.Porosity) > 0 && len(ctx.Groups.Resistivity) > 0 {
		possible = append(possible, fmt.Sprintf("saturation analysis (%s with %s)", strings.Join(ctx.Groups.Resistivity, ", "), strings.Join(ctx.Groups.Porosity, ", ")))
	} else {
		impossible = append(impossible, "saturation analysis (needs both porosity and resistivity curves)")
	}
	if len(ctx.Groups.Lithology) > 0 {
		possible = append(possible, fmt.Sprintf("lithology interpretation (%s)", strings.Join(ctx.Groups.Lithology, ", ")))
	} else {
		impossible = append(impossible, "lithofacies interpretation (requires lithology curves)")
	}
	if len(ctx.Groups.Depth) > 0 {
		possible = append(possible, fmt.Sprintf("depth control (%s)", strings.Join(ctx.Groups.Depth, ", ")))
	}

	possibleText := "basic well-log quality control only"
	if len(possible) > 0 {
		possibleText = strings.Join(possible, "; ")
	}
	impossibleText := "None noted"
	if len(impossible) > 0 {
		impossibleText = strings.Join(impossible, "; ")
	}

	answer := fmt.Sprintf("Possible: %s. Impossible: %s.", possibleText, impossibleText)
	return answer, map[string]interface{}{
		"capability_matrix":   map[string]interface{}{"possible": possible, "impossible": impossible},
		"evidence_mnemonics": ctx.OrderedMnemonics,
	}, true
}

func handleGeologicalSetting(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "geological") && !strings.Contains(queryLower, "setting") {
		return "", nil, false
	}

	wellName := attrString(ctx.WellNode, "WELL")
	var summary string
	if ctx.Basin != "" || wellName != "" {
		var bits []string
		if ctx.Basin != "" {
			bits = append(bits, fmt.Sprintf("located in the %s", ctx.Basin))
		}
		if wellName != "" {
			bits = append(bits, fmt.Sprintf("well name %s", wellName))
		}
		if uwi := attrString(ctx.WellNode, "UWI"); uwi != "" {
			bits = append(bits, fmt.Sprintf("block %s", uwi))
		}
		summary = strings.Join(bits, "; ")
	} else {
		summary = "part of the FORCE 2020 Norwegian Continental Shelf release"
	}

	var highlights []string
	if len(ctx.Groups.Porosity) > 0 && len(ctx.Groups.Resistivity) > 0 {
		highlights = append(highlights, "porosity and resistivity coverage for reservoir evaluation")
	}
	if len(ctx.Groups.Lithology) > 0 {
		highlights = append(highlights, "lithofacies logs for depositional context")
	}
	if len(highlights) == 0 {
		highlights = append(highlights, "standard open-hole measurements")
	}

	answer := fmt.Sprintf("Geological setting: %s. Curve support includes %s.", summary, strings.Join(highlights, ", "))
	meta := map[string]interface{}{
		"geological_context": map[string]interface{}{"summary": summary, "curve_support": highlights},
		"evidence_mnemonics": ctx.OrderedMnemonics,
	}
	if ctx.Basin != "" {
		meta["basin_context"] = ctx.Basin
	}
	return answer, meta, true
}

func handleCurveListing(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "curve") {
		return "", nil, false
	}
	if !anyToken(queryLower, "what", "list", "belong", "include", "available") {
		return "", nil, false
	}
	if len(ctx.OrderedMnemonics) == 0 {
		return "", nil, false
	}

	limit := 10
	if limit > len(ctx.OrderedMnemonics) {
		limit = len(ctx.OrderedMnemonics)
	}
	preview := strings.Join(ctx.OrderedMnemonics[:limit], ", ")
	suffix := ""
	if len(ctx.OrderedMnemonics) > 10 {
		suffix = " and others"
	}
	answer := fmt.Sprintf("%d curves including: %s%s.", len(ctx.OrderedMnemonics), preview, suffix)
	return answer, map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics}, true
}

func handleDepthCurves(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "depth") {
		return "", nil, false
	}
	if !anyToken(queryLower, "which", "measure", "curves") {
		return "", nil, false
	}
	if len(ctx.Groups.Depth) == 0 {
		return "", nil, false
	}
	answer := fmt.Sprintf("Depth curves: %s.", strings.Join(ctx.Groups.Depth, ", "))
	return answer, map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics}, true
}

func handleGammaRayNeutron(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	hasDoesHave := strings.Contains(queryLower, "does") && strings.Contains(queryLower, "have")
	hasGammaRay := strings.Contains(queryLower, "gamma ray") || strings.Contains(" "+queryLower+" ", " gr ")
	hasNeutron := strings.Contains(queryLower, "neutron porosity") || strings.Contains(queryLower, "nphi")
	if !(hasDoesHave && hasGammaRay && hasNeutron) {
		return "", nil, false
	}

	_, hasGR := ctx.Mnemonics["GR"]
	_, hasNPHI := ctx.Mnemonics["NPHI"]
	if hasGR && hasNPHI {
		return "Yes, it has GR (gamma ray) and NPHI (neutron porosity).", map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics}, true
	}
	return "", nil, false
}

func handlePorosityCurves(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "porosity") {
		return "", nil, false
	}
	if !anyToken(queryLower, "which", "used", "curves") {
		return "", nil, false
	}
	if len(ctx.Groups.Porosity) == 0 {
		return "", nil, false
	}
	return fmt.Sprintf("Curves used for porosity: %s.", strings.Join(ctx.Groups.Porosity, ", ")),
		map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics}, true
}

func handleResistivityCurves(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "resistivity") {
		return "", nil, false
	}
	if !anyToken(queryLower, "find", "which", "are", "percent", "percentage") {
		return "", nil, false
	}
	if len(ctx.Groups.Resistivity) == 0 {
		return "", nil, false
	}

	var answer string
	if strings.Contains(queryLower, "percent") {
		total := len(ctx.Mnemonics)
		pct := 0
		if total > 0 {
			pct = int(roundHalfUp(float64(len(ctx.Groups.Resistivity)) / float64(total) * 100))
		}
		answer = fmt.Sprintf("%d of %d (~%d%%) are resistivity logs.", len(ctx.Groups.Resistivity), total, pct)
	} else {
		answer = fmt.Sprintf("Resistivity curves: %s.", strings.Join(ctx.Groups.Resistivity, ", "))
	}
	return answer, map[string]interface{}{"evidence_mnemonics": ctx.OrderedMnemonics}, true
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return -roundHalfUp(-v)
	}
	return float64(int64(v + 0.5))
}

func handleCurveGrouping(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	isGroupQuery := strings.Contains(queryLower, "group") && (strings.Contains(queryLower, "type") || strings.Contains(queryLower, "measurement"))
	isCategoryQuery := strings.Contains(queryLower, "categor") && strings.Contains(queryLower, "curve")
	if !isGroupQuery && !isCategoryQuery {
		return "", nil, false
	}

	type labeled struct {
		label  string
		values []string
	}
	groups := []labeled{
		{"depth", ctx.Groups.Depth},
		{"resistivity", ctx.Groups.Resistivity},
		{"porosity", ctx.Groups.Porosity},
		{"lithology", ctx.Groups.Lithology},
	}

	var parts []string
	for _, g := range groups {
		if len(g.values) > 0 {
			parts = append(parts, fmt.Sprintf("%s (%s)", g.label, strings.Join(g.values, ", ")))
		}
	}
	if len(parts) == 0 {
		return "", nil, false
	}

	return fmt.Sprintf("Groups: %s.", strings.Join(parts, ", ")), map[string]interface{}{
		"grouping": map[string]interface{}{
			"depth": ctx.Groups.Depth, "resistivity": ctx.Groups.Resistivity,
			"porosity": ctx.Groups.Porosity, "lithology": ctx.Groups.Lithology,
		},
	}, true
}

func handleUnderscoreCount(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "underscore") || !strings.Contains(queryLower, "curve") {
		return "", nil, false
	}

	count := 0
	for _, m := range ctx.OrderedMnemonics {
		if isStandardMnemonic(m) && strings.Contains(m, "_") {
			count++
		}
	}
	return strconv.Itoa(count), map[string]interface{}{"underscore_count": count}, true
}

func handleTripleComboExclusion(queryLower string, ctx wellContext) (string, map[string]interface{}, bool) {
	if !strings.Contains(queryLower, "triple combo") {
		return "", nil, false
	}
	if !strings.Contains(queryLower, "not") && !strings.Contains(queryLower, "exclude") {
		return "", nil, false
	}

	tripleCombo := stringSet("GR", "NPHI", "RHOB")
	var remainder []string
	for _, m := range ctx.OrderedMnemonics {
		if _, ok := tripleCombo[m]; !ok {
			remainder = append(remainder, m)
		}
	}
	if len(remainder) == 0 {
		return "", nil, false
	}

	limit := 10
	if limit > len(remainder) {
		limit = len(remainder)
	}
	preview := strings.Join(remainder[:limit], ", ")
	suffix := ""
	if len(remainder) > 10 {
		suffix = " and others"
	}
	return fmt.Sprintf("Non-triple-combo curve types include: %s%s.", preview, suffix),
		map[string]interface{}{"non_triple_combo": remainder}, true
}

func anyToken(text string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// findCurveNodeIDByMnemonic scans every well's curves for an exact mnemonic
// match, returning the first curve node id found.
func findCurveNodeIDByMnemonic(graph *graphindex.Graph, mnemonic string) (string, bool) {
	target := strings.ToUpper(strings.TrimSpace(mnemonic))
	if target == "" {
		return "", false
	}
	for _, wellID := range graph.GetWellsWithMnemonic(target) {
		for _, curve := range graph.GetCurvesForWell(wellID) {
			if m, ok := curve.Attr("mnemonic"); ok {
				if ms, ok := m.(string); ok && strings.ToUpper(ms) == target {
					return curve.ID, true
				}
			}
		}
	}
	return "", false
}

var mnemonicTokenPattern = regexp.MustCompile(`[A-Z0-9_]{2,}`)

// handleCurveLookup answers "which well has curve X" style queries by
// uppercasing the query and scanning its [A-Z0-9_]{2,} tokens for a
// matching mnemonic.
func handleCurveLookup(graph *graphindex.Graph, query string) (string, bool) {
	for _, token := range mnemonicTokenPattern.FindAllString(strings.ToUpper(query), -1) {
		wells := graph.GetWellsWithMnemonic(token)
		if len(wells) == 0 {
			continue
		}
		wellID := wells[0]
		node, _ := graph.GetNode(wellID)
		wellName := attrString(node, "WELL")

		var response string
		if wellName != "" {
			response = fmt.Sprintf("%s (well ID: %s)", wellName, wellID)
		} else {
			response = wellID
		}
		if len(wells) > 1 {
			response = fmt.Sprintf("%s (plus %d other matches)", response, len(wells)-1)
		}
		return response, true
	}
	return "", false
}
