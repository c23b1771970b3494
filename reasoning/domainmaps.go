package reasoning

import "strings"

// Canonical curve groupings used to classify a well's curve suite into
// measurement categories for the well-relationship handlers.
var (
	resistivitySet = stringSet("RDEP", "RSHA", "RMED", "RXO", "RT", "RLLD", "RLLS", "RESD", "RESM")
	porositySet    = stringSet("NPHI", "RHOB", "DTC")
	depthSet       = stringSet("DEPT", "DEPTH_MD")
	lithoSet       = stringSet("FORCE_2020_LITHOFACIES", "FORCE_2020_LITHOFACIES_CONFIDENCE")
)

func stringSet(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// isStandardMnemonic reports whether m is a short standard code rather than
// a long FORCE_2020 tag.
func isStandardMnemonic(m string) bool {
	m = strings.TrimSpace(m)
	if m == "" {
		return false
	}
	if strings.HasPrefix(m, "FORCE_2020") {
		return false
	}
	return len(m) <= 8
}

// curveGroups organizes ordered mnemonics into the four measurement
// categories a well-relationship handler reasons about.
type curveGroups struct {
	Depth       []string
	Resistivity []string
	Porosity    []string
	Lithology   []string
}

func buildCurveGroups(orderedMnemonics []string) curveGroups {
	var g curveGroups
	for _, m := range orderedMnemonics {
		if _, ok := depthSet[m]; ok {
			g.Depth = append(g.Depth, m)
		}
		if _, ok := resistivitySet[m]; ok {
			g.Resistivity = append(g.Resistivity, m)
		}
		if _, ok := porositySet[m]; ok {
			g.Porosity = append(g.Porosity, m)
		}
		if _, ok := lithoSet[m]; ok {
			g.Lithology = append(g.Lithology, m)
		}
	}
	return g
}
