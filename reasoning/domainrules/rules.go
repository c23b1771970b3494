// Package domainrules applies a small set of deterministic petrophysics
// interpretations before falling back to LLM generation.
package domainrules

import "strings"

// Rule inspects a query and optionally returns a factual answer.
type Rule func(query string) (string, bool)

var rules = []Rule{
	ruleNPHIPurpose,
	ruleGRPurpose,
	ruleRHOBPurpose,
	ruleNeutronDensityCrossover,
	ruleGasBearingDetection,
	ruleLithologyTools,
}

// Apply runs each rule in order, returning the first match.
func Apply(query string) (string, bool) {
	for _, rule := range rules {
		if answer, ok := rule(query); ok {
			return answer, true
		}
	}
	return "", false
}

func containsAny(text string, terms ...string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func ruleNPHIPurpose(query string) (string, bool) {
	if containsAny(query, "nphi", "neutron porosity") {
		return "NPHI measures neutron porosity (hydrogen content).", true
	}
	return "", false
}

func ruleGRPurpose(query string) (string, bool) {
	if containsAny(query, "gamma ray", "gr") {
		return "Gamma ray (GR) measures natural radioactivity; high GR typically indicates shale.", true
	}
	return "", false
}

func ruleRHOBPurpose(query string) (string, bool) {
	if containsAny(query, "rhob", "bulk density", "density log") {
		return "RHOB measures bulk density; used with NPHI for porosity analysis.", true
	}
	return "", false
}

func ruleNeutronDensityCrossover(query string) (string, bool) {
	if containsAny(query, "neutron-density crossover", "neutron density crossover", "crossover pattern") {
		return "Neutron-density crossover occurs when NPHI exceeds RHOB-derived porosity; in clean gas-bearing sands this crossover is a common indicator of gas.", true
	}
	return "", false
}

func ruleGasBearingDetection(query string) (string, bool) {
	if containsAny(query, "gas-bearing", "gas bearing", "identify gas") {
		return "Use neutron-density crossover (NPHI greater than density-derived porosity), low density, and supportive resistivity increase to identify gas-bearing zones.", true
	}
	return "", false
}

func ruleLithologyTools(query string) (string, bool) {
	if containsAny(query, "lithology identification", "lithology tool", "photoelectric", "pef") {
		return "PEF (Photoelectric factor) is the standard tool for lithology identification.", true
	}
	return "", false
}
