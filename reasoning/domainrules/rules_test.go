package domainrules

import (
	"strings"
	"testing"
)

func TestApply_MatchesKnownRules(t *testing.T) {
	cases := map[string]string{
		"what does NPHI measure":               "neutron porosity",
		"what is gamma ray used for":           "natural radioactivity",
		"explain RHOB":                          "bulk density",
		"what is a neutron density crossover":  "Neutron-density crossover",
		"how do I identify gas-bearing zones":  "neutron-density crossover",
		"which lithology tool is standard":     "Photoelectric factor",
	}

	for query, want := range cases {
		answer, ok := Apply(query)
		if !ok {
			t.Fatalf("query %q: expected a rule match", query)
		}
		if !strings.Contains(answer, want) {
			t.Errorf("query %q: answer %q missing expected substring %q", query, answer, want)
		}
	}
}

func TestApply_NoMatchReturnsFalse(t *testing.T) {
	_, ok := Apply("how many wells are there?")
	if ok {
		t.Fatal("expected no domain rule to match a count query")
	}
}
