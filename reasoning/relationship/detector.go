// Package relationship detects graph-relationship queries ("what curves does
// well X have", "which site does measurement Y belong to") and derives a
// traversal strategy and confidence score for the retrieval pipeline.
package relationship

import (
	"regexp"
	"strings"

	"github.com/krump3t/astra-graphrag/graphindex"
)

// Type is a closed set of relationship shapes the detector recognizes.
type Type string

const (
	WellToCurves      Type = "well_to_curves"
	CurveToWell       Type = "curve_to_well"
	CurveToDocument   Type = "curve_to_document"
	SiteToMeasurements Type = "site_to_measurements"
	MeasurementToSite Type = "measurement_to_site"
)

var relationshipPatterns = []struct {
	Type     Type
	Patterns []*regexp.Regexp
}{
	{WellToCurves, compileAll(
		`what curves.*well\s+(\S+)`,
		`curves.*available.*well\s+(\S+)`,
		`curves.*in well\s+(\S+)`,
		`list curves.*well\s+(\S+)`,
		`show.*curves.*well\s+(\S+)`,
	)},
	{CurveToWell, compileAll(
		`which well.*curve\s+(\S+)`,
		`what well.*curve\s+(\S+)`,
		`(\S+)\s+curve.*belong`,
		`(\S+)\s+curve.*from which well`,
	)},
	{CurveToDocument, compileAll(
		`document.*contains.*curve\s+(\S+)`,
		`which document.*curve\s+(\S+)`,
		`what is the document.*curve\s+(\S+)`,
	)},
	{SiteToMeasurements, compileAll(
		`measurements.*site\s+(\S+)`,
		`what measurements.*site\s+(\S+)`,
		`data.*site\s+(\S+)`,
	)},
	{MeasurementToSite, compileAll(
		`which site.*measurement`,
		`where.*measurement.*taken`,
	)},
}

var relationshipKeywords = []string{
	"belongs to", "belong to", "describes", "describe", "connected to", "connected",
	"related to", "related", "associated with", "associated", "part of",
	"contains", "contain", "has", "have", "includes", "include",
	"from which", "for which",
}

var wellCurveTerms = []string{
	"curve suite", "log suite", "curve types", "available curves",
	"petrophysical", "hydrocarbon", "advanced interpretation", "curve coverage",
}

var (
	wellIDPattern   = regexp.MustCompile(`\b\d+_\d+-\d+\b`)
	wellNamePattern = regexp.MustCompile(`(?i)sleipner|troll|statfjord|gullfaks`)
	curveNamePattern = regexp.MustCompile(`(?i)FORCE_2020_LITHOFACIES|DEPT|GR|NPHI|RHOB|DTC|CALI`)
	siteIDPattern   = regexp.MustCompile(`\b\d{8}\b`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// TraversalStrategy says how, if at all, the retrieval pipeline should
// expand the graph around a relationship query's seeds.
type TraversalStrategy struct {
	ApplyTraversal bool
	Direction      *graphindex.Direction
	EdgeType       *graphindex.EdgeType
	MaxHops        int
}

// Detection is the full result of analyzing a query for relationship intent.
type Detection struct {
	IsRelationshipQuery bool
	RelationshipType    Type
	Entities            map[string]string
	Confidence          float64
	Evidence            []string
	Traversal           TraversalStrategy
}

// Detect scores query for relationship intent, extracts entity identifiers,
// and derives a traversal strategy.
func Detect(query string) Detection {
	lower := strings.ToLower(query)

	det := Detection{Entities: map[string]string{}}

	for _, entry := range relationshipPatterns {
		for _, pattern := range entry.Patterns {
			match := pattern.FindStringSubmatch(lower)
			if match == nil {
				continue
			}
			det.IsRelationshipQuery = true
			det.RelationshipType = entry.Type
			if len(match) > 1 {
				det.Entities["target"] = match[1]
			}
			break
		}
		if det.IsRelationshipQuery {
			break
		}
	}

	hasKeywords := containsAny(lower, relationshipKeywords)
	if !det.IsRelationshipQuery && hasKeywords {
		det.IsRelationshipQuery = true
	}

	if m := wellIDPattern.FindString(query); m != "" {
		det.Entities["well_id"] = m
	}
	if m := wellNamePattern.FindString(query); m != "" {
		det.Entities["well_name"] = m
	}
	if m := curveNamePattern.FindString(query); m != "" {
		det.Entities["curve_name"] = m
	}
	if m := siteIDPattern.FindString(query); m != "" {
		det.Entities["site_id"] = m
	}

	if wellID, ok := det.Entities["well_id"]; ok {
		matchesWellCurveTerm := containsAny(lower, wellCurveTerms) ||
			(strings.Contains(lower, "curve") && strings.Contains(lower, "well"))
		if matchesWellCurveTerm {
			if det.RelationshipType == "" {
				det.RelationshipType = WellToCurves
			}
			det.IsRelationshipQuery = true
			if _, ok := det.Entities["target"]; !ok {
				det.Entities["target"] = wellID
			}
		}
	}

	hasPattern := det.RelationshipType != "" && det.IsRelationshipQuery
	det.Confidence, det.Evidence = scoreConfidence(hasPattern, hasKeywords, det.Entities)
	det.Traversal = buildTraversalStrategy(det.RelationshipType, det.Confidence)

	return det
}

func scoreConfidence(hasPattern, hasKeywords bool, entities map[string]string) (float64, []string) {
	score := 0.0
	var evidence []string

	if hasPattern {
		score += 0.6
		evidence = append(evidence, "pattern_match:+0.6")
	}
	if hasKeywords {
		score += 0.2
		evidence = append(evidence, "keyword_hit:+0.2")
	}

	entityBoost := 0.0
	for _, key := range []string{"well_id", "curve_name", "site_id"} {
		if _, ok := entities[key]; ok {
			entityBoost += 0.1
			evidence = append(evidence, "entity:"+key+":+0.1")
			if entityBoost >= 0.2 {
				break
			}
		}
	}
	score += entityBoost

	if hasPattern && hasKeywords {
		score += 0.1
		evidence = append(evidence, "synergy:+0.1")
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score, evidence
}

func buildTraversalStrategy(relType Type, confidence float64) TraversalStrategy {
	var strategy TraversalStrategy

	if relType == "" {
		return strategy
	}

	out := graphindex.DirectionOutgoing
	in := graphindex.DirectionIncoming
	describes := graphindex.EdgeDescribes
	reportsOn := graphindex.EdgeReportsOn

	switch relType {
	case WellToCurves:
		strategy.Direction = &in
		strategy.EdgeType = &describes
	case CurveToWell:
		strategy.Direction = &out
		strategy.EdgeType = &describes
	case SiteToMeasurements:
		strategy.Direction = &in
		strategy.EdgeType = &reportsOn
	case MeasurementToSite:
		strategy.Direction = &out
		strategy.EdgeType = &reportsOn
	}

	switch {
	case confidence >= 0.85:
		strategy.ApplyTraversal = true
		strategy.MaxHops = 2
	case confidence >= 0.6:
		strategy.ApplyTraversal = true
		strategy.MaxHops = 1
	default:
		strategy.ApplyTraversal = false
		strategy.MaxHops = 0
	}

	return strategy
}

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
