package graphindex

import "strings"

// Direction constrains which adjacency index get_connected/expand consult.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// RelationshipSummary reports edge counts by type in each direction for a
// single node.
type RelationshipSummary struct {
	NodeID    string
	NodeType  NodeType
	Outgoing  EdgeCount
	Incoming  EdgeCount
}

// EdgeCount is the total edge count and a per-type breakdown.
type EdgeCount struct {
	Count  int
	ByType map[EdgeType]int
}

// GetNode returns the node for id, or false if unknown. Unknown ids are
// never an error — graph lookups are always total.
func (g *Graph) GetNode(id string) (*Node, bool) {
	n, ok := g.nodesByID[id]
	return n, ok
}

// GetConnected returns nodes reachable from id via a single edge, optionally
// filtered by edge type, in the given direction.
func (g *Graph) GetConnected(id string, edgeType *EdgeType, direction Direction) []*Node {
	index := g.outgoing
	if direction == DirectionIncoming {
		index = g.incoming
	}

	var out []*Node
	for _, ref := range index[id] {
		if edgeType != nil && ref.EdgeType != *edgeType {
			continue
		}
		if n, ok := g.nodesByID[ref.NeighborID]; ok {
			out = append(out, n)
		}
	}
	return out
}

// GetCurvesForWell returns the curves whose `describes` edge points at
// wellID, in the order the edge index recorded them.
func (g *Graph) GetCurvesForWell(wellID string) []*Node {
	return g.wellToCurves[wellID]
}

// GetWellForCurve returns the well a curve describes. A curve describes at
// most one well by invariant; if the graph somehow carries more than one
// outgoing describes edge, the first is returned.
func (g *Graph) GetWellForCurve(curveID string) (*Node, bool) {
	describes := EdgeDescribes
	wells := g.GetConnected(curveID, &describes, DirectionOutgoing)
	if len(wells) == 0 {
		return nil, false
	}
	return wells[0], true
}

// GetMeasurementsForSite is the reports_on analogue of GetCurvesForWell for
// the USGS hydrology domain.
func (g *Graph) GetMeasurementsForSite(siteID string) []*Node {
	reportsOn := EdgeReportsOn
	return g.GetConnected(siteID, &reportsOn, DirectionIncoming)
}

// GetSiteForMeasurement is the reports_on analogue of GetWellForCurve.
func (g *Graph) GetSiteForMeasurement(measurementID string) (*Node, bool) {
	reportsOn := EdgeReportsOn
	sites := g.GetConnected(measurementID, &reportsOn, DirectionOutgoing)
	if len(sites) == 0 {
		return nil, false
	}
	return sites[0], true
}

// GetMnemonicsForWell returns the set of uppercased curve mnemonics
// precomputed for wellID at load time.
func (g *Graph) GetMnemonicsForWell(wellID string) map[string]struct{} {
	return g.wellMnemonics[wellID]
}

// GetWellsWithMnemonic is a linear scan over wells for the given mnemonic,
// acceptable at current graph scale per the design notes.
func (g *Graph) GetWellsWithMnemonic(mnemonic string) []string {
	mn := strings.ToUpper(mnemonic)
	var wells []string
	for wellID, mnems := range g.wellMnemonics {
		if _, ok := mnems[mn]; ok {
			wells = append(wells, wellID)
		}
	}
	return wells
}

// CurvesByUnit scans all curve nodes for an exact (case-insensitive) match
// on their "unit" attribute, returning uppercased mnemonics. Acceptable at
// current graph scale, same as GetWellsWithMnemonic.
func (g *Graph) CurvesByUnit(unit string) []string {
	target := strings.ToLower(unit)
	var mnemonics []string

	for _, node := range g.nodesByID {
		if node.Type != NodeLASCurve {
			continue
		}
		u, ok := node.Attr("unit")
		if !ok || strings.ToLower(toStringAttr(u)) != target {
			continue
		}
		m, ok := node.Attr("mnemonic")
		if !ok {
			continue
		}
		if ms := toStringAttr(m); ms != "" {
			mnemonics = append(mnemonics, strings.ToUpper(ms))
		}
	}

	return mnemonics
}

// NodesByType returns every node of the given type, in index iteration
// order. Acceptable at current graph scale, same as GetWellsWithMnemonic.
func (g *Graph) NodesByType(t NodeType) []*Node {
	var nodes []*Node
	for _, n := range g.nodesByID {
		if n.Type == t {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func toStringAttr(v interface{}) string {
	s, _ := v.(string)
	return s
}

// Expand performs a breadth-first expansion from seeds up to maxHops,
// returning seeds plus every newly discovered node. If direction is nil,
// both outgoing and incoming edges are followed at every hop. Traversal
// terminates when maxHops is reached or no new nodes are added in a layer.
// Order within a layer follows the edge index's insertion order.
func (g *Graph) Expand(seeds []string, direction *Direction, maxHops int) []*Node {
	visited := make(map[string]struct{}, len(seeds))
	var out []*Node

	for _, s := range seeds {
		if _, ok := visited[s]; ok {
			continue
		}
		if n, ok := g.nodesByID[s]; ok {
			out = append(out, n)
		}
		visited[s] = struct{}{}
	}

	currentLayer := append([]string(nil), seeds...)

	for hop := 0; hop < maxHops; hop++ {
		var nextLayer []string

		for _, id := range currentLayer {
			if direction == nil || *direction == DirectionOutgoing {
				nextLayer = g.expandOneDirection(id, g.outgoing, visited, &out, nextLayer)
			}
			if direction == nil || *direction == DirectionIncoming {
				nextLayer = g.expandOneDirection(id, g.incoming, visited, &out, nextLayer)
			}
		}

		if len(nextLayer) == 0 {
			break
		}
		currentLayer = nextLayer
	}

	return out
}

func (g *Graph) expandOneDirection(id string, index map[string][]neighborRef, visited map[string]struct{}, out *[]*Node, nextLayer []string) []string {
	for _, ref := range index[id] {
		if _, seen := visited[ref.NeighborID]; seen {
			continue
		}
		visited[ref.NeighborID] = struct{}{}
		if n, ok := g.nodesByID[ref.NeighborID]; ok {
			*out = append(*out, n)
		}
		nextLayer = append(nextLayer, ref.NeighborID)
	}
	return nextLayer
}

// GetRelationshipSummary reports outgoing/incoming edge counts by type for id.
func (g *Graph) GetRelationshipSummary(id string) (RelationshipSummary, bool) {
	node, ok := g.nodesByID[id]
	if !ok {
		return RelationshipSummary{}, false
	}

	return RelationshipSummary{
		NodeID:   id,
		NodeType: node.Type,
		Outgoing: countByType(g.outgoing[id]),
		Incoming: countByType(g.incoming[id]),
	}, true
}

func countByType(refs []neighborRef) EdgeCount {
	byType := make(map[EdgeType]int)
	for _, ref := range refs {
		byType[ref.EdgeType]++
	}
	return EdgeCount{Count: len(refs), ByType: byType}
}
