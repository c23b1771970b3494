// Package graphindex holds the in-memory node/edge graph loaded once at
// startup, its derived indices, and the BFS-based Traverser used for
// relationship queries and graph-expansion of vector search results.
package graphindex

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// EdgeType is the closed set of relationship kinds the graph carries.
type EdgeType string

const (
	EdgeDescribes  EdgeType = "describes"   // curve -> well
	EdgeReportsOn  EdgeType = "reports_on"  // measurement -> site
)

// NodeType tags what kind of domain entity a node represents.
type NodeType string

const (
	NodeLASDocument    NodeType = "las_document"
	NodeLASCurve       NodeType = "las_curve"
	NodeUSGSSite       NodeType = "usgs_site"
	NodeUSGSMeasurement NodeType = "usgs_measurement"
	NodeEIARecord      NodeType = "eia_record"
)

// Node is immutable after the graph loads.
type Node struct {
	ID         string                 `json:"id"`
	Type       NodeType               `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Attr returns an attribute value and whether it was present.
func (n *Node) Attr(key string) (interface{}, bool) {
	if n == nil || n.Attributes == nil {
		return nil, false
	}
	v, ok := n.Attributes[key]
	return v, ok
}

// Edge is immutable after the graph loads.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
}

// rawGraph is the on-disk JSON contract: {nodes: [...], edges: [...]}.
type rawGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// neighborRef is one entry of an adjacency list: the neighbor id and the
// edge type connecting to it, preserving edge-index insertion order.
type neighborRef struct {
	NeighborID string
	EdgeType   EdgeType
}

// Graph is the loaded node/edge graph plus its derived indices. It is safe
// for concurrent read access and is never mutated after LoadGraph returns.
type Graph struct {
	nodesByID map[string]*Node

	outgoing map[string][]neighborRef
	incoming map[string][]neighborRef

	wellToCurves  map[string][]*Node
	curveToWell   map[string]string
	wellMnemonics map[string]map[string]struct{}
}

// LoadGraph reads and parses the graph file contract, builds the derived
// indices, and validates that every edge endpoint resolves to an existing
// node. A missing file or a dangling edge endpoint is a fatal load-time
// error, per the graph's immutability invariant.
func LoadGraph(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("graphindex: open graph file %q: %w", path, err)
	}
	defer f.Close()

	return loadGraphFrom(f)
}

func loadGraphFrom(r io.Reader) (*Graph, error) {
	var raw rawGraph
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("graphindex: decode graph: %w", err)
	}

	g := &Graph{
		nodesByID:     make(map[string]*Node, len(raw.Nodes)),
		outgoing:      make(map[string][]neighborRef),
		incoming:      make(map[string][]neighborRef),
		wellToCurves:  make(map[string][]*Node),
		curveToWell:   make(map[string]string),
		wellMnemonics: make(map[string]map[string]struct{}),
	}

	for i := range raw.Nodes {
		n := raw.Nodes[i]
		g.nodesByID[n.ID] = &n
	}

	for _, e := range raw.Edges {
		if _, ok := g.nodesByID[e.Source]; !ok {
			return nil, fmt.Errorf("graphindex: edge %q has unknown source %q", e.ID, e.Source)
		}
		if _, ok := g.nodesByID[e.Target]; !ok {
			return nil, fmt.Errorf("graphindex: edge %q has unknown target %q", e.ID, e.Target)
		}
		g.outgoing[e.Source] = append(g.outgoing[e.Source], neighborRef{NeighborID: e.Target, EdgeType: e.Type})
		g.incoming[e.Target] = append(g.incoming[e.Target], neighborRef{NeighborID: e.Source, EdgeType: e.Type})
	}

	g.buildWellCurveIndices()

	return g, nil
}

func (g *Graph) buildWellCurveIndices() {
	for id, node := range g.nodesByID {
		if node.Type != NodeLASDocument {
			continue
		}

		var curves []*Node
		mnemonics := make(map[string]struct{})

		for _, ref := range g.incoming[id] {
			if ref.EdgeType != EdgeDescribes {
				continue
			}
			curve, ok := g.nodesByID[ref.NeighborID]
			if !ok || curve.Type != NodeLASCurve {
				continue
			}
			curves = append(curves, curve)
			g.curveToWell[ref.NeighborID] = id

			if m, ok := curve.Attr("mnemonic"); ok {
				if ms, ok := m.(string); ok && ms != "" {
					mnemonics[strings.ToUpper(ms)] = struct{}{}
				}
			}
		}

		g.wellToCurves[id] = curves
		g.wellMnemonics[id] = mnemonics
	}
}
