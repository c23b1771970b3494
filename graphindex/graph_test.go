package graphindex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGraphJSON = `{
  "nodes": [
    {"id": "force2020-well-15_9-13", "type": "las_document", "attributes": {"WELL": "15/9-13"}},
    {"id": "force2020-curve-1", "type": "las_curve", "attributes": {"mnemonic": "gr"}},
    {"id": "force2020-curve-2", "type": "las_curve", "attributes": {"mnemonic": "NPHI"}},
    {"id": "usgs-site-03339000", "type": "usgs_site", "attributes": {}},
    {"id": "usgs-measurement-1", "type": "usgs_measurement", "attributes": {}}
  ],
  "edges": [
    {"id": "e1", "source": "force2020-curve-1", "target": "force2020-well-15_9-13", "type": "describes"},
    {"id": "e2", "source": "force2020-curve-2", "target": "force2020-well-15_9-13", "type": "describes"},
    {"id": "e3", "source": "usgs-measurement-1", "target": "usgs-site-03339000", "type": "reports_on"}
  ]
}`

func mustLoadSample(t *testing.T) *Graph {
	t.Helper()
	g, err := loadGraphFrom(strings.NewReader(sampleGraphJSON))
	require.NoError(t, err)
	return g
}

func TestLoadGraph_IndexConsistency(t *testing.T) {
	g := mustLoadSample(t)

	for _, ref := range g.outgoing["force2020-curve-1"] {
		assert.Equal(t, "force2020-well-15_9-13", ref.NeighborID)
		assert.Equal(t, EdgeDescribes, ref.EdgeType)
	}

	found := false
	for _, ref := range g.incoming["force2020-well-15_9-13"] {
		if ref.NeighborID == "force2020-curve-1" {
			found = true
		}
	}
	assert.True(t, found, "edge endpoint should resolve in the incoming index")
}

func TestLoadGraph_UnknownEndpointIsFatal(t *testing.T) {
	_, err := loadGraphFrom(strings.NewReader(`{"nodes":[{"id":"a","type":"las_curve"}],"edges":[{"id":"e1","source":"a","target":"missing","type":"describes"}]}`))
	assert.Error(t, err)
}

func TestGetNode_UnknownIsAbsentNotError(t *testing.T) {
	g := mustLoadSample(t)
	_, ok := g.GetNode("does-not-exist")
	assert.False(t, ok)
}

func TestGetCurvesForWell(t *testing.T) {
	g := mustLoadSample(t)
	curves := g.GetCurvesForWell("force2020-well-15_9-13")
	require.Len(t, curves, 2)
}

func TestGetWellForCurve(t *testing.T) {
	g := mustLoadSample(t)
	well, ok := g.GetWellForCurve("force2020-curve-1")
	require.True(t, ok)
	assert.Equal(t, "force2020-well-15_9-13", well.ID)
}

func TestGetMeasurementsAndSite(t *testing.T) {
	g := mustLoadSample(t)
	measurements := g.GetMeasurementsForSite("usgs-site-03339000")
	require.Len(t, measurements, 1)

	site, ok := g.GetSiteForMeasurement("usgs-measurement-1")
	require.True(t, ok)
	assert.Equal(t, "usgs-site-03339000", site.ID)
}

func TestGetMnemonicsForWell_Uppercased(t *testing.T) {
	g := mustLoadSample(t)
	mnems := g.GetMnemonicsForWell("force2020-well-15_9-13")
	_, ok := mnems["GR"]
	assert.True(t, ok, "mnemonics should be stored uppercased regardless of source casing")
	_, ok = mnems["NPHI"]
	assert.True(t, ok)
}

func TestGetWellsWithMnemonic(t *testing.T) {
	g := mustLoadSample(t)
	wells := g.GetWellsWithMnemonic("gr")
	require.Len(t, wells, 1)
	assert.Equal(t, "force2020-well-15_9-13", wells[0])
}

func TestExpand_SeedsIncludedAndBounded(t *testing.T) {
	g := mustLoadSample(t)

	results := g.Expand([]string{"force2020-well-15_9-13"}, nil, 1)
	ids := nodeIDs(results)
	assert.Contains(t, ids, "force2020-well-15_9-13")
	assert.Contains(t, ids, "force2020-curve-1")
	assert.Contains(t, ids, "force2020-curve-2")
	assert.LessOrEqual(t, len(results), 5)
}

func TestExpand_ZeroHopsReturnsSeedsOnly(t *testing.T) {
	g := mustLoadSample(t)
	results := g.Expand([]string{"force2020-well-15_9-13"}, nil, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "force2020-well-15_9-13", results[0].ID)
}

func TestGetRelationshipSummary(t *testing.T) {
	g := mustLoadSample(t)
	summary, ok := g.GetRelationshipSummary("force2020-well-15_9-13")
	require.True(t, ok)
	assert.Equal(t, 2, summary.Incoming.Count)
	assert.Equal(t, 2, summary.Incoming.ByType[EdgeDescribes])
}

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
