package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/query/expr"
)

func mustAddNode(t *testing.T, g *QueryGraph, name string) {
	t.Helper()
	require.NoError(t, g.AddQueryNode(&QueryNode{Name: name, TableIDs: []catalog.TableID{1}}))
}

func mustAddRel(t *testing.T, g *QueryGraph, name, src, dst string) {
	t.Helper()
	require.NoError(t, g.AddQueryRel(&QueryRel{
		Name: name, SrcNodeName: src, DstNodeName: dst,
		Direction: DirectionFwd, Type: RelNonRecursive, TableIDs: []catalog.TableID{2},
	}))
}

// triangle builds nodes {a, b, c} with e1: a->b, e2: b->c, e3: a->c.
func triangle(t *testing.T) *QueryGraph {
	t.Helper()
	g := NewQueryGraph()
	mustAddNode(t, g, "a")
	mustAddNode(t, g, "b")
	mustAddNode(t, g, "c")
	mustAddRel(t, g, "e1", "a", "b")
	mustAddRel(t, g, "e2", "b", "c")
	mustAddRel(t, g, "e3", "a", "c")
	return g
}

func TestQueryGraphPositions(t *testing.T) {
	g := triangle(t)

	assert.Equal(t, 3, g.NumQueryNodes())
	assert.Equal(t, 3, g.NumQueryRels())
	assert.Equal(t, 0, g.QueryNodeIdx("a"))
	assert.Equal(t, 2, g.QueryNodeIdx("c"))
	assert.Equal(t, 1, g.QueryRelIdx("e2"))
	assert.Equal(t, -1, g.QueryNodeIdx("z"))
	assert.True(t, g.ContainsVariable("e3"))
	assert.False(t, g.ContainsVariable("e4"))
}

func TestQueryGraphRejectsDuplicatesAndDanglingRels(t *testing.T) {
	g := NewQueryGraph()
	mustAddNode(t, g, "a")
	assert.Error(t, g.AddQueryNode(&QueryNode{Name: "a"}))
	assert.Error(t, g.AddQueryRel(&QueryRel{Name: "e", SrcNodeName: "a", DstNodeName: "missing"}))
}

func TestCanProjectExpression(t *testing.T) {
	g := triangle(t)
	inGraph := &expr.FunctionCall{Name: "EQUALS", Type: catalog.TypeBool, Args: []expr.Expression{
		&expr.PropertyAccess{Variable: "a", Property: "age"},
		&expr.PropertyAccess{Variable: "b", Property: "age"},
	}}
	outOfGraph := &expr.PropertyAccess{Variable: "z", Property: "age"}

	assert.True(t, g.CanProjectExpression(inGraph))
	assert.False(t, g.CanProjectExpression(outOfGraph))
}

func TestSubqueryGraphSelectors(t *testing.T) {
	g := triangle(t)
	sg := g.EmptySubqueryGraph()

	// A rel selector bit implies both endpoint node bits.
	sg.AddQueryRel(g.QueryRelIdx("e1"))
	assert.True(t, sg.ContainsRel(0))
	assert.True(t, sg.ContainsNode(g.QueryNodeIdx("a")))
	assert.True(t, sg.ContainsNode(g.QueryNodeIdx("b")))
	assert.False(t, sg.ContainsNode(g.QueryNodeIdx("c")))
	assert.Equal(t, 1, sg.NumRels())
	assert.True(t, sg.IsSingleRel())
	assert.Equal(t, 0, sg.SingleRelPos())

	other := g.EmptySubqueryGraph()
	other.AddQueryRel(g.QueryRelIdx("e2"))
	sg.AddSubqueryGraph(other)
	assert.Equal(t, 2, sg.NumRels())
	assert.Equal(t, 3, sg.NumNodes())
	assert.False(t, sg.IsSingleRel())
}

func TestSubqueryGraphEquality(t *testing.T) {
	g := triangle(t)
	a := g.EmptySubqueryGraph()
	a.AddQueryRel(0)
	b := g.EmptySubqueryGraph()
	b.AddQueryRel(0)
	c := g.EmptySubqueryGraph()
	c.AddQueryRel(1)

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestFullyMatchedSubqueryGraph(t *testing.T) {
	g := triangle(t)
	full := g.FullyMatchedSubqueryGraph()
	assert.Equal(t, 3, full.NumNodes())
	assert.Equal(t, 3, full.NumRels())

	// A single-edge graph's 1-rel subgraph is already fully matched.
	single := NewQueryGraph()
	mustAddNode(t, single, "a")
	mustAddNode(t, single, "b")
	mustAddRel(t, single, "e", "a", "b")
	sg := single.EmptySubqueryGraph()
	sg.AddQueryRel(0)
	fullSingle := single.FullyMatchedSubqueryGraph()
	assert.Equal(t, fullSingle.Key(), sg.Key())
}

func TestContainAllVariables(t *testing.T) {
	g := triangle(t)
	sg := g.EmptySubqueryGraph()
	sg.AddQueryRel(g.QueryRelIdx("e1")) // covers a, b, e1

	assert.True(t, sg.ContainAllVariables(map[string]struct{}{"a": {}, "b": {}}))
	assert.True(t, sg.ContainAllVariables(map[string]struct{}{"e1": {}}))
	assert.False(t, sg.ContainAllVariables(map[string]struct{}{"a": {}, "c": {}}))
	assert.False(t, sg.ContainAllVariables(map[string]struct{}{"e2": {}}))
	assert.False(t, sg.ContainAllVariables(map[string]struct{}{"unknown": {}}))
}

func TestRelNbrPositions(t *testing.T) {
	g := triangle(t)
	sg := g.EmptySubqueryGraph()
	sg.AddQueryRel(g.QueryRelIdx("e1")) // nodes a, b matched

	assert.ElementsMatch(t, []int{1, 2}, sg.RelNbrPositions())

	full := g.FullyMatchedSubqueryGraph()
	assert.Empty(t, full.RelNbrPositions())
}

func TestBaseNbrSubgraphsSingleSharedEndpoint(t *testing.T) {
	g := triangle(t)
	sg := g.EmptySubqueryGraph()
	sg.AddQueryRel(g.QueryRelIdx("e1")) // nodes a, b

	// e2 shares b; e3 shares a. One declared connection each.
	nbrs := sg.BaseNbrSubgraphs()
	require.Len(t, nbrs, 2)
	for _, nbr := range nbrs {
		assert.Equal(t, 1, nbr.NumRels())
		assert.Equal(t, 1, nbr.NumNodes())
	}
}

func TestBaseNbrSubgraphsDoublySharedEndpoints(t *testing.T) {
	// a->b and b->a: a neighbor rel shares both endpoints, so three
	// connection declarations are generated: {a}, {b}, {a,b}.
	g := NewQueryGraph()
	mustAddNode(t, g, "a")
	mustAddNode(t, g, "b")
	mustAddRel(t, g, "e1", "a", "b")
	mustAddRel(t, g, "e2", "b", "a")

	sg := g.EmptySubqueryGraph()
	sg.AddQueryRel(0)
	nbrs := sg.BaseNbrSubgraphs()
	require.Len(t, nbrs, 3)

	nodeCounts := make(map[int]int)
	for _, nbr := range nbrs {
		assert.True(t, nbr.ContainsRel(1))
		nodeCounts[nbr.NumNodes()]++
	}
	assert.Equal(t, map[int]int{1: 2, 2: 1}, nodeCounts)
}

func TestNodePositionsIgnoringNodeSelector(t *testing.T) {
	g := triangle(t)
	sg := g.EmptySubqueryGraph()
	sg.AddQueryNode(g.QueryNodeIdx("c"))
	sg.AddQueryRel(g.QueryRelIdx("e1"))

	// Only rel endpoints count; the explicitly selected node c does not.
	got := sg.NodePositionsIgnoringNodeSelector()
	assert.Len(t, got, 2)
	assert.Contains(t, got, g.QueryNodeIdx("a"))
	assert.Contains(t, got, g.QueryNodeIdx("b"))
}

func TestCanonicalCompletesEndpoints(t *testing.T) {
	g := triangle(t)
	partial := g.EmptySubqueryGraph()
	partial.addQueryRelOnly(g.QueryRelIdx("e2"))
	partial.AddQueryNode(g.QueryNodeIdx("b"))
	assert.Equal(t, 1, partial.NumNodes())

	canon := partial.Canonical()
	assert.Equal(t, 2, canon.NumNodes())
	assert.True(t, canon.ContainsNode(g.QueryNodeIdx("c")))
	assert.True(t, canon.ContainsRel(g.QueryRelIdx("e2")))
}

func TestConnectedQueryGraphIdx(t *testing.T) {
	g1 := NewQueryGraph()
	mustAddNode(t, g1, "a")
	mustAddNode(t, g1, "b")
	mustAddRel(t, g1, "e1", "a", "b")

	g2 := NewQueryGraph()
	mustAddNode(t, g2, "c")
	mustAddNode(t, g2, "d")
	mustAddRel(t, g2, "e2", "c", "d")

	coll := &QueryGraphCollection{QueryGraphs: []*QueryGraph{g1, g2}}

	assert.Equal(t, 1, coll.ConnectedQueryGraphIdx(expr.NewSet(expr.NewInternalID("c"))))
	assert.Equal(t, 0, coll.ConnectedQueryGraphIdx(expr.NewSet(expr.NewInternalID("b"))))
	assert.Equal(t, -1, coll.ConnectedQueryGraphIdx(expr.NewSet(expr.NewInternalID("z"))))
}
