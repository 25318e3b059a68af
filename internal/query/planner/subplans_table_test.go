package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/query/graph"
)

// tableChain builds a 3-node, 2-rel chain without touching the catalog.
func tableChain(t *testing.T) *graph.QueryGraph {
	t.Helper()
	g := graph.NewQueryGraph()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddQueryNode(&graph.QueryNode{Name: name}))
	}
	require.NoError(t, g.AddQueryRel(&graph.QueryRel{Name: "r0", SrcNodeName: "a", DstNodeName: "b"}))
	require.NoError(t, g.AddQueryRel(&graph.QueryRel{Name: "r1", SrcNodeName: "b", DstNodeName: "c"}))
	return g
}

func TestSubPlansTableAddAndLookup(t *testing.T) {
	g := tableChain(t)
	table := NewSubPlansTable(g.NumQueryRels())

	sg := g.EmptySubqueryGraph()
	sg.AddQueryRel(0)

	assert.False(t, table.ContainsSubgraphPlans(sg))
	assert.True(t, math.IsInf(table.GetMaxCost(sg), 1))

	cheap := &LogicalPlan{cost: 10}
	pricey := &LogicalPlan{cost: 25}
	table.AddPlan(sg, pricey)
	table.AddPlan(sg, cheap)

	require.True(t, table.ContainsSubgraphPlans(sg))
	assert.Len(t, table.GetSubgraphPlans(sg), 2)
	assert.Equal(t, 10.0, table.GetMaxCost(sg))

	// A worse plan appended later never raises the ceiling.
	table.AddPlan(sg, &LogicalPlan{cost: 99})
	assert.Equal(t, 10.0, table.GetMaxCost(sg))
}

func TestSubPlansTableLevelsAndOrder(t *testing.T) {
	g := tableChain(t)
	table := NewSubPlansTable(g.NumQueryRels())

	first := g.EmptySubqueryGraph()
	first.AddQueryRel(0)
	second := g.EmptySubqueryGraph()
	second.AddQueryRel(1)
	both := g.EmptySubqueryGraph()
	both.AddQueryRel(0)
	both.AddQueryRel(1)

	table.AddPlan(first, &LogicalPlan{cost: 1})
	table.AddPlan(second, &LogicalPlan{cost: 2})
	table.AddPlan(both, &LogicalPlan{cost: 3})

	level1 := table.GetSubqueryGraphs(1)
	require.Len(t, level1, 2)
	// Insertion order is preserved.
	assert.Equal(t, first.Key(), level1[0].Key())
	assert.Equal(t, second.Key(), level1[1].Key())

	level2 := table.GetSubqueryGraphs(2)
	require.Len(t, level2, 1)
	assert.Equal(t, both.Key(), level2[0].Key())

	assert.Empty(t, table.GetSubqueryGraphs(0))
}

func TestSubPlansTableCanonicalizesKeys(t *testing.T) {
	g := tableChain(t)
	table := NewSubPlansTable(g.NumQueryRels())

	// Plans are stored under canonical subgraphs; a generated neighbor with
	// a partial node declaration resolves to the same entry.
	stored := g.EmptySubqueryGraph()
	stored.AddQueryRel(1)
	table.AddPlan(stored, &LogicalPlan{cost: 5})

	seed := g.EmptySubqueryGraph()
	seed.AddQueryRel(0)
	nbrs := seed.BaseNbrSubgraphs()
	require.Len(t, nbrs, 1) // r1 connects at b only
	nbr := nbrs[0]
	assert.Equal(t, 1, nbr.NumNodes())

	assert.True(t, table.ContainsSubgraphPlans(nbr))
	assert.Len(t, table.GetSubgraphPlans(nbr), 1)
	assert.Equal(t, 5.0, table.GetMaxCost(nbr))
}
