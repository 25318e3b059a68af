package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/config"
	"github.com/kestreldb/kestrel/internal/log"
	"github.com/kestreldb/kestrel/internal/query/graph"
	"github.com/kestreldb/kestrel/internal/txn"
)

// fixture wires a memory catalog, a transaction, and helpers to declare
// tables and query graphs for planner tests.
type fixture struct {
	t      *testing.T
	cat    *catalog.MemoryCatalog
	tx     *txn.Transaction
	tables map[string]catalog.TableID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:      t,
		cat:    catalog.NewMemoryCatalog(),
		tx:     txn.New(),
		tables: make(map[string]catalog.TableID),
	}
}

func (f *fixture) nodeTable(name string, rows int64) {
	f.t.Helper()
	tbl, err := f.cat.CreateNodeTable(name, []catalog.Property{
		{Name: "age", DataType: catalog.TypeInt64},
		{Name: "name", DataType: catalog.TypeString},
	})
	require.NoError(f.t, err)
	f.cat.SetTableStats(tbl.ID, &catalog.TableStats{RowCount: rows, AvgRowSize: 32})
	f.tables[name] = tbl.ID
}

func (f *fixture) relTable(name, src, dst string, rows int64, degree float64) {
	f.t.Helper()
	tbl, err := f.cat.CreateRelTable(name, f.tables[src], f.tables[dst], nil)
	require.NoError(f.t, err)
	f.cat.SetTableStats(tbl.ID, &catalog.TableStats{RowCount: rows, AvgDegree: degree, AvgRowSize: 16})
	f.tables[name] = tbl.ID
}

func (f *fixture) queryNode(g *graph.QueryGraph, varName, tableName string) {
	f.t.Helper()
	require.NoError(f.t, g.AddQueryNode(&graph.QueryNode{
		Name:     varName,
		TableIDs: []catalog.TableID{f.tables[tableName]},
	}))
}

func (f *fixture) queryRel(g *graph.QueryGraph, varName, tableName, src, dst string) {
	f.t.Helper()
	require.NoError(f.t, g.AddQueryRel(&graph.QueryRel{
		Name:        varName,
		SrcNodeName: src,
		DstNodeName: dst,
		Direction:   graph.DirectionFwd,
		Type:        graph.RelNonRecursive,
		TableIDs:    []catalog.TableID{f.tables[tableName]},
	}))
}

func (f *fixture) planner(cfg *config.Config) *Planner {
	f.t.Helper()
	p := NewPlanner(f.cat, f.tx, cfg, nil, NewPropertyExprCollection())
	p.SetLogger(log.Discard())
	return p
}

// personFixture declares one node table and one self-rel table, the default
// shape for most tests.
func personFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.nodeTable("Person", 1000)
	f.relTable("Knows", "Person", "Person", 5000, 5)
	return f
}

// triangleGraph builds nodes {a, b, c} with e1: a->b, e2: b->c, e3: a->c.
func (f *fixture) triangleGraph() *graph.QueryGraph {
	g := graph.NewQueryGraph()
	f.queryNode(g, "a", "Person")
	f.queryNode(g, "b", "Person")
	f.queryNode(g, "c", "Person")
	f.queryRel(g, "e1", "Knows", "a", "b")
	f.queryRel(g, "e2", "Knows", "b", "c")
	f.queryRel(g, "e3", "Knows", "a", "c")
	return g
}

// chainGraph builds n nodes linked by n-1 rels: a-r0-b-r1-c-...
func (f *fixture) chainGraph(n int) *graph.QueryGraph {
	g := graph.NewQueryGraph()
	for i := 0; i < n; i++ {
		f.queryNode(g, nodeName(i), "Person")
	}
	for i := 0; i < n-1; i++ {
		f.queryRel(g, relName(i), "Knows", nodeName(i), nodeName(i+1))
	}
	return g
}

func nodeName(i int) string {
	return string(rune('a' + i))
}

func relName(i int) string {
	return "r" + string(rune('0'+i))
}

// relCounts tallies how often each relationship is traversed in the plan.
func relCounts(plan *LogicalPlan) map[string]int {
	counts := make(map[string]int)
	for _, op := range plan.CollectOperators(OpTypeExtend) {
		counts[op.(*Extend).Rel.Name]++
	}
	for _, op := range plan.CollectOperators(OpTypeRecursiveExtend) {
		counts[op.(*RecursiveExtend).Rel.Name]++
	}
	return counts
}

// scannedNodeVars tallies node variables read by table scans.
func scannedNodeVars(plan *LogicalPlan) map[string]int {
	counts := make(map[string]int)
	for _, op := range plan.CollectOperators(OpTypeScanNodeTable) {
		counts[op.(*ScanNodeTable).NodeID.Variable]++
	}
	return counts
}

// filterCount tallies Filter operators whose predicate renders as s.
func filterCount(plan *LogicalPlan, s string) int {
	count := 0
	for _, op := range plan.CollectOperators(OpTypeFilter) {
		if op.(*Filter).Predicate.String() == s {
			count++
		}
	}
	return count
}
