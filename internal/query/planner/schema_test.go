package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/query/expr"
)

func TestSchemaGroupsAndScope(t *testing.T) {
	s := NewSchema()
	aID := expr.NewInternalID("a")
	age := propExpr("a", "age")

	g := s.CreateGroup(true)
	s.InsertToGroup(aID, g)
	s.InsertToGroup(age, g)
	// Re-inserting an in-scope expression is a no-op.
	s.InsertToGroup(aID, g)

	assert.Equal(t, 1, s.NumGroups())
	assert.True(t, s.IsExpressionInScope(aID))
	assert.False(t, s.IsExpressionInScope(expr.NewInternalID("b")))

	pos, ok := s.GroupPosOf(age)
	require.True(t, ok)
	assert.Equal(t, GroupPos{Group: 0, Pos: 1}, pos)
	assert.Len(t, s.ExpressionsInScope(), 2)
}

func TestSchemaFlatten(t *testing.T) {
	s := NewSchema()
	g := s.CreateGroup(false)
	s.InsertToGroup(expr.NewInternalID("b"), g)
	assert.False(t, s.Group(g).IsFlat())

	s.FlattenGroup(g)
	assert.True(t, s.Group(g).IsFlat())
}

func TestSchemaCopyIsIndependent(t *testing.T) {
	s := NewSchema()
	g := s.CreateGroup(false)
	s.InsertToGroup(expr.NewInternalID("a"), g)

	cp := s.Copy()
	cp.FlattenGroup(g)
	cp.InsertToGroup(expr.NewInternalID("b"), g)

	assert.False(t, s.Group(g).IsFlat(), "copy must not alias the original")
	assert.False(t, s.IsExpressionInScope(expr.NewInternalID("b")))
	assert.True(t, cp.IsExpressionInScope(expr.NewInternalID("b")))
}

func TestHashJoinSchemaMergesSides(t *testing.T) {
	bID := expr.NewInternalID("b")
	probe := newScanNodeTable(expr.NewInternalID("a"), nil, []expr.Expression{bID})
	build := newScanNodeTable(bID, nil, []expr.Expression{propExpr("b", "age")})

	joinOp := newHashJoin(probe, build, []expr.Expression{bID}, JoinInner)
	schema := joinOp.Schema()

	assert.True(t, schema.IsExpressionInScope(expr.NewInternalID("a")))
	assert.True(t, schema.IsExpressionInScope(bID))
	assert.True(t, schema.IsExpressionInScope(propExpr("b", "age")))
	// The join key resolves exactly once.
	count := 0
	for _, e := range schema.ExpressionsInScope() {
		if e.String() == bID.String() {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtendSchemaAddsUnflatGroup(t *testing.T) {
	f := personFixture(t)
	g := f.chainGraph(2)
	rel := g.QueryRel(0)

	scan := newScanNodeTable(expr.NewInternalID("a"), nil, nil)
	extendOp := newExtend(scan, expr.NewInternalID("a"), expr.NewInternalID("b"), rel, ExtendFwd, nil)

	schema := extendOp.Schema()
	pos, ok := schema.GroupPosOf(expr.NewInternalID("b"))
	require.True(t, ok)
	assert.False(t, schema.Group(pos.Group).IsFlat(), "neighbor side lands in an unflat group")
	// The bound side is untouched.
	boundPos, ok := schema.GroupPosOf(expr.NewInternalID("a"))
	require.True(t, ok)
	assert.True(t, schema.Group(boundPos.Group).IsFlat())
}
