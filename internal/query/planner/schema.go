package planner

import (
	"github.com/kestreldb/kestrel/internal/query/expr"
)

// GroupPos locates an expression inside a schema: the factor group holding it
// and its position within the group.
type GroupPos struct {
	Group int
	Pos   int
}

// FactorGroup is one factorization unit of a schema. A flat group holds one
// tuple per output row; an unflat group holds a list payload shared across
// the rows of its flat context.
type FactorGroup struct {
	expressions []expr.Expression
	flat        bool
}

// Expressions returns the expressions resolved to this group.
func (g *FactorGroup) Expressions() []expr.Expression {
	return g.expressions
}

// IsFlat reports whether the group is flat.
func (g *FactorGroup) IsFlat() bool {
	return g.flat
}

func (g *FactorGroup) copy() *FactorGroup {
	return &FactorGroup{
		expressions: append([]expr.Expression(nil), g.expressions...),
		flat:        g.flat,
	}
}

// Schema partitions the in-scope expressions of an operator into factor
// groups. Every expression resolves to exactly one (group, position) pair.
type Schema struct {
	groups  []*FactorGroup
	exprPos map[string]GroupPos
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{exprPos: make(map[string]GroupPos)}
}

// CreateGroup appends a group and returns its index.
func (s *Schema) CreateGroup(flat bool) int {
	s.groups = append(s.groups, &FactorGroup{flat: flat})
	return len(s.groups) - 1
}

// InsertToGroup resolves e to the given group. Re-inserting an in-scope
// expression is a no-op.
func (s *Schema) InsertToGroup(e expr.Expression, group int) {
	key := e.String()
	if _, ok := s.exprPos[key]; ok {
		return
	}
	g := s.groups[group]
	s.exprPos[key] = GroupPos{Group: group, Pos: len(g.expressions)}
	g.expressions = append(g.expressions, e)
}

// NumGroups returns the number of factor groups.
func (s *Schema) NumGroups() int {
	return len(s.groups)
}

// Group returns the group at idx.
func (s *Schema) Group(idx int) *FactorGroup {
	return s.groups[idx]
}

// GroupPosOf returns the (group, position) of an in-scope expression.
func (s *Schema) GroupPosOf(e expr.Expression) (GroupPos, bool) {
	pos, ok := s.exprPos[e.String()]
	return pos, ok
}

// IsExpressionInScope reports whether e resolves in this schema.
func (s *Schema) IsExpressionInScope(e expr.Expression) bool {
	_, ok := s.exprPos[e.String()]
	return ok
}

// FlattenGroup coerces the group at idx to flat.
func (s *Schema) FlattenGroup(idx int) {
	s.groups[idx].flat = true
}

// ExpressionsInScope returns every in-scope expression, grouped order.
func (s *Schema) ExpressionsInScope() []expr.Expression {
	var result []expr.Expression
	for _, g := range s.groups {
		result = append(result, g.expressions...)
	}
	return result
}

// Copy returns a deep copy of the schema. Operators derive their schema from
// a copy of their child's so shared sub-DAGs stay immutable.
func (s *Schema) Copy() *Schema {
	result := &Schema{
		groups:  make([]*FactorGroup, len(s.groups)),
		exprPos: make(map[string]GroupPos, len(s.exprPos)),
	}
	for i, g := range s.groups {
		result.groups[i] = g.copy()
	}
	for k, v := range s.exprPos {
		result.exprPos[k] = v
	}
	return result
}

// mergeSchemaExcluding appends the groups of other into s, skipping
// expressions already in scope. Groups whose every expression is already in
// scope are dropped.
func (s *Schema) mergeSchemaExcluding(other *Schema) {
	for _, g := range other.groups {
		var fresh []expr.Expression
		for _, e := range g.expressions {
			if !s.IsExpressionInScope(e) {
				fresh = append(fresh, e)
			}
		}
		if len(fresh) == 0 {
			continue
		}
		idx := s.CreateGroup(g.flat)
		for _, e := range fresh {
			s.InsertToGroup(e, idx)
		}
	}
}
