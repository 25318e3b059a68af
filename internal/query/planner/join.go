package planner

import (
	"fmt"
	"strings"

	"github.com/kestreldb/kestrel/internal/query/expr"
)

// JoinType tags join semantics. The enumerator only emits inner joins; the
// outer forms are produced by subquery planning above the core.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinMark
)

func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinMark:
		return "MARK"
	default:
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
}

// HashJoin joins a probe child against a built hash table on node internal
// IDs. Child 0 probes, child 1 builds.
type HashJoin struct {
	baseOperator
	JoinNodeIDs []expr.Expression
	JoinType    JoinType
}

func (j *HashJoin) Type() OperatorType {
	return OpTypeHashJoin
}

func (j *HashJoin) String() string {
	keys := make([]string, len(j.JoinNodeIDs))
	for i, k := range j.JoinNodeIDs {
		keys[i] = k.String()
	}
	return fmt.Sprintf("HashJoin[%s](%s)", j.JoinType, strings.Join(keys, ", "))
}

func newHashJoin(probe, build LogicalOperator, joinNodeIDs []expr.Expression, joinType JoinType) *HashJoin {
	// Probe-side groups holding a join key are flattened; the other probe
	// groups survive as-is. Build-side expressions already in probe scope
	// (the join keys) are dropped, and the remaining build groups are
	// appended with their own flatness.
	schema := probe.Schema().Copy()
	for _, key := range joinNodeIDs {
		if pos, ok := schema.GroupPosOf(key); ok {
			schema.FlattenGroup(pos.Group)
		}
	}
	schema.mergeSchemaExcluding(build.Schema())
	return &HashJoin{
		baseOperator: baseOperator{children: []LogicalOperator{probe, build}, schema: schema},
		JoinNodeIDs:  joinNodeIDs,
		JoinType:     joinType,
	}
}

// Intersect is the worst-case-optimal multi-way join: it intersects the
// neighbor lists of several bound nodes on a common intersect node. Child 0
// probes; children 1..n build sorted neighbor lists.
type Intersect struct {
	baseOperator
	IntersectNodeID *expr.PropertyAccess
	BoundNodeIDs    []expr.Expression
}

func (i *Intersect) Type() OperatorType {
	return OpTypeIntersect
}

func (i *Intersect) String() string {
	bounds := make([]string, len(i.BoundNodeIDs))
	for j, b := range i.BoundNodeIDs {
		bounds[j] = b.String()
	}
	return fmt.Sprintf("Intersect(%s, bound: %s)", i.IntersectNodeID.String(), strings.Join(bounds, ", "))
}

func newIntersect(probe LogicalOperator, builds []LogicalOperator,
	intersectNodeID *expr.PropertyAccess, boundNodeIDs []expr.Expression) *Intersect {
	schema := probe.Schema().Copy()
	group := schema.CreateGroup(false)
	schema.InsertToGroup(intersectNodeID, group)
	for _, build := range builds {
		schema.mergeSchemaExcluding(build.Schema())
	}
	children := append([]LogicalOperator{probe}, builds...)
	return &Intersect{
		baseOperator:    baseOperator{children: children, schema: schema},
		IntersectNodeID: intersectNodeID,
		BoundNodeIDs:    boundNodeIDs,
	}
}

// CrossProduct combines two disconnected sub-plans.
type CrossProduct struct {
	baseOperator
}

func (c *CrossProduct) Type() OperatorType {
	return OpTypeCrossProduct
}

func (c *CrossProduct) String() string {
	return "CrossProduct"
}

func newCrossProduct(probe, build LogicalOperator) *CrossProduct {
	schema := probe.Schema().Copy()
	schema.mergeSchemaExcluding(build.Schema())
	return &CrossProduct{
		baseOperator: baseOperator{children: []LogicalOperator{probe, build}, schema: schema},
	}
}
