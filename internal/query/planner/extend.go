package planner

import (
	"fmt"

	"github.com/kestreldb/kestrel/internal/config"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/query/graph"
)

// ExtendDirection is the traversal direction of an extend.
type ExtendDirection int

const (
	ExtendFwd ExtendDirection = iota
	ExtendBwd
	ExtendBoth
)

func (d ExtendDirection) String() string {
	switch d {
	case ExtendFwd:
		return "FWD"
	case ExtendBwd:
		return "BWD"
	case ExtendBoth:
		return "BOTH"
	default:
		return fmt.Sprintf("ExtendDirection(%d)", int(d))
	}
}

// getExtendDirection derives the traversal direction of rel when extending
// from boundNode.
func getExtendDirection(rel *graph.QueryRel, boundNodeName string) ExtendDirection {
	if rel.Direction == graph.DirectionBoth {
		return ExtendBoth
	}
	if rel.SrcNodeName == boundNodeName {
		return ExtendFwd
	}
	return ExtendBwd
}

// getBoundAndNbrNodes resolves the bound and neighbor node names of rel for
// a traversal direction. The direction must not be BOTH.
func getBoundAndNbrNodes(rel *graph.QueryRel, direction ExtendDirection) (string, string) {
	if direction == ExtendFwd {
		return rel.SrcNodeName, rel.DstNodeName
	}
	return rel.DstNodeName, rel.SrcNodeName
}

// Extend traverses one relationship from a bound node column to its
// neighbors. The neighbor side lands in a fresh unflat group.
type Extend struct {
	baseOperator
	BoundNodeID *expr.PropertyAccess
	NbrNodeID   *expr.PropertyAccess
	Rel         *graph.QueryRel
	Direction   ExtendDirection
	Properties  []expr.Expression
	// FromSource records whether the bound node is the relationship's
	// source; the mapper picks the forward or backward adjacency list.
	FromSource bool
}

func (e *Extend) Type() OperatorType {
	return OpTypeExtend
}

func (e *Extend) String() string {
	return fmt.Sprintf("Extend(%s->%s via %s, %s)",
		e.BoundNodeID.Variable, e.NbrNodeID.Variable, e.Rel.Name, e.Direction)
}

func newExtend(child LogicalOperator, boundNodeID, nbrNodeID *expr.PropertyAccess,
	rel *graph.QueryRel, direction ExtendDirection, properties []expr.Expression) *Extend {
	schema := child.Schema().Copy()
	group := schema.CreateGroup(false)
	schema.InsertToGroup(nbrNodeID, group)
	for _, prop := range properties {
		schema.InsertToGroup(prop, group)
	}
	return &Extend{
		baseOperator: baseOperator{children: []LogicalOperator{child}, schema: schema},
		BoundNodeID:  boundNodeID,
		NbrNodeID:    nbrNodeID,
		Rel:          rel,
		Direction:    direction,
		Properties:   properties,
		FromSource:   rel.SrcNodeName == boundNodeID.Variable,
	}
}

// RecursiveExtend traverses a variable-length, shortest, or all-shortest
// relationship up to a bounded depth.
type RecursiveExtend struct {
	baseOperator
	BoundNodeID *expr.PropertyAccess
	NbrNodeID   *expr.PropertyAccess
	Rel         *graph.QueryRel
	Direction   ExtendDirection
	LowerBound  int
	UpperBound  int
	Semantic    config.RecursiveSemantic
}

func (e *RecursiveExtend) Type() OperatorType {
	return OpTypeRecursiveExtend
}

func (e *RecursiveExtend) String() string {
	return fmt.Sprintf("RecursiveExtend(%s->%s via %s*%d..%d, %s)",
		e.BoundNodeID.Variable, e.NbrNodeID.Variable, e.Rel.Name,
		e.LowerBound, e.UpperBound, e.Direction)
}

func newRecursiveExtend(child LogicalOperator, boundNodeID, nbrNodeID *expr.PropertyAccess,
	rel *graph.QueryRel, direction ExtendDirection, lower, upper int,
	semantic config.RecursiveSemantic) *RecursiveExtend {
	schema := child.Schema().Copy()
	group := schema.CreateGroup(false)
	schema.InsertToGroup(nbrNodeID, group)
	schema.InsertToGroup(&expr.VariableRef{Name: rel.Name}, group)
	return &RecursiveExtend{
		baseOperator: baseOperator{children: []LogicalOperator{child}, schema: schema},
		BoundNodeID:  boundNodeID,
		NbrNodeID:    nbrNodeID,
		Rel:          rel,
		Direction:    direction,
		LowerBound:   lower,
		UpperBound:   upper,
		Semantic:     semantic,
	}
}
