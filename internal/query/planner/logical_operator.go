package planner

import "fmt"

// OperatorType tags the logical operator variants the planner core emits.
type OperatorType int

const (
	OpTypeScanNodeTable OperatorType = iota
	OpTypeExpressionsScan
	OpTypeExtend
	OpTypeRecursiveExtend
	OpTypeFilter
	OpTypeFlatten
	OpTypeProjection
	OpTypeHashJoin
	OpTypeIntersect
	OpTypeCrossProduct
	OpTypeDistinct
	OpTypeEmptyResult
)

func (t OperatorType) String() string {
	switch t {
	case OpTypeScanNodeTable:
		return "SCAN_NODE_TABLE"
	case OpTypeExpressionsScan:
		return "EXPRESSIONS_SCAN"
	case OpTypeExtend:
		return "EXTEND"
	case OpTypeRecursiveExtend:
		return "RECURSIVE_EXTEND"
	case OpTypeFilter:
		return "FILTER"
	case OpTypeFlatten:
		return "FLATTEN"
	case OpTypeProjection:
		return "PROJECTION"
	case OpTypeHashJoin:
		return "HASH_JOIN"
	case OpTypeIntersect:
		return "INTERSECT"
	case OpTypeCrossProduct:
		return "CROSS_PRODUCT"
	case OpTypeDistinct:
		return "DISTINCT"
	case OpTypeEmptyResult:
		return "EMPTY_RESULT"
	default:
		return fmt.Sprintf("OperatorType(%d)", int(t))
	}
}

// LogicalOperator is a node of the logical operator tree. Operators are
// immutable once constructed; plans share sub-DAGs by reference and every
// append produces a new root.
type LogicalOperator interface {
	// Type returns the operator tag.
	Type() OperatorType
	// Children returns the child operators.
	Children() []LogicalOperator
	// Schema returns the operator's output schema.
	Schema() *Schema
	// String returns a one-line representation for plan rendering.
	String() string
}

// baseOperator provides common functionality for operator nodes.
type baseOperator struct {
	children []LogicalOperator
	schema   *Schema
}

func (o *baseOperator) Children() []LogicalOperator {
	return o.children
}

func (o *baseOperator) Schema() *Schema {
	return o.schema
}
