package planner

import (
	"fmt"
	"strings"

	"github.com/kestreldb/kestrel/internal/query/expr"
)

// LogicalPlan pairs an operator tree with its cumulative cost and
// cardinality estimates. Plans are freely shallow-copied during enumeration;
// the operator DAG is shared by reference and never mutated in place.
type LogicalPlan struct {
	lastOperator LogicalOperator
	cost         float64
	cardinality  float64
	// expressionsToCollect are produced at the plan's output boundary.
	expressionsToCollect []expr.Expression
}

// NewLogicalPlan creates an empty plan.
func NewLogicalPlan() *LogicalPlan {
	return &LogicalPlan{}
}

// LastOperator returns the plan's root operator, nil for an empty plan.
func (p *LogicalPlan) LastOperator() LogicalOperator {
	return p.lastOperator
}

// Schema returns the root operator's schema, nil for an empty plan.
func (p *LogicalPlan) Schema() *Schema {
	if p.lastOperator == nil {
		return nil
	}
	return p.lastOperator.Schema()
}

// IsEmpty reports whether the plan has no operators.
func (p *LogicalPlan) IsEmpty() bool {
	return p.lastOperator == nil
}

// Cost returns the cumulative cost estimate.
func (p *LogicalPlan) Cost() float64 {
	return p.cost
}

// Cardinality returns the output cardinality estimate.
func (p *LogicalPlan) Cardinality() float64 {
	return p.cardinality
}

// SetCardinality overrides the cardinality estimate. Used for correlated
// expressions scans whose cardinality is supplied by the outer query.
func (p *LogicalPlan) SetCardinality(card float64) {
	p.cardinality = card
}

// ExpressionsToCollect returns the output expressions.
func (p *LogicalPlan) ExpressionsToCollect() []expr.Expression {
	return p.expressionsToCollect
}

// SetExpressionsToCollect records the output expressions.
func (p *LogicalPlan) SetExpressionsToCollect(exprs []expr.Expression) {
	p.expressionsToCollect = exprs
}

// appendOperator replaces the plan root.
func (p *LogicalPlan) appendOperator(op LogicalOperator) {
	p.lastOperator = op
}

// ShallowCopy returns a copy sharing the operator DAG by reference. This is
// the hot path during enumeration.
func (p *LogicalPlan) ShallowCopy() *LogicalPlan {
	return &LogicalPlan{
		lastOperator:         p.lastOperator,
		cost:                 p.cost,
		cardinality:          p.cardinality,
		expressionsToCollect: p.expressionsToCollect,
	}
}

// DeepCopy returns a copy with its own operator tree. Only needed where a
// later pass mutates operators; the enumerator itself never does.
func (p *LogicalPlan) DeepCopy() *LogicalPlan {
	result := p.ShallowCopy()
	if p.lastOperator != nil {
		result.lastOperator = deepCopyOperator(p.lastOperator)
	}
	return result
}

func deepCopyOperator(op LogicalOperator) LogicalOperator {
	children := make([]LogicalOperator, len(op.Children()))
	for i, child := range op.Children() {
		children[i] = deepCopyOperator(child)
	}
	switch o := op.(type) {
	case *ScanNodeTable:
		cp := *o
		cp.children = children
		return &cp
	case *ExpressionsScan:
		cp := *o
		cp.children = children
		return &cp
	case *Extend:
		cp := *o
		cp.children = children
		return &cp
	case *RecursiveExtend:
		cp := *o
		cp.children = children
		return &cp
	case *Filter:
		cp := *o
		cp.children = children
		return &cp
	case *Flatten:
		cp := *o
		cp.children = children
		return &cp
	case *Projection:
		cp := *o
		cp.children = children
		return &cp
	case *HashJoin:
		cp := *o
		cp.children = children
		return &cp
	case *Intersect:
		cp := *o
		cp.children = children
		return &cp
	case *CrossProduct:
		cp := *o
		cp.children = children
		return &cp
	case *Distinct:
		cp := *o
		cp.children = children
		return &cp
	case *EmptyResult:
		cp := *o
		cp.children = children
		return &cp
	default:
		panic(fmt.Sprintf("unhandled operator type %s", op.Type()))
	}
}

// Format renders the operator tree, one operator per line, children
// indented under their parent.
func (p *LogicalPlan) Format() string {
	if p.lastOperator == nil {
		return "(empty plan)"
	}
	var sb strings.Builder
	formatOperator(&sb, p.lastOperator, 0)
	return sb.String()
}

func formatOperator(sb *strings.Builder, op LogicalOperator, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(op.String())
	sb.WriteString("\n")
	for _, child := range op.Children() {
		formatOperator(sb, child, depth+1)
	}
}

// CollectOperators returns every operator of the given type in the tree.
func (p *LogicalPlan) CollectOperators(t OperatorType) []LogicalOperator {
	var result []LogicalOperator
	var walk func(op LogicalOperator)
	walk = func(op LogicalOperator) {
		if op == nil {
			return
		}
		if op.Type() == t {
			result = append(result, op)
		}
		for _, child := range op.Children() {
			walk(child)
		}
	}
	walk(p.lastOperator)
	return result
}
