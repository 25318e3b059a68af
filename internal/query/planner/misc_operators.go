package planner

import (
	"fmt"
	"strings"

	"github.com/kestreldb/kestrel/internal/query/expr"
)

// Filter drops the rows its predicate rejects.
type Filter struct {
	baseOperator
	Predicate expr.Expression
}

func (f *Filter) Type() OperatorType {
	return OpTypeFilter
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter(%s)", f.Predicate.String())
}

func newFilter(child LogicalOperator, predicate expr.Expression) *Filter {
	return &Filter{
		baseOperator: baseOperator{children: []LogicalOperator{child}, schema: child.Schema()},
		Predicate:    predicate,
	}
}

// Flatten coerces one factor group to flat.
type Flatten struct {
	baseOperator
	GroupIdx int
}

func (f *Flatten) Type() OperatorType {
	return OpTypeFlatten
}

func (f *Flatten) String() string {
	return fmt.Sprintf("Flatten(%d)", f.GroupIdx)
}

func newFlatten(child LogicalOperator, groupIdx int) *Flatten {
	schema := child.Schema().Copy()
	schema.FlattenGroup(groupIdx)
	return &Flatten{
		baseOperator: baseOperator{children: []LogicalOperator{child}, schema: schema},
		GroupIdx:     groupIdx,
	}
}

// Projection narrows scope to the given expressions.
type Projection struct {
	baseOperator
	Expressions []expr.Expression
}

func (p *Projection) Type() OperatorType {
	return OpTypeProjection
}

func (p *Projection) String() string {
	names := make([]string, len(p.Expressions))
	for i, e := range p.Expressions {
		names[i] = e.String()
	}
	return fmt.Sprintf("Projection(%s)", strings.Join(names, ", "))
}

func newProjection(child LogicalOperator, expressions []expr.Expression) *Projection {
	schema := NewSchema()
	group := schema.CreateGroup(true)
	for _, e := range expressions {
		schema.InsertToGroup(e, group)
	}
	return &Projection{
		baseOperator: baseOperator{children: []LogicalOperator{child}, schema: schema},
		Expressions:  expressions,
	}
}

// Distinct deduplicates on the given expressions.
type Distinct struct {
	baseOperator
	Expressions []expr.Expression
}

func (d *Distinct) Type() OperatorType {
	return OpTypeDistinct
}

func (d *Distinct) String() string {
	names := make([]string, len(d.Expressions))
	for i, e := range d.Expressions {
		names[i] = e.String()
	}
	return fmt.Sprintf("Distinct(%s)", strings.Join(names, ", "))
}

func newDistinct(child LogicalOperator, expressions []expr.Expression) *Distinct {
	schema := NewSchema()
	group := schema.CreateGroup(true)
	for _, e := range expressions {
		schema.InsertToGroup(e, group)
	}
	return &Distinct{
		baseOperator: baseOperator{children: []LogicalOperator{child}, schema: schema},
		Expressions:  expressions,
	}
}

// EmptyResult is the plan of a pattern with no elements: the enumerator
// appends it to an empty plan, so it has no child. Plans of patterns that
// have nodes but no relationships are not wrapped in it.
type EmptyResult struct {
	baseOperator
}

func (e *EmptyResult) Type() OperatorType {
	return OpTypeEmptyResult
}

func (e *EmptyResult) String() string {
	return "EmptyResult"
}

func newEmptyResult(child LogicalOperator) *EmptyResult {
	var children []LogicalOperator
	schema := NewSchema()
	if child != nil {
		children = []LogicalOperator{child}
		schema = child.Schema()
	}
	return &EmptyResult{
		baseOperator: baseOperator{children: children, schema: schema},
	}
}
