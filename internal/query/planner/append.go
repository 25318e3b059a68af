package planner

import (
	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/query/graph"
)

// The append constructors mutate a LogicalPlan in place: the new operator's
// child is the previous root, the schema derives from the child schemas, and
// cost and cardinality update through the estimator. Operators referenced by
// other plans are never touched; every append makes a new root.

func (p *Planner) appendScanNodeTable(nodeID *expr.PropertyAccess, tableIDs []catalog.TableID,
	properties []expr.Expression, plan *LogicalPlan) {
	op := newScanNodeTable(nodeID, tableIDs, properties)
	plan.appendOperator(op)
	plan.cardinality = p.estimator.EstimateScanNodeTable(p.tx, tableIDs)
	// Table scans parallelize across the execution thread budget.
	plan.cost += plan.cardinality / float64(p.config.Threads)
}

func (p *Planner) appendExpressionsScan(expressions []expr.Expression, plan *LogicalPlan) {
	op := newExpressionsScan(expressions)
	plan.appendOperator(op)
	plan.cardinality = 1
}

// appendExtend dispatches on the relationship type.
func (p *Planner) appendExtend(boundNode, nbrNode *graph.QueryNode, rel *graph.QueryRel,
	direction ExtendDirection, properties []expr.Expression, plan *LogicalPlan) {
	if rel.Type.IsRecursive() {
		p.appendRecursiveExtend(boundNode, nbrNode, rel, direction, plan)
		return
	}
	p.appendNonRecursiveExtend(boundNode, nbrNode, rel, direction, properties, plan)
}

func (p *Planner) appendNonRecursiveExtend(boundNode, nbrNode *graph.QueryNode, rel *graph.QueryRel,
	direction ExtendDirection, properties []expr.Expression, plan *LogicalPlan) {
	boundID := boundNode.InternalID()
	// The bound column must be flat before extending from it.
	if pos, ok := plan.Schema().GroupPosOf(boundID); ok && !plan.Schema().Group(pos.Group).IsFlat() {
		p.appendFlatten(pos.Group, plan)
	}
	op := newExtend(plan.LastOperator(), boundID, nbrNode.InternalID(), rel, direction, properties)
	plan.appendOperator(op)
	plan.cardinality = p.estimator.EstimateExtend(p.tx, plan.cardinality, rel)
	plan.cost += plan.cardinality
}

func (p *Planner) appendRecursiveExtend(boundNode, nbrNode *graph.QueryNode, rel *graph.QueryRel,
	direction ExtendDirection, plan *LogicalPlan) {
	boundID := boundNode.InternalID()
	if pos, ok := plan.Schema().GroupPosOf(boundID); ok && !plan.Schema().Group(pos.Group).IsFlat() {
		p.appendFlatten(pos.Group, plan)
	}
	lower := rel.LowerBound
	upper := rel.UpperBound
	if upper == 0 || upper > p.config.VarLengthExtendMaxDepth {
		upper = p.config.VarLengthExtendMaxDepth
	}
	op := newRecursiveExtend(plan.LastOperator(), boundID, nbrNode.InternalID(), rel,
		direction, lower, upper, p.config.RecursivePatternSemantic)
	plan.appendOperator(op)
	plan.cardinality = p.estimator.EstimateRecursiveExtend(p.tx, plan.cardinality, rel,
		upper, p.config.RecursivePatternFactor)
	plan.cost += plan.cardinality
}

func (p *Planner) appendFilter(predicate expr.Expression, plan *LogicalPlan) {
	op := newFilter(plan.LastOperator(), predicate)
	plan.appendOperator(op)
	plan.cost += plan.cardinality
	plan.cardinality = p.estimator.EstimateFilter(plan.cardinality, predicate)
}

func (p *Planner) appendFilters(predicates []expr.Expression, plan *LogicalPlan) {
	for _, predicate := range predicates {
		p.appendFilter(predicate, plan)
	}
}

func (p *Planner) appendFlatten(groupIdx int, plan *LogicalPlan) {
	op := newFlatten(plan.LastOperator(), groupIdx)
	plan.appendOperator(op)
}

// appendHashJoin joins probe against build on the given node IDs; the result
// replaces probe's root.
func (p *Planner) appendHashJoin(joinNodeIDs []expr.Expression, joinType JoinType,
	probe, build *LogicalPlan) {
	op := newHashJoin(probe.LastOperator(), build.LastOperator(), joinNodeIDs, joinType)
	cost := p.costModel.ComputeHashJoinCost(joinNodeIDs, probe, build)
	card := p.estimator.EstimateHashJoin(p.tx, joinNodeIDs, probe, build)
	probe.appendOperator(op)
	probe.cost = cost
	probe.cardinality = card
}

// appendIntersect emits the worst-case-optimal join; the result replaces
// probe's root.
func (p *Planner) appendIntersect(intersectNodeID *expr.PropertyAccess,
	boundNodeIDs []expr.Expression, probe *LogicalPlan, builds []*LogicalPlan) {
	buildOps := make([]LogicalOperator, len(builds))
	for i, build := range builds {
		buildOps[i] = build.LastOperator()
	}
	op := newIntersect(probe.LastOperator(), buildOps, intersectNodeID, boundNodeIDs)
	cost := p.costModel.ComputeIntersectCost(probe, builds)
	card := p.estimator.EstimateIntersect(p.tx, intersectNodeID, probe, builds)
	probe.appendOperator(op)
	probe.cost = cost
	probe.cardinality = card
}

// appendCrossProduct combines probe and build; the result replaces probe's
// root.
func (p *Planner) appendCrossProduct(probe, build *LogicalPlan) {
	op := newCrossProduct(probe.LastOperator(), build.LastOperator())
	cost := p.costModel.ComputeCrossProductCost(probe, build)
	card := p.estimator.EstimateCrossProduct(probe, build)
	probe.appendOperator(op)
	probe.cost = cost
	probe.cardinality = card
}

func (p *Planner) appendDistinct(expressions []expr.Expression, plan *LogicalPlan) {
	op := newDistinct(plan.LastOperator(), expressions)
	plan.appendOperator(op)
	plan.cost += plan.cardinality
}

func (p *Planner) appendProjection(expressions []expr.Expression, plan *LogicalPlan) {
	op := newProjection(plan.LastOperator(), expressions)
	plan.appendOperator(op)
	plan.cost += plan.cardinality
}

func (p *Planner) appendEmptyResult(plan *LogicalPlan) {
	op := newEmptyResult(plan.LastOperator())
	plan.appendOperator(op)
}
