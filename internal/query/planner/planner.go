package planner

import (
	"time"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/config"
	"github.com/kestreldb/kestrel/internal/errors"
	"github.com/kestreldb/kestrel/internal/log"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/query/graph"
	"github.com/kestreldb/kestrel/internal/txn"
)

// SubqueryType is the correlation mode of the query graph being planned.
type SubqueryType int

const (
	// SubqueryNone plans a standalone query graph.
	SubqueryNone SubqueryType = iota
	// SubqueryInternalIDCorrelated re-scans correlated nodes ID-only; the
	// outer query already materialized their properties.
	SubqueryInternalIDCorrelated
	// SubqueryCorrelated receives correlated nodes from the outer query via
	// an expressions scan and never re-scans them.
	SubqueryCorrelated
)

// QueryGraphPlanningInfo carries the planning inputs alongside a query graph
// collection.
type QueryGraphPlanningInfo struct {
	// Predicates are the conjuncts of the match's predicate expression.
	Predicates []expr.Expression
	// SubqueryType is the correlation mode.
	SubqueryType SubqueryType
	// CorrExprs are the expressions supplied by the outer query.
	CorrExprs []expr.Expression
	// CorrExprsCard is the outer query's distinct cardinality for CorrExprs.
	CorrExprsCard float64
	// Hint, when non-nil, bypasses enumeration with a user join order.
	Hint *JoinOrderHint
}

// enumeratorContext is the per-enumerateQueryGraph state.
type enumeratorContext struct {
	queryGraph    *graph.QueryGraph
	whereExprs    []expr.Expression
	subPlansTable *SubPlansTable
}

func (c *enumeratorContext) init(qg *graph.QueryGraph, predicates []expr.Expression) {
	c.queryGraph = qg
	c.whereExprs = predicates
	c.subPlansTable = NewSubPlansTable(qg.NumQueryRels())
}

// Planner owns one planning call: it enumerates join orders for a query
// graph collection and returns the cheapest logical plan.
type Planner struct {
	catalog   catalog.Catalog
	tx        *txn.Transaction
	config    *config.Config
	estimator *CardinalityEstimator
	costModel CostModel
	props     *PropertyExprCollection
	logger    log.Logger

	context  enumeratorContext
	deadline time.Time
}

// NewPlanner creates a planner. The estimator may be shared with other
// planners; pass nil to create a private one.
func NewPlanner(cat catalog.Catalog, tx *txn.Transaction, cfg *config.Config,
	estimator *CardinalityEstimator, props *PropertyExprCollection) *Planner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if estimator == nil {
		estimator = NewCardinalityEstimator(cat)
	}
	if props == nil {
		props = NewPropertyExprCollection()
	}
	return &Planner{
		catalog:   cat,
		tx:        tx,
		config:    cfg,
		estimator: estimator,
		props:     props,
		logger:    log.Default().With("component", "planner"),
	}
}

// SetLogger replaces the planner's logger.
func (p *Planner) SetLogger(l log.Logger) {
	p.logger = l
}

// Config returns the planner configuration. The mapper consults it for
// settings the planner only threads through, e.g. enable_semi_mask.
func (p *Planner) Config() *config.Config {
	return p.config
}

// PlanQueryGraphCollection plans a query graph collection and returns the
// cheapest plan.
func (p *Planner) PlanQueryGraphCollection(collection *graph.QueryGraphCollection,
	info *QueryGraphPlanningInfo) (*LogicalPlan, error) {
	if p.config.EnableZoneMap {
		return nil, errors.FeatureNotSupportedError("zone map filtering")
	}
	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	if collection.NumQueryGraphs() == 0 {
		return nil, errors.InternalErrorf("empty query graph collection")
	}
	if p.config.TimeoutMS > 0 {
		p.deadline = time.Now().Add(p.config.Timeout())
	} else {
		p.deadline = time.Time{}
	}

	start := time.Now()
	plans, err := p.enumerateQueryGraphCollection(collection, info)
	if err != nil {
		return nil, err
	}
	best := getBestPlan(plans)
	if best == nil {
		return nil, errors.InternalErrorf("no plan produced for query graph collection")
	}
	p.logger.Debug("planning finished",
		log.Int("candidates", len(plans)),
		log.Float64("cost", best.Cost()),
		log.Duration("elapsed", time.Since(start)),
	)
	return best, nil
}

// getBestPlan returns the plan with the lowest cost; ties keep the earliest.
func getBestPlan(plans []*LogicalPlan) *LogicalPlan {
	var best *LogicalPlan
	for _, plan := range plans {
		if best == nil || plan.Cost() < best.Cost() {
			best = plan
		}
	}
	return best
}

// enumerateQueryGraphCollection plans each connected component, joins the
// per-component plans with cross products, and applies predicates no single
// component could evaluate.
func (p *Planner) enumerateQueryGraphCollection(collection *graph.QueryGraphCollection,
	info *QueryGraphPlanningInfo) ([]*LogicalPlan, error) {
	corrExprSet := expr.NewSet(info.CorrExprs...)
	// Pick a component to plan the expressions scan with. -1 falls back to
	// a standalone scan joined by cross product.
	exprsScanIdx := -1
	if info.SubqueryType == SubqueryCorrelated {
		exprsScanIdx = collection.ConnectedQueryGraphIdx(corrExprSet)
	}

	evaluated := make(map[int]bool)
	var plansPerGraph [][]*LogicalPlan
	for i := 0; i < collection.NumQueryGraphs(); i++ {
		qg := collection.QueryGraph(i)
		// Route each predicate to the first component able to evaluate it.
		// Literal predicates stay behind as top-level filters.
		var predicates []expr.Expression
		for j, pred := range info.Predicates {
			if _, isLiteral := pred.(*expr.Literal); isLiteral {
				continue
			}
			if evaluated[j] {
				continue
			}
			if qg.CanProjectExpression(pred) {
				evaluated[j] = true
				predicates = append(predicates, pred)
			}
		}
		graphInfo := *info
		graphInfo.Predicates = predicates
		if info.SubqueryType == SubqueryCorrelated && i != exprsScanIdx {
			// Components not connected to the correlated expressions plan as
			// isolated graphs.
			graphInfo.SubqueryType = SubqueryNone
		}
		plans, err := p.enumerateQueryGraph(qg, &graphInfo)
		if err != nil {
			return nil, err
		}
		plansPerGraph = append(plansPerGraph, plans)
	}

	// No component was connected to the correlated expressions: plan them
	// standalone and fall back to a cross product.
	if info.SubqueryType == SubqueryCorrelated && exprsScanIdx == -1 {
		plan := NewLogicalPlan()
		p.appendExpressionsScan(info.CorrExprs, plan)
		plan.SetCardinality(info.CorrExprsCard)
		p.appendDistinct(info.CorrExprs, plan)
		plansPerGraph = append(plansPerGraph, []*LogicalPlan{plan})
	}

	result := plansPerGraph[0]
	for i := 1; i < len(plansPerGraph); i++ {
		result = p.planCrossProduct(result, plansPerGraph[i])
	}
	// Apply remaining predicates, literals included.
	var remaining []expr.Expression
	for j, pred := range info.Predicates {
		if !evaluated[j] {
			remaining = append(remaining, pred)
		}
	}
	for _, plan := range result {
		for _, pred := range remaining {
			p.appendFilter(pred, plan)
		}
	}
	return result, nil
}

// planCrossProduct combines every (left, right) plan pair.
func (p *Planner) planCrossProduct(leftPlans, rightPlans []*LogicalPlan) []*LogicalPlan {
	var result []*LogicalPlan
	for _, leftPlan := range leftPlans {
		for _, rightPlan := range rightPlans {
			leftCopy := leftPlan.ShallowCopy()
			rightCopy := rightPlan.ShallowCopy()
			p.appendCrossProduct(leftCopy, rightCopy)
			result = append(result, leftCopy)
		}
	}
	return result
}

// checkDeadline reports whether the planning deadline has expired.
func (p *Planner) checkDeadline() bool {
	return !p.deadline.IsZero() && time.Now().After(p.deadline)
}
