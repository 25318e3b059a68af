package planner

import (
	"github.com/kestreldb/kestrel/internal/query/expr"
)

// Cost parameters. Tuple costs follow the usual convention of charging the
// build side twice: once to materialize, once to probe through.
const (
	// probeTupleCost charges scanning a tuple through an operator.
	probeTupleCost = 1.0
	// buildTupleCost charges materializing a tuple into a hash table or a
	// sorted neighbor list.
	buildTupleCost = 2.0
)

// CostModel is a namespace of pure costing functions. No state, fully
// deterministic; the enumerator compares results with strict less-than
// against the sub-plans table's ceiling.
type CostModel struct{}

// ComputeHashJoinCost estimates a hash join: both inputs' cumulative costs,
// plus materializing the build side and streaming the probe side through.
// Monotone in both input cardinalities; independent of the key count.
func (CostModel) ComputeHashJoinCost(_ []expr.Expression, probe, build *LogicalPlan) float64 {
	return probe.Cost() + build.Cost() +
		probe.Cardinality()*probeTupleCost +
		build.Cardinality()*buildTupleCost
}

// ComputeIntersectCost estimates a multi-way intersect: the probe cost plus
// every build side materialized into a sorted list.
func (CostModel) ComputeIntersectCost(probe *LogicalPlan, builds []*LogicalPlan) float64 {
	cost := probe.Cost() + probe.Cardinality()*probeTupleCost
	for _, build := range builds {
		cost += build.Cost() + build.Cardinality()*buildTupleCost
	}
	return cost
}

// ComputeCrossProductCost estimates a cross product: both inputs plus the
// full output.
func (CostModel) ComputeCrossProductCost(probe, build *LogicalPlan) float64 {
	return probe.Cost() + build.Cost() + probe.Cardinality()*build.Cardinality()*probeTupleCost
}

// Scan, extend, and filter costs are folded into plan cost by the appenders:
// a scan adds its output cardinality divided by the thread budget, an extend
// its output cardinality, a filter its input cardinality; see
// appendScanNodeTable and friends.
