package planner

import (
	"math"

	"github.com/kestreldb/kestrel/internal/query/graph"
)

// subPlanEntry holds the candidate plans for one subgraph together with the
// cheapest cost seen so far, the ceiling hash-join candidates must beat.
type subPlanEntry struct {
	subgraph graph.SubqueryGraph
	plans    []*LogicalPlan
	maxCost  float64
}

// subPlanLevel keeps insertion order so that enumeration is deterministic
// across runs; ties between equal-cost plans resolve to the first inserted.
type subPlanLevel struct {
	entries map[graph.SubgraphKey]*subPlanEntry
	order   []graph.SubgraphKey
}

// SubPlansTable is the DP memo of the join-order enumerator: per level (the
// number of matched relationships), a map from subgraph to its candidate
// plans. Plans are always stored under canonical subgraphs.
type SubPlansTable struct {
	levels []*subPlanLevel
}

// NewSubPlansTable creates a table for levels 0..maxLevel.
func NewSubPlansTable(maxLevel int) *SubPlansTable {
	levels := make([]*subPlanLevel, maxLevel+1)
	for i := range levels {
		levels[i] = &subPlanLevel{entries: make(map[graph.SubgraphKey]*subPlanEntry)}
	}
	return &SubPlansTable{levels: levels}
}

// AddPlan appends a plan under the canonical form of sg and lowers the
// subgraph's cost ceiling. Duplicate plans are permitted; differently shaped
// operators may survive at equal cost.
func (t *SubPlansTable) AddPlan(sg graph.SubqueryGraph, plan *LogicalPlan) {
	canon := sg.Canonical()
	level := t.levels[canon.NumRels()]
	entry, ok := level.entries[canon.Key()]
	if !ok {
		entry = &subPlanEntry{subgraph: canon, maxCost: math.Inf(1)}
		level.entries[canon.Key()] = entry
		level.order = append(level.order, canon.Key())
	}
	entry.plans = append(entry.plans, plan)
	if plan.Cost() < entry.maxCost {
		entry.maxCost = plan.Cost()
	}
}

// ContainsSubgraphPlans reports whether any plan is stored for sg.
func (t *SubPlansTable) ContainsSubgraphPlans(sg graph.SubqueryGraph) bool {
	canon := sg.Canonical()
	_, ok := t.levels[canon.NumRels()].entries[canon.Key()]
	return ok
}

// GetSubgraphPlans returns the plans stored for sg, nil if none.
func (t *SubPlansTable) GetSubgraphPlans(sg graph.SubqueryGraph) []*LogicalPlan {
	canon := sg.Canonical()
	if entry, ok := t.levels[canon.NumRels()].entries[canon.Key()]; ok {
		return entry.plans
	}
	return nil
}

// GetSubqueryGraphs returns the canonical subgraphs populated at a level, in
// insertion order.
func (t *SubPlansTable) GetSubqueryGraphs(level int) []graph.SubqueryGraph {
	if level < 0 || level >= len(t.levels) {
		return nil
	}
	l := t.levels[level]
	result := make([]graph.SubqueryGraph, 0, len(l.order))
	for _, key := range l.order {
		result = append(result, l.entries[key].subgraph)
	}
	return result
}

// GetMaxCost returns the cost ceiling for sg, +Inf if no plan is stored.
func (t *SubPlansTable) GetMaxCost(sg graph.SubqueryGraph) float64 {
	canon := sg.Canonical()
	if entry, ok := t.levels[canon.NumRels()].entries[canon.Key()]; ok {
		return entry.maxCost
	}
	return math.Inf(1)
}
