package planner

import (
	"sort"

	"github.com/kestreldb/kestrel/internal/errors"
	"github.com/kestreldb/kestrel/internal/log"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/query/graph"
)

// MaxLevelToPlanExactly bounds exhaustive DP enumeration. Beyond it, each
// level only explores the left-deep (1, k-1) split.
const MaxLevelToPlanExactly = 7

// enumerateQueryGraph runs the DP join-order search over one connected query
// graph and returns the candidate plans at the fully matched subgraph.
func (p *Planner) enumerateQueryGraph(qg *graph.QueryGraph,
	info *QueryGraphPlanningInfo) ([]*LogicalPlan, error) {
	p.context.init(qg, info.Predicates)
	p.estimator.InitNodeIDDom(qg, p.tx)

	if info.Hint != nil {
		constructor := newJoinTreeConstructor(qg, p.props, info.Predicates)
		tree, err := constructor.construct(info.Hint)
		if err != nil {
			return nil, err
		}
		plan, err := newJoinPlanSolver(p).solve(tree)
		if err != nil {
			return nil, err
		}
		return []*LogicalPlan{plan.ShallowCopy()}, nil
	}

	if qg.IsEmpty() {
		// A pattern without elements contributes a single empty tuple.
		plan := NewLogicalPlan()
		p.appendEmptyResult(plan)
		return []*LogicalPlan{plan}, nil
	}

	p.planBaseTableScans(info)
	maxLevel := qg.NumQueryRels()
	timedOut := false
	for level := 2; level <= maxLevel; level++ {
		if p.checkDeadline() {
			timedOut = true
			break
		}
		p.planLevel(level)
	}

	fullyMatched := qg.FullyMatchedSubqueryGraph()
	plans := p.context.subPlansTable.GetSubgraphPlans(fullyMatched)
	if len(plans) == 0 {
		if timedOut {
			return nil, errors.TimeoutError().
				WithDetail("no complete plan found before the deadline")
		}
		return nil, errors.InternalErrorf("no plan for subgraph %s", fullyMatched.String())
	}
	if timedOut {
		p.logger.Warn("planning deadline expired, returning best plan found so far",
			log.Int("candidates", len(plans)))
	}
	return plans, nil
}

// planLevel fills level k of the sub-plans table.
func (p *Planner) planLevel(level int) {
	if level > MaxLevelToPlanExactly {
		p.planLevelApproximately(level)
	} else {
		p.planLevelExactly(level)
	}
}

func (p *Planner) planLevelExactly(level int) {
	maxLeftLevel := level / 2
	for leftLevel := 1; leftLevel <= maxLeftLevel; leftLevel++ {
		rightLevel := level - leftLevel
		p.planInnerJoin(leftLevel, rightLevel)
		// A worst-case-optimal join needs at least two build rels; the probe
		// side may sit at either end of the split. Intersects insert without
		// a ceiling check, so they run after the hash joins of this split.
		if leftLevel >= 2 {
			p.planWCOJoin(leftLevel, rightLevel)
		}
		if rightLevel >= 2 && rightLevel != leftLevel {
			p.planWCOJoin(rightLevel, leftLevel)
		}
	}
}

func (p *Planner) planLevelApproximately(level int) {
	p.planInnerJoin(1, level-1)
}

// planBaseTableScans seeds levels 0 and 1 of the table: node scans, the
// correlated expressions scan where the mode asks for one, and rel scans.
func (p *Planner) planBaseTableScans(info *QueryGraphPlanningInfo) {
	qg := p.context.queryGraph
	corrExprSet := expr.NewSet(info.CorrExprs...)
	switch info.SubqueryType {
	case SubqueryNone:
		for nodePos := 0; nodePos < qg.NumQueryNodes(); nodePos++ {
			p.planNodeScan(nodePos)
		}
	case SubqueryInternalIDCorrelated:
		for nodePos := 0; nodePos < qg.NumQueryNodes(); nodePos++ {
			node := qg.QueryNode(nodePos)
			if corrExprSet.Contains(node.InternalID()) {
				// The outer query already scanned this node table; re-scan
				// internal IDs only so storage is not read twice.
				p.planNodeIDScan(nodePos)
			} else {
				p.planNodeScan(nodePos)
			}
		}
	case SubqueryCorrelated:
		for nodePos := 0; nodePos < qg.NumQueryNodes(); nodePos++ {
			node := qg.QueryNode(nodePos)
			if corrExprSet.Contains(node.InternalID()) {
				continue
			}
			p.planNodeScan(nodePos)
		}
		p.planCorrelatedExpressionsScan(info)
	}
	for relPos := 0; relPos < qg.NumQueryRels(); relPos++ {
		p.planRelScan(relPos, info, corrExprSet)
	}
}

// planCorrelatedExpressionsScan seeds the subgraph of correlated nodes with
// an ExpressionsScan -> Filter -> Distinct plan at the cardinality supplied
// by the outer query.
func (p *Planner) planCorrelatedExpressionsScan(info *QueryGraphPlanningInfo) {
	plan, newSubgraph := p.buildCorrelatedExpressionsScanPlan(info)
	p.appendDistinct(info.CorrExprs, plan)
	p.context.subPlansTable.AddPlan(newSubgraph, plan)
}

// buildCorrelatedExpressionsScanPlan builds the correlated seed plan without
// the trailing Distinct and returns it with the subgraph of correlated
// nodes.
func (p *Planner) buildCorrelatedExpressionsScanPlan(info *QueryGraphPlanningInfo) (*LogicalPlan, graph.SubqueryGraph) {
	qg := p.context.queryGraph
	corrExprSet := expr.NewSet(info.CorrExprs...)
	newSubgraph := qg.EmptySubqueryGraph()
	for nodePos := 0; nodePos < qg.NumQueryNodes(); nodePos++ {
		if corrExprSet.Contains(qg.QueryNode(nodePos).InternalID()) {
			newSubgraph.AddQueryNode(nodePos)
		}
	}
	plan := NewLogicalPlan()
	p.appendExpressionsScan(info.CorrExprs, plan)
	plan.SetCardinality(info.CorrExprsCard)
	empty := qg.EmptySubqueryGraph()
	predicates := p.getNewlyMatchedExprs([]graph.SubqueryGraph{empty}, newSubgraph)
	p.appendFilters(predicates, plan)
	return plan, newSubgraph
}

// planNodeScan seeds a single-node subgraph with a full property scan.
func (p *Planner) planNodeScan(nodePos int) {
	qg := p.context.queryGraph
	node := qg.QueryNode(nodePos)
	newSubgraph := qg.EmptySubqueryGraph()
	newSubgraph.AddQueryNode(nodePos)
	plan := NewLogicalPlan()
	p.appendScanNodeTable(node.InternalID(), node.TableIDs, p.props.Properties(node.Name), plan)
	empty := qg.EmptySubqueryGraph()
	predicates := p.getNewlyMatchedExprs([]graph.SubqueryGraph{empty}, newSubgraph)
	p.appendFilters(predicates, plan)
	p.context.subPlansTable.AddPlan(newSubgraph, plan)
}

// planNodeIDScan seeds a single-node subgraph with an ID-only scan.
func (p *Planner) planNodeIDScan(nodePos int) {
	qg := p.context.queryGraph
	node := qg.QueryNode(nodePos)
	newSubgraph := qg.EmptySubqueryGraph()
	newSubgraph.AddQueryNode(nodePos)
	plan := NewLogicalPlan()
	p.appendScanNodeTable(node.InternalID(), node.TableIDs, nil, plan)
	p.context.subPlansTable.AddPlan(newSubgraph, plan)
}

// planRelScan seeds the single-rel subgraph. Regardless of the declared
// direction, two plans are enumerated, one extending from each endpoint, so
// later levels can pick the cheaper side. In CORRELATED mode a correlated
// endpoint is supplied by the expressions scan instead of a table scan.
func (p *Planner) planRelScan(relPos int, info *QueryGraphPlanningInfo, corrExprSet *expr.Set) {
	qg := p.context.queryGraph
	rel := qg.QueryRel(relPos)
	for _, direction := range []ExtendDirection{ExtendFwd, ExtendBwd} {
		boundName, nbrName := getBoundAndNbrNodes(rel, direction)
		boundNode := qg.QueryNode(qg.QueryNodeIdx(boundName))
		nbrNode := qg.QueryNode(qg.QueryNodeIdx(nbrName))
		extendDirection := getExtendDirection(rel, boundName)

		newSubgraph := qg.EmptySubqueryGraph()
		newSubgraph.AddQueryRel(relPos)
		var plan *LogicalPlan
		var prev graph.SubqueryGraph
		if info.SubqueryType == SubqueryCorrelated && corrExprSet.Contains(boundNode.InternalID()) {
			var corrSubgraph graph.SubqueryGraph
			plan, corrSubgraph = p.buildCorrelatedExpressionsScanPlan(info)
			p.appendDistinct(info.CorrExprs, plan)
			newSubgraph.AddSubqueryGraph(corrSubgraph)
			prev = corrSubgraph
		} else {
			plan = NewLogicalPlan()
			p.appendScanNodeTable(boundNode.InternalID(), boundNode.TableIDs, nil, plan)
			prev = qg.EmptySubqueryGraph()
		}
		p.appendExtend(boundNode, nbrNode, rel, extendDirection, p.props.Properties(rel.Name), plan)
		predicates := p.getNewlyMatchedExprs([]graph.SubqueryGraph{prev}, newSubgraph)
		p.appendFilters(predicates, plan)
		p.context.subPlansTable.AddPlan(newSubgraph, plan)
	}
}

// planInnerJoin enumerates (leftLevel, rightLevel) splits. Left candidates at
// level 1 are generated neighbor subgraphs carrying their declared
// connection points; larger left candidates come from the table.
func (p *Planner) planInnerJoin(leftLevel, rightLevel int) {
	table := p.context.subPlansTable
	for _, rightSubgraph := range table.GetSubqueryGraphs(rightLevel) {
		var nbrSubgraphs []graph.SubqueryGraph
		if leftLevel == 1 {
			nbrSubgraphs = rightSubgraph.BaseNbrSubgraphs()
		} else {
			nbrSubgraphs = p.storedNbrSubgraphs(rightSubgraph, leftLevel)
		}
		for _, nbrSubgraph := range nbrSubgraphs {
			// Multipart queries merge query graphs; plans for parts planned
			// earlier are not in this table, skip those subgraphs.
			if !table.ContainsSubgraphPlans(nbrSubgraph) {
				continue
			}
			joinNodePositions := rightSubgraph.ConnectedNodePositions(nbrSubgraph)
			if len(joinNodePositions) == 0 {
				continue
			}
			if needPruneImplicitJoins(nbrSubgraph, rightSubgraph, len(joinNodePositions)) {
				continue
			}
			joinNodes := make([]*graph.QueryNode, len(joinNodePositions))
			for i, pos := range joinNodePositions {
				joinNodes[i] = p.context.queryGraph.QueryNode(pos)
			}
			// An index-nested-loop extend prunes hash joins for the pair.
			if p.tryPlanINLJoin(rightSubgraph, nbrSubgraph, joinNodes) {
				continue
			}
			p.planInnerHashJoin(rightSubgraph, nbrSubgraph, joinNodes, leftLevel != rightLevel)
		}
	}
}

// storedNbrSubgraphs returns stored subgraphs at the given level that are
// rel-disjoint from sg and share at least one node with it.
func (p *Planner) storedNbrSubgraphs(sg graph.SubqueryGraph, level int) []graph.SubqueryGraph {
	var result []graph.SubqueryGraph
	for _, candidate := range p.context.subPlansTable.GetSubqueryGraphs(level) {
		if sg.Key().Rels&candidate.Key().Rels != 0 {
			continue
		}
		if len(sg.ConnectedNodePositions(candidate)) == 0 {
			continue
		}
		result = append(result, candidate)
	}
	return result
}

// needPruneImplicitJoins detects splits whose sides share more nodes through
// their rel endpoints than the declared join nodes. E.g. with e1: a->b and
// e2: b->a, the split ((a)-[e1], [e2]) declares a as the only join node while
// the rels also meet at b; joining there would under-constrain the match. An
// equivalent split declaring both nodes exists, so this one is pruned.
func needPruneImplicitJoins(leftSubgraph, rightSubgraph graph.SubqueryGraph, numJoinNodes int) bool {
	leftPositions := leftSubgraph.NodePositionsIgnoringNodeSelector()
	rightPositions := rightSubgraph.NodePositionsIgnoringNodeSelector()
	intersectionSize := 0
	for pos := range leftPositions {
		if _, ok := rightPositions[pos]; ok {
			intersectionSize++
		}
	}
	return intersectionSize != numJoinNodes
}

// tryPlanINLJoin appends an Extend to the multi-rel side when its plans
// bottom out at a sequential scan of the single join node. Reports whether
// any plan was emitted; on success hash joins for the pair are pruned.
func (p *Planner) tryPlanINLJoin(subgraph, otherSubgraph graph.SubqueryGraph,
	joinNodes []*graph.QueryNode) bool {
	if len(joinNodes) > 1 {
		return false
	}
	if !subgraph.IsSingleRel() && !otherSubgraph.IsSingleRel() {
		return false
	}
	// The extended side keeps its plans; the single-rel side contributes the
	// relationship. With two single-rel sides the right subgraph extends.
	multiSide, relSide := subgraph, otherSubgraph
	if !relSide.IsSingleRel() {
		multiSide, relSide = otherSubgraph, subgraph
	}
	qg := p.context.queryGraph
	relPos := relSide.SingleRelPos()
	rel := qg.QueryRel(relPos)
	boundNode := joinNodes[0]
	if rel.SrcNodeName != boundNode.Name && rel.DstNodeName != boundNode.Name {
		return false
	}
	nbrName := rel.DstNodeName
	if boundNode.Name == rel.DstNodeName {
		nbrName = rel.SrcNodeName
	}
	nbrNode := qg.QueryNode(qg.QueryNodeIdx(nbrName))
	extendDirection := getExtendDirection(rel, boundNode.Name)

	newSubgraph := multiSide.Canonical()
	newSubgraph.AddQueryRel(relPos)
	predicates := p.getNewlyMatchedExprs([]graph.SubqueryGraph{multiSide.Canonical()}, newSubgraph)
	applied := false
	for _, prevPlan := range p.context.subPlansTable.GetSubgraphPlans(multiSide) {
		if !isNodeSequentialOnPlan(prevPlan, boundNode) {
			continue
		}
		plan := prevPlan.ShallowCopy()
		p.appendExtend(boundNode, nbrNode, rel, extendDirection, p.props.Properties(rel.Name), plan)
		p.appendFilters(predicates, plan)
		p.context.subPlansTable.AddPlan(newSubgraph, plan)
		applied = true
	}
	return applied
}

// planInnerHashJoin emits hash joins for every plan pair of a split whose
// estimated cost beats the target subgraph's ceiling. With flip set, the
// mirrored build/probe assignment is considered as well.
func (p *Planner) planInnerHashJoin(subgraph, otherSubgraph graph.SubqueryGraph,
	joinNodes []*graph.QueryNode, flip bool) {
	table := p.context.subPlansTable
	newSubgraph := subgraph.Canonical()
	newSubgraph.AddSubqueryGraph(otherSubgraph)
	joinNodeIDs := make([]expr.Expression, len(joinNodes))
	for i, node := range joinNodes {
		joinNodeIDs[i] = node.InternalID()
	}
	predicates := p.getNewlyMatchedExprs(
		[]graph.SubqueryGraph{subgraph.Canonical(), otherSubgraph.Canonical()}, newSubgraph)
	for _, leftPlan := range table.GetSubgraphPlans(subgraph) {
		for _, rightPlan := range table.GetSubgraphPlans(otherSubgraph) {
			// The ceiling moves as plans land, so it is re-read per pair.
			maxCost := table.GetMaxCost(newSubgraph)
			if p.costModel.ComputeHashJoinCost(joinNodeIDs, leftPlan, rightPlan) < maxCost {
				probe := leftPlan.ShallowCopy()
				build := rightPlan.ShallowCopy()
				p.appendHashJoin(joinNodeIDs, JoinInner, probe, build)
				p.appendFilters(predicates, probe)
				table.AddPlan(newSubgraph, probe)
			}
			// Flip build and probe to get the mirrored hash join.
			if flip && p.costModel.ComputeHashJoinCost(joinNodeIDs, rightPlan, leftPlan) < maxCost {
				probe := rightPlan.ShallowCopy()
				build := leftPlan.ShallowCopy()
				p.appendHashJoin(joinNodeIDs, JoinInner, probe, build)
				p.appendFilters(predicates, probe)
				table.AddPlan(newSubgraph, probe)
			}
		}
	}
}

// planWCOJoin enumerates worst-case-optimal intersects: for every probe
// subgraph at probeLevel, every node that exactly buildCount unmatched rels
// dangle into becomes an intersect candidate.
func (p *Planner) planWCOJoin(buildCount, probeLevel int) {
	qg := p.context.queryGraph
	for _, rightSubgraph := range p.context.subPlansTable.GetSubqueryGraphs(probeLevel) {
		candidates := populateIntersectRelCandidates(qg, rightSubgraph)
		intersectNodePositions := make([]int, 0, len(candidates))
		for pos := range candidates {
			intersectNodePositions = append(intersectNodePositions, pos)
		}
		sort.Ints(intersectNodePositions)
		for _, intersectNodePos := range intersectNodePositions {
			relPositions := candidates[intersectNodePos]
			if len(relPositions) == buildCount {
				p.planWCOJoinWith(rightSubgraph, relPositions, qg.QueryNode(intersectNodePos))
			}
		}
	}
}

// populateIntersectRelCandidates maps each dangling node position (exactly
// one endpoint matched in the subgraph) to the rels dangling into it.
// Closing rels, with both endpoints matched, belong to inner joins.
func populateIntersectRelCandidates(qg *graph.QueryGraph,
	subgraph graph.SubqueryGraph) map[int][]int {
	candidates := make(map[int][]int)
	for _, relPos := range subgraph.RelNbrPositions() {
		rel := qg.QueryRel(relPos)
		srcPos := qg.QueryNodeIdx(rel.SrcNodeName)
		dstPos := qg.QueryNodeIdx(rel.DstNodeName)
		if srcPos < 0 || dstPos < 0 {
			continue
		}
		srcConnected := subgraph.ContainsNode(srcPos)
		dstConnected := subgraph.ContainsNode(dstPos)
		if srcConnected && dstConnected {
			continue
		}
		intersectNodePos := srcPos
		if srcConnected {
			intersectNodePos = dstPos
		}
		candidates[intersectNodePos] = append(candidates[intersectNodePos], relPos)
	}
	return candidates
}

func (p *Planner) planWCOJoinWith(subgraph graph.SubqueryGraph, relPositions []int,
	intersectNode *graph.QueryNode) {
	qg := p.context.queryGraph
	table := p.context.subPlansTable
	newSubgraph := subgraph
	prevSubgraphs := []graph.SubqueryGraph{subgraph}
	var boundNodeIDs []expr.Expression
	var relPlans []*LogicalPlan
	for _, relPos := range relPositions {
		rel := qg.QueryRel(relPos)
		boundName := rel.SrcNodeName
		if boundName == intersectNode.Name {
			boundName = rel.DstNodeName
		}
		boundNode := qg.QueryNode(qg.QueryNodeIdx(boundName))
		boundNodeIDs = append(boundNodeIDs, boundNode.InternalID())
		relSubgraph := qg.EmptySubqueryGraph()
		relSubgraph.AddQueryRel(relPos)
		prevSubgraphs = append(prevSubgraphs, relSubgraph)
		newSubgraph.AddQueryRel(relPos)
		relPlan := getWCOJBuildPlanForRel(table.GetSubgraphPlans(relSubgraph), boundNode)
		if relPlan == nil {
			// No build plan starts with a sequential scan of the bound node.
			return
		}
		relPlans = append(relPlans, relPlan)
	}
	predicates := p.getNewlyMatchedExprs(prevSubgraphs, newSubgraph)
	for _, leftPlan := range table.GetSubgraphPlans(subgraph) {
		// Disable WCOJ when the intersect node is already in the probe's
		// scope, e.g. MATCH (a)-[e1]->(b), (b)-[e2]->(a), (a)-[e3]->(b).
		// With edge-at-a-time enumeration we would reach e1 as probe and
		// e2, e3 as builds, while the right approach is to build all three
		// and intersect on a common node. Disabled until enumeration moves
		// to node-at-a-time.
		// TODO(join-order): re-enable once node-at-a-time enumeration lands.
		if leftPlan.Schema().IsExpressionInScope(intersectNode.InternalID()) {
			continue
		}
		probe := leftPlan.ShallowCopy()
		builds := make([]*LogicalPlan, len(relPlans))
		for i, relPlan := range relPlans {
			builds[i] = relPlan.ShallowCopy()
		}
		p.appendIntersect(intersectNode.InternalID(), boundNodeIDs, probe, builds)
		p.appendFilters(predicates, probe)
		table.AddPlan(newSubgraph, probe)
	}
}

// getWCOJBuildPlanForRel picks the single-rel candidate whose leaf is a
// sequential scan of the bound node; the intersect build side must stream
// neighbor lists in bound-node order.
func getWCOJBuildPlanForRel(candidatePlans []*LogicalPlan, boundNode *graph.QueryNode) *LogicalPlan {
	for _, candidate := range candidatePlans {
		if isNodeSequentialOnPlan(candidate, boundNode) {
			return candidate.ShallowCopy()
		}
	}
	return nil
}

// getSequentialScan descends through the operators that preserve scan order
// and returns the sequential scan feeding the plan, nil if the plan is not
// scan-ordered.
func getSequentialScan(op LogicalOperator) *ScanNodeTable {
	switch op.Type() {
	case OpTypeFlatten, OpTypeFilter, OpTypeExtend, OpTypeProjection:
		return getSequentialScan(op.Children()[0])
	case OpTypeScanNodeTable:
		return op.(*ScanNodeTable)
	default:
		return nil
	}
}

// isNodeSequentialOnPlan reports whether the plan streams in sequential
// order of the given node's internal ID.
func isNodeSequentialOnPlan(plan *LogicalPlan, node *graph.QueryNode) bool {
	seqScan := getSequentialScan(plan.LastOperator())
	if seqScan == nil {
		return false
	}
	return seqScan.NodeID.String() == node.InternalID().String()
}

// getNewlyMatchedExprs returns the predicates that become evaluable at the
// transition from prevs to newSubgraph: no prev subgraph covers all their
// dependencies, the new one does.
func (p *Planner) getNewlyMatchedExprs(prevs []graph.SubqueryGraph,
	newSubgraph graph.SubqueryGraph) []expr.Expression {
	var result []expr.Expression
	for _, e := range p.context.whereExprs {
		if isExpressionNewlyMatched(prevs, newSubgraph, e) {
			result = append(result, e)
		}
	}
	return result
}

func isExpressionNewlyMatched(prevs []graph.SubqueryGraph, newSubgraph graph.SubqueryGraph,
	e expr.Expression) bool {
	variables := expr.CollectDependentVars(e)
	for _, prev := range prevs {
		if prev.ContainAllVariables(variables) {
			return false
		}
	}
	return newSubgraph.ContainAllVariables(variables)
}
