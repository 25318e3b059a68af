package planner

import (
	"github.com/kestreldb/kestrel/internal/errors"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/query/graph"
)

// JoinOrderHint is a user-specified join tree. A leaf names a query node or
// relationship; an internal node joins its two subtrees. A valid hint covers
// every relationship of the query graph exactly once.
type JoinOrderHint struct {
	Variable string
	Left     *JoinOrderHint
	Right    *JoinOrderHint
}

// IsLeaf reports whether the hint node is a leaf.
func (h *JoinOrderHint) IsLeaf() bool {
	return h.Left == nil && h.Right == nil
}

// joinTreeNode is a validated hint node annotated with the subgraph its
// subtree matches.
type joinTreeNode struct {
	variable string
	subgraph graph.SubqueryGraph
	left     *joinTreeNode
	right    *joinTreeNode
}

func (n *joinTreeNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// joinTreeConstructor validates a hint against the query graph.
type joinTreeConstructor struct {
	queryGraph *graph.QueryGraph
	props      *PropertyExprCollection
	predicates []expr.Expression
	seenRels   map[string]bool
}

func newJoinTreeConstructor(qg *graph.QueryGraph, props *PropertyExprCollection,
	predicates []expr.Expression) *joinTreeConstructor {
	return &joinTreeConstructor{
		queryGraph: qg,
		props:      props,
		predicates: predicates,
		seenRels:   make(map[string]bool),
	}
}

func (c *joinTreeConstructor) construct(hint *JoinOrderHint) (*joinTreeNode, error) {
	root, err := c.constructNode(hint)
	if err != nil {
		return nil, err
	}
	full := c.queryGraph.FullyMatchedSubqueryGraph()
	if root.subgraph.Key() != full.Key() {
		return nil, errors.Newf(errors.HintInfeasible,
			"join hint does not cover the whole pattern: matched %s, expected %s",
			root.subgraph.String(), full.String())
	}
	return root, nil
}

func (c *joinTreeConstructor) constructNode(hint *JoinOrderHint) (*joinTreeNode, error) {
	if hint.IsLeaf() {
		return c.constructLeaf(hint)
	}
	if hint.Left == nil || hint.Right == nil {
		return nil, errors.HintInfeasibleError(hint.Variable, "join node must have two children")
	}
	left, err := c.constructNode(hint.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.constructNode(hint.Right)
	if err != nil {
		return nil, err
	}
	if len(left.subgraph.ConnectedNodePositions(right.subgraph)) == 0 {
		return nil, errors.HintInfeasibleError(hint.Right.Variable,
			"not connected to the rest of the hint")
	}
	subgraph := left.subgraph
	subgraph.AddSubqueryGraph(right.subgraph)
	return &joinTreeNode{subgraph: subgraph, left: left, right: right}, nil
}

func (c *joinTreeConstructor) constructLeaf(hint *JoinOrderHint) (*joinTreeNode, error) {
	qg := c.queryGraph
	if relPos := qg.QueryRelIdx(hint.Variable); relPos >= 0 {
		if c.seenRels[hint.Variable] {
			rel := qg.QueryRel(relPos)
			return nil, errors.HintInfeasibleError(hint.Variable, "appears twice").WithRel(rel.Name)
		}
		c.seenRels[hint.Variable] = true
		subgraph := qg.EmptySubqueryGraph()
		subgraph.AddQueryRel(relPos)
		return &joinTreeNode{variable: hint.Variable, subgraph: subgraph}, nil
	}
	if nodePos := qg.QueryNodeIdx(hint.Variable); nodePos >= 0 {
		subgraph := qg.EmptySubqueryGraph()
		subgraph.AddQueryNode(nodePos)
		return &joinTreeNode{variable: hint.Variable, subgraph: subgraph}, nil
	}
	return nil, errors.HintInfeasibleError(hint.Variable, "no such pattern variable").
		WithNode(hint.Variable)
}

// joinPlanSolver lowers a validated join tree with the same primitives the
// enumerator uses, so a hint reproducing the natural order reproduces the
// natural plan.
type joinPlanSolver struct {
	planner *Planner
}

func newJoinPlanSolver(p *Planner) *joinPlanSolver {
	return &joinPlanSolver{planner: p}
}

func (s *joinPlanSolver) solve(root *joinTreeNode) (*LogicalPlan, error) {
	plans, err := s.solveCandidates(root)
	if err != nil {
		return nil, err
	}
	best := getBestPlan(plans)
	if best == nil {
		return nil, errors.InternalErrorf("hinted join tree produced no plan")
	}
	return best, nil
}

func (s *joinPlanSolver) solveCandidates(node *joinTreeNode) ([]*LogicalPlan, error) {
	if node.isLeaf() {
		return s.solveLeaf(node)
	}
	p := s.planner
	leftPlans, err := s.solveCandidates(node.left)
	if err != nil {
		return nil, err
	}
	rightPlans, err := s.solveCandidates(node.right)
	if err != nil {
		return nil, err
	}
	qg := p.context.queryGraph
	joinNodePositions := node.left.subgraph.ConnectedNodePositions(node.right.subgraph)
	joinNodes := make([]*graph.QueryNode, len(joinNodePositions))
	for i, pos := range joinNodePositions {
		joinNodes[i] = qg.QueryNode(pos)
	}
	newSubgraph := node.subgraph
	predicates := p.getNewlyMatchedExprs(
		[]graph.SubqueryGraph{node.left.subgraph, node.right.subgraph}, newSubgraph)

	// Mirror the enumerator: a single join node with a single-rel right side
	// extends in place of a hash join when the probe streams sequentially.
	if len(joinNodes) == 1 && node.right.subgraph.IsSingleRel() {
		relPos := node.right.subgraph.SingleRelPos()
		rel := qg.QueryRel(relPos)
		boundNode := joinNodes[0]
		if rel.SrcNodeName == boundNode.Name || rel.DstNodeName == boundNode.Name {
			nbrName := rel.DstNodeName
			if boundNode.Name == rel.DstNodeName {
				nbrName = rel.SrcNodeName
			}
			nbrNode := qg.QueryNode(qg.QueryNodeIdx(nbrName))
			direction := getExtendDirection(rel, boundNode.Name)
			extendPredicates := p.getNewlyMatchedExprs(
				[]graph.SubqueryGraph{node.left.subgraph}, newSubgraph)
			var result []*LogicalPlan
			for _, leftPlan := range leftPlans {
				if !isNodeSequentialOnPlan(leftPlan, boundNode) {
					continue
				}
				plan := leftPlan.ShallowCopy()
				p.appendExtend(boundNode, nbrNode, rel, direction, p.props.Properties(rel.Name), plan)
				p.appendFilters(extendPredicates, plan)
				result = append(result, plan)
			}
			if len(result) > 0 {
				return result, nil
			}
		}
	}

	joinNodeIDs := make([]expr.Expression, len(joinNodes))
	for i, n := range joinNodes {
		joinNodeIDs[i] = n.InternalID()
	}
	var result []*LogicalPlan
	for _, leftPlan := range leftPlans {
		for _, rightPlan := range rightPlans {
			probe := leftPlan.ShallowCopy()
			build := rightPlan.ShallowCopy()
			p.appendHashJoin(joinNodeIDs, JoinInner, probe, build)
			p.appendFilters(predicates, probe)
			result = append(result, probe)

			flipProbe := rightPlan.ShallowCopy()
			flipBuild := leftPlan.ShallowCopy()
			p.appendHashJoin(joinNodeIDs, JoinInner, flipProbe, flipBuild)
			p.appendFilters(predicates, flipProbe)
			result = append(result, flipProbe)
		}
	}
	return result, nil
}

func (s *joinPlanSolver) solveLeaf(node *joinTreeNode) ([]*LogicalPlan, error) {
	p := s.planner
	qg := p.context.queryGraph
	empty := qg.EmptySubqueryGraph()
	if relPos := qg.QueryRelIdx(node.variable); relPos >= 0 {
		rel := qg.QueryRel(relPos)
		predicates := p.getNewlyMatchedExprs([]graph.SubqueryGraph{empty}, node.subgraph)
		var result []*LogicalPlan
		for _, direction := range []ExtendDirection{ExtendFwd, ExtendBwd} {
			boundName, nbrName := getBoundAndNbrNodes(rel, direction)
			boundNode := qg.QueryNode(qg.QueryNodeIdx(boundName))
			nbrNode := qg.QueryNode(qg.QueryNodeIdx(nbrName))
			plan := NewLogicalPlan()
			p.appendScanNodeTable(boundNode.InternalID(), boundNode.TableIDs, nil, plan)
			p.appendExtend(boundNode, nbrNode, rel, getExtendDirection(rel, boundName),
				p.props.Properties(rel.Name), plan)
			p.appendFilters(predicates, plan)
			result = append(result, plan)
		}
		return result, nil
	}
	nodePos := qg.QueryNodeIdx(node.variable)
	queryNode := qg.QueryNode(nodePos)
	plan := NewLogicalPlan()
	p.appendScanNodeTable(queryNode.InternalID(), queryNode.TableIDs,
		p.props.Properties(queryNode.Name), plan)
	predicates := p.getNewlyMatchedExprs([]graph.SubqueryGraph{empty}, node.subgraph)
	p.appendFilters(predicates, plan)
	return []*LogicalPlan{plan}, nil
}
