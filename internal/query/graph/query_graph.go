package graph

import (
	"fmt"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/errors"
	"github.com/kestreldb/kestrel/internal/query/expr"
)

// MaxVariables bounds the number of query nodes and the number of query
// relationships per query graph. Selectors are single machine words.
const MaxVariables = 64

// Direction is the declared direction of a query relationship.
type Direction int

const (
	DirectionFwd Direction = iota
	DirectionBwd
	DirectionBoth
)

func (d Direction) String() string {
	switch d {
	case DirectionFwd:
		return "FWD"
	case DirectionBwd:
		return "BWD"
	case DirectionBoth:
		return "BOTH"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// RelType distinguishes plain relationships from recursive pattern forms.
type RelType int

const (
	RelNonRecursive RelType = iota
	RelVariableLength
	RelShortest
	RelAllShortest
)

// IsRecursive reports whether the relationship lowers to a recursive extend.
func (t RelType) IsRecursive() bool {
	return t != RelNonRecursive
}

func (t RelType) String() string {
	switch t {
	case RelNonRecursive:
		return "NON_RECURSIVE"
	case RelVariableLength:
		return "VARIABLE_LENGTH"
	case RelShortest:
		return "SHORTEST"
	case RelAllShortest:
		return "ALL_SHORTEST"
	default:
		return fmt.Sprintf("RelType(%d)", int(t))
	}
}

// QueryNode is a pattern variable bound to one or more node tables.
type QueryNode struct {
	Name     string
	TableIDs []catalog.TableID
}

// InternalID returns the node's internal-ID expression, its stable join key.
func (n *QueryNode) InternalID() *expr.PropertyAccess {
	return expr.NewInternalID(n.Name)
}

// QueryRel is a pattern variable connecting two query nodes.
type QueryRel struct {
	Name        string
	SrcNodeName string
	DstNodeName string
	Direction   Direction
	Type        RelType
	TableIDs    []catalog.TableID
	// Bounds apply to recursive relationship types only.
	LowerBound int
	UpperBound int
}

// QueryGraph is the bound pattern: an ordered sequence of query nodes and an
// ordered sequence of query relationships. Positions in these sequences are
// the only identifiers used downstream and stay stable for the lifetime of a
// plan search.
type QueryGraph struct {
	queryNodes []*QueryNode
	queryRels  []*QueryRel
	nodeToIdx  map[string]int
	relToIdx   map[string]int
}

// NewQueryGraph creates an empty query graph.
func NewQueryGraph() *QueryGraph {
	return &QueryGraph{
		nodeToIdx: make(map[string]int),
		relToIdx:  make(map[string]int),
	}
}

// AddQueryNode appends a query node. Node names must be unique.
func (g *QueryGraph) AddQueryNode(node *QueryNode) error {
	if _, ok := g.nodeToIdx[node.Name]; ok {
		return errors.InternalErrorf("query node %q added twice", node.Name)
	}
	if len(g.queryNodes) >= MaxVariables {
		return errors.PlanningErrorf("query graph exceeds %d nodes", MaxVariables)
	}
	g.nodeToIdx[node.Name] = len(g.queryNodes)
	g.queryNodes = append(g.queryNodes, node)
	return nil
}

// AddQueryRel appends a query relationship. Both endpoints must name nodes
// already in the graph.
func (g *QueryGraph) AddQueryRel(rel *QueryRel) error {
	if _, ok := g.relToIdx[rel.Name]; ok {
		return errors.InternalErrorf("query rel %q added twice", rel.Name)
	}
	if len(g.queryRels) >= MaxVariables {
		return errors.PlanningErrorf("query graph exceeds %d relationships", MaxVariables)
	}
	if _, ok := g.nodeToIdx[rel.SrcNodeName]; !ok {
		return errors.UndefinedVariableError(rel.SrcNodeName)
	}
	if _, ok := g.nodeToIdx[rel.DstNodeName]; !ok {
		return errors.UndefinedVariableError(rel.DstNodeName)
	}
	g.relToIdx[rel.Name] = len(g.queryRels)
	g.queryRels = append(g.queryRels, rel)
	return nil
}

// NumQueryNodes returns the number of query nodes.
func (g *QueryGraph) NumQueryNodes() int {
	return len(g.queryNodes)
}

// NumQueryRels returns the number of query relationships.
func (g *QueryGraph) NumQueryRels() int {
	return len(g.queryRels)
}

// QueryNode returns the node at the given position.
func (g *QueryGraph) QueryNode(pos int) *QueryNode {
	return g.queryNodes[pos]
}

// QueryRel returns the relationship at the given position.
func (g *QueryGraph) QueryRel(pos int) *QueryRel {
	return g.queryRels[pos]
}

// QueryNodeIdx returns the position of the named node, -1 if absent.
func (g *QueryGraph) QueryNodeIdx(name string) int {
	if idx, ok := g.nodeToIdx[name]; ok {
		return idx
	}
	return -1
}

// QueryRelIdx returns the position of the named relationship, -1 if absent.
func (g *QueryGraph) QueryRelIdx(name string) int {
	if idx, ok := g.relToIdx[name]; ok {
		return idx
	}
	return -1
}

// ContainsQueryNode reports whether the graph holds a node with the name.
func (g *QueryGraph) ContainsQueryNode(name string) bool {
	_, ok := g.nodeToIdx[name]
	return ok
}

// ContainsQueryRel reports whether the graph holds a rel with the name.
func (g *QueryGraph) ContainsQueryRel(name string) bool {
	_, ok := g.relToIdx[name]
	return ok
}

// ContainsVariable reports whether the name binds a node or a rel.
func (g *QueryGraph) ContainsVariable(name string) bool {
	return g.ContainsQueryNode(name) || g.ContainsQueryRel(name)
}

// IsEmpty reports whether the graph has no pattern elements.
func (g *QueryGraph) IsEmpty() bool {
	return len(g.queryNodes) == 0
}

// CanProjectExpression reports whether every variable the expression depends
// on names a pattern element of this graph.
func (g *QueryGraph) CanProjectExpression(e expr.Expression) bool {
	for name := range expr.CollectDependentVars(e) {
		if !g.ContainsVariable(name) {
			return false
		}
	}
	return true
}

// EmptySubqueryGraph returns the subgraph with nothing matched.
func (g *QueryGraph) EmptySubqueryGraph() SubqueryGraph {
	return NewSubqueryGraph(g)
}

// FullyMatchedSubqueryGraph returns the subgraph with every node and rel
// matched.
func (g *QueryGraph) FullyMatchedSubqueryGraph() SubqueryGraph {
	sg := NewSubqueryGraph(g)
	for pos := range g.queryNodes {
		sg.AddQueryNode(pos)
	}
	for pos := range g.queryRels {
		sg.AddQueryRel(pos)
	}
	return sg
}

// QueryGraphCollection groups the weakly connected components of a match
// pattern.
type QueryGraphCollection struct {
	QueryGraphs []*QueryGraph
}

// NumQueryGraphs returns the number of components.
func (c *QueryGraphCollection) NumQueryGraphs() int {
	return len(c.QueryGraphs)
}

// QueryGraph returns the component at the given index.
func (c *QueryGraphCollection) QueryGraph(idx int) *QueryGraph {
	return c.QueryGraphs[idx]
}

// ConnectedQueryGraphIdx returns the index of the first component that
// mentions at least one of the given correlated internal-ID expressions, or
// -1. This anchors correlated-subquery placement.
func (c *QueryGraphCollection) ConnectedQueryGraphIdx(exprSet *expr.Set) int {
	for i, g := range c.QueryGraphs {
		for _, node := range g.queryNodes {
			if exprSet.Contains(node.InternalID()) {
				return i
			}
		}
	}
	return -1
}
