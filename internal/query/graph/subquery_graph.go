package graph

import (
	"math/bits"
	"strings"
)

// SubgraphKey is the comparable identity of a SubqueryGraph: the pair of
// selector words. Two SubqueryGraphs are equal iff both selectors are equal.
type SubgraphKey struct {
	Nodes uint64
	Rels  uint64
}

// SubqueryGraph denotes which positions of a QueryGraph are matched by a
// partial plan. A relationship selector bit implies the selector bits of both
// endpoint nodes, except in neighbor subgraphs produced during join
// enumeration, whose node selectors carry only the declared connection
// points.
type SubqueryGraph struct {
	queryGraph    *QueryGraph
	nodesSelector uint64
	relsSelector  uint64
}

// NewSubqueryGraph returns the empty subgraph over the given query graph.
func NewSubqueryGraph(g *QueryGraph) SubqueryGraph {
	return SubqueryGraph{queryGraph: g}
}

// QueryGraph returns the graph the selectors index into.
func (s *SubqueryGraph) QueryGraph() *QueryGraph {
	return s.queryGraph
}

// Key returns the comparable identity of the subgraph.
func (s *SubqueryGraph) Key() SubgraphKey {
	return SubgraphKey{Nodes: s.nodesSelector, Rels: s.relsSelector}
}

// AddQueryNode marks the node at pos as matched.
func (s *SubqueryGraph) AddQueryNode(pos int) {
	s.nodesSelector |= 1 << uint(pos)
}

// AddQueryRel marks the rel at pos as matched, together with both of its
// endpoint nodes.
func (s *SubqueryGraph) AddQueryRel(pos int) {
	s.relsSelector |= 1 << uint(pos)
	rel := s.queryGraph.QueryRel(pos)
	if idx := s.queryGraph.QueryNodeIdx(rel.SrcNodeName); idx >= 0 {
		s.nodesSelector |= 1 << uint(idx)
	}
	if idx := s.queryGraph.QueryNodeIdx(rel.DstNodeName); idx >= 0 {
		s.nodesSelector |= 1 << uint(idx)
	}
}

// addQueryRelOnly marks the rel at pos without touching node selectors. Used
// by neighbor generation, which declares connection points explicitly.
func (s *SubqueryGraph) addQueryRelOnly(pos int) {
	s.relsSelector |= 1 << uint(pos)
}

// AddSubqueryGraph merges the selectors of other into s.
func (s *SubqueryGraph) AddSubqueryGraph(other SubqueryGraph) {
	s.nodesSelector |= other.nodesSelector
	s.relsSelector |= other.relsSelector
}

// ContainsNode reports whether the node at pos is matched.
func (s *SubqueryGraph) ContainsNode(pos int) bool {
	return s.nodesSelector&(1<<uint(pos)) != 0
}

// ContainsRel reports whether the rel at pos is matched.
func (s *SubqueryGraph) ContainsRel(pos int) bool {
	return s.relsSelector&(1<<uint(pos)) != 0
}

// NumNodes returns the number of matched nodes.
func (s *SubqueryGraph) NumNodes() int {
	return bits.OnesCount64(s.nodesSelector)
}

// NumRels returns the number of matched rels, the subgraph's DP level.
func (s *SubqueryGraph) NumRels() int {
	return bits.OnesCount64(s.relsSelector)
}

// IsSingleRel reports whether exactly one relationship is matched.
func (s *SubqueryGraph) IsSingleRel() bool {
	return s.NumRels() == 1
}

// SingleRelPos returns the position of the only matched rel. The subgraph
// must be a single-rel subgraph.
func (s *SubqueryGraph) SingleRelPos() int {
	return bits.TrailingZeros64(s.relsSelector)
}

// Canonical returns a copy whose node selector is completed with the
// endpoints of every matched rel. Plans are always stored under canonical
// subgraphs.
func (s *SubqueryGraph) Canonical() SubqueryGraph {
	result := SubqueryGraph{queryGraph: s.queryGraph, nodesSelector: s.nodesSelector}
	sel := s.relsSelector
	for sel != 0 {
		pos := bits.TrailingZeros64(sel)
		sel &= sel - 1
		result.AddQueryRel(pos)
	}
	return result
}

// ContainAllVariables reports whether every name in the set is a matched
// node or a matched rel.
func (s *SubqueryGraph) ContainAllVariables(names map[string]struct{}) bool {
	for name := range names {
		if idx := s.queryGraph.QueryNodeIdx(name); idx >= 0 {
			if !s.ContainsNode(idx) {
				return false
			}
			continue
		}
		if idx := s.queryGraph.QueryRelIdx(name); idx >= 0 {
			if !s.ContainsRel(idx) {
				return false
			}
			continue
		}
		return false
	}
	return true
}

// ConnectedNodePositions returns the node positions matched by both
// subgraphs, the declared join nodes of an enumerated split.
func (s *SubqueryGraph) ConnectedNodePositions(other SubqueryGraph) []int {
	shared := s.nodesSelector & other.nodesSelector
	result := make([]int, 0, bits.OnesCount64(shared))
	for shared != 0 {
		pos := bits.TrailingZeros64(shared)
		shared &= shared - 1
		result = append(result, pos)
	}
	return result
}

// NodePositionsIgnoringNodeSelector returns the node positions reachable
// from the matched rels alone. Relationships whose endpoints are matched
// externally contribute nothing for the missing endpoint.
func (s *SubqueryGraph) NodePositionsIgnoringNodeSelector() map[int]struct{} {
	result := make(map[int]struct{})
	sel := s.relsSelector
	for sel != 0 {
		pos := bits.TrailingZeros64(sel)
		sel &= sel - 1
		rel := s.queryGraph.QueryRel(pos)
		if idx := s.queryGraph.QueryNodeIdx(rel.SrcNodeName); idx >= 0 {
			result[idx] = struct{}{}
		}
		if idx := s.queryGraph.QueryNodeIdx(rel.DstNodeName); idx >= 0 {
			result[idx] = struct{}{}
		}
	}
	return result
}

// RelNbrPositions returns the positions of rels not yet matched that touch
// at least one matched node.
func (s *SubqueryGraph) RelNbrPositions() []int {
	var result []int
	for pos := 0; pos < s.queryGraph.NumQueryRels(); pos++ {
		if s.ContainsRel(pos) {
			continue
		}
		rel := s.queryGraph.QueryRel(pos)
		srcIdx := s.queryGraph.QueryNodeIdx(rel.SrcNodeName)
		dstIdx := s.queryGraph.QueryNodeIdx(rel.DstNodeName)
		if (srcIdx >= 0 && s.ContainsNode(srcIdx)) || (dstIdx >= 0 && s.ContainsNode(dstIdx)) {
			result = append(result, pos)
		}
	}
	return result
}

// BaseNbrSubgraphs generates the single-rel neighbor subgraphs of s. For
// each adjacent rel, one neighbor is produced per non-empty subset of the
// endpoints the rel shares with s; the subset is the neighbor's declared
// connection. Implicit-join detection compares the declaration against the
// rels' actual shared endpoints.
func (s *SubqueryGraph) BaseNbrSubgraphs() []SubqueryGraph {
	var result []SubqueryGraph
	for _, relPos := range s.RelNbrPositions() {
		rel := s.queryGraph.QueryRel(relPos)
		var shared []int
		srcIdx := s.queryGraph.QueryNodeIdx(rel.SrcNodeName)
		dstIdx := s.queryGraph.QueryNodeIdx(rel.DstNodeName)
		if srcIdx >= 0 && s.ContainsNode(srcIdx) {
			shared = append(shared, srcIdx)
		}
		if dstIdx >= 0 && s.ContainsNode(dstIdx) && dstIdx != srcIdx {
			shared = append(shared, dstIdx)
		}
		for mask := 1; mask < 1<<len(shared); mask++ {
			nbr := NewSubqueryGraph(s.queryGraph)
			nbr.addQueryRelOnly(relPos)
			for i, nodePos := range shared {
				if mask&(1<<i) != 0 {
					nbr.AddQueryNode(nodePos)
				}
			}
			result = append(result, nbr)
		}
	}
	return result
}

// String renders the matched element names, nodes first.
func (s *SubqueryGraph) String() string {
	var parts []string
	for pos := 0; pos < s.queryGraph.NumQueryNodes(); pos++ {
		if s.ContainsNode(pos) {
			parts = append(parts, s.queryGraph.QueryNode(pos).Name)
		}
	}
	for pos := 0; pos < s.queryGraph.NumQueryRels(); pos++ {
		if s.ContainsRel(pos) {
			parts = append(parts, s.queryGraph.QueryRel(pos).Name)
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}
