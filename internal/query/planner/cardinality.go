package planner

import (
	"sync"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/query/graph"
	"github.com/kestreldb/kestrel/internal/txn"
)

// Selectivity defaults applied when no statistics narrow an estimate.
const (
	defaultFilterSelectivity = 0.1
	defaultTableCardinality  = 1000
	defaultRelDegree         = 10
	minCardinality           = 1.0
)

type domKey struct {
	txn  txn.TransactionID
	name string
}

type tableCardKey struct {
	txn   txn.TransactionID
	table catalog.TableID
}

// CardinalityEstimator estimates operator output cardinalities from catalog
// statistics. One instance is shared by independent planning calls, so its
// caches are internally synchronized.
type CardinalityEstimator struct {
	catalog catalog.Catalog

	mu         sync.RWMutex
	nodeIDDom  map[domKey]float64
	tableCards map[tableCardKey]float64
}

// NewCardinalityEstimator creates an estimator over the given catalog.
func NewCardinalityEstimator(cat catalog.Catalog) *CardinalityEstimator {
	return &CardinalityEstimator{
		catalog:    cat,
		nodeIDDom:  make(map[domKey]float64),
		tableCards: make(map[tableCardKey]float64),
	}
}

// InitNodeIDDom caches the internal-ID domain of every query node as of the
// transaction's snapshot.
func (e *CardinalityEstimator) InitNodeIDDom(qg *graph.QueryGraph, tx *txn.Transaction) {
	for pos := 0; pos < qg.NumQueryNodes(); pos++ {
		node := qg.QueryNode(pos)
		dom := 0.0
		for _, tableID := range node.TableIDs {
			dom += e.tableCardinality(tx, tableID)
		}
		if dom < minCardinality {
			dom = minCardinality
		}
		e.mu.Lock()
		e.nodeIDDom[domKey{txn: tx.ID(), name: node.Name}] = dom
		e.mu.Unlock()
	}
}

// NodeIDDom returns the cached internal-ID domain of a node.
func (e *CardinalityEstimator) NodeIDDom(tx *txn.Transaction, nodeName string) float64 {
	e.mu.RLock()
	dom, ok := e.nodeIDDom[domKey{txn: tx.ID(), name: nodeName}]
	e.mu.RUnlock()
	if !ok {
		return defaultTableCardinality
	}
	return dom
}

func (e *CardinalityEstimator) tableCardinality(tx *txn.Transaction, id catalog.TableID) float64 {
	key := tableCardKey{txn: tx.ID(), table: id}
	e.mu.RLock()
	card, ok := e.tableCards[key]
	e.mu.RUnlock()
	if ok {
		return card
	}
	card = defaultTableCardinality
	if stats, err := e.catalog.GetTableStats(tx, id); err == nil && stats.RowCount > 0 {
		card = float64(stats.RowCount)
	}
	e.mu.Lock()
	e.tableCards[key] = card
	e.mu.Unlock()
	return card
}

func (e *CardinalityEstimator) relDegree(tx *txn.Transaction, rel *graph.QueryRel) float64 {
	degree := 0.0
	for _, tableID := range rel.TableIDs {
		if stats, err := e.catalog.GetTableStats(tx, tableID); err == nil && stats.AvgDegree > 0 {
			degree += stats.AvgDegree
		} else {
			degree += defaultRelDegree
		}
	}
	if degree <= 0 {
		degree = defaultRelDegree
	}
	return degree
}

// EstimateScanNodeTable estimates a sequential scan over the node tables.
func (e *CardinalityEstimator) EstimateScanNodeTable(tx *txn.Transaction, tableIDs []catalog.TableID) float64 {
	card := 0.0
	for _, id := range tableIDs {
		card += e.tableCardinality(tx, id)
	}
	if card < minCardinality {
		card = minCardinality
	}
	return card
}

// EstimateExtend estimates extending a bound column along one relationship.
func (e *CardinalityEstimator) EstimateExtend(tx *txn.Transaction, boundCard float64, rel *graph.QueryRel) float64 {
	card := boundCard * e.relDegree(tx, rel)
	if card < minCardinality {
		card = minCardinality
	}
	return card
}

// EstimateRecursiveExtend estimates a bounded recursive traversal, scaled by
// the configured recursive pattern factor.
func (e *CardinalityEstimator) EstimateRecursiveExtend(tx *txn.Transaction, boundCard float64,
	rel *graph.QueryRel, upperBound, patternFactor int) float64 {
	degree := e.relDegree(tx, rel)
	// Per-hop growth capped to keep deep bounds from overflowing.
	card := boundCard * degree
	for i := 1; i < upperBound && i < 8; i++ {
		card *= degree
	}
	card *= float64(patternFactor)
	if card < minCardinality {
		card = minCardinality
	}
	return card
}

// EstimateHashJoin estimates an inner hash join on node internal IDs: the
// product of input cardinalities divided by each join key's domain.
func (e *CardinalityEstimator) EstimateHashJoin(tx *txn.Transaction,
	joinNodeIDs []expr.Expression, probe, build *LogicalPlan) float64 {
	card := probe.Cardinality() * build.Cardinality()
	for _, id := range joinNodeIDs {
		if access, ok := id.(*expr.PropertyAccess); ok {
			card /= e.NodeIDDom(tx, access.Variable)
		}
	}
	if card < minCardinality {
		card = minCardinality
	}
	return card
}

// EstimateIntersect estimates a worst-case-optimal intersect: the probe side
// extended by the most selective build.
func (e *CardinalityEstimator) EstimateIntersect(tx *txn.Transaction,
	intersectNodeID *expr.PropertyAccess, probe *LogicalPlan, builds []*LogicalPlan) float64 {
	dom := e.NodeIDDom(tx, intersectNodeID.Variable)
	card := probe.Cardinality() * dom
	for _, build := range builds {
		extended := probe.Cardinality() * build.Cardinality() / dom
		if extended < card {
			card = extended
		}
	}
	if card < minCardinality {
		card = minCardinality
	}
	return card
}

// EstimateFilter applies a predicate's selectivity.
func (e *CardinalityEstimator) EstimateFilter(card float64, _ expr.Expression) float64 {
	card *= defaultFilterSelectivity
	if card < minCardinality {
		card = minCardinality
	}
	return card
}

// EstimateCrossProduct estimates a cross product.
func (e *CardinalityEstimator) EstimateCrossProduct(probe, build *LogicalPlan) float64 {
	card := probe.Cardinality() * build.Cardinality()
	if card < minCardinality {
		card = minCardinality
	}
	return card
}
