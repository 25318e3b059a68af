package planner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/query/expr"
	"github.com/kestreldb/kestrel/internal/txn"
)

func TestNodeIDDomFromStats(t *testing.T) {
	f := personFixture(t)
	g := f.chainGraph(2)

	e := NewCardinalityEstimator(f.cat)
	e.InitNodeIDDom(g, f.tx)

	assert.Equal(t, 1000.0, e.NodeIDDom(f.tx, "a"))
	assert.Equal(t, 1000.0, e.NodeIDDom(f.tx, "b"))
	// Unknown nodes fall back to the default.
	assert.Equal(t, float64(defaultTableCardinality), e.NodeIDDom(f.tx, "z"))
}

func TestScanAndExtendEstimates(t *testing.T) {
	f := personFixture(t)
	g := f.chainGraph(2)
	e := NewCardinalityEstimator(f.cat)

	scanCard := e.EstimateScanNodeTable(f.tx, []catalog.TableID{f.tables["Person"]})
	assert.Equal(t, 1000.0, scanCard)

	extendCard := e.EstimateExtend(f.tx, scanCard, g.QueryRel(0))
	assert.Equal(t, 5000.0, extendCard)
}

func TestFilterEstimateFloorsAtOne(t *testing.T) {
	e := NewCardinalityEstimator(catalog.NewMemoryCatalog())
	assert.Equal(t, 1.0, e.EstimateFilter(3, nil))
	assert.Equal(t, 100.0, e.EstimateFilter(1000, nil))
}

func TestHashJoinEstimateDividesByDomain(t *testing.T) {
	f := personFixture(t)
	g := f.chainGraph(2)
	e := NewCardinalityEstimator(f.cat)
	e.InitNodeIDDom(g, f.tx)

	probe := &LogicalPlan{cardinality: 5000}
	build := &LogicalPlan{cardinality: 5000}
	card := e.EstimateHashJoin(f.tx, []expr.Expression{expr.NewInternalID("b")}, probe, build)
	assert.Equal(t, 5000.0*5000.0/1000.0, card)
}

// Estimators are shared across planning calls; concurrent initialization
// must be safe.
func TestEstimatorIsReentrant(t *testing.T) {
	f := personFixture(t)
	e := NewCardinalityEstimator(f.cat)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := txn.New()
			g := f.chainGraph(3)
			e.InitNodeIDDom(g, tx)
			require.Equal(t, 1000.0, e.NodeIDDom(tx, "a"))
		}()
	}
	wg.Wait()
}
