package planner

import (
	"fmt"
	"strings"

	"github.com/kestreldb/kestrel/internal/catalog"
	"github.com/kestreldb/kestrel/internal/query/expr"
)

// ScanNodeTable scans the node tables bound to a query node, producing its
// internal ID and the requested properties in sequential table order.
type ScanNodeTable struct {
	baseOperator
	NodeID     *expr.PropertyAccess
	TableIDs   []catalog.TableID
	Properties []expr.Expression
}

func (s *ScanNodeTable) Type() OperatorType {
	return OpTypeScanNodeTable
}

func (s *ScanNodeTable) String() string {
	return fmt.Sprintf("ScanNodeTable(%s)", s.NodeID.Variable)
}

func newScanNodeTable(nodeID *expr.PropertyAccess, tableIDs []catalog.TableID, properties []expr.Expression) *ScanNodeTable {
	schema := NewSchema()
	group := schema.CreateGroup(true)
	schema.InsertToGroup(nodeID, group)
	for _, prop := range properties {
		schema.InsertToGroup(prop, group)
	}
	return &ScanNodeTable{
		baseOperator: baseOperator{schema: schema},
		NodeID:       nodeID,
		TableIDs:     tableIDs,
		Properties:   properties,
	}
}

// ExpressionsScan materializes a fixed set of outer expressions, the seed of
// a correlated subquery plan.
type ExpressionsScan struct {
	baseOperator
	Expressions []expr.Expression
}

func (s *ExpressionsScan) Type() OperatorType {
	return OpTypeExpressionsScan
}

func (s *ExpressionsScan) String() string {
	names := make([]string, len(s.Expressions))
	for i, e := range s.Expressions {
		names[i] = e.String()
	}
	return fmt.Sprintf("ExpressionsScan(%s)", strings.Join(names, ", "))
}

func newExpressionsScan(expressions []expr.Expression) *ExpressionsScan {
	schema := NewSchema()
	group := schema.CreateGroup(true)
	for _, e := range expressions {
		schema.InsertToGroup(e, group)
	}
	return &ExpressionsScan{
		baseOperator: baseOperator{schema: schema},
		Expressions:  expressions,
	}
}
