package catalog

import (
	"fmt"

	"github.com/kestreldb/kestrel/internal/txn"
)

// TableID identifies a node or relationship table.
type TableID uint64

// InvalidTableID is never assigned to a real table.
const InvalidTableID TableID = 0

// Property describes one column of a node or relationship table.
type Property struct {
	Name     string
	DataType DataType
}

// DataType is the storage type of a property.
type DataType string

const (
	TypeInt64  DataType = "INT64"
	TypeDouble DataType = "DOUBLE"
	TypeString DataType = "STRING"
	TypeBool   DataType = "BOOL"
)

// NodeTable describes a node table.
type NodeTable struct {
	ID         TableID
	Name       string
	Properties []Property
}

// RelTable describes a relationship table between two node tables.
type RelTable struct {
	ID         TableID
	Name       string
	SrcTableID TableID
	DstTableID TableID
	Properties []Property
}

// TableStats holds per-table statistics used by the cardinality estimator.
type TableStats struct {
	RowCount   int64
	AvgDegree  float64 // rel tables: average out-degree from the source side
	AvgRowSize int64
}

// Catalog resolves table IDs and statistics. Implementations must be safe for
// concurrent readers; planning calls for independent queries share one
// catalog instance.
type Catalog interface {
	// GetNodeTable returns the node table with the given name.
	GetNodeTable(name string) (*NodeTable, error)
	// GetNodeTableByID returns the node table with the given ID.
	GetNodeTableByID(id TableID) (*NodeTable, error)
	// GetRelTable returns the relationship table with the given name.
	GetRelTable(name string) (*RelTable, error)
	// GetRelTableByID returns the relationship table with the given ID.
	GetRelTableByID(id TableID) (*RelTable, error)
	// GetTableStats returns statistics for a table as of the given
	// transaction's snapshot.
	GetTableStats(tx *txn.Transaction, id TableID) (*TableStats, error)
}

// ErrTableNotFound is returned for unknown table names or IDs.
type ErrTableNotFound struct {
	Name string
	ID   TableID
}

func (e *ErrTableNotFound) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("table %q does not exist", e.Name)
	}
	return fmt.Sprintf("table %d does not exist", e.ID)
}
