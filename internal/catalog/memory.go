package catalog

import (
	"sync"

	"github.com/kestreldb/kestrel/internal/txn"
)

// MemoryCatalog is an in-memory Catalog implementation. It backs tests and
// the CLI.
type MemoryCatalog struct {
	mu         sync.RWMutex
	nextID     TableID
	nodeTables map[string]*NodeTable
	relTables  map[string]*RelTable
	byID       map[TableID]any
	stats      map[TableID]*TableStats
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		nextID:     1,
		nodeTables: make(map[string]*NodeTable),
		relTables:  make(map[string]*RelTable),
		byID:       make(map[TableID]any),
		stats:      make(map[TableID]*TableStats),
	}
}

// CreateNodeTable registers a node table and returns it.
func (c *MemoryCatalog) CreateNodeTable(name string, properties []Property) (*NodeTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.nodeTables[name]; ok {
		return nil, &ErrTableExists{Name: name}
	}
	t := &NodeTable{ID: c.nextID, Name: name, Properties: properties}
	c.nextID++
	c.nodeTables[name] = t
	c.byID[t.ID] = t
	return t, nil
}

// CreateRelTable registers a relationship table and returns it.
func (c *MemoryCatalog) CreateRelTable(name string, src, dst TableID, properties []Property) (*RelTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.relTables[name]; ok {
		return nil, &ErrTableExists{Name: name}
	}
	if _, ok := c.byID[src]; !ok {
		return nil, &ErrTableNotFound{ID: src}
	}
	if _, ok := c.byID[dst]; !ok {
		return nil, &ErrTableNotFound{ID: dst}
	}
	t := &RelTable{ID: c.nextID, Name: name, SrcTableID: src, DstTableID: dst, Properties: properties}
	c.nextID++
	c.relTables[name] = t
	c.byID[t.ID] = t
	return t, nil
}

// SetTableStats installs statistics for a table.
func (c *MemoryCatalog) SetTableStats(id TableID, stats *TableStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[id] = stats
}

// GetNodeTable implements Catalog.
func (c *MemoryCatalog) GetNodeTable(name string) (*NodeTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.nodeTables[name]
	if !ok {
		return nil, &ErrTableNotFound{Name: name}
	}
	return t, nil
}

// GetNodeTableByID implements Catalog.
func (c *MemoryCatalog) GetNodeTableByID(id TableID) (*NodeTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.byID[id].(*NodeTable); ok {
		return t, nil
	}
	return nil, &ErrTableNotFound{ID: id}
}

// GetRelTable implements Catalog.
func (c *MemoryCatalog) GetRelTable(name string) (*RelTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.relTables[name]
	if !ok {
		return nil, &ErrTableNotFound{Name: name}
	}
	return t, nil
}

// GetRelTableByID implements Catalog.
func (c *MemoryCatalog) GetRelTableByID(id TableID) (*RelTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.byID[id].(*RelTable); ok {
		return t, nil
	}
	return nil, &ErrTableNotFound{ID: id}
}

// GetTableStats implements Catalog. Statistics are snapshot-independent in
// the in-memory catalog; the transaction parameter keys caches upstream.
func (c *MemoryCatalog) GetTableStats(_ *txn.Transaction, id TableID) (*TableStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.stats[id]; ok {
		return s, nil
	}
	if _, ok := c.byID[id]; !ok {
		return nil, &ErrTableNotFound{ID: id}
	}
	// Default estimates for tables that were never analyzed.
	return &TableStats{RowCount: 1000, AvgDegree: 10, AvgRowSize: 100}, nil
}

// ErrTableExists is returned when creating a table whose name is taken.
type ErrTableExists struct {
	Name string
}

func (e *ErrTableExists) Error() string {
	return "table \"" + e.Name + "\" already exists"
}
